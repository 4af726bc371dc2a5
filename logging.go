package main

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// setupLogging sends the standard logger to stderr and, when logFile is
// set, to a rotated file as well. quiet drops stderr, the console view
// owns the terminal.
func setupLogging(settings *configSettings, quiet bool) io.Closer {
	log.SetFlags(log.LstdFlags)

	var outputs []io.Writer
	if !quiet {
		outputs = append(outputs, os.Stderr)
	}

	var closer io.Closer = nopCloser{}
	if path := settings.GetString(sLogFile); path != "" {
		rotated := &lumberjack.Logger{
			Filename:   path,
			MaxSize:    settings.GetInt(sLogMaxSize),
			MaxBackups: settings.GetInt(sLogMaxBackups),
			MaxAge:     settings.GetInt(sLogMaxAge),
		}
		outputs = append(outputs, rotated)
		closer = rotated
	}

	switch len(outputs) {
	case 0:
		log.SetOutput(io.Discard)
	case 1:
		log.SetOutput(outputs[0])
	default:
		log.SetOutput(io.MultiWriter(outputs...))
	}
	return closer
}

// newLogger makes a component logger sharing the standard logger's output.
func newLogger(name string) *log.Logger {
	return log.New(log.Writer(), "["+name+"] ", log.LstdFlags)
}
