package main

import (
	"flag"
	"log"
	"os"

	"github.com/jonboulle/clockwork"
)

// shifttimer [-config {config file}] [phone|onchat|break [minutes] | stop]

func main() {
	os.Exit(run(os.Args[1:]))
}

// run returns the process exit code so deferred cleanup happens first.
func run(args []string) int {
	fs := flag.NewFlagSet("shifttimer", flag.ContinueOnError)
	cfgFile := fs.String("config", defaultConfigPath, "config file path")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	explicit := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			explicit = true
		}
	})

	settings, err := loadSettings(*cfgFile, explicit)
	if err != nil {
		log.Printf("%v", err)
		return 1
	}

	useConsole := settings.GetString(sBridge) == bridgeConsole
	logs := setupLogging(settings, useConsole)
	defer logs.Close()

	if settings.GetBool(sDebug) {
		log.Println(">>> Settings <<<")
		settings.Dump()
	}

	port, sim, err := newPort(settings)
	if err != nil {
		log.Printf("InitHardware failed: %v", err)
		return 1
	}

	clock := clockwork.NewRealClock()
	hw, err := openHardware(port, settings, clock)
	if err != nil {
		log.Printf("InitHardware failed: %v", err)
		return 1
	}
	defer hw.Close()

	if useConsole && sim != nil {
		pins, _ := settings.GetPins()
		stop, err := startConsole(sim, settings.GetByte(sI2CAddress), pins)
		if err != nil {
			log.Printf("console: %v", err)
		} else {
			defer stop()
		}
	}

	hw.start()
	return dispatch(initRuntime(settings, clock, hw), fs.Args())
}
