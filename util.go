// utility functions
package main

import (
	"log"

	"github.com/jonboulle/clockwork"
)

type runtimeConfig struct {
	settings *configSettings
	clock    clockwork.Clock
	hw       *hardware
	logger   *log.Logger
}

func initRuntime(settings *configSettings, clock clockwork.Clock, hw *hardware) runtimeConfig {
	return runtimeConfig{
		settings: settings,
		clock:    clock,
		hw:       hw,
		logger:   newLogger("MAIN"),
	}
}

// show writes both LCD lines, an LCD failure is only logged.
func (rt runtimeConfig) show(line1, line2 string) {
	if err := rt.hw.lcd.ShowLines(line1, line2); err != nil {
		rt.logger.Printf("LCD: %v", err)
	}
}

func (rt runtimeConfig) segmentsOff() {
	if err := rt.hw.seg.Off(); err != nil {
		rt.logger.Printf("segments: %v", err)
	}
}
