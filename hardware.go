package main

import (
	"log"

	"dscheirer.com/shifttimer/bridge"
	"dscheirer.com/shifttimer/lcd"
	"dscheirer.com/shifttimer/sevenseg"
	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
)

// bridge choices
const (
	bridgeSim     = "sim"
	bridgeConsole = "console"
	bridgeRPi     = "rpi"
)

type hardware struct {
	dev *bridge.Device
	lcd *lcd.Display
	seg *sevenseg.Display
}

// newPort picks the bridge implementation. sim is also returned for the
// in-memory kinds so a console can watch it.
func newPort(settings *configSettings) (bridge.Port, *bridge.Sim, error) {
	switch kind := settings.GetString(sBridge); kind {
	case bridgeSim, bridgeConsole:
		sim := bridge.NewSim()
		return sim, sim, nil
	case bridgeRPi:
		return bridge.NewRPi(settings.GetBool(sI2CSimulated)), nil, nil
	default:
		return nil, nil, errors.Errorf("unknown bridge %q", kind)
	}
}

// openHardware opens the bridge, sets up I2C for the LCD backpack and the
// segment lines as outputs. Any failure closes what was opened.
func openHardware(port bridge.Port, settings *configSettings, clock clockwork.Clock) (*hardware, error) {
	pins, err := settings.GetPins()
	if err != nil {
		return nil, err
	}

	dev, err := bridge.Open(port, settings.GetInt(sHubIndex), bridge.WithLogger(newLogger("BRIDGE")))
	if err != nil {
		return nil, errors.Wrap(err, "open bridge")
	}

	if err := dev.ConfigureI2C(settings.GetInt(sI2CClockRate), settings.GetInt(sI2CPreset)); err != nil {
		dev.Close()
		return nil, errors.Wrap(err, "configure I2C")
	}
	log.Printf("I2C configured OK.")

	seg := sevenseg.New(dev, pins, clock,
		sevenseg.WithLogger(newLogger("SEG")),
		sevenseg.WithDebugDump(settings.GetBool(sDebug)),
		sevenseg.WithBlinkInterval(settings.GetDuration(sBlinkTime)))
	if err := seg.Configure(); err != nil {
		dev.Close()
		return nil, errors.Wrap(err, "configure segment GPIO")
	}

	disp := lcd.New(dev, settings.GetByte(sI2CAddress), clock, lcd.WithLogger(newLogger("LCD")))
	return &hardware{dev: dev, lcd: disp, seg: seg}, nil
}

// start puts both displays in a known state. Neither failure is fatal.
func (h *hardware) start() {
	if err := h.lcd.Init(); err != nil {
		log.Printf("LCD init: %v", err)
	}
	if err := h.seg.Off(); err != nil {
		log.Printf("segments off: %v", err)
	}
}

func (h *hardware) Close() error {
	return h.dev.Close()
}
