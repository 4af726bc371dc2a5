package main

import (
	"strconv"

	"dscheirer.com/shifttimer/timer"
)

const stopKeyword = "stop"

// keyword -> label shown on the LCD
var modeLabels = map[string]string{
	"phone":  "PhoneShift",
	"onchat": "On-chat/call",
	"break":  "Break",
}

// parseMinutes is lenient: anything that is not a positive whole number
// of minutes runs for one minute.
func parseMinutes(args []string) int {
	if len(args) < 2 {
		return 1
	}
	m, err := strconv.Atoi(args[1])
	if err != nil || m < 1 {
		return 1
	}
	return m
}

// dispatch runs one invocation: `<mode> [minutes]`, `stop`, or nothing.
// It always leaves the available screen up, except for the idle case.
func dispatch(rt runtimeConfig, args []string) int {
	hold := rt.settings.GetDuration(sHoldTime)

	if len(args) == 0 {
		rt.logger.Printf("no mode given, idle")
		rt.show("Shift Timer", "Waiting for GUI")
		rt.clock.Sleep(hold)
		rt.segmentsOff()
		return 0
	}

	keyword := args[0]
	if keyword == stopKeyword {
		rt.logger.Printf("stop")
		showAvailable(rt)
		rt.clock.Sleep(hold)
		return 0
	}

	label, ok := modeLabels[keyword]
	if !ok {
		rt.logger.Printf("invalid mode %q", keyword)
		rt.show("Invalid mode", keyword)
		rt.segmentsOff()
		rt.clock.Sleep(rt.settings.GetDuration(sInvalidHoldTime))
		showAvailable(rt)
		return 0
	}

	minutes := parseMinutes(args)
	ctl := timer.New(rt.hw.lcd, rt.hw.seg, rt.clock,
		timer.WithLogger(newLogger("TIMER")),
		timer.WithPoll(rt.settings.GetDuration(sPollTime)),
		timer.WithHold(hold),
		timer.WithBlinks(rt.settings.GetInt(sBlinkCount)))
	if err := ctl.Run(timer.NewSession(label, minutes*60)); err != nil {
		rt.logger.Printf("%s: %v", label, err)
	}
	showAvailable(rt)
	return 0
}

func showAvailable(rt runtimeConfig) {
	rt.show("This Person", "Is Available")
	rt.segmentsOff()
}
