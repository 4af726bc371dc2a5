package timer

import (
	"fmt"

	"dscheirer.com/shifttimer/mathx"
)

// LabelWidth is how much of the mode name fits next to "MM:SS".
const LabelWidth = 10

// Progress returns the segment digit for elapsed seconds of a total-second
// session: 9 in the first tenth, counting down to 0 in the last. The step
// is elapsed over a tenth of the total, floored and capped at 9.
func Progress(elapsed, total int) int {
	if total <= 0 {
		return 0
	}
	step := int(float64(elapsed) / (float64(total) / 10.0))
	return 9 - mathx.Clamp(step, 0, 9)
}

// Remaining is total minus elapsed, never below zero.
func Remaining(elapsed, total int) int {
	return mathx.Clamp(total-elapsed, 0, total)
}

// ShortLabel cuts a mode name to LabelWidth.
func ShortLabel(mode string) string {
	if len(mode) > LabelWidth {
		return mode[:LabelWidth]
	}
	return mode
}

// StatusLine is the first LCD line while running, e.g. "PhoneShift 01:00".
func StatusLine(label string, remaining int) string {
	return fmt.Sprintf("%s %02d:%02d", ShortLabel(label), remaining/60, remaining%60)
}

// ProgressLine is the second LCD line for a segment digit.
func ProgressLine(digit int) string {
	return fmt.Sprintf("Progress %d/9", 9-digit)
}
