package sevenseg

import "strings"

// Lines draws a segment mask as five rows of three characters:
//
//	 -
//	| |
//	 -
//	| |
//	 -
func Lines(mask byte) [5]string {
	on := func(seg int, s string) string {
		if mask&(1<<uint(seg)) != 0 {
			return s
		}
		return " "
	}
	return [5]string{
		" " + on(SegA, "-") + " ",
		on(SegF, "|") + " " + on(SegB, "|"),
		" " + on(SegG, "-") + " ",
		on(SegE, "|") + " " + on(SegC, "|"),
		" " + on(SegD, "-") + " ",
	}
}

// Dump is Lines joined with newlines.
func Dump(mask byte) string {
	l := Lines(mask)
	return strings.Join(l[:], "\n")
}
