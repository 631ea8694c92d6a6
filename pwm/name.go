package pwm

import "strconv"

// Pitch class names, starting at A so that note 21 (A0) has index 0.
var pitchClassNames = [12]string{"A", "A#", "B", "C", "C#", "D", "D#", "E", "F", "F#", "G", "G#"}

// NoteName returns the pitch class and octave of a MIDI note number, e.g. "A4"
// for 69 and "C-1" for 0. It is defined for any integer.
func NoteName(note int) string {
	return pitchClassNames[mod(note-21, 12)] + strconv.Itoa(floorDiv(note-12, 12))
}

// mod returns a modulo b in [0, b) for positive b.
func mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

// floorDiv divides rounding towards negative infinity.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
