package pwm

import (
	"errors"
	"fmt"
	"math"
)

const (
	NumNotes  = 128                  // Number of MIDI notes, and rows in the table.
	MaxWrap   = (1 << 16) - 1        // The wrap (top) register is 16 bits wide.
	MaxClkDiv = (1 << 8) - 1         // Only the 8-bit integer part of the divider is used.
	wrapSpan  = float64(MaxWrap + 1) // Counts covered by one divider step.
)

var (
	ErrOutOfRange    = errors.New("value does not fit its register")
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrUnknownFormat = errors.New("unknown output format")
)

// RangeError reports a derived register value that would not fit the field
// it is stored in. Note is -1 when the error was produced by Derive directly.
type RangeError struct {
	Note  int
	Field string
	Value float64
}

func (e *RangeError) Error() string {
	if e.Note < 0 {
		return fmt.Sprintf("%s = %.0f does not fit its register", e.Field, e.Value)
	}
	return fmt.Sprintf("note %d (%s): %s = %.0f does not fit its register", e.Note, NoteName(e.Note), e.Field, e.Value)
}

func (e *RangeError) Unwrap() error {
	return ErrOutOfRange
}

// A single row of the note table, with the same layout as struct pwmSetting.
type Setting struct {
	Wrap     uint16 // Timer top value for the note itself.
	ClkDiv   uint8  // Integer clock divider, shared by both wrap values.
	WrapPbUp uint16 // Timer top value for the note one semitone up, under ClkDiv.
}

func (s Setting) String() string {
	return fmt.Sprintf("{%d, %d, %d}", s.Wrap, s.ClkDiv, s.WrapPbUp)
}

// Derive converts a fractional period (in master clock cycles) into a
// divider and wrap pair, and derives the pitch bend up wrap from periodUp
// using the same divider.
//
// The divider is the smallest one that brings period under the 16-bit wrap
// range. periodUp is divided by that same divider, since the firmware only
// changes the wrap register while bending.
func Derive(period, periodUp float64) (Setting, error) {
	clkDiv := math.Ceil(period / wrapSpan)
	if clkDiv < 1 || clkDiv > MaxClkDiv || math.IsNaN(clkDiv) {
		return Setting{}, &RangeError{Note: -1, Field: "clk_div", Value: clkDiv}
	}

	wrap := math.RoundToEven(period / clkDiv)
	if wrap < 0 || wrap > MaxWrap {
		return Setting{}, &RangeError{Note: -1, Field: "wrap", Value: wrap}
	}

	// Always in range when periodUp < period.
	wrapPbUp := math.RoundToEven(periodUp / clkDiv)
	if wrapPbUp < 0 || wrapPbUp > MaxWrap || math.IsNaN(wrapPbUp) {
		return Setting{}, &RangeError{Note: -1, Field: "wrap_pb_up", Value: wrapPbUp}
	}

	return Setting{
		Wrap:     uint16(wrap),
		ClkDiv:   uint8(clkDiv),
		WrapPbUp: uint16(wrapPbUp),
	}, nil
}

// GenNote computes the table row for a single note.
func (c Config) GenNote(note int) (Setting, error) {
	s, err := Derive(c.Period(note), c.Period(note+1))
	if err != nil {
		var re *RangeError
		if errors.As(err, &re) {
			re.Note = note
		}
		return Setting{}, err
	}
	return s, nil
}
