package pwm

import (
	"fmt"
	"math"
)

const (
	DefaultMasterClockHz = 125_000_000 // RP2040 system clock.
	ReferenceNote        = 69          // A4
	ReferenceFreq        = 440.0       // Frequency of ReferenceNote in Hz.
)

// Config holds the generation-time parameters of the table.
type Config struct {
	MasterClockHz float64 // Clock fed into the PWM peripheral, in Hz.

	// How many times the timer wraps during one cycle of the output tone.
	// 1 when the PWM output is the tone itself, 2 when every wrap interrupt
	// toggles an output (as with a floppy drive step line).
	WrapsPerCycle int
}

// DefaultConfig returns the reference configuration.
func DefaultConfig() Config {
	return Config{
		MasterClockHz: DefaultMasterClockHz,
		WrapsPerCycle: 1,
	}
}

// Validate checks that every period computed from c is finite and positive.
func (c Config) Validate() error {
	if math.IsNaN(c.MasterClockHz) || math.IsInf(c.MasterClockHz, 0) || c.MasterClockHz <= 0 {
		return fmt.Errorf("%w: master clock must be a positive number of Hz, got %v", ErrInvalidConfig, c.MasterClockHz)
	}
	if c.WrapsPerCycle < 1 {
		return fmt.Errorf("%w: wraps per cycle must be at least 1, got %d", ErrInvalidConfig, c.WrapsPerCycle)
	}
	return nil
}

// Frequency converts a MIDI note number to its equal temperament frequency.
func Frequency(note int) float64 {
	return ReferenceFreq * math.Pow(2, float64(note-ReferenceNote)/12)
}

// Period returns the number of master clock cycles between two timer wraps
// for the given note. The result is not rounded.
func (c Config) Period(note int) float64 {
	return c.MasterClockHz / (Frequency(note) * float64(c.wrapsPerCycle()))
}

// Realized returns the frequency actually produced by a table row.
func (c Config) Realized(s Setting) float64 {
	return c.MasterClockHz / (float64(s.ClkDiv) * float64(s.Wrap) * float64(c.wrapsPerCycle()))
}

// RealizedPbUp returns the frequency produced by the pitch bend up wrap.
func (c Config) RealizedPbUp(s Setting) float64 {
	return c.MasterClockHz / (float64(s.ClkDiv) * float64(s.WrapPbUp) * float64(c.wrapsPerCycle()))
}

// A zero Config (e.g. a Table decoded without one) behaves as one wrap per cycle.
func (c Config) wrapsPerCycle() int {
	if c.WrapsPerCycle < 1 {
		return 1
	}
	return c.WrapsPerCycle
}

// CentsError returns how far actual is from target, in cents.
func CentsError(actual, target float64) float64 {
	return 1200 * math.Log2(actual/target)
}
