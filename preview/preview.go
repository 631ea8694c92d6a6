// Package preview renders a note table to a WAV file, so that the tuning of
// the realized PWM frequencies can be checked by ear before flashing.
package preview

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/QEStudios/PWMNoteDict/pwm"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
)

type Options struct {
	SampleRate   beep.SampleRate
	NoteDuration time.Duration // How long each note sounds.
	Gap          time.Duration // Silence after each note.
	Volume       float64       // Square wave amplitude, 0..1.
	Notes        []int         // Notes to play, in order.

	// If true, each note is followed by its pitch bend up wrap value under
	// the same divider, which should sound one semitone higher.
	PitchBend bool
}

// DefaultOptions plays the 88 piano keys.
func DefaultOptions() Options {
	notes := make([]int, 0, 88)
	for n := 21; n <= 108; n++ {
		notes = append(notes, n)
	}
	return Options{
		SampleRate:   beep.SampleRate(44100),
		NoteDuration: 250 * time.Millisecond,
		Gap:          50 * time.Millisecond,
		Volume:       0.3,
		Notes:        notes,
	}
}

// SquareWave generates a square wave at a fixed frequency
type SquareWave struct {
	step   float64 // Phase increment per sample.
	phase  float64
	volume float64
}

// NewSquareWave creates a square wave generator
func NewSquareWave(sr beep.SampleRate, freq, volume float64) *SquareWave {
	return &SquareWave{
		step:   freq / float64(sr),
		volume: volume,
	}
}

func (g *SquareWave) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		sample := g.volume
		if g.phase >= 0.5 {
			sample = -g.volume
		}
		samples[i][0] = sample
		samples[i][1] = sample

		g.phase = math.Mod(g.phase+g.step, 1)
	}
	return len(samples), true
}

func (g *SquareWave) Err() error {
	return nil
}

// Streamer returns the audition of tbl as a finite streamer.
func Streamer(tbl *pwm.Table, opt Options) (beep.Streamer, error) {
	if opt.SampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", opt.SampleRate)
	}
	if opt.Volume < 0 || opt.Volume > 1 {
		return nil, fmt.Errorf("volume must be 0..1, got %v", opt.Volume)
	}

	sr := opt.SampleRate
	var parts []beep.Streamer
	for _, note := range opt.Notes {
		if note < 0 || note >= pwm.NumNotes {
			return nil, fmt.Errorf("note %d is outside the table (0..%d)", note, pwm.NumNotes-1)
		}
		s := tbl.Setting(note)
		// A zero wrap would never sound (its realized frequency is infinite).
		if s.Wrap == 0 {
			return nil, fmt.Errorf("note %d (%s) has wrap 0 and cannot be auditioned", note, pwm.NoteName(note))
		}
		if opt.PitchBend && s.WrapPbUp == 0 {
			return nil, fmt.Errorf("note %d (%s) has wrap_pb_up 0 and cannot be auditioned", note, pwm.NoteName(note))
		}
		parts = append(parts, beep.Take(sr.N(opt.NoteDuration), NewSquareWave(sr, tbl.Config.Realized(s), opt.Volume)))
		if opt.PitchBend {
			parts = append(parts, beep.Take(sr.N(opt.NoteDuration), NewSquareWave(sr, tbl.Config.RealizedPbUp(s), opt.Volume)))
		}
		parts = append(parts, beep.Silence(sr.N(opt.Gap)))
	}
	return beep.Seq(parts...), nil
}

// Render writes the audition of tbl to w as a mono 16-bit WAV file.
func Render(w io.WriteSeeker, tbl *pwm.Table, opt Options) error {
	streamer, err := Streamer(tbl, opt)
	if err != nil {
		return err
	}
	format := beep.Format{
		SampleRate:  opt.SampleRate,
		NumChannels: 1,
		Precision:   2,
	}
	if err := wav.Encode(w, streamer, format); err != nil {
		return fmt.Errorf("error encoding preview: %w", err)
	}
	return nil
}

// ParseNoteRange parses a note list such as "60", "21-108" or "60,64,67".
func ParseNoteRange(s string) ([]int, error) {
	var notes []int
	for i, token := range strings.Split(s, ",") {
		token = strings.TrimSpace(token)
		lo, hi, isRange := strings.Cut(token, "-")
		first, err := strconv.Atoi(lo)
		if err != nil {
			return nil, fmt.Errorf("token %d (%q) in note list is not a valid note: %w", i+1, token, err)
		}
		last := first
		if isRange {
			last, err = strconv.Atoi(hi)
			if err != nil {
				return nil, fmt.Errorf("token %d (%q) in note list is not a valid range: %w", i+1, token, err)
			}
		}
		if first < 0 || last >= pwm.NumNotes || first > last {
			return nil, fmt.Errorf("token %d (%q) in note list must be in the range 0..%d", i+1, token, pwm.NumNotes-1)
		}
		for n := first; n <= last; n++ {
			notes = append(notes, n)
		}
	}
	return notes, nil
}
