package pwm

import "fmt"

// A complete note table, indexed by MIDI note number.
type Table struct {
	Config   Config
	Settings [NumNotes]Setting
}

// Generate computes the settings of every MIDI note under cfg.
// Generation stops at the first note whose registers would overflow.
func Generate(cfg Config) (*Table, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	t := &Table{Config: cfg}
	for note := 0; note < NumNotes; note++ {
		s, err := cfg.GenNote(note)
		if err != nil {
			return nil, fmt.Errorf("cannot generate note table: %w", err)
		}
		t.Settings[note] = s
	}
	return t, nil
}

// Setting returns the row for a note. Notes outside 0..127 are clamped,
// the same way the firmware clamps a note shifted by pitch bend.
func (t *Table) Setting(note int) Setting {
	note = max(0, min(note, NumNotes-1))
	return t.Settings[note]
}
