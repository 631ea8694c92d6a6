package pwm

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strings"
)

type Format int

const (
	FormatC      Format = iota // C header with struct pwmSetting noteDict[].
	FormatRust                 // Rust const array of PwmSetting.
	FormatBinary               // Raw little-endian image of the C array.
)

// ParseFormat converts a format name as given on the command line.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "c", "h":
		return FormatC, nil
	case "rust", "rs":
		return FormatRust, nil
	case "bin", "binary":
		return FormatBinary, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
}

func (f Format) String() string {
	switch f {
	case FormatC:
		return "c"
	case FormatRust:
		return "rust"
	case FormatBinary:
		return "bin"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

const cHeader = `#include <stdint.h>

struct pwmSetting {
	uint16_t wrap;
	uint8_t  clk_div;
	uint16_t wrap_pb_up;
};

struct pwmSetting noteDict[] = {
`

const cFooter = "\n};\n"

// Rows returns the initializer line of every note, in note order.
func (t *Table) Rows() []string {
	rows := make([]string, NumNotes)
	for note, s := range t.Settings {
		rows[note] = fmt.Sprintf("\t%s, // %s", s, NoteName(note))
	}
	return rows
}

// C returns the table as C source, ready to be compiled into the firmware.
func (t *Table) C() string {
	return cHeader + strings.Join(t.Rows(), "\n") + cFooter
}

// WriteC writes the C source of the table to w.
func (t *Table) WriteC(w io.Writer) error {
	_, err := io.WriteString(w, t.C())
	return err
}

const rustHeader = `pub struct PwmSetting {
    pub div_int: u8,
    pub top: u16,
    pub top_pb: u16,
}

pub const NOTE_DICT: [PwmSetting; 128] = [
`

const rustFooter = "\n];\n"

// Rust returns the table as a Rust const array, for the Rust firmware.
func (t *Table) Rust() string {
	rows := make([]string, NumNotes)
	for note, s := range t.Settings {
		rows[note] = fmt.Sprintf("    PwmSetting { div_int: %d, top: %d, top_pb: %d }, // %s",
			s.ClkDiv, s.Wrap, s.WrapPbUp, NoteName(note))
	}
	return rustHeader + strings.Join(rows, "\n") + rustFooter
}

// Size of one struct pwmSetting on a 32-bit little-endian MCU:
// wrap (2), clk_div (1), padding (1), wrap_pb_up (2).
const RecordSize = 6

// toBytes returns the in-memory representation of the setting.
func (s Setting) toBytes() []byte {
	output := make([]byte, RecordSize)
	binary.LittleEndian.PutUint16(output[0:2], s.Wrap)
	output[2] = s.ClkDiv
	// output[3] is alignment padding for wrap_pb_up.
	binary.LittleEndian.PutUint16(output[4:6], s.WrapPbUp)
	return output
}

// Binary returns a raw image of noteDict[] that can be linked or flashed as-is.
func (t *Table) Binary() ([]byte, error) {
	totalSize := NumNotes * RecordSize
	buffer := bytes.NewBuffer(make([]byte, 0, totalSize))
	for _, s := range t.Settings {
		buffer.Write(s.toBytes())
	}

	// Sanity check to make sure the output binary is the expected size.
	if buffer.Len() != totalSize {
		return nil, fmt.Errorf("table image size mismatch: got %d bytes, expected %d", buffer.Len(), totalSize)
	}
	return buffer.Bytes(), nil
}

// Encode renders the table in the given format.
func (t *Table) Encode(f Format) ([]byte, error) {
	switch f {
	case FormatC:
		return []byte(t.C()), nil
	case FormatRust:
		return []byte(t.Rust()), nil
	case FormatBinary:
		return t.Binary()
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, f)
	}
}
