// Package cheader reads back a note table previously generated as C source,
// so that a committed noteDict can be checked against the current generator.
package cheader

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/QEStudios/PWMNoteDict/pwm"
	"github.com/davecgh/go-spew/spew"
)

// The struct members expected between "struct pwmSetting {" and "};", in order.
var expectedFields = [][]string{
	{"uint16_t", "wrap;"},
	{"uint8_t", "clk_div;"},
	{"uint16_t", "wrap_pb_up;"},
}

// Small struct for non-fatal warnings
type ParseWarning struct {
	Line    int
	Message string
}

func (pw ParseWarning) String() string {
	return fmt.Sprintf("line %d: %s", pw.Line, pw.Message)
}

type ParseResult struct {
	Settings []pwm.Setting // Rows in file order, i.e. indexed by note number.
	Names    []string      // The note name comment of each row ("" if absent).
	Warnings []ParseWarning
}

type Parser struct {
	scanner    *bufio.Scanner
	logger     *log.Logger
	lineNumber int
	state      string
	fieldIndex int
	result     ParseResult

	// Whether or not the parser has already been used.
	// Parsing can only be done once per Parser.
	used bool
}

// NewParser creates a new parser to read a generated C table.
func NewParser(r io.Reader, logger *log.Logger) *Parser {
	if logger == nil {
		logger = log.Default()
	}
	return &Parser{
		scanner: bufio.NewScanner(r),
		logger:  logger,
		state:   "include", // Parser starts looking for the stdint include.
	}
}

// addWarning adds to the list of warnings encountered when parsing.
func (p *Parser) addWarning(format string, args ...any) {
	p.result.Warnings = append(p.result.Warnings, ParseWarning{
		Line:    p.lineNumber,
		Message: fmt.Sprintf(format, args...),
	})
}

func (p *Parser) fatalf(format string, args ...any) error {
	return fmt.Errorf("line %d: %s", p.lineNumber, fmt.Sprintf(format, args...))
}

// Parse reads the whole input and returns the table rows it declares.
func (p *Parser) Parse() (*ParseResult, error) {
	if p.used {
		return nil, fmt.Errorf("parser already used")
	}
	p.used = true

	for p.scanner.Scan() {
		p.lineNumber++
		trimmedLine := strings.TrimSpace(p.scanner.Text())

		// Blank lines are always ignored regardless of location in the file.
		if trimmedLine == "" {
			continue
		}

		switch p.state {
		case "include":
			if trimmedLine == "#include <stdint.h>" {
				p.state = "struct"
				continue
			}
			p.addWarning("unexpected text before #include <stdint.h>: %s", trimmedLine)

		case "struct":
			if trimmedLine == "struct pwmSetting {" {
				p.state = "fields"
				continue
			}
			return nil, p.fatalf("expected struct pwmSetting declaration, found: %s", trimmedLine)

		// The member layout is part of the firmware ABI, so any difference is fatal.
		case "fields":
			if trimmedLine == "};" {
				if p.fieldIndex != len(expectedFields) {
					return nil, p.fatalf("struct pwmSetting has %d fields, expected %d", p.fieldIndex, len(expectedFields))
				}
				p.state = "array"
				continue
			}
			if p.fieldIndex >= len(expectedFields) {
				return nil, p.fatalf("unexpected struct member: %s", trimmedLine)
			}
			want := expectedFields[p.fieldIndex]
			got := strings.Fields(trimmedLine)
			if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
				return nil, p.fatalf("struct member %d is %q, expected %q", p.fieldIndex, trimmedLine, strings.Join(want, " "))
			}
			p.fieldIndex++

		case "array":
			if strings.HasPrefix(trimmedLine, "struct pwmSetting noteDict[") && strings.HasSuffix(trimmedLine, "{") {
				p.state = "rows"
				continue
			}
			return nil, p.fatalf("expected noteDict array declaration, found: %s", trimmedLine)

		case "rows":
			if trimmedLine == "};" {
				p.state = "done"
				continue
			}
			s, name, err := parseRow(trimmedLine)
			if err != nil {
				return nil, p.fatalf("row %d: %v", len(p.result.Settings), err)
			}
			note := len(p.result.Settings)
			if name != "" && name != pwm.NoteName(note) {
				p.addWarning("row %d is labelled %s, expected %s", note, name, pwm.NoteName(note))
			}
			p.result.Settings = append(p.result.Settings, s)
			p.result.Names = append(p.result.Names, name)

		case "done":
			p.addWarning("ignoring text after the table: %s", trimmedLine)

		default:
			spew.Fdump(p.logger.Writer(), p.result)
			return nil, p.fatalf("unknown parser state: %s", p.state)
		}
	}

	if err := p.scanner.Err(); err != nil {
		return nil, p.fatalf("error while reading file: %v", err)
	}
	if p.state != "done" {
		return nil, p.fatalf("unexpected EOF")
	}

	p.logger.Printf("Read %d table rows with %d warnings", len(p.result.Settings), len(p.result.Warnings))
	return &p.result, nil
}

// parseRow parses a single initializer line such as "{56818, 5, 53629}, // A4".
func parseRow(line string) (pwm.Setting, string, error) {
	var name string
	if idx := strings.Index(line, "//"); idx >= 0 {
		name = strings.TrimSpace(line[idx+2:])
		line = strings.TrimSpace(line[:idx])
	}
	line = strings.TrimSuffix(line, ",")

	if !strings.HasPrefix(line, "{") || !strings.HasSuffix(line, "}") {
		return pwm.Setting{}, "", fmt.Errorf("invalid initializer %q", line)
	}
	tokens := strings.Split(line[1:len(line)-1], ",")
	if len(tokens) != 3 {
		return pwm.Setting{}, "", fmt.Errorf("expected 3 values, got %d", len(tokens))
	}

	bits := []int{16, 8, 16}
	values := make([]uint64, 3)
	for i, token := range tokens {
		v, err := strconv.ParseUint(strings.TrimSpace(token), 0, bits[i])
		if err != nil {
			return pwm.Setting{}, "", fmt.Errorf("value %d (%q) is not a valid %d-bit unsigned integer: %w", i+1, strings.TrimSpace(token), bits[i], err)
		}
		values[i] = v
	}

	return pwm.Setting{
		Wrap:     uint16(values[0]),
		ClkDiv:   uint8(values[1]),
		WrapPbUp: uint16(values[2]),
	}, name, nil
}

// A row that differs between the expected table and a parsed one.
type Mismatch struct {
	Note    int
	Want    pwm.Setting
	Got     pwm.Setting
	Missing bool // The parsed table has no row for Note.
	Extra   bool // The parsed table has a row past the last note.
}

func (m Mismatch) String() string {
	switch {
	case m.Missing:
		return fmt.Sprintf("note %d (%s): missing, expected %v", m.Note, pwm.NoteName(m.Note), m.Want)
	case m.Extra:
		return fmt.Sprintf("row %d: unexpected row %v", m.Note, m.Got)
	default:
		return fmt.Sprintf("note %d (%s): got %v, expected %v", m.Note, pwm.NoteName(m.Note), m.Got, m.Want)
	}
}

// Diff compares parsed rows against a freshly generated table.
// An empty result means the parsed table is up to date.
func Diff(want *pwm.Table, got []pwm.Setting) []Mismatch {
	var mismatches []Mismatch
	for note, w := range want.Settings {
		if note >= len(got) {
			mismatches = append(mismatches, Mismatch{Note: note, Want: w, Missing: true})
			continue
		}
		if got[note] != w {
			mismatches = append(mismatches, Mismatch{Note: note, Want: w, Got: got[note]})
		}
	}
	for note := pwm.NumNotes; note < len(got); note++ {
		mismatches = append(mismatches, Mismatch{Note: note, Got: got[note], Extra: true})
	}
	return mismatches
}
