package cheader

import (
	"bytes"
	"io"
	"log"
	"strings"
	"testing"

	"github.com/QEStudios/PWMNoteDict/pwm"
)

var quiet = log.New(io.Discard, "", 0)

func generate(t *testing.T) *pwm.Table {
	t.Helper()
	tbl, err := pwm.Generate(pwm.DefaultConfig())
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	return tbl
}

func parse(t *testing.T, src string) (*ParseResult, error) {
	t.Helper()
	return NewParser(strings.NewReader(src), quiet).Parse()
}

func TestRoundTrip(t *testing.T) {
	tbl := generate(t)
	res, err := parse(t, tbl.C())
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if len(res.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", res.Warnings)
	}
	if len(res.Settings) != pwm.NumNotes {
		t.Fatalf("parsed %d rows, expected %d", len(res.Settings), pwm.NumNotes)
	}
	if m := Diff(tbl, res.Settings); len(m) != 0 {
		t.Fatalf("freshly generated table differs: %v", m)
	}
	if res.Names[69] != "A4" || res.Names[0] != "C-1" {
		t.Fatalf("unexpected names %q, %q", res.Names[69], res.Names[0])
	}
}

func TestStaleTable(t *testing.T) {
	tbl := generate(t)
	src := strings.Replace(tbl.C(), "{56818, 5, 53629}, // A4", "{56819, 5, 53629}, // A4", 1)
	res, err := parse(t, src)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	m := Diff(tbl, res.Settings)
	if len(m) != 1 || m[0].Note != 69 || m[0].Got.Wrap != 56819 {
		t.Fatalf("unexpected mismatches: %v", m)
	}
	if !strings.Contains(m[0].String(), "note 69 (A4)") {
		t.Fatalf("unexpected mismatch text: %s", m[0])
	}
}

func TestOtherClockIsStale(t *testing.T) {
	other, err := pwm.Generate(pwm.Config{MasterClockHz: 48_000_000, WrapsPerCycle: 1})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	res, err := parse(t, other.C())
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if m := Diff(generate(t), res.Settings); len(m) == 0 {
		t.Fatalf("tables for different clocks compare equal")
	}
}

func TestMissingAndExtraRows(t *testing.T) {
	tbl := generate(t)
	rows := tbl.Rows()

	short := strings.Replace(tbl.C(), rows[127]+"\n", "", 1)
	res, err := parse(t, short)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	m := Diff(tbl, res.Settings)
	if len(m) != 1 || !m[0].Missing || m[0].Note != 127 {
		t.Fatalf("unexpected mismatches: %v", m)
	}

	long := strings.Replace(tbl.C(), rows[127]+"\n", rows[127]+"\n\t{1, 1, 1},\n", 1)
	res, err = parse(t, long)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	m = Diff(tbl, res.Settings)
	if len(m) != 1 || !m[0].Extra || m[0].Note != 128 {
		t.Fatalf("unexpected mismatches: %v", m)
	}
}

func TestWrongLabelWarns(t *testing.T) {
	tbl := generate(t)
	src := strings.Replace(tbl.C(), "// A4\n", "// A5\n", 1)
	res, err := parse(t, src)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0].Message, "row 69 is labelled A5") {
		t.Fatalf("unexpected warnings: %v", res.Warnings)
	}
}

func parseMustFail(t *testing.T, src, contains string) {
	t.Helper()
	res, err := parse(t, src)
	if err == nil {
		t.Fatalf("parse should have failed but got %d rows", len(res.Settings))
	}
	if !strings.Contains(err.Error(), contains) {
		t.Fatalf("error %q does not contain %q", err, contains)
	}
	t.Logf("got expected failure: %v", err)
}

func TestFailures(t *testing.T) {
	src := generate(t).C()

	parseMustFail(t, strings.Replace(src, "uint8_t  clk_div;", "uint16_t clk_div;", 1), "line 5: struct member 1")
	parseMustFail(t, strings.Replace(src, "{56818, 5, 53629}", "{56818, 300, 53629}", 1), "row 69: value 2")
	parseMustFail(t, strings.Replace(src, "{56818, 5, 53629}", "{56818, 5}", 1), "expected 3 values")
	parseMustFail(t, strings.TrimSuffix(src, "};\n"), "unexpected EOF")
	parseMustFail(t, "#include <stdint.h>\nint x;\n", "line 2: expected struct pwmSetting")
}

func TestParserSingleUse(t *testing.T) {
	p := NewParser(strings.NewReader(generate(t).C()), quiet)
	if _, err := p.Parse(); err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if _, err := p.Parse(); err == nil {
		t.Fatalf("second Parse should fail")
	}
}

func TestUnknownStateDumpsToLog(t *testing.T) {
	var logBuf bytes.Buffer
	p := NewParser(strings.NewReader("#include <stdint.h>\n"), log.New(&logBuf, "", 0))
	p.state = "bogus"
	_, err := p.Parse()
	if err == nil || !strings.Contains(err.Error(), "line 1: unknown parser state: bogus") {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(logBuf.String(), "ParseResult") {
		t.Fatalf("parser state was not dumped to the logger: %q", logBuf.String())
	}
}
