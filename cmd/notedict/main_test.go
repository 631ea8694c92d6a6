package main

import (
	"bytes"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/QEStudios/PWMNoteDict/pwm"
)

var quiet = log.New(io.Discard, "", 0)

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	if err := run(args, &out, quiet); err != nil {
		t.Fatalf("run(%v) error: %v", args, err)
	}
	return out.String()
}

func TestDefaultOutput(t *testing.T) {
	tbl, err := pwm.Generate(pwm.DefaultConfig())
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if got := mustRun(t); got != tbl.C() {
		t.Fatalf("default output differs from the C table")
	}
	if mustRun(t) != mustRun(t, "--clock", "125000000") {
		t.Fatalf("explicit default clock changes the output")
	}
}

func TestFormats(t *testing.T) {
	if out := mustRun(t, "-f", "rust"); !strings.Contains(out, "pub const NOTE_DICT") {
		t.Fatalf("rust output missing NOTE_DICT")
	}
	if out := mustRun(t, "--format", "bin"); len(out) != pwm.NumNotes*pwm.RecordSize {
		t.Fatalf("binary output is %d bytes", len(out))
	}
	if err := run([]string{"-f", "json"}, io.Discard, quiet); !errors.Is(err, pwm.ErrUnknownFormat) {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClockOverflowFails(t *testing.T) {
	err := run([]string{"--clock", "250000000"}, io.Discard, quiet)
	var re *pwm.RangeError
	if !errors.As(err, &re) || re.Note != 0 {
		t.Fatalf("expected a range error for note 0, got %v", err)
	}
}

func TestOutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "noteDict.h")
	if out := mustRun(t, "-o", path, "-k", "2"); out != "" {
		t.Fatalf("stdout should be empty when writing to a file")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile error: %v", err)
	}
	if !strings.Contains(string(data), "\t{47348, 3, 44691}, // A4\n") {
		t.Fatalf("file does not contain the two-wrap A4 row")
	}
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	current := filepath.Join(dir, "current.h")
	if err := os.WriteFile(current, []byte(mustRun(t)), 0o644); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}
	if out := mustRun(t, "--check", current); out != "" {
		t.Fatalf("check mode should not write the table")
	}

	stale := filepath.Join(dir, "stale.h")
	if err := os.WriteFile(stale, []byte(mustRun(t, "--clock", "48000000")), 0o644); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}
	if err := run([]string{"--check", stale}, io.Discard, quiet); !errors.Is(err, errStale) {
		t.Fatalf("expected a stale table error, got %v", err)
	}

	if err := run([]string{"--check", filepath.Join(dir, "missing.h")}, io.Discard, quiet); err == nil {
		t.Fatalf("expected an error for a missing file")
	}
}

func TestPreviewFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preview.wav")
	mustRun(t, "--preview", path, "--preview-notes", "69", "--preview-pitch-bend")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile error: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("RIFF")) {
		t.Fatalf("preview is not a WAV file")
	}

	if err := run([]string{"--preview", path, "--preview-notes", "200"}, io.Discard, quiet); err == nil {
		t.Fatalf("expected an invalid preview note list to fail")
	}
}

func TestArguments(t *testing.T) {
	if err := run([]string{"extra"}, io.Discard, quiet); err == nil {
		t.Fatalf("expected positional arguments to be rejected")
	}
	if err := run([]string{"-k", "0"}, io.Discard, quiet); !errors.Is(err, pwm.ErrInvalidConfig) {
		t.Fatalf("unexpected error: %v", err)
	}
}
