package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/QEStudios/PWMNoteDict/parser/cheader"
	"github.com/QEStudios/PWMNoteDict/preview"
	"github.com/QEStudios/PWMNoteDict/pwm"
	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/pflag"
	"github.com/sqweek/dialog"
)

var errStale = errors.New("note table is out of date")

func main() {
	// stdout carries the generated table, so everything else goes to stderr.
	logger := log.New(os.Stderr, "", log.Ldate|log.Ltime)

	err := run(os.Args[1:], os.Stdout, logger)
	switch {
	case err == nil:
	case errors.Is(err, pflag.ErrHelp):
	case errors.Is(err, dialog.ErrCancelled):
		logger.Printf("User cancelled the file dialog")
		os.Exit(1)
	case errors.Is(err, errStale):
		logger.Printf("%v", err)
		os.Exit(1)
	default:
		logger.Fatalf("%v", err)
	}
}

type options struct {
	cfg          pwm.Config
	format       string
	output       string
	saveDialog   bool
	check        string
	report       bool
	previewPath  string
	previewNotes string
	pitchBend    bool
	debug        bool
}

func parseFlags(args []string) (*options, error) {
	opt := &options{cfg: pwm.DefaultConfig()}

	flags := pflag.NewFlagSet("notedict", pflag.ContinueOnError)
	flags.Float64VarP(&opt.cfg.MasterClockHz, "clock", "c", pwm.DefaultMasterClockHz, "master clock frequency in Hz")
	flags.IntVarP(&opt.cfg.WrapsPerCycle, "wraps-per-cycle", "k", 1, "timer wraps per output cycle (2 when each wrap toggles the output)")
	flags.StringVarP(&opt.format, "format", "f", "c", "output format: c, rust or bin")
	flags.StringVarP(&opt.output, "output", "o", "", "output file (default stdout)")
	flags.BoolVar(&opt.saveDialog, "save-dialog", false, "choose the output file with a file dialog")
	flags.StringVar(&opt.check, "check", "", "compare an existing C table against the generated one and fail if it differs")
	flags.BoolVar(&opt.report, "report", false, "log the realized frequency and tuning error of every note")
	flags.StringVar(&opt.previewPath, "preview", "", "write an audition of the table to this WAV file")
	flags.StringVar(&opt.previewNotes, "preview-notes", "21-108", "notes to audition, e.g. 60-72 or 60,64,67")
	flags.BoolVar(&opt.pitchBend, "preview-pitch-bend", false, "follow each auditioned note with its pitch bend up value")
	flags.BoolVar(&opt.debug, "debug", false, "dump the generated table")

	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	if flags.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(flags.Args(), " "))
	}
	return opt, nil
}

func run(args []string, stdout io.Writer, logger *log.Logger) error {
	opt, err := parseFlags(args)
	if err != nil {
		return err
	}

	tbl, err := pwm.Generate(opt.cfg)
	if err != nil {
		return err
	}
	logger.Printf("Generated %d notes\n%s", pwm.NumNotes, tbl)

	if opt.debug {
		spew.Fdump(logger.Writer(), tbl)
	}
	if opt.report {
		logger.Printf("Tuning report:\n%s", tbl.Report())
	}

	if opt.check != "" {
		return checkTable(opt.check, tbl, logger)
	}

	if opt.previewPath != "" {
		if err := writePreview(opt, tbl); err != nil {
			return err
		}
		logger.Printf("Wrote preview to %s", opt.previewPath)
	}

	format, err := pwm.ParseFormat(opt.format)
	if err != nil {
		return err
	}
	out, err := tbl.Encode(format)
	if err != nil {
		return err
	}

	path := opt.output
	if opt.saveDialog {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get current working directory: %w", err)
		}
		path, err = chooseOutputPath(cwd, format)
		if err != nil {
			return err
		}
	}

	if path == "" {
		_, err = stdout.Write(out)
		return err
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("error writing output file: %w", err)
	}
	logger.Printf("Wrote %s table to %s", format, path)
	return nil
}

// checkTable reports every row of the C table at path that differs from tbl.
func checkTable(path string, tbl *pwm.Table, logger *log.Logger) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("error opening file: %w", err)
	}
	defer file.Close()

	res, err := cheader.NewParser(file, logger).Parse()
	if err != nil {
		return fmt.Errorf("%s: parse error: %w", path, err)
	}
	for _, w := range res.Warnings {
		logger.Printf("%s: warning: %s", path, w)
	}

	mismatches := cheader.Diff(tbl, res.Settings)
	if len(mismatches) == 0 {
		logger.Printf("%s is up to date", path)
		return nil
	}
	for _, m := range mismatches {
		logger.Printf("%s: %s", path, m)
	}
	return fmt.Errorf("%s: %w (%d rows differ)", path, errStale, len(mismatches))
}

func writePreview(opt *options, tbl *pwm.Table) error {
	popt := preview.DefaultOptions()
	notes, err := preview.ParseNoteRange(opt.previewNotes)
	if err != nil {
		return err
	}
	popt.Notes = notes
	popt.PitchBend = opt.pitchBend

	f, err := os.Create(opt.previewPath)
	if err != nil {
		return fmt.Errorf("error creating preview file: %w", err)
	}
	if err := preview.Render(f, tbl, popt); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// chooseOutputPath asks for the output file with a save dialog.
func chooseOutputPath(cwd string, format pwm.Format) (string, error) {
	desc, ext := "C headers (*.h)", "h"
	switch format {
	case pwm.FormatRust:
		desc, ext = "Rust sources (*.rs)", "rs"
	case pwm.FormatBinary:
		desc, ext = "Binary images (*.bin)", "bin"
	}

	path, err := dialog.
		File().
		Title("Save note table").
		Filter(desc, ext).
		SetStartDir(cwd).
		Save()
	if err != nil {
		// Propagate the error. Caller will check for dialog.ErrCancelled.
		return "", err
	}

	// Check for empty path just in case.
	if path == "" {
		return "", dialog.ErrCancelled
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("cannot get absolute path: %w", err)
	}
	if filepath.Ext(absPath) == "" {
		absPath += "." + ext
	}
	return absPath, nil
}
