package pwm

import (
	"fmt"
	"math"
	"strings"
)

var reportHeaders = []string{"Note", "Name", "Target Hz", "Actual Hz", "Cents", "clk_div", "wrap", "wrap_pb_up", "Bend cents"}

// formatColumns formats rows of cells into a table with one column per header.
// Rows shorter than the header list are padded with empty cells.
// indent: number of spaces to indent the table
func formatColumns(headers []string, rows [][]string, indent int) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
		for _, row := range rows {
			if i < len(row) && len(row[i]) > widths[i] {
				widths[i] = len(row[i])
			}
		}
	}

	padRight := func(s string, w int) string {
		if len(s) >= w {
			return s
		}
		return s + strings.Repeat(" ", w-len(s))
	}

	var b strings.Builder
	separator := func() {
		b.WriteString(strings.Repeat(" ", indent))
		for _, w := range widths {
			b.WriteString("+")
			b.WriteString(strings.Repeat("-", w+2)) // +2 for the space padding either side
		}
		b.WriteString("+\n")
	}
	line := func(cells []string) {
		b.WriteString(strings.Repeat(" ", indent))
		for i, w := range widths {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			b.WriteString("| ")
			b.WriteString(padRight(cell, w))
			b.WriteString(" ")
		}
		b.WriteString("|\n")
	}

	separator()
	line(headers)
	separator()
	for _, row := range rows {
		line(row)
	}
	separator()

	return b.String()
}

// WorstError returns the note whose realized frequency is furthest from its
// target, and that distance in cents.
func (t *Table) WorstError() (note int, cents float64) {
	for n, s := range t.Settings {
		c := math.Abs(CentsError(t.Config.Realized(s), Frequency(n)))
		if c > cents {
			note, cents = n, c
		}
	}
	return note, cents
}

// Report returns a human readable listing of every row, with the frequency
// it actually produces.
func (t *Table) Report() string {
	rows := make([][]string, 0, NumNotes)
	for note, s := range t.Settings {
		target := Frequency(note)
		actual := t.Config.Realized(s)
		bend := t.Config.RealizedPbUp(s)
		rows = append(rows, []string{
			fmt.Sprintf("%d", note),
			NoteName(note),
			fmt.Sprintf("%.3f", target),
			fmt.Sprintf("%.3f", actual),
			fmt.Sprintf("%+.3f", CentsError(actual, target)),
			fmt.Sprintf("%d", s.ClkDiv),
			fmt.Sprintf("%d", s.Wrap),
			fmt.Sprintf("%d", s.WrapPbUp),
			fmt.Sprintf("%+.3f", CentsError(bend, Frequency(note+1))),
		})
	}
	return formatColumns(reportHeaders, rows, 2)
}

// Pretty-print
func (t *Table) String() string {
	var b strings.Builder
	b.WriteString("PWM note table:\n")
	fmt.Fprintf(&b, "- Master clock: %.0f Hz\n", t.Config.MasterClockHz)
	fmt.Fprintf(&b, "- Wraps per cycle: %d\n", t.Config.wrapsPerCycle())

	minDiv, maxDiv := uint8(MaxClkDiv), uint8(0)
	for _, s := range t.Settings {
		minDiv = min(minDiv, s.ClkDiv)
		maxDiv = max(maxDiv, s.ClkDiv)
	}
	fmt.Fprintf(&b, "- Clock dividers: %d..%d\n", minDiv, maxDiv)

	note, cents := t.WorstError()
	fmt.Fprintf(&b, "- Worst tuning error: %.3f cents (%s)\n", cents, NoteName(note))
	fmt.Fprintf(&b, "[Total size: %d notes, %d bytes]\n", NumNotes, NumNotes*RecordSize)
	return b.String()
}
