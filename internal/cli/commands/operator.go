package commands

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/charmbracelet/lipgloss"

	"github.com/leapstack-labs/sqlmine/internal/pipeline"
)

// operator prints the human-facing progress and summary lines. These are
// not log records.
type operator struct {
	w      io.Writer
	styled bool

	good  lipgloss.Style
	bad   lipgloss.Style
	muted lipgloss.Style
}

func newOperator(w io.Writer) *operator {
	return &operator{
		w:      w,
		styled: writerIsTerminal(w),
		good:   lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
		bad:    lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		muted:  lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

func (o *operator) render(style lipgloss.Style, s string) string {
	if !o.styled {
		return s
	}
	return style.Render(s)
}

func (o *operator) println(s string) {
	_, _ = fmt.Fprintln(o.w, s)
}

// progress prints "Progress: N/T - P%".
func (o *operator) progress(p pipeline.Progress) {
	pct := strconv.FormatFloat(math.Round(p.Percent()*100)/100, 'f', -1, 64)
	o.println(o.render(o.muted, fmt.Sprintf("Progress: %d/%d - %s%%", p.Completed, p.Total, pct)))
}

func (o *operator) workerFault() {
	o.println(o.render(o.bad, "ERROR: A worker has thrown an exception. Shutting down..."))
}

func (o *operator) summary(s pipeline.Summary, written, unwritable int) {
	o.println(fmt.Sprintf("Shards: %d/%d  Records: %d  Skipped: %d  Candidates: %d  Rows: %d",
		s.Completed, s.Shards, s.Records, s.Skipped, s.Candidates, written))
	if unwritable > 0 {
		o.println(o.render(o.bad, fmt.Sprintf("%d row(s) could not be encoded and were skipped", unwritable)))
	}
}

func (o *operator) complete() {
	o.println(o.render(o.good, "Processing complete."))
}

func (o *operator) incomplete() {
	o.println(o.render(o.bad, "Something unexpected caused the program to exit."))
	o.println("The processing has not been completed.")
}
