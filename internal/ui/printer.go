// Package ui prints user-facing progress messages for the airflow-dev CLI.
//
// Colors come from github.com/fatih/color, which disables them
// automatically when the output is not a terminal or NO_COLOR is set.
package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// Printer writes colored one-line messages. The zero value writes to
// stdout; a nil *Printer discards everything.
type Printer struct {
	Out io.Writer
}

// New returns a Printer writing to out.
func New(out io.Writer) *Printer {
	return &Printer{Out: out}
}

var (
	stepColor    = color.New(color.FgCyan)
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
)

// Step announces a state change, e.g. "Creating virtual environment...".
func (p *Printer) Step(format string, args ...interface{}) {
	p.print(stepColor, format, args...)
}

// Success reports a completed step.
func (p *Printer) Success(format string, args ...interface{}) {
	p.print(successColor, format, args...)
}

// Warn reports something the user should know about that does not stop
// the run.
func (p *Printer) Warn(format string, args ...interface{}) {
	p.print(warnColor, format, args...)
}

func (p *Printer) print(c *color.Color, format string, args ...interface{}) {
	if p == nil {
		return
	}
	out := p.Out
	if out == nil {
		out = os.Stdout
	}
	_, _ = c.Fprintln(out, fmt.Sprintf(format, args...))
}
