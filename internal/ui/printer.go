package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// Printer renders user-facing result lines on stdout.
// Operational logging goes through the logger package instead; the split
// keeps stdout clean for humans and pipes.
type Printer struct {
	out     io.Writer
	success *color.Color
	notice  *color.Color
	alarm   *color.Color
}

// NewPrinter constructs a Printer with color automatically enabled for TTY output.
func NewPrinter() *Printer {
	p := &Printer{
		out:     os.Stdout,
		success: color.New(color.FgGreen),
		notice:  color.New(color.FgYellow),
		alarm:   color.New(color.FgRed),
	}

	if !supportsColor(os.Stdout) || os.Getenv("NO_COLOR") != "" {
		p.success.DisableColor()
		p.notice.DisableColor()
		p.alarm.DisableColor()
	}

	return p
}

// NewPrinterTo constructs a colorless Printer writing to w, for tests and captured output.
func NewPrinterTo(w io.Writer) *Printer {
	p := &Printer{
		out:     w,
		success: color.New(color.FgGreen),
		notice:  color.New(color.FgYellow),
		alarm:   color.New(color.FgRed),
	}

	p.success.DisableColor()
	p.notice.DisableColor()
	p.alarm.DisableColor()

	return p
}

// Println writes a plain line.
func (p *Printer) Println(args ...any) {
	_, _ = fmt.Fprintln(p.out, args...)
}

// Printf writes plain formatted text.
func (p *Printer) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(p.out, format, args...)
}

// Successf writes a green line for completed operations.
func (p *Printer) Successf(format string, args ...any) {
	_, _ = p.success.Fprintf(p.out, format+"\n", args...)
}

// Noticef writes a yellow line for conditions worth knowing about.
func (p *Printer) Noticef(format string, args ...any) {
	_, _ = p.notice.Fprintf(p.out, format+"\n", args...)
}

// Alarmf writes a red line for anomalies and failures.
func (p *Printer) Alarmf(format string, args ...any) {
	_, _ = p.alarm.Fprintf(p.out, format+"\n", args...)
}

// Separator writes the "---" divider between reported entries.
func (p *Printer) Separator() {
	_, _ = fmt.Fprintln(p.out, "---")
}

// IsInteractive reports whether stdin and stdout are attached to a terminal,
// gating interactive prompts.
func IsInteractive() bool {
	return supportsColor(os.Stdin) && supportsColor(os.Stdout)
}

func supportsColor(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
