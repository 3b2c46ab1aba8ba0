package backfill

import (
	"fmt"
	"io"
)

// Logger writes progress to Out and warnings to Err, gating extra detail on
// Verbosity. All methods are safe on a nil receiver.
type Logger struct {
	Out       io.Writer
	Err       io.Writer
	Verbosity int
}

// Printf writes a progress line.
func (l *Logger) Printf(format string, args ...any) {
	if l == nil || l.Out == nil {
		return
	}
	fmt.Fprintf(l.Out, format+"\n", args...)
}

// Verbosef writes a progress line only at verbosity 1 or higher.
func (l *Logger) Verbosef(format string, args ...any) {
	if l == nil || l.Out == nil || l.Verbosity < 1 {
		return
	}
	fmt.Fprintf(l.Out, format+"\n", args...)
}

// Warnf writes a warning line.
func (l *Logger) Warnf(format string, args ...any) {
	if l == nil || l.Err == nil {
		return
	}
	fmt.Fprintf(l.Err, "Warning: "+format+"\n", args...)
}
