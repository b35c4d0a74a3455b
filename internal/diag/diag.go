// Package diag carries non-fatal diagnostics (parse and completeness
// warnings) from the library packages up to the CLI.
package diag

import (
	"fmt"
	"io"
	"log"
	"strings"
)

// Warning is a recoverable problem found while parsing documentation or
// assembling a document. The best-effort result is still produced.
type Warning struct {
	Scope   string // route ("GET /users/:id") or type name; may be empty
	Line    int    // 1-based line within the documentation block; 0 when unknown
	Message string
}

func (w Warning) String() string {
	var b strings.Builder
	if w.Scope != "" {
		b.WriteString(w.Scope)
		if w.Line > 0 {
			fmt.Fprintf(&b, " (line %d)", w.Line)
		}
		b.WriteString(": ")
	} else if w.Line > 0 {
		fmt.Fprintf(&b, "line %d: ", w.Line)
	}
	b.WriteString(w.Message)
	return b.String()
}

// WithScope returns copies of ws whose empty Scope is set to scope.
func WithScope(scope string, ws []Warning) []Warning {
	if len(ws) == 0 {
		return nil
	}
	out := make([]Warning, len(ws))
	for i, w := range ws {
		if w.Scope == "" {
			w.Scope = scope
		}
		out[i] = w
	}
	return out
}

// Logger writes warnings and verbose progress lines.
type Logger struct {
	l       *log.Logger
	verbose bool
}

// NewLogger returns a Logger writing to w. Progress lines are only written
// when verbose is set; warnings are always written.
func NewLogger(w io.Writer, verbose bool) *Logger {
	return &Logger{l: log.New(w, "", 0), verbose: verbose}
}

// Warn logs each warning as a "[WARN]" line.
func (lg *Logger) Warn(ws ...Warning) {
	if lg == nil {
		return
	}
	for _, w := range ws {
		lg.l.Printf("[WARN] %s", w)
	}
}

// Infof logs a progress line when verbose logging is enabled.
func (lg *Logger) Infof(format string, args ...any) {
	if lg == nil || !lg.verbose {
		return
	}
	lg.l.Printf("[INFO] "+format, args...)
}
