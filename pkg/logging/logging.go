// Package logging provides structured-ish, stdlib-backed logging for the
// proxy fleet, in the style of the teacher's pkg/middleware/logging.go:
// plain *log.Logger, a generated correlation ID per connection, and
// key=value fields instead of free text so log lines stay greppable
// without pulling in a third-party structured logger the rest of the
// corpus doesn't use for this concern either.
package logging

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/google/uuid"
)

// Logger wraps the standard library logger with a component name prefix
// and helpers for key=value fields.
type Logger struct {
	base *log.Logger
	comp string
}

// New creates a component-scoped logger writing to stderr with standard
// timestamp flags, matching the teacher's "compatible with standard log
// package" design note.
func New(component string) *Logger {
	return &Logger{
		base: log.New(os.Stderr, "", log.LstdFlags|log.Lmicroseconds),
		comp: component,
	}
}

// NewConnectionID generates a correlation ID for one accepted connection,
// the same role google/uuid plays in the teacher's request-ID middleware.
func NewConnectionID() string {
	return uuid.NewString()
}

// Info logs a success-path event.
func (l *Logger) Info(event string, fields ...Field) {
	l.log("INFO", event, fields)
}

// Warn logs a recovered-but-notable event (malformed request, single
// transient failure).
func (l *Logger) Warn(event string, fields ...Field) {
	l.log("WARN", event, fields)
}

// Error logs a failure that was surfaced to a caller or that aborted a
// background cycle.
func (l *Logger) Error(event string, fields ...Field) {
	l.log("ERROR", event, fields)
}

// Fatal logs a startup failure and exits the process, matching spec.md's
// "bind failures at startup... terminate the process" policy.
func (l *Logger) Fatal(event string, fields ...Field) {
	l.log("FATAL", event, fields)
	os.Exit(1)
}

func (l *Logger) log(level, event string, fields []Field) {
	var b strings.Builder
	b.WriteString(level)
	b.WriteString(" component=")
	b.WriteString(l.comp)
	b.WriteString(" event=")
	b.WriteString(event)
	for _, f := range fields {
		b.WriteByte(' ')
		b.WriteString(f.Key)
		b.WriteByte('=')
		fmt.Fprintf(&b, "%v", f.Value)
	}
	l.base.Println(b.String())
}

// Field is one key=value pair attached to a log line.
type Field struct {
	Key   string
	Value interface{}
}

// F builds a Field; short name so call sites stay readable:
// log.Info("accept", logging.F("conn", id)).
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}
