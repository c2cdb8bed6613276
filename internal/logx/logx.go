// Package logx is the compiler's debug logger: messages are written with a
// "[DEBUG]" prefix and only when debug mode is on. A nil *Logger is valid
// and discards everything.
package logx

import (
	"fmt"
	"io"
	"strings"
)

// Logger writes debug lines to an io.Writer.
type Logger struct {
	w     io.Writer
	debug bool
}

// New returns a logger writing to w. Debug output is enabled when debug is
// true.
func New(w io.Writer, debug bool) *Logger {
	return &Logger{w: w, debug: debug}
}

// Enabled reports whether debug output is on.
func (l *Logger) Enabled() bool {
	return l != nil && l.debug && l.w != nil
}

// SetDebug switches debug output on or off.
func (l *Logger) SetDebug(on bool) {
	if l != nil {
		l.debug = on
	}
}

// Debugf prints a debug message. Multi-line messages get the prefix on
// every line.
func (l *Logger) Debugf(format string, args ...any) {
	if !l.Enabled() {
		return
	}
	msg := strings.TrimRight(fmt.Sprintf(format, args...), "\n")
	for _, line := range strings.Split(msg, "\n") {
		fmt.Fprintln(l.w, "[DEBUG] "+line)
	}
}
