package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/kolah/respec/schema"
)

var (
	colorDebug = color.New(color.FgCyan).SprintFunc()
	colorInfo  = color.New(color.FgGreen).SprintFunc()
	colorWarn  = color.New(color.FgHiYellow).SprintFunc()
	colorError = color.New(color.FgRed).SprintFunc()
)

// consoleLogger writes colored, human readable log lines to stderr.
type consoleLogger struct {
	mu      *sync.Mutex
	w       io.Writer
	verbose bool
	attrs   []any
}

func newConsoleLogger(w io.Writer, verbose bool) *consoleLogger {
	return &consoleLogger{mu: &sync.Mutex{}, w: w, verbose: verbose}
}

func (l *consoleLogger) Debug(msg string, attrs ...any) {
	if !l.verbose {
		return
	}
	l.write(colorDebug("DEBUG"), msg, attrs)
}

func (l *consoleLogger) Info(msg string, attrs ...any) { l.write(colorInfo("INFO"), msg, attrs) }
func (l *consoleLogger) Warn(msg string, attrs ...any) { l.write(colorWarn("WARN"), msg, attrs) }
func (l *consoleLogger) Error(msg string, attrs ...any) { l.write(colorError("ERROR"), msg, attrs) }

func (l *consoleLogger) With(attrs ...any) schema.Logger {
	next := *l
	next.attrs = append(append([]any{}, l.attrs...), attrs...)
	return &next
}

func (l *consoleLogger) write(level, msg string, attrs []any) {
	var b strings.Builder
	b.WriteString(level)
	b.WriteString(" ")
	b.WriteString(msg)

	all := append(append([]any{}, l.attrs...), attrs...)
	for i := 0; i+1 < len(all); i += 2 {
		fmt.Fprintf(&b, " %v=%v", all[i], all[i+1])
	}
	b.WriteString("\n")

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = io.WriteString(l.w, b.String())
}

var _ schema.Logger = (*consoleLogger)(nil)
