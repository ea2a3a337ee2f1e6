package logging

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
)

// ConsoleLogger writes colored, emoji-prefixed lines.
type ConsoleLogger struct {
	verbose bool
	out     io.Writer
	mu      sync.Mutex
}

// NewConsoleLogger logs to stderr. Verbose lines are dropped unless verbose is set.
func NewConsoleLogger(verbose bool) *ConsoleLogger {
	return NewConsoleLoggerTo(os.Stderr, verbose)
}

func NewConsoleLoggerTo(out io.Writer, verbose bool) *ConsoleLogger {
	return &ConsoleLogger{verbose: verbose, out: out}
}

func (l *ConsoleLogger) write(c *color.Color, prefix, format string, args ...any) {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if c == nil {
		fmt.Fprintln(l.out, prefix+msg)
		return
	}
	c.Fprintln(l.out, prefix+msg)
}

func (l *ConsoleLogger) Verbose(format string, args ...any) {
	if !l.verbose {
		return
	}
	l.write(color.New(color.Faint), "🔍 ", format, args...)
}

func (l *ConsoleLogger) Info(format string, args ...any) {
	l.write(nil, "", format, args...)
}

func (l *ConsoleLogger) Success(format string, args ...any) {
	l.write(color.New(color.FgGreen), "✅ ", format, args...)
}

func (l *ConsoleLogger) Warn(format string, args ...any) {
	l.write(color.New(color.FgYellow), "⚠️  ", format, args...)
}

func (l *ConsoleLogger) Error(format string, args ...any) {
	l.write(color.New(color.FgRed), "❌ ", format, args...)
}
