package core

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
)

// Logger writes prefixed diagnostic lines. Debug lines are dropped unless
// debug is on. A nil *Logger discards everything.
type Logger struct {
	mu     sync.Mutex
	out    io.Writer
	prefix string
	debug  bool
	stamp  bool

	debugColor *color.Color
	warnColor  *color.Color
	errColor   *color.Color
}

// NewLogger logs to stderr with a coloured [prefix].
func NewLogger(prefix string, debug bool) *Logger {
	return &Logger{
		out:        os.Stderr,
		prefix:     prefix,
		debug:      debug,
		debugColor: color.New(color.FgCyan),
		warnColor:  color.New(color.FgYellow),
		errColor:   color.New(color.FgRed, color.Bold),
	}
}

// NewFileLogger appends timestamped, uncoloured lines to path. Used where
// stderr belongs to the terminal UI.
func NewFileLogger(prefix, path string, debug bool) (*Logger, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	l := NewLogger(prefix, debug)
	l.out = f
	l.stamp = true
	for _, c := range []*color.Color{l.debugColor, l.warnColor, l.errColor} {
		c.DisableColor()
	}
	return l, nil
}

// SetOutput redirects the logger.
func (l *Logger) SetOutput(w io.Writer) {
	if l == nil {
		return
	}
	l.mu.Lock()
	l.out = w
	l.mu.Unlock()
}

// DebugEnabled reports whether Debugf writes anything.
func (l *Logger) DebugEnabled() bool {
	return l != nil && l.debug
}

func (l *Logger) Debugf(format string, args ...any) {
	if l == nil || !l.debug {
		return
	}
	l.write(l.debugColor, format, args...)
}

func (l *Logger) Warnf(format string, args ...any) {
	if l == nil {
		return
	}
	l.write(l.warnColor, format, args...)
}

func (l *Logger) Errorf(format string, args ...any) {
	if l == nil {
		return
	}
	l.write(l.errColor, format, args...)
}

func (l *Logger) write(c *color.Color, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	prefix := c.Sprintf("[%s]", l.prefix)
	if l.stamp {
		prefix = time.Now().Format("15:04:05.000") + " " + prefix
	}
	_, _ = fmt.Fprintf(l.out, "%s %s\n", prefix, fmt.Sprintf(format, args...))
}

// Close releases the underlying file for file loggers.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if closer, ok := l.out.(io.Closer); ok && l.out != os.Stderr {
		return closer.Close()
	}
	return nil
}
