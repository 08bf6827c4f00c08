// logger.go is the leveled process logger used by every component.
package log

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"strings"
	"sync/atomic"
)

// Level is the verbosity threshold. Lower values are more verbose.
type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return fmt.Sprintf("LEVEL(%d)", int32(l))
	}
}

var (
	level  atomic.Int32
	output = stdlog.New(os.Stderr, "", stdlog.LstdFlags)
)

func init() {
	level.Store(int32(LevelInfo))
}

// ParseLevel parses "debug", "info", "warn" or "error" (case-insensitive).
func ParseLevel(raw string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", raw)
	}
}

// SetLevel sets the global threshold.
func SetLevel(l Level) {
	level.Store(int32(l))
}

// SetOutput replaces the writer used by the global logger.
func SetOutput(w io.Writer) {
	output.SetOutput(w)
}

// Enabled reports whether l would be emitted.
func Enabled(l Level) bool {
	return int32(l) >= level.Load()
}

func logf(l Level, format string, args ...any) {
	if !Enabled(l) {
		return
	}
	output.Printf("%-5s %s", l, fmt.Sprintf(format, args...))
}

// Debugf logs at DEBUG level.
func Debugf(format string, args ...any) { logf(LevelDebug, format, args...) }

// Infof logs at INFO level.
func Infof(format string, args ...any) { logf(LevelInfo, format, args...) }

// Warnf logs at WARN level.
func Warnf(format string, args ...any) { logf(LevelWarn, format, args...) }

// Errorf logs at ERROR level.
func Errorf(format string, args ...any) { logf(LevelError, format, args...) }
