// Package logger wraps log/slog behind package-level printf helpers so the
// rest of the codebase never carries a logger handle around.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"log/slog"
)

var (
	level slog.LevelVar
	mu    sync.RWMutex
	base  *slog.Logger
)

func init() {
	level.Set(slog.LevelInfo)
	base = build(os.Stdout)
}

func build(w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: &level}))
}

// SetOutput replaces the log destination (e.g. a MultiWriter over stdout and a
// log file).
func SetOutput(w io.Writer) {
	mu.Lock()
	base = build(w)
	mu.Unlock()
}

// SetLevel accepts debug/info/warn/error; anything else falls back to info.
func SetLevel(name string) {
	level.Set(parseLevel(name))
}

func parseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func current() *slog.Logger {
	mu.RLock()
	l := base
	mu.RUnlock()
	if l == nil {
		l = build(os.Stdout)
	}
	return l
}

func Debugf(format string, v ...any) { current().Debug(fmt.Sprintf(format, v...)) }
func Infof(format string, v ...any)  { current().Info(fmt.Sprintf(format, v...)) }
func Warnf(format string, v ...any)  { current().Warn(fmt.Sprintf(format, v...)) }
func Errorf(format string, v ...any) { current().Error(fmt.Sprintf(format, v...)) }
