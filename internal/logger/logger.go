package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

type LogLevel int

const (
	LogLevelNone LogLevel = iota
	LogLevelError
	LogLevelWarning
	LogLevelInfo
	LogLevelDebug
)

// slogLevel maps the service log level onto the slog handler threshold.
func (l LogLevel) slogLevel() slog.Level {
	switch {
	case l >= LogLevelDebug:
		return slog.LevelDebug
	case l == LogLevelInfo:
		return slog.LevelInfo
	case l == LogLevelWarning:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

type Logger struct {
	slog  *slog.Logger
	level LogLevel
	tag   string
}

// New builds a text logger writing to w. Under systemd the journal already
// stamps every line, so timestamps are dropped.
func New(w io.Writer, level LogLevel, underSystemd bool) *Logger {
	opts := &slog.HandlerOptions{
		Level: level.slogLevel(),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && underSystemd && len(groups) == 0 {
				return slog.Attr{}
			}
			if a.Key == "error" {
				a.Key = "err"
			}
			return a
		},
	}
	return NewLogger(slog.NewTextHandler(w, opts), level)
}

func NewLogger(h slog.Handler, level LogLevel) *Logger {
	if h == nil {
		h = slog.NewTextHandler(io.Discard, nil)
	}
	return &Logger{
		slog:  slog.New(h),
		level: level,
		tag:   "",
	}
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return NewLogger(nil, LogLevelNone)
}

// WithTag creates a new logger with a component tag
func (l *Logger) WithTag(tag string) *Logger {
	return &Logger{
		slog:  l.slog.With("component", tag),
		level: l.level,
		tag:   tag,
	}
}

// Tag returns the component tag, empty for the root logger.
func (l *Logger) Tag() string {
	return l.tag
}

// Slog exposes the underlying structured logger for libraries that take one.
func (l *Logger) Slog() *slog.Logger {
	return l.slog
}

func (l *Logger) log(min LogLevel, lvl slog.Level, format string, v ...interface{}) {
	if l.level < min {
		return
	}
	l.slog.Log(context.Background(), lvl, fmt.Sprintf(format, v...))
}

func (l *Logger) Debugf(format string, v ...interface{}) {
	l.log(LogLevelDebug, slog.LevelDebug, format, v...)
}

func (l *Logger) Infof(format string, v ...interface{}) {
	l.log(LogLevelInfo, slog.LevelInfo, format, v...)
}

// Printf is an alias for Infof for compatibility
func (l *Logger) Printf(format string, v ...interface{}) {
	l.Infof(format, v...)
}

func (l *Logger) Warnf(format string, v ...interface{}) {
	l.log(LogLevelWarning, slog.LevelWarn, format, v...)
}

func (l *Logger) Errorf(format string, v ...interface{}) {
	l.log(LogLevelError, slog.LevelError, format, v...)
}

func (l *Logger) Fatalf(format string, v ...interface{}) {
	l.slog.Error(fmt.Sprintf(format, v...))
	os.Exit(1)
}
