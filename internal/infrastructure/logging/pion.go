package logging

import (
	"context"
	"fmt"
	"log/slog"

	pionlogging "github.com/pion/logging"
)

// LevelTrace sits below slog.LevelDebug and carries pion Trace output.
const LevelTrace = slog.LevelDebug - 4

var _ pionlogging.LoggerFactory = (*Logger)(nil)

// NewLogger returns a pion LeveledLogger that writes into this Logger with
// a "scope" attribute. It lets the transport packages log through slog.
func (l *Logger) NewLogger(scope string) pionlogging.LeveledLogger {
	return &scopedLogger{log: l.Logger.With("scope", scope)}
}

// scopedLogger adapts slog to pion's printf-style leveled interface.
type scopedLogger struct {
	log *slog.Logger
}

func (s *scopedLogger) emit(level slog.Level, msg string) {
	s.log.Log(context.Background(), level, msg)
}

func (s *scopedLogger) Trace(msg string) { s.emit(LevelTrace, msg) }
func (s *scopedLogger) Tracef(format string, args ...any) {
	s.emit(LevelTrace, fmt.Sprintf(format, args...))
}

func (s *scopedLogger) Debug(msg string) { s.emit(slog.LevelDebug, msg) }
func (s *scopedLogger) Debugf(format string, args ...any) {
	s.emit(slog.LevelDebug, fmt.Sprintf(format, args...))
}

func (s *scopedLogger) Info(msg string) { s.emit(slog.LevelInfo, msg) }
func (s *scopedLogger) Infof(format string, args ...any) {
	s.emit(slog.LevelInfo, fmt.Sprintf(format, args...))
}

func (s *scopedLogger) Warn(msg string) { s.emit(slog.LevelWarn, msg) }
func (s *scopedLogger) Warnf(format string, args ...any) {
	s.emit(slog.LevelWarn, fmt.Sprintf(format, args...))
}

func (s *scopedLogger) Error(msg string) { s.emit(slog.LevelError, msg) }
func (s *scopedLogger) Errorf(format string, args ...any) {
	s.emit(slog.LevelError, fmt.Sprintf(format, args...))
}
