// Package ldlog provides the leveled logger abstraction used across the event pipeline.
// Call sites only ever see the small Debug/Info/Warn/Error surface below; the production
// implementation is backed by go.uber.org/zap, but a disabled logger is available for
// tests and for embedders that don't want SDK log output.
package ldlog

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level identifies a minimum severity to emit.
type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
	None
)

// Loggers is the logging facade passed around in EventsConfiguration. The zero value is
// not usable directly; construct one with NewDefaultLoggers or NewDisabledLoggers.
type Loggers struct {
	sugar   *zap.SugaredLogger
	minimum Level
}

// NewDefaultLoggers creates a production logger at Info level, writing structured,
// leveled output the way the rest of the pack's services do.
func NewDefaultLoggers() Loggers {
	return NewLoggersAtLevel(Info)
}

// NewLoggersAtLevel creates a production logger that suppresses everything below level.
func NewLoggersAtLevel(level Level) Loggers {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(toZapLevel(level))
	logger, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		logger = zap.NewNop()
	}
	return Loggers{sugar: logger.Sugar(), minimum: level}
}

// NewDisabledLoggers creates a logger that discards everything.
func NewDisabledLoggers() Loggers {
	return Loggers{sugar: zap.NewNop().Sugar(), minimum: None}
}

func toZapLevel(l Level) zapcore.Level {
	switch l {
	case Debug:
		return zapcore.DebugLevel
	case Info:
		return zapcore.InfoLevel
	case Warn:
		return zapcore.WarnLevel
	case Error:
		return zapcore.ErrorLevel
	default:
		return zapcore.FatalLevel + 1 // effectively disables output
	}
}

// IsZero returns true for the zero value of Loggers (i.e. never initialized via one of
// the constructors), so callers can substitute a default.
func (l Loggers) IsZero() bool { return l.sugar == nil }

func (l Loggers) Debug(args ...interface{})                 { l.sugar.Debug(args...) }
func (l Loggers) Debugf(format string, args ...interface{})  { l.sugar.Debugf(format, args...) }
func (l Loggers) Info(args ...interface{})                  { l.sugar.Info(args...) }
func (l Loggers) Infof(format string, args ...interface{})   { l.sugar.Infof(format, args...) }
func (l Loggers) Warn(args ...interface{})                  { l.sugar.Warn(args...) }
func (l Loggers) Warnf(format string, args ...interface{})   { l.sugar.Warnf(format, args...) }
func (l Loggers) Error(args ...interface{})                 { l.sugar.Error(args...) }
func (l Loggers) Errorf(format string, args ...interface{})  { l.sugar.Errorf(format, args...) }
