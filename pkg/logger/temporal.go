package logger

import (
	"go.temporal.io/sdk/log"
	"go.uber.org/zap"
)

// TemporalLogger adapts a zap logger to the Temporal SDK logger, so workflow
// and SDK logs share the service's encoding and outputs.
type TemporalLogger struct {
	sugar *zap.SugaredLogger
}

var _ log.Logger = (*TemporalLogger)(nil)
var _ log.WithLogger = (*TemporalLogger)(nil)

// NewTemporalLogger wraps l. The caller skip points log lines at the code
// that called the SDK logger.
func NewTemporalLogger(l *zap.Logger) *TemporalLogger {
	return &TemporalLogger{
		sugar: l.WithOptions(zap.AddCallerSkip(1)).Sugar(),
	}
}

// Debug implements log.Logger.
func (l *TemporalLogger) Debug(msg string, keyvals ...any) {
	l.sugar.Debugw(msg, keyvals...)
}

// Info implements log.Logger.
func (l *TemporalLogger) Info(msg string, keyvals ...any) {
	l.sugar.Infow(msg, keyvals...)
}

// Warn implements log.Logger.
func (l *TemporalLogger) Warn(msg string, keyvals ...any) {
	l.sugar.Warnw(msg, keyvals...)
}

// Error implements log.Logger.
func (l *TemporalLogger) Error(msg string, keyvals ...any) {
	l.sugar.Errorw(msg, keyvals...)
}

// With implements log.WithLogger.
func (l *TemporalLogger) With(keyvals ...any) log.Logger {
	return &TemporalLogger{sugar: l.sugar.With(keyvals...)}
}
