package logger

import (
	"context"
	"os"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/instill-ai/recording-backend/config"
)

var once sync.Once
var core zapcore.Core

// GetZapLogger returns an instance of zap logger
// It configures the logger based on the application's debug mode and sets up appropriate log levels and output destinations.
// The function also adds a hook to inject logs into OpenTelemetry traces.
func GetZapLogger(ctx context.Context) (*zap.Logger, error) {
	once.Do(func() {
		core = newCore(config.Config.Server.Debug)
	})

	logger := zap.New(core).WithOptions(
		zap.Hooks(spanHook(ctx)),
		zap.AddCaller(),
	)

	return logger, nil
}

// newCore sends debug and info entries to stdout and everything from warn up
// to stderr. Debug entries are dropped outside debug mode.
func newCore(debug bool) zapcore.Core {
	stdoutLevel := zap.LevelEnablerFunc(func(level zapcore.Level) bool {
		return level == zapcore.InfoLevel || (debug && level == zapcore.DebugLevel)
	})
	stderrLevel := zap.LevelEnablerFunc(func(level zapcore.Level) bool {
		return level >= zapcore.WarnLevel
	})

	encoderConfig := zap.NewProductionEncoderConfig()
	if debug {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
	}
	encoder := zapcore.NewJSONEncoder(encoderConfig)

	return zapcore.NewTee(
		zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), stdoutLevel),
		zapcore.NewCore(encoder.Clone(), zapcore.Lock(os.Stderr), stderrLevel),
	)
}

// spanHook adds each entry as an event of the span in ctx.
func spanHook(ctx context.Context) func(zapcore.Entry) error {
	return func(entry zapcore.Entry) error {
		span := trace.SpanFromContext(ctx)
		if !span.IsRecording() {
			return nil
		}

		span.AddEvent("log", trace.WithAttributes(
			attribute.String("log.severity", entry.Level.String()),
			attribute.String("log.message", entry.Message),
		))

		if entry.Level >= zap.ErrorLevel {
			span.SetStatus(codes.Error, entry.Message)
		} else {
			span.SetStatus(codes.Ok, "")
		}

		return nil
	}
}
