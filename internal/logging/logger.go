// Package logging provides the zap-backed loggers used across bugboard.
package logging

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logLevel     = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	baseLogger   *zap.SugaredLogger
	baseLoggerMu sync.Mutex
)

type requestIDKey struct{}

// SetLevel sets the level of every logger with one of
// ["debug", "info", "warn", "error"].
func SetLevel(level string) error {
	switch strings.ToLower(level) {
	case "debug":
		logLevel.SetLevel(zapcore.DebugLevel)
	case "info":
		logLevel.SetLevel(zapcore.InfoLevel)
	case "warn":
		logLevel.SetLevel(zapcore.WarnLevel)
	case "error":
		logLevel.SetLevel(zapcore.ErrorLevel)
	default:
		return fmt.Errorf("invalid log level: %s", level)
	}
	return nil
}

// New returns a named logger.
func New(name string) *zap.SugaredLogger {
	return base().Named(name)
}

// SetOutput replaces the base logger, mainly so tests can observe output.
func SetOutput(core zapcore.Core) {
	baseLoggerMu.Lock()
	defer baseLoggerMu.Unlock()
	baseLogger = zap.New(core).Sugar()
}

func base() *zap.SugaredLogger {
	baseLoggerMu.Lock()
	defer baseLoggerMu.Unlock()
	if baseLogger == nil {
		encCfg := zap.NewProductionEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		baseLogger = zap.New(
			zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(os.Stdout), logLevel),
			zap.AddStacktrace(zap.ErrorLevel),
		).Sugar()
	}
	return baseLogger
}

// WithRequestID stores the request id on ctx so FromContext can pick it up.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestID extracts the request id from ctx, or "" when none was set.
func RequestID(ctx context.Context) string {
	if rid, ok := ctx.Value(requestIDKey{}).(string); ok {
		return rid
	}
	return ""
}

// Logger provides operation-scoped logging for services.
type Logger struct {
	sugar *zap.SugaredLogger
}

// FromContext creates a logger carrying the request id of ctx.
func FromContext(ctx context.Context) *Logger {
	requestID := RequestID(ctx)
	if requestID == "" {
		requestID = "unknown"
	}
	return &Logger{sugar: base().With("request_id", requestID)}
}

func (l *Logger) LogError(operation string, err error) {
	l.sugar.Errorw("operation failed", "operation", operation, "error", err)
}

func (l *Logger) LogErrorf(operation string, format string, args ...interface{}) {
	l.sugar.With("operation", operation).Errorf(format, args...)
}

func (l *Logger) LogInfof(operation string, format string, args ...interface{}) {
	l.sugar.With("operation", operation).Infof(format, args...)
}

func (l *Logger) LogWarnf(operation string, format string, args ...interface{}) {
	l.sugar.With("operation", operation).Warnf(format, args...)
}

func (l *Logger) LogDebugf(operation string, format string, args ...interface{}) {
	l.sugar.With("operation", operation).Debugf(format, args...)
}
