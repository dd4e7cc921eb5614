package temporal

import (
	"go.temporal.io/sdk/log"
	"go.uber.org/zap"
)

// Logger adapts a zap logger to the SDK's key-value logger.
type Logger struct {
	sugar *zap.SugaredLogger
}

var (
	_ log.Logger     = (*Logger)(nil)
	_ log.WithLogger = (*Logger)(nil)
)

// NewLogger wraps l for use as client.Options.Logger.
func NewLogger(l *zap.Logger) *Logger {
	return &Logger{sugar: l.Named("temporal").WithOptions(zap.AddCallerSkip(1)).Sugar()}
}

func (l *Logger) Debug(msg string, keyvals ...any) { l.sugar.Debugw(msg, keyvals...) }

func (l *Logger) Info(msg string, keyvals ...any) { l.sugar.Infow(msg, keyvals...) }

func (l *Logger) Warn(msg string, keyvals ...any) { l.sugar.Warnw(msg, keyvals...) }

func (l *Logger) Error(msg string, keyvals ...any) { l.sugar.Errorw(msg, keyvals...) }

// With returns a logger carrying keyvals on every line.
func (l *Logger) With(keyvals ...any) log.Logger {
	return &Logger{sugar: l.sugar.With(keyvals...)}
}
