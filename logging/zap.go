package logging

import (
	"context"
	"maps"
	"slices"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger adapts a zap logger to the Logger interface for JSON output.
type ZapLogger struct {
	logger *zap.Logger
	level  *zap.AtomicLevel
}

// NewZapLogger builds a production (JSON, stderr) zap logger at the given level.
func NewZapLogger(level Level) (*ZapLogger, error) {
	config := zap.NewProductionConfig()
	atom := zap.NewAtomicLevelAt(toZapLevel(level))
	config.Level = atom

	logger, err := config.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}

	return &ZapLogger{logger: logger, level: &atom}, nil
}

// NewZapLoggerFrom wraps an existing zap logger. SetLevel has no effect on it;
// its core decides what is enabled.
func NewZapLoggerFrom(logger *zap.Logger) *ZapLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapLogger{logger: logger}
}

// Sync flushes buffered entries.
func (z *ZapLogger) Sync() error {
	return z.logger.Sync()
}

func (z *ZapLogger) Debug(msg string, fields ...Fields) {
	z.logger.Debug(msg, zapFields(fields)...)
}

func (z *ZapLogger) Info(msg string, fields ...Fields) {
	z.logger.Info(msg, zapFields(fields)...)
}

func (z *ZapLogger) Warn(msg string, fields ...Fields) {
	z.logger.Warn(msg, zapFields(fields)...)
}

func (z *ZapLogger) Error(err error, msg string, fields ...Fields) {
	z.logger.Error(msg, append(zapFields(fields), zap.Error(err))...)
}

func (z *ZapLogger) Fatal(err error, msg string, fields ...Fields) {
	z.logger.Fatal(msg, append(zapFields(fields), zap.Error(err))...)
}

func (z *ZapLogger) WithFields(fields Fields) Logger {
	return &ZapLogger{
		logger: z.logger.With(zapFields([]Fields{fields})...),
		level:  z.level,
	}
}

func (z *ZapLogger) WithContext(ctx context.Context) Logger {
	if fields, ok := fieldsFromContext(ctx); ok {
		return z.WithFields(fields)
	}
	return z
}

func (z *ZapLogger) SetLevel(level Level) {
	if z.level != nil {
		z.level.SetLevel(toZapLevel(level))
	}
}

func toZapLevel(level Level) zapcore.Level {
	switch level {
	case DebugLevel:
		return zapcore.DebugLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	case FatalLevel:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

func zapFields(fields []Fields) []zap.Field {
	merged := make(Fields)
	for _, f := range fields {
		maps.Copy(merged, f)
	}
	if len(merged) == 0 {
		return nil
	}

	out := make([]zap.Field, 0, len(merged))
	for _, key := range slices.Sorted(maps.Keys(merged)) {
		if key == "" {
			continue
		}
		out = append(out, zap.Any(key, merged[key]))
	}
	return out
}
