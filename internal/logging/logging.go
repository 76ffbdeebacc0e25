package logging

import (
	"io"
	"log"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a production zap logger at the given level ("debug", "info",
// "warn", "error"). Unknown levels fall back to info.
func New(level string, fields ...zap.Field) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.With(fields...), nil
}

// OrNop returns logger, or a no-op logger when nil.
func OrNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

// Writer exposes logger as an io.Writer for libraries that log lines, such as
// gin's request logger.
func Writer(logger *zap.Logger) io.Writer {
	return zap.NewStdLog(OrNop(logger)).Writer()
}

// Std adapts logger to the standard library logger interface.
func Std(logger *zap.Logger) *log.Logger {
	return zap.NewStdLog(OrNop(logger))
}
