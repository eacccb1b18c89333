// Package applog constructs the process-wide structured logger. There is no
// package-level global: every component that needs to log receives a
// *zap.Logger through its constructor, a plain dependency-injection shape
// shared by the rest of the component constructors in this module.
package applog

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level is one of the four levels the configuration file names.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// New builds a zap logger at the given level, writing human-readable
// console output (the CLI is the primary consumer; structured JSON would
// fight with cobra's own stdout usage).
func New(level Level) (*zap.Logger, error) {
	zl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zl)
	cfg.Encoding = "console"
	cfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder

	return cfg.Build()
}

// Nop returns a logger that discards everything, for tests that don't want
// to assert on log output.
func Nop() *zap.Logger {
	return zap.NewNop()
}

func parseLevel(level Level) (zapcore.Level, error) {
	switch level {
	case LevelDebug:
		return zapcore.DebugLevel, nil
	case LevelInfo, "":
		return zapcore.InfoLevel, nil
	case LevelWarn:
		return zapcore.WarnLevel, nil
	case LevelError:
		return zapcore.ErrorLevel, nil
	default:
		return 0, fmt.Errorf("applog: unknown level %q", level)
	}
}
