// Package logging builds the diagnostic logger. User-facing results are not logged but printed.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Level int

const (
	Default Level = iota //warnings and errors
	Verbose              //everything down to debug messages
	Quiet                //errors only
)

func (l Level) zapLevel() zapcore.Level {
	switch l {
	case Verbose:
		return zapcore.DebugLevel
	case Quiet:
		return zapcore.ErrorLevel
	default:
		return zapcore.WarnLevel
	}
}

// New returns a console logger writing to stderr.
func New(level Level) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(level.zapLevel())
	config.Encoding = "console"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.DisableStacktrace = level != Verbose
	config.Sampling = nil
	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}
