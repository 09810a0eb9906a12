package main

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/digest-playground/config"
)

// newLogger builds the process logger. The terminal UI owns the screen, so
// in that mode logs go only to log.file and are dropped when none is set.
func newLogger(cfg config.LogConfig, tui bool) (*zap.Logger, error) {
	level, err := cfg.ZapLevel()
	if err != nil {
		return nil, err
	}

	output := cfg.File
	if output == "" {
		if tui {
			return zap.NewNop(), nil
		}
		output = "stderr"
	}

	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.Encoding = "console"
	zc.Sampling = nil
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	zc.OutputPaths = []string{output}
	zc.ErrorOutputPaths = []string{output}

	return zc.Build()
}
