// Package logging builds the process logger. The terminal belongs to the
// task view, so logs go to a rotated JSON file and reach the console only
// when asked to.
package logging

import (
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Options struct {
	File       string
	Level      string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Console    bool
	// ConsoleOut defaults to stderr.
	ConsoleOut io.Writer
}

func ParseLevel(raw string) zapcore.Level {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(raw)))); err != nil {
		return zap.InfoLevel
	}
	return lvl
}

// New returns a logger and a flush func to call on exit. With neither a
// file nor console output the logger discards everything.
func New(opts Options) (*zap.Logger, func()) {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	level := ParseLevel(opts.Level)

	var cores []zapcore.Core
	var rotator *lumberjack.Logger
	if opts.File != "" {
		rotator = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderConfig),
			zapcore.AddSync(rotator),
			level,
		))
	}
	if opts.Console {
		out := opts.ConsoleOut
		if out == nil {
			out = os.Stderr
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderConfig),
			zapcore.AddSync(out),
			level,
		))
	}
	if len(cores) == 0 {
		return zap.NewNop(), func() {}
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel))
	return logger, func() {
		_ = logger.Sync()
		if rotator != nil {
			_ = rotator.Close()
		}
	}
}
