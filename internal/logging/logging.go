// Package logging builds the zap loggers used across focus-narrator.
//
// Logs always go to stderr: stdout carries the command protocol.
package logging

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EnvLogLevel names the environment variable selecting the log level
// ("debug", "info", "warn", "error").
const EnvLogLevel = "FOCUS_NARRATOR_LOG_LEVEL"

// NewLoggerConfig returns the default console config at the given level,
// without stack traces and with ISO8601 timestamps.
func NewLoggerConfig(level zapcore.Level) zap.Config {
	return zap.Config{
		Level:    zap.NewAtomicLevelAt(level),
		Encoding: "console",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			FunctionKey:    zapcore.OmitKey,
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.CapitalLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		DisableStacktrace: true,
		OutputPaths:       []string{"stderr"},
		ErrorOutputPaths:  []string{"stderr"},
	}
}

// Level resolves the log level. verbose forces debug; otherwise EnvLogLevel
// is consulted, defaulting to info.
func Level(verbose bool) zapcore.Level {
	if verbose {
		return zapcore.DebugLevel
	}
	lvl, err := zapcore.ParseLevel(strings.TrimSpace(os.Getenv(EnvLogLevel)))
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

// NewLogger returns a named sugared logger writing to stderr.
func NewLogger(name string, verbose bool) (*zap.SugaredLogger, error) {
	logger, err := NewLoggerConfig(Level(verbose)).Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar().Named(name), nil
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.SugaredLogger) *zap.SugaredLogger {
	if l == nil {
		return zap.NewNop().Sugar()
	}
	return l
}
