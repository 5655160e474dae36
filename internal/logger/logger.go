package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects the logger flavour
type Options struct {
	Debug       bool // log at debug level
	Development bool // human readable console output instead of JSON
}

// New creates a logger. Production loggers write JSON with ISO8601 "ts"
// fields and stack traces from error level up.
func New(opts Options) (*zap.Logger, error) {
	if opts.Development {
		config := zap.NewDevelopmentConfig()
		config.Level = zap.NewAtomicLevelAt(level(opts.Debug))
		return config.Build()
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(level(opts.Debug))
	config.Encoding = "json"
	config.EncoderConfig = zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	config.DisableStacktrace = false

	return config.Build()
}

func level(debug bool) zapcore.Level {
	if debug {
		return zapcore.DebugLevel
	}
	return zapcore.InfoLevel
}

// Sync flushes buffered log entries. Safe to call with a nil logger.
func Sync(logger *zap.Logger) error {
	if logger == nil {
		return nil
	}
	return logger.Sync()
}
