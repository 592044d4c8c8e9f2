package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const messageKey = "message"

// New builds the process logger. Production mode writes JSON to stdout;
// debug mode switches to the human readable console encoder at debug level.
func New(level string, debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg = zap.NewDevelopmentConfig()
	}

	lvl := zapcore.InfoLevel
	if debug {
		lvl = zapcore.DebugLevel
	} else if level != "" {
		if err := lvl.Set(level); err != nil {
			lvl = zapcore.InfoLevel
		}
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stdout"}
	cfg.EncoderConfig.MessageKey = messageKey
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
