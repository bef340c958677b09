package logger

import (
	"log"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds a sugared development logger with colored levels.
// The minimum level can be raised with HAVEN_LOG_LEVEL (e.g. "warn").
func NewLogger() *zap.SugaredLogger {
	config := zap.NewDevelopmentConfig()
	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder

	if lvl := strings.TrimSpace(os.Getenv("HAVEN_LOG_LEVEL")); lvl != "" {
		var level zapcore.Level
		if err := level.UnmarshalText([]byte(lvl)); err == nil {
			config.Level = zap.NewAtomicLevelAt(level)
		}
	}

	logger, err := config.Build()
	if err != nil {
		log.Panic(err)
	}

	return logger.Sugar()
}
