package util

import (
	"log"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ParseLogLevel accepts either a zap level name ("debug", "warn") or its numeric value ("-1", "1").
// Anything unparsable falls back to info.
func ParseLogLevel(s string) zapcore.Level {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return zapcore.Level(n)
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(s))); err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

func initLogger(level zapcore.Level) (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.EncoderConfig.CallerKey = "ln"
	zapCfg.EncoderConfig.FunctionKey = ""
	zapCfg.EncoderConfig.LevelKey = "severity"
	zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapCfg.OutputPaths = []string{"stdout"}

	return zapCfg.Build()
}

// NewLogger builds the process logger from LOG_LEVEL and installs it as the zap global.
func NewLogger() (*zap.Logger, func()) {
	return NewLoggerWithLevel(os.Getenv("LOG_LEVEL"))
}

func NewLoggerWithLevel(level string) (*zap.Logger, func()) {
	logger, err := initLogger(ParseLogLevel(level))
	if err != nil {
		log.Fatalf("fail to init logger, error: %v", err)
	}

	undo := zap.ReplaceGlobals(logger)

	return logger, func() {
		undo()
		_ = logger.Sync()
	}
}
