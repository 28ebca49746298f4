package config

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// CreateLogger returns a JSON production logger, or a colored development
// logger at debug level when debug is set.
func CreateLogger(debug bool) (*zap.Logger, error) {
	if debug {
		cfg := zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return cfg.Build()
	}

	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}
