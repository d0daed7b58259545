package config

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggingConfig selects console verbosity: none, normal or debug
type LoggingConfig struct {
	Level string `yaml:"level"`
}

func (conf LoggingConfig) validate() error {
	switch conf.Level {
	case "none", "normal", "debug":
		return nil
	}
	return fmt.Errorf("logging level must be one of none, normal, debug, got %q", conf.Level)
}

// Prepare returns the console logger for the program. Everything goes to
// stderr so rendered HTML on stdout stays clean.
func (conf LoggingConfig) Prepare() (*zap.Logger, error) {
	if err := conf.validate(); err != nil {
		return nil, err
	}

	var level zapcore.Level
	switch conf.Level {
	case "none":
		return zap.NewNop(), nil
	case "debug":
		level = zapcore.DebugLevel
	default:
		level = zapcore.InfoLevel
	}

	ec := zap.NewDevelopmentEncoderConfig()
	ec.EncodeCaller = nil
	ec.TimeKey = zapcore.OmitKey
	ec.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(ec), zapcore.Lock(os.Stderr), zap.NewAtomicLevelAt(level))
	return zap.New(core), nil
}
