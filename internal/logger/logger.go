package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds logging settings.
type Config struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	DiffFile string `mapstructure:"diff_file"`
}

// New creates a new zap logger based on the configuration.
func New(cfg *Config) (*zap.Logger, error) {
	var config zap.Config

	if cfg.Level == "debug" {
		config = zap.NewDevelopmentConfig()
	} else {
		config = zap.NewProductionConfig()
		if cfg.Level != "" {
			level, err := zapcore.ParseLevel(cfg.Level)
			if err != nil {
				return nil, err
			}
			config.Level = zap.NewAtomicLevelAt(level)
		}
	}

	// Set format based on configuration
	if cfg.Format == "console" {
		config.Encoding = "console"
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		config.DisableStacktrace = true
	} else {
		config.Encoding = "json"
	}

	config.EncoderConfig.LevelKey = "level"
	config.EncoderConfig.TimeKey = "time"
	config.EncoderConfig.MessageKey = "message"

	return config.Build()
}

// NewDiffLogger creates the JSON logger that receives row diffs. Output goes
// to cfg.DiffFile, or stdout when it is empty. Matched rows are logged at
// debug, so the level follows cfg.Level.
func NewDiffLogger(cfg *Config) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.Encoding = "json"
	config.DisableStacktrace = true
	config.DisableCaller = true
	config.Sampling = nil

	level := zapcore.InfoLevel
	if cfg.Level != "" {
		var err error
		if level, err = zapcore.ParseLevel(cfg.Level); err != nil {
			return nil, err
		}
	}
	config.Level = zap.NewAtomicLevelAt(level)

	if cfg.DiffFile != "" {
		config.OutputPaths = []string{cfg.DiffFile}
	} else {
		config.OutputPaths = []string{"stdout"}
	}

	config.EncoderConfig.LevelKey = "level"
	config.EncoderConfig.TimeKey = "time"
	config.EncoderConfig.MessageKey = "message"

	return config.Build()
}

// WithTable returns a logger with the table field set.
func WithTable(l *zap.Logger, table string) *zap.Logger {
	if table == "" {
		return l
	}
	return l.With(zap.String("table", table))
}
