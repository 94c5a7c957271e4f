package app

import (
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/dpr/internal/config"
	"github.com/mamadbah2/dpr/pkg/logger"
)

// NewLogger builds the base logger from the logging section of cfg.
func NewLogger(cfg config.LogConfig) (*zap.Logger, error) {
	return logger.NewWithOptions(logger.Options{
		Level:      cfg.Level,
		Path:       cfg.Path,
		MaxSizeMB:  cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAgeDays: cfg.MaxAgeDays,
	})
}

func minutes(n int) time.Duration {
	return time.Duration(n) * time.Minute
}
