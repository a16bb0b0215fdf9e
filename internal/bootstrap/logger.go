package bootstrap

import (
	"github.com/kedr891/skin-portfolio/config"
	"github.com/kedr891/skin-portfolio/internal/domain"
	"github.com/kedr891/skin-portfolio/pkg/logger"
)

func InitLogger(cfg *config.Config) *logger.Logger {
	var opts []logger.Option
	if cfg.Log.JSON {
		opts = append(opts, logger.WithJSON())
	}
	return logger.New(cfg.Log.Level, opts...)
}

// LoggerAdapter - pkg/logger под узкий domain.Logger сервисов
type LoggerAdapter struct {
	logger *logger.Logger
}

func NewLoggerAdapter(log *logger.Logger) domain.Logger {
	return &LoggerAdapter{
		logger: log,
	}
}

func (a *LoggerAdapter) Debug(msg string, args ...interface{}) {
	a.logger.Debug(msg, args...)
}

func (a *LoggerAdapter) Info(msg string, args ...interface{}) {
	a.logger.Info(msg, args...)
}

func (a *LoggerAdapter) Warn(msg string, args ...interface{}) {
	a.logger.Warn(msg, args...)
}

func (a *LoggerAdapter) Error(msg string, args ...interface{}) {
	a.logger.Error(msg, args...)
}
