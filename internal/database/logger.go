package database

import (
	"log"
	"os"

	"go.uber.org/zap"
	"gorm.io/gorm/logger"
)

type zapWriter struct {
	sugar *zap.SugaredLogger
}

func (w zapWriter) Printf(format string, args ...interface{}) {
	w.sugar.Infof(format, args...)
}

func newGormLogger(cfg *PoolConfig) logger.Interface {
	var writer logger.Writer = log.New(os.Stdout, "\r\n", log.LstdFlags)
	if cfg.Logger != nil {
		writer = zapWriter{sugar: cfg.Logger.Named("gorm").Sugar()}
	}

	return logger.New(writer, logger.Config{
		SlowThreshold:             cfg.SlowThreshold,
		LogLevel:                  cfg.LogLevel,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}
