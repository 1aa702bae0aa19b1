package migration

import (
	"github.com/northcove/fulfillment/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(cfg config.Config, conn *gorm.DB, log *zap.Logger) error {
		if !cfg.DBEnabled {
			log.Named("migration").Warn("database disabled, skipping migrations")
			return nil
		}
		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)
