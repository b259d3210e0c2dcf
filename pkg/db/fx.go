package db

import (
	"context"

	"github.com/lekhabooks/lekha/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// NewDB opens the control-plane database (tenant registry, shared scope).
func NewDB(cfg config.Config, log *zap.Logger) (*gorm.DB, error) {
	return Open(cfg, "", log)
}

func registerHooks(lc fx.Lifecycle, conn *gorm.DB) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})
}

var Module = fx.Module("db",
	fx.Provide(NewDB),
	fx.Invoke(registerHooks),
)
