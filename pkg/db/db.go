// Package db opens the gorm connection used by every repository.
package db

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/smallbiznis/billora/internal/config"
)

var Module = fx.Module("db",
	fx.Provide(Open),
)

// Open connects to the configured database. TranslateError is enabled so
// repositories can match on gorm sentinel errors (gorm.ErrDuplicatedKey)
// instead of driver-specific codes.
func Open(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch strings.ToLower(strings.TrimSpace(cfg.Database.Driver)) {
	case "postgres", "":
		dialector = postgres.Open(cfg.Database.DSN)
	case "sqlite":
		dialector = sqlite.Open(cfg.Database.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}

	conn, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	if lc != nil {
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

	if log != nil {
		log.Info("database connected", zap.String("driver", cfg.Database.Driver))
	}
	return conn, nil
}
