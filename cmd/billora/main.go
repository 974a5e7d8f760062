package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/smallbiznis/billora/internal/clock"
	"github.com/smallbiznis/billora/internal/config"
	"github.com/smallbiznis/billora/internal/invoice"
	"github.com/smallbiznis/billora/internal/migration"
	"github.com/smallbiznis/billora/internal/observability/logger"
	"github.com/smallbiznis/billora/internal/observability/tracing"
	"github.com/smallbiznis/billora/internal/revenue"
	"github.com/smallbiznis/billora/internal/revenue/reconcile"
	"github.com/smallbiznis/billora/internal/seed"
	"github.com/smallbiznis/billora/internal/server"
	"github.com/smallbiznis/billora/pkg/db"
)

var version = "dev"

func main() {
	app := fx.New(
		config.Module,
		fx.Provide(func(cfg config.Config) logger.Config {
			return logger.Config{
				Environment: cfg.Environment,
				Level:       cfg.LogLevel,
			}
		}),
		logger.Module,
		fx.Provide(func(cfg config.Config) reconcile.Config {
			return reconcile.Config{
				Interval: cfg.Reconcile.Interval,
				Enabled:  cfg.Reconcile.Enabled,
			}
		}),
		fx.Provide(func() *snowflake.Node {
			node, err := snowflake.NewNode(1)
			if err != nil {
				panic(err)
			}
			return node
		}),
		db.Module,
		clock.Module,
		fx.Invoke(func(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) error {
			_, err := tracing.NewProvider(lc, tracing.Config{
				Enabled:          cfg.Tracing.Enabled,
				ServiceName:      "billora",
				ServiceVersion:   version,
				Environment:      cfg.Environment,
				ExporterEndpoint: cfg.Tracing.ExporterEndpoint,
				ExporterProtocol: cfg.Tracing.ExporterProtocol,
				SamplingRatio:    cfg.Tracing.SamplingRatio,
			}, log)
			return err
		}),
		fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
			if err := migration.RunMigrations(conn); err != nil {
				return err
			}
			if cfg.SeedDemo {
				return seed.EnsureDemoInvoices(conn)
			}
			return nil
		}),
		revenue.Module,
		reconcile.Module,
		invoice.Module,
		server.Module,
	)
	app.Run()
}
