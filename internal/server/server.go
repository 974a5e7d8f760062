// Package server exposes the billing dashboard HTTP API.
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/smallbiznis/billora/internal/config"
	invoicedomain "github.com/smallbiznis/billora/internal/invoice/domain"
	"github.com/smallbiznis/billora/internal/observability/logger"
	revenuedomain "github.com/smallbiznis/billora/internal/revenue/domain"
)

var Module = fx.Module("server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(func(s *Server) { s.RegisterRoutes() }),
	fx.Invoke(RunHTTP),
)

type Params struct {
	fx.In

	Cfg        config.Config
	DB         *gorm.DB
	Log        *zap.Logger
	Engine     *gin.Engine
	InvoiceSvc invoicedomain.Service
	StatsSvc   revenuedomain.StatisticsService
}

type Server struct {
	cfg        config.Config
	db         *gorm.DB
	log        *zap.Logger
	engine     *gin.Engine
	invoiceSvc invoicedomain.Service
	statsSvc   revenuedomain.StatisticsService
}

// NewEngine builds the gin engine with recovery and masked request
// logging.
func NewEngine(cfg config.Config) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(logger.GinMiddleware(logger.MiddlewareConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	return engine
}

func NewServer(p Params) *Server {
	return &Server{
		cfg:        p.Cfg,
		db:         p.DB,
		log:        p.Log.Named("server"),
		engine:     p.Engine,
		invoiceSvc: p.InvoiceSvc,
		statsSvc:   p.StatsSvc,
	}
}

func (s *Server) RegisterRoutes() {
	s.engine.GET("/healthz", s.Health)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := s.engine.Group("/v1")
	{
		v1.GET("/revenue/rolling-year", s.GetRollingYearRevenue)
		v1.GET("/revenue/statistics", s.GetRevenueStatistics)
		v1.POST("/revenue/recalculate", s.RecalculateRevenue)

		v1.POST("/invoices", s.CreateInvoice)
		v1.GET("/invoices/:id", s.GetInvoice)
		v1.PATCH("/invoices/:id", s.UpdateInvoice)
		v1.POST("/invoices/:id/pay", s.PayInvoice)
		v1.POST("/invoices/:id/void", s.VoidInvoice)
		v1.DELETE("/invoices/:id", s.DeleteInvoice)
	}
}

func (s *Server) Health(c *gin.Context) {
	if s.db != nil {
		if sqlDB, err := s.db.DB(); err == nil {
			if err := sqlDB.PingContext(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
				return
			}
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// RunHTTP starts the HTTP listener under the fx lifecycle.
func RunHTTP(lc fx.Lifecycle, cfg config.Config, engine *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: engine,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", cfg.Server.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
