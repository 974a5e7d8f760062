// Package reconcile periodically replays the full recalculation path to
// heal aggregate drift left by suppressed per-event failures.
package reconcile

import (
	"context"
	"errors"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/smallbiznis/billora/internal/revenue/domain"
)

type Params struct {
	fx.In

	Log    *zap.Logger
	Stats  domain.StatisticsService
	Config Config `optional:"true"`
}

type Worker struct {
	log   *zap.Logger
	stats domain.StatisticsService
	cfg   Config
}

func NewWorker(p Params) *Worker {
	return &Worker{
		log:   p.Log.Named("revenue.reconcile"),
		stats: p.Stats,
		cfg:   p.Config.withDefaults(),
	}
}

// RunForever recalculates on a fixed interval until the context ends.
func (w *Worker) RunForever(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		if err := w.RunOnce(ctx); err != nil {
			w.log.Warn("revenue reconciliation failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunOnce performs a single bounded recalculation pass.
func (w *Worker) RunOnce(ctx context.Context) error {
	if w.stats == nil {
		return errors.New("reconcile_worker_unavailable")
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	changed, err := w.stats.RecalculateForYear(ctx)
	if err != nil {
		return err
	}
	if changed > 0 {
		w.log.Info("revenue drift healed", zap.Int("rows_changed", changed))
	}
	return nil
}
