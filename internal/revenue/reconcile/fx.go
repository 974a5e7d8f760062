package reconcile

import (
	"context"

	"go.uber.org/fx"
)

var Module = fx.Module("revenue.reconcile",
	fx.Provide(NewWorker),
	fx.Invoke(runWorker),
)

// runWorker starts the reconciliation loop on a background context. The
// OnStart context only covers startup and is cancelled once the app is
// running, so the loop holds its own context, cancelled in OnStop.
func runWorker(lc fx.Lifecycle, worker *Worker) {
	var cancel context.CancelFunc
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			if !worker.cfg.Enabled {
				return nil
			}
			var ctx context.Context
			ctx, cancel = context.WithCancel(context.Background())
			go worker.RunForever(ctx)
			return nil
		},
		OnStop: func(context.Context) error {
			if cancel != nil {
				cancel()
			}
			return nil
		},
	})
}
