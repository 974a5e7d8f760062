package revenue

import (
	"go.uber.org/fx"

	"github.com/smallbiznis/billora/internal/events"
	"github.com/smallbiznis/billora/internal/revenue/repository"
	"github.com/smallbiznis/billora/internal/revenue/service"
)

var Module = fx.Module("revenue",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewOrchestrator),
	fx.Provide(service.NewDispatcher),
	fx.Provide(service.NewStatistics),
	fx.Provide(func(d *service.Dispatcher) events.Publisher { return d }),
	fx.Invoke(RegisterHandlers),
)

// RegisterHandlers wires lifecycle event types to orchestrator handlers.
// Registration lives here, in the composition root, so tests can assemble
// the same routing deterministically.
func RegisterHandlers(d *service.Dispatcher, o *service.Orchestrator) {
	d.Register(events.EventInvoiceCreated, o.HandleCreated)
	d.Register(events.EventInvoiceUpdated, o.HandleUpdated)
	d.Register(events.EventInvoicePaid, o.HandleUpdated)
	d.Register(events.EventInvoiceVoided, o.HandleUpdated)
	d.Register(events.EventInvoiceDeleted, o.HandleDeleted)
}
