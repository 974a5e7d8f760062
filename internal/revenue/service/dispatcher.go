package service

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/smallbiznis/billora/internal/events"
	"github.com/smallbiznis/billora/internal/observability/metrics"
	"github.com/smallbiznis/billora/internal/revenue/domain"
)

// Handler processes one lifecycle event. A returned error is contained by
// the dispatcher, never by the caller.
type Handler func(ctx context.Context, ev events.InvoiceEvent) (Outcome, error)

type DispatcherParams struct {
	fx.In

	Log *zap.Logger
}

// Dispatcher routes lifecycle events to registered handlers and owns error
// containment: whatever a handler returns, the invoice write path only ever
// sees a typed Outcome. Handlers are wired explicitly by the composition
// root; nothing registers itself as a construction side effect.
type Dispatcher struct {
	log     *zap.Logger
	metrics *metrics.RevenueMetrics

	mu       sync.RWMutex
	handlers map[string]Handler
}

func NewDispatcher(p DispatcherParams) *Dispatcher {
	return &Dispatcher{
		log:      p.Log.Named("revenue.dispatcher"),
		metrics:  metrics.Revenue(),
		handlers: make(map[string]Handler),
	}
}

// Register binds an event type to a handler. Later registrations replace
// earlier ones; tests rely on that for substitution.
func (d *Dispatcher) Register(eventType string, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[eventType] = h
}

// Dispatch runs the handler for the event. Failures are logged with full
// context and reported as a suppressed outcome: the triggering invoice
// write has already committed, so aggregate drift is preferred over
// unwinding it. Recovery is the idempotent recalculation path.
func (d *Dispatcher) Dispatch(ctx context.Context, ev events.InvoiceEvent) Outcome {
	d.mu.RLock()
	h, ok := d.handlers[ev.Type]
	d.mu.RUnlock()
	if !ok {
		err := fmt.Errorf("%w: unregistered event type %q", domain.ErrInvalidEvent, ev.Type)
		d.log.Error("revenue event dropped",
			zap.String("event_type", ev.Type),
			zap.Int64("invoice_id", int64(ev.InvoiceID)),
			zap.Error(err),
		)
		d.metrics.IncEvent(string(OutcomeSuppressed))
		return Outcome{Status: OutcomeSuppressed, Err: err}
	}

	outcome, err := h(ctx, ev)
	if err != nil {
		d.log.Error("revenue event suppressed",
			zap.String("event_type", ev.Type),
			zap.Int64("invoice_id", int64(ev.InvoiceID)),
			zap.String("period", outcome.Period.Key()),
			zap.String("change", string(outcome.Change)),
			zap.Error(err),
		)
		d.metrics.IncEvent(string(OutcomeSuppressed))
		outcome.Status = OutcomeSuppressed
		outcome.Err = err
		return outcome
	}

	d.metrics.IncEvent(string(outcome.Status))
	return outcome
}

// Publish implements events.Publisher. The outcome is already logged and
// counted by Dispatch; fire-and-forget callers have nothing further to do
// with it.
func (d *Dispatcher) Publish(ctx context.Context, ev events.InvoiceEvent) {
	_ = d.Dispatch(ctx, ev)
}
