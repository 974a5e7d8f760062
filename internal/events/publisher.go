package events

import "context"

// Publisher hands lifecycle events to the revenue engine. Delivery is fire
// and forget: implementations must contain their own failures so the
// invoice write path never blocks or unwinds on aggregate maintenance.
type Publisher interface {
	Publish(ctx context.Context, ev InvoiceEvent)
}
