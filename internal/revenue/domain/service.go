package domain

import (
	"context"
	"errors"
)

// StatisticsService exposes the rolling-window reporting surface. Callers
// always receive a complete 12-month series; gaps are filled from the
// template and never persisted.
type StatisticsService interface {
	CalculateForRollingYear(ctx context.Context) ([]MonthlyRevenue, error)
	CalculateStatistics(ctx context.Context) (RevenueStatistics, error)

	// RecalculateForYear rebuilds aggregate rows for the rolling window
	// from the invoice table. It is the recovery path for drift left by
	// suppressed per-event failures and must converge to the same values
	// the incremental path would have produced.
	RecalculateForYear(ctx context.Context) (int, error)
}

var (
	// ErrInvalidEvent marks malformed event payloads (validation class).
	ErrInvalidEvent = errors.New("invalid_event")
	// ErrAggregateConflict marks a lost uniqueness race on upsert; the
	// operation is safe to retry (conflict class).
	ErrAggregateConflict = errors.New("aggregate_conflict")
	// ErrUnknownStatus marks a status outside the closed enumeration
	// reaching the eligibility policy (invariant violation class).
	ErrUnknownStatus = errors.New("unknown_invoice_status")
)
