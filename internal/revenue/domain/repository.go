package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// AggregateUpsert carries the full replacement values for one period's
// aggregate row. On insert CreatedAt is set to Now; on conflict only the
// count, total, calculation source and updated_at columns change.
type AggregateUpsert struct {
	ID                snowflake.ID
	Period            Period
	InvoiceCount      int64
	TotalAmount       int64
	CalculationSource string
	Now               time.Time
}

// AggregateDelta carries the increments one invoice transition contributes
// to a period's row. The deltas are applied inside the upsert's conflict
// clause so concurrent writers for the same period compose instead of
// overwriting each other.
type AggregateDelta struct {
	ID                snowflake.ID
	Period            Period
	DeltaCount        int64
	DeltaAmount       int64
	CalculationSource string
	Now               time.Time
}

// Repository is the sole write surface for revenue aggregates. Event
// handlers write through ApplyDelta; the recalculation path, which holds
// authoritative ground truth, writes absolute values through Upsert.
// Absence from FindByPeriod is non-exceptional.
type Repository interface {
	// WithTx rebinds the repository to an open transaction.
	WithTx(tx *gorm.DB) Repository

	// FindByPeriod returns nil (not an error) when no row exists.
	FindByPeriod(ctx context.Context, period Period) (*RevenueAggregate, error)

	// FindByDateRange returns rows with start <= period <= end, ordered by
	// period descending.
	FindByDateRange(ctx context.Context, start, end Period) ([]RevenueAggregate, error)

	// Upsert inserts or updates the row for the period in one atomic
	// statement keyed on the period uniqueness constraint. A concurrent
	// insert race surfaces as ErrAggregateConflict.
	Upsert(ctx context.Context, up AggregateUpsert) (*RevenueAggregate, error)

	// ApplyDelta inserts or increments the row for the period in one
	// atomic statement. The increments run inside the conflict clause,
	// clamped at zero, so interleaved writers never lose each other's
	// updates. Returns the row as persisted after the delta.
	ApplyDelta(ctx context.Context, d AggregateDelta) (*RevenueAggregate, error)

	// Delete hard-deletes an aggregate row. Used only when a reversal
	// drives the invoice count to zero.
	Delete(ctx context.Context, id snowflake.ID) error

	// DeleteIfEmpty removes the row only while its invoice count is still
	// zero, reporting whether a row was removed. A concurrent delta that
	// repopulated the period leaves the row in place.
	DeleteIfEmpty(ctx context.Context, id snowflake.ID) (bool, error)

	// MarkProcessed records a processed-event marker. It returns false
	// without error when the dedupe key was already present.
	MarkProcessed(ctx context.Context, record ProcessedEvent) (bool, error)

	// SummarizeEligibleInvoices recomputes per-month ground truth from the
	// invoice table for effective dates in [start.Start(), end.End()).
	SummarizeEligibleInvoices(ctx context.Context, start, end Period) ([]PeriodTotal, error)
}
