// Package repository persists revenue aggregates through a single atomic
// upsert path keyed on the period uniqueness constraint.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	invoicedomain "github.com/smallbiznis/billora/internal/invoice/domain"
	"github.com/smallbiznis/billora/internal/revenue/domain"
)

type RepositoryImpl struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &RepositoryImpl{db: db}
}

// WithTx rebinds the repository to an open transaction.
func (r *RepositoryImpl) WithTx(tx *gorm.DB) domain.Repository {
	return &RepositoryImpl{db: tx}
}

// FindByPeriod returns the aggregate row for the period, or nil when none
// exists. Absence is not an error.
func (r *RepositoryImpl) FindByPeriod(ctx context.Context, period domain.Period) (*domain.RevenueAggregate, error) {
	var row domain.RevenueAggregate
	err := r.db.WithContext(ctx).
		Where("period = ?", period.Start()).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find aggregate %s: %w", period.Key(), err)
	}
	return &row, nil
}

// FindByDateRange returns aggregates with start <= period <= end, newest
// month first.
func (r *RepositoryImpl) FindByDateRange(ctx context.Context, start, end domain.Period) ([]domain.RevenueAggregate, error) {
	var rows []domain.RevenueAggregate
	err := r.db.WithContext(ctx).
		Where("period >= ? AND period <= ?", start.Start(), end.Start()).
		Order("period DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list aggregates %s..%s: %w", start.Key(), end.Key(), err)
	}
	return rows, nil
}

// Upsert inserts or updates the period's row in one statement. The conflict
// target is the unique period column; on conflict created_at is left
// untouched and only the rollup columns move. A rare duplicated-key error
// (two writers inserting the same period before either conflict clause
// lands) is returned as ErrAggregateConflict so callers can retry.
func (r *RepositoryImpl) Upsert(ctx context.Context, up domain.AggregateUpsert) (*domain.RevenueAggregate, error) {
	if up.Period.IsZero() {
		return nil, fmt.Errorf("%w: missing period", domain.ErrInvalidEvent)
	}

	now := up.Now.UTC()
	row := domain.RevenueAggregate{
		ID:                up.ID,
		Period:            up.Period.Start(),
		InvoiceCount:      up.InvoiceCount,
		TotalAmount:       up.TotalAmount,
		CalculationSource: up.CalculationSource,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "period"}},
			DoUpdates: clause.Assignments(map[string]any{
				"invoice_count":      up.InvoiceCount,
				"total_amount":       up.TotalAmount,
				"calculation_source": up.CalculationSource,
				"updated_at":         now,
			}),
		}).
		Create(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("upsert aggregate %s: %w", up.Period.Key(), domain.ErrAggregateConflict)
		}
		return nil, fmt.Errorf("upsert aggregate %s: %w", up.Period.Key(), err)
	}

	// Re-read so callers see the winning row's id and created_at when the
	// insert resolved to an update.
	return r.FindByPeriod(ctx, up.Period)
}

// ApplyDelta inserts or increments the period's row in one statement. The
// increments run inside the conflict clause against the stored columns, so
// two writers hitting the same period both land: neither reads a stale row
// and writes it back. Counts and totals are clamped at zero on both the
// insert and update sides since a reversal can race ahead of its create.
func (r *RepositoryImpl) ApplyDelta(ctx context.Context, d domain.AggregateDelta) (*domain.RevenueAggregate, error) {
	if d.Period.IsZero() {
		return nil, fmt.Errorf("%w: missing period", domain.ErrInvalidEvent)
	}

	now := d.Now.UTC()
	row := domain.RevenueAggregate{
		ID:                d.ID,
		Period:            d.Period.Start(),
		InvoiceCount:      max(d.DeltaCount, 0),
		TotalAmount:       max(d.DeltaAmount, 0),
		CalculationSource: d.CalculationSource,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	greatest := "MAX"
	if r.db.Dialector.Name() == "postgres" {
		greatest = "GREATEST"
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "period"}},
			DoUpdates: clause.Assignments(map[string]any{
				"invoice_count":      gorm.Expr(greatest+"(revenue_aggregates.invoice_count + ?, 0)", d.DeltaCount),
				"total_amount":       gorm.Expr(greatest+"(revenue_aggregates.total_amount + ?, 0)", d.DeltaAmount),
				"calculation_source": d.CalculationSource,
				"updated_at":         now,
			}),
		}).
		Create(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("apply delta %s: %w", d.Period.Key(), domain.ErrAggregateConflict)
		}
		return nil, fmt.Errorf("apply delta %s: %w", d.Period.Key(), err)
	}

	return r.FindByPeriod(ctx, d.Period)
}

// Delete hard-deletes one aggregate row.
func (r *RepositoryImpl) Delete(ctx context.Context, id snowflake.ID) error {
	if err := r.db.WithContext(ctx).
		Delete(&domain.RevenueAggregate{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("delete aggregate %d: %w", id, err)
	}
	return nil
}

// DeleteIfEmpty removes the row only while its invoice count is still zero.
// The guard runs in the same statement, so a delta that repopulated the
// period between the caller's read and this delete keeps the row alive.
func (r *RepositoryImpl) DeleteIfEmpty(ctx context.Context, id snowflake.ID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND invoice_count <= 0", id).
		Delete(&domain.RevenueAggregate{})
	if res.Error != nil {
		return false, fmt.Errorf("delete empty aggregate %d: %w", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// MarkProcessed inserts a processed-event marker, returning false when the
// dedupe key already exists. ON CONFLICT DO NOTHING keeps redelivery cheap.
func (r *RepositoryImpl) MarkProcessed(ctx context.Context, record domain.ProcessedEvent) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "dedupe_key"}},
			DoNothing: true,
		}).
		Create(&record)
	if res.Error != nil {
		return false, fmt.Errorf("mark processed %s: %w", record.EventType, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// SummarizeEligibleInvoices recomputes per-month invoice counts and totals
// from ground truth. Grouping happens in Go so the scan stays portable
// across the postgres and sqlite dialects used in production and tests.
func (r *RepositoryImpl) SummarizeEligibleInvoices(ctx context.Context, start, end domain.Period) ([]domain.PeriodTotal, error) {
	var invoices []invoicedomain.Invoice
	err := r.db.WithContext(ctx).
		Select("id", "amount", "status", "effective_date").
		Where("status IN ?", domain.EligibleStatuses()).
		Where("effective_date >= ? AND effective_date < ?", start.Start(), end.End()).
		Find(&invoices).Error
	if err != nil {
		return nil, fmt.Errorf("summarize invoices %s..%s: %w", start.Key(), end.Key(), err)
	}

	totals := make(map[domain.Period]*domain.PeriodTotal)
	order := make([]domain.Period, 0)
	for _, inv := range invoices {
		period := domain.PeriodOf(inv.EffectiveDate)
		entry, ok := totals[period]
		if !ok {
			entry = &domain.PeriodTotal{Period: period}
			totals[period] = entry
			order = append(order, period)
		}
		entry.InvoiceCount++
		entry.TotalAmount += inv.Amount
	}

	result := make([]domain.PeriodTotal, 0, len(order))
	for _, period := range order {
		result = append(result, *totals[period])
	}
	return result, nil
}
