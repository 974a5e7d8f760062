package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/smallbiznis/billora/internal/cache"
	"github.com/smallbiznis/billora/internal/clock"
	"github.com/smallbiznis/billora/internal/observability/metrics"
	"github.com/smallbiznis/billora/internal/revenue/domain"
)

const (
	rollingYearCacheKey = "revenue:rolling_year"
	rollingYearCacheTTL = 30 * time.Second
)

type StatisticsParams struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
	Clock clock.Clock
}

// Statistics serves the rolling 12-month revenue series and its summary
// figures, and owns the full recalculation recovery path.
type Statistics struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
	clock clock.Clock
	cache cache.Cache[string, []domain.MonthlyRevenue]
}

func NewStatistics(p StatisticsParams) domain.StatisticsService {
	return &Statistics{
		db:    p.DB,
		log:   p.Log.Named("revenue.statistics"),
		genID: p.GenID,
		repo:  p.Repo,
		clock: p.Clock,
		cache: cache.NewTTLCache[string, []domain.MonthlyRevenue](),
	}
}

// CalculateForRollingYear returns exactly 12 rows, one per consecutive
// month ending at the current month, oldest first. Months without an
// aggregate row are filled with zero-valued template defaults; the caller
// never sees a sparse series. Staleness up to the cache TTL is acceptable
// per the engine's consistency model.
func (s *Statistics) CalculateForRollingYear(ctx context.Context) ([]domain.MonthlyRevenue, error) {
	if cached, ok := s.cache.Get(rollingYearCacheKey); ok {
		return cloneSeries(cached), nil
	}

	window := domain.RollingWindow(s.clock.Now())
	first, last := window[0], window[len(window)-1]

	rows, err := s.repo.FindByDateRange(ctx, first, last)
	if err != nil {
		return nil, err
	}

	byPeriod := make(map[domain.Period]domain.RevenueAggregate, len(rows))
	for _, row := range rows {
		byPeriod[row.PeriodKey()] = row
	}

	series := make([]domain.MonthlyRevenue, 0, len(window))
	for _, period := range window {
		if row, ok := byPeriod[period]; ok {
			series = append(series, domain.MonthlyRevenue{
				Period:            period.Key(),
				InvoiceCount:      row.InvoiceCount,
				TotalAmount:       row.TotalAmount,
				CalculationSource: row.CalculationSource,
			})
			continue
		}
		series = append(series, domain.MonthlyRevenue{
			Period:            period.Key(),
			CalculationSource: domain.SourceTemplate,
		})
	}

	s.cache.Set(rollingYearCacheKey, cloneSeries(series), rollingYearCacheTTL)
	return series, nil
}

// CalculateStatistics summarizes the rolling-year series. Months with zero
// revenue are excluded from minimum, maximum and average; total spans the
// whole window. With no active months every field is zero.
func (s *Statistics) CalculateStatistics(ctx context.Context) (domain.RevenueStatistics, error) {
	series, err := s.CalculateForRollingYear(ctx)
	if err != nil {
		return domain.RevenueStatistics{}, err
	}

	var stats domain.RevenueStatistics
	var activeSum int64
	for _, month := range series {
		stats.Total += month.TotalAmount
		if month.TotalAmount <= 0 {
			continue
		}
		if stats.MonthsWithData == 0 || month.TotalAmount > stats.Maximum {
			stats.Maximum = month.TotalAmount
		}
		if stats.MonthsWithData == 0 || month.TotalAmount < stats.Minimum {
			stats.Minimum = month.TotalAmount
		}
		activeSum += month.TotalAmount
		stats.MonthsWithData++
	}
	if stats.MonthsWithData > 0 {
		stats.Average = activeSum / int64(stats.MonthsWithData)
	}
	return stats, nil
}

// RecalculateForYear rebuilds the window's aggregate rows from the invoice
// table. Months with eligible invoices are upserted with ground-truth
// values; stale aggregate rows for months with none are removed. Returns
// the number of rows written or deleted.
func (s *Statistics) RecalculateForYear(ctx context.Context) (int, error) {
	window := domain.RollingWindow(s.clock.Now())
	first, last := window[0], window[len(window)-1]

	changed := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		truth, err := repo.SummarizeEligibleInvoices(ctx, first, last)
		if err != nil {
			return err
		}
		truthByPeriod := make(map[domain.Period]domain.PeriodTotal, len(truth))
		for _, t := range truth {
			truthByPeriod[t.Period] = t
		}

		existing, err := repo.FindByDateRange(ctx, first, last)
		if err != nil {
			return err
		}
		existingByPeriod := make(map[domain.Period]domain.RevenueAggregate, len(existing))
		for _, row := range existing {
			existingByPeriod[row.PeriodKey()] = row
		}

		now := s.clock.Now()
		for _, period := range window {
			truth, hasTruth := truthByPeriod[period]
			current, hasRow := existingByPeriod[period]

			if !hasTruth {
				if hasRow {
					if err := repo.Delete(ctx, current.ID); err != nil {
						return err
					}
					metrics.Revenue().IncAggregateDelete()
					changed++
				}
				continue
			}

			if hasRow && current.InvoiceCount == truth.InvoiceCount && current.TotalAmount == truth.TotalAmount {
				continue
			}

			id := s.genID.Generate()
			if hasRow {
				id = current.ID
			}
			if _, err := repo.Upsert(ctx, domain.AggregateUpsert{
				ID:                id,
				Period:            period,
				InvoiceCount:      truth.InvoiceCount,
				TotalAmount:       truth.TotalAmount,
				CalculationSource: domain.SourceBulkRecalculation,
				Now:               now,
			}); err != nil {
				return err
			}
			changed++
		}
		return nil
	})
	if err != nil {
		metrics.Revenue().IncRecalculation("failed")
		return 0, err
	}

	s.cache.Delete(rollingYearCacheKey)
	metrics.Revenue().IncRecalculation("success")
	if changed > 0 {
		s.log.Info("revenue window recalculated",
			zap.String("from", first.Key()),
			zap.String("to", last.Key()),
			zap.Int("rows_changed", changed),
		)
	}
	return changed, nil
}

func cloneSeries(series []domain.MonthlyRevenue) []domain.MonthlyRevenue {
	out := make([]domain.MonthlyRevenue, len(series))
	copy(out, series)
	return out
}
