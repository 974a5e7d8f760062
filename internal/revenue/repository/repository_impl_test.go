package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	invoicedomain "github.com/smallbiznis/billora/internal/invoice/domain"
	"github.com/smallbiznis/billora/internal/revenue/domain"
)

func setupRepoTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&invoicedomain.Invoice{},
		&domain.RevenueAggregate{},
		&domain.ProcessedEvent{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func testNode(t *testing.T) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	return node
}

func TestFindByPeriodAbsenceIsNil(t *testing.T) {
	repo := NewRepository(setupRepoTestDB(t))

	row, err := repo.FindByPeriod(context.Background(), domain.Period{Year: 2026, Month: time.May})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if row != nil {
		t.Fatalf("expected nil for absent period, got %+v", row)
	}
}

func TestUpsertInsertThenUpdateKeepsOneRow(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewRepository(db)
	node := testNode(t)
	period := domain.Period{Year: 2026, Month: time.May}

	created := time.Date(2026, time.May, 2, 10, 0, 0, 0, time.UTC)
	first, err := repo.Upsert(context.Background(), domain.AggregateUpsert{
		ID:                node.Generate(),
		Period:            period,
		InvoiceCount:      1,
		TotalAmount:       1000,
		CalculationSource: domain.SourceInvoiceEvent,
		Now:               created,
	})
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	second, err := repo.Upsert(context.Background(), domain.AggregateUpsert{
		ID:                node.Generate(),
		Period:            period,
		InvoiceCount:      2,
		TotalAmount:       2500,
		CalculationSource: domain.SourceInvoiceEvent,
		Now:               created.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	var count int64
	if err := db.Model(&domain.RevenueAggregate{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one row per period, got %d", count)
	}

	if second.ID != first.ID {
		t.Fatalf("conflict update must keep the original id, got %d then %d", first.ID, second.ID)
	}
	if second.InvoiceCount != 2 || second.TotalAmount != 2500 {
		t.Fatalf("expected {2, 2500}, got {%d, %d}", second.InvoiceCount, second.TotalAmount)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Fatalf("created_at must survive conflict updates: %v vs %v", first.CreatedAt, second.CreatedAt)
	}
	if !second.UpdatedAt.After(first.UpdatedAt) {
		t.Fatalf("updated_at must advance: %v vs %v", first.UpdatedAt, second.UpdatedAt)
	}
}

func TestUpsertRejectsZeroPeriod(t *testing.T) {
	repo := NewRepository(setupRepoTestDB(t))

	_, err := repo.Upsert(context.Background(), domain.AggregateUpsert{
		ID:  testNode(t).Generate(),
		Now: time.Now(),
	})
	if err == nil {
		t.Fatalf("expected error for zero period")
	}
}

func TestFindByDateRangeOrdersNewestFirst(t *testing.T) {
	repo := NewRepository(setupRepoTestDB(t))
	node := testNode(t)
	now := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)

	for _, month := range []time.Month{time.January, time.March, time.February} {
		_, err := repo.Upsert(context.Background(), domain.AggregateUpsert{
			ID:                node.Generate(),
			Period:            domain.Period{Year: 2026, Month: month},
			InvoiceCount:      1,
			TotalAmount:       int64(month) * 100,
			CalculationSource: domain.SourceInvoiceEvent,
			Now:               now,
		})
		if err != nil {
			t.Fatalf("upsert %v: %v", month, err)
		}
	}

	rows, err := repo.FindByDateRange(context.Background(),
		domain.Period{Year: 2026, Month: time.January},
		domain.Period{Year: 2026, Month: time.March},
	)
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	for i := 1; i < len(rows); i++ {
		if !rows[i].Period.Before(rows[i-1].Period) {
			t.Fatalf("rows not descending at %d", i)
		}
	}
}

// Two deltas against the same period must both land even though neither
// reads the row first: the increment happens inside the conflict clause.
func TestApplyDeltaComposesWithoutReads(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewRepository(db)
	node := testNode(t)
	period := domain.Period{Year: 2026, Month: time.May}
	now := time.Date(2026, time.May, 3, 9, 0, 0, 0, time.UTC)

	first, err := repo.ApplyDelta(context.Background(), domain.AggregateDelta{
		ID:                node.Generate(),
		Period:            period,
		DeltaCount:        1,
		DeltaAmount:       1000,
		CalculationSource: domain.SourceInvoiceEvent,
		Now:               now,
	})
	if err != nil {
		t.Fatalf("first delta: %v", err)
	}
	if first.InvoiceCount != 1 || first.TotalAmount != 1000 {
		t.Fatalf("expected {1, 1000}, got {%d, %d}", first.InvoiceCount, first.TotalAmount)
	}

	for i := 0; i < 2; i++ {
		if _, err := repo.ApplyDelta(context.Background(), domain.AggregateDelta{
			ID:                node.Generate(),
			Period:            period,
			DeltaCount:        1,
			DeltaAmount:       500,
			CalculationSource: domain.SourceInvoiceEvent,
			Now:               now.Add(time.Minute),
		}); err != nil {
			t.Fatalf("delta %d: %v", i, err)
		}
	}

	row, err := repo.FindByPeriod(context.Background(), period)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if row.InvoiceCount != 3 || row.TotalAmount != 2000 {
		t.Fatalf("expected {3, 2000}, got {%d, %d}", row.InvoiceCount, row.TotalAmount)
	}
	if row.ID != first.ID {
		t.Fatalf("delta updates must keep the original id, got %d then %d", first.ID, row.ID)
	}

	var count int64
	if err := db.Model(&domain.RevenueAggregate{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one row per period, got %d", count)
	}
}

func TestApplyDeltaClampsAtZero(t *testing.T) {
	repo := NewRepository(setupRepoTestDB(t))
	node := testNode(t)
	period := domain.Period{Year: 2026, Month: time.May}
	now := time.Date(2026, time.May, 3, 9, 0, 0, 0, time.UTC)

	if _, err := repo.ApplyDelta(context.Background(), domain.AggregateDelta{
		ID:                node.Generate(),
		Period:            period,
		DeltaCount:        1,
		DeltaAmount:       800,
		CalculationSource: domain.SourceInvoiceEvent,
		Now:               now,
	}); err != nil {
		t.Fatalf("seed delta: %v", err)
	}

	row, err := repo.ApplyDelta(context.Background(), domain.AggregateDelta{
		ID:                node.Generate(),
		Period:            period,
		DeltaCount:        -2,
		DeltaAmount:       -1600,
		CalculationSource: domain.SourceInvoiceEvent,
		Now:               now.Add(time.Minute),
	})
	if err != nil {
		t.Fatalf("reversal delta: %v", err)
	}
	if row.InvoiceCount != 0 || row.TotalAmount != 0 {
		t.Fatalf("expected clamp to {0, 0}, got {%d, %d}", row.InvoiceCount, row.TotalAmount)
	}
}

func TestApplyDeltaRejectsZeroPeriod(t *testing.T) {
	repo := NewRepository(setupRepoTestDB(t))

	_, err := repo.ApplyDelta(context.Background(), domain.AggregateDelta{
		ID:  testNode(t).Generate(),
		Now: time.Now(),
	})
	if err == nil {
		t.Fatalf("expected error for zero period")
	}
}

func TestDeleteIfEmptyGuardsOnCount(t *testing.T) {
	repo := NewRepository(setupRepoTestDB(t))
	node := testNode(t)
	period := domain.Period{Year: 2026, Month: time.April}
	now := time.Date(2026, time.April, 9, 0, 0, 0, 0, time.UTC)

	row, err := repo.ApplyDelta(context.Background(), domain.AggregateDelta{
		ID:                node.Generate(),
		Period:            period,
		DeltaCount:        1,
		DeltaAmount:       500,
		CalculationSource: domain.SourceInvoiceEvent,
		Now:               now,
	})
	if err != nil {
		t.Fatalf("seed delta: %v", err)
	}

	removed, err := repo.DeleteIfEmpty(context.Background(), row.ID)
	if err != nil {
		t.Fatalf("delete if empty: %v", err)
	}
	if removed {
		t.Fatalf("row with invoices must survive")
	}

	if _, err := repo.ApplyDelta(context.Background(), domain.AggregateDelta{
		ID:                node.Generate(),
		Period:            period,
		DeltaCount:        -1,
		DeltaAmount:       -500,
		CalculationSource: domain.SourceInvoiceEvent,
		Now:               now.Add(time.Minute),
	}); err != nil {
		t.Fatalf("reversal delta: %v", err)
	}

	removed, err = repo.DeleteIfEmpty(context.Background(), row.ID)
	if err != nil {
		t.Fatalf("delete if empty: %v", err)
	}
	if !removed {
		t.Fatalf("expected empty row to be removed")
	}

	got, err := repo.FindByPeriod(context.Background(), period)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got != nil {
		t.Fatalf("expected row gone, got %+v", got)
	}
}

func TestDeleteRemovesRow(t *testing.T) {
	repo := NewRepository(setupRepoTestDB(t))
	period := domain.Period{Year: 2026, Month: time.April}

	row, err := repo.Upsert(context.Background(), domain.AggregateUpsert{
		ID:                testNode(t).Generate(),
		Period:            period,
		InvoiceCount:      1,
		TotalAmount:       500,
		CalculationSource: domain.SourceInvoiceEvent,
		Now:               time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	if err := repo.Delete(context.Background(), row.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	got, err := repo.FindByPeriod(context.Background(), period)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got != nil {
		t.Fatalf("expected row gone, got %+v", got)
	}
}

func TestMarkProcessedDeduplicates(t *testing.T) {
	repo := NewRepository(setupRepoTestDB(t))
	node := testNode(t)

	record := domain.ProcessedEvent{
		ID:        node.Generate(),
		DedupeKey: "abc123",
		EventType: "invoice_paid",
		InvoiceID: node.Generate(),
		Period:    time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC),
	}

	inserted, err := repo.MarkProcessed(context.Background(), record)
	if err != nil {
		t.Fatalf("first mark: %v", err)
	}
	if !inserted {
		t.Fatalf("expected first marker to insert")
	}

	record.ID = node.Generate()
	inserted, err = repo.MarkProcessed(context.Background(), record)
	if err != nil {
		t.Fatalf("second mark: %v", err)
	}
	if inserted {
		t.Fatalf("expected duplicate key to be a no-op")
	}
}

func TestSummarizeEligibleInvoices(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewRepository(db)
	node := testNode(t)

	invoices := []invoicedomain.Invoice{
		{ID: node.Generate(), CustomerID: node.Generate(), Amount: 1000, Status: invoicedomain.InvoiceStatusPaid, EffectiveDate: time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC)},
		{ID: node.Generate(), CustomerID: node.Generate(), Amount: 2000, Status: invoicedomain.InvoiceStatusPaid, EffectiveDate: time.Date(2026, time.March, 20, 0, 0, 0, 0, time.UTC)},
		{ID: node.Generate(), CustomerID: node.Generate(), Amount: 700, Status: invoicedomain.InvoiceStatusPaid, EffectiveDate: time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)},
		// Ineligible statuses must not contribute.
		{ID: node.Generate(), CustomerID: node.Generate(), Amount: 9999, Status: invoicedomain.InvoiceStatusPending, EffectiveDate: time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)},
		{ID: node.Generate(), CustomerID: node.Generate(), Amount: 9999, Status: invoicedomain.InvoiceStatusVoid, EffectiveDate: time.Date(2026, time.April, 10, 0, 0, 0, 0, time.UTC)},
		// Outside the window.
		{ID: node.Generate(), CustomerID: node.Generate(), Amount: 5000, Status: invoicedomain.InvoiceStatusPaid, EffectiveDate: time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC)},
	}
	if err := db.Create(&invoices).Error; err != nil {
		t.Fatalf("seed invoices: %v", err)
	}

	totals, err := repo.SummarizeEligibleInvoices(context.Background(),
		domain.Period{Year: 2026, Month: time.March},
		domain.Period{Year: 2026, Month: time.April},
	)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}

	byPeriod := make(map[string]domain.PeriodTotal, len(totals))
	for _, total := range totals {
		byPeriod[total.Period.Key()] = total
	}
	if len(byPeriod) != 2 {
		t.Fatalf("expected 2 periods, got %v", byPeriod)
	}

	march := byPeriod["2026-03"]
	if march.InvoiceCount != 2 || march.TotalAmount != 3000 {
		t.Fatalf("march: expected {2, 3000}, got {%d, %d}", march.InvoiceCount, march.TotalAmount)
	}
	april := byPeriod["2026-04"]
	if april.InvoiceCount != 1 || april.TotalAmount != 700 {
		t.Fatalf("april: expected {1, 700}, got {%d, %d}", april.InvoiceCount, april.TotalAmount)
	}
}
