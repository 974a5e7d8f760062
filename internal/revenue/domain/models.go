// Package domain contains the revenue aggregate model and the pure policy
// functions (period derivation, eligibility, change detection) that drive
// per-month revenue rollups.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Calculation sources recorded on aggregate rows. Diagnostic only; never
// read for logic.
const (
	SourceInvoiceEvent      = "invoice_event"
	SourceTemplate          = "template"
	SourceBulkRecalculation = "bulk_recalculation"
)

// RevenueAggregate is the derived per-month rollup of eligible invoices.
// There is at most one row per period, enforced by the unique index.
type RevenueAggregate struct {
	ID                snowflake.ID `gorm:"primaryKey" json:"id"`
	Period            time.Time    `gorm:"not null;uniqueIndex:ux_revenue_aggregates_period" json:"period"`
	InvoiceCount      int64        `gorm:"not null;default:0" json:"invoice_count"`
	TotalAmount       int64        `gorm:"not null;default:0" json:"total_amount"`
	CalculationSource string       `gorm:"type:text;not null" json:"calculation_source"`
	CreatedAt         time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
	UpdatedAt         time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
}

// TableName sets the database table name.
func (RevenueAggregate) TableName() string { return "revenue_aggregates" }

// PeriodKey returns the calendar month this row aggregates.
func (a RevenueAggregate) PeriodKey() Period { return PeriodOf(a.Period) }

// ProcessedEvent marks one logical invoice change as applied. The unique
// dedupe key makes redelivered events no-ops: the marker insert and the
// aggregate write share a transaction, so either both happened or neither.
type ProcessedEvent struct {
	ID        snowflake.ID      `gorm:"primaryKey"`
	DedupeKey string            `gorm:"type:text;not null;uniqueIndex:ux_revenue_processed_events_key"`
	EventType string            `gorm:"type:text;not null"`
	InvoiceID snowflake.ID      `gorm:"not null;index"`
	Period    time.Time         `gorm:"not null"`
	Payload   datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (ProcessedEvent) TableName() string { return "revenue_processed_events" }

// MonthlyRevenue is one display row of the rolling-year series. Months with
// no aggregate row are filled from the template with zero values and are
// never persisted.
type MonthlyRevenue struct {
	Period            string `json:"period"`
	InvoiceCount      int64  `json:"invoice_count"`
	TotalAmount       int64  `json:"total_amount"`
	CalculationSource string `json:"calculation_source"`
}

// RevenueStatistics summarizes the rolling-year series. Minimum, maximum
// and average cover only months with non-zero revenue; total sums the whole
// window. All amounts are integer minor units.
type RevenueStatistics struct {
	Average        int64 `json:"average"`
	Maximum        int64 `json:"maximum"`
	Minimum        int64 `json:"minimum"`
	Total          int64 `json:"total"`
	MonthsWithData int   `json:"months_with_data"`
}

// PeriodTotal is one month of ground truth recomputed from the invoice
// table during recalculation.
type PeriodTotal struct {
	Period       Period
	InvoiceCount int64
	TotalAmount  int64
}
