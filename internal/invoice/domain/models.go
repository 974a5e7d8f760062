// Package domain contains the invoice model and lifecycle contracts.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// InvoiceStatus is the closed set of invoice lifecycle states.
type InvoiceStatus string

const (
	InvoiceStatusDraft   InvoiceStatus = "draft"
	InvoiceStatusPending InvoiceStatus = "pending"
	InvoiceStatusPaid    InvoiceStatus = "paid"
	InvoiceStatusVoid    InvoiceStatus = "void"
)

// KnownStatus reports whether status is part of the closed enumeration.
// Callers at the ingestion boundary use it to reject malformed input before
// it reaches revenue eligibility checks.
func KnownStatus(status InvoiceStatus) bool {
	switch status {
	case InvoiceStatusDraft, InvoiceStatusPending, InvoiceStatusPaid, InvoiceStatusVoid:
		return true
	}
	return false
}

// Invoice stores a billed amount for a customer. Amounts are integer minor
// currency units.
type Invoice struct {
	ID            snowflake.ID  `gorm:"primaryKey" json:"id"`
	CustomerID    snowflake.ID  `gorm:"not null;index" json:"customer_id"`
	Amount        int64         `gorm:"not null" json:"amount"`
	Status        InvoiceStatus `gorm:"type:text;not null;default:pending" json:"status"`
	EffectiveDate time.Time     `gorm:"not null;index" json:"effective_date"`
	CreatedAt     time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
	UpdatedAt     time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

// Snapshot captures the invoice fields the revenue engine reads. It is a
// value copy; mutation of the invoice row after the snapshot is taken does
// not affect it.
type Snapshot struct {
	ID            snowflake.ID  `json:"id"`
	Amount        int64         `json:"amount"`
	Status        InvoiceStatus `json:"status"`
	EffectiveDate time.Time     `json:"effective_date"`
}

// Snapshot returns the revenue-facing view of the invoice.
func (i Invoice) Snapshot() Snapshot {
	return Snapshot{
		ID:            i.ID,
		Amount:        i.Amount,
		Status:        i.Status,
		EffectiveDate: i.EffectiveDate,
	}
}
