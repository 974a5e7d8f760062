// Package events defines invoice lifecycle events consumed by the revenue
// engine. Delivery is at-least-once with no ordering guarantee; consumers
// own idempotency.
package events

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"time"

	"github.com/bwmarrin/snowflake"

	invoicedomain "github.com/smallbiznis/billora/internal/invoice/domain"
)

// Invoice lifecycle event types.
const (
	EventInvoiceCreated = "invoice_created"
	EventInvoiceUpdated = "invoice_updated"
	EventInvoicePaid    = "invoice_paid"
	EventInvoiceVoided  = "invoice_voided"
	EventInvoiceDeleted = "invoice_deleted"
)

// InvoiceEvent carries the before/after snapshots for one invoice write.
// Created events have no previous snapshot; deleted events have no current
// one.
type InvoiceEvent struct {
	Type            string                  `json:"type"`
	InvoiceID       snowflake.ID            `json:"invoice_id"`
	Invoice         *invoicedomain.Snapshot `json:"invoice,omitempty"`
	PreviousInvoice *invoicedomain.Snapshot `json:"previous_invoice,omitempty"`
	OccurredAt      time.Time               `json:"occurred_at"`
}

// DedupeKey derives a deterministic checksum for one occurrence of a
// change. A redelivered event is the same occurrence and hashes to the
// same key; a later edit that happens to restore earlier values is a new
// occurrence (distinct OccurredAt) and must not collide with it.
func (e InvoiceEvent) DedupeKey() string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%d|%d", e.Type, e.InvoiceID, e.OccurredAt.UTC().UnixNano())
	writeSnapshot(h, e.PreviousInvoice)
	writeSnapshot(h, e.Invoice)
	return hex.EncodeToString(h.Sum(nil))
}

func writeSnapshot(h hash.Hash, s *invoicedomain.Snapshot) {
	if s == nil {
		fmt.Fprint(h, "|-")
		return
	}
	fmt.Fprintf(h, "|%d:%s:%d:%s", s.ID, s.Status, s.Amount, s.EffectiveDate.UTC().Format("2006-01-02"))
}
