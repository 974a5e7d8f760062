package domain

import (
	"fmt"

	invoicedomain "github.com/smallbiznis/billora/internal/invoice/domain"
)

// eligibleStatuses is the closed mapping from invoice status to revenue
// eligibility. Every member of the status enumeration must appear here; a
// status that does not is a contract break upstream, not a soft miss.
var eligibleStatuses = map[invoicedomain.InvoiceStatus]bool{
	invoicedomain.InvoiceStatusDraft:   false,
	invoicedomain.InvoiceStatusPending: false,
	invoicedomain.InvoiceStatusPaid:    true,
	invoicedomain.InvoiceStatusVoid:    false,
}

// IsEligible reports whether invoices in the given status count toward
// recognized revenue. An unrecognized status returns ErrUnknownStatus and
// must never be coerced to false.
func IsEligible(status invoicedomain.InvoiceStatus) (bool, error) {
	eligible, ok := eligibleStatuses[status]
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownStatus, status)
	}
	return eligible, nil
}

// EligibleStatuses lists the statuses that contribute to revenue. Used by
// the recalculation scan to select ground-truth invoices.
func EligibleStatuses() []invoicedomain.InvoiceStatus {
	statuses := make([]invoicedomain.InvoiceStatus, 0, 1)
	for status, eligible := range eligibleStatuses {
		if eligible {
			statuses = append(statuses, status)
		}
	}
	return statuses
}
