package domain

import (
	"errors"
	"testing"

	invoicedomain "github.com/smallbiznis/billora/internal/invoice/domain"
)

func TestIsEligibleCoversEveryStatus(t *testing.T) {
	cases := map[invoicedomain.InvoiceStatus]bool{
		invoicedomain.InvoiceStatusDraft:   false,
		invoicedomain.InvoiceStatusPending: false,
		invoicedomain.InvoiceStatusPaid:    true,
		invoicedomain.InvoiceStatusVoid:    false,
	}
	for status, want := range cases {
		got, err := IsEligible(status)
		if err != nil {
			t.Fatalf("status %q: %v", status, err)
		}
		if got != want {
			t.Fatalf("status %q: expected eligible=%v, got %v", status, want, got)
		}
	}
}

func TestIsEligibleRejectsUnknownStatus(t *testing.T) {
	_, err := IsEligible("refunded")
	if !errors.Is(err, ErrUnknownStatus) {
		t.Fatalf("expected ErrUnknownStatus, got %v", err)
	}
}

func TestEligibleStatuses(t *testing.T) {
	statuses := EligibleStatuses()
	if len(statuses) != 1 || statuses[0] != invoicedomain.InvoiceStatusPaid {
		t.Fatalf("expected only paid, got %v", statuses)
	}
}
