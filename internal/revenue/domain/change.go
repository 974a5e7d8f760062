package domain

import (
	invoicedomain "github.com/smallbiznis/billora/internal/invoice/domain"
)

// ChangeType classifies the revenue-relevant transition between two invoice
// snapshots.
type ChangeType string

const (
	ChangeNone             ChangeType = "none"
	ChangeBecameEligible   ChangeType = "became_eligible"
	ChangeBecameIneligible ChangeType = "became_ineligible"
	ChangeAmountChanged    ChangeType = "amount_changed"
)

// DetectChange classifies the transition from previous to current. An
// eligibility flip wins over a simultaneous amount change: flips move the
// invoice count, amount edits do not, and the two imply different
// mutations.
func DetectChange(previous, current invoicedomain.Snapshot) (ChangeType, error) {
	prevEligible, err := IsEligible(previous.Status)
	if err != nil {
		return ChangeNone, err
	}
	currEligible, err := IsEligible(current.Status)
	if err != nil {
		return ChangeNone, err
	}

	switch {
	case prevEligible && !currEligible:
		return ChangeBecameIneligible, nil
	case !prevEligible && currEligible:
		return ChangeBecameEligible, nil
	case prevEligible && currEligible && previous.Amount != current.Amount:
		return ChangeAmountChanged, nil
	default:
		return ChangeNone, nil
	}
}
