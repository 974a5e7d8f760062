package service

import (
	invoicedomain "github.com/smallbiznis/billora/internal/invoice/domain"
	"github.com/smallbiznis/billora/internal/revenue/domain"
)

// mutation is the pure delta one invoice transition contributes to its
// period aggregate. Deltas are folded into the stored row inside the
// upsert's conflict clause, so two writers for the same period cannot lose
// each other's update. All arithmetic is integer minor units.
type mutation struct {
	apply       bool
	deltaCount  int64
	deltaAmount int64
}

func noop() mutation { return mutation{} }

// mutateForCreate contributes a newly created invoice. An ineligible
// invoice records nothing.
func mutateForCreate(current invoicedomain.Snapshot) (mutation, error) {
	eligible, err := domain.IsEligible(current.Status)
	if err != nil {
		return noop(), err
	}
	if !eligible {
		return noop(), nil
	}
	return mutation{apply: true, deltaCount: 1, deltaAmount: current.Amount}, nil
}

// mutateForChange contributes an update transition according to the
// already-classified change type.
func mutateForChange(change domain.ChangeType, previous, current invoicedomain.Snapshot) mutation {
	switch change {
	case domain.ChangeBecameEligible:
		return mutation{apply: true, deltaCount: 1, deltaAmount: current.Amount}
	case domain.ChangeBecameIneligible:
		return mutation{apply: true, deltaCount: -1, deltaAmount: -previous.Amount}
	case domain.ChangeAmountChanged:
		return mutation{apply: true, deltaAmount: current.Amount - previous.Amount}
	default:
		return noop()
	}
}

// mutateForDelete reverses a deleted invoice's contribution, treating the
// deleted snapshot as "previous".
func mutateForDelete(previous invoicedomain.Snapshot) (mutation, error) {
	eligible, err := domain.IsEligible(previous.Status)
	if err != nil {
		return noop(), err
	}
	if !eligible {
		return noop(), nil
	}
	return mutation{apply: true, deltaCount: -1, deltaAmount: -previous.Amount}, nil
}
