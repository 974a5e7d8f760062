// Package service implements the revenue engine: per-event aggregate
// mutation, dispatch with error containment, and rolling-window reporting.
package service

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/smallbiznis/billora/internal/clock"
	"github.com/smallbiznis/billora/internal/events"
	invoicedomain "github.com/smallbiznis/billora/internal/invoice/domain"
	"github.com/smallbiznis/billora/internal/observability/metrics"
	"github.com/smallbiznis/billora/internal/observability/tracing"
	"github.com/smallbiznis/billora/internal/revenue/domain"
)

// OutcomeStatus describes how an event was resolved.
type OutcomeStatus string

const (
	OutcomeApplied    OutcomeStatus = "applied"
	OutcomeSkipped    OutcomeStatus = "skipped"
	OutcomeDuplicate  OutcomeStatus = "duplicate"
	OutcomeSuppressed OutcomeStatus = "suppressed"
)

// Outcome is the typed result of dispatching one event. Err is populated
// only for suppressed outcomes; it never propagates to the caller.
type Outcome struct {
	Status OutcomeStatus
	Change domain.ChangeType
	Period domain.Period
	Err    error
}

type OrchestratorParams struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
	Clock clock.Clock
}

// Orchestrator runs the per-event pipeline: validate, derive period, load
// aggregate, detect change, mutate, persist. Each event is one logical
// step; the dedupe marker and the aggregate write share a transaction.
type Orchestrator struct {
	db     *gorm.DB
	log    *zap.Logger
	genID  *snowflake.Node
	repo   domain.Repository
	clock  clock.Clock
	tracer trace.Tracer
}

func NewOrchestrator(p OrchestratorParams) *Orchestrator {
	return &Orchestrator{
		db:     p.DB,
		log:    p.Log.Named("revenue.orchestrator"),
		genID:  p.GenID,
		repo:   p.Repo,
		clock:  p.Clock,
		tracer: otel.Tracer("billora/revenue"),
	}
}

// HandleCreated folds a created invoice into its period aggregate.
func (o *Orchestrator) HandleCreated(ctx context.Context, ev events.InvoiceEvent) (Outcome, error) {
	current, err := requireSnapshot(ev.Invoice)
	if err != nil {
		return Outcome{Status: OutcomeSuppressed}, err
	}

	period := domain.PeriodOf(current.EffectiveDate)
	return o.applyEvent(ctx, ev, period, domain.ChangeNone, func() (mutation, error) {
		return mutateForCreate(current)
	})
}

// HandleUpdated folds a status or amount transition into the aggregate for
// the current snapshot's period.
func (o *Orchestrator) HandleUpdated(ctx context.Context, ev events.InvoiceEvent) (Outcome, error) {
	current, err := requireSnapshot(ev.Invoice)
	if err != nil {
		return Outcome{Status: OutcomeSuppressed}, err
	}
	previous, err := requireSnapshot(ev.PreviousInvoice)
	if err != nil {
		return Outcome{Status: OutcomeSuppressed}, err
	}

	change, err := domain.DetectChange(previous, current)
	if err != nil {
		return Outcome{Status: OutcomeSuppressed}, err
	}
	period := domain.PeriodOf(current.EffectiveDate)
	if change == domain.ChangeNone {
		return Outcome{Status: OutcomeSkipped, Change: change, Period: period}, nil
	}

	return o.applyEvent(ctx, ev, period, change, func() (mutation, error) {
		return mutateForChange(change, previous, current), nil
	})
}

// HandleDeleted reverses a deleted invoice's contribution.
func (o *Orchestrator) HandleDeleted(ctx context.Context, ev events.InvoiceEvent) (Outcome, error) {
	previous, err := requireSnapshot(ev.PreviousInvoice)
	if err != nil {
		return Outcome{Status: OutcomeSuppressed}, err
	}

	period := domain.PeriodOf(previous.EffectiveDate)
	return o.applyEvent(ctx, ev, period, domain.ChangeBecameIneligible, func() (mutation, error) {
		return mutateForDelete(previous)
	})
}

// applyEvent runs the shared persistence step. The processed marker insert
// and the aggregate delta commit together, so a redelivered event either
// sees its marker and stops, or reapplies a change that never landed. The
// delta itself composes inside the upsert's conflict clause, so concurrent
// events for the same period never overwrite each other.
func (o *Orchestrator) applyEvent(
	ctx context.Context,
	ev events.InvoiceEvent,
	period domain.Period,
	change domain.ChangeType,
	mutate func() (mutation, error),
) (Outcome, error) {
	ctx, span := o.tracer.Start(ctx, "revenue.apply_event")
	defer span.End()
	span.SetAttributes(tracing.SafeAttributes(
		attribute.String("event.type", ev.Type),
		attribute.String("revenue.period", period.Key()),
		attribute.String("revenue.change", string(change)),
	)...)

	outcome := Outcome{Status: OutcomeSkipped, Change: change, Period: period}
	err := o.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := o.repo.WithTx(tx)

		inserted, err := repo.MarkProcessed(ctx, o.processedRecord(ev, period))
		if err != nil {
			return err
		}
		if !inserted {
			outcome.Status = OutcomeDuplicate
			return nil
		}

		m, err := mutate()
		if err != nil {
			return err
		}
		if !m.apply {
			return nil
		}

		if m.deltaCount <= 0 {
			// A pure reversal against a period with no row has nothing to
			// undo; reconciliation owns healing any drift behind it.
			existing, err := repo.FindByPeriod(ctx, period)
			if err != nil {
				return err
			}
			if existing == nil {
				return nil
			}
		}

		row, err := repo.ApplyDelta(ctx, domain.AggregateDelta{
			ID:                o.genID.Generate(),
			Period:            period,
			DeltaCount:        m.deltaCount,
			DeltaAmount:       m.deltaAmount,
			CalculationSource: domain.SourceInvoiceEvent,
			Now:               o.clock.Now(),
		})
		if err != nil {
			return err
		}
		if row != nil && row.InvoiceCount <= 0 {
			removed, err := repo.DeleteIfEmpty(ctx, row.ID)
			if err != nil {
				return err
			}
			if removed {
				metrics.Revenue().IncAggregateDelete()
			}
		}
		outcome.Status = OutcomeApplied
		return nil
	})
	if err != nil {
		if safeErr := tracing.SafeError(err); safeErr != nil {
			span.RecordError(safeErr)
		}
		return Outcome{Status: OutcomeSuppressed, Change: change, Period: period}, err
	}
	return outcome, nil
}

func (o *Orchestrator) processedRecord(ev events.InvoiceEvent, period domain.Period) domain.ProcessedEvent {
	payload := datatypes.JSONMap{
		"invoice_id": ev.InvoiceID.String(),
	}
	if ev.Invoice != nil {
		payload["status"] = string(ev.Invoice.Status)
		payload["amount"] = ev.Invoice.Amount
	}
	if ev.PreviousInvoice != nil {
		payload["previous_status"] = string(ev.PreviousInvoice.Status)
		payload["previous_amount"] = ev.PreviousInvoice.Amount
	}
	return domain.ProcessedEvent{
		ID:        o.genID.Generate(),
		DedupeKey: ev.DedupeKey(),
		EventType: ev.Type,
		InvoiceID: ev.InvoiceID,
		Period:    period.Start(),
		Payload:   payload,
		CreatedAt: o.clock.Now(),
	}
}

func requireSnapshot(s *invoicedomain.Snapshot) (invoicedomain.Snapshot, error) {
	if s == nil {
		return invoicedomain.Snapshot{}, fmt.Errorf("%w: missing snapshot", domain.ErrInvalidEvent)
	}
	if s.ID == 0 {
		return invoicedomain.Snapshot{}, fmt.Errorf("%w: missing invoice id", domain.ErrInvalidEvent)
	}
	if s.Amount < 0 {
		return invoicedomain.Snapshot{}, fmt.Errorf("%w: negative amount", domain.ErrInvalidEvent)
	}
	if s.EffectiveDate.IsZero() {
		return invoicedomain.Snapshot{}, fmt.Errorf("%w: missing effective date", domain.ErrInvalidEvent)
	}
	return *s, nil
}
