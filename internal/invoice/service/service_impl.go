package service

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/smallbiznis/billora/internal/clock"
	"github.com/smallbiznis/billora/internal/events"
	invoicedomain "github.com/smallbiznis/billora/internal/invoice/domain"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Publisher events.Publisher
}

// Service is the invoice write path. Mutations commit first; the lifecycle
// event carrying before/after snapshots is published afterwards, so a
// failed aggregate update can never unwind an invoice write.
type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	publisher events.Publisher
}

func NewService(p Params) invoicedomain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("invoice.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		publisher: p.Publisher,
	}
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (invoicedomain.Invoice, error) {
	var invoice invoicedomain.Invoice
	err := s.db.WithContext(ctx).First(&invoice, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return invoicedomain.Invoice{}, invoicedomain.ErrInvoiceNotFound
		}
		return invoicedomain.Invoice{}, err
	}
	return invoice, nil
}

func (s *Service) Create(ctx context.Context, req invoicedomain.CreateInvoiceRequest) (invoicedomain.Invoice, error) {
	if req.CustomerID == 0 {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidCustomer
	}
	if req.Amount < 0 {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidAmount
	}
	if req.EffectiveDate.IsZero() {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidEffectiveDate
	}
	status := req.Status
	if status == "" {
		status = invoicedomain.InvoiceStatusPending
	}
	if !invoicedomain.KnownStatus(status) {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidStatus
	}

	now := s.clock.Now()
	invoice := invoicedomain.Invoice{
		ID:            s.genID.Generate(),
		CustomerID:    req.CustomerID,
		Amount:        req.Amount,
		Status:        status,
		EffectiveDate: req.EffectiveDate.UTC(),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.db.WithContext(ctx).Create(&invoice).Error; err != nil {
		return invoicedomain.Invoice{}, err
	}

	s.publish(ctx, events.EventInvoiceCreated, invoice, nil)
	return invoice, nil
}

func (s *Service) Update(ctx context.Context, id snowflake.ID, req invoicedomain.UpdateInvoiceRequest) (invoicedomain.Invoice, error) {
	if req.Amount != nil && *req.Amount < 0 {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidAmount
	}
	if req.EffectiveDate != nil && req.EffectiveDate.IsZero() {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidEffectiveDate
	}

	previous, err := s.GetByID(ctx, id)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	updated := previous
	if req.Amount != nil {
		updated.Amount = *req.Amount
	}
	if req.EffectiveDate != nil {
		updated.EffectiveDate = req.EffectiveDate.UTC()
	}
	updated.UpdatedAt = s.clock.Now()

	if err := s.db.WithContext(ctx).Save(&updated).Error; err != nil {
		return invoicedomain.Invoice{}, err
	}

	s.publish(ctx, events.EventInvoiceUpdated, updated, &previous)
	return updated, nil
}

func (s *Service) Pay(ctx context.Context, id snowflake.ID) (invoicedomain.Invoice, error) {
	previous, err := s.GetByID(ctx, id)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	switch previous.Status {
	case invoicedomain.InvoiceStatusPending, invoicedomain.InvoiceStatusDraft:
	case invoicedomain.InvoiceStatusPaid:
		return previous, nil
	default:
		return invoicedomain.Invoice{}, invoicedomain.ErrInvoiceNotPayable
	}

	updated := previous
	updated.Status = invoicedomain.InvoiceStatusPaid
	updated.UpdatedAt = s.clock.Now()
	if err := s.db.WithContext(ctx).Save(&updated).Error; err != nil {
		return invoicedomain.Invoice{}, err
	}

	s.publish(ctx, events.EventInvoicePaid, updated, &previous)
	return updated, nil
}

func (s *Service) Void(ctx context.Context, id snowflake.ID, reason string) (invoicedomain.Invoice, error) {
	previous, err := s.GetByID(ctx, id)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	if previous.Status == invoicedomain.InvoiceStatusVoid {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvoiceAlreadyVoid
	}

	updated := previous
	updated.Status = invoicedomain.InvoiceStatusVoid
	updated.UpdatedAt = s.clock.Now()
	if err := s.db.WithContext(ctx).Save(&updated).Error; err != nil {
		return invoicedomain.Invoice{}, err
	}

	s.log.Info("invoice voided",
		zap.Int64("invoice_id", int64(id)),
		zap.String("reason", reason),
	)
	s.publish(ctx, events.EventInvoiceVoided, updated, &previous)
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id snowflake.ID) error {
	previous, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(&invoicedomain.Invoice{}, "id = ?", id).Error; err != nil {
		return err
	}

	prevSnapshot := previous.Snapshot()
	s.publisher.Publish(ctx, events.InvoiceEvent{
		Type:            events.EventInvoiceDeleted,
		InvoiceID:       id,
		PreviousInvoice: &prevSnapshot,
		OccurredAt:      s.clock.Now(),
	})
	return nil
}

func (s *Service) publish(ctx context.Context, eventType string, current invoicedomain.Invoice, previous *invoicedomain.Invoice) {
	currSnapshot := current.Snapshot()
	ev := events.InvoiceEvent{
		Type:       eventType,
		InvoiceID:  current.ID,
		Invoice:    &currSnapshot,
		OccurredAt: s.clock.Now(),
	}
	if previous != nil {
		prevSnapshot := previous.Snapshot()
		ev.PreviousInvoice = &prevSnapshot
	}
	s.publisher.Publish(ctx, ev)
}
