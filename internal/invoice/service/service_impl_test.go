package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/smallbiznis/billora/internal/clock"
	"github.com/smallbiznis/billora/internal/events"
	invoicedomain "github.com/smallbiznis/billora/internal/invoice/domain"
)

type capturingPublisher struct {
	published []events.InvoiceEvent
}

func (p *capturingPublisher) Publish(ctx context.Context, ev events.InvoiceEvent) {
	p.published = append(p.published, ev)
}

func setupInvoiceTest(t *testing.T) (*Service, *capturingPublisher) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&invoicedomain.Invoice{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	publisher := &capturingPublisher{}
	svc := &Service{
		db:        db,
		log:       zap.NewNop(),
		genID:     node,
		clock:     clock.FixedClock{Instant: time.Date(2026, time.June, 15, 12, 0, 0, 0, time.UTC)},
		publisher: publisher,
	}
	return svc, publisher
}

func createTestInvoice(t *testing.T, svc *Service, status invoicedomain.InvoiceStatus, amount int64) invoicedomain.Invoice {
	t.Helper()
	invoice, err := svc.Create(context.Background(), invoicedomain.CreateInvoiceRequest{
		CustomerID:    42,
		Amount:        amount,
		Status:        status,
		EffectiveDate: time.Date(2026, time.May, 14, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return invoice
}

func TestCreatePublishesCreatedEvent(t *testing.T) {
	svc, publisher := setupInvoiceTest(t)

	invoice := createTestInvoice(t, svc, "", 1000)
	if invoice.Status != invoicedomain.InvoiceStatusPending {
		t.Fatalf("expected default pending, got %s", invoice.Status)
	}

	if len(publisher.published) != 1 {
		t.Fatalf("expected one event, got %d", len(publisher.published))
	}
	ev := publisher.published[0]
	if ev.Type != events.EventInvoiceCreated {
		t.Fatalf("expected invoice_created, got %s", ev.Type)
	}
	if ev.PreviousInvoice != nil {
		t.Fatalf("created event must carry no previous snapshot")
	}
	if ev.Invoice == nil || ev.Invoice.Amount != 1000 {
		t.Fatalf("unexpected snapshot %+v", ev.Invoice)
	}
}

func TestCreateValidation(t *testing.T) {
	svc, _ := setupInvoiceTest(t)
	ctx := context.Background()
	date := time.Date(2026, time.May, 14, 0, 0, 0, 0, time.UTC)

	_, err := svc.Create(ctx, invoicedomain.CreateInvoiceRequest{Amount: 100, EffectiveDate: date})
	if !errors.Is(err, invoicedomain.ErrInvalidCustomer) {
		t.Fatalf("expected ErrInvalidCustomer, got %v", err)
	}

	_, err = svc.Create(ctx, invoicedomain.CreateInvoiceRequest{CustomerID: 1, Amount: -5, EffectiveDate: date})
	if !errors.Is(err, invoicedomain.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}

	_, err = svc.Create(ctx, invoicedomain.CreateInvoiceRequest{CustomerID: 1, Amount: 100})
	if !errors.Is(err, invoicedomain.ErrInvalidEffectiveDate) {
		t.Fatalf("expected ErrInvalidEffectiveDate, got %v", err)
	}

	_, err = svc.Create(ctx, invoicedomain.CreateInvoiceRequest{CustomerID: 1, Amount: 100, Status: "refunded", EffectiveDate: date})
	if !errors.Is(err, invoicedomain.ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestPayPublishesBeforeAndAfterSnapshots(t *testing.T) {
	svc, publisher := setupInvoiceTest(t)
	invoice := createTestInvoice(t, svc, invoicedomain.InvoiceStatusPending, 1000)

	paid, err := svc.Pay(context.Background(), invoice.ID)
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	if paid.Status != invoicedomain.InvoiceStatusPaid {
		t.Fatalf("expected paid, got %s", paid.Status)
	}

	ev := publisher.published[len(publisher.published)-1]
	if ev.Type != events.EventInvoicePaid {
		t.Fatalf("expected invoice_paid, got %s", ev.Type)
	}
	if ev.PreviousInvoice == nil || ev.PreviousInvoice.Status != invoicedomain.InvoiceStatusPending {
		t.Fatalf("expected pending previous snapshot, got %+v", ev.PreviousInvoice)
	}
	if ev.Invoice == nil || ev.Invoice.Status != invoicedomain.InvoiceStatusPaid {
		t.Fatalf("expected paid current snapshot, got %+v", ev.Invoice)
	}
}

func TestPayIsIdempotentOnPaid(t *testing.T) {
	svc, publisher := setupInvoiceTest(t)
	invoice := createTestInvoice(t, svc, invoicedomain.InvoiceStatusPaid, 1000)
	before := len(publisher.published)

	paid, err := svc.Pay(context.Background(), invoice.ID)
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	if paid.Status != invoicedomain.InvoiceStatusPaid {
		t.Fatalf("expected paid, got %s", paid.Status)
	}
	if len(publisher.published) != before {
		t.Fatalf("paying a paid invoice must not publish")
	}
}

func TestPayVoidInvoiceRejected(t *testing.T) {
	svc, _ := setupInvoiceTest(t)
	invoice := createTestInvoice(t, svc, invoicedomain.InvoiceStatusPending, 1000)
	if _, err := svc.Void(context.Background(), invoice.ID, "dispute"); err != nil {
		t.Fatalf("void: %v", err)
	}

	_, err := svc.Pay(context.Background(), invoice.ID)
	if !errors.Is(err, invoicedomain.ErrInvoiceNotPayable) {
		t.Fatalf("expected ErrInvoiceNotPayable, got %v", err)
	}
}

func TestVoidTwiceRejected(t *testing.T) {
	svc, _ := setupInvoiceTest(t)
	invoice := createTestInvoice(t, svc, invoicedomain.InvoiceStatusPaid, 1000)

	if _, err := svc.Void(context.Background(), invoice.ID, "dispute"); err != nil {
		t.Fatalf("void: %v", err)
	}
	_, err := svc.Void(context.Background(), invoice.ID, "again")
	if !errors.Is(err, invoicedomain.ErrInvoiceAlreadyVoid) {
		t.Fatalf("expected ErrInvoiceAlreadyVoid, got %v", err)
	}
}

func TestDeletePublishesPreviousSnapshotOnly(t *testing.T) {
	svc, publisher := setupInvoiceTest(t)
	invoice := createTestInvoice(t, svc, invoicedomain.InvoiceStatusPaid, 1000)

	if err := svc.Delete(context.Background(), invoice.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	ev := publisher.published[len(publisher.published)-1]
	if ev.Type != events.EventInvoiceDeleted {
		t.Fatalf("expected invoice_deleted, got %s", ev.Type)
	}
	if ev.Invoice != nil {
		t.Fatalf("deleted event must carry no current snapshot")
	}
	if ev.PreviousInvoice == nil || ev.PreviousInvoice.Amount != 1000 {
		t.Fatalf("unexpected previous snapshot %+v", ev.PreviousInvoice)
	}

	_, err := svc.GetByID(context.Background(), invoice.ID)
	if !errors.Is(err, invoicedomain.ErrInvoiceNotFound) {
		t.Fatalf("expected ErrInvoiceNotFound, got %v", err)
	}
}

func TestGetByIDMissing(t *testing.T) {
	svc, _ := setupInvoiceTest(t)

	_, err := svc.GetByID(context.Background(), 999)
	if !errors.Is(err, invoicedomain.ErrInvoiceNotFound) {
		t.Fatalf("expected ErrInvoiceNotFound, got %v", err)
	}
}
