package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type CreateInvoiceRequest struct {
	CustomerID    snowflake.ID
	Amount        int64
	Status        InvoiceStatus
	EffectiveDate time.Time
}

type UpdateInvoiceRequest struct {
	Amount        *int64
	EffectiveDate *time.Time
}

// Service is the invoice write path. Every mutation publishes a lifecycle
// event after the row has been committed; event delivery is best effort and
// never fails the invoice write.
type Service interface {
	GetByID(ctx context.Context, id snowflake.ID) (Invoice, error)
	Create(ctx context.Context, req CreateInvoiceRequest) (Invoice, error)
	Update(ctx context.Context, id snowflake.ID, req UpdateInvoiceRequest) (Invoice, error)
	Pay(ctx context.Context, id snowflake.ID) (Invoice, error)
	Void(ctx context.Context, id snowflake.ID, reason string) (Invoice, error)
	Delete(ctx context.Context, id snowflake.ID) error
}

var (
	ErrInvalidCustomer      = errors.New("invalid_customer")
	ErrInvalidAmount        = errors.New("invalid_amount")
	ErrInvalidStatus        = errors.New("invalid_status")
	ErrInvalidEffectiveDate = errors.New("invalid_effective_date")
	ErrInvoiceNotFound      = errors.New("invoice_not_found")
	ErrInvoiceNotPayable    = errors.New("invoice_not_payable")
	ErrInvoiceAlreadyVoid   = errors.New("invoice_already_void")
)
