// Package seed bootstraps demo data for local development.
package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	invoicedomain "github.com/smallbiznis/billora/internal/invoice/domain"
)

// EnsureDemoInvoices inserts a small spread of invoices across recent
// months when the table is empty. Aggregates are not seeded; the first
// recalculation builds them from this ground truth.
func EnsureDemoInvoices(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&invoicedomain.Invoice{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		now := time.Now().UTC()
		customerID := node.Generate()
		demo := []invoicedomain.Invoice{
			{Amount: 125_00, Status: invoicedomain.InvoiceStatusPaid, EffectiveDate: now.AddDate(0, -1, 0)},
			{Amount: 89_50, Status: invoicedomain.InvoiceStatusPaid, EffectiveDate: now.AddDate(0, -2, 0)},
			{Amount: 230_00, Status: invoicedomain.InvoiceStatusPending, EffectiveDate: now.AddDate(0, -1, 0)},
			{Amount: 45_00, Status: invoicedomain.InvoiceStatusPaid, EffectiveDate: now},
		}
		for i := range demo {
			demo[i].ID = node.Generate()
			demo[i].CustomerID = customerID
			demo[i].CreatedAt = now
			demo[i].UpdatedAt = now
		}
		return tx.Create(&demo).Error
	})
}
