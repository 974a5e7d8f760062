// Package migration keeps the schema in sync at startup.
package migration

import (
	"errors"

	"gorm.io/gorm"

	invoicedomain "github.com/smallbiznis/billora/internal/invoice/domain"
	revenuedomain "github.com/smallbiznis/billora/internal/revenue/domain"
)

// RunMigrations creates or updates the tables the engine owns. The unique
// index on revenue_aggregates.period is part of the model definition; the
// engine's conflict handling depends on it existing.
func RunMigrations(db *gorm.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}
	return db.AutoMigrate(
		&invoicedomain.Invoice{},
		&revenuedomain.RevenueAggregate{},
		&revenuedomain.ProcessedEvent{},
	)
}
