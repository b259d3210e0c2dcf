package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Upsert(ctx context.Context, db *gorm.DB, rate *TaxRate) error
	// RateFor resolves the configured rate for an HSN/SAC code, falling back
	// to DefaultGSTRate (zero cess) when no row matches.
	RateFor(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, hsnCode string) (Rate, error)
}
