package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// DefaultGSTRate applies when a classification code has no configured row.
var DefaultGSTRate = decimal.NewFromInt(18)

// TaxRate maps an HSN/SAC classification code to its GST and cess rates.
// Rows are configuration data, seeded at provisioning and optionally
// refreshed from an external lookup service outside this core.
type TaxRate struct {
	ID        snowflake.ID    `gorm:"primaryKey"`
	TenantID  snowflake.ID    `gorm:"not null;index;uniqueIndex:ux_tax_rates_tenant_hsn,priority:1"`
	HSNCode   string          `gorm:"type:text;not null;uniqueIndex:ux_tax_rates_tenant_hsn,priority:2"`
	GSTRate   decimal.Decimal `gorm:"type:numeric(6,2);not null"`
	CessRate  decimal.Decimal `gorm:"type:numeric(6,2);not null"`
	CreatedAt time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (TaxRate) TableName() string { return "tax_rates" }

// Rate is the resolved pair handed to the posting engine.
type Rate struct {
	GSTRate  decimal.Decimal
	CessRate decimal.Decimal
}

func (t *TaxRate) Validate() error {
	if t.HSNCode == "" {
		return ErrInvalidHSNCode
	}
	if t.GSTRate.IsNegative() || t.CessRate.IsNegative() {
		return ErrInvalidTaxRate
	}
	return nil
}
