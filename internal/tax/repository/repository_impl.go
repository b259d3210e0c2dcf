package repository

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/lekhabooks/lekha/internal/tax/domain"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Upsert(ctx context.Context, db *gorm.DB, rate *domain.TaxRate) error {
	if err := rate.Validate(); err != nil {
		return err
	}
	result := db.WithContext(ctx).Exec(
		`UPDATE tax_rates SET gst_rate = ?, cess_rate = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE tenant_id = ? AND hsn_code = ?`,
		rate.GSTRate,
		rate.CessRate,
		rate.TenantID,
		rate.HSNCode,
	)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}
	return db.WithContext(ctx).Exec(
		`INSERT INTO tax_rates (id, tenant_id, hsn_code, gst_rate, cess_rate, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`,
		rate.ID,
		rate.TenantID,
		rate.HSNCode,
		rate.GSTRate,
		rate.CessRate,
	).Error
}

func (r *repo) RateFor(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, hsnCode string) (domain.Rate, error) {
	hsnCode = strings.TrimSpace(hsnCode)
	if hsnCode == "" {
		return domain.Rate{GSTRate: domain.DefaultGSTRate, CessRate: decimal.Zero}, nil
	}

	var row domain.TaxRate
	err := db.WithContext(ctx).Raw(
		`SELECT id, tenant_id, hsn_code, gst_rate, cess_rate
		 FROM tax_rates WHERE tenant_id = ? AND hsn_code = ?`,
		tenantID,
		hsnCode,
	).Scan(&row).Error
	if err != nil {
		return domain.Rate{}, err
	}
	if row.ID == 0 {
		return domain.Rate{GSTRate: domain.DefaultGSTRate, CessRate: decimal.Zero}, nil
	}
	return domain.Rate{GSTRate: row.GSTRate, CessRate: row.CessRate}, nil
}
