package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/lekhabooks/lekha/internal/tenant/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const tenantColumns = `id, slug, name, status, db_name, provisioned, created_at, updated_at`

func (r *repo) Insert(ctx context.Context, db *gorm.DB, tenant *domain.Tenant) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO tenants (id, slug, name, status, db_name, provisioned, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		tenant.ID, tenant.Slug, tenant.Name, tenant.Status, tenant.DBName,
		tenant.Provisioned, tenant.CreatedAt, tenant.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Tenant, error) {
	var tenant domain.Tenant
	err := db.WithContext(ctx).Raw(
		`SELECT `+tenantColumns+` FROM tenants WHERE id = ?`, id,
	).Scan(&tenant).Error
	if err != nil {
		return nil, err
	}
	if tenant.ID == 0 {
		return nil, nil
	}
	return &tenant, nil
}

func (r *repo) FindBySlug(ctx context.Context, db *gorm.DB, slug string) (*domain.Tenant, error) {
	var tenant domain.Tenant
	err := db.WithContext(ctx).Raw(
		`SELECT `+tenantColumns+` FROM tenants WHERE slug = ?`, slug,
	).Scan(&tenant).Error
	if err != nil {
		return nil, err
	}
	if tenant.ID == 0 {
		return nil, nil
	}
	return &tenant, nil
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status domain.TenantStatus) error {
	return db.WithContext(ctx).Exec(
		`UPDATE tenants SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		status, id,
	).Error
}

func (r *repo) MarkProvisioned(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`UPDATE tenants SET provisioned = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		true, id,
	).Error
}
