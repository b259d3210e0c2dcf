package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/lekhabooks/lekha/internal/account/domain"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertGroup(ctx context.Context, db *gorm.DB, group *domain.AccountGroup) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO account_groups (id, tenant_id, name, nature, parent_id, affects_pl, is_tax_related, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		group.ID,
		group.TenantID,
		group.Name,
		group.Nature,
		group.ParentID,
		group.AffectsPL,
		group.IsTaxRelated,
		group.CreatedAt,
		group.UpdatedAt,
	).Error
}

func (r *repo) ListGroups(ctx context.Context, db *gorm.DB, tenantID snowflake.ID) ([]domain.AccountGroup, error) {
	var groups []domain.AccountGroup
	err := db.WithContext(ctx).Raw(
		`SELECT id, tenant_id, name, nature, parent_id, affects_pl, is_tax_related, created_at, updated_at
		 FROM account_groups WHERE tenant_id = ? ORDER BY id`,
		tenantID,
	).Scan(&groups).Error
	if err != nil {
		return nil, err
	}
	return groups, nil
}

func (r *repo) InsertLedger(ctx context.Context, db *gorm.DB, ledger *domain.Ledger) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO ledgers (id, tenant_id, code, name, group_id, opening_balance, opening_side,
		                      gstin, state, bill_wise, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ledger.ID,
		ledger.TenantID,
		ledger.Code,
		ledger.Name,
		ledger.GroupID,
		ledger.OpeningBalance,
		ledger.OpeningSide,
		ledger.GSTIN,
		ledger.State,
		ledger.BillWise,
		ledger.CreatedAt,
		ledger.UpdatedAt,
	).Error
}

func (r *repo) FindLedgerByID(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (*domain.Ledger, error) {
	var ledger domain.Ledger
	err := db.WithContext(ctx).Raw(
		`SELECT id, tenant_id, code, name, group_id, opening_balance, opening_side,
		        gstin, state, bill_wise, created_at, updated_at
		 FROM ledgers WHERE tenant_id = ? AND id = ?`,
		tenantID,
		id,
	).Scan(&ledger).Error
	if err != nil {
		return nil, err
	}
	if ledger.ID == 0 {
		return nil, nil
	}
	return &ledger, nil
}

func (r *repo) FindLedgerByCode(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, code string) (*domain.Ledger, error) {
	var ledger domain.Ledger
	err := db.WithContext(ctx).Raw(
		`SELECT id, tenant_id, code, name, group_id, opening_balance, opening_side,
		        gstin, state, bill_wise, created_at, updated_at
		 FROM ledgers WHERE tenant_id = ? AND code = ?`,
		tenantID,
		code,
	).Scan(&ledger).Error
	if err != nil {
		return nil, err
	}
	if ledger.ID == 0 {
		return nil, nil
	}
	return &ledger, nil
}

type totalsRow struct {
	Debit  decimal.Decimal
	Credit decimal.Decimal
}

func (r *repo) EntryTotals(ctx context.Context, db *gorm.DB, tenantID, ledgerID snowflake.ID, asOf time.Time) (decimal.Decimal, decimal.Decimal, error) {
	var row totalsRow
	err := db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(e.debit), 0) AS debit, COALESCE(SUM(e.credit), 0) AS credit
		 FROM voucher_ledger_entries e
		 JOIN vouchers v ON v.id = e.voucher_id
		 WHERE e.tenant_id = ? AND e.ledger_id = ? AND v.status = 'posted' AND v.voucher_date <= ?`,
		tenantID,
		ledgerID,
		asOf,
	).Scan(&row).Error
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return row.Debit, row.Credit, nil
}
