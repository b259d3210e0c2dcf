package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/lekhabooks/lekha/internal/billwise/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const billColumns = `id, tenant_id, voucher_id, ledger_id, bill_number, bill_date,
	bill_amount, pending_amount, due_date, is_fully_paid, created_at, updated_at`

func (r *repo) Insert(ctx context.Context, db *gorm.DB, bill *domain.BillWiseDetail) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO bill_wise_details (
			id, tenant_id, voucher_id, ledger_id, bill_number, bill_date,
			bill_amount, pending_amount, due_date, is_fully_paid, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		bill.ID, bill.TenantID, bill.VoucherID, bill.LedgerID, bill.BillNumber, bill.BillDate,
		bill.BillAmount, bill.PendingAmount, bill.DueDate, bill.IsFullyPaid, bill.CreatedAt, bill.UpdatedAt,
	).Error
}

func (r *repo) FindByVoucher(ctx context.Context, db *gorm.DB, tenantID, voucherID snowflake.ID) (*domain.BillWiseDetail, error) {
	var bill domain.BillWiseDetail
	err := db.WithContext(ctx).Raw(
		`SELECT `+billColumns+` FROM bill_wise_details WHERE tenant_id = ? AND voucher_id = ?`,
		tenantID, voucherID,
	).Scan(&bill).Error
	if err != nil {
		return nil, err
	}
	if bill.ID == 0 {
		return nil, nil
	}
	return &bill, nil
}

func (r *repo) LockByIDs(ctx context.Context, tx *gorm.DB, tenantID snowflake.ID, ids []snowflake.ID) ([]domain.BillWiseDetail, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var bills []domain.BillWiseDetail
	err := tx.WithContext(ctx).Raw(
		`SELECT `+billColumns+` FROM bill_wise_details
		 WHERE tenant_id = ? AND id IN ?
		 ORDER BY id
		 FOR UPDATE`,
		tenantID, ids,
	).Scan(&bills).Error
	if err != nil {
		return nil, err
	}
	return bills, nil
}

func (r *repo) ApplyAllocation(ctx context.Context, tx *gorm.DB, bill *domain.BillWiseDetail) error {
	return tx.WithContext(ctx).Exec(
		`UPDATE bill_wise_details
		 SET pending_amount = ?, is_fully_paid = ?, updated_at = ?
		 WHERE tenant_id = ? AND id = ?`,
		bill.PendingAmount, bill.IsFullyPaid, bill.UpdatedAt,
		bill.TenantID, bill.ID,
	).Error
}

func (r *repo) InsertAllocation(ctx context.Context, tx *gorm.DB, alloc *domain.BillAllocation) error {
	return tx.WithContext(ctx).Exec(
		`INSERT INTO bill_allocations (
			id, tenant_id, payment_voucher_id, bill_id, amount, created_at
		) VALUES (?, ?, ?, ?, ?, ?)`,
		alloc.ID, alloc.TenantID, alloc.PaymentVoucherID, alloc.BillID, alloc.Amount, alloc.CreatedAt,
	).Error
}

func (r *repo) AllocationCount(ctx context.Context, db *gorm.DB, tenantID, billID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(*) FROM bill_allocations WHERE tenant_id = ? AND bill_id = ?`,
		tenantID, billID,
	).Scan(&count).Error
	return count, err
}

func (r *repo) AllocationCountByPayment(ctx context.Context, db *gorm.DB, tenantID, paymentVoucherID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(*) FROM bill_allocations WHERE tenant_id = ? AND payment_voucher_id = ?`,
		tenantID, paymentVoucherID,
	).Scan(&count).Error
	return count, err
}

func (r *repo) DeleteByVoucher(ctx context.Context, tx *gorm.DB, tenantID, voucherID snowflake.ID) error {
	return tx.WithContext(ctx).Exec(
		`DELETE FROM bill_wise_details WHERE tenant_id = ? AND voucher_id = ?`,
		tenantID, voucherID,
	).Error
}

func (r *repo) ListOutstanding(ctx context.Context, db *gorm.DB, tenantID, ledgerID snowflake.ID, asOf time.Time) ([]domain.BillWiseDetail, error) {
	var bills []domain.BillWiseDetail
	err := db.WithContext(ctx).Raw(
		`SELECT `+billColumns+` FROM bill_wise_details
		 WHERE tenant_id = ? AND ledger_id = ? AND is_fully_paid = ? AND bill_date <= ?
		 ORDER BY due_date, id`,
		tenantID, ledgerID, false, asOf,
	).Scan(&bills).Error
	if err != nil {
		return nil, err
	}
	return bills, nil
}
