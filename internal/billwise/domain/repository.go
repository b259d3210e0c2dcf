package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, bill *BillWiseDetail) error
	FindByVoucher(ctx context.Context, db *gorm.DB, tenantID, voucherID snowflake.ID) (*BillWiseDetail, error)

	// LockByIDs loads the requested bills under FOR UPDATE so concurrent
	// allocations against the same bill serialize. Must run inside a
	// transaction.
	LockByIDs(ctx context.Context, tx *gorm.DB, tenantID snowflake.ID, ids []snowflake.ID) ([]BillWiseDetail, error)

	ApplyAllocation(ctx context.Context, tx *gorm.DB, bill *BillWiseDetail) error
	InsertAllocation(ctx context.Context, tx *gorm.DB, alloc *BillAllocation) error
	AllocationCount(ctx context.Context, db *gorm.DB, tenantID, billID snowflake.ID) (int64, error)
	AllocationCountByPayment(ctx context.Context, db *gorm.DB, tenantID, paymentVoucherID snowflake.ID) (int64, error)
	DeleteByVoucher(ctx context.Context, tx *gorm.DB, tenantID, voucherID snowflake.ID) error

	ListOutstanding(ctx context.Context, db *gorm.DB, tenantID, ledgerID snowflake.ID, asOf time.Time) ([]BillWiseDetail, error)
}
