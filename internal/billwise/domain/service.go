package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Service interface {
	// Allocate applies a batch of allocations from a posted payment/receipt
	// voucher. The batch is all-or-nothing: if any bill would over-allocate,
	// nothing is applied.
	Allocate(ctx context.Context, db *gorm.DB, req AllocateRequest) error

	Outstanding(ctx context.Context, db *gorm.DB, tenantID, ledgerID snowflake.ID, asOf time.Time) ([]OutstandingBill, error)
}

type AllocateRequest struct {
	TenantID         snowflake.ID
	PaymentVoucherID snowflake.ID
	Allocations      []AllocationInput
}

type AllocationInput struct {
	BillID snowflake.ID
	Amount decimal.Decimal
}
