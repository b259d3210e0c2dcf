package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// BillWiseDetail is an individually tracked outstanding bill derived from a
// credit-bearing voucher against a party ledger. PendingAmount always equals
// BillAmount minus the sum of linked allocations and never goes negative.
type BillWiseDetail struct {
	ID            snowflake.ID    `gorm:"primaryKey"`
	TenantID      snowflake.ID    `gorm:"not null;index"`
	VoucherID     snowflake.ID    `gorm:"not null;uniqueIndex"`
	LedgerID      snowflake.ID    `gorm:"not null;index"`
	BillNumber    string          `gorm:"type:text;not null"`
	BillDate      time.Time       `gorm:"not null"`
	BillAmount    decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	PendingAmount decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	DueDate       time.Time       `gorm:"not null"`
	IsFullyPaid   bool            `gorm:"not null;default:false"`
	CreatedAt     time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt     time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (BillWiseDetail) TableName() string { return "bill_wise_details" }

// OverdueDays is derived at read time, never stored.
func (b *BillWiseDetail) OverdueDays(asOf time.Time) int {
	if !asOf.After(b.DueDate) {
		return 0
	}
	return int(asOf.Sub(b.DueDate).Hours() / 24)
}

// BillAllocation links a payment or receipt voucher to a bill.
type BillAllocation struct {
	ID               snowflake.ID    `gorm:"primaryKey"`
	TenantID         snowflake.ID    `gorm:"not null;index"`
	PaymentVoucherID snowflake.ID    `gorm:"not null;index"`
	BillID           snowflake.ID    `gorm:"not null;index"`
	Amount           decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	CreatedAt        time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (BillAllocation) TableName() string { return "bill_allocations" }

// OutstandingBill is the read-side shape for receivable/payable reporting.
type OutstandingBill struct {
	Bill        BillWiseDetail
	OverdueDays int
}
