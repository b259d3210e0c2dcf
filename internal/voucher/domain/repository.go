package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, tx *gorm.DB, v *Voucher) error
	Update(ctx context.Context, tx *gorm.DB, v *Voucher) error
	FindByID(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (*Voucher, error)

	// FindByIDForUpdate locks the header row for a status transition. Must
	// run inside a transaction.
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, tenantID, id snowflake.ID) (*Voucher, error)

	InsertItem(ctx context.Context, tx *gorm.DB, item *VoucherItem) error
	DeleteItems(ctx context.Context, tx *gorm.DB, tenantID, voucherID snowflake.ID) error
	ListItems(ctx context.Context, db *gorm.DB, tenantID, voucherID snowflake.ID) ([]VoucherItem, error)

	InsertEntry(ctx context.Context, tx *gorm.DB, entry *VoucherLedgerEntry) error
	ListEntries(ctx context.Context, db *gorm.DB, tenantID, voucherID snowflake.ID) ([]VoucherLedgerEntry, error)

	InsertTDS(ctx context.Context, tx *gorm.DB, detail *TDSDetail) error
	ListTDS(ctx context.Context, db *gorm.DB, tenantID, voucherID snowflake.ID) ([]TDSDetail, error)

	// MarkCancelled flips status to cancelled only when the current status
	// still matches from; returns false when the guard misses.
	MarkCancelled(ctx context.Context, tx *gorm.DB, tenantID, id snowflake.ID, from VoucherStatus, at time.Time, by string) (bool, error)
}
