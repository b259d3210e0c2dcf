package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Repository interface {
	InsertGroup(ctx context.Context, db *gorm.DB, group *AccountGroup) error
	ListGroups(ctx context.Context, db *gorm.DB, tenantID snowflake.ID) ([]AccountGroup, error)

	InsertLedger(ctx context.Context, db *gorm.DB, ledger *Ledger) error
	FindLedgerByID(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (*Ledger, error)
	FindLedgerByCode(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, code string) (*Ledger, error)

	// EntryTotals aggregates posted debit and credit sums for a ledger up to
	// and including asOf.
	EntryTotals(ctx context.Context, db *gorm.DB, tenantID, ledgerID snowflake.ID, asOf time.Time) (debit, credit decimal.Decimal, err error)
}
