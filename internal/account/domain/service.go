package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Service interface {
	CreateGroup(ctx context.Context, db *gorm.DB, req CreateGroupRequest) (*AccountGroup, error)
	Tree(ctx context.Context, db *gorm.DB, tenantID snowflake.ID) (*GroupTree, error)

	CreateLedger(ctx context.Context, db *gorm.DB, req CreateLedgerRequest) (*Ledger, error)
	Balance(ctx context.Context, db *gorm.DB, tenantID, ledgerID snowflake.ID, asOf time.Time) (*Balance, error)
}

type CreateGroupRequest struct {
	TenantID     snowflake.ID
	Name         string
	Nature       Nature
	ParentID     *snowflake.ID
	AffectsPL    bool
	IsTaxRelated bool
}

type CreateLedgerRequest struct {
	TenantID       snowflake.ID
	Code           string // assigned from the ledger sequence when empty
	Name           string
	GroupID        snowflake.ID
	OpeningBalance decimal.Decimal
	OpeningSide    BalanceSide
	GSTIN          string
	State          string
	BillWise       bool
}
