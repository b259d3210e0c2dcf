package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Nature classifies an account group for reporting and balance math.
type Nature string

const (
	NatureAsset     Nature = "asset"
	NatureLiability Nature = "liability"
	NatureEquity    Nature = "equity"
	NatureIncome    Nature = "income"
	NatureExpense   Nature = "expense"
)

// BalanceSide marks which side an opening balance sits on.
type BalanceSide string

const (
	SideDebit  BalanceSide = "debit"
	SideCredit BalanceSide = "credit"
)

// System ledger codes the posting engine resolves by name. Seeded for every
// tenant at provisioning; do not rename once vouchers reference them.
type LedgerCode string

const (
	LedgerCodeCash      LedgerCode = "cash"
	LedgerCodeBank      LedgerCode = "bank"
	LedgerCodeSales     LedgerCode = "sales"
	LedgerCodePurchases LedgerCode = "purchases"

	LedgerCodeCGSTOutput LedgerCode = "cgst_output"
	LedgerCodeSGSTOutput LedgerCode = "sgst_output"
	LedgerCodeIGSTOutput LedgerCode = "igst_output"
	LedgerCodeCessOutput LedgerCode = "cess_output"

	LedgerCodeCGSTInput LedgerCode = "cgst_input"
	LedgerCodeSGSTInput LedgerCode = "sgst_input"
	LedgerCodeIGSTInput LedgerCode = "igst_input"
	LedgerCodeCessInput LedgerCode = "cess_input"

	LedgerCodeTDSPayable LedgerCode = "tds_payable"
	LedgerCodeRoundOff   LedgerCode = "round_off"
)

// AccountGroup is a node in the categorization forest. Parentage is an ID
// reference resolved through GroupTree, never a live object graph.
type AccountGroup struct {
	ID           snowflake.ID  `gorm:"primaryKey"`
	TenantID     snowflake.ID  `gorm:"not null;index;uniqueIndex:ux_account_groups_tenant_name,priority:1"`
	Name         string        `gorm:"type:text;not null;uniqueIndex:ux_account_groups_tenant_name,priority:2"`
	Nature       Nature        `gorm:"type:text;not null"`
	ParentID     *snowflake.ID `gorm:"index"`
	AffectsPL    bool          `gorm:"not null;default:false"`
	IsTaxRelated bool          `gorm:"not null;default:false"`
	CreatedAt    time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (AccountGroup) TableName() string { return "account_groups" }

func (g *AccountGroup) Validate() error {
	if g.TenantID == 0 {
		return ErrInvalidTenant
	}
	if g.Name == "" {
		return ErrInvalidName
	}
	switch g.Nature {
	case NatureAsset, NatureLiability, NatureEquity, NatureIncome, NatureExpense:
	default:
		return ErrInvalidNature
	}
	return nil
}

// Ledger is a named account. Running balance is derived from the opening
// balance plus aggregated posted entries, never stored.
type Ledger struct {
	ID             snowflake.ID    `gorm:"primaryKey"`
	TenantID       snowflake.ID    `gorm:"not null;index;uniqueIndex:ux_ledgers_tenant_code,priority:1"`
	Code           string          `gorm:"type:text;not null;uniqueIndex:ux_ledgers_tenant_code,priority:2"`
	Name           string          `gorm:"type:text;not null"`
	GroupID        snowflake.ID    `gorm:"not null;index"`
	OpeningBalance decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0"`
	OpeningSide    BalanceSide     `gorm:"type:text;not null;default:debit"`

	// GSTIN and State describe the party for jurisdiction decisions; empty
	// for non-party ledgers.
	GSTIN string `gorm:"type:text"`
	State string `gorm:"type:text"`

	// BillWise marks party ledgers whose credit vouchers are tracked as
	// outstanding bills.
	BillWise bool `gorm:"not null;default:false"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Ledger) TableName() string { return "ledgers" }

func (l *Ledger) Validate() error {
	if l.TenantID == 0 {
		return ErrInvalidTenant
	}
	if l.Name == "" {
		return ErrInvalidName
	}
	if l.GroupID == 0 {
		return ErrGroupRequired
	}
	switch l.OpeningSide {
	case SideDebit, SideCredit:
	default:
		return ErrInvalidSide
	}
	if l.OpeningBalance.IsNegative() {
		return ErrInvalidOpeningBalance
	}
	return nil
}

// Balance is a resolved running balance as of a date.
type Balance struct {
	LedgerID snowflake.ID
	AsOf     time.Time
	Amount   decimal.Decimal
	Side     BalanceSide
}
