package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Service interface {
	// SaveDraft persists a draft header and items without numbering,
	// taxing, or entry generation.
	SaveDraft(ctx context.Context, db *gorm.DB, req PostRequest) (*Voucher, error)

	// Post runs the full pipeline: server-side tax recomputation, entry
	// building, balance validation, numbering, and atomic persistence.
	// When req.DraftID is set the stored draft is consumed instead of
	// inserting a new header.
	Post(ctx context.Context, db *gorm.DB, req PostRequest) (*Voucher, error)

	Cancel(ctx context.Context, db *gorm.DB, req CancelRequest) error

	Get(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (*PostedVoucher, error)
}

// PostRequest is a voucher draft. Tax amounts on items are intentionally
// absent: they are always recomputed from rates and jurisdiction.
type PostRequest struct {
	TenantID snowflake.ID
	DraftID  snowflake.ID
	Type     VoucherType
	Date     time.Time
	Narration string

	// PartyLedgerID names the customer/supplier ledger for trade and
	// settlement vouchers.
	PartyLedgerID snowflake.ID
	// CounterLedgerID names the cash/bank ledger for receipt, payment and
	// contra vouchers.
	CounterLedgerID snowflake.ID

	SupplierState string
	PlaceOfSupply string

	// Amount is the settlement amount for receipt/payment/contra vouchers.
	Amount decimal.Decimal

	Items []ItemInput
	// Entries supplies explicit lines for journal and contra vouchers.
	Entries []EntryInput

	TDS *TDSInput

	Actor string
}

type ItemInput struct {
	Description string
	HSNCode     string
	Quantity    decimal.Decimal
	Rate        decimal.Decimal
	// GSTRate/CessRate override the configured rate table when set.
	GSTRate  *decimal.Decimal
	CessRate *decimal.Decimal
}

type EntryInput struct {
	LedgerID snowflake.ID
	Debit    decimal.Decimal
	Credit   decimal.Decimal
}

type TDSInput struct {
	Section string
	Rate    decimal.Decimal
}

type CancelRequest struct {
	TenantID  snowflake.ID
	VoucherID snowflake.ID
	Actor     string
}

// PostedVoucher is the persisted shape handed to downstream reporting
// collaborators: header, ordered entries, items, and companion records.
type PostedVoucher struct {
	Voucher Voucher
	Items   []VoucherItem
	Entries []VoucherLedgerEntry
	TDS     []TDSDetail
}
