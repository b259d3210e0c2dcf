package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// VoucherType classifies a transaction and carries its numbering prefix.
type VoucherType string

const (
	TypeSale       VoucherType = "sale"
	TypePurchase   VoucherType = "purchase"
	TypeReceipt    VoucherType = "receipt"
	TypePayment    VoucherType = "payment"
	TypeJournal    VoucherType = "journal"
	TypeContra     VoucherType = "contra"
	TypeCreditNote VoucherType = "credit_note"
	TypeDebitNote  VoucherType = "debit_note"
)

var typePrefixes = map[VoucherType]string{
	TypeSale:       "SAL",
	TypePurchase:   "PUR",
	TypeReceipt:    "RCT",
	TypePayment:    "PAY",
	TypeJournal:    "JRN",
	TypeContra:     "CTR",
	TypeCreditNote: "CRN",
	TypeDebitNote:  "DBN",
}

// Prefix returns the voucher-number prefix for the type.
func (t VoucherType) Prefix() string {
	return typePrefixes[t]
}

// Valid reports whether t is a known voucher type.
func (t VoucherType) Valid() bool {
	_, ok := typePrefixes[t]
	return ok
}

// Trade vouchers carry line items and compute GST.
func (t VoucherType) Trade() bool {
	switch t {
	case TypeSale, TypePurchase, TypeCreditNote, TypeDebitNote:
		return true
	}
	return false
}

// CreditBearing vouchers against a bill-wise party ledger open a
// BillWiseDetail when posted.
func (t VoucherType) CreditBearing() bool {
	return t.Trade()
}

// Settlement vouchers move money against a party and may allocate bills.
func (t VoucherType) Settlement() bool {
	return t == TypeReceipt || t == TypePayment
}

// VoucherStatus is the lifecycle state. Transitions are monotonic:
// draft -> posted -> cancelled, or draft -> cancelled; never backward.
type VoucherStatus string

const (
	StatusDraft     VoucherStatus = "draft"
	StatusPosted    VoucherStatus = "posted"
	StatusCancelled VoucherStatus = "cancelled"
)

// Voucher is a transaction header. The number is assigned at posting.
type Voucher struct {
	ID       snowflake.ID `gorm:"primaryKey"`
	TenantID snowflake.ID `gorm:"not null;index;uniqueIndex:ux_vouchers_tenant_number,priority:1"`
	Type     VoucherType  `gorm:"type:text;not null"`
	// Number is NULL until posted so the tenant+number unique index ignores
	// drafts.
	Number        *string       `gorm:"type:text;uniqueIndex:ux_vouchers_tenant_number,priority:2"`
	VoucherDate   time.Time     `gorm:"column:voucher_date;not null"`
	Narration     string        `gorm:"type:text"`
	PartyLedgerID *snowflake.ID `gorm:"index"`
	SupplierState string        `gorm:"type:text"`
	PlaceOfSupply string        `gorm:"type:text"`

	TotalAmount decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0"`
	Status      VoucherStatus   `gorm:"type:text;not null;default:draft;index"`

	PostedAt    *time.Time
	PostedBy    string `gorm:"type:text"`
	CancelledAt *time.Time
	CancelledBy string `gorm:"type:text"`

	// ReversalOfID links an auto-generated reversing journal back to the
	// cancelled voucher it compensates.
	ReversalOfID *snowflake.ID `gorm:"index"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Voucher) TableName() string { return "vouchers" }

// VoucherItem is a goods/service line. Tax amounts are always recomputed
// server-side at posting; client-supplied values are never trusted.
type VoucherItem struct {
	ID          snowflake.ID `gorm:"primaryKey"`
	TenantID    snowflake.ID `gorm:"not null;index"`
	VoucherID   snowflake.ID `gorm:"not null;index"`
	Description string       `gorm:"type:text;not null"`
	HSNCode     string       `gorm:"type:text"`

	Quantity      decimal.Decimal `gorm:"type:numeric(20,3);not null"`
	Rate          decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	TaxableAmount decimal.Decimal `gorm:"type:numeric(20,2);not null"`

	GSTRate    decimal.Decimal `gorm:"type:numeric(6,2);not null"`
	CessRate   decimal.Decimal `gorm:"type:numeric(6,2);not null"`
	CGSTAmount decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	SGSTAmount decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	IGSTAmount decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	CessAmount decimal.Decimal `gorm:"type:numeric(20,2);not null"`

	TotalAmount decimal.Decimal `gorm:"type:numeric(20,2);not null"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (VoucherItem) TableName() string { return "voucher_items" }

// VoucherLedgerEntry is one side of a double-entry posting. Exactly one of
// Debit/Credit is non-zero; both are non-negative.
type VoucherLedgerEntry struct {
	ID        snowflake.ID    `gorm:"primaryKey"`
	TenantID  snowflake.ID    `gorm:"not null;index"`
	VoucherID snowflake.ID    `gorm:"not null;index"`
	LedgerID  snowflake.ID    `gorm:"not null;index"`
	Debit     decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0"`
	Credit    decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0"`
	Position  int             `gorm:"not null"`
	CreatedAt time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (VoucherLedgerEntry) TableName() string { return "voucher_ledger_entries" }

// TDSDetail records a tax-deducted-at-source split for statutory returns.
type TDSDetail struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	TenantID  snowflake.ID `gorm:"not null;index"`
	VoucherID snowflake.ID `gorm:"not null;index"`
	LedgerID  snowflake.ID `gorm:"not null;index"`

	Section string          `gorm:"type:text;not null"`
	Rate    decimal.Decimal `gorm:"type:numeric(6,2);not null"`

	GrossAmount decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	TDSAmount   decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	NetAmount   decimal.Decimal `gorm:"type:numeric(20,2);not null"`

	Quarter           string `gorm:"type:text;not null"`
	FinancialYear     string `gorm:"type:text;not null"`
	CertificateIssued bool   `gorm:"not null;default:false"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (TDSDetail) TableName() string { return "tds_details" }
