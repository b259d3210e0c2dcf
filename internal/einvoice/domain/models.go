package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Acknowledgment stores a government e-invoice registration result verbatim
// against its voucher. One row per voucher; re-attaching replaces it.
type Acknowledgment struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	TenantID  snowflake.ID `gorm:"not null;index"`
	VoucherID snowflake.ID `gorm:"not null;uniqueIndex:ux_einvoice_acks_voucher"`
	IRN       string       `gorm:"type:text;not null"`
	AckNumber string       `gorm:"type:text;not null"`
	AckDate   time.Time    `gorm:"not null"`
	QRPayload string       `gorm:"type:text"`
	Raw       string       `gorm:"type:text"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Acknowledgment) TableName() string { return "einvoice_acknowledgments" }

// Issuer obtains acknowledgments from an external registration channel. The
// government protocol is implemented outside this core.
type Issuer interface {
	Issue(ctx context.Context, tenantID, voucherID snowflake.ID) (*Acknowledgment, error)
}

type Repository interface {
	Upsert(ctx context.Context, db *gorm.DB, ack *Acknowledgment) error
	FindByVoucher(ctx context.Context, db *gorm.DB, tenantID, voucherID snowflake.ID) (*Acknowledgment, error)
}

type Service interface {
	// Attach persists an acknowledgment for a posted voucher.
	Attach(ctx context.Context, db *gorm.DB, ack *Acknowledgment) error

	Get(ctx context.Context, db *gorm.DB, tenantID, voucherID snowflake.ID) (*Acknowledgment, error)
}
