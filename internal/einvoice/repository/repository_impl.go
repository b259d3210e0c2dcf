package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/lekhabooks/lekha/internal/einvoice/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Upsert(ctx context.Context, db *gorm.DB, ack *domain.Acknowledgment) error {
	result := db.WithContext(ctx).Exec(
		`UPDATE einvoice_acknowledgments
		 SET irn = ?, ack_number = ?, ack_date = ?, qr_payload = ?, raw = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE tenant_id = ? AND voucher_id = ?`,
		ack.IRN, ack.AckNumber, ack.AckDate, ack.QRPayload, ack.Raw,
		ack.TenantID, ack.VoucherID,
	)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}
	return db.WithContext(ctx).Exec(
		`INSERT INTO einvoice_acknowledgments (
			id, tenant_id, voucher_id, irn, ack_number, ack_date, qr_payload, raw,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`,
		ack.ID, ack.TenantID, ack.VoucherID, ack.IRN, ack.AckNumber, ack.AckDate, ack.QRPayload, ack.Raw,
	).Error
}

func (r *repo) FindByVoucher(ctx context.Context, db *gorm.DB, tenantID, voucherID snowflake.ID) (*domain.Acknowledgment, error) {
	var ack domain.Acknowledgment
	err := db.WithContext(ctx).Raw(
		`SELECT id, tenant_id, voucher_id, irn, ack_number, ack_date, qr_payload, raw, created_at, updated_at
		 FROM einvoice_acknowledgments WHERE tenant_id = ? AND voucher_id = ?`,
		tenantID, voucherID,
	).Scan(&ack).Error
	if err != nil {
		return nil, err
	}
	if ack.ID == 0 {
		return nil, nil
	}
	return &ack, nil
}
