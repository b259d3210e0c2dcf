package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/lekhabooks/lekha/internal/voucher/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, tx *gorm.DB, v *domain.Voucher) error {
	return tx.WithContext(ctx).Exec(
		`INSERT INTO vouchers (
			id, tenant_id, type, number, voucher_date, narration, party_ledger_id,
			supplier_state, place_of_supply, total_amount, status,
			posted_at, posted_by, cancelled_at, cancelled_by, reversal_of_id,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.TenantID, v.Type, v.Number, v.VoucherDate, v.Narration, v.PartyLedgerID,
		v.SupplierState, v.PlaceOfSupply, v.TotalAmount, v.Status,
		v.PostedAt, v.PostedBy, v.CancelledAt, v.CancelledBy, v.ReversalOfID,
		v.CreatedAt, v.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, tx *gorm.DB, v *domain.Voucher) error {
	return tx.WithContext(ctx).Exec(
		`UPDATE vouchers SET
			number = ?, voucher_date = ?, narration = ?, party_ledger_id = ?,
			supplier_state = ?, place_of_supply = ?, total_amount = ?, status = ?,
			posted_at = ?, posted_by = ?, updated_at = ?
		 WHERE tenant_id = ? AND id = ?`,
		v.Number, v.VoucherDate, v.Narration, v.PartyLedgerID,
		v.SupplierState, v.PlaceOfSupply, v.TotalAmount, v.Status,
		v.PostedAt, v.PostedBy, v.UpdatedAt,
		v.TenantID, v.ID,
	).Error
}

const voucherColumns = `id, tenant_id, type, number, voucher_date, narration, party_ledger_id,
	supplier_state, place_of_supply, total_amount, status,
	posted_at, posted_by, cancelled_at, cancelled_by, reversal_of_id, created_at, updated_at`

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (*domain.Voucher, error) {
	var v domain.Voucher
	err := db.WithContext(ctx).Raw(
		`SELECT `+voucherColumns+` FROM vouchers WHERE tenant_id = ? AND id = ?`,
		tenantID, id,
	).Scan(&v).Error
	if err != nil {
		return nil, err
	}
	if v.ID == 0 {
		return nil, nil
	}
	return &v, nil
}

func (r *repo) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, tenantID, id snowflake.ID) (*domain.Voucher, error) {
	var v domain.Voucher
	err := tx.WithContext(ctx).Raw(
		`SELECT `+voucherColumns+` FROM vouchers WHERE tenant_id = ? AND id = ? FOR UPDATE`,
		tenantID, id,
	).Scan(&v).Error
	if err != nil {
		return nil, err
	}
	if v.ID == 0 {
		return nil, nil
	}
	return &v, nil
}

func (r *repo) InsertItem(ctx context.Context, tx *gorm.DB, item *domain.VoucherItem) error {
	return tx.WithContext(ctx).Exec(
		`INSERT INTO voucher_items (
			id, tenant_id, voucher_id, description, hsn_code,
			quantity, rate, taxable_amount, gst_rate, cess_rate,
			cgst_amount, sgst_amount, igst_amount, cess_amount, total_amount, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.TenantID, item.VoucherID, item.Description, item.HSNCode,
		item.Quantity, item.Rate, item.TaxableAmount, item.GSTRate, item.CessRate,
		item.CGSTAmount, item.SGSTAmount, item.IGSTAmount, item.CessAmount, item.TotalAmount, item.CreatedAt,
	).Error
}

func (r *repo) DeleteItems(ctx context.Context, tx *gorm.DB, tenantID, voucherID snowflake.ID) error {
	return tx.WithContext(ctx).Exec(
		`DELETE FROM voucher_items WHERE tenant_id = ? AND voucher_id = ?`,
		tenantID, voucherID,
	).Error
}

func (r *repo) ListItems(ctx context.Context, db *gorm.DB, tenantID, voucherID snowflake.ID) ([]domain.VoucherItem, error) {
	var items []domain.VoucherItem
	err := db.WithContext(ctx).Raw(
		`SELECT id, tenant_id, voucher_id, description, hsn_code,
		        quantity, rate, taxable_amount, gst_rate, cess_rate,
		        cgst_amount, sgst_amount, igst_amount, cess_amount, total_amount, created_at
		 FROM voucher_items WHERE tenant_id = ? AND voucher_id = ? ORDER BY id`,
		tenantID, voucherID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) InsertEntry(ctx context.Context, tx *gorm.DB, entry *domain.VoucherLedgerEntry) error {
	return tx.WithContext(ctx).Exec(
		`INSERT INTO voucher_ledger_entries (
			id, tenant_id, voucher_id, ledger_id, debit, credit, position, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.TenantID, entry.VoucherID, entry.LedgerID,
		entry.Debit, entry.Credit, entry.Position, entry.CreatedAt,
	).Error
}

func (r *repo) ListEntries(ctx context.Context, db *gorm.DB, tenantID, voucherID snowflake.ID) ([]domain.VoucherLedgerEntry, error) {
	var entries []domain.VoucherLedgerEntry
	err := db.WithContext(ctx).Raw(
		`SELECT id, tenant_id, voucher_id, ledger_id, debit, credit, position, created_at
		 FROM voucher_ledger_entries WHERE tenant_id = ? AND voucher_id = ? ORDER BY position`,
		tenantID, voucherID,
	).Scan(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repo) InsertTDS(ctx context.Context, tx *gorm.DB, detail *domain.TDSDetail) error {
	return tx.WithContext(ctx).Exec(
		`INSERT INTO tds_details (
			id, tenant_id, voucher_id, ledger_id, section, rate,
			gross_amount, tds_amount, net_amount, quarter, financial_year,
			certificate_issued, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		detail.ID, detail.TenantID, detail.VoucherID, detail.LedgerID, detail.Section, detail.Rate,
		detail.GrossAmount, detail.TDSAmount, detail.NetAmount, detail.Quarter, detail.FinancialYear,
		detail.CertificateIssued, detail.CreatedAt,
	).Error
}

func (r *repo) ListTDS(ctx context.Context, db *gorm.DB, tenantID, voucherID snowflake.ID) ([]domain.TDSDetail, error) {
	var details []domain.TDSDetail
	err := db.WithContext(ctx).Raw(
		`SELECT id, tenant_id, voucher_id, ledger_id, section, rate,
		        gross_amount, tds_amount, net_amount, quarter, financial_year,
		        certificate_issued, created_at
		 FROM tds_details WHERE tenant_id = ? AND voucher_id = ? ORDER BY id`,
		tenantID, voucherID,
	).Scan(&details).Error
	if err != nil {
		return nil, err
	}
	return details, nil
}

func (r *repo) MarkCancelled(ctx context.Context, tx *gorm.DB, tenantID, id snowflake.ID, from domain.VoucherStatus, at time.Time, by string) (bool, error) {
	result := tx.WithContext(ctx).Exec(
		`UPDATE vouchers
		 SET status = ?, cancelled_at = ?, cancelled_by = ?, updated_at = ?
		 WHERE tenant_id = ? AND id = ? AND status = ?`,
		domain.StatusCancelled, at, by, at,
		tenantID, id, from,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
