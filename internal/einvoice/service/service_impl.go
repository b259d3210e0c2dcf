package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/lekhabooks/lekha/internal/einvoice/domain"
	voucherdomain "github.com/lekhabooks/lekha/internal/voucher/domain"
)

type Params struct {
	fx.In

	Log      *zap.Logger
	GenID    *snowflake.Node
	Repo     domain.Repository
	Vouchers voucherdomain.Repository
}

type Service struct {
	log      *zap.Logger
	genID    *snowflake.Node
	repo     domain.Repository
	vouchers voucherdomain.Repository
}

func NewService(p Params) domain.Service {
	return &Service{
		log:      p.Log.Named("einvoice.service"),
		genID:    p.GenID,
		repo:     p.Repo,
		vouchers: p.Vouchers,
	}
}

// Attach records an acknowledgment against its voucher. Only posted vouchers
// carry registrations; a repeat attach replaces the stored row.
func (s *Service) Attach(ctx context.Context, dbh *gorm.DB, ack *domain.Acknowledgment) error {
	if ack.IRN == "" {
		return domain.ErrMissingIRN
	}

	voucher, err := s.vouchers.FindByID(ctx, dbh, ack.TenantID, ack.VoucherID)
	if err != nil {
		return err
	}
	if voucher == nil {
		return domain.ErrVoucherNotFound
	}
	if voucher.Status != voucherdomain.StatusPosted {
		return domain.ErrVoucherNotPosted
	}

	if ack.ID == 0 {
		ack.ID = s.genID.Generate()
	}
	if err := s.repo.Upsert(ctx, dbh, ack); err != nil {
		return err
	}

	s.log.Info("e-invoice acknowledgment attached",
		zap.Int64("tenant_id", ack.TenantID.Int64()),
		zap.Int64("voucher_id", ack.VoucherID.Int64()),
		zap.String("irn", ack.IRN),
	)
	return nil
}

func (s *Service) Get(ctx context.Context, dbh *gorm.DB, tenantID, voucherID snowflake.ID) (*domain.Acknowledgment, error) {
	ack, err := s.repo.FindByVoucher(ctx, dbh, tenantID, voucherID)
	if err != nil {
		return nil, err
	}
	if ack == nil {
		return nil, domain.ErrAckNotFound
	}
	return ack, nil
}
