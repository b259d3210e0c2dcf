package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/lekhabooks/lekha/internal/billwise/domain"
	"github.com/lekhabooks/lekha/internal/observability/metrics"
	voucherdomain "github.com/lekhabooks/lekha/internal/voucher/domain"
)

type Params struct {
	fx.In

	Log      *zap.Logger
	GenID    *snowflake.Node
	Repo     domain.Repository
	Vouchers voucherdomain.Repository
	Metrics  *metrics.Metrics
}

type Service struct {
	log      *zap.Logger
	genID    *snowflake.Node
	repo     domain.Repository
	vouchers voucherdomain.Repository
	metrics  *metrics.Metrics
}

func NewService(p Params) domain.Service {
	return &Service{
		log:      p.Log.Named("billwise.service"),
		genID:    p.GenID,
		repo:     p.Repo,
		vouchers: p.Vouchers,
		metrics:  p.Metrics,
	}
}

// Allocate applies a batch of allocations against outstanding bills. Bills
// are locked and the whole batch is validated against pending amounts before
// any write: a single over-allocation rejects everything.
func (s *Service) Allocate(ctx context.Context, dbh *gorm.DB, req domain.AllocateRequest) error {
	if len(req.Allocations) == 0 {
		return domain.ErrEmptyBatch
	}

	// amounts per bill are summed up front so a batch naming the same bill
	// twice is validated against the combined total
	perBill := make(map[snowflake.ID]domain.AllocationInput, len(req.Allocations))
	ids := make([]snowflake.ID, 0, len(req.Allocations))
	for _, input := range req.Allocations {
		if !input.Amount.IsPositive() {
			return fmt.Errorf("%w: bill %d", domain.ErrInvalidAmount, input.BillID.Int64())
		}
		existing, ok := perBill[input.BillID]
		if ok {
			existing.Amount = existing.Amount.Add(input.Amount)
			perBill[input.BillID] = existing
			continue
		}
		perBill[input.BillID] = input
		ids = append(ids, input.BillID)
	}

	voucher, err := s.vouchers.FindByID(ctx, dbh, req.TenantID, req.PaymentVoucherID)
	if err != nil {
		return err
	}
	if voucher == nil {
		return domain.ErrVoucherNotFound
	}
	if !voucher.Type.Settlement() {
		return domain.ErrNotPaymentVoucher
	}
	if voucher.Status != voucherdomain.StatusPosted {
		return domain.ErrVoucherNotPosted
	}

	err = dbh.Transaction(func(tx *gorm.DB) error {
		bills, err := s.repo.LockByIDs(ctx, tx, req.TenantID, ids)
		if err != nil {
			return err
		}
		if len(bills) != len(ids) {
			return domain.ErrBillNotFound
		}

		now := time.Now().UTC()
		for i := range bills {
			bill := &bills[i]
			amount := perBill[bill.ID].Amount
			if amount.GreaterThan(bill.PendingAmount) {
				return fmt.Errorf("%w: bill %s pending %s requested %s",
					domain.ErrOverAllocation, bill.BillNumber, bill.PendingAmount, amount)
			}
			bill.PendingAmount = bill.PendingAmount.Sub(amount)
			bill.IsFullyPaid = bill.PendingAmount.IsZero()
			bill.UpdatedAt = now
		}

		for i := range bills {
			bill := &bills[i]
			if err := s.repo.ApplyAllocation(ctx, tx, bill); err != nil {
				return err
			}
			alloc := &domain.BillAllocation{
				ID:               s.genID.Generate(),
				TenantID:         req.TenantID,
				PaymentVoucherID: req.PaymentVoucherID,
				BillID:           bill.ID,
				Amount:           perBill[bill.ID].Amount,
				CreatedAt:        now,
			}
			if err := s.repo.InsertAllocation(ctx, tx, alloc); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrOverAllocation) {
			s.metrics.AllocationsRejected.Inc()
		}
		return err
	}

	s.metrics.AllocationsApplied.Inc()
	s.log.Info("allocations applied",
		zap.Int64("tenant_id", req.TenantID.Int64()),
		zap.Int64("payment_voucher_id", req.PaymentVoucherID.Int64()),
		zap.Int("bills", len(ids)),
	)
	return nil
}

// Outstanding lists unpaid bills for a party ledger with overdue ageing
// derived as of the given date.
func (s *Service) Outstanding(ctx context.Context, dbh *gorm.DB, tenantID, ledgerID snowflake.ID, asOf time.Time) ([]domain.OutstandingBill, error) {
	bills, err := s.repo.ListOutstanding(ctx, dbh, tenantID, ledgerID, asOf)
	if err != nil {
		return nil, err
	}

	out := make([]domain.OutstandingBill, 0, len(bills))
	for _, bill := range bills {
		out = append(out, domain.OutstandingBill{
			Bill:        bill,
			OverdueDays: bill.OverdueDays(asOf),
		})
	}
	return out, nil
}
