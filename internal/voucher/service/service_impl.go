package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	accountdomain "github.com/lekhabooks/lekha/internal/account/domain"
	billdomain "github.com/lekhabooks/lekha/internal/billwise/domain"
	"github.com/lekhabooks/lekha/internal/config"
	"github.com/lekhabooks/lekha/internal/observability/metrics"
	"github.com/lekhabooks/lekha/internal/sequence"
	"github.com/lekhabooks/lekha/internal/tax/calc"
	taxdomain "github.com/lekhabooks/lekha/internal/tax/domain"
	"github.com/lekhabooks/lekha/internal/voucher/domain"
)

const voucherNumberPad = 3

type Params struct {
	fx.In

	Log      *zap.Logger
	Cfg      config.Config
	GenID    *snowflake.Node
	Repo     domain.Repository
	Accounts accountdomain.Repository
	Rates    taxdomain.Repository
	Bills    billdomain.Repository
	Seq      *sequence.Generator
	Metrics  *metrics.Metrics
}

type Service struct {
	log      *zap.Logger
	cfg      config.Config
	genID    *snowflake.Node
	repo     domain.Repository
	accounts accountdomain.Repository
	rates    taxdomain.Repository
	bills    billdomain.Repository
	seq      *sequence.Generator
	metrics  *metrics.Metrics
}

func NewService(p Params) domain.Service {
	return &Service{
		log:      p.Log.Named("voucher.service"),
		cfg:      p.Cfg,
		genID:    p.GenID,
		repo:     p.Repo,
		accounts: p.Accounts,
		rates:    p.Rates,
		bills:    p.Bills,
		seq:      p.Seq,
		metrics:  p.Metrics,
	}
}

// SaveDraft persists the header and raw lines without numbering, tax
// recomputation, or entry generation. Drafts are editable and reusable by a
// later Post.
func (s *Service) SaveDraft(ctx context.Context, dbh *gorm.DB, req domain.PostRequest) (*domain.Voucher, error) {
	if err := validatePost(req); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	voucher := &domain.Voucher{
		ID:            s.genID.Generate(),
		TenantID:      req.TenantID,
		Type:          req.Type,
		VoucherDate:   req.Date,
		Narration:     req.Narration,
		SupplierState: req.SupplierState,
		PlaceOfSupply: req.PlaceOfSupply,
		TotalAmount:   decimal.Zero,
		Status:        domain.StatusDraft,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if req.PartyLedgerID != 0 {
		partyID := req.PartyLedgerID
		voucher.PartyLedgerID = &partyID
	}

	total := decimal.Zero
	items := make([]domain.VoucherItem, 0, len(req.Items))
	for _, input := range req.Items {
		taxable := input.Quantity.Mul(input.Rate).Round(2)
		total = total.Add(taxable)
		items = append(items, domain.VoucherItem{
			ID:            s.genID.Generate(),
			TenantID:      req.TenantID,
			VoucherID:     voucher.ID,
			Description:   input.Description,
			HSNCode:       input.HSNCode,
			Quantity:      input.Quantity,
			Rate:          input.Rate,
			TaxableAmount: taxable,
			TotalAmount:   taxable,
			CreatedAt:     now,
		})
	}
	if req.Type.Settlement() {
		total = req.Amount
	}
	voucher.TotalAmount = total

	err := dbh.Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, voucher); err != nil {
			return err
		}
		for i := range items {
			if err := s.repo.InsertItem(ctx, tx, &items[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("voucher draft saved",
		zap.Int64("tenant_id", req.TenantID.Int64()),
		zap.String("type", string(req.Type)),
		zap.Int64("voucher_id", voucher.ID.Int64()),
	)
	return voucher, nil
}

// Post runs the posting pipeline: validation, party resolution, server-side
// tax recomputation, double-entry building, balance validation, then a
// serialized transaction that assigns the number and persists everything.
// A duplicate number from a concurrent posting retries the whole transaction.
func (s *Service) Post(ctx context.Context, dbh *gorm.DB, req domain.PostRequest) (*domain.Voucher, error) {
	start := time.Now()
	if err := validatePost(req); err != nil {
		return nil, err
	}

	var party *accountdomain.Ledger
	if req.PartyLedgerID != 0 {
		var err error
		party, err = s.accounts.FindLedgerByID(ctx, dbh, req.TenantID, req.PartyLedgerID)
		if err != nil {
			return nil, err
		}
		if party == nil {
			return nil, domain.ErrLedgerNotFound
		}
	}
	if req.CounterLedgerID != 0 {
		counter, err := s.accounts.FindLedgerByID(ctx, dbh, req.TenantID, req.CounterLedgerID)
		if err != nil {
			return nil, err
		}
		if counter == nil {
			return nil, domain.ErrLedgerNotFound
		}
	}

	placeOfSupply := req.PlaceOfSupply
	if placeOfSupply == "" && party != nil {
		placeOfSupply = party.State
	}

	var (
		lines  []taxedLine
		totals lineTotals
	)
	if req.Type.Trade() {
		var err error
		lines, err = s.computeLines(ctx, dbh, req, req.SupplierState, placeOfSupply)
		if err != nil {
			return nil, err
		}
		totals = sumLines(lines)
	}

	var tdsResult *calc.TDSResult
	if req.TDS != nil {
		base := req.Amount
		if req.Type == domain.TypePurchase {
			base = totals.gross
		}
		res, err := calc.TDS(base, req.TDS.Rate, req.Date)
		if err != nil {
			return nil, err
		}
		tdsResult = &res
	}

	var (
		entries []domain.VoucherLedgerEntry
		err     error
	)
	switch {
	case req.Type.Trade():
		entries, err = s.buildTradeEntries(ctx, dbh, req, totals, tdsResult)
	case req.Type.Settlement():
		entries, err = s.buildSettlementEntries(ctx, dbh, req, tdsResult)
	default:
		entries = buildExplicitEntries(req)
	}
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateBalanced(entries); err != nil {
		return nil, err
	}

	totalAmount := req.Amount
	if req.Type.Trade() {
		totalAmount = totals.gross
	} else if req.Type == domain.TypeJournal || req.Type == domain.TypeContra {
		totalAmount = decimal.Zero
		for _, e := range entries {
			totalAmount = totalAmount.Add(e.Debit)
		}
	}

	now := time.Now().UTC()
	voucher := &domain.Voucher{
		ID:            s.genID.Generate(),
		TenantID:      req.TenantID,
		Type:          req.Type,
		VoucherDate:   req.Date,
		Narration:     req.Narration,
		SupplierState: req.SupplierState,
		PlaceOfSupply: placeOfSupply,
		TotalAmount:   totalAmount,
		Status:        domain.StatusPosted,
		PostedBy:      req.Actor,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if req.PartyLedgerID != 0 {
		partyID := req.PartyLedgerID
		voucher.PartyLedgerID = &partyID
	}

	attempt := 0
	err = s.seq.RunSerialized(ctx, dbh, s.cfg.SequenceMaxAttempts, func(tx *gorm.DB) error {
		attempt++
		if attempt > 1 {
			s.metrics.SequenceConflicts.Inc()
		}

		fromDraft := req.DraftID != 0
		if fromDraft {
			draft, err := s.repo.FindByIDForUpdate(ctx, tx, req.TenantID, req.DraftID)
			if err != nil {
				return err
			}
			if draft == nil {
				return domain.ErrVoucherNotFound
			}
			if draft.Status != domain.StatusDraft {
				return domain.ErrNotDraft
			}
			voucher.ID = draft.ID
			voucher.CreatedAt = draft.CreatedAt
			if err := s.repo.DeleteItems(ctx, tx, req.TenantID, draft.ID); err != nil {
				return err
			}
		}

		number, err := s.seq.Next(ctx, tx, sequence.Request{
			TenantID: req.TenantID,
			Table:    "vouchers",
			Column:   "number",
			Prefix:   req.Type.Prefix(),
			Pad:      voucherNumberPad,
		})
		if err != nil {
			return err
		}
		postedAt := time.Now().UTC()
		voucher.Number = &number
		voucher.PostedAt = &postedAt
		voucher.UpdatedAt = postedAt

		if fromDraft {
			if err := s.repo.Update(ctx, tx, voucher); err != nil {
				return err
			}
		} else {
			if err := s.repo.Insert(ctx, tx, voucher); err != nil {
				return err
			}
		}

		for i := range lines {
			item := lines[i].item
			item.ID = s.genID.Generate()
			item.VoucherID = voucher.ID
			item.CreatedAt = postedAt
			if err := s.repo.InsertItem(ctx, tx, &item); err != nil {
				return err
			}
		}

		for i := range entries {
			entry := entries[i]
			entry.ID = s.genID.Generate()
			entry.TenantID = req.TenantID
			entry.VoucherID = voucher.ID
			entry.CreatedAt = postedAt
			if err := s.repo.InsertEntry(ctx, tx, &entry); err != nil {
				return err
			}
		}

		if tdsResult != nil {
			detail := &domain.TDSDetail{
				ID:            s.genID.Generate(),
				TenantID:      req.TenantID,
				VoucherID:     voucher.ID,
				LedgerID:      req.PartyLedgerID,
				Section:       req.TDS.Section,
				Rate:          req.TDS.Rate,
				GrossAmount:   tdsResult.TDSAmount.Add(tdsResult.NetAmount),
				TDSAmount:     tdsResult.TDSAmount,
				NetAmount:     tdsResult.NetAmount,
				Quarter:       tdsResult.Quarter,
				FinancialYear: tdsResult.FinancialYear,
				CreatedAt:     postedAt,
			}
			if err := s.repo.InsertTDS(ctx, tx, detail); err != nil {
				return err
			}
		}

		if req.Type.CreditBearing() && party != nil && party.BillWise {
			billAmount := totals.gross
			if tdsResult != nil && req.Type == domain.TypePurchase {
				billAmount = tdsResult.NetAmount
			}
			bill := &billdomain.BillWiseDetail{
				ID:            s.genID.Generate(),
				TenantID:      req.TenantID,
				VoucherID:     voucher.ID,
				LedgerID:      party.ID,
				BillNumber:    number,
				BillDate:      req.Date,
				BillAmount:    billAmount,
				PendingAmount: billAmount,
				DueDate:       req.Date.AddDate(0, 0, s.cfg.CreditPeriodDays),
				CreatedAt:     postedAt,
				UpdatedAt:     postedAt,
			}
			if err := s.bills.Insert(ctx, tx, bill); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.VouchersPosted.WithLabelValues(string(req.Type)).Inc()
	s.metrics.PostingDuration.Observe(time.Since(start).Seconds())
	s.log.Info("voucher posted",
		zap.Int64("tenant_id", req.TenantID.Int64()),
		zap.String("type", string(req.Type)),
		zap.Stringp("number", voucher.Number),
		zap.Int("attempts", attempt),
	)
	return voucher, nil
}

// Cancel transitions a voucher to cancelled. Drafts cancel directly. Posted
// vouchers follow the configured policy: disallow, or compensate with an
// auto-numbered reversing journal in the same transaction. The whole
// operation retries on a duplicate reversal number.
func (s *Service) Cancel(ctx context.Context, dbh *gorm.DB, req domain.CancelRequest) error {
	if req.TenantID == 0 {
		return domain.ErrInvalidTenant
	}

	var from domain.VoucherStatus
	err := s.seq.RunSerialized(ctx, dbh, s.cfg.SequenceMaxAttempts, func(tx *gorm.DB) error {
		voucher, err := s.repo.FindByIDForUpdate(ctx, tx, req.TenantID, req.VoucherID)
		if err != nil {
			return err
		}
		if voucher == nil {
			return domain.ErrVoucherNotFound
		}

		now := time.Now().UTC()
		from = voucher.Status
		switch voucher.Status {
		case domain.StatusDraft:
			ok, err := s.repo.MarkCancelled(ctx, tx, req.TenantID, voucher.ID, domain.StatusDraft, now, req.Actor)
			if err != nil {
				return err
			}
			if !ok {
				return domain.ErrInvalidTransition
			}
			return nil

		case domain.StatusPosted:
			if s.cfg.CancellationPolicy != config.CancelReverse {
				return domain.ErrCancelNotAllowed
			}
			return s.reverse(ctx, tx, voucher, now, req.Actor)

		default:
			return domain.ErrInvalidTransition
		}
	})
	if err != nil {
		return err
	}

	s.metrics.VouchersCancelled.WithLabelValues(string(from)).Inc()
	s.log.Info("voucher cancelled",
		zap.Int64("tenant_id", req.TenantID.Int64()),
		zap.Int64("voucher_id", req.VoucherID.Int64()),
		zap.String("from_status", string(from)),
	)
	return nil
}

// reverse cancels a posted voucher by writing a mirrored journal. A voucher
// tied to live allocations refuses cancellation, on either side of the
// settlement: a bill it opened that has absorbed allocations, or allocations
// it applied against other bills. An untouched bill is removed with its
// voucher.
func (s *Service) reverse(ctx context.Context, tx *gorm.DB, voucher *domain.Voucher, now time.Time, actor string) error {
	applied, err := s.bills.AllocationCountByPayment(ctx, tx, voucher.TenantID, voucher.ID)
	if err != nil {
		return err
	}
	if applied > 0 {
		return billdomain.ErrBillAllocated
	}

	bill, err := s.bills.FindByVoucher(ctx, tx, voucher.TenantID, voucher.ID)
	if err != nil {
		return err
	}
	if bill != nil {
		// re-read under FOR UPDATE so a concurrent allocation against this
		// bill cannot slip past the count
		locked, err := s.bills.LockByIDs(ctx, tx, voucher.TenantID, []snowflake.ID{bill.ID})
		if err != nil {
			return err
		}
		if len(locked) > 0 {
			count, err := s.bills.AllocationCount(ctx, tx, voucher.TenantID, bill.ID)
			if err != nil {
				return err
			}
			if count > 0 {
				return billdomain.ErrBillAllocated
			}
			if err := s.bills.DeleteByVoucher(ctx, tx, voucher.TenantID, voucher.ID); err != nil {
				return err
			}
		}
	}

	entries, err := s.repo.ListEntries(ctx, tx, voucher.TenantID, voucher.ID)
	if err != nil {
		return err
	}

	number, err := s.seq.Next(ctx, tx, sequence.Request{
		TenantID: voucher.TenantID,
		Table:    "vouchers",
		Column:   "number",
		Prefix:   domain.TypeJournal.Prefix(),
		Pad:      voucherNumberPad,
	})
	if err != nil {
		return err
	}

	originalID := voucher.ID
	reversal := &domain.Voucher{
		ID:           s.genID.Generate(),
		TenantID:     voucher.TenantID,
		Type:         domain.TypeJournal,
		Number:       &number,
		VoucherDate:  now,
		Narration:    "reversal of " + deref(voucher.Number),
		TotalAmount:  voucher.TotalAmount,
		Status:       domain.StatusPosted,
		PostedAt:     &now,
		PostedBy:     actor,
		ReversalOfID: &originalID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Insert(ctx, tx, reversal); err != nil {
		return err
	}

	for i, entry := range entries {
		mirrored := domain.VoucherLedgerEntry{
			ID:        s.genID.Generate(),
			TenantID:  voucher.TenantID,
			VoucherID: reversal.ID,
			LedgerID:  entry.LedgerID,
			Debit:     entry.Credit,
			Credit:    entry.Debit,
			Position:  i,
			CreatedAt: now,
		}
		if err := s.repo.InsertEntry(ctx, tx, &mirrored); err != nil {
			return err
		}
	}

	ok, err := s.repo.MarkCancelled(ctx, tx, voucher.TenantID, voucher.ID, domain.StatusPosted, now, actor)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrInvalidTransition
	}
	return nil
}

func (s *Service) Get(ctx context.Context, dbh *gorm.DB, tenantID, id snowflake.ID) (*domain.PostedVoucher, error) {
	voucher, err := s.repo.FindByID(ctx, dbh, tenantID, id)
	if err != nil {
		return nil, err
	}
	if voucher == nil {
		return nil, domain.ErrVoucherNotFound
	}

	items, err := s.repo.ListItems(ctx, dbh, tenantID, id)
	if err != nil {
		return nil, err
	}
	entries, err := s.repo.ListEntries(ctx, dbh, tenantID, id)
	if err != nil {
		return nil, err
	}
	tds, err := s.repo.ListTDS(ctx, dbh, tenantID, id)
	if err != nil {
		return nil, err
	}

	return &domain.PostedVoucher{
		Voucher: *voucher,
		Items:   items,
		Entries: entries,
		TDS:     tds,
	}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
