package service

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	accountdomain "github.com/lekhabooks/lekha/internal/account/domain"
	"github.com/lekhabooks/lekha/internal/tax/calc"
	"github.com/lekhabooks/lekha/internal/voucher/domain"
)

func validatePost(req domain.PostRequest) error {
	if req.TenantID == 0 {
		return domain.ErrInvalidTenant
	}
	if !req.Type.Valid() {
		return domain.ErrInvalidType
	}
	if req.Date.IsZero() {
		return domain.ErrInvalidDate
	}

	switch {
	case req.Type.Trade():
		if req.PartyLedgerID == 0 {
			return domain.ErrPartyRequired
		}
		if len(req.Items) == 0 {
			return domain.ErrItemsRequired
		}
		for i, item := range req.Items {
			if item.Description == "" || !item.Quantity.IsPositive() || item.Rate.IsNegative() {
				return fmt.Errorf("%w: item %d", domain.ErrMissingLineData, i)
			}
		}
	case req.Type.Settlement():
		if req.PartyLedgerID == 0 {
			return domain.ErrPartyRequired
		}
		if req.CounterLedgerID == 0 {
			return domain.ErrCounterRequired
		}
		if !req.Amount.IsPositive() {
			return domain.ErrInvalidAmount
		}
	default: // journal, contra
		if len(req.Entries) < 2 {
			return domain.ErrEntriesRequired
		}
	}

	if req.TDS != nil && req.Type != domain.TypePurchase && req.Type != domain.TypePayment {
		return domain.ErrTDSNotApplicable
	}
	return nil
}

// taxedLine is a computed item plus its per-line GST breakup.
type taxedLine struct {
	item    domain.VoucherItem
	breakup calc.Breakup
}

// computeLines recomputes taxable and tax amounts for every line from the
// configured rate table and jurisdiction. Client-supplied tax amounts never
// survive this step.
func (s *Service) computeLines(ctx context.Context, dbh *gorm.DB, req domain.PostRequest, supplierState, placeOfSupply string) ([]taxedLine, error) {
	lines := make([]taxedLine, 0, len(req.Items))
	for _, input := range req.Items {
		taxable := input.Quantity.Mul(input.Rate).Round(2)

		var gstRate, cessRate decimal.Decimal
		if input.GSTRate != nil {
			gstRate = *input.GSTRate
			if input.CessRate != nil {
				cessRate = *input.CessRate
			}
		} else {
			rate, err := s.rates.RateFor(ctx, dbh, req.TenantID, input.HSNCode)
			if err != nil {
				return nil, err
			}
			gstRate = rate.GSTRate
			cessRate = rate.CessRate
		}

		breakup, err := calc.GSTWithCess(taxable, gstRate, cessRate, supplierState, placeOfSupply)
		if err != nil {
			return nil, err
		}

		lines = append(lines, taxedLine{
			item: domain.VoucherItem{
				TenantID:      req.TenantID,
				Description:   input.Description,
				HSNCode:       input.HSNCode,
				Quantity:      input.Quantity,
				Rate:          input.Rate,
				TaxableAmount: taxable,
				GSTRate:       gstRate,
				CessRate:      cessRate,
				CGSTAmount:    breakup.CGST,
				SGSTAmount:    breakup.SGST,
				IGSTAmount:    breakup.IGST,
				CessAmount:    breakup.Cess,
				TotalAmount:   taxable.Add(breakup.Total),
			},
			breakup: breakup,
		})
	}
	return lines, nil
}

// lineTotals aggregates voucher-level sums from computed lines.
type lineTotals struct {
	taxable decimal.Decimal
	cgst    decimal.Decimal
	sgst    decimal.Decimal
	igst    decimal.Decimal
	cess    decimal.Decimal
	gross   decimal.Decimal
}

func sumLines(lines []taxedLine) lineTotals {
	t := lineTotals{
		taxable: decimal.Zero, cgst: decimal.Zero, sgst: decimal.Zero,
		igst: decimal.Zero, cess: decimal.Zero, gross: decimal.Zero,
	}
	for _, l := range lines {
		t.taxable = t.taxable.Add(l.item.TaxableAmount)
		t.cgst = t.cgst.Add(l.item.CGSTAmount)
		t.sgst = t.sgst.Add(l.item.SGSTAmount)
		t.igst = t.igst.Add(l.item.IGSTAmount)
		t.cess = t.cess.Add(l.item.CessAmount)
		t.gross = t.gross.Add(l.item.TotalAmount)
	}
	return t
}

func (s *Service) systemLedger(ctx context.Context, dbh *gorm.DB, tenantID snowflake.ID, code accountdomain.LedgerCode) (snowflake.ID, error) {
	ledger, err := s.accounts.FindLedgerByCode(ctx, dbh, tenantID, string(code))
	if err != nil {
		return 0, err
	}
	if ledger == nil {
		return 0, fmt.Errorf("%w: %s", domain.ErrSystemLedgerMissing, code)
	}
	return ledger.ID, nil
}

// entryBuilder accumulates ordered double-entry lines. Zero amounts are
// skipped so non-applicable tax components never produce empty entries.
type entryBuilder struct {
	entries []domain.VoucherLedgerEntry
}

func (b *entryBuilder) debitEntry(ledgerID snowflake.ID, amount decimal.Decimal) {
	if amount.IsZero() {
		return
	}
	b.entries = append(b.entries, domain.VoucherLedgerEntry{
		LedgerID: ledgerID,
		Debit:    amount,
		Credit:   decimal.Zero,
		Position: len(b.entries),
	})
}

func (b *entryBuilder) creditEntry(ledgerID snowflake.ID, amount decimal.Decimal) {
	if amount.IsZero() {
		return
	}
	b.entries = append(b.entries, domain.VoucherLedgerEntry{
		LedgerID: ledgerID,
		Debit:    decimal.Zero,
		Credit:   amount,
		Position: len(b.entries),
	})
}

// buildTradeEntries produces the double-entry set for sale, purchase and the
// two note types. A note mirrors the sides of the voucher it corrects.
func (s *Service) buildTradeEntries(ctx context.Context, dbh *gorm.DB, req domain.PostRequest, totals lineTotals, tds *calc.TDSResult) ([]domain.VoucherLedgerEntry, error) {
	b := &entryBuilder{}

	switch req.Type {
	case domain.TypeSale, domain.TypeCreditNote:
		salesID, err := s.systemLedger(ctx, dbh, req.TenantID, accountdomain.LedgerCodeSales)
		if err != nil {
			return nil, err
		}
		taxIDs, err := s.outputTaxLedgers(ctx, dbh, req.TenantID, totals)
		if err != nil {
			return nil, err
		}
		if req.Type == domain.TypeSale {
			b.debitEntry(req.PartyLedgerID, totals.gross)
			b.creditEntry(salesID, totals.taxable)
			b.creditEntry(taxIDs.cgst, totals.cgst)
			b.creditEntry(taxIDs.sgst, totals.sgst)
			b.creditEntry(taxIDs.igst, totals.igst)
			b.creditEntry(taxIDs.cess, totals.cess)
		} else {
			b.creditEntry(req.PartyLedgerID, totals.gross)
			b.debitEntry(salesID, totals.taxable)
			b.debitEntry(taxIDs.cgst, totals.cgst)
			b.debitEntry(taxIDs.sgst, totals.sgst)
			b.debitEntry(taxIDs.igst, totals.igst)
			b.debitEntry(taxIDs.cess, totals.cess)
		}

	case domain.TypePurchase, domain.TypeDebitNote:
		purchasesID, err := s.systemLedger(ctx, dbh, req.TenantID, accountdomain.LedgerCodePurchases)
		if err != nil {
			return nil, err
		}
		taxIDs, err := s.inputTaxLedgers(ctx, dbh, req.TenantID, totals)
		if err != nil {
			return nil, err
		}
		if req.Type == domain.TypePurchase {
			b.debitEntry(purchasesID, totals.taxable)
			b.debitEntry(taxIDs.cgst, totals.cgst)
			b.debitEntry(taxIDs.sgst, totals.sgst)
			b.debitEntry(taxIDs.igst, totals.igst)
			b.debitEntry(taxIDs.cess, totals.cess)
			if tds != nil {
				tdsID, err := s.systemLedger(ctx, dbh, req.TenantID, accountdomain.LedgerCodeTDSPayable)
				if err != nil {
					return nil, err
				}
				b.creditEntry(req.PartyLedgerID, tds.NetAmount)
				b.creditEntry(tdsID, tds.TDSAmount)
			} else {
				b.creditEntry(req.PartyLedgerID, totals.gross)
			}
		} else {
			b.creditEntry(purchasesID, totals.taxable)
			b.creditEntry(taxIDs.cgst, totals.cgst)
			b.creditEntry(taxIDs.sgst, totals.sgst)
			b.creditEntry(taxIDs.igst, totals.igst)
			b.creditEntry(taxIDs.cess, totals.cess)
			b.debitEntry(req.PartyLedgerID, totals.gross)
		}
	}

	return b.entries, nil
}

// buildSettlementEntries produces the two-line set for receipts and payments.
// A payment carrying TDS splits the credit between the counter ledger and the
// statutory payable.
func (s *Service) buildSettlementEntries(ctx context.Context, dbh *gorm.DB, req domain.PostRequest, tds *calc.TDSResult) ([]domain.VoucherLedgerEntry, error) {
	b := &entryBuilder{}

	switch req.Type {
	case domain.TypeReceipt:
		b.debitEntry(req.CounterLedgerID, req.Amount)
		b.creditEntry(req.PartyLedgerID, req.Amount)
	case domain.TypePayment:
		b.debitEntry(req.PartyLedgerID, req.Amount)
		if tds != nil {
			tdsID, err := s.systemLedger(ctx, dbh, req.TenantID, accountdomain.LedgerCodeTDSPayable)
			if err != nil {
				return nil, err
			}
			b.creditEntry(req.CounterLedgerID, tds.NetAmount)
			b.creditEntry(tdsID, tds.TDSAmount)
		} else {
			b.creditEntry(req.CounterLedgerID, req.Amount)
		}
	}

	return b.entries, nil
}

// buildExplicitEntries maps caller-supplied lines for journal and contra
// vouchers, preserving order.
func buildExplicitEntries(req domain.PostRequest) []domain.VoucherLedgerEntry {
	entries := make([]domain.VoucherLedgerEntry, 0, len(req.Entries))
	for i, input := range req.Entries {
		entries = append(entries, domain.VoucherLedgerEntry{
			LedgerID: input.LedgerID,
			Debit:    input.Debit,
			Credit:   input.Credit,
			Position: i,
		})
	}
	return entries
}

type taxLedgerIDs struct {
	cgst snowflake.ID
	sgst snowflake.ID
	igst snowflake.ID
	cess snowflake.ID
}

// outputTaxLedgers resolves only the ledgers the totals actually touch, so a
// tenant missing an unused cess ledger still posts.
func (s *Service) outputTaxLedgers(ctx context.Context, dbh *gorm.DB, tenantID snowflake.ID, totals lineTotals) (taxLedgerIDs, error) {
	return s.taxLedgers(ctx, dbh, tenantID, totals,
		accountdomain.LedgerCodeCGSTOutput,
		accountdomain.LedgerCodeSGSTOutput,
		accountdomain.LedgerCodeIGSTOutput,
		accountdomain.LedgerCodeCessOutput,
	)
}

func (s *Service) inputTaxLedgers(ctx context.Context, dbh *gorm.DB, tenantID snowflake.ID, totals lineTotals) (taxLedgerIDs, error) {
	return s.taxLedgers(ctx, dbh, tenantID, totals,
		accountdomain.LedgerCodeCGSTInput,
		accountdomain.LedgerCodeSGSTInput,
		accountdomain.LedgerCodeIGSTInput,
		accountdomain.LedgerCodeCessInput,
	)
}

func (s *Service) taxLedgers(ctx context.Context, dbh *gorm.DB, tenantID snowflake.ID, totals lineTotals, cgst, sgst, igst, cess accountdomain.LedgerCode) (taxLedgerIDs, error) {
	var ids taxLedgerIDs
	var err error
	if totals.cgst.IsPositive() {
		if ids.cgst, err = s.systemLedger(ctx, dbh, tenantID, cgst); err != nil {
			return ids, err
		}
	}
	if totals.sgst.IsPositive() {
		if ids.sgst, err = s.systemLedger(ctx, dbh, tenantID, sgst); err != nil {
			return ids, err
		}
	}
	if totals.igst.IsPositive() {
		if ids.igst, err = s.systemLedger(ctx, dbh, tenantID, igst); err != nil {
			return ids, err
		}
	}
	if totals.cess.IsPositive() {
		if ids.cess, err = s.systemLedger(ctx, dbh, tenantID, cess); err != nil {
			return ids, err
		}
	}
	return ids, nil
}
