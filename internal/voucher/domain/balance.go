package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// BalanceTolerance absorbs statutory rounding drift between line-item tax
// amounts and the voucher total.
var BalanceTolerance = decimal.NewFromFloat(0.01)

// ValidateBalanced checks the double-entry invariant over a full entry set:
// every entry carries exactly one non-negative side, and total debits equal
// total credits within BalanceTolerance.
func ValidateBalanced(entries []VoucherLedgerEntry) error {
	if len(entries) < 2 {
		return ErrTooFewEntries
	}

	debit := decimal.Zero
	credit := decimal.Zero
	for i, entry := range entries {
		if entry.LedgerID == 0 {
			return fmt.Errorf("%w: entry %d", ErrEntryLedgerRequired, i)
		}
		if entry.Debit.IsNegative() || entry.Credit.IsNegative() {
			return fmt.Errorf("%w: entry %d", ErrNegativeEntryAmount, i)
		}
		debitSet := entry.Debit.IsPositive()
		creditSet := entry.Credit.IsPositive()
		if debitSet == creditSet {
			return fmt.Errorf("%w: entry %d", ErrEntrySideExclusive, i)
		}
		debit = debit.Add(entry.Debit)
		credit = credit.Add(entry.Credit)
	}

	if debit.Sub(credit).Abs().GreaterThan(BalanceTolerance) {
		return fmt.Errorf("%w: debit %s credit %s", ErrUnbalancedVoucher, debit, credit)
	}
	return nil
}
