package domain

import "errors"

var (
	ErrInvalidTenant       = errors.New("invalid_tenant")
	ErrInvalidType         = errors.New("invalid_voucher_type")
	ErrInvalidDate         = errors.New("invalid_voucher_date")
	ErrInvalidAmount       = errors.New("invalid_amount")
	ErrPartyRequired       = errors.New("party_ledger_required")
	ErrCounterRequired     = errors.New("counter_ledger_required")
	ErrItemsRequired       = errors.New("line_items_required")
	ErrEntriesRequired     = errors.New("ledger_entries_required")
	ErrMissingLineData     = errors.New("missing_line_data")
	ErrLedgerNotFound      = errors.New("ledger_not_found")
	ErrSystemLedgerMissing = errors.New("system_ledger_missing")
	ErrVoucherNotFound     = errors.New("voucher_not_found")

	ErrUnbalancedVoucher   = errors.New("unbalanced_voucher")
	ErrTooFewEntries       = errors.New("too_few_entries")
	ErrEntryLedgerRequired = errors.New("entry_ledger_required")
	ErrNegativeEntryAmount = errors.New("negative_entry_amount")
	ErrEntrySideExclusive  = errors.New("entry_requires_exactly_one_side")

	ErrTDSNotApplicable = errors.New("tds_not_applicable")

	ErrInvalidTransition = errors.New("invalid_status_transition")
	ErrCancelNotAllowed  = errors.New("cancel_posted_not_allowed")
	ErrNotDraft          = errors.New("voucher_not_draft")
)
