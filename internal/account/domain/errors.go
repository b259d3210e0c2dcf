package domain

import "errors"

var (
	ErrInvalidTenant         = errors.New("invalid_tenant")
	ErrInvalidName           = errors.New("invalid_name")
	ErrInvalidNature         = errors.New("invalid_nature")
	ErrInvalidSide           = errors.New("invalid_balance_side")
	ErrInvalidOpeningBalance = errors.New("invalid_opening_balance")
	ErrGroupRequired         = errors.New("account_group_required")
	ErrGroupNotFound         = errors.New("account_group_not_found")
	ErrLedgerNotFound        = errors.New("ledger_not_found")
	ErrParentNotFound        = errors.New("parent_group_not_found")
	ErrGroupCycle            = errors.New("account_group_cycle")
	ErrDuplicateGroup        = errors.New("duplicate_account_group")
	ErrDuplicateLedger       = errors.New("duplicate_ledger_code")
)
