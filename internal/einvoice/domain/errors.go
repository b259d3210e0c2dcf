package domain

import "errors"

var (
	ErrVoucherNotFound  = errors.New("voucher_not_found")
	ErrVoucherNotPosted = errors.New("voucher_not_posted")
	ErrMissingIRN       = errors.New("missing_irn")
	ErrAckNotFound      = errors.New("acknowledgment_not_found")
)
