package domain

import "errors"

var (
	ErrBillNotFound      = errors.New("bill_not_found")
	ErrOverAllocation    = errors.New("over_allocation")
	ErrEmptyBatch        = errors.New("empty_allocation_batch")
	ErrInvalidAmount     = errors.New("invalid_allocation_amount")
	ErrVoucherNotFound   = errors.New("payment_voucher_not_found")
	ErrVoucherNotPosted  = errors.New("payment_voucher_not_posted")
	ErrNotPaymentVoucher = errors.New("not_a_payment_voucher")
	ErrBillAllocated     = errors.New("bill_has_allocations")
)
