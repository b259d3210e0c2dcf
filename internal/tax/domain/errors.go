package domain

import "errors"

var (
	ErrInvalidHSNCode = errors.New("invalid_hsn_code")
	ErrInvalidTaxRate = errors.New("invalid_tax_rate")
)
