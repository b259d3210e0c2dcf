package calc

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidJurisdiction = errors.New("invalid_jurisdiction")
	ErrInvalidRate         = errors.New("invalid_rate")
	ErrInvalidAmount       = errors.New("invalid_amount")
)

var (
	oneHundred = decimal.NewFromInt(100)
	twoHundred = decimal.NewFromInt(200)
)

// Breakup carries every GST component for a single taxable amount.
// Non-applicable components are zero: intrastate supplies fill CGST/SGST,
// interstate supplies fill IGST.
type Breakup struct {
	CGST  decimal.Decimal
	SGST  decimal.Decimal
	IGST  decimal.Decimal
	Cess  decimal.Decimal
	Total decimal.Decimal
}

// TDSResult is a computed tax-deducted-at-source split, bucketed for
// statutory return aggregation.
type TDSResult struct {
	TDSAmount     decimal.Decimal
	NetAmount     decimal.Decimal
	Quarter       string
	FinancialYear string
}

// GST computes the statutory split for a taxable amount. Interstate vs
// intrastate is decided by comparing the two state values directly, not by
// any lookup table. Intrastate applies half the rate as CGST and half as
// SGST, both on the full base; interstate applies the full rate as IGST.
// All amounts round half-up to two decimals.
func GST(taxable, ratePct decimal.Decimal, supplierState, placeOfSupply string) (Breakup, error) {
	supplier := normalizeState(supplierState)
	supply := normalizeState(placeOfSupply)
	if supplier == "" || supply == "" {
		return Breakup{}, fmt.Errorf("%w: supplier=%q place_of_supply=%q", ErrInvalidJurisdiction, supplierState, placeOfSupply)
	}
	if ratePct.IsNegative() {
		return Breakup{}, fmt.Errorf("%w: gst rate %s", ErrInvalidRate, ratePct)
	}
	if taxable.IsNegative() {
		return Breakup{}, fmt.Errorf("%w: taxable %s", ErrInvalidAmount, taxable)
	}

	var out Breakup
	if supplier == supply {
		half := round2(taxable.Mul(ratePct).Div(twoHundred))
		out.CGST = half
		out.SGST = half
	} else {
		out.IGST = round2(taxable.Mul(ratePct).Div(oneHundred))
	}
	out.Cess = decimal.Zero
	out.Total = out.CGST.Add(out.SGST).Add(out.IGST)
	return out, nil
}

// GSTWithCess delegates to GST and applies an independent cess percentage
// on the same taxable base.
func GSTWithCess(taxable, ratePct, cessPct decimal.Decimal, supplierState, placeOfSupply string) (Breakup, error) {
	out, err := GST(taxable, ratePct, supplierState, placeOfSupply)
	if err != nil {
		return Breakup{}, err
	}
	if cessPct.IsNegative() {
		return Breakup{}, fmt.Errorf("%w: cess rate %s", ErrInvalidRate, cessPct)
	}
	out.Cess = round2(taxable.Mul(cessPct).Div(oneHundred))
	out.Total = out.Total.Add(out.Cess)
	return out, nil
}

// TDS computes the deduction split for a gross amount at a section rate,
// tagged with the quarter and financial-year bucket of the payment date.
func TDS(gross, sectionRatePct decimal.Decimal, paidOn time.Time) (TDSResult, error) {
	if sectionRatePct.IsNegative() {
		return TDSResult{}, fmt.Errorf("%w: tds rate %s", ErrInvalidRate, sectionRatePct)
	}
	if gross.IsNegative() {
		return TDSResult{}, fmt.Errorf("%w: gross %s", ErrInvalidAmount, gross)
	}

	tds := round2(gross.Mul(sectionRatePct).Div(oneHundred))
	return TDSResult{
		TDSAmount:     tds,
		NetAmount:     gross.Sub(tds),
		Quarter:       Quarter(paidOn),
		FinancialYear: FinancialYear(paidOn),
	}, nil
}

// Quarter returns the statutory quarter (Q1..Q4) of the Indian financial
// year, which runs April through March.
func Quarter(t time.Time) string {
	switch t.Month() {
	case time.April, time.May, time.June:
		return "Q1"
	case time.July, time.August, time.September:
		return "Q2"
	case time.October, time.November, time.December:
		return "Q3"
	default:
		return "Q4"
	}
}

// FinancialYear formats the Indian financial year of t, e.g. "2025-26" for
// any date from 2025-04-01 through 2026-03-31.
func FinancialYear(t time.Time) string {
	start := t.Year()
	if t.Month() < time.April {
		start--
	}
	return fmt.Sprintf("%d-%02d", start, (start+1)%100)
}

// round2 rounds half-up to two decimal places.
func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

func normalizeState(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
