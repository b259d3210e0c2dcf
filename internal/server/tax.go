package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/lekhabooks/lekha/internal/tax/calc"
)

type previewGSTRequest struct {
	TaxableAmount decimal.Decimal `json:"taxable_amount"`
	GSTRate       decimal.Decimal `json:"gst_rate"`
	CessRate      decimal.Decimal `json:"cess_rate"`
	SupplierState string          `json:"supplier_state"`
	PlaceOfSupply string          `json:"place_of_supply"`
}

func (s *Server) PreviewGST(c *gin.Context) {
	var body previewGSTRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	breakup, err := calc.GSTWithCess(body.TaxableAmount, body.GSTRate, body.CessRate, body.SupplierState, body.PlaceOfSupply)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"cgst":  breakup.CGST,
		"sgst":  breakup.SGST,
		"igst":  breakup.IGST,
		"cess":  breakup.Cess,
		"total": breakup.Total,
	}})
}

type previewTDSRequest struct {
	GrossAmount decimal.Decimal `json:"gross_amount"`
	Rate        decimal.Decimal `json:"rate"`
	PaidOn      string          `json:"paid_on"`
}

func (s *Server) PreviewTDS(c *gin.Context) {
	var body previewTDSRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	paidOn := time.Now().UTC()
	if body.PaidOn != "" {
		var err error
		paidOn, err = time.Parse(dateLayout, body.PaidOn)
		if err != nil {
			AbortWithError(c, newValidationError("paid_on", "invalid_date", "paid_on must be YYYY-MM-DD"))
			return
		}
	}

	result, err := calc.TDS(body.GrossAmount, body.Rate, paidOn)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"tds_amount":     result.TDSAmount,
		"net_amount":     result.NetAmount,
		"quarter":        result.Quarter,
		"financial_year": result.FinancialYear,
	}})
}
