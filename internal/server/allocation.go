package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	auditdomain "github.com/lekhabooks/lekha/internal/audit/domain"
	billdomain "github.com/lekhabooks/lekha/internal/billwise/domain"
)

type allocationInput struct {
	BillID string          `json:"bill_id"`
	Amount decimal.Decimal `json:"amount"`
}

type allocateRequest struct {
	PaymentVoucherID string            `json:"payment_voucher_id"`
	Allocations      []allocationInput `json:"allocations"`
}

func (s *Server) Allocate(c *gin.Context) {
	handle := tenantHandle(c)

	var body allocateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	voucherID, err := parseOptionalID(body.PaymentVoucherID)
	if err != nil {
		AbortWithError(c, newValidationError("payment_voucher_id", "invalid_id", "invalid payment_voucher_id"))
		return
	}

	req := billdomain.AllocateRequest{
		TenantID:         handle.Tenant.ID,
		PaymentVoucherID: voucherID,
	}
	for _, a := range body.Allocations {
		billID, err := parseOptionalID(a.BillID)
		if err != nil {
			AbortWithError(c, newValidationError("allocations", "invalid_id", "invalid bill_id"))
			return
		}
		req.Allocations = append(req.Allocations, billdomain.AllocationInput{
			BillID: billID,
			Amount: a.Amount,
		})
	}

	if err := s.bills.Allocate(c.Request.Context(), handle.DB, req); err != nil {
		AbortWithError(c, err)
		return
	}

	s.recordAudit(c, auditdomain.Entry{
		Action:     "bills.allocated",
		TargetType: "voucher",
		TargetID:   voucherID,
		Metadata:   map[string]any{"allocations": len(req.Allocations)},
	})
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"status": "allocated"}})
}

func (s *Server) Outstanding(c *gin.Context) {
	handle := tenantHandle(c)

	ledgerID, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid ledger id"))
		return
	}

	asOf := time.Now().UTC()
	if raw := c.Query("as_of"); raw != "" {
		asOf, err = time.Parse(dateLayout, raw)
		if err != nil {
			AbortWithError(c, newValidationError("as_of", "invalid_date", "as_of must be YYYY-MM-DD"))
			return
		}
	}

	bills, err := s.bills.Outstanding(c.Request.Context(), handle.DB, handle.Tenant.ID, ledgerID, asOf)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": bills})
}
