package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"

	auditdomain "github.com/lekhabooks/lekha/internal/audit/domain"
	einvoicedomain "github.com/lekhabooks/lekha/internal/einvoice/domain"
)

type attachEInvoiceRequest struct {
	IRN       string `json:"irn"`
	AckNumber string `json:"ack_number"`
	AckDate   string `json:"ack_date"`
	QRPayload string `json:"qr_payload"`
	Raw       string `json:"raw"`
}

func (s *Server) AttachEInvoice(c *gin.Context) {
	handle := tenantHandle(c)

	voucherID, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid voucher id"))
		return
	}

	var body attachEInvoiceRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	ackDate := time.Now().UTC()
	if body.AckDate != "" {
		ackDate, err = time.Parse(time.RFC3339, body.AckDate)
		if err != nil {
			AbortWithError(c, newValidationError("ack_date", "invalid_date", "ack_date must be RFC3339"))
			return
		}
	}

	ack := &einvoicedomain.Acknowledgment{
		TenantID:  handle.Tenant.ID,
		VoucherID: voucherID,
		IRN:       strings.TrimSpace(body.IRN),
		AckNumber: strings.TrimSpace(body.AckNumber),
		AckDate:   ackDate,
		QRPayload: body.QRPayload,
		Raw:       body.Raw,
	}
	if err := s.einvoice.Attach(c.Request.Context(), handle.DB, ack); err != nil {
		AbortWithError(c, err)
		return
	}

	s.recordAudit(c, auditdomain.Entry{
		Action:     "einvoice.attached",
		TargetType: "voucher",
		TargetID:   voucherID,
		Metadata:   map[string]any{"irn": ack.IRN},
	})
	c.JSON(http.StatusCreated, gin.H{"data": ack})
}

func (s *Server) GetEInvoice(c *gin.Context) {
	handle := tenantHandle(c)

	voucherID, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid voucher id"))
		return
	}

	ack, err := s.einvoice.Get(c.Request.Context(), handle.DB, handle.Tenant.ID, voucherID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": ack})
}
