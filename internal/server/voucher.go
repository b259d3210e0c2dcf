package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	auditdomain "github.com/lekhabooks/lekha/internal/audit/domain"
	voucherdomain "github.com/lekhabooks/lekha/internal/voucher/domain"
)

const dateLayout = "2006-01-02"

type voucherItemRequest struct {
	Description string           `json:"description"`
	HSNCode     string           `json:"hsn_code"`
	Quantity    decimal.Decimal  `json:"quantity"`
	Rate        decimal.Decimal  `json:"rate"`
	GSTRate     *decimal.Decimal `json:"gst_rate"`
	CessRate    *decimal.Decimal `json:"cess_rate"`
}

type voucherEntryRequest struct {
	LedgerID string          `json:"ledger_id"`
	Debit    decimal.Decimal `json:"debit"`
	Credit   decimal.Decimal `json:"credit"`
}

type voucherTDSRequest struct {
	Section string          `json:"section"`
	Rate    decimal.Decimal `json:"rate"`
}

type postVoucherRequest struct {
	Type            string                `json:"type"`
	Date            string                `json:"date"`
	DraftID         string                `json:"draft_id"`
	Narration       string                `json:"narration"`
	PartyLedgerID   string                `json:"party_ledger_id"`
	CounterLedgerID string                `json:"counter_ledger_id"`
	SupplierState   string                `json:"supplier_state"`
	PlaceOfSupply   string                `json:"place_of_supply"`
	Amount          decimal.Decimal       `json:"amount"`
	Items           []voucherItemRequest  `json:"items"`
	Entries         []voucherEntryRequest `json:"entries"`
	TDS             *voucherTDSRequest    `json:"tds"`
	Actor           string                `json:"actor"`
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func parseOptionalID(raw string) (snowflake.ID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	return snowflake.ParseString(raw)
}

func (r postVoucherRequest) toDomain(tenantID snowflake.ID) (voucherdomain.PostRequest, error) {
	req := voucherdomain.PostRequest{
		TenantID:      tenantID,
		Type:          voucherdomain.VoucherType(strings.TrimSpace(r.Type)),
		Narration:     strings.TrimSpace(r.Narration),
		SupplierState: strings.TrimSpace(r.SupplierState),
		PlaceOfSupply: strings.TrimSpace(r.PlaceOfSupply),
		Amount:        r.Amount,
		Actor:         strings.TrimSpace(r.Actor),
	}

	if r.Date != "" {
		date, err := time.Parse(dateLayout, r.Date)
		if err != nil {
			return req, newValidationError("date", "invalid_date", "date must be YYYY-MM-DD")
		}
		req.Date = date
	}

	var err error
	if req.DraftID, err = parseOptionalID(r.DraftID); err != nil {
		return req, newValidationError("draft_id", "invalid_id", "invalid draft_id")
	}
	if req.PartyLedgerID, err = parseOptionalID(r.PartyLedgerID); err != nil {
		return req, newValidationError("party_ledger_id", "invalid_id", "invalid party_ledger_id")
	}
	if req.CounterLedgerID, err = parseOptionalID(r.CounterLedgerID); err != nil {
		return req, newValidationError("counter_ledger_id", "invalid_id", "invalid counter_ledger_id")
	}

	for _, item := range r.Items {
		req.Items = append(req.Items, voucherdomain.ItemInput{
			Description: strings.TrimSpace(item.Description),
			HSNCode:     strings.TrimSpace(item.HSNCode),
			Quantity:    item.Quantity,
			Rate:        item.Rate,
			GSTRate:     item.GSTRate,
			CessRate:    item.CessRate,
		})
	}
	for _, entry := range r.Entries {
		ledgerID, err := parseOptionalID(entry.LedgerID)
		if err != nil {
			return req, newValidationError("entries", "invalid_id", "invalid entry ledger_id")
		}
		req.Entries = append(req.Entries, voucherdomain.EntryInput{
			LedgerID: ledgerID,
			Debit:    entry.Debit,
			Credit:   entry.Credit,
		})
	}
	if r.TDS != nil {
		req.TDS = &voucherdomain.TDSInput{
			Section: strings.TrimSpace(r.TDS.Section),
			Rate:    r.TDS.Rate,
		}
	}
	return req, nil
}

func (s *Server) PostVoucher(c *gin.Context) {
	handle := tenantHandle(c)

	var body postVoucherRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req, err := body.toDomain(handle.Tenant.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	voucher, err := s.vouchers.Post(c.Request.Context(), handle.DB, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.recordAudit(c, auditdomain.Entry{
		Actor:      req.Actor,
		Action:     "voucher.posted",
		TargetType: "voucher",
		TargetID:   voucher.ID,
		Metadata: map[string]any{
			"type":   string(voucher.Type),
			"number": derefString(voucher.Number),
		},
	})
	c.JSON(http.StatusCreated, gin.H{"data": voucher})
}

func (s *Server) SaveVoucherDraft(c *gin.Context) {
	handle := tenantHandle(c)

	var body postVoucherRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req, err := body.toDomain(handle.Tenant.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	draft, err := s.vouchers.SaveDraft(c.Request.Context(), handle.DB, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": draft})
}

func (s *Server) CancelVoucher(c *gin.Context) {
	handle := tenantHandle(c)

	id, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid voucher id"))
		return
	}

	var body struct {
		Actor string `json:"actor"`
	}
	_ = c.ShouldBindJSON(&body)

	err = s.vouchers.Cancel(c.Request.Context(), handle.DB, voucherdomain.CancelRequest{
		TenantID:  handle.Tenant.ID,
		VoucherID: id,
		Actor:     strings.TrimSpace(body.Actor),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.recordAudit(c, auditdomain.Entry{
		Actor:      strings.TrimSpace(body.Actor),
		Action:     "voucher.cancelled",
		TargetType: "voucher",
		TargetID:   id,
	})
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"status": "cancelled"}})
}

func (s *Server) GetVoucher(c *gin.Context) {
	handle := tenantHandle(c)

	id, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid voucher id"))
		return
	}

	voucher, err := s.vouchers.Get(c.Request.Context(), handle.DB, handle.Tenant.ID, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": voucher})
}
