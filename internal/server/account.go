package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	accountdomain "github.com/lekhabooks/lekha/internal/account/domain"
	auditdomain "github.com/lekhabooks/lekha/internal/audit/domain"
)

type createGroupRequest struct {
	Name         string `json:"name"`
	Nature       string `json:"nature"`
	ParentID     string `json:"parent_id"`
	AffectsPL    bool   `json:"affects_pl"`
	IsTaxRelated bool   `json:"is_tax_related"`
}

func (s *Server) CreateGroup(c *gin.Context) {
	handle := tenantHandle(c)

	var body createGroupRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	req := accountdomain.CreateGroupRequest{
		TenantID:     handle.Tenant.ID,
		Name:         strings.TrimSpace(body.Name),
		Nature:       accountdomain.Nature(strings.TrimSpace(body.Nature)),
		AffectsPL:    body.AffectsPL,
		IsTaxRelated: body.IsTaxRelated,
	}
	if body.ParentID != "" {
		parentID, err := snowflake.ParseString(strings.TrimSpace(body.ParentID))
		if err != nil {
			AbortWithError(c, newValidationError("parent_id", "invalid_id", "invalid parent_id"))
			return
		}
		req.ParentID = &parentID
	}

	group, err := s.accounts.CreateGroup(c.Request.Context(), handle.DB, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.recordAudit(c, auditdomain.Entry{
		Action:     "group.created",
		TargetType: "account_group",
		TargetID:   group.ID,
		Metadata:   map[string]any{"name": group.Name},
	})
	c.JSON(http.StatusCreated, gin.H{"data": group})
}

type createLedgerRequest struct {
	Code           string          `json:"code"`
	Name           string          `json:"name"`
	GroupID        string          `json:"group_id"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	OpeningSide    string          `json:"opening_side"`
	GSTIN          string          `json:"gstin"`
	State          string          `json:"state"`
	BillWise       bool            `json:"bill_wise"`
}

func (s *Server) CreateLedger(c *gin.Context) {
	handle := tenantHandle(c)

	var body createLedgerRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	groupID, err := parseOptionalID(body.GroupID)
	if err != nil {
		AbortWithError(c, newValidationError("group_id", "invalid_id", "invalid group_id"))
		return
	}

	ledger, err := s.accounts.CreateLedger(c.Request.Context(), handle.DB, accountdomain.CreateLedgerRequest{
		TenantID:       handle.Tenant.ID,
		Code:           strings.TrimSpace(body.Code),
		Name:           strings.TrimSpace(body.Name),
		GroupID:        groupID,
		OpeningBalance: body.OpeningBalance,
		OpeningSide:    accountdomain.BalanceSide(strings.TrimSpace(body.OpeningSide)),
		GSTIN:          strings.TrimSpace(body.GSTIN),
		State:          strings.TrimSpace(body.State),
		BillWise:       body.BillWise,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.recordAudit(c, auditdomain.Entry{
		Action:     "ledger.created",
		TargetType: "ledger",
		TargetID:   ledger.ID,
		Metadata: map[string]any{
			"code":  ledger.Code,
			"gstin": ledger.GSTIN,
		},
	})
	c.JSON(http.StatusCreated, gin.H{"data": ledger})
}

func (s *Server) LedgerBalance(c *gin.Context) {
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

	balance, err := s.accounts.Balance(c.Request.Context(), handle.DB, handle.Tenant.ID, ledgerID, asOf)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": balance})
}
