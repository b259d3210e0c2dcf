package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	auditdomain "github.com/lekhabooks/lekha/internal/audit/domain"
)

// recordAudit appends an audit entry without failing the request. The
// business mutation has already committed by the time this runs.
func (s *Server) recordAudit(c *gin.Context, entry auditdomain.Entry) {
	handle := tenantHandle(c)
	if handle == nil {
		return
	}
	entry.TenantID = handle.Tenant.ID
	if err := s.audit.Record(c.Request.Context(), handle.DB, entry); err != nil {
		s.log.Warn("audit record failed", zap.String("action", entry.Action), zap.Error(err))
	}
}

func (s *Server) ListAuditLogs(c *gin.Context) {
	handle := tenantHandle(c)

	filter := auditdomain.ListFilter{
		TenantID:   handle.Tenant.ID,
		Action:     strings.TrimSpace(c.Query("action")),
		TargetType: strings.TrimSpace(c.Query("target_type")),
	}
	if raw := c.Query("target_id"); raw != "" {
		targetID, err := parseOptionalID(raw)
		if err != nil {
			AbortWithError(c, newValidationError("target_id", "invalid_id", "invalid target_id"))
			return
		}
		filter.TargetID = targetID
	}
	if raw := c.Query("start_at"); raw != "" {
		startAt, err := time.Parse(dateLayout, raw)
		if err != nil {
			AbortWithError(c, newValidationError("start_at", "invalid_date", "start_at must be YYYY-MM-DD"))
			return
		}
		filter.StartAt = &startAt
	}
	if raw := c.Query("end_at"); raw != "" {
		endAt, err := time.Parse(dateLayout, raw)
		if err != nil {
			AbortWithError(c, newValidationError("end_at", "invalid_date", "end_at must be YYYY-MM-DD"))
			return
		}
		filter.EndAt = &endAt
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			AbortWithError(c, newValidationError("limit", "invalid_limit", "limit must be an integer"))
			return
		}
		filter.Limit = limit
	}

	logs, err := s.audit.List(c.Request.Context(), handle.DB, filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": logs})
}
