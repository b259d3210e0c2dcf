package server

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	tenantdomain "github.com/lekhabooks/lekha/internal/tenant/domain"
	"github.com/lekhabooks/lekha/pkg/tenantctx"
)

const (
	HeaderTenant     = "X-Tenant-ID"
	HeaderRequestID  = "X-Request-ID"
	contextTenantKey = "tenant_handle"
)

// RequestID propagates the inbound request id or mints one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(HeaderRequestID))
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// AccessLog writes one structured line per request.
func AccessLog(log *zap.Logger) gin.HandlerFunc {
	log = log.Named("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", c.GetString("request_id")),
		)
	}
}

// TenantContext resolves the X-Tenant-ID header to a tenant handle and binds
// the tenant id into the request context. Every route under it is
// tenant-scoped.
func (s *Server) TenantContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(HeaderTenant))
		if raw == "" {
			AbortWithError(c, tenantdomain.ErrTenantNotFound)
			return
		}

		handle, err := s.tenants.Resolve(c.Request.Context(), raw)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Set(contextTenantKey, handle)
		c.Request = c.Request.WithContext(
			tenantctx.WithTenantID(c.Request.Context(), handle.Tenant.ID),
		)
		c.Next()
	}
}

func tenantHandle(c *gin.Context) *tenantdomain.Handle {
	value, ok := c.Get(contextTenantKey)
	if !ok {
		return nil
	}
	handle, _ := value.(*tenantdomain.Handle)
	return handle
}
