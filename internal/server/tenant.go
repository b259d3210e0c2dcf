package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"

	tenantdomain "github.com/lekhabooks/lekha/internal/tenant/domain"
)

type provisionTenantRequest struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

func (s *Server) ProvisionTenant(c *gin.Context) {
	var body provisionTenantRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	tenant, err := s.tenants.Provision(c.Request.Context(), tenantdomain.ProvisionRequest{
		Slug: strings.TrimSpace(body.Slug),
		Name: strings.TrimSpace(body.Name),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": tenant})
}

func (s *Server) DeactivateTenant(c *gin.Context) {
	id, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid tenant id"))
		return
	}

	if err := s.tenants.Deactivate(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"status": "inactive"}})
}
