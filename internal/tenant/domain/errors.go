package domain

import "errors"

var (
	ErrTenantNotFound       = errors.New("tenant_not_found")
	ErrTenantInactive       = errors.New("tenant_inactive")
	ErrTenantNotProvisioned = errors.New("tenant_not_provisioned")
	ErrInvalidSlug          = errors.New("invalid_tenant_slug")
	ErrSlugTaken            = errors.New("tenant_slug_taken")
)
