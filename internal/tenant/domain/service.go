package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	// Resolve looks a tenant up by slug or numeric ID and returns a handle
	// bound to the tenant's database scope.
	Resolve(ctx context.Context, slugOrID string) (*Handle, error)

	// Provision creates the tenant, prepares its schema, and seeds the
	// default chart of accounts.
	Provision(ctx context.Context, req ProvisionRequest) (*Tenant, error)

	// Deactivate soft-disables the tenant and evicts its cached handle.
	Deactivate(ctx context.Context, id snowflake.ID) error
}

type ProvisionRequest struct {
	Slug string
	Name string
}
