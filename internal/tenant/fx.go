package tenant

import (
	"context"

	"go.uber.org/fx"

	"github.com/lekhabooks/lekha/internal/tenant/registry"
	"github.com/lekhabooks/lekha/internal/tenant/repository"
	"github.com/lekhabooks/lekha/internal/tenant/service"
)

func registerHooks(lc fx.Lifecycle, reg *registry.Registry) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return reg.Close()
		},
	})
}

var Module = fx.Module("tenant.service",
	fx.Provide(registry.New),
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
	fx.Invoke(registerHooks),
)
