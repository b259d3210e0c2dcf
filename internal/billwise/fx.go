package billwise

import (
	"github.com/lekhabooks/lekha/internal/billwise/repository"
	"github.com/lekhabooks/lekha/internal/billwise/service"
	"go.uber.org/fx"
)

var Module = fx.Module("billwise.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
