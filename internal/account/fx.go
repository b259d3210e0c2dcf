package account

import (
	"github.com/lekhabooks/lekha/internal/account/repository"
	"github.com/lekhabooks/lekha/internal/account/service"
	"go.uber.org/fx"
)

var Module = fx.Module("account.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
