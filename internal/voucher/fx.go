package voucher

import (
	"github.com/lekhabooks/lekha/internal/voucher/repository"
	"github.com/lekhabooks/lekha/internal/voucher/service"
	"go.uber.org/fx"
)

var Module = fx.Module("voucher.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
