package einvoice

import (
	"github.com/lekhabooks/lekha/internal/einvoice/repository"
	"github.com/lekhabooks/lekha/internal/einvoice/service"
	"go.uber.org/fx"
)

var Module = fx.Module("einvoice.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
