package audit

import (
	"go.uber.org/fx"

	"github.com/lekhabooks/lekha/internal/audit/repository"
	"github.com/lekhabooks/lekha/internal/audit/service"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
