package tax

import (
	"github.com/lekhabooks/lekha/internal/tax/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("tax",
	fx.Provide(repository.Provide),
)
