package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/lekhabooks/lekha/internal/account"
	"github.com/lekhabooks/lekha/internal/audit"
	"github.com/lekhabooks/lekha/internal/billwise"
	"github.com/lekhabooks/lekha/internal/config"
	"github.com/lekhabooks/lekha/internal/einvoice"
	"github.com/lekhabooks/lekha/internal/logger"
	"github.com/lekhabooks/lekha/internal/migration"
	"github.com/lekhabooks/lekha/internal/observability/metrics"
	"github.com/lekhabooks/lekha/internal/seed"
	"github.com/lekhabooks/lekha/internal/sequence"
	"github.com/lekhabooks/lekha/internal/server"
	"github.com/lekhabooks/lekha/internal/tax"
	"github.com/lekhabooks/lekha/internal/tenant"
	"github.com/lekhabooks/lekha/internal/voucher"
	"github.com/lekhabooks/lekha/pkg/db"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		fx.Provide(newSnowflakeNode),
		db.Module,
		metrics.Module,
		migration.Module,

		sequence.Module,
		tax.Module,
		account.Module,
		seed.Module,
		tenant.Module,
		voucher.Module,
		billwise.Module,
		einvoice.Module,
		audit.Module,

		server.Module,
	)
	app.Run()
}

func newSnowflakeNode(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(int64(cfg.SnowflakeNode))
}
