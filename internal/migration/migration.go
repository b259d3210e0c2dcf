package migration

import (
	"embed"
	"errors"

	"github.com/golang-migrate/migrate/v4"
	pgmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	accountdomain "github.com/lekhabooks/lekha/internal/account/domain"
	auditdomain "github.com/lekhabooks/lekha/internal/audit/domain"
	billdomain "github.com/lekhabooks/lekha/internal/billwise/domain"
	"github.com/lekhabooks/lekha/internal/config"
	einvoicedomain "github.com/lekhabooks/lekha/internal/einvoice/domain"
	taxdomain "github.com/lekhabooks/lekha/internal/tax/domain"
	tenantdomain "github.com/lekhabooks/lekha/internal/tenant/domain"
	voucherdomain "github.com/lekhabooks/lekha/internal/voucher/domain"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Run brings the schema up to date. Postgres applies the embedded versioned
// migrations; other drivers fall back to model-driven migration.
func Run(cfg config.Config, conn *gorm.DB, log *zap.Logger) error {
	if cfg.DBType == "postgres" {
		return runVersioned(conn, log)
	}
	return AutoMigrate(conn)
}

func runVersioned(conn *gorm.DB, log *zap.Logger) error {
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	driver, err := pgmigrate.WithInstance(sqlDB, &pgmigrate.Config{})
	if err != nil {
		return err
	}
	source, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return err
	}
	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return err
	}
	log.Info("schema migrated", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}

// AutoMigrate creates or updates every table from the domain models. Used
// for non-postgres drivers and for per-tenant databases at provisioning.
func AutoMigrate(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&tenantdomain.Tenant{},
		&accountdomain.AccountGroup{},
		&accountdomain.Ledger{},
		&taxdomain.TaxRate{},
		&voucherdomain.Voucher{},
		&voucherdomain.VoucherItem{},
		&voucherdomain.VoucherLedgerEntry{},
		&voucherdomain.TDSDetail{},
		&billdomain.BillWiseDetail{},
		&billdomain.BillAllocation{},
		&einvoicedomain.Acknowledgment{},
		&auditdomain.AuditLog{},
	)
}

func run(cfg config.Config, conn *gorm.DB, log *zap.Logger) error {
	return Run(cfg, conn, log)
}

var Module = fx.Module("migration",
	fx.Invoke(run),
)
