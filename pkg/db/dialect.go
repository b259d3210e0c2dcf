package db

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/lekhabooks/lekha/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Dialect builds the gorm dialector for the configured database type.
// dbName overrides cfg.DBName when non-empty so per-tenant databases can
// share the same connection settings.
func Dialect(cfg config.Config, dbName string) (gorm.Dialector, error) {
	name := cfg.DBName
	if dbName != "" {
		name = dbName
	}

	switch cfg.DBType {
	case "mysql":
		return mysql.Open(fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			cfg.DBUser,
			cfg.DBPassword,
			cfg.DBHost,
			cfg.DBPort,
			name,
		)), nil
	case "postgres":
		return postgres.Open(fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
			cfg.DBHost,
			cfg.DBUser,
			cfg.DBPassword,
			name,
			cfg.DBPort,
			cfg.DBSSLMode,
		)), nil
	case "sqlite":
		if name == "" {
			name = "lekha.db"
		}
		return sqlite.Open(name), nil
	default:
		return nil, fmt.Errorf("unsupported database type %q", cfg.DBType)
	}
}
