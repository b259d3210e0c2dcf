package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// CancellationPolicy controls what happens when a posted voucher is cancelled.
const (
	CancelDisallow = "disallow"
	CancelReverse  = "reverse"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string
	LogLevel    string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	// TenantIsolation is "shared" (tenant_id scoping on one database) or
	// "database" (a dedicated database per tenant named by the tenant row).
	TenantIsolation string

	// CreditPeriodDays sets the due date offset for bill-wise details.
	CreditPeriodDays int

	// CancellationPolicy is CancelDisallow or CancelReverse for posted vouchers.
	CancellationPolicy string

	// SequenceMaxAttempts bounds posting retries on duplicate voucher numbers.
	SequenceMaxAttempts int

	// SnowflakeNode distinguishes ID generators across replicas.
	SnowflakeNode int
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:     getenv("APP_SERVICE", "lekha"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),
		LogLevel:    getenv("LOG_LEVEL", "info"),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "lekha"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 25),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 3600),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 600),

		TenantIsolation:     normalizeIsolation(getenv("TENANT_ISOLATION", "shared")),
		CreditPeriodDays:    getenvInt("CREDIT_PERIOD_DAYS", 30),
		CancellationPolicy:  normalizePolicy(getenv("VOUCHER_CANCELLATION_POLICY", CancelDisallow)),
		SequenceMaxAttempts: getenvInt("SEQUENCE_MAX_ATTEMPTS", 5),
		SnowflakeNode:       getenvInt("SNOWFLAKE_NODE", 1),
	}
}

func normalizePolicy(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case CancelReverse:
		return CancelReverse
	default:
		return CancelDisallow
	}
}

func normalizeIsolation(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "database":
		return "database"
	default:
		return "shared"
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}
