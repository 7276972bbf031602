package config

import (
	"errors"
	"fmt"
	"time"
)

// Config holds application configuration.
type Config struct {
	Logging    LoggingConfig    `mapstructure:"logging"`
	Server     ServerConfig     `mapstructure:"server"`
	HTTP       HTTPConfig       `mapstructure:"http"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Postgres   PostgresConfig   `mapstructure:"postgres"`
	Ledger     LedgerConfig     `mapstructure:"ledger"`
	Fees       FeesConfig       `mapstructure:"fees"`
	Membership MembershipConfig `mapstructure:"membership"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Tracing    TracingConfig    `mapstructure:"tracing"`
}

// Validate ensures required fields are present.
func (c Config) Validate() error {
	if c.Server.Port == 0 {
		return errors.New("server.port is required")
	}
	switch c.Storage.Backend {
	case "memory":
	case "postgres":
		if c.Postgres.User == "" || c.Postgres.DBName == "" {
			return errors.New("postgres credentials are required")
		}
		if c.Postgres.Host == "" {
			return errors.New("postgres.host is required")
		}
	default:
		return fmt.Errorf("unknown storage.backend %q", c.Storage.Backend)
	}
	if c.Ledger.DefaultLoanDays <= 0 {
		return errors.New("ledger.default_loan_days must be positive")
	}
	if c.Fees.FinePerDay < 0 || c.Fees.RentPerDay < 0 {
		return errors.New("fees must not be negative")
	}
	if c.Auth.Enabled && (c.Auth.StaffUser == "" || c.Auth.StaffPasswordHash == "") {
		return errors.New("auth.staff_user and auth.staff_password_hash are required when auth is enabled")
	}
	return nil
}

// ServerAddr returns host:port for HTTP server binding.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// LoggingConfig contains logger preferences.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// ServerConfig contains HTTP server options.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// HTTPConfig contains transport settings.
type HTTPConfig struct {
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// StorageConfig selects the repository backend ("postgres" or "memory").
type StorageConfig struct {
	Backend string `mapstructure:"backend"`
}

// PostgresConfig describes database connection parameters.
type PostgresConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	User           string        `mapstructure:"user"`
	Password       string        `mapstructure:"password"`
	DBName         string        `mapstructure:"db_name"`
	SSLMode        string        `mapstructure:"ssl_mode"`
	MigrateOnStart bool          `mapstructure:"migrate_on_start"`
	MigrateTimeout time.Duration `mapstructure:"migrate_timeout"`
	QueryTimeout   time.Duration `mapstructure:"query_timeout"`
	MaxConns       int32         `mapstructure:"max_conns"`
	MinConns       int32         `mapstructure:"min_conns"`
}

// DSN returns a Postgres connection string.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode,
	)
}

// LedgerConfig holds the calendar and loan settings.
type LedgerConfig struct {
	Timezone        string `mapstructure:"timezone"`
	DefaultLoanDays int    `mapstructure:"default_loan_days"`
}

// FeesConfig holds the rates used until fine settings are saved.
type FeesConfig struct {
	FinePerDay int64 `mapstructure:"fine_per_day"`
	RentPerDay int64 `mapstructure:"rent_per_day"`
}

// MembershipConfig throttles registrations and sets the default membership term.
type MembershipConfig struct {
	RegistrationsPerMinute float64 `mapstructure:"registrations_per_minute"`
	RegistrationBurst      int     `mapstructure:"registration_burst"`
	DefaultTermMonths      int     `mapstructure:"default_term_months"`
}

// AuthConfig holds the staff credentials guarding mutating routes.
type AuthConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	StaffUser         string `mapstructure:"staff_user"`
	StaffPasswordHash string `mapstructure:"staff_password_hash"`
}

// TracingConfig configures the OTLP exporter. An empty endpoint disables export.
type TracingConfig struct {
	Endpoint    string `mapstructure:"endpoint"`
	ServiceName string `mapstructure:"service_name"`
	Insecure    bool   `mapstructure:"insecure"`
}
