// Package config loads application configuration.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envFile = "config/.env"

// NewConfig loads configuration from the environment using viper with typed defaults and validation.
func NewConfig() (*Config, error) {
	v := viper.New()
	if envMap, err := godotenv.Read(envFile); err == nil {
		for k, val := range envMap {
			if _, exists := os.LookupEnv(k); !exists {
				_ = os.Setenv(k, val)
			}
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	bindEnvs(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)

	v.SetDefault("http.request_timeout", 3*time.Second)

	v.SetDefault("storage.backend", "postgres")

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "postgres")
	v.SetDefault("postgres.password", "postgres")
	v.SetDefault("postgres.db_name", "library_ledger")
	v.SetDefault("postgres.ssl_mode", "disable")
	v.SetDefault("postgres.migrate_on_start", true)
	v.SetDefault("postgres.migrate_timeout", 10*time.Second)
	v.SetDefault("postgres.query_timeout", 2*time.Second)
	v.SetDefault("postgres.max_conns", 10)
	v.SetDefault("postgres.min_conns", 2)

	v.SetDefault("ledger.timezone", "UTC")
	v.SetDefault("ledger.default_loan_days", 14)

	v.SetDefault("fees.fine_per_day", 20)
	v.SetDefault("fees.rent_per_day", 10)

	v.SetDefault("membership.registrations_per_minute", 5)
	v.SetDefault("membership.registration_burst", 5)
	v.SetDefault("membership.default_term_months", 12)

	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.staff_user", "admin")
	v.SetDefault("auth.staff_password_hash", "")

	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.service_name", "library-ledger")
	v.SetDefault("tracing.insecure", true)
}

func bindEnvs(v *viper.Viper) {
	keys := []string{
		"logging.level",
		"server.host",
		"server.port",
		"server.shutdown_timeout",
		"http.request_timeout",
		"storage.backend",
		"postgres.host",
		"postgres.port",
		"postgres.user",
		"postgres.password",
		"postgres.db_name",
		"postgres.ssl_mode",
		"postgres.migrate_on_start",
		"postgres.migrate_timeout",
		"postgres.query_timeout",
		"postgres.max_conns",
		"postgres.min_conns",
		"ledger.timezone",
		"ledger.default_loan_days",
		"fees.fine_per_day",
		"fees.rent_per_day",
		"membership.registrations_per_minute",
		"membership.registration_burst",
		"membership.default_term_months",
		"auth.enabled",
		"auth.staff_user",
		"auth.staff_password_hash",
		"tracing.endpoint",
		"tracing.service_name",
		"tracing.insecure",
	}

	for _, k := range keys {
		_ = v.BindEnv(k)
	}
}
