package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg, err := NewConfig()
	require.NoError(t, err)

	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, "postgres", cfg.Storage.Backend)
	require.Equal(t, 14, cfg.Ledger.DefaultLoanDays)
	require.Equal(t, int64(20), cfg.Fees.FinePerDay)
	require.Equal(t, int64(10), cfg.Fees.RentPerDay)
	require.Equal(t, "0.0.0.0:8080", cfg.ServerAddr())
}

func TestNewConfigFromEnv(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "memory")
	t.Setenv("FEES_RENT_PER_DAY", "15")
	t.Setenv("LEDGER_TIMEZONE", "Asia/Kolkata")

	cfg, err := NewConfig()
	require.NoError(t, err)
	require.Equal(t, "memory", cfg.Storage.Backend)
	require.Equal(t, int64(15), cfg.Fees.RentPerDay)
	require.Equal(t, "Asia/Kolkata", cfg.Ledger.Timezone)
}

func TestValidate(t *testing.T) {
	valid := Config{
		Server:  ServerConfig{Port: 8080},
		Storage: StorageConfig{Backend: "memory"},
		Ledger:  LedgerConfig{DefaultLoanDays: 14},
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing port", func(c *Config) { c.Server.Port = 0 }},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "sqlite" }},
		{"postgres without host", func(c *Config) {
			c.Storage.Backend = "postgres"
			c.Postgres = PostgresConfig{User: "u", DBName: "d"}
		}},
		{"zero loan days", func(c *Config) { c.Ledger.DefaultLoanDays = 0 }},
		{"negative fine", func(c *Config) { c.Fees.FinePerDay = -1 }},
		{"auth without hash", func(c *Config) { c.Auth = AuthConfig{Enabled: true, StaffUser: "admin"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestDSN(t *testing.T) {
	p := PostgresConfig{Host: "db", Port: 5433, User: "u", Password: "p", DBName: "ledger", SSLMode: "disable"}
	require.Equal(t, "host=db port=5433 user=u password=p dbname=ledger sslmode=disable", p.DSN())
}
