// Package repository provides the storage factory for the ledger.
package repository

import (
	"context"
	"fmt"

	"libraryledger/internal/catalog"
	"libraryledger/internal/circulation"
	"libraryledger/internal/config"
	"libraryledger/internal/fees"
	"libraryledger/internal/membership"
	"libraryledger/internal/repository/memory"
	"libraryledger/internal/repository/postgres"
	"libraryledger/internal/statistics"
	"libraryledger/pkg/eventstore"

	"go.uber.org/zap"
)

// Lifecycle describes storage startup and shutdown hooks.
type Lifecycle interface {
	OnStart(ctx context.Context) error
	OnStop(ctx context.Context) error
}

// Repository aggregates every store the ledger needs.
type Repository interface {
	Lifecycle
	catalog.Store
	membership.Store
	circulation.Store
	fees.Store
	statistics.Store
	eventstore.Backend
}

var (
	_ Repository = (*memory.Memory)(nil)
	_ Repository = (*postgres.Postgres)(nil)
)

// New creates a repository for the configured backend.
func New(ctx context.Context, log *zap.SugaredLogger, cfg *config.Config) (Repository, error) {
	switch cfg.Storage.Backend {
	case "postgres":
		return postgres.New(ctx, log, cfg), nil
	case "memory":
		return memory.New(log), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
