// Package memory implements the repository in process memory for development and tests.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"libraryledger/internal/catalog"
	"libraryledger/internal/circulation"
	"libraryledger/internal/fees"
	"libraryledger/internal/membership"
	"libraryledger/pkg/eventstore"

	"go.uber.org/zap"
)

type txKey struct{}

// Memory keeps all ledger state behind one mutex. A transaction holds the mutex for its whole
// duration and restores a snapshot when it fails.
type Memory struct {
	mu    sync.Mutex
	log   *zap.SugaredLogger
	state state
}

type state struct {
	books        map[string]catalog.Book
	members      map[int64]membership.Member
	issuances    []circulation.IssuanceRecord
	rates        *fees.Rates
	events       []eventstore.Event
	nextMemberID int64
}

func (s state) clone() state {
	c := s
	c.books = maps.Clone(s.books)
	c.members = maps.Clone(s.members)
	c.issuances = slices.Clone(s.issuances)
	c.events = slices.Clip(s.events)
	return c
}

// New creates an empty in-memory repository.
func New(log *zap.SugaredLogger) *Memory {
	return &Memory{
		log: log.Named("repo.memory"),
		state: state{
			books:        make(map[string]catalog.Book),
			members:      make(map[int64]membership.Member),
			nextMemberID: 1,
		},
	}
}

// OnStart implements the repository lifecycle.
func (m *Memory) OnStart(_ context.Context) error {
	m.log.Infow("memory repository ready")
	return nil
}

// OnStop implements the repository lifecycle.
func (m *Memory) OnStop(_ context.Context) error {
	return nil
}

// WithinTx runs fn while holding the store lock. Nested calls join the outer transaction.
func (m *Memory) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.inTx(ctx) {
		return fn(ctx)
	}

	m.mu.Lock()
	snapshot := m.state.clone()
	committed := false
	defer func() {
		if !committed {
			m.state = snapshot
		}
		m.mu.Unlock()
	}()

	if err := fn(context.WithValue(ctx, txKey{}, m)); err != nil {
		return err
	}
	committed = true
	return nil
}

func (m *Memory) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Memory)
	return owner == m
}

// lock takes the store mutex unless ctx already holds it through WithinTx.
func (m *Memory) lock(ctx context.Context) func() {
	if m.inTx(ctx) {
		return func() {}
	}
	m.mu.Lock()
	return m.mu.Unlock
}
