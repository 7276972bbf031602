// Package app wires the ledger services, handlers and router over one repository.
package app

import (
	"net/http"

	"libraryledger/internal/auth"
	"libraryledger/internal/catalog"
	"libraryledger/internal/circulation"
	"libraryledger/internal/clock"
	"libraryledger/internal/config"
	"libraryledger/internal/fees"
	"libraryledger/internal/httpx"
	"libraryledger/internal/membership"
	"libraryledger/internal/repository"
	"libraryledger/internal/settlement"
	"libraryledger/internal/statistics"
	"libraryledger/pkg/eventstore"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Services bundles the ledger services built over one repository.
type Services struct {
	Catalog     catalog.Service
	Members     membership.Service
	Circulation circulation.Service
	Fees        fees.Service
	Settlement  settlement.Service
	Statistics  statistics.Service
	Journal     *eventstore.EventStore
	Clock       clock.Clock
}

// NewServices builds every service from the configuration.
func NewServices(cfg *config.Config, repo repository.Repository, clk clock.Clock, log *zap.SugaredLogger) *Services {
	journal := eventstore.NewEventStore(repo)
	books := catalog.NewService(repo, log)
	members := membership.NewService(repo, clk, membership.Options{
		RegistrationsPerMinute: cfg.Membership.RegistrationsPerMinute,
		RegistrationBurst:      cfg.Membership.RegistrationBurst,
		DefaultTermMonths:      cfg.Membership.DefaultTermMonths,
	}, log)
	rates := fees.NewService(repo, fees.Rates{
		FinePerDay: cfg.Fees.FinePerDay,
		RentPerDay: cfg.Fees.RentPerDay,
	}, log)

	return &Services{
		Catalog: books,
		Members: members,
		Circulation: circulation.NewService(circulation.Deps{
			Store:   repo,
			Catalog: books,
			Members: members,
			Rates:   rates,
			Journal: journal,
			Clock:   clk,
		}, cfg.Ledger.DefaultLoanDays, log),
		Fees:       rates,
		Settlement: settlement.NewService(repo, members, journal, clk, log),
		Statistics: statistics.NewService(repo, clk, log),
		Journal:    journal,
		Clock:      clk,
	}
}

// NewRouter mounts every handler behind the shared middleware stack.
func NewRouter(cfg *config.Config, svc *Services, log *zap.SugaredLogger) http.Handler {
	staff := auth.RequireStaff(auth.Staff{
		Enabled:      cfg.Auth.Enabled,
		User:         cfg.Auth.StaffUser,
		PasswordHash: cfg.Auth.StaffPasswordHash,
	}, log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(httpx.RequestLogger(log))
	if cfg.HTTP.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.HTTP.RequestTimeout))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	catalog.NewHandler(svc.Catalog).Register(r, staff)
	membership.NewHandler(svc.Members, svc.Journal).Register(r, staff)
	circulation.NewHandler(svc.Circulation).Register(r, staff)
	fees.NewHandler(svc.Fees).Register(r, staff)
	settlement.NewHandler(svc.Settlement).Register(r, staff)
	statistics.NewHandler(svc.Statistics).Register(r)

	return r
}
