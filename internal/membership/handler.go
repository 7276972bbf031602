// internal/membership/handler.go
package membership

import (
	"context"
	"net/http"
	"time"

	"libraryledger/internal/httpx"
	"libraryledger/pkg/eventstore"

	"github.com/go-chi/chi/v5"
)

// JournalReader reads a member's ledger events.
type JournalReader interface {
	Load(ctx context.Context, streamType, streamID string) ([]eventstore.Event, error)
}

type Handler struct {
	service Service
	journal JournalReader
}

func NewHandler(service Service, journal JournalReader) *Handler {
	return &Handler{service: service, journal: journal}
}

// Register mounts the member routes. staff guards the mutating ones.
func (h *Handler) Register(r chi.Router, staff func(http.Handler) http.Handler) {
	r.Get("/members", h.handleList)
	r.With(staff).Post("/members", h.handleRegister)
	r.Get("/members/{memberID}", h.handleGet)
	r.With(staff).Patch("/members/{memberID}/active", h.handleSetActive)
	r.Get("/members/{memberID}/journal", h.handleJournal)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	page, err := httpx.IntQuery(r, "page", 1)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	count, err := httpx.IntQuery(r, "count", defaultPageCount)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	res, err := h.service.List(r.Context(), PageRequest{Page: page, Count: count})
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, res)
}

type registerRequest struct {
	Name   string `json:"name" validate:"required"`
	Email  string `json:"email" validate:"omitempty,email"`
	Phone  string `json:"phone"`
	EndsOn string `json:"membership_end_date" validate:"omitempty,datetime=2006-01-02"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.WriteError(w, err)
		return
	}

	in := NewMember{Name: req.Name, Email: req.Email, Phone: req.Phone}
	if req.EndsOn != "" {
		in.EndsOn, _ = time.Parse(time.DateOnly, req.EndsOn)
	}

	member, err := h.service.Register(r.Context(), in)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, member)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.ParseID(chi.URLParam(r, "memberID"), "member id")
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	member, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, member)
}

type setActiveRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

func (h *Handler) handleSetActive(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.ParseID(chi.URLParam(r, "memberID"), "member id")
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	var req setActiveRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.WriteError(w, err)
		return
	}

	member, err := h.service.SetActive(r.Context(), id, *req.IsActive)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, member)
}

func (h *Handler) handleJournal(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.ParseID(chi.URLParam(r, "memberID"), "member id")
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	if _, err := h.service.Get(r.Context(), id); err != nil {
		httpx.WriteError(w, err)
		return
	}

	events, err := h.journal.Load(r.Context(), JournalStream, StreamID(id))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	if events == nil {
		events = []eventstore.Event{}
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"member_id": id, "events": events})
}
