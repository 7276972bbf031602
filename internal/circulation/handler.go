// internal/circulation/handler.go
package circulation

import (
	"net/http"
	"time"

	"libraryledger/internal/httpx"

	"github.com/go-chi/chi/v5"
)

const defaultListCount = 20

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Register mounts the ledger routes. staff guards issue and return.
func (h *Handler) Register(r chi.Router, staff func(http.Handler) http.Handler) {
	r.Get("/issued_books", h.handleActive)
	r.With(staff).Post("/issued_books", h.handleIssue)
	r.With(staff).Put("/issued_books", h.handleReturn)
	r.Get("/issued_books_list", h.handleListIssued)
	r.Get("/overdue_book_list", h.handleOverdue)
}

type recordView struct {
	IssuanceRecord
	Label string `json:"label"`
}

func views(recs []IssuanceRecord) []recordView {
	out := make([]recordView, len(recs))
	for i, rec := range recs {
		out[i] = recordView{IssuanceRecord: rec, Label: rec.Label()}
	}
	return out
}

func (h *Handler) handleActive(w http.ResponseWriter, r *http.Request) {
	rec, err := h.service.ActiveIssuance(r.Context(), r.URL.Query().Get("book_id"))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, rec)
}

type issueRequest struct {
	BookID   string `json:"book_id" validate:"required"`
	Title    string `json:"book_title"`
	Author   string `json:"book_author"`
	MemberID int64  `json:"member_id" validate:"required,gt=0"`
	DueDate  string `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
}

func (h *Handler) handleIssue(w http.ResponseWriter, r *http.Request) {
	var req issueRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.WriteError(w, err)
		return
	}

	in := IssueRequest{BookID: req.BookID, Title: req.Title, Author: req.Author, MemberID: req.MemberID}
	if req.DueDate != "" {
		in.DueDate, _ = time.Parse(time.DateOnly, req.DueDate)
	}

	rec, err := h.service.Issue(r.Context(), in)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, rec)
}

type returnRequest struct {
	BookID string `json:"book_id" validate:"required"`
}

func (h *Handler) handleReturn(w http.ResponseWriter, r *http.Request) {
	var req returnRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.WriteError(w, err)
		return
	}

	receipt, err := h.service.Return(r.Context(), req.BookID)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, receipt)
}

func (h *Handler) handleListIssued(w http.ResponseWriter, r *http.Request) {
	count, err := httpx.IntQuery(r, "count", defaultListCount)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	recs, err := h.service.ListIssued(r.Context(), count)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"issued_books": views(recs)})
}

func (h *Handler) handleOverdue(w http.ResponseWriter, r *http.Request) {
	count, err := httpx.IntQuery(r, "count", defaultListCount)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	asOf, _, err := httpx.DateQuery(r, "as_of")
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	recs, err := h.service.ComputeOverdue(r.Context(), asOf)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	if count > 0 && len(recs) > count {
		recs = recs[:count]
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"overdue_books": views(recs)})
}
