package settlement

import (
	"net/http"

	"libraryledger/internal/httpx"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Register mounts the settlement route behind staff.
func (h *Handler) Register(r chi.Router, staff func(http.Handler) http.Handler) {
	r.With(staff).Patch("/members/{memberID}/settle_dues", h.handleSettle)
}

func (h *Handler) handleSettle(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.ParseID(chi.URLParam(r, "memberID"), "member id")
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	receipt, err := h.service.Settle(r.Context(), id)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "Outstanding Debt Settled",
		"receipt": receipt,
	})
}
