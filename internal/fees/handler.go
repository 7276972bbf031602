package fees

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

// Register mounts the fine settings routes. staff guards the update.
func (h *Handler) Register(r chi.Router, staff func(http.Handler) http.Handler) {
	r.Get("/settings/fines", h.handleGet)
	r.With(staff).Put("/settings/fines", h.handleUpdate)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	rates, err := h.service.GetRates(r.Context())
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, rates)
}

type updateRequest struct {
	FinePerDay *int64 `json:"fine_per_day" validate:"required,gte=0"`
	RentPerDay *int64 `json:"rent_per_day" validate:"required,gte=0"`
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.WriteError(w, err)
		return
	}

	rates, err := h.service.UpdateRates(r.Context(), *req.FinePerDay, *req.RentPerDay)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, rates)
}
