// internal/catalog/handler.go
package catalog

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

// Register mounts the catalog routes. staff guards the mutating ones.
func (h *Handler) Register(r chi.Router, staff func(http.Handler) http.Handler) {
	r.Get("/books", h.handleList)
	r.Get("/books/{bookID}", h.handleGet)
	r.With(staff).Post("/books", h.handleAdd)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	page, err := httpx.IntQuery(r, "page", 1)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	count, err := httpx.IntQuery(r, "count", defaultListCount)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	books, err := h.service.List(r.Context(), Filter{
		Title:  r.URL.Query().Get("title"),
		Author: r.URL.Query().Get("author"),
		Page:   page,
		Count:  count,
	})
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	if books == nil {
		books = []Listing{}
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"books": books})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	book, err := h.service.GetBook(r.Context(), chi.URLParam(r, "bookID"))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, book)
}

type addBookRequest struct {
	ID              string `json:"book_id" validate:"required"`
	Title           string `json:"title" validate:"required"`
	Author          string `json:"author"`
	ISBN            string `json:"isbn"`
	Publisher       string `json:"publisher"`
	PublicationYear int    `json:"publication_year" validate:"gte=0"`
	Quantity        int    `json:"quantity" validate:"gte=0"`
}

func (h *Handler) handleAdd(w http.ResponseWriter, r *http.Request) {
	var req addBookRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.WriteError(w, err)
		return
	}

	book, err := h.service.AddBook(r.Context(), Book(req))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, book)
}
