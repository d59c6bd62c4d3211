package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kevinaaaquil/library/circulation"
	"github.com/kevinaaaquil/library/service"
)

// MetadataLookup finds catalog data by ISBN.
type MetadataLookup interface {
	Lookup(ctx context.Context, isbn string) (*service.BookMetadata, error)
}

type BooksHandler struct {
	Desk   *service.Desk
	Lookup MetadataLookup
	Logger *zap.Logger
}

type ActionRequest struct {
	Action   string  `json:"action" validate:"required,oneof=reserve renew issue return edit"`
	IssuedTo string  `json:"issuedTo" validate:"max=128"`
	Title    *string `json:"title" validate:"omitempty,max=300"`
	Author   *string `json:"author" validate:"omitempty,max=300"`
	ISBN     *string `json:"isbn" validate:"omitempty,max=32"`
	Category *string `json:"category" validate:"omitempty,max=100"`
}

type MetadataRequest struct {
	ISBN string `json:"isbn" validate:"omitempty,max=32"`
}

// List returns the catalog with effective status, role-masked, and the actions
// the caller may take on each book.
func (h *BooksHandler) List(w http.ResponseWriter, r *http.Request) {
	books, err := h.Desk.Books(r.Context(), viewer(r))
	if err != nil {
		h.Logger.Error("list books", zap.Error(err))
		http.Error(w, `{"error":"failed to list books"}`, http.StatusInternalServerError)
		return
	}
	if q := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q"))); q != "" {
		filtered := books[:0]
		for _, b := range books {
			if strings.Contains(strings.ToLower(b.Title), q) ||
				strings.Contains(strings.ToLower(b.Author), q) ||
				strings.Contains(strings.ToLower(b.Category), q) ||
				strings.Contains(b.ISBN, q) {
				filtered = append(filtered, b)
			}
		}
		books = filtered
	}
	if status := r.URL.Query().Get("status"); status != "" {
		filtered := books[:0]
		for _, b := range books {
			if string(b.Status) == status {
				filtered = append(filtered, b)
			}
		}
		books = filtered
	}
	writeJSON(w, http.StatusOK, books)
}

func (h *BooksHandler) Get(w http.ResponseWriter, r *http.Request) {
	book, err := h.Desk.Book(r.Context(), viewer(r), chi.URLParam(r, "id"))
	if err != nil {
		writeDeskError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, book)
}

// Action applies a circulation action. Body: { "action", "issuedTo"?, "title"?, "author"?, "isbn"?, "category"? }
func (h *BooksHandler) Action(w http.ResponseWriter, r *http.Request) {
	var req ActionRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	action, _ := circulation.ParseAction(req.Action)
	h.apply(w, r, circulation.Request{
		Action:   action,
		IssuedTo: strings.TrimSpace(req.IssuedTo),
		Metadata: circulation.Metadata{Title: req.Title, Author: req.Author, ISBN: req.ISBN, Category: req.Category},
	})
}

// Metadata looks the book up by ISBN (the request's or the stored one) and
// applies the result as an edit.
func (h *BooksHandler) Metadata(w http.ResponseWriter, r *http.Request) {
	if h.Lookup == nil {
		http.Error(w, `{"error":"metadata lookup not configured"}`, http.StatusServiceUnavailable)
		return
	}
	var req MetadataRequest
	if r.ContentLength != 0 {
		if err := decode(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	isbn := strings.TrimSpace(req.ISBN)
	if isbn == "" {
		book, err := h.Desk.Book(r.Context(), viewer(r), chi.URLParam(r, "id"))
		if err != nil {
			writeDeskError(w, h.Logger, err)
			return
		}
		isbn = book.ISBN
	}
	if isbn == "" {
		http.Error(w, `{"error":"isbn is required"}`, http.StatusBadRequest)
		return
	}
	meta, err := h.Lookup.Lookup(r.Context(), isbn)
	switch {
	case errors.Is(err, service.ErrNoVolume):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, circulation.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		h.Logger.Warn("metadata lookup", zap.String("isbn", isbn), zap.Error(err))
		http.Error(w, `{"error":"metadata lookup failed"}`, http.StatusBadGateway)
		return
	}
	h.apply(w, r, circulation.Request{Action: circulation.ActionEdit, Metadata: meta.Edit()})
}

func (h *BooksHandler) apply(w http.ResponseWriter, r *http.Request, req circulation.Request) {
	v := viewer(r)
	req.BookID = chi.URLParam(r, "id")
	req.Role = v.Role
	req.Actor = v.Ref
	book, err := h.Desk.Apply(r.Context(), req)
	if err != nil {
		writeDeskError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, circulation.Visible(book, v.Role, v.Ref))
}
