package http

import (
	"net/http"

	"github.com/google/uuid"

	"expensetracker/internal/auth"
	"expensetracker/internal/services"
)

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserID(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	c, err := s.categories.Create(r.Context(), userID, services.CategoryInput{Name: req.Name, Type: req.CategoryType})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCategoryResponse(c))
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserID(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	cs, err := s.categories.List(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryResponses(cs))
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserID(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	c, err := s.categories.Get(r.Context(), userID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryResponse(c))
}

func (s *Server) handleEditCategory(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserID(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req categoryEditRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	c, err := s.categories.Edit(r.Context(), userID, id, req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryResponse(c))
}

func (s *Server) handleRemoveCategory(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserID(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.categories.Remove(r.Context(), userID, id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type linkParams struct {
	userID        uuid.UUID
	categoryID    int64
	transactionID int64
}

// categoryLink parses the caller and both ids of a
// /categories/{id}/transactions/{tid} route.
func categoryLink(r *http.Request) (linkParams, error) {
	var (
		link linkParams
		err  error
	)
	if link.userID, err = auth.UserID(r.Context()); err != nil {
		return link, err
	}
	if link.categoryID, err = pathID(r, "id"); err != nil {
		return link, err
	}
	link.transactionID, err = pathID(r, "tid")
	return link, err
}

func (s *Server) handleAddTransactionToCategory(w http.ResponseWriter, r *http.Request) {
	link, err := categoryLink(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	c, err := s.categories.AddTransaction(r.Context(), link.userID, link.categoryID, link.transactionID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryResponse(c))
}

func (s *Server) handleRemoveTransactionFromCategory(w http.ResponseWriter, r *http.Request) {
	link, err := categoryLink(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	c, err := s.categories.RemoveTransaction(r.Context(), link.userID, link.categoryID, link.transactionID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryResponse(c))
}
