package http

import (
	"net/http"

	"expensetracker/internal/auth"
	"expensetracker/internal/services"
)

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserID(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	t, err := s.transactions.Create(r.Context(), userID, services.TransactionInput{
		Type:        req.TransactionType,
		Title:       req.Title,
		Description: req.Description,
		Amount:      req.Amount,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionResponse(t))
}

// handleListTransactions serves GET /transactions with an optional ?type=.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserID(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	ts, err := s.transactions.List(r.Context(), userID, r.URL.Query().Get("type"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponses(ts))
}

func (s *Server) handleCurrentBalance(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserID(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	b, err := s.balance.GetCurrentBalance(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBalanceResponse(b))
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
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

	t, err := s.transactions.Get(r.Context(), userID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(t))
}

func (s *Server) handleEditTransaction(w http.ResponseWriter, r *http.Request) {
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

	var req transactionEditRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	t, err := s.transactions.Edit(r.Context(), userID, id, services.TransactionEdit{
		Title:       req.Title,
		Description: req.Description,
		Amount:      req.Amount,
		IsRecurrent: req.IsRecurrent,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(t))
}

func (s *Server) handleRemoveTransaction(w http.ResponseWriter, r *http.Request) {
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

	if err := s.transactions.Remove(r.Context(), userID, id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
