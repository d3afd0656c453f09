package http

import (
	"encoding/json"
	"net/http"
	"time"

	"tally/internal/aggregate"
	"tally/internal/core"
	"tally/internal/ledger"
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := s.ledger.List(r.Context(), userID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ledger.Sort(txs))
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var tx core.Transaction
	if err := json.NewDecoder(r.Body).Decode(&tx); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}
	tx.UserID = userID(r)
	// Provenance fields are owned by the scheduler.
	tx.GeneratedFrom = nil
	tx.IsRecurring = false
	tx.RecurringFrequency = ""

	created, err := s.ledger.Create(r.Context(), tx)
	if err != nil {
		writeError(w, err)
		return
	}
	s.InvalidateUser(tx.UserID)
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "transaction")
	if err != nil {
		writeError(w, err)
		return
	}
	var tx core.Transaction
	if err := json.NewDecoder(r.Body).Decode(&tx); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}
	tx.ID = id
	tx.UserID = userID(r)

	updated, err := s.ledger.Update(r.Context(), tx)
	if err != nil {
		writeError(w, err)
		return
	}
	s.InvalidateUser(tx.UserID)
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "transaction")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.ledger.Delete(r.Context(), userID(r), id); err != nil {
		writeError(w, err)
		return
	}
	s.InvalidateUser(userID(r))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	key := user + ":summary"
	if totals, ok := s.summaryCache.Get(key); ok {
		writeJSON(w, http.StatusOK, totals)
		return
	}

	txs, err := s.ledger.List(r.Context(), user)
	if err != nil {
		writeError(w, err)
		return
	}
	totals := aggregate.Aggregate(txs, time.Now().UTC())
	s.summaryCache.Set(key, totals)
	writeJSON(w, http.StatusOK, totals)
}
