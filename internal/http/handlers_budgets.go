package http

import (
	"encoding/json"
	"net/http"
	"time"

	"tally/internal/aggregate"
	"tally/internal/budget"
	"tally/internal/core"
)

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := s.budgets.List(r.Context(), userID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, budgets)
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var b core.Budget
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}
	b.UserID = userID(r)

	created, err := s.budgets.Add(r.Context(), b)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "budget")
	if err != nil {
		writeError(w, err)
		return
	}
	var b core.Budget
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}
	b.ID = id
	b.UserID = userID(r)

	updated, err := s.budgets.Update(r.Context(), b)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "budget")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.budgets.Remove(r.Context(), userID(r), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleBudgetProgress joins budgets against the current month's spend.
func (s *Server) handleBudgetProgress(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	budgets, err := s.budgets.List(r.Context(), user)
	if err != nil {
		writeError(w, err)
		return
	}
	txs, err := s.ledger.List(r.Context(), user)
	if err != nil {
		writeError(w, err)
		return
	}
	spent := aggregate.MonthExpensesByCategory(txs, time.Now().UTC())
	writeJSON(w, http.StatusOK, budget.Progress(budgets, spent))
}
