package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"tally/internal/core"
)

// depositAmount accepts both JSON numbers and hand-typed strings with
// either decimal separator ("12.50", "12,50").
type depositAmount struct {
	decimal.Decimal
}

func (a *depositAmount) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := core.ParseAmount(s)
	if err != nil {
		return err
	}
	a.Decimal = parsed
	return nil
}

// goalView decorates a goal with its derived progress fields.
type goalView struct {
	core.SavingsGoal
	Remaining   decimal.Decimal `json:"remaining"`
	Progress    float64         `json:"progress"`
	IsCompleted bool            `json:"isCompleted"`
	IsOverdue   bool            `json:"isOverdue"`
}

func newGoalView(g core.SavingsGoal, today core.Date) goalView {
	return goalView{
		SavingsGoal: g,
		Remaining:   g.Remaining(),
		Progress:    g.Progress(),
		IsCompleted: g.IsCompleted(),
		IsOverdue:   g.IsOverdue(today),
	}
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	gs, err := s.goals.List(r.Context(), userID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	today := core.Today()
	views := make([]goalView, len(gs))
	for i, g := range gs {
		views[i] = newGoalView(g, today)
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var g core.SavingsGoal
	if err := json.NewDecoder(r.Body).Decode(&g); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}
	g.UserID = userID(r)

	created, err := s.goals.Create(r.Context(), g)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newGoalView(created, core.Today()))
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "goal")
	if err != nil {
		writeError(w, err)
		return
	}
	var g core.SavingsGoal
	if err := json.NewDecoder(r.Body).Decode(&g); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}
	g.ID = id
	g.UserID = userID(r)

	updated, err := s.goals.Update(r.Context(), g)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newGoalView(updated, core.Today()))
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "goal")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.goals.Delete(r.Context(), userID(r), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGoalDeposit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "goal")
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		Amount depositAmount `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}

	updated, err := s.goals.Deposit(r.Context(), userID(r), id, req.Amount.Decimal)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newGoalView(updated, core.Today()))
}

func (s *Server) handleGoalStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.goals.Stats(r.Context(), userID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
