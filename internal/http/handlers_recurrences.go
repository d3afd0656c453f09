package http

import (
	"encoding/json"
	"net/http"

	"tally/internal/core"
	"tally/internal/schedule"
)

func (s *Server) handleListRecurrences(w http.ResponseWriter, r *http.Request) {
	defs, err := s.scheduler.List(r.Context(), userID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, defs)
}

func (s *Server) handleCreateRecurrence(w http.ResponseWriter, r *http.Request) {
	var def core.RecurrenceDefinition
	if err := json.NewDecoder(r.Body).Decode(&def); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}
	def.UserID = userID(r)

	created, err := s.scheduler.Create(r.Context(), def)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateRecurrence(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "recurrence")
	if err != nil {
		writeError(w, err)
		return
	}
	var def core.RecurrenceDefinition
	if err := json.NewDecoder(r.Body).Decode(&def); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}
	def.ID = id
	def.UserID = userID(r)

	updated, err := s.scheduler.Update(r.Context(), def)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteRecurrence(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "recurrence")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.scheduler.Delete(r.Context(), userID(r), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleActivateRecurrence(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "recurrence")
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		Active bool `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}
	if err := s.scheduler.SetActive(r.Context(), userID(r), id, req.Active); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleExecuteRecurrence materializes one due recurrence into the
// ledger. The execution date defaults to today and may be overridden for
// backfills.
func (s *Server) handleExecuteRecurrence(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "recurrence")
	if err != nil {
		writeError(w, err)
		return
	}
	executionDate := core.Today()
	if r.ContentLength > 0 {
		var req struct {
			ExecutionDate core.Date `json:"executionDate"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
			return
		}
		if !req.ExecutionDate.IsZero() {
			executionDate = req.ExecutionDate
		}
	}

	tx, err := s.scheduler.Execute(r.Context(), userID(r), id, executionDate)
	if err != nil {
		writeError(w, err)
		return
	}
	s.InvalidateUser(userID(r))
	writeJSON(w, http.StatusCreated, tx)
}

func (s *Server) handleDueRecurrences(w http.ResponseWriter, r *http.Request) {
	defs, err := s.scheduler.List(r.Context(), userID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, schedule.Due(defs, core.Today()))
}

func (s *Server) handleUpcomingRecurrences(w http.ResponseWriter, r *http.Request) {
	defs, err := s.scheduler.List(r.Context(), userID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, schedule.Upcoming(defs, core.Today(), s.horizon))
}
