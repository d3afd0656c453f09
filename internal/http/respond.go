package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"tally/internal/core"
	"tally/internal/schedule"
)

type errorBody struct {
	Error  string            `json:"error"`
	Fields []core.FieldError `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// writeError maps domain errors onto HTTP statuses. Validation failures
// carry the full field list so clients can render every violation.
func writeError(w http.ResponseWriter, err error) {
	var validation *core.ValidationError
	if errors.As(err, &validation) {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{
			Error:  "validation failed",
			Fields: validation.Violations,
		})
		return
	}

	var notFound *core.NotFoundError
	if errors.As(err, &notFound) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: notFound.Error()})
		return
	}

	var duplicate *core.DuplicateBudgetError
	if errors.As(err, &duplicate) {
		writeJSON(w, http.StatusConflict, errorBody{Error: duplicate.Error()})
		return
	}

	if errors.Is(err, schedule.ErrRecurrenceInactive) {
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
		return
	}

	var upstream *core.UpstreamError
	if errors.As(err, &upstream) {
		writeJSON(w, http.StatusBadGateway, errorBody{Error: "storage backend unavailable"})
		return
	}

	writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
}
