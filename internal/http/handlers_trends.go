package http

import (
	"fmt"
	"net/http"
	"time"

	"tally/internal/trend"
)

func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	period, err := trend.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	granularity, err := trend.ParseGranularity(r.URL.Query().Get("granularity"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	user := userID(r)
	key := fmt.Sprintf("%s:trends:%d:%s", user, period, granularity)
	if report, ok := s.trendCache.Get(key); ok {
		writeJSON(w, http.StatusOK, report)
		return
	}

	txs, err := s.ledger.List(r.Context(), user)
	if err != nil {
		writeError(w, err)
		return
	}
	report := trend.Analyze(txs, period, granularity, time.Now().UTC())
	s.trendCache.Set(key, report)
	writeJSON(w, http.StatusOK, report)
}
