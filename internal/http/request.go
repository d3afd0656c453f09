package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"tally/internal/core"
)

type contextKey string

const userIDKey contextKey = "tally_user_id"

// UserHeader identifies the caller. The engine is parameterized by user
// id and performs no authentication itself; the deployment puts an
// authenticating proxy in front when exposed beyond localhost.
const UserHeader = "X-User-ID"

// requireUser rejects requests without a user id and stores it in the
// request context for handlers.
func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.Header.Get(UserHeader))
		if userID == "" {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "missing " + UserHeader + " header"})
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userID(r *http.Request) string {
	id, _ := r.Context().Value(userIDKey).(string)
	return id
}

// pathID parses the {id} route parameter. A malformed id is reported as
// not found rather than a parse error: the entity it names cannot exist.
func pathID(r *http.Request, kind string) (uuid.UUID, error) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, &core.NotFoundError{Kind: kind, ID: raw}
	}
	return id, nil
}
