package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
)

type contextKey string

const contextSessionKey contextKey = "session"

// Session is the per-request client state recovered from the bearer
// token: who is calling, with which role, and their favorited café
// identifiers. Favorites live only inside the token; nothing here is
// persisted server-side.
type Session struct {
	Username  string
	Role      string
	Favorites []string
}

func sessionFromContext(ctx context.Context) (Session, error) {
	session, ok := ctx.Value(contextSessionKey).(Session)
	if !ok || session.Username == "" {
		return Session{}, errors.New("missing session")
	}
	return session, nil
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// ErrorResponse is a simple error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}
