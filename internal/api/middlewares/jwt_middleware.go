package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/markdave123-py/Synopsis/internal/auth"
	"github.com/markdave123-py/Synopsis/internal/core"
	"github.com/markdave123-py/Synopsis/internal/logger"
)

// SessionResolver is the part of auth.Sessions the middleware needs.
type SessionResolver interface {
	Resolve(ctx context.Context, r *http.Request) (*oauth2.Token, string, error)
}

// RequireSession validates the session cookie and attaches the OAuth token
// and session id to the request context. Requests without a live session get
// a 401 JSON body.
func RequireSession(sessions SessionResolver, log *logger.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = logger.Nop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok, id, err := sessions.Resolve(r.Context(), r)
			if err != nil {
				if !errors.Is(err, core.ErrUnauthorized) {
					log.Error("session lookup failed", "error", err)
				}
				writeUnauthorized(w)
				return
			}
			ctx := auth.WithSessionID(auth.WithToken(r.Context(), tok), id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "Not authenticated"})
}
