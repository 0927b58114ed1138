package handlers

import (
	"context"
	"crypto/subtle"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/markdave123-py/Synopsis/internal/auth"
	"github.com/markdave123-py/Synopsis/internal/logger"
)

// OAuthFlow is the part of auth.OAuth the handler drives.
type OAuthFlow interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
}

// SessionManager is the part of auth.Sessions the handler drives.
type SessionManager interface {
	Create(ctx context.Context, tok *oauth2.Token) (*http.Cookie, string, error)
	Resolve(ctx context.Context, r *http.Request) (*oauth2.Token, string, error)
	Destroy(ctx context.Context, r *http.Request) (*http.Cookie, error)
	StateCookie(state string) *http.Cookie
	ClearStateCookie() *http.Cookie
}

type AuthHandler struct {
	oauth    OAuthFlow
	sessions SessionManager
	log      *logger.Logger
}

func NewAuthHandler(oauth OAuthFlow, sessions SessionManager, log *logger.Logger) *AuthHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &AuthHandler{oauth: oauth, sessions: sessions, log: log.With("component", "auth_handler")}
}

// Status reports whether the caller holds a live session.
func (h *AuthHandler) Status(w http.ResponseWriter, r *http.Request) {
	_, _, err := h.sessions.Resolve(r.Context(), r)
	writeJSON(w, http.StatusOK, map[string]bool{"authenticated": err == nil})
}

// Authorize redirects to the consent screen. The state goes into a
// short-lived cookie and is checked on the callback.
func (h *AuthHandler) Authorize(w http.ResponseWriter, r *http.Request) {
	state, err := auth.NewState()
	if err != nil {
		h.log.Error("oauth state generation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not start sign-in")
		return
	}
	http.SetCookie(w, h.sessions.StateCookie(state))
	http.Redirect(w, r, h.oauth.AuthCodeURL(state), http.StatusFound)
}

// Callback exchanges the authorization code and opens a session.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		writeError(w, http.StatusBadRequest, "OAuth Error: "+e)
		return
	}

	c, err := r.Cookie(auth.StateCookie)
	state := q.Get("state")
	if err != nil || state == "" || subtle.ConstantTimeCompare([]byte(c.Value), []byte(state)) != 1 {
		writeError(w, http.StatusBadRequest, "OAuth Error: state mismatch")
		return
	}
	http.SetCookie(w, h.sessions.ClearStateCookie())

	code := q.Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "OAuth Error: missing code")
		return
	}
	tok, err := h.oauth.Exchange(r.Context(), code)
	if err != nil {
		h.log.Warn("oauth exchange failed", "error", err)
		writeError(w, http.StatusBadRequest, "OAuth Error: code exchange failed")
		return
	}

	cookie, id, err := h.sessions.Create(r.Context(), tok)
	if err != nil {
		h.log.Error("session create failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not create session")
		return
	}
	h.log.Info("session created", "session_id", id)
	http.SetCookie(w, cookie)
	http.Redirect(w, r, "/", http.StatusFound)
}

// Logout drops the session. It succeeds without one.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := h.sessions.Destroy(r.Context(), r)
	if err != nil {
		h.log.Error("session delete failed", "error", err)
	}
	http.SetCookie(w, cookie)
	writeJSON(w, http.StatusOK, map[string]bool{"authenticated": false})
}
