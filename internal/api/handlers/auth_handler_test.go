package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/markdave123-py/Synopsis/internal/auth"
)

type fakeOAuth struct {
	exchanged string
	fail      bool
}

func (f *fakeOAuth) AuthCodeURL(state string) string {
	return "https://accounts.test/o/oauth2/auth?state=" + url.QueryEscape(state)
}

func (f *fakeOAuth) Exchange(_ context.Context, code string) (*oauth2.Token, error) {
	if f.fail {
		return nil, errors.New("invalid_grant")
	}
	f.exchanged = code
	return &oauth2.Token{AccessToken: "access-" + code, RefreshToken: "refresh", Expiry: time.Now().Add(time.Hour)}, nil
}

func newAuthFixture(t *testing.T) (*AuthHandler, *fakeOAuth, *auth.MemoryStore) {
	t.Helper()
	store := auth.NewMemoryStore()
	sessions, err := auth.NewSessions(store, nil, auth.SessionsConfig{Secret: "handler-test-secret-0123", TTL: time.Hour})
	if err != nil {
		t.Fatal(err)
	}
	oauth := &fakeOAuth{}
	return NewAuthHandler(oauth, sessions, nil), oauth, store
}

func cookieNamed(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func authenticated(t *testing.T, h *AuthHandler, cookies ...*http.Cookie) bool {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.Status(rec, req)
	var body map[string]bool
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("status body %q", rec.Body.String())
	}
	return body["authenticated"]
}

func TestOAuthRoundTrip(t *testing.T) {
	h, oauth, _ := newAuthFixture(t)

	if authenticated(t, h) {
		t.Fatalf("anonymous caller reported authenticated")
	}

	rec := httptest.NewRecorder()
	h.Authorize(rec, httptest.NewRequest(http.MethodGet, "/authorize", nil))
	if rec.Code != http.StatusFound {
		t.Fatalf("authorize status %d", rec.Code)
	}
	stateCookie := cookieNamed(rec, auth.StateCookie)
	if stateCookie == nil || stateCookie.Value == "" {
		t.Fatalf("no state cookie")
	}
	loc, _ := url.Parse(rec.Header().Get("Location"))
	if loc.Query().Get("state") != stateCookie.Value {
		t.Fatalf("redirect state %q != cookie %q", loc.Query().Get("state"), stateCookie.Value)
	}

	cb := httptest.NewRequest(http.MethodGet, "/oauth2callback?code=abc&state="+url.QueryEscape(stateCookie.Value), nil)
	cb.AddCookie(stateCookie)
	rec = httptest.NewRecorder()
	h.Callback(rec, cb)
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/" {
		t.Fatalf("callback status %d location %q: %s", rec.Code, rec.Header().Get("Location"), rec.Body.String())
	}
	if oauth.exchanged != "abc" {
		t.Fatalf("code not exchanged")
	}
	session := cookieNamed(rec, auth.SessionCookie)
	if session == nil || !session.HttpOnly {
		t.Fatalf("session cookie missing or readable by scripts: %+v", session)
	}
	if !authenticated(t, h, session) {
		t.Fatalf("session not recognised")
	}

	logout := httptest.NewRequest(http.MethodPost, "/logout", nil)
	logout.AddCookie(session)
	rec = httptest.NewRecorder()
	h.Logout(rec, logout)
	if cleared := cookieNamed(rec, auth.SessionCookie); cleared == nil || cleared.MaxAge >= 0 {
		t.Fatalf("logout did not clear the cookie")
	}
	if authenticated(t, h, session) {
		t.Fatalf("session still valid after logout")
	}
}

func TestCallbackRejects(t *testing.T) {
	h, oauth, _ := newAuthFixture(t)
	state := &http.Cookie{Name: auth.StateCookie, Value: "good"}

	cases := []struct {
		name   string
		query  string
		cookie *http.Cookie
		fail   bool
		want   string
	}{
		{"provider error", "error=access_denied", state, false, "access_denied"},
		{"missing state cookie", "code=c&state=good", nil, false, "state mismatch"},
		{"state mismatch", "code=c&state=evil", state, false, "state mismatch"},
		{"missing code", "state=good", state, false, "missing code"},
		{"exchange fails", "code=c&state=good", state, true, "code exchange failed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			oauth.fail = tc.fail
			req := httptest.NewRequest(http.MethodGet, "/oauth2callback?"+tc.query, nil)
			if tc.cookie != nil {
				req.AddCookie(tc.cookie)
			}
			rec := httptest.NewRecorder()
			h.Callback(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status %d", rec.Code)
			}
			if !strings.Contains(decodeError(t, rec), tc.want) {
				t.Fatalf("error %q, want %q", rec.Body.String(), tc.want)
			}
			if cookieNamed(rec, auth.SessionCookie) != nil {
				t.Fatalf("session issued on a rejected callback")
			}
		})
	}
}

func TestLogoutWithoutSession(t *testing.T) {
	h, _, _ := newAuthFixture(t)
	rec := httptest.NewRecorder()
	h.Logout(rec, httptest.NewRequest(http.MethodPost, "/logout", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
}
