package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"golang.org/x/oauth2"

	"github.com/markdave123-py/Synopsis/internal/auth"
	"github.com/markdave123-py/Synopsis/internal/core"
	"github.com/markdave123-py/Synopsis/internal/observability"
)

type resolverFunc func(ctx context.Context, r *http.Request) (*oauth2.Token, string, error)

func (f resolverFunc) Resolve(ctx context.Context, r *http.Request) (*oauth2.Token, string, error) {
	return f(ctx, r)
}

func TestRequireSession(t *testing.T) {
	ok := resolverFunc(func(context.Context, *http.Request) (*oauth2.Token, string, error) {
		return &oauth2.Token{AccessToken: "tok"}, "sid-1", nil
	})
	denied := resolverFunc(func(context.Context, *http.Request) (*oauth2.Token, string, error) {
		return nil, "", core.ErrUnauthorized
	})
	broken := resolverFunc(func(context.Context, *http.Request) (*oauth2.Token, string, error) {
		return nil, "", errors.New("db down")
	})

	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok, _ := auth.TokenFrom(r.Context())
		id, _ := auth.SessionIDFrom(r.Context())
		seen = tok.AccessToken + "/" + id
		w.WriteHeader(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	RequireSession(ok, nil)(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusNoContent || seen != "tok/sid-1" {
		t.Fatalf("status %d, seen %q", rec.Code, seen)
	}

	for name, res := range map[string]SessionResolver{"denied": denied, "broken": broken} {
		rec := httptest.NewRecorder()
		RequireSession(res, nil)(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: status %d", name, rec.Code)
		}
		var body map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body["error"] != "Not authenticated" {
			t.Fatalf("%s: body %q", name, rec.Body.String())
		}
	}
}

func TestMetricsUsesRoutePattern(t *testing.T) {
	m := observability.NewMetrics()
	r := chi.NewRouter()
	r.Use(Metrics(m))
	r.Get("/api/drive/files/{id}/summary", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, id := range []string{"a", "b"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/drive/files/"+id+"/summary", nil))
	}

	got := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/api/drive/files/{id}/summary", "418"))
	if got != 2 {
		t.Fatalf("requests counted = %v", got)
	}
	if testutil.ToFloat64(m.HTTPRequestsInFlight) != 0 {
		t.Fatalf("in-flight gauge leaked")
	}
}

func TestMetricsNilIsPassThrough(t *testing.T) {
	called := false
	h := Metrics(nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if !called {
		t.Fatalf("handler not called")
	}
}
