package observability

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveGenerationCountsByOutcome(t *testing.T) {
	m := NewMetrics()
	m.ObserveGeneration("map", 10*time.Millisecond, nil)
	m.ObserveGeneration("map", 10*time.Millisecond, nil)
	m.ObserveGeneration("reduce", time.Second, errors.New("boom"))

	if got := testutil.ToFloat64(m.GenerationCalls.WithLabelValues("map", "ok")); got != 2 {
		t.Fatalf("map ok = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.GenerationCalls.WithLabelValues("reduce", "error")); got != 1 {
		t.Fatalf("reduce error = %v, want 1", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveGeneration("single", time.Millisecond, nil)
	m.ObserveDocument(DocFailed)
	m.ObserveChunks(3)
}

func TestHandlerServesRegisteredFamilies(t *testing.T) {
	m := NewMetrics()
	m.ObserveDocument(DocSummarized)
	m.ObserveChunks(4)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	body := rec.Body.String()
	for _, name := range []string{"synopsis_documents_total", "synopsis_chunks_per_document"} {
		if !strings.Contains(body, name) {
			t.Fatalf("scrape output missing %s", name)
		}
	}
}

func TestInstancesDoNotCollide(t *testing.T) {
	a, b := NewMetrics(), NewMetrics()
	a.ObserveDocument(DocEmpty)
	if got := testutil.ToFloat64(b.Documents.WithLabelValues(DocEmpty)); got != 0 {
		t.Fatalf("registries leaked between instances: %v", got)
	}
}
