package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

func newTestRouter(t *testing.T) (*chi.Mux, *Collector) {
	t.Helper()
	r := chi.NewRouter()
	c := New(DefaultOptions(), prometheus.NewRegistry())
	c.Mount(r, "/metrics")
	return r, c
}

func scrape(t *testing.T, r http.Handler) string {
	t.Helper()
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected metrics endpoint status 200, got %d", rec.Code)
	}
	return rec.Body.String()
}

// TestCollector_TracksRequests verifies counters are exposed per route pattern
func TestCollector_TracksRequests(t *testing.T) {
	r, _ := newTestRouter(t)
	r.Get("/api/v1/tours/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"a", "b", "c"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/tours/"+id, nil))
	}

	body := scrape(t, r)
	for _, want := range []string{
		`tourbook_http_requests_total{method="GET",path="/api/v1/tours/{id}",status="404"} 3`,
		"tourbook_http_request_duration_seconds",
		"tourbook_http_requests_in_flight",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("Expected %q in metrics output", want)
		}
	}
	if strings.Contains(body, `path="/api/v1/tours/a"`) {
		t.Error("Expected raw paths to be normalized to the route pattern")
	}
}

// TestCollector_ValidationFailures verifies the gate counter is labelled by contract
func TestCollector_ValidationFailures(t *testing.T) {
	r, c := newTestRouter(t)

	c.ValidationFailed("createTour")
	c.ValidationFailed("createTour")
	c.ValidationFailed("login")

	body := scrape(t, r)
	if !strings.Contains(body, `tourbook_validation_failures_total{schema="createTour"} 2`) {
		t.Errorf("Expected two createTour failures, got:\n%s", body)
	}
	if !strings.Contains(body, `tourbook_validation_failures_total{schema="login"} 1`) {
		t.Error("Expected one login failure")
	}
}

// TestCollector_EmailSent verifies mail outcomes are counted
func TestCollector_EmailSent(t *testing.T) {
	r, c := newTestRouter(t)

	c.EmailSent("otp", "sent")
	c.EmailSent("reset", "failed")

	body := scrape(t, r)
	if !strings.Contains(body, `tourbook_emails_total{outcome="sent",template="otp"} 1`) {
		t.Error("Expected sent otp email to be counted")
	}
	if !strings.Contains(body, `tourbook_emails_total{outcome="failed",template="reset"} 1`) {
		t.Error("Expected failed reset email to be counted")
	}
}

// TestCollector_ConcurrentRequests verifies counting is race free
func TestCollector_ConcurrentRequests(t *testing.T) {
	r, _ := newTestRouter(t)
	r.Post("/api/v1/bookings", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/bookings", nil))
		}()
	}
	wg.Wait()

	if body := scrape(t, r); !strings.Contains(body, `tourbook_http_requests_total{method="POST",path="/api/v1/bookings",status="201"} 20`) {
		t.Errorf("Expected 20 bookings requests, got:\n%s", body)
	}
}

// TestCollector_IsolatedRegistries verifies two collectors can coexist
func TestCollector_IsolatedRegistries(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("Expected no duplicate registration panic, got %v", r)
		}
	}()
	New(DefaultOptions(), prometheus.NewRegistry())
	New(DefaultOptions(), prometheus.NewRegistry())
}

func BenchmarkMetricsMiddleware(b *testing.B) {
	r := chi.NewRouter()
	New(DefaultOptions(), prometheus.NewRegistry()).Mount(r, "/metrics")
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.ServeHTTP(httptest.NewRecorder(), req)
	}
}
