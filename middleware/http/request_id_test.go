package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func captureRequestID(t *testing.T, header string) (string, *httptest.ResponseRecorder) {
	t.Helper()
	var captured string
	h := WithRequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = GetRequestID(r)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tours", nil)
	if header != "" {
		req.Header.Set(RequestIDHeader, header)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return captured, rec
}

// TestWithRequestID_GeneratesNewID verifies a UUID is generated when none is sent
func TestWithRequestID_GeneratesNewID(t *testing.T) {
	id, rec := captureRequestID(t, "")

	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("Expected valid UUID, got %q: %v", id, err)
	}
	if rec.Header().Get(RequestIDHeader) != id {
		t.Errorf("Expected response header %q, got %q", id, rec.Header().Get(RequestIDHeader))
	}
}

// TestWithRequestID_PropagatesExisting verifies well-formed incoming ids are reused
func TestWithRequestID_PropagatesExisting(t *testing.T) {
	id, rec := captureRequestID(t, "edge-7f3a.1")

	if id != "edge-7f3a.1" {
		t.Errorf("Expected propagated id, got %q", id)
	}
	if rec.Header().Get(RequestIDHeader) != "edge-7f3a.1" {
		t.Error("Expected response header to echo the propagated id")
	}
}

// TestWithRequestID_RejectsMalformed verifies hostile ids are replaced
func TestWithRequestID_RejectsMalformed(t *testing.T) {
	for _, header := range []string{"has spaces", "line\nbreak", strings.Repeat("a", 200)} {
		id, _ := captureRequestID(t, header)
		if id == header {
			t.Errorf("Expected %q to be replaced", header)
		}
		if _, err := uuid.Parse(id); err != nil {
			t.Errorf("Expected generated UUID, got %q", id)
		}
	}
}

// TestGetRequestID_ReturnsEmpty verifies GetRequestID without the middleware
func TestGetRequestID_ReturnsEmpty(t *testing.T) {
	if id := GetRequestID(httptest.NewRequest(http.MethodGet, "/", nil)); id != "" {
		t.Errorf("Expected empty string, got %q", id)
	}
}
