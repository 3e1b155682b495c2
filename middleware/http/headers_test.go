package http

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWithSecurityHeaders(t *testing.T) {
	for _, hsts := range []bool{false, true} {
		h := WithSecurityHeaders(hsts)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
			t.Error("Expected nosniff header")
		}
		if got := rec.Header().Get("Strict-Transport-Security") != ""; got != hsts {
			t.Errorf("hsts=%v: unexpected Strict-Transport-Security presence %v", hsts, got)
		}
	}
}

func TestWithContentType(t *testing.T) {
	h := WithContentType("text/plain; charset=utf-8")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("Hello from server side"))
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Header().Get("Content-Type") != "text/plain; charset=utf-8" {
		t.Errorf("Unexpected Content-Type %q", rec.Header().Get("Content-Type"))
	}
}

func TestWithLogging_RecordsStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	h := WithRequestID()(WithLogging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"status":"fail"}`))
	})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/tours/missing", nil))

	out := buf.String()
	for _, want := range []string{"level=WARN", "status=404", "bytes=17", "request_id="} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in log line %q", want, out)
		}
	}
}
