package typed

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/platform-smith-labs/tourbook/handler"
	httpMiddleware "github.com/platform-smith-labs/tourbook/middleware/http"
)

func newContext[P any, B any](r *http.Request) handler.HandlerContext[P, B] {
	return handler.HandlerContext[P, B]{
		Context: r.Context(),
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// TestWithRequestID_EnrichesContext verifies the id reaches the context and the logger
func TestWithRequestID_EnrichesContext(t *testing.T) {
	var logs bytes.Buffer
	var got string

	h := WithRequestID(func(ctx handler.HandlerContext[struct{}, struct{}], w http.ResponseWriter, r *http.Request) (struct{}, error) {
		id, ok := ctx.RequestID.TryValue()
		if !ok {
			t.Error("Expected RequestID to have a value")
		}
		got = id
		ctx.Logger.Info("inside")
		return struct{}{}, nil
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tours", nil)
	req = req.WithContext(context.WithValue(req.Context(), httpMiddleware.RequestIDContextKey, "req-42"))
	ctx := newContext[struct{}, struct{}](req)
	ctx.Logger = slog.New(slog.NewTextHandler(&logs, nil))

	if _, err := h(ctx, httptest.NewRecorder(), req); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got != "req-42" {
		t.Errorf("Expected request id req-42, got %q", got)
	}
	if !strings.Contains(logs.String(), "request_id=req-42") {
		t.Errorf("Expected logger to carry request_id, got %q", logs.String())
	}
}

// TestWithRequestID_Missing verifies the handler still runs without an id
func TestWithRequestID_Missing(t *testing.T) {
	called := false
	h := WithRequestID(func(ctx handler.HandlerContext[struct{}, struct{}], w http.ResponseWriter, r *http.Request) (struct{}, error) {
		called = true
		if ctx.RequestID.HasValue() {
			t.Error("Expected no RequestID")
		}
		return struct{}{}, nil
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, err := h(newContext[struct{}, struct{}](req), httptest.NewRecorder(), req); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !called {
		t.Error("Expected next handler to be called")
	}
}
