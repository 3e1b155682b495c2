// Package http provides standard HTTP middleware that works with http.Handler.
// These middleware can be applied globally to Chi routers via r.Use().
package http

import (
	"log/slog"
	"net/http"
	"time"
)

// WithLogging creates structured access logging middleware for Chi.
//
// One line is written per request once the response is complete, at Info
// for 1xx-3xx, Warn for 4xx and Error for 5xx.
//
// Use: r.Use(WithLogging(logger))
func WithLogging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(ww, r)

			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.statusCode,
				"bytes", ww.bytes,
				"duration_ms", time.Since(start).Milliseconds(),
				"remote_addr", r.RemoteAddr,
			}
			if id := GetRequestID(r); id != "" {
				attrs = append(attrs, "request_id", id)
			}

			switch {
			case ww.statusCode >= 500:
				logger.Error("HTTP Response", attrs...)
			case ww.statusCode >= 400:
				logger.Warn("HTTP Response", attrs...)
			default:
				logger.Info("HTTP Response", attrs...)
			}
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code and size
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	bytes       int
	wroteHeader bool
}

func (w *responseWriter) WriteHeader(statusCode int) {
	if !w.wroteHeader {
		w.statusCode = statusCode
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
