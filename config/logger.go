package config

import (
	"io"
	"log/slog"
)

// NewLogger builds the process logger: JSON in production, text elsewhere.
func NewLogger(w io.Writer, cfg Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// LoggerOptions scope a logger to one component and operation.
type LoggerOptions struct {
	Layer     string
	Location  string
	Method    string
	RequestID string
}

// BuildLogger returns logger enriched with opts; empty fields are omitted.
func BuildLogger(logger *slog.Logger, opts LoggerOptions) *slog.Logger {
	var attrs []any
	for _, kv := range [][2]string{
		{"layer", opts.Layer},
		{"location", opts.Location},
		{"method", opts.Method},
		{"request_id", opts.RequestID},
	} {
		if kv[1] != "" {
			attrs = append(attrs, kv[0], kv[1])
		}
	}
	return logger.With(attrs...)
}
