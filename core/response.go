package core

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Envelope is the JSON body shape shared by every endpoint:
//
//	{"status": "success", "results": 3, "data": {...}}
//	{"status": "fail", "message": "Invalid credentials"}
type Envelope struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Token   string `json:"token,omitempty"`
	Results *int   `json:"results,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// OK builds a success envelope around data.
func OK(data any) Envelope {
	return Envelope{Status: StatusSuccess, Data: data}
}

// Counted builds a success envelope that also reports the number of results.
func Counted(n int, data any) Envelope {
	return Envelope{Status: StatusSuccess, Results: &n, Data: data}
}

// Message builds a success envelope carrying only a message.
func Message(msg string) Envelope {
	return Envelope{Status: StatusSuccess, Message: msg}
}

// JSON sends a JSON response with the given status and data
func JSON[T any](w http.ResponseWriter, status int, data T) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// NoContent sends a 204 No Content response
func NoContent(w http.ResponseWriter) error {
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// Health sends a health check response. The status code is 503 when any check fails.
func Health(w http.ResponseWriter, status string, checks map[string]bool) error {
	code := http.StatusOK
	for _, ok := range checks {
		if !ok {
			code = http.StatusServiceUnavailable
		}
	}
	response := map[string]any{
		"status": status,
		"checks": checks,
	}
	return JSON(w, code, response)
}

// Error sends an error response with logging
func Error(w http.ResponseWriter, r *http.Request, status int, message string) error {
	apiErr := NewAPIError(status, message)
	return WriteAPIError(w, r, *apiErr)
}

// WriteAPIError sends an error response for APIError types with comprehensive logging
func WriteAPIError(w http.ResponseWriter, r *http.Request, apiErr APIError) error {
	logFields := []any{
		"status", apiErr.Code,
		"message", apiErr.Message,
	}

	if apiErr.Detail != "" {
		logFields = append(logFields, "detail", apiErr.Detail)
	}

	if len(apiErr.Fields) > 0 {
		logFields = append(logFields, "validation_field_count", len(apiErr.Fields))
		logFields = append(logFields, "validation_fields", apiErr.Fields)
	}

	if apiErr.Errors != nil {
		logFields = append(logFields, "validation_errors", apiErr.Errors)
	}

	logFields = append(logFields, extractRequestContext(r)...)

	if apiErr.Code >= 500 {
		slog.Error("API error response", logFields...)
	} else if apiErr.Code >= 400 {
		slog.Warn("API error response", logFields...)
	} else {
		slog.Info("API error response", logFields...)
	}

	response := map[string]any{
		"status": apiErr.Status(),
	}
	if apiErr.Message != "" {
		response["message"] = apiErr.Message
	}
	// Server error details stay in the log.
	if apiErr.Detail != "" && apiErr.Code < 500 {
		response["detail"] = apiErr.Detail
	}
	if len(apiErr.Fields) > 0 {
		response["fields"] = apiErr.Fields
	}
	if apiErr.Errors != nil {
		response["errors"] = apiErr.Errors
	}
	return JSON(w, apiErr.Code, response)
}

// extractRequestContext extracts useful request context for logging
func extractRequestContext(r *http.Request) []any {
	logFields := []any{
		"method", r.Method,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr,
		"user_agent", r.Header.Get("User-Agent"),
	}

	if r.URL.RawQuery != "" {
		logFields = append(logFields, "query", r.URL.RawQuery)
	}

	if requestID := r.Header.Get("X-Request-ID"); requestID != "" {
		logFields = append(logFields, "request_id", requestID)
	}

	return logFields
}
