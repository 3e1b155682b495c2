package core

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
)

// HandlerFunc represents a handler that can return an error for cleaner composition
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// ServeHTTP converts our custom HandlerFunc to standard http.Handler
func (h HandlerFunc) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := h(w, r); err != nil {
		handleError(w, r, err)
	}
}

// APIError represents a structured API error.
//
// Fields carries flat per-field messages produced by struct tag validation.
// Errors carries an arbitrary structured payload, such as the nested report
// the validation gate renders.
type APIError struct {
	Code    int               `json:"-"`
	Message string            `json:"message,omitempty"`
	Detail  string            `json:"detail,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
	Errors  any               `json:"errors,omitempty"`
}

func (e APIError) Error() string {
	msg := fmt.Sprintf("API Error %d: %s", e.Code, e.Message)

	if e.Detail != "" {
		msg += fmt.Sprintf(" - %s", e.Detail)
	}

	if len(e.Fields) > 0 {
		fields := make([]string, 0, len(e.Fields))
		for k, v := range e.Fields {
			fields = append(fields, fmt.Sprintf("%s=%s", k, v))
		}
		sort.Strings(fields)
		msg += fmt.Sprintf(" [fields: %s]", strings.Join(fields, ", "))
	}

	return msg
}

// Status returns the envelope status matching the error code.
func (e APIError) Status() string {
	return EnvelopeStatus(e.Code)
}

// NewAPIError creates a new API error
func NewAPIError(code int, message string, detail ...string) *APIError {
	err := &APIError{
		Code:    code,
		Message: message,
	}
	if len(detail) > 0 {
		err.Detail = detail[0]
	}
	return err
}

// NewValidationError creates a new validation error with field details
func NewValidationError(message string) *APIError {
	return &APIError{
		Code:    http.StatusBadRequest,
		Message: message,
		Fields:  make(map[string]string),
	}
}

// NewReportError creates a 400 error whose body is the given structured
// report, without a top-level message.
func NewReportError(report any) *APIError {
	return &APIError{
		Code:   http.StatusBadRequest,
		Errors: report,
	}
}

// AddField adds a field error to the APIError and returns the error for chaining
func (e *APIError) AddField(fieldName, fieldError string) *APIError {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}

	// If field already has an error, join with " || " separator
	if existing, exists := e.Fields[fieldName]; exists && strings.TrimSpace(existing) != "" {
		e.Fields[fieldName] = existing + " || " + fieldError
	} else {
		e.Fields[fieldName] = fieldError
	}

	return e
}

// ErrForbidden is returned when the caller's role may not use a route.
var ErrForbidden = &APIError{Code: http.StatusForbidden, Message: "You do not have permission for this action"}

// handleError handles errors in a centralized way
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		WriteAPIError(w, r, *apiErr)
		return
	}

	slog.Error("Unexpected error in handler",
		"original_error", err.Error(),
		"method", r.Method,
		"path", r.URL.Path,
	)

	WriteAPIError(w, r, *NewAPIError(http.StatusInternalServerError, "Internal Server Error", err.Error()))
}
