package handler

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"reflect"

	"github.com/google/uuid"

	"github.com/platform-smith-labs/tourbook/schema"
)

// HandlerContext contains application dependencies and request-scoped data
// ParamTypeT represents the type of parameters (URL/query params)
// BodyTypeT represents the type of request body
type HandlerContext[ParamTypeT any, BodyTypeT any] struct {
	// Request context (propagated from r.Context())
	// Used for cancellation, timeouts, and trace propagation
	Context context.Context

	// Application dependencies
	DB     *sql.DB
	Logger *slog.Logger

	// Request-scoped data
	Params    Nullable[ParamTypeT]        // Parameters from URL/query
	Body      Nullable[BodyTypeT]         // Request body decoded by ParseBody or ParseUpload
	BodyRaw   Nullable[[]byte]            // Raw request body bytes read by ValidateBody
	Validated Nullable[schema.Normalized] // Payload normalized by the validation gate
	RequestID Nullable[string]            // Correlation id set by WithRequestID

	// Authentication data (set by RequireAuth middleware)
	UserUUID Nullable[uuid.UUID]
	UserRole Nullable[string]
}

// Handler represents a generic handler function that receives typed context and returns response data
type Handler[ParamTypeT any, BodyTypeT any, ResponseBodyT any] func(ctx HandlerContext[ParamTypeT, BodyTypeT], w http.ResponseWriter, r *http.Request) (ResponseBodyT, error)

// Middleware represents a function that wraps a Handler and can enrich the context
type Middleware[ParamTypeT any, BodyTypeT any, ResponseBodyT any] func(Handler[ParamTypeT, BodyTypeT, ResponseBodyT]) Handler[ParamTypeT, BodyTypeT, ResponseBodyT]

// RouteInfo holds route metadata for registration and documentation
type RouteInfo struct {
	Method      string   // HTTP method (GET, POST, PUT, DELETE, etc.)
	Path        string   // Route path pattern
	Summary     string   // Optional: Brief description for Swagger (auto-generated if empty)
	Description string   // Optional: Detailed description for Swagger (auto-generated if empty)
	Tags        []string // Optional: Tags for grouping in Swagger UI
	BodySchema  string   // Optional: registry name of the contract guarding the body
}

// AdaptableHandler interface knows how to create an adapted http.HandlerFunc
type AdaptableHandler interface {
	Adapt(database *sql.DB, logger *slog.Logger) http.HandlerFunc
}

// TypedHandler wraps any Handler type and implements AdaptableHandler
type TypedHandler[ParamTypeT any, BodyTypeT any, ResponseBodyT any] struct {
	handler Handler[ParamTypeT, BodyTypeT, ResponseBodyT]
}

// Adapt converts the typed handler to http.HandlerFunc using AdaptHandler
func (th TypedHandler[ParamTypeT, BodyTypeT, ResponseBodyT]) Adapt(database *sql.DB, logger *slog.Logger) http.HandlerFunc {
	return AdaptHandler(database, logger, th.handler)
}

// PendingRoute stores route information for handlers that need to be registered later
type PendingRoute struct {
	Method          string
	Path            string
	Handler         AdaptableHandler
	RouteInfo       RouteInfo
	MiddlewareNames []string // Names of middleware functions applied to this route
	ParamType       reflect.Type
	BodyType        reflect.Type
	ResponseType    reflect.Type
}
