package handler

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/platform-smith-labs/tourbook/core"
	"github.com/platform-smith-labs/tourbook/schema"
)

// AdaptHandler converts Handler[ParamTypeT, BodyTypeT, ResponseBodyT] to http.HandlerFunc.
//
// It injects the database and logger into the handler context and renders
// errors. Context cancellation is not answered, a deadline becomes a 504,
// *core.APIError anywhere in the chain is rendered as is and anything else is a 500.
//
// Example:
//
//	h := MakeHandler(reg, RouteInfo{Method: "GET", Path: "/api/v1/tours/{id}"}, getTour, typed.ParseParams, typed.ResponseJSON)
//	r.Get("/api/v1/tours/{id}", AdaptHandler(db, logger, h))
func AdaptHandler[ParamTypeT any, BodyTypeT any, ResponseBodyT any](
	db *sql.DB,
	logger *slog.Logger,
	handler Handler[ParamTypeT, BodyTypeT, ResponseBodyT],
) http.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := HandlerContext[ParamTypeT, BodyTypeT]{
			Context:   r.Context(),
			DB:        db,
			Logger:    logger,
			Validated: Nil[schema.Normalized](),
			UserUUID:  Nil[uuid.UUID](),
			UserRole:  Nil[string](),
		}

		_, err := handler(ctx, w, r)
		if err == nil {
			// Response writing is delegated to middleware such as ResponseJSON
			return
		}

		if errors.Is(err, context.Canceled) {
			logger.Info("Request cancelled by client", "path", r.URL.Path)
			return
		}
		if errors.Is(err, context.DeadlineExceeded) {
			logger.Error("Request timeout", "path", r.URL.Path)
			core.WriteAPIError(w, r, *core.NewAPIError(http.StatusGatewayTimeout, "Request timeout"))
			return
		}

		var apiErr *core.APIError
		if errors.As(err, &apiErr) {
			core.WriteAPIError(w, r, *apiErr)
			return
		}

		logger.Error("Handler error", "error", err.Error(), "path", r.URL.Path)
		core.Error(w, r, http.StatusInternalServerError, "Internal server error")
	}
}
