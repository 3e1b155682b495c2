package typed

import (
	"errors"
	"net/http"
	"time"

	"github.com/platform-smith-labs/tourbook/core"
	"github.com/platform-smith-labs/tourbook/handler"
)

// WithLogging logs the outcome of the rest of the chain with ctx.Logger,
// including the status a rejected request is rendered with. Place it after
// WithRequestID so the lines carry the request id, and after RequireAuth to
// record the caller.
func WithLogging[ParamTypeT any, BodyTypeT any, ResponseBodyT any](
	next handler.Handler[ParamTypeT, BodyTypeT, ResponseBodyT],
) handler.Handler[ParamTypeT, BodyTypeT, ResponseBodyT] {
	return func(ctx handler.HandlerContext[ParamTypeT, BodyTypeT], w http.ResponseWriter, r *http.Request) (ResponseBodyT, error) {
		start := time.Now()

		response, err := next(ctx, w, r)

		attrs := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if id, ok := ctx.UserUUID.TryValue(); ok {
			attrs = append(attrs, "user_id", id.String())
		}

		if err == nil {
			ctx.Logger.Info("Handler completed", attrs...)
			return response, nil
		}

		var apiErr *core.APIError
		if errors.As(err, &apiErr) && apiErr.Code < http.StatusInternalServerError {
			ctx.Logger.Warn("Handler rejected request", append(attrs, "status", apiErr.Code, "error", apiErr.Message)...)
		} else {
			ctx.Logger.Error("Handler failed", append(attrs, "error", err.Error())...)
		}
		return response, err
	}
}
