package typed

import (
	"net/http"

	"github.com/platform-smith-labs/tourbook/handler"
	httpMiddleware "github.com/platform-smith-labs/tourbook/middleware/http"
)

// WithRequestID copies the id assigned by http.WithRequestID into
// ctx.RequestID and scopes ctx.Logger to it. Put it first in the chain so
// every later log line is correlated.
func WithRequestID[ParamTypeT any, BodyTypeT any, ResponseBodyT any](
	next handler.Handler[ParamTypeT, BodyTypeT, ResponseBodyT],
) handler.Handler[ParamTypeT, BodyTypeT, ResponseBodyT] {
	return func(ctx handler.HandlerContext[ParamTypeT, BodyTypeT], w http.ResponseWriter, r *http.Request) (ResponseBodyT, error) {
		if requestID := httpMiddleware.GetRequestID(r); requestID != "" {
			ctx.RequestID = handler.NewNullable(requestID)
			ctx.Logger = ctx.Logger.With("request_id", requestID)
		}
		return next(ctx, w, r)
	}
}
