package typed

import (
	"net/http"

	"github.com/platform-smith-labs/tourbook/core"
	"github.com/platform-smith-labs/tourbook/handler"
)

// ResponseJSON writes the handler result as JSON once the chain succeeds:
// 201 for POST, 204 without a body for DELETE and 200 otherwise. Errors are
// left to the adapter.
func ResponseJSON[ParamTypeT any, BodyTypeT any, ResponseBodyT any](next handler.Handler[ParamTypeT, BodyTypeT, ResponseBodyT]) handler.Handler[ParamTypeT, BodyTypeT, ResponseBodyT] {
	return func(ctx handler.HandlerContext[ParamTypeT, BodyTypeT], w http.ResponseWriter, r *http.Request) (ResponseBodyT, error) {
		responseData, err := next(ctx, w, r)
		if err != nil {
			return responseData, err
		}

		switch r.Method {
		case http.MethodPost:
			return writeJSON(ctx, w, r, http.StatusCreated, responseData)
		case http.MethodDelete:
			return responseData, core.NoContent(w)
		default:
			return writeJSON(ctx, w, r, http.StatusOK, responseData)
		}
	}
}

// ResponseStatus is ResponseJSON with a fixed status code, for actions such
// as POST /verify-otp that do not create a resource.
//
//	typed.ResponseStatus[struct{}, VerifyBody, core.Envelope](http.StatusOK)
func ResponseStatus[ParamTypeT any, BodyTypeT any, ResponseBodyT any](status int) handler.Middleware[ParamTypeT, BodyTypeT, ResponseBodyT] {
	return func(next handler.Handler[ParamTypeT, BodyTypeT, ResponseBodyT]) handler.Handler[ParamTypeT, BodyTypeT, ResponseBodyT] {
		return func(ctx handler.HandlerContext[ParamTypeT, BodyTypeT], w http.ResponseWriter, r *http.Request) (ResponseBodyT, error) {
			responseData, err := next(ctx, w, r)
			if err != nil {
				return responseData, err
			}
			return writeJSON(ctx, w, r, status, responseData)
		}
	}
}

func writeJSON[ParamTypeT any, BodyTypeT any, ResponseBodyT any](
	ctx handler.HandlerContext[ParamTypeT, BodyTypeT],
	w http.ResponseWriter,
	r *http.Request,
	status int,
	data ResponseBodyT,
) (ResponseBodyT, error) {
	if err := core.JSON(w, status, data); err != nil {
		// Headers are already sent; nothing more can reach the client.
		ctx.Logger.Error("Failed to write JSON response", "error", err.Error(), "path", r.URL.Path)
	}
	return data, nil
}
