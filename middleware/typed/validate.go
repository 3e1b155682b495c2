package typed

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/platform-smith-labs/tourbook/core"
	"github.com/platform-smith-labs/tourbook/handler"
	"github.com/platform-smith-labs/tourbook/schema"
)

// maxBodyBytes caps the JSON bodies the gate accepts.
const maxBodyBytes = 1 << 20

// FailureObserver is notified each time the gate rejects a payload.
type FailureObserver interface {
	ValidationFailed(schemaName string)
}

// Gate binds route wiring to the schema registry.
type Gate struct {
	Registry *schema.Registry
	Observer FailureObserver
}

// ValidateBody validates the JSON body against the contract registered under
// name. On success the normalized payload is stored in ctx.Validated and in
// the request context, and the handler runs. On failure the handler never
// runs and the client receives 400 {"status":"fail","errors":{...}}.
//
// An unknown name panics when the route is wired, never per request.
//
//	typed.ValidateBody[struct{}, SignupBody, core.Envelope](gate, schemas.CreateUser)
func ValidateBody[ParamTypeT any, BodyTypeT any, ResponseBodyT any](gate Gate, name string) handler.Middleware[ParamTypeT, BodyTypeT, ResponseBodyT] {
	contract := gate.Registry.MustGet(name)

	return func(next handler.Handler[ParamTypeT, BodyTypeT, ResponseBodyT]) handler.Handler[ParamTypeT, BodyTypeT, ResponseBodyT] {
		return func(ctx handler.HandlerContext[ParamTypeT, BodyTypeT], w http.ResponseWriter, r *http.Request) (ResponseBodyT, error) {
			var zeroResponse ResponseBodyT

			raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
			if err != nil {
				return zeroResponse, core.NewAPIError(http.StatusBadRequest, "Failed to read request body", err.Error())
			}
			ctx.BodyRaw = handler.NewNullable(raw)
			r.Body = io.NopCloser(bytes.NewReader(raw))

			// An absent body is validated as an empty object so required keys are reported.
			var candidate any = map[string]any{}
			if len(bytes.TrimSpace(raw)) > 0 {
				dec := json.NewDecoder(bytes.NewReader(raw))
				dec.UseNumber()
				if err := dec.Decode(&candidate); err != nil {
					return zeroResponse, core.NewAPIError(http.StatusBadRequest, "Invalid JSON format", err.Error())
				}
			}

			normalized, err := contract.Validate(candidate)
			if err != nil {
				if gate.Observer != nil {
					gate.Observer.ValidationFailed(name)
				}
				if report, ok := err.(schema.Report); ok {
					ctx.Logger.Debug("Payload rejected", "schema", name, "paths", report.Paths())
					return zeroResponse, core.NewReportError(report.Format())
				}
				return zeroResponse, err
			}

			ctx.Validated = handler.NewNullable(normalized)
			r = r.WithContext(schema.WithNormalized(r.Context(), normalized))
			ctx.Context = r.Context()
			return next(ctx, w, r)
		}
	}
}
