package typed

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/platform-smith-labs/tourbook/core"
	"github.com/platform-smith-labs/tourbook/handler"
	"github.com/platform-smith-labs/tourbook/schema"
)

type bookingBody struct {
	Tour  string  `json:"tour"`
	Price float64 `json:"price"`
	Seats int64   `json:"seats"`
}

type failureCounter map[string]int

func (f failureCounter) ValidationFailed(name string) { f[name]++ }

func testGate(observer FailureObserver) Gate {
	return Gate{
		Registry: schema.NewRegistry(map[string]schema.Schema{
			"booking": schema.New(
				schema.Key("tour", schema.String().Min(1).Trim()),
				schema.Key("price", schema.Number().Positive()),
				schema.Key("seats", schema.Number().Int().Default(int64(1))),
			),
		}),
		Observer: observer,
	}
}

func TestValidateBody_Success(t *testing.T) {
	var got bookingBody
	var fromRequest schema.Normalized

	h := ValidateBody[struct{}, bookingBody, string](testGate(nil), "booking")(
		ParseBody(func(ctx handler.HandlerContext[struct{}, bookingBody], w http.ResponseWriter, r *http.Request) (string, error) {
			got = ctx.Body.Value()
			fromRequest, _ = schema.FromContext(r.Context())
			if _, ok := schema.FromContext(ctx.Context); !ok {
				t.Error("Expected normalized payload on ctx.Context")
			}
			return "ok", nil
		}),
	)

	req := httptest.NewRequest(http.MethodPost, "/bookings", strings.NewReader(`{"tour":"  forest ","price":497,"admin":true}`))
	if _, err := h(newContext[struct{}, bookingBody](req), httptest.NewRecorder(), req); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	want := bookingBody{Tour: "forest", Price: 497, Seats: 1}
	if got != want {
		t.Errorf("Expected body %+v, got %+v", want, got)
	}
	if _, leaked := fromRequest["admin"]; leaked {
		t.Error("Expected undeclared keys to be stripped")
	}
}

func TestValidateBody_Failure(t *testing.T) {
	failures := failureCounter{}
	called := false
	h := ValidateBody[struct{}, struct{}, string](testGate(failures), "booking")(
		func(ctx handler.HandlerContext[struct{}, struct{}], w http.ResponseWriter, r *http.Request) (string, error) {
			called = true
			return "", nil
		},
	)

	req := httptest.NewRequest(http.MethodPost, "/bookings", strings.NewReader(`{"price":-3}`))
	_, err := h(newContext[struct{}, struct{}](req), httptest.NewRecorder(), req)

	var apiErr *core.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 APIError, got %v", err)
	}
	if called {
		t.Error("Expected handler not to run")
	}
	report, ok := apiErr.Errors.(map[string]any)
	if !ok {
		t.Fatalf("Expected formatted report, got %T", apiErr.Errors)
	}
	tour := report["tour"].(map[string]any)
	if !reflect.DeepEqual(tour["_errors"], []string{"Required"}) {
		t.Errorf("Expected tour Required, got %v", tour["_errors"])
	}
	if _, ok := report["price"]; !ok {
		t.Error("Expected price to be reported")
	}
	if failures["booking"] != 1 {
		t.Errorf("Expected one failure observed, got %d", failures["booking"])
	}
}

func TestValidateBody_EmptyAndMalformed(t *testing.T) {
	h := ValidateBody[struct{}, struct{}, string](testGate(nil), "booking")(
		func(ctx handler.HandlerContext[struct{}, struct{}], w http.ResponseWriter, r *http.Request) (string, error) {
			return "", nil
		},
	)

	req := httptest.NewRequest(http.MethodPost, "/bookings", nil)
	_, err := h(newContext[struct{}, struct{}](req), httptest.NewRecorder(), req)
	if apiErr, ok := err.(*core.APIError); !ok || apiErr.Errors == nil {
		t.Errorf("Expected an empty body to produce a field report, got %v", err)
	}

	req = httptest.NewRequest(http.MethodPost, "/bookings", strings.NewReader(`{"tour":`))
	_, err = h(newContext[struct{}, struct{}](req), httptest.NewRecorder(), req)
	if apiErr, ok := err.(*core.APIError); !ok || apiErr.Message != "Invalid JSON format" {
		t.Errorf("Expected Invalid JSON format, got %v", err)
	}
}

func TestValidateBody_UnknownSchemaPanicsAtWiring(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Expected panic for unknown schema")
		}
	}()
	ValidateBody[struct{}, struct{}, string](testGate(nil), "nope")
}
