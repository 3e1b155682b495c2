// Package typed holds the middleware of the typed handler chain. Each one
// wraps Handler[ParamTypeT, BodyTypeT, ResponseBodyT], enriches the
// HandlerContext and hands over to the next link.
package typed

import (
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/platform-smith-labs/tourbook/core"
	"github.com/platform-smith-labs/tourbook/handler"
	"github.com/platform-smith-labs/tourbook/schema"
)

// ParseParams fills ParamTypeT from path parameters (`param:"id"`) and query
// parameters (`query:"year"`), converts them to the field types and runs the
// `validate` tags.
//
//	type TourParams struct {
//	    ID uuid.UUID `param:"id" validate:"required"`
//	}
//	MakeHandler(reg, info, getTour, typed.ParseParams, typed.ResponseJSON)
func ParseParams[ParamTypeT any, BodyTypeT any, ResponseBodyT any](next handler.Handler[ParamTypeT, BodyTypeT, ResponseBodyT]) handler.Handler[ParamTypeT, BodyTypeT, ResponseBodyT] {
	return func(ctx handler.HandlerContext[ParamTypeT, BodyTypeT], w http.ResponseWriter, r *http.Request) (ResponseBodyT, error) {
		var zeroResponse ResponseBodyT

		if isEmptyStruct[ParamTypeT]() {
			ctx.Params = handler.Nil[ParamTypeT]()
			return next(ctx, w, r)
		}

		var params ParamTypeT
		val := reflect.ValueOf(&params).Elem()
		typ := val.Type()
		query := r.URL.Query()

		for i := 0; i < val.NumField(); i++ {
			fieldType := typ.Field(i)

			kind, name := "parameter", fieldType.Tag.Get("param")
			var raw string
			switch {
			case name != "":
				raw = chi.URLParam(r, name)
			case fieldType.Tag.Get("query") != "":
				kind, name = "query parameter", fieldType.Tag.Get("query")
				raw = query.Get(name)
			default:
				continue
			}

			if raw == "" && isRequired(fieldType) {
				return zeroResponse, core.NewAPIError(http.StatusBadRequest,
					fmt.Sprintf("Required %s '%s' is missing", kind, name))
			}
			if err := setFieldValue(val.Field(i), raw); err != nil {
				return zeroResponse, core.NewAPIError(http.StatusBadRequest,
					fmt.Sprintf("Invalid %s '%s': %s", kind, name, err.Error()))
			}
		}

		if err := validate.Struct(params); err != nil {
			return zeroResponse, fieldError("Parameter validation failed", err)
		}

		ctx.Params = handler.NewNullable(params)
		return next(ctx, w, r)
	}
}

// ParseBody materializes BodyTypeT for the handler.
//
// Behind ValidateBody the normalized payload is decoded into BodyTypeT with
// the json tag names, so handlers only ever see data that passed the gate.
// Without a gate the raw JSON body is decoded and its `validate` tags are run.
//
//	MakeHandler(reg, info, signup,
//	    typed.ValidateBody[struct{}, SignupBody, core.Envelope](gate, schemas.CreateUser),
//	    typed.ParseBody,
//	    typed.ResponseJSON)
func ParseBody[ParamTypeT any, BodyTypeT any, ResponseBodyT any](next handler.Handler[ParamTypeT, BodyTypeT, ResponseBodyT]) handler.Handler[ParamTypeT, BodyTypeT, ResponseBodyT] {
	return func(ctx handler.HandlerContext[ParamTypeT, BodyTypeT], w http.ResponseWriter, r *http.Request) (ResponseBodyT, error) {
		var zeroResponse ResponseBodyT

		if isEmptyStruct[BodyTypeT]() {
			ctx.Body = handler.Nil[BodyTypeT]()
			return next(ctx, w, r)
		}

		if normalized, ok := ctx.Validated.TryValue(); ok {
			body, err := schema.Decode[BodyTypeT](normalized)
			if err != nil {
				return zeroResponse, fmt.Errorf("decode validated body: %w", err)
			}
			ctx.Body = handler.NewNullable(body)
			return next(ctx, w, r)
		}

		if r.ContentLength == 0 {
			return zeroResponse, core.NewAPIError(http.StatusBadRequest, "Request body is required")
		}

		var body BodyTypeT
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil {
			return zeroResponse, core.NewAPIError(http.StatusBadRequest, "Invalid JSON format", err.Error())
		}
		if err := validate.Struct(body); err != nil {
			return zeroResponse, fieldError("Validation failed", err)
		}

		ctx.Body = handler.NewNullable(body)
		return next(ctx, w, r)
	}
}

// isEmptyStruct reports whether T is struct{}, the marker for "nothing expected".
func isEmptyStruct[T any]() bool {
	t := reflect.TypeFor[T]()
	return t.Kind() == reflect.Struct && t.NumField() == 0
}

func isRequired(field reflect.StructField) bool {
	return strings.Contains(field.Tag.Get("validate"), "required")
}

var uuidType = reflect.TypeFor[uuid.UUID]()

// setFieldValue converts a raw path or query value into field.
func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return fmt.Errorf("field cannot be set")
	}
	if value == "" {
		field.SetZero()
		return nil
	}

	if field.Type() == uuidType {
		id, err := uuid.Parse(value)
		if err != nil {
			return fmt.Errorf("invalid UUID format: %s", value)
		}
		field.Set(reflect.ValueOf(id))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer: %s", value)
		}
		field.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid unsigned integer: %s", value)
		}
		field.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid float: %s", value)
		}
		field.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %s", value)
		}
		field.SetBool(b)
	default:
		return fmt.Errorf("unsupported field type: %s", field.Type())
	}
	return nil
}

// fieldError turns validator errors into a 400 with one entry per field.
func fieldError(message string, err error) error {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return core.NewAPIError(http.StatusBadRequest, message, err.Error())
	}

	apiErr := core.NewValidationError(message)
	for _, fe := range validationErrors {
		apiErr.AddField(fe.Field(), fieldErrorMessage(fe))
	}
	return apiErr
}

func fieldErrorMessage(fe validator.FieldError) string {
	name, param := fe.Field(), fe.Param()

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", name)
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", name, param)
		}
		return fmt.Sprintf("%s must be at least %s", name, param)
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", name, param)
		}
		return fmt.Sprintf("%s must be at most %s", name, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", name, param)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", name)
	default:
		if msg, ok := customMessage(fe.Tag()); ok {
			return fmt.Sprintf("%s %s", name, msg)
		}
		return fmt.Sprintf("%s validation failed on '%s' tag", name, fe.Tag())
	}
}
