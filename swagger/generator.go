// Package swagger generates the OpenAPI 2.0 document of the routes in a
// handler.Registry. Request bodies guarded by the validation gate are
// described from their contracts; everything else comes from reflection over
// the route's type parameters.
package swagger

import (
	"encoding/json"
	"net/http"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/go-openapi/spec"
	"github.com/google/uuid"

	"github.com/platform-smith-labs/tourbook/handler"
	"github.com/platform-smith-labs/tourbook/schema"
)

// Info is the header of the generated document.
type Info struct {
	Title       string
	Description string
	Version     string
	Host        string
}

// DefaultInfo describes the tourbook API.
var DefaultInfo = Info{
	Title:       "Tourbook API",
	Description: "Tour booking API: accounts with OTP verification, tours, bookings and reviews",
	Version:     "1.0.0",
	Host:        "localhost:8080",
}

var (
	timeType  = reflect.TypeFor[time.Time]()
	uuidType  = reflect.TypeFor[uuid.UUID]()
	emptyType = reflect.TypeFor[struct{}]()
)

// GenerateSpec builds the document for every route of reg. contracts may be
// nil, in which case bodies are described from their Go types only.
func GenerateSpec(info Info, reg *handler.Registry, contracts *schema.Registry) *spec.Swagger {
	doc := &spec.Swagger{
		SwaggerProps: spec.SwaggerProps{
			Swagger: "2.0",
			Info: &spec.Info{InfoProps: spec.InfoProps{
				Title:       info.Title,
				Description: info.Description,
				Version:     info.Version,
			}},
			Host:        info.Host,
			BasePath:    "/",
			Schemes:     []string{"http", "https"},
			Paths:       &spec.Paths{Paths: make(map[string]spec.PathItem)},
			Definitions: make(spec.Definitions),
			SecurityDefinitions: spec.SecurityDefinitions{
				"BearerAuth": {SecuritySchemeProps: spec.SecuritySchemeProps{
					Type:        "apiKey",
					Name:        "Authorization",
					In:          "header",
					Description: "Session JWT with 'Bearer ' prefix; the jwt cookie is accepted too",
				}},
			},
		},
	}

	g := generator{doc: doc, contracts: contracts}
	for _, route := range reg.GetRoutes() {
		item := doc.Paths.Paths[route.Path]
		op := g.operation(route)
		switch strings.ToUpper(route.Method) {
		case http.MethodGet:
			item.Get = op
		case http.MethodPost:
			item.Post = op
		case http.MethodPut:
			item.Put = op
		case http.MethodPatch:
			item.Patch = op
		case http.MethodDelete:
			item.Delete = op
		case http.MethodHead:
			item.Head = op
		case http.MethodOptions:
			item.Options = op
		}
		doc.Paths.Paths[route.Path] = item
	}
	return doc
}

// GenerateJSON returns the document as indented JSON.
func GenerateJSON(info Info, reg *handler.Registry, contracts *schema.Registry) ([]byte, error) {
	return json.MarshalIndent(GenerateSpec(info, reg, contracts), "", "  ")
}

type generator struct {
	doc       *spec.Swagger
	contracts *schema.Registry
}

func (g generator) operation(route handler.PendingRoute) *spec.Operation {
	op := &spec.Operation{OperationProps: spec.OperationProps{
		ID:          operationID(route),
		Summary:     route.RouteInfo.Summary,
		Description: route.RouteInfo.Description,
		Tags:        route.RouteInfo.Tags,
		Consumes:    []string{"application/json"},
		Produces:    []string{"application/json"},
		Responses:   &spec.Responses{ResponsesProps: spec.ResponsesProps{StatusCodeResponses: make(map[int]spec.Response)}},
	}}

	if route.ParamType != nil && route.ParamType.Kind() == reflect.Struct {
		op.Parameters = append(op.Parameters, paramsFromStruct(route.ParamType)...)
	}
	g.addBody(op, route)

	success := successStatus(route)
	resp := spec.Response{ResponseProps: spec.ResponseProps{Description: http.StatusText(success)}}
	if success != http.StatusNoContent && route.ResponseType != nil && route.ResponseType != emptyType {
		resp.Schema = g.typeSchema(route.ResponseType)
	}
	op.Responses.StatusCodeResponses[success] = resp

	errs := map[int]string{
		http.StatusBadRequest:          "Validation failed or invalid request",
		http.StatusInternalServerError: "Internal server error",
	}
	if requiresAuth(route) {
		op.Security = []map[string][]string{{"BearerAuth": {}}}
		errs[http.StatusUnauthorized] = "Missing, invalid or orphaned session token"
		if slices.Contains(route.MiddlewareNames, "RestrictTo") {
			errs[http.StatusForbidden] = "Role not allowed"
		}
	}
	if strings.Contains(route.Path, "{") {
		errs[http.StatusNotFound] = "Resource not found"
	}
	for code, desc := range errs {
		op.Responses.StatusCodeResponses[code] = spec.Response{ResponseProps: spec.ResponseProps{Description: desc}}
	}
	return op
}

func (g generator) addBody(op *spec.Operation, route handler.PendingRoute) {
	if name := route.RouteInfo.BodySchema; name != "" && g.contracts != nil {
		if contract, err := g.contracts.Get(name); err == nil {
			g.doc.Definitions[name] = contractSchema(contract)
			op.Parameters = append(op.Parameters, bodyParam(name))
			return
		}
	}

	body := route.BodyType
	switch {
	case body == nil || body == emptyType:
	case body.Kind() == reflect.Slice && slices.Contains(route.MiddlewareNames, "ParseUpload"):
		op.Consumes = []string{"multipart/form-data"}
		op.Parameters = append(op.Parameters, spec.Parameter{
			ParamProps:   spec.ParamProps{Name: "file", In: "formData", Required: true, Description: "CSV (.csv) or JSON array (.json) file"},
			SimpleSchema: spec.SimpleSchema{Type: "file"},
		})
	case body.Kind() == reflect.Struct:
		g.typeSchema(body)
		op.Parameters = append(op.Parameters, bodyParam(body.Name()))
	}
}

func bodyParam(definition string) spec.Parameter {
	return spec.Parameter{ParamProps: spec.ParamProps{
		Name:     "body",
		In:       "body",
		Required: true,
		Schema:   spec.RefSchema("#/definitions/" + definition),
	}}
}

// typeSchema describes t, registering named structs as definitions.
func (g generator) typeSchema(t reflect.Type) *spec.Schema {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch {
	case t == timeType:
		return spec.DateTimeProperty()
	case t == uuidType:
		return spec.StrFmtProperty("uuid")
	}

	switch t.Kind() {
	case reflect.String:
		return spec.StringProperty()
	case reflect.Bool:
		return spec.BoolProperty()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return spec.Int64Property()
	case reflect.Float32, reflect.Float64:
		return spec.Float64Property()
	case reflect.Slice, reflect.Array:
		return spec.ArrayProperty(g.typeSchema(t.Elem()))
	case reflect.Map, reflect.Interface:
		return &spec.Schema{SchemaProps: spec.SchemaProps{Type: []string{"object"}}}
	case reflect.Struct:
		name := t.Name()
		if name == "" {
			return g.structSchema(t)
		}
		if _, seen := g.doc.Definitions[name]; !seen {
			// Placeholder first so self-referencing types terminate.
			g.doc.Definitions[name] = spec.Schema{}
			g.doc.Definitions[name] = *g.structSchema(t)
		}
		return spec.RefSchema("#/definitions/" + name)
	default:
		return spec.StringProperty()
	}
}

func (g generator) structSchema(t reflect.Type) *spec.Schema {
	s := &spec.Schema{SchemaProps: spec.SchemaProps{Type: []string{"object"}, Properties: make(spec.SchemaProperties)}}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			continue
		}
		if f.Anonymous && name == "" && f.Type.Kind() == reflect.Struct {
			embedded := g.structSchema(f.Type)
			for k, v := range embedded.Properties {
				if _, ok := s.Properties[k]; !ok {
					s.Properties[k] = v
				}
			}
			s.Required = append(s.Required, embedded.Required...)
			continue
		}
		if name == "" {
			name = f.Name
		}
		s.Properties[name] = *g.typeSchema(f.Type)
		if isRequired(f) {
			s.Required = append(s.Required, name)
		}
	}
	return s
}

// paramsFromStruct turns `param` and `query` tagged fields into parameters.
func paramsFromStruct(t reflect.Type) []spec.Parameter {
	var params []spec.Parameter
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		var p *spec.Parameter
		if name := f.Tag.Get("param"); name != "" {
			p = spec.PathParam(name)
			p.Required = true
		} else if name := f.Tag.Get("query"); name != "" {
			p = spec.QueryParam(name)
			p.Required = isRequired(f)
		} else {
			continue
		}
		p.Type, p.Format = simpleType(f.Type)
		params = append(params, *p)
	}
	return params
}

func simpleType(t reflect.Type) (string, string) {
	switch {
	case t == uuidType:
		return "string", "uuid"
	case t == timeType:
		return "string", "date-time"
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer", "int64"
	case reflect.Float32, reflect.Float64:
		return "number", "double"
	case reflect.Bool:
		return "boolean", ""
	default:
		return "string", ""
	}
}

func successStatus(route handler.PendingRoute) int {
	switch {
	case slices.Contains(route.MiddlewareNames, "ResponseStatus"):
		return http.StatusOK
	case strings.EqualFold(route.Method, http.MethodPost):
		return http.StatusCreated
	case strings.EqualFold(route.Method, http.MethodDelete):
		return http.StatusNoContent
	default:
		return http.StatusOK
	}
}

// operationID is "post_api_v1_tours_id" for POST /api/v1/tours/{id}.
func operationID(route handler.PendingRoute) string {
	replacer := strings.NewReplacer("/", "_", "{", "", "}", "", "-", "_")
	return strings.ToLower(route.Method) + replacer.Replace(route.Path)
}

func isRequired(f reflect.StructField) bool {
	return strings.Contains(f.Tag.Get("validate"), "required")
}

func requiresAuth(route handler.PendingRoute) bool {
	return slices.Contains(route.MiddlewareNames, "RequireAuth")
}
