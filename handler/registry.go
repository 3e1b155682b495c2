package handler

import (
	"database/sql"
	"log/slog"
	"net/http"
	"reflect"
	"regexp"
	"runtime"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
)

var genericFuncName = regexp.MustCompile(`\.([A-Za-z_][A-Za-z0-9_]*)\[`)

// Registry collects the routes built with MakeHandler so they can be mounted
// on a router and documented. Each API instance owns its registry.
type Registry struct {
	mu     sync.RWMutex
	routes []PendingRoute
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{routes: make([]PendingRoute, 0)}
}

// MakeHandler creates a handler with automatic route registration and middleware composition
// Usage: MakeHandler(reg, RouteInfo{Method: "POST", Path: "/api/v1/endpoint"}, baseHandler, middleware...)
// Execution order follows the list: first middleware -> ... -> last middleware -> baseHandler
func MakeHandler[ParamTypeT any, BodyTypeT any, ResponseBodyT any](
	reg *Registry,
	routeInfo RouteInfo,
	baseHandler Handler[ParamTypeT, BodyTypeT, ResponseBodyT],
	middleware ...Middleware[ParamTypeT, BodyTypeT, ResponseBodyT],
) Handler[ParamTypeT, BodyTypeT, ResponseBodyT] {
	handler := baseHandler

	middlewareNames := make([]string, len(middleware))
	for i, mw := range middleware {
		middlewareNames[i] = getMiddlewareName(mw)
	}

	// Wrap from the inside out so the first one executes first
	for i := len(middleware) - 1; i >= 0; i-- {
		handler = middleware[i](handler)
	}

	reg.mu.Lock()
	reg.routes = append(reg.routes, PendingRoute{
		Method:          routeInfo.Method,
		Path:            routeInfo.Path,
		Handler:         TypedHandler[ParamTypeT, BodyTypeT, ResponseBodyT]{handler: handler},
		RouteInfo:       routeInfo,
		MiddlewareNames: middlewareNames,
		ParamType:       reflect.TypeFor[ParamTypeT](),
		BodyType:        reflect.TypeFor[BodyTypeT](),
		ResponseType:    reflect.TypeFor[ResponseBodyT](),
	})
	reg.mu.Unlock()

	return handler
}

// GetRoutes returns a copy of all collected routes for reflection/documentation
func (reg *Registry) GetRoutes() []PendingRoute {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	routes := make([]PendingRoute, len(reg.routes))
	copy(routes, reg.routes)
	return routes
}

// RegisterWithRouter mounts every collected route on r.
func (reg *Registry) RegisterWithRouter(r chi.Router, database *sql.DB, logger *slog.Logger) {
	for _, route := range reg.GetRoutes() {
		registerRoute(r, route.Method, route.Path, route.Handler.Adapt(database, logger))
	}
}

func registerRoute(r chi.Router, method, path string, handler http.HandlerFunc) {
	switch strings.ToUpper(method) {
	case http.MethodGet:
		r.Get(path, handler)
	case http.MethodPost:
		r.Post(path, handler)
	case http.MethodPut:
		r.Put(path, handler)
	case http.MethodDelete:
		r.Delete(path, handler)
	case http.MethodPatch:
		r.Patch(path, handler)
	case http.MethodHead:
		r.Head(path, handler)
	case http.MethodOptions:
		r.Options(path, handler)
	}
}

// getMiddlewareName extracts the function name from a middleware function using reflection.
// Generic functions show up as "pkg.Name[...]", closures returned by factories
// such as RestrictTo as "pkg.Name[...].func1".
func getMiddlewareName[ParamTypeT any, BodyTypeT any, ResponseBodyT any](middleware Middleware[ParamTypeT, BodyTypeT, ResponseBodyT]) string {
	funcForPC := runtime.FuncForPC(reflect.ValueOf(middleware).Pointer())
	if funcForPC == nil {
		return "unknown"
	}
	fullName := funcForPC.Name()

	if matches := genericFuncName.FindStringSubmatch(fullName); len(matches) > 1 {
		return matches[1]
	}

	parts := strings.Split(fullName, ".")
	for i := len(parts) - 1; i >= 0; i-- {
		name := parts[i]
		if bracketIndex := strings.Index(name, "["); bracketIndex != -1 {
			name = name[:bracketIndex]
		}
		if name != "" && name != "]" && !strings.HasPrefix(name, "func") {
			return name
		}
	}

	return "unknown"
}
