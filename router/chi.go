// Package router assembles the HTTP stack of the tourbook API around the
// routes collected in a handler.Registry.
package router

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/platform-smith-labs/tourbook/core"
	"github.com/platform-smith-labs/tourbook/db"
	"github.com/platform-smith-labs/tourbook/handler"
	"github.com/platform-smith-labs/tourbook/metrics"
	httpMiddleware "github.com/platform-smith-labs/tourbook/middleware/http"
	"github.com/platform-smith-labs/tourbook/schema"
	"github.com/platform-smith-labs/tourbook/swagger"
)

// Options configures the middleware stack.
type Options struct {
	// AllowedOrigins for CORS. Empty denies every cross-origin request.
	AllowedOrigins []string

	// RateLimitMax requests per RateLimitWindow and client IP. Zero disables
	// rate limiting.
	RateLimitMax    int
	RateLimitWindow time.Duration

	// RequestTimeout cancels the request context of API routes. Zero disables it.
	RequestTimeout time.Duration

	// HSTS adds Strict-Transport-Security; enable behind TLS only.
	HSTS bool

	Metrics *metrics.Collector
	Logger  *slog.Logger
}

// New builds the router: global middleware, operational endpoints, Swagger
// and every route of reg.
//
// SECURITY WARNING: with no AllowedOrigins CORS denies all origins.
func New(reg *handler.Registry, schemas *schema.Registry, database *sql.DB, opts Options) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(httpMiddleware.WithRequestID())
	r.Use(httpMiddleware.WithLogging(opts.Logger))
	r.Use(middleware.Recoverer)
	r.Use(httpMiddleware.WithSecurityHeaders(opts.HSTS))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Link", "X-Request-ID"},
		AllowCredentials: len(opts.AllowedOrigins) > 0,
		MaxAge:           300,
	}))
	if opts.Metrics != nil {
		// Mount registers the /metrics route, so it comes after every Use.
		opts.Metrics.Mount(r, "/metrics")
	}

	r.With(httpMiddleware.WithContentType("text/plain; charset=utf-8")).
		Get("/", AdaptErrorHandler(func(w http.ResponseWriter, r *http.Request) error {
			_, err := fmt.Fprint(w, "Hello from server side")
			return err
		}))
	r.Get("/health", AdaptErrorHandler(healthCheck(database)))
	swagger.SetupSwaggerUI(r, reg, schemas)

	r.Group(func(api chi.Router) {
		if opts.RateLimitMax > 0 {
			api.Use(httprate.Limit(opts.RateLimitMax, opts.RateLimitWindow,
				httprate.WithKeyFuncs(httprate.KeyByIP),
				httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
					core.WriteAPIError(w, r, *core.NewAPIError(http.StatusTooManyRequests,
						"Too many requests from this IP, please try again in an hour!"))
				}),
			))
		}
		if opts.RequestTimeout > 0 {
			api.Use(middleware.Timeout(opts.RequestTimeout))
		}
		reg.RegisterWithRouter(api, database, opts.Logger)
	})

	return r
}

func healthCheck(database *sql.DB) core.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		checks := map[string]bool{"database": false}
		if database != nil {
			checks["database"] = db.HealthCheck(r.Context(), database) == nil
		}

		status := "ok"
		if !checks["database"] {
			status = "degraded"
		}
		return core.Health(w, status, checks)
	}
}

// AdaptErrorHandler adapts a core.HandlerFunc to work with Chi
func AdaptErrorHandler(h core.HandlerFunc) http.HandlerFunc {
	return h.ServeHTTP
}
