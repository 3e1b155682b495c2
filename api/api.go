// Package api declares the tourbook routes. Every route is a typed handler
// chain built with handler.MakeHandler: request id, auth, the validation gate
// and body decoding run as middleware, so handlers receive data that already
// passed its contract.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/platform-smith-labs/tourbook/config"
	"github.com/platform-smith-labs/tourbook/core"
	"github.com/platform-smith-labs/tourbook/handler"
	"github.com/platform-smith-labs/tourbook/middleware/typed"
	"github.com/platform-smith-labs/tourbook/models"
	"github.com/platform-smith-labs/tourbook/schema"
	"github.com/platform-smith-labs/tourbook/schemas"
	"github.com/platform-smith-labs/tourbook/services"
)

// UserStore is implemented by *services.UserService.
type UserStore interface {
	Signup(ctx context.Context, in services.SignupInput) (models.User, error)
	VerifyOTP(ctx context.Context, email, otp string) (models.User, string, error)
	ResendOTP(ctx context.Context, email string) error
	Login(ctx context.Context, email, password string) (models.User, string, error)
	Principal(ctx context.Context, id uuid.UUID) (string, bool, error)
	Get(ctx context.Context, id uuid.UUID) (models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
	UpdateMe(ctx context.Context, id uuid.UUID, fields map[string]any) (models.User, error)
	AdminUpdate(ctx context.Context, id uuid.UUID, fields map[string]any) (models.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, current, next string) (string, error)
	ForgotPassword(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, token, password string) error
}

// TourStore is implemented by *services.TourService.
type TourStore interface {
	List(ctx context.Context, q services.TourQuery) ([]models.Tour, error)
	Get(ctx context.Context, id uuid.UUID) (models.Tour, error)
	GetByName(ctx context.Context, name string) (models.Tour, error)
	Create(ctx context.Context, in services.TourInput) (models.Tour, error)
	Import(ctx context.Context, inputs []services.TourInput) ([]models.Tour, error)
	Update(ctx context.Context, id uuid.UUID, fields map[string]any) (models.Tour, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Stats(ctx context.Context) ([]services.TourStats, error)
	MonthlyPlan(ctx context.Context, year int) ([]services.MonthPlan, error)
}

// BookingStore is implemented by *services.BookingService.
type BookingStore interface {
	Book(ctx context.Context, userID, tourID uuid.UUID, price float64) (models.Booking, error)
	BookingsOf(ctx context.Context, userID uuid.UUID) ([]models.Booking, error)
	Review(ctx context.Context, userID, tourID uuid.UUID, rating int, text string) (models.Review, error)
	ReviewsOf(ctx context.Context, tourID uuid.UUID) ([]models.Review, error)
}

// Deps are the collaborators of the route handlers.
type Deps struct {
	Config   config.Config
	Schemas  *schema.Registry
	Users    UserStore
	Tours    TourStore
	Bookings BookingStore
	Observer typed.FailureObserver
	Logger   *slog.Logger
}

// API holds the handlers of every route.
type API struct {
	deps Deps
	gate typed.Gate
}

// Register builds every route into reg. It panics when a route refers to a
// contract missing from deps.Schemas.
func Register(reg *handler.Registry, deps Deps) *API {
	a := &API{
		deps: deps,
		gate: typed.Gate{Registry: deps.Schemas, Observer: deps.Observer},
	}
	a.registerUsers(reg)
	a.registerTours(reg)
	a.registerBookings(reg)
	return a
}

// Discrepancy is a key a service allow-list accepts that its contract never
// lets through the gate.
type Discrepancy struct {
	Schema string
	Keys   []string
}

// CheckAllowLists compares the user update allow-lists with their contracts
// and logs every mismatch.
func CheckAllowLists(reg *schema.Registry, logger *slog.Logger) []Discrepancy {
	var out []Discrepancy
	for name, allowed := range map[string][]string{
		schemas.UpdateMe:    services.SelfUpdateFields(),
		schemas.AdminUpdate: services.AdminUpdateFields(),
	} {
		if missing := schema.Undeclared(reg.MustGet(name), allowed); len(missing) > 0 {
			logger.Warn("Allow-list accepts keys the contract does not declare",
				"schema", name,
				"keys", missing,
			)
			out = append(out, Discrepancy{Schema: name, Keys: missing})
		}
	}
	return out
}

// errorCase maps a service error to the response a client receives.
type errorCase struct {
	target  error
	code    int
	message string
}

func on(target error, code int, message string) errorCase {
	return errorCase{target: target, code: code, message: message}
}

// translate turns service errors into API errors; unmatched errors pass
// through and end up as 500.
func translate(err error, cases ...errorCase) error {
	for _, c := range cases {
		if errors.Is(err, c.target) {
			return core.NewAPIError(c.code, c.message)
		}
	}
	var qerr *services.QueryError
	if errors.As(err, &qerr) {
		return core.NewAPIError(http.StatusBadRequest, qerr.Error())
	}
	return err
}

func (a *API) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     typed.SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(a.deps.Config.JWTCookieExpiresIn),
		HttpOnly: true,
		Secure:   a.deps.Config.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
}

func (a *API) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     typed.SessionCookie,
		Value:    "loggedout",
		Path:     "/",
		Expires:  time.Now().Add(10 * time.Second),
		HttpOnly: true,
		Secure:   a.deps.Config.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
}
