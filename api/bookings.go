package api

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/platform-smith-labs/tourbook/core"
	"github.com/platform-smith-labs/tourbook/handler"
	"github.com/platform-smith-labs/tourbook/middleware/typed"
	"github.com/platform-smith-labs/tourbook/schemas"
	"github.com/platform-smith-labs/tourbook/services"
)

type bookingBody struct {
	Tour  string  `json:"tour"`
	Price float64 `json:"price"`
}

type reviewBody struct {
	Tour   string `json:"tour"`
	Rating int    `json:"rating"`
	Review string `json:"review"`
}

var (
	errInvalidTourID = core.NewAPIError(http.StatusBadRequest, "Invalid tour id")
	errUnknownTour   = on(services.ErrUnknownTour, http.StatusBadRequest, "Tour does not exist")
)

func (a *API) registerBookings(reg *handler.Registry) {
	secret, lookup := a.deps.Config.JWTSecret, a.deps.Users.Principal

	handler.MakeHandler(reg,
		handler.RouteInfo{Method: http.MethodPost, Path: "/bookings", Tags: []string{"Bookings"}, Summary: "Book a tour", BodySchema: schemas.CreateBooking},
		a.createBooking,
		typed.WithRequestID,
		typed.RequireAuth[struct{}, bookingBody, core.Envelope](secret, lookup),
		typed.WithLogging,
		typed.ValidateBody[struct{}, bookingBody, core.Envelope](a.gate, schemas.CreateBooking),
		typed.ParseBody,
		typed.ResponseJSON,
	)
	handler.MakeHandler(reg,
		handler.RouteInfo{Method: http.MethodGet, Path: "/bookings/me", Tags: []string{"Bookings"}, Summary: "List one's own bookings"},
		a.myBookings,
		typed.WithRequestID,
		typed.RequireAuth[struct{}, struct{}, core.Envelope](secret, lookup),
		typed.WithLogging,
		typed.ResponseJSON,
	)
	handler.MakeHandler(reg,
		handler.RouteInfo{Method: http.MethodPost, Path: "/reviews", Tags: []string{"Reviews"}, Summary: "Review a tour", BodySchema: schemas.CreateReview},
		a.createReview,
		typed.WithRequestID,
		typed.RequireAuth[struct{}, reviewBody, core.Envelope](secret, lookup),
		typed.WithLogging,
		typed.ValidateBody[struct{}, reviewBody, core.Envelope](a.gate, schemas.CreateReview),
		typed.ParseBody,
		typed.ResponseJSON,
	)
	handler.MakeHandler(reg,
		handler.RouteInfo{Method: http.MethodGet, Path: toursPath + "/{id}/reviews", Tags: []string{"Reviews"}, Summary: "List the reviews of a tour"},
		a.tourReviews,
		typed.WithRequestID,
		typed.WithLogging,
		typed.ParseParams,
		typed.ResponseJSON,
	)
}

func (a *API) createBooking(ctx handler.HandlerContext[struct{}, bookingBody], w http.ResponseWriter, r *http.Request) (core.Envelope, error) {
	body := ctx.Body.Value()
	tourID, err := uuid.Parse(body.Tour)
	if err != nil {
		return core.Envelope{}, errInvalidTourID
	}
	booking, err := a.deps.Bookings.Book(ctx.Context, ctx.UserUUID.Value(), tourID, body.Price)
	if err != nil {
		return core.Envelope{}, translate(err, errUnknownTour)
	}
	return core.OK(map[string]any{"booking": booking}), nil
}

func (a *API) myBookings(ctx handler.HandlerContext[struct{}, struct{}], w http.ResponseWriter, r *http.Request) (core.Envelope, error) {
	bookings, err := a.deps.Bookings.BookingsOf(ctx.Context, ctx.UserUUID.Value())
	if err != nil {
		return core.Envelope{}, err
	}
	return core.Counted(len(bookings), map[string]any{"bookings": bookings}), nil
}

func (a *API) createReview(ctx handler.HandlerContext[struct{}, reviewBody], w http.ResponseWriter, r *http.Request) (core.Envelope, error) {
	body := ctx.Body.Value()
	tourID, err := uuid.Parse(body.Tour)
	if err != nil {
		return core.Envelope{}, errInvalidTourID
	}
	review, err := a.deps.Bookings.Review(ctx.Context, ctx.UserUUID.Value(), tourID, body.Rating, body.Review)
	if err != nil {
		return core.Envelope{}, translate(err,
			errUnknownTour,
			on(services.ErrDuplicateReview, http.StatusBadRequest, "You have already reviewed this tour"),
		)
	}
	return core.OK(map[string]any{"review": review}), nil
}

func (a *API) tourReviews(ctx handler.HandlerContext[tourParams, struct{}], w http.ResponseWriter, r *http.Request) (core.Envelope, error) {
	reviews, err := a.deps.Bookings.ReviewsOf(ctx.Context, ctx.Params.Value().ID)
	if err != nil {
		return core.Envelope{}, err
	}
	return core.Counted(len(reviews), map[string]any{"reviews": reviews}), nil
}
