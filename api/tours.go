package api

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/platform-smith-labs/tourbook/core"
	"github.com/platform-smith-labs/tourbook/handler"
	"github.com/platform-smith-labs/tourbook/middleware/typed"
	"github.com/platform-smith-labs/tourbook/middleware/validation"
	"github.com/platform-smith-labs/tourbook/models"
	"github.com/platform-smith-labs/tourbook/schema"
	"github.com/platform-smith-labs/tourbook/schemas"
	"github.com/platform-smith-labs/tourbook/services"
)

const toursPath = "/api/v1/tours"

type tourParams struct {
	ID uuid.UUID `param:"id" validate:"required"`
}

type tourNameParams struct {
	Name string `param:"name" validate:"required"`
}

type planParams struct {
	Year int `query:"year" validate:"required,plan_year"`
}

// tourRow is one line of a bulk tour import. Rows pass their tags first and
// then the createTour contract.
type tourRow struct {
	Name           string        `csv:"name" json:"name" validate:"required,tour_name_free"`
	Price          float64       `csv:"price" json:"price" validate:"gt=0"`
	RatingsAverage float64       `csv:"ratingsAverage" json:"ratingsAverage,omitempty"`
	Duration       int           `csv:"duration" json:"duration,omitempty"`
	Difficulty     string        `csv:"difficulty" json:"difficulty,omitempty" validate:"omitempty,difficulty"`
	Locations      locationsCell `csv:"locations" json:"locations,omitempty"`
}

// locationsCell reads a JSON array from a CSV cell.
type locationsCell []models.Location

func (c *locationsCell) UnmarshalCSV(s string) error {
	if s == "" {
		*c = nil
		return nil
	}
	return json.Unmarshal([]byte(s), (*[]models.Location)(c))
}

var (
	errTourNotFound  = on(services.ErrNotFound, http.StatusNotFound, "Not found")
	errTourNameTaken = on(services.ErrTourNameTaken, http.StatusBadRequest, "A tour with this name already exists")
	errPageNotFound  = on(services.ErrPageNotFound, http.StatusBadRequest, "Page does not exist")
)

// RegisterValidators installs the tag validators of the import rows and
// route params. database backs the tour name lookup and may be nil in tests.
func RegisterValidators(database *sql.DB) error {
	setup := validation.Setup{DB: database, Difficulties: schemas.Difficulties}
	return setup.RegisterAll(typed.RegisterValidation)
}

func (a *API) registerTours(reg *handler.Registry) {
	secret, lookup := a.deps.Config.JWTSecret, a.deps.Users.Principal
	tags := []string{"Tours"}

	handler.MakeHandler(reg,
		handler.RouteInfo{Method: http.MethodGet, Path: toursPath, Tags: tags, Summary: "List tours",
			Description: "Filters: name, price, ratingsAverage, duration, difficulty, createdAt with optional [gte|gt|lte|lt]. Also sort, fields, page and limit."},
		a.listTours,
		typed.WithRequestID,
		typed.WithLogging,
		typed.ResponseJSON,
	)
	handler.MakeHandler(reg,
		handler.RouteInfo{Method: http.MethodGet, Path: toursPath + "/cheap", Tags: tags, Summary: "Five best rated, cheapest tours"},
		a.listTours,
		typed.WithRequestID,
		typed.WithLogging,
		aliasTopTours,
		typed.ResponseJSON,
	)
	handler.MakeHandler(reg,
		handler.RouteInfo{Method: http.MethodGet, Path: toursPath + "/stats", Tags: tags, Summary: "Statistics of tours rated 4 or more, by duration"},
		a.tourStats,
		typed.WithRequestID,
		typed.WithLogging,
		typed.ResponseJSON,
	)
	handler.MakeHandler(reg,
		handler.RouteInfo{Method: http.MethodGet, Path: toursPath + "/plan", Tags: tags, Summary: "Tours created per month of a year"},
		a.monthlyPlan,
		typed.WithRequestID,
		typed.WithLogging,
		typed.ParseParams,
		typed.ResponseJSON,
	)
	handler.MakeHandler(reg,
		handler.RouteInfo{Method: http.MethodGet, Path: toursPath + "/name/{name}", Tags: tags, Summary: "Find a tour by name"},
		a.getTourByName,
		typed.WithRequestID,
		typed.WithLogging,
		typed.ParseParams,
		typed.ResponseJSON,
	)
	handler.MakeHandler(reg,
		handler.RouteInfo{Method: http.MethodGet, Path: toursPath + "/{id}", Tags: tags, Summary: "Get a tour"},
		a.getTour,
		typed.WithRequestID,
		typed.WithLogging,
		typed.ParseParams,
		typed.ResponseJSON,
	)
	handler.MakeHandler(reg,
		handler.RouteInfo{Method: http.MethodPost, Path: toursPath, Tags: tags, Summary: "Create a tour", BodySchema: schemas.CreateTour},
		a.createTour,
		typed.WithRequestID,
		typed.RequireAuth[struct{}, services.TourInput, core.Envelope](secret, lookup),
		typed.RestrictTo[struct{}, services.TourInput, core.Envelope](models.RoleAdmin, models.RoleGuide),
		typed.WithLogging,
		typed.ValidateBody[struct{}, services.TourInput, core.Envelope](a.gate, schemas.CreateTour),
		typed.ParseBody,
		typed.ResponseJSON,
	)
	handler.MakeHandler(reg,
		handler.RouteInfo{Method: http.MethodPost, Path: toursPath + "/import", Tags: tags, Summary: "Import tours from a CSV or JSON file"},
		a.importTours,
		typed.WithRequestID,
		typed.RequireAuth[struct{}, []tourRow, core.Envelope](secret, lookup),
		typed.RestrictTo[struct{}, []tourRow, core.Envelope](models.RoleAdmin),
		typed.WithLogging,
		typed.ParseUpload,
		typed.ResponseJSON,
	)
	handler.MakeHandler(reg,
		handler.RouteInfo{Method: http.MethodPatch, Path: toursPath + "/{id}", Tags: tags, Summary: "Update a tour", BodySchema: schemas.UpdateTour},
		a.updateTour,
		typed.WithRequestID,
		typed.RequireAuth[tourParams, struct{}, core.Envelope](secret, lookup),
		typed.RestrictTo[tourParams, struct{}, core.Envelope](models.RoleAdmin, models.RoleGuide),
		typed.WithLogging,
		typed.ParseParams,
		typed.ValidateBody[tourParams, struct{}, core.Envelope](a.gate, schemas.UpdateTour),
		typed.ResponseJSON,
	)
	handler.MakeHandler(reg,
		handler.RouteInfo{Method: http.MethodDelete, Path: toursPath + "/{id}", Tags: tags, Summary: "Delete a tour"},
		a.deleteTour,
		typed.WithRequestID,
		typed.RequireAuth[tourParams, struct{}, core.Envelope](secret, lookup),
		typed.RestrictTo[tourParams, struct{}, core.Envelope](models.RoleAdmin, models.RoleGuide),
		typed.WithLogging,
		typed.ParseParams,
		typed.ResponseJSON,
	)
}

// aliasTopTours presets the listing query of the cheap tours route.
func aliasTopTours[P any, B any, R any](next handler.Handler[P, B, R]) handler.Handler[P, B, R] {
	return func(ctx handler.HandlerContext[P, B], w http.ResponseWriter, r *http.Request) (R, error) {
		q := r.URL.Query()
		q.Set("limit", "5")
		q.Set("sort", "ratingsAverage,price")
		q.Set("fields", "name,price,ratingsAverage")
		u := *r.URL
		u.RawQuery = q.Encode()
		r = r.Clone(r.Context())
		r.URL = &u
		return next(ctx, w, r)
	}
}

func (a *API) listTours(ctx handler.HandlerContext[struct{}, struct{}], w http.ResponseWriter, r *http.Request) (core.Envelope, error) {
	q, err := services.ParseTourQuery(r.URL.Query())
	if err != nil {
		return core.Envelope{}, translate(err)
	}
	tours, err := a.deps.Tours.List(ctx.Context, q)
	if err != nil {
		return core.Envelope{}, translate(err, errPageNotFound)
	}
	projected, err := services.Project(tours, q.Fields)
	if err != nil {
		return core.Envelope{}, err
	}
	return core.Counted(len(projected), map[string]any{"tours": projected}), nil
}

func (a *API) tourStats(ctx handler.HandlerContext[struct{}, struct{}], w http.ResponseWriter, r *http.Request) (core.Envelope, error) {
	stats, err := a.deps.Tours.Stats(ctx.Context)
	if err != nil {
		return core.Envelope{}, err
	}
	return core.Counted(len(stats), stats), nil
}

func (a *API) monthlyPlan(ctx handler.HandlerContext[planParams, struct{}], w http.ResponseWriter, r *http.Request) (core.Envelope, error) {
	plan, err := a.deps.Tours.MonthlyPlan(ctx.Context, ctx.Params.Value().Year)
	if err != nil {
		return core.Envelope{}, err
	}
	return core.Counted(len(plan), plan), nil
}

func (a *API) getTour(ctx handler.HandlerContext[tourParams, struct{}], w http.ResponseWriter, r *http.Request) (core.Envelope, error) {
	tour, err := a.deps.Tours.Get(ctx.Context, ctx.Params.Value().ID)
	if err != nil {
		return core.Envelope{}, translate(err, errTourNotFound)
	}
	return core.OK(map[string]any{"tour": tour}), nil
}

func (a *API) getTourByName(ctx handler.HandlerContext[tourNameParams, struct{}], w http.ResponseWriter, r *http.Request) (core.Envelope, error) {
	tour, err := a.deps.Tours.GetByName(ctx.Context, ctx.Params.Value().Name)
	if err != nil {
		return core.Envelope{}, translate(err, errTourNotFound)
	}
	return core.OK(map[string]any{"tour": tour}), nil
}

func (a *API) createTour(ctx handler.HandlerContext[struct{}, services.TourInput], w http.ResponseWriter, r *http.Request) (core.Envelope, error) {
	tour, err := a.deps.Tours.Create(ctx.Context, ctx.Body.Value())
	if err != nil {
		return core.Envelope{}, translate(err, errTourNameTaken)
	}
	return core.OK(map[string]any{"tour": tour}), nil
}

func (a *API) importTours(ctx handler.HandlerContext[struct{}, []tourRow], w http.ResponseWriter, r *http.Request) (core.Envelope, error) {
	rows := ctx.Body.Value()
	inputs := make([]services.TourInput, 0, len(rows))
	for i, row := range rows {
		in, err := a.gateRow(row)
		if err != nil {
			if report, ok := err.(schema.Report); ok {
				return core.Envelope{}, &core.APIError{
					Code:    http.StatusBadRequest,
					Message: fmt.Sprintf("Row %d validation failed", i+1),
					Errors:  report.Format(),
				}
			}
			return core.Envelope{}, err
		}
		inputs = append(inputs, in)
	}

	tours, err := a.deps.Tours.Import(ctx.Context, inputs)
	if err != nil {
		return core.Envelope{}, translate(err, errTourNameTaken)
	}
	ctx.Logger.Info("Tours imported", "count", len(tours))
	return core.Counted(len(tours), map[string]any{"tours": tours}), nil
}

// gateRow runs an import row through the createTour contract.
func (a *API) gateRow(row tourRow) (services.TourInput, error) {
	raw, err := json.Marshal(row)
	if err != nil {
		return services.TourInput{}, err
	}
	var candidate any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&candidate); err != nil {
		return services.TourInput{}, err
	}

	normalized, err := a.gate.Registry.Validate(schemas.CreateTour, candidate)
	if err != nil {
		if a.gate.Observer != nil {
			a.gate.Observer.ValidationFailed(schemas.CreateTour)
		}
		return services.TourInput{}, err
	}
	return schema.Decode[services.TourInput](normalized)
}

func (a *API) updateTour(ctx handler.HandlerContext[tourParams, struct{}], w http.ResponseWriter, r *http.Request) (core.Envelope, error) {
	tour, err := a.deps.Tours.Update(ctx.Context, ctx.Params.Value().ID, ctx.Validated.Value())
	if err != nil {
		return core.Envelope{}, translate(err, errTourNotFound, errTourNameTaken)
	}
	return core.OK(map[string]any{"tour": tour}), nil
}

func (a *API) deleteTour(ctx handler.HandlerContext[tourParams, struct{}], w http.ResponseWriter, r *http.Request) (core.Envelope, error) {
	if err := a.deps.Tours.Delete(ctx.Context, ctx.Params.Value().ID); err != nil {
		return core.Envelope{}, translate(err, errTourNotFound)
	}
	return core.Envelope{}, nil
}
