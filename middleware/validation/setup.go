// Package validation registers the tourbook tag validators used on route
// params and bulk upload rows.
//
//	type TourRow struct {
//	    Name       string `csv:"name" validate:"required,tour_name_free"`
//	    Difficulty string `csv:"difficulty" validate:"required,difficulty"`
//	}
package validation

import (
	"context"
	"database/sql"
	"slices"
	"time"

	"github.com/go-playground/validator/v10"
)

// Tags registered by Setup.RegisterAll.
const (
	TagTourNameFree = "tour_name_free"
	TagDifficulty   = "difficulty"
	TagPlanYear     = "plan_year"
)

const lookupTimeout = 2 * time.Second

// RegisterFunc adds a tag to a validator together with its error message;
// typed.RegisterValidation has this signature.
type RegisterFunc func(tag string, fn validator.Func, message string) error

// Setup keeps the dependencies of the validators together.
type Setup struct {
	DB           *sql.DB
	Difficulties []string
}

// RegisterAll installs every tag with register.
func (s Setup) RegisterAll(register RegisterFunc) error {
	validators := []struct {
		tag     string
		fn      validator.Func
		message string
	}{
		{TagTourNameFree, s.tourNameFree(), "is already used by another tour"},
		{TagDifficulty, s.difficulty(), "must be one of the tour difficulties"},
		{TagPlanYear, planYear, "must be a year between 1970 and 9999"},
	}
	for _, v := range validators {
		if err := register(v.tag, v.fn, v.message); err != nil {
			return err
		}
	}
	return nil
}

// tourNameFree fails when a tour with the name exists. Lookup errors count as
// taken.
func (s Setup) tourNameFree() validator.Func {
	return func(fl validator.FieldLevel) bool {
		name := fl.Field().String()
		if name == "" || s.DB == nil {
			return true
		}

		ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
		defer cancel()

		var exists bool
		err := s.DB.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM tours WHERE name = $1)", name).Scan(&exists)
		if err != nil {
			return false
		}
		return !exists
	}
}

func (s Setup) difficulty() validator.Func {
	return func(fl validator.FieldLevel) bool {
		return slices.Contains(s.Difficulties, fl.Field().String())
	}
}

func planYear(fl validator.FieldLevel) bool {
	y := fl.Field().Int()
	return y >= 1970 && y <= 9999
}
