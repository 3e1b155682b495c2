package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"

	"github.com/platform-smith-labs/tourbook/config"
	"github.com/platform-smith-labs/tourbook/core"
	"github.com/platform-smith-labs/tourbook/db"
	"github.com/platform-smith-labs/tourbook/models"
)

const tourColumns = "id, name, price, ratings_average, ratings_quantity, duration, difficulty, locations, created_at, updated_at"

// TourInput is a tour accepted by the createTour contract.
type TourInput struct {
	Name           string            `json:"name"`
	Price          float64           `json:"price"`
	RatingsAverage float64           `json:"ratingsAverage"`
	Duration       int               `json:"duration"`
	Difficulty     string            `json:"difficulty"`
	Locations      []models.Location `json:"locations"`
}

// TourStats aggregates highly rated tours of one duration.
type TourStats struct {
	Duration    int     `db:"duration" json:"duration"`
	NumTours    int     `db:"num_tours" json:"numTours"`
	TotalRating float64 `db:"total_rating" json:"totalRating"`
	AvgRating   float64 `db:"avg_rating" json:"avgRating"`
	AvgPrice    float64 `db:"avg_price" json:"avgPrice"`
	MinPrice    float64 `db:"min_price" json:"minPrice"`
	MaxPrice    float64 `db:"max_price" json:"maxPrice"`
}

// MonthPlan lists the tours created in one month.
type MonthPlan struct {
	Month    int      `db:"month" json:"month"`
	NumTours int      `db:"num_tours" json:"numTours"`
	Tours    []string `db:"-" json:"tours"`
}

// tourUpdateColumns is the updateTour allow-list, in statement order.
var (
	tourUpdateOrder   = []string{"name", "price", "ratingsAverage", "duration", "difficulty", "locations"}
	tourUpdateColumns = map[string]column{
		"name":           {name: "name"},
		"price":          {name: "price"},
		"ratingsAverage": {name: "ratings_average"},
		"duration":       {name: "duration"},
		"difficulty":     {name: "difficulty"},
		"locations":      {name: "locations", convert: toLocations},
	}
)

// TourService manages tours.
type TourService struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewTourService creates a TourService.
func NewTourService(database *sql.DB, logger *slog.Logger) *TourService {
	return &TourService{db: database, logger: config.BuildLogger(logger, config.LoggerOptions{Layer: "services", Location: "tours"})}
}

// List runs a parsed listing query. When a page was requested past the end
// of the matching tours, ErrPageNotFound is returned.
func (s *TourService) List(ctx context.Context, q TourQuery) ([]models.Tour, error) {
	if q.PageGiven {
		where, args := q.Where()
		total, err := db.QueryOne[int](ctx, s.db, "SELECT count(*) FROM tours"+where, args...)
		if err != nil {
			return nil, fmt.Errorf("count tours: %w", err)
		}
		if q.Offset() >= total {
			return nil, ErrPageNotFound
		}
	}

	stmt, args := q.SQL()
	tours, err := db.QueryMany[models.Tour](ctx, s.db, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("list tours: %w", err)
	}
	return tours, nil
}

// Get returns the tour with id.
func (s *TourService) Get(ctx context.Context, id uuid.UUID) (models.Tour, error) {
	return s.one(ctx, "SELECT "+tourColumns+" FROM tours WHERE id = $1", id)
}

// GetByName returns the tour with the exact name.
func (s *TourService) GetByName(ctx context.Context, name string) (models.Tour, error) {
	return s.one(ctx, "SELECT "+tourColumns+" FROM tours WHERE name = $1", name)
}

// Create inserts a tour.
func (s *TourService) Create(ctx context.Context, in TourInput) (models.Tour, error) {
	return s.insert(ctx, s.db, in)
}

// Import inserts all tours in one transaction; a failing row aborts the batch.
func (s *TourService) Import(ctx context.Context, inputs []TourInput) ([]models.Tour, error) {
	return db.WithTx(ctx, s.db, func(tx *sql.Tx) ([]models.Tour, error) {
		out := make([]models.Tour, 0, len(inputs))
		for i, in := range inputs {
			t, err := s.insert(ctx, tx, in)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i+1, err)
			}
			out = append(out, t)
		}
		return out, nil
	})
}

func (s *TourService) insert(ctx context.Context, q db.Querier, in TourInput) (models.Tour, error) {
	tour, err := db.QueryOne[models.Tour](ctx, q,
		`INSERT INTO tours (name, price, ratings_average, duration, difficulty, locations)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+tourColumns,
		in.Name, in.Price, in.RatingsAverage, in.Duration, in.Difficulty, models.Locations(in.Locations),
	)
	if core.IsUniqueConstraintError(err, "tours_name_key") {
		return models.Tour{}, ErrTourNameTaken
	}
	if err != nil {
		return models.Tour{}, fmt.Errorf("insert tour: %w", err)
	}
	s.logger.InfoContext(ctx, "Tour created", "tour_id", tour.ID, "name", tour.Name)
	return tour, nil
}

// Update applies the keys of a partial payload. An empty payload returns the
// tour unchanged.
func (s *TourService) Update(ctx context.Context, id uuid.UUID, fields map[string]any) (models.Tour, error) {
	clauses, args, err := assignments(fields, tourUpdateColumns, tourUpdateOrder, 2, false)
	if err != nil {
		return models.Tour{}, err
	}
	if len(clauses) == 0 {
		return s.Get(ctx, id)
	}

	stmt := "UPDATE tours SET " + setClause(clauses) + ", updated_at = now() WHERE id = $1 RETURNING " + tourColumns
	tour, err := s.one(ctx, stmt, append([]any{id}, args...)...)
	if core.IsUniqueConstraintError(err, "tours_name_key") {
		return models.Tour{}, ErrTourNameTaken
	}
	return tour, err
}

// Delete removes a tour with its bookings and reviews.
func (s *TourService) Delete(ctx context.Context, id uuid.UUID) error {
	n, err := db.Exec(ctx, s.db, "DELETE FROM tours WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete tour: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Stats groups tours rated 4 or more by duration.
func (s *TourService) Stats(ctx context.Context) ([]TourStats, error) {
	stats, err := db.QueryMany[TourStats](ctx, s.db, `
		SELECT duration,
		       count(*)              AS num_tours,
		       sum(ratings_average)  AS total_rating,
		       avg(ratings_average)  AS avg_rating,
		       avg(price)            AS avg_price,
		       min(price)            AS min_price,
		       max(price)            AS max_price
		  FROM tours
		 WHERE ratings_average >= 4
		 GROUP BY duration
		 ORDER BY avg_price ASC`)
	if err != nil {
		return nil, fmt.Errorf("tour stats: %w", err)
	}
	return stats, nil
}

// MonthlyPlan counts the tours created in each month of year, busiest first.
func (s *TourService) MonthlyPlan(ctx context.Context, year int) ([]MonthPlan, error) {
	type row struct {
		Month int    `db:"month"`
		Name  string `db:"name"`
	}
	rows, err := db.QueryMany[row](ctx, s.db, `
		SELECT extract(month FROM created_at)::int AS month, name
		  FROM tours
		 WHERE extract(year FROM created_at) = $1
		 ORDER BY month, name`, year)
	if err != nil {
		return nil, fmt.Errorf("monthly plan: %w", err)
	}

	plans := []MonthPlan{}
	for _, r := range rows {
		if n := len(plans); n > 0 && plans[n-1].Month == r.Month {
			plans[n-1].NumTours++
			plans[n-1].Tours = append(plans[n-1].Tours, r.Name)
			continue
		}
		plans = append(plans, MonthPlan{Month: r.Month, NumTours: 1, Tours: []string{r.Name}})
	}
	slices.SortStableFunc(plans, func(a, b MonthPlan) int { return b.NumTours - a.NumTours })
	return plans, nil
}

func (s *TourService) one(ctx context.Context, stmt string, args ...any) (models.Tour, error) {
	tour, err := db.QueryOne[models.Tour](ctx, s.db, stmt, args...)
	if errors.Is(err, db.ErrNotFound) {
		return models.Tour{}, ErrNotFound
	}
	if err != nil {
		return models.Tour{}, err
	}
	return tour, nil
}

// Project keeps only the requested listing fields of each tour; id is
// always kept. Without fields the tours are returned as they are.
func Project(tours []models.Tour, fields []string) ([]any, error) {
	out := make([]any, len(tours))
	if len(fields) == 0 {
		for i, t := range tours {
			out[i] = t
		}
		return out, nil
	}

	keep := map[string]bool{"id": true}
	for _, f := range fields {
		if f == "rating" {
			f = "ratingsAverage"
		}
		keep[f] = true
	}

	for i, t := range tours {
		raw, err := json.Marshal(t)
		if err != nil {
			return nil, err
		}
		var full map[string]any
		if err := json.Unmarshal(raw, &full); err != nil {
			return nil, err
		}
		for k := range full {
			if !keep[k] {
				delete(full, k)
			}
		}
		out[i] = full
	}
	return out, nil
}

func toLocations(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var locs models.Locations
	if err := json.Unmarshal(raw, &locs); err != nil {
		return nil, err
	}
	return locs, nil
}
