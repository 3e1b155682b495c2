// Command seed resets the database to a small demo data set: one account per
// role, three tours with their stops, bookings and reviews.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/platform-smith-labs/tourbook/config"
	"github.com/platform-smith-labs/tourbook/db"
	"github.com/platform-smith-labs/tourbook/models"
	"github.com/platform-smith-labs/tourbook/services"
)

type seedUser struct {
	name, email, countryCode, countryISO, password, role string
	phoneNo                                              int64
}

type seedTour struct {
	name           string
	price          float64
	ratingsAverage float64
	duration       int
	difficulty     string
	locations      models.Locations
}

var users = []seedUser{
	{name: "Admin User", email: "admin@tours.com", phoneNo: 1234567890, countryCode: "+1", countryISO: "US", password: "admin123", role: models.RoleAdmin},
	{name: "Guide John", email: "guide@tours.com", phoneNo: 9876543210, countryCode: "+1", countryISO: "US", password: "guide123", role: models.RoleGuide},
	{name: "Regular User", email: "user@tours.com", phoneNo: 5555555555, countryCode: "+92", countryISO: "PK", password: "user123", role: models.RoleUser},
}

func stop(lng, lat float64, description string, day int) models.Location {
	return models.Location{Type: "Point", Coordinates: []float64{lng, lat}, Description: description, Day: &day}
}

var tours = []seedTour{
	{name: "Hunza Valley", price: 500, ratingsAverage: 4.5, duration: 5, difficulty: "medium", locations: models.Locations{
		stop(74.65, 36.3167, "Hunza Valley Viewpoint", 1),
		stop(74.70, 36.35, "Altit Fort", 2),
	}},
	{name: "Swat Valley", price: 350, ratingsAverage: 4.2, duration: 3, difficulty: "easy", locations: models.Locations{
		stop(72.35, 35.20, "Malam Jabba", 1),
		stop(72.40, 35.25, "Kalam Valley", 2),
	}},
	{name: "Skardu Adventure", price: 800, ratingsAverage: 4.8, duration: 7, difficulty: "difficult", locations: models.Locations{
		stop(75.6333, 35.30, "Shangrila Resort", 1),
		stop(75.70, 35.35, "Deosai Plains", 3),
		stop(75.75, 35.40, "K2 Base Camp", 5),
	}},
}

var reviews = []struct {
	text   string
	rating int
}{
	{"Amazing experience! The Hunza Valley tour was breathtaking. Highly recommended!", 5},
	{"Beautiful scenery in Swat Valley. The guide was very knowledgeable.", 4},
	{"Challenging but rewarding! The Skardu adventure was unforgettable.", 5},
}

func main() {
	cfg, err := config.Load("config.env")
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := config.NewLogger(os.Stdout, cfg)

	if err := run(context.Background(), cfg, logger); err != nil {
		logger.Error("Seeding failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	database, err := db.Connect(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := db.Migrate(ctx, database, logger); err != nil {
		return err
	}

	_, err = db.WithTx(ctx, database, func(tx *sql.Tx) (struct{}, error) {
		return struct{}{}, seed(ctx, tx, logger)
	})
	if err != nil {
		return err
	}

	logger.Info("Database seeded",
		"users", len(users),
		"tours", len(tours),
		"bookings", len(tours),
		"reviews", len(reviews),
	)
	for _, u := range users {
		logger.Info("Test credentials", "role", u.role, "email", u.email, "password", u.password)
	}
	return nil
}

func seed(ctx context.Context, tx *sql.Tx, logger *slog.Logger) error {
	if _, err := db.Exec(ctx, tx, "TRUNCATE reviews, bookings, tours, users"); err != nil {
		return fmt.Errorf("clear tables: %w", err)
	}
	logger.Info("Existing data cleared")

	userIDs := make([]uuid.UUID, len(users))
	for i, u := range users {
		hash, err := services.HashPassword(u.password)
		if err != nil {
			return err
		}
		userIDs[i] = uuid.New()
		_, err = db.Exec(ctx, tx, `INSERT INTO users
			(id, name, email, phone_no, country_code, country_iso, password_hash, role, is_verified)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, TRUE)`,
			userIDs[i], u.name, u.email, u.phoneNo, u.countryCode, u.countryISO, hash, u.role)
		if err != nil {
			return fmt.Errorf("insert user %s: %w", u.email, err)
		}
	}

	tourIDs := make([]uuid.UUID, len(tours))
	for i, t := range tours {
		tourIDs[i] = uuid.New()
		_, err := db.Exec(ctx, tx, `INSERT INTO tours
			(id, name, price, ratings_average, duration, difficulty, locations)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			tourIDs[i], t.name, t.price, t.ratingsAverage, t.duration, t.difficulty, t.locations)
		if err != nil {
			return fmt.Errorf("insert tour %s: %w", t.name, err)
		}
	}

	// The regular user booked every tour and paid for all but the last.
	customer := userIDs[len(userIDs)-1]
	for i, t := range tours {
		paid := i < len(tours)-1
		_, err := db.Exec(ctx, tx,
			"INSERT INTO bookings (tour_id, user_id, price, paid) VALUES ($1, $2, $3, $4)",
			tourIDs[i], customer, t.price, paid)
		if err != nil {
			return fmt.Errorf("insert booking: %w", err)
		}
	}

	for i, r := range reviews {
		_, err := db.Exec(ctx, tx,
			"INSERT INTO reviews (tour_id, user_id, review, rating) VALUES ($1, $2, $3, $4)",
			tourIDs[i], customer, r.text, r.rating)
		if err != nil {
			return fmt.Errorf("insert review: %w", err)
		}
	}
	return nil
}
