package services

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/platform-smith-labs/tourbook/config"
	"github.com/platform-smith-labs/tourbook/core"
	"github.com/platform-smith-labs/tourbook/db"
	"github.com/platform-smith-labs/tourbook/models"
)

const (
	bookingColumns = "id, tour_id, user_id, price, paid, created_at"
	reviewColumns  = "id, tour_id, user_id, review, rating, created_at"
)

// BookingService records bookings and reviews of tours.
type BookingService struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewBookingService creates a BookingService.
func NewBookingService(database *sql.DB, logger *slog.Logger) *BookingService {
	return &BookingService{db: database, logger: config.BuildLogger(logger, config.LoggerOptions{Layer: "services", Location: "bookings"})}
}

// Book stores a paid booking of tourID by userID.
func (s *BookingService) Book(ctx context.Context, userID, tourID uuid.UUID, price float64) (models.Booking, error) {
	booking, err := db.QueryOne[models.Booking](ctx, s.db,
		"INSERT INTO bookings (tour_id, user_id, price) VALUES ($1, $2, $3) RETURNING "+bookingColumns,
		tourID, userID, price)
	if core.IsForeignKeyConstraintError(err, "bookings_tour_fkey") {
		return models.Booking{}, ErrUnknownTour
	}
	if err != nil {
		return models.Booking{}, fmt.Errorf("insert booking: %w", err)
	}
	s.logger.InfoContext(ctx, "Tour booked", "booking_id", booking.ID, "tour_id", tourID, "user_id", userID)
	return booking, nil
}

// BookingsOf lists the bookings of one user, newest first.
func (s *BookingService) BookingsOf(ctx context.Context, userID uuid.UUID) ([]models.Booking, error) {
	return db.QueryMany[models.Booking](ctx, s.db,
		"SELECT "+bookingColumns+" FROM bookings WHERE user_id = $1 ORDER BY created_at DESC, id", userID)
}

// Review stores a rating of tourID by userID. A user reviews a tour once.
func (s *BookingService) Review(ctx context.Context, userID, tourID uuid.UUID, rating int, text string) (models.Review, error) {
	review, err := db.QueryOne[models.Review](ctx, s.db,
		"INSERT INTO reviews (tour_id, user_id, review, rating) VALUES ($1, $2, $3, $4) RETURNING "+reviewColumns,
		tourID, userID, text, rating)
	switch {
	case core.IsUniqueConstraintError(err, "reviews_tour_user_key"):
		return models.Review{}, ErrDuplicateReview
	case core.IsForeignKeyConstraintError(err, "reviews_tour_fkey"):
		return models.Review{}, ErrUnknownTour
	case err != nil:
		return models.Review{}, fmt.Errorf("insert review: %w", err)
	}
	return review, nil
}

// ReviewsOf lists the reviews of one tour, newest first.
func (s *BookingService) ReviewsOf(ctx context.Context, tourID uuid.UUID) ([]models.Review, error) {
	return db.QueryMany[models.Review](ctx, s.db,
		"SELECT "+reviewColumns+" FROM reviews WHERE tour_id = $1 ORDER BY created_at DESC, id", tourID)
}
