// Package models holds the persisted entities. `db` tags map columns for
// scany, `json` tags define the API representation.
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// User roles.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
	RoleGuide = "Guide"
)

// User is an account. Credentials and one-time secrets never leave the API.
type User struct {
	ID                uuid.UUID  `db:"id" json:"id"`
	Name              string     `db:"name" json:"name"`
	Email             string     `db:"email" json:"email"`
	PhoneNo           int64      `db:"phone_no" json:"phoneNo"`
	CountryCode       string     `db:"country_code" json:"countryCode"`
	CountryISO        string     `db:"country_iso" json:"countryISO"`
	Role              string     `db:"role" json:"role"`
	Age               *int       `db:"age" json:"age,omitempty"`
	IsVerified        bool       `db:"is_verified" json:"isVerified"`
	PasswordHash      string     `db:"password_hash" json:"-"`
	OTP               *string    `db:"otp" json:"-"`
	OTPExpiresAt      *time.Time `db:"otp_expires_at" json:"-"`
	ResetToken        *string    `db:"reset_token" json:"-"`
	ResetExpiresAt    *time.Time `db:"reset_expires_at" json:"-"`
	PasswordChangedAt *time.Time `db:"password_changed_at" json:"-"`
	CreatedAt         time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updatedAt"`
}

// Location is a GeoJSON point stop of a tour.
type Location struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
	Description string    `json:"description,omitempty"`
	Day         *int      `json:"day,omitempty"`
}

// Locations is stored as a JSONB array.
type Locations []Location

// Value implements driver.Valuer.
func (l Locations) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner.
func (l *Locations) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = Locations{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("models: cannot scan %T into Locations", src)
	}
	out := Locations{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("models: decode locations: %w", err)
	}
	*l = out
	return nil
}

// Tour is a bookable tour.
type Tour struct {
	ID              uuid.UUID `db:"id" json:"id"`
	Name            string    `db:"name" json:"name"`
	Price           float64   `db:"price" json:"price"`
	RatingsAverage  float64   `db:"ratings_average" json:"ratingsAverage"`
	RatingsQuantity int       `db:"ratings_quantity" json:"ratingsQuantity"`
	Duration        int       `db:"duration" json:"duration"`
	Difficulty      string    `db:"difficulty" json:"difficulty"`
	Locations       Locations `db:"locations" json:"locations"`
	CreatedAt       time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time `db:"updated_at" json:"updatedAt"`
}

// DurationWeeks is the tour length in weeks.
func (t Tour) DurationWeeks() float64 {
	return float64(t.Duration) / 7
}

// MarshalJSON adds the derived durationWeeks field.
func (t Tour) MarshalJSON() ([]byte, error) {
	type plain Tour
	return json.Marshal(struct {
		plain
		DurationWeeks float64 `json:"durationWeeks"`
	}{plain(t), t.DurationWeeks()})
}

// Booking is a paid reservation of a tour by a user.
type Booking struct {
	ID        uuid.UUID `db:"id" json:"id"`
	TourID    uuid.UUID `db:"tour_id" json:"tour"`
	UserID    uuid.UUID `db:"user_id" json:"user"`
	Price     float64   `db:"price" json:"price"`
	Paid      bool      `db:"paid" json:"paid"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Review is a user's rating of a tour. A user reviews a tour at most once.
type Review struct {
	ID        uuid.UUID `db:"id" json:"id"`
	TourID    uuid.UUID `db:"tour_id" json:"tour"`
	UserID    uuid.UUID `db:"user_id" json:"user"`
	Review    string    `db:"review" json:"review"`
	Rating    int       `db:"rating" json:"rating"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
