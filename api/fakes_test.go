package api

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/platform-smith-labs/tourbook/models"
	"github.com/platform-smith-labs/tourbook/services"
)

type fakeUsers struct {
	mu      sync.Mutex
	users   map[uuid.UUID]models.User
	signups []services.SignupInput
	updates []map[string]any
	token   string
	err     error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: make(map[uuid.UUID]models.User), token: "session-token"}
}

func (f *fakeUsers) add(role string) models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := models.User{ID: uuid.New(), Name: "Test User", Email: role + "@example.com", Role: role, IsVerified: true}
	f.users[u.ID] = u
	return u
}

func (f *fakeUsers) Signup(_ context.Context, in services.SignupInput) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return models.User{}, f.err
	}
	f.signups = append(f.signups, in)
	u := models.User{ID: uuid.New(), Name: in.Name, Email: in.Email, Role: in.Role}
	f.users[u.ID] = u
	return u, nil
}

func (f *fakeUsers) VerifyOTP(_ context.Context, email, otp string) (models.User, string, error) {
	if f.err != nil {
		return models.User{}, "", f.err
	}
	return models.User{Email: email, IsVerified: true}, f.token, nil
}

func (f *fakeUsers) ResendOTP(context.Context, string) error { return f.err }

func (f *fakeUsers) Login(_ context.Context, email, password string) (models.User, string, error) {
	if f.err != nil {
		return models.User{}, "", f.err
	}
	return models.User{Email: email}, f.token, nil
}

func (f *fakeUsers) Principal(_ context.Context, id uuid.UUID) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	return u.Role, ok, nil
}

func (f *fakeUsers) Get(_ context.Context, id uuid.UUID) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return models.User{}, services.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) List(context.Context) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, u)
	}
	return out, nil
}

func (f *fakeUsers) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return services.ErrNotFound
	}
	delete(f.users, id)
	return nil
}

func (f *fakeUsers) UpdateMe(ctx context.Context, id uuid.UUID, fields map[string]any) (models.User, error) {
	f.mu.Lock()
	f.updates = append(f.updates, fields)
	f.mu.Unlock()
	return f.Get(ctx, id)
}

func (f *fakeUsers) AdminUpdate(ctx context.Context, id uuid.UUID, fields map[string]any) (models.User, error) {
	return f.UpdateMe(ctx, id, fields)
}

func (f *fakeUsers) UpdatePassword(_ context.Context, id uuid.UUID, current, next string) (string, error) {
	if current != "pass1234" {
		return "", services.ErrWrongPassword
	}
	return f.token, nil
}

func (f *fakeUsers) ForgotPassword(_ context.Context, email string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "http://localhost:3000/reset/abc", nil
}

func (f *fakeUsers) ResetPassword(_ context.Context, token, password string) error {
	if token != "abc" {
		return services.ErrResetTokenInvalid
	}
	return nil
}

type fakeTours struct {
	mu       sync.Mutex
	queries  []services.TourQuery
	created  []services.TourInput
	imported []services.TourInput
	updated  map[string]any
	tours    []models.Tour
	err      error
}

func (f *fakeTours) List(_ context.Context, q services.TourQuery) ([]models.Tour, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	return f.tours, f.err
}

func (f *fakeTours) Get(_ context.Context, id uuid.UUID) (models.Tour, error) {
	for _, t := range f.tours {
		if t.ID == id {
			return t, nil
		}
	}
	return models.Tour{}, services.ErrNotFound
}

func (f *fakeTours) GetByName(_ context.Context, name string) (models.Tour, error) {
	for _, t := range f.tours {
		if t.Name == name {
			return t, nil
		}
	}
	return models.Tour{}, services.ErrNotFound
}

func (f *fakeTours) Create(_ context.Context, in services.TourInput) (models.Tour, error) {
	if f.err != nil {
		return models.Tour{}, f.err
	}
	f.created = append(f.created, in)
	return models.Tour{ID: uuid.New(), Name: in.Name, Price: in.Price, Duration: in.Duration, Difficulty: in.Difficulty}, nil
}

func (f *fakeTours) Import(_ context.Context, inputs []services.TourInput) ([]models.Tour, error) {
	f.imported = append(f.imported, inputs...)
	out := make([]models.Tour, len(inputs))
	for i, in := range inputs {
		out[i] = models.Tour{ID: uuid.New(), Name: in.Name, Price: in.Price}
	}
	return out, nil
}

func (f *fakeTours) Update(ctx context.Context, id uuid.UUID, fields map[string]any) (models.Tour, error) {
	f.updated = fields
	return f.Get(ctx, id)
}

func (f *fakeTours) Delete(_ context.Context, id uuid.UUID) error {
	if _, err := f.Get(context.Background(), id); err != nil {
		return err
	}
	return nil
}

func (f *fakeTours) Stats(context.Context) ([]services.TourStats, error) {
	return []services.TourStats{{Duration: 5, NumTours: 2, AvgPrice: 500}}, nil
}

func (f *fakeTours) MonthlyPlan(_ context.Context, year int) ([]services.MonthPlan, error) {
	return []services.MonthPlan{{Month: 7, NumTours: 1, Tours: []string{"The Forest Hiker"}}}, nil
}

type fakeBookings struct {
	bookings []models.Booking
	reviews  []models.Review
	err      error
}

func (f *fakeBookings) Book(_ context.Context, userID, tourID uuid.UUID, price float64) (models.Booking, error) {
	if f.err != nil {
		return models.Booking{}, f.err
	}
	b := models.Booking{ID: uuid.New(), TourID: tourID, UserID: userID, Price: price, Paid: true}
	f.bookings = append(f.bookings, b)
	return b, nil
}

func (f *fakeBookings) BookingsOf(_ context.Context, userID uuid.UUID) ([]models.Booking, error) {
	var out []models.Booking
	for _, b := range f.bookings {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBookings) Review(_ context.Context, userID, tourID uuid.UUID, rating int, text string) (models.Review, error) {
	if f.err != nil {
		return models.Review{}, f.err
	}
	r := models.Review{ID: uuid.New(), TourID: tourID, UserID: userID, Rating: rating, Review: text}
	f.reviews = append(f.reviews, r)
	return r, nil
}

func (f *fakeBookings) ReviewsOf(_ context.Context, tourID uuid.UUID) ([]models.Review, error) {
	return f.reviews, nil
}
