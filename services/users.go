package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/platform-smith-labs/tourbook/config"
	"github.com/platform-smith-labs/tourbook/core"
	"github.com/platform-smith-labs/tourbook/db"
	"github.com/platform-smith-labs/tourbook/jwt"
	"github.com/platform-smith-labs/tourbook/models"
)

const (
	userColumns = "id, name, email, phone_no, country_code, country_iso, role, age, is_verified, password_hash, " +
		"otp, otp_expires_at, reset_token, reset_expires_at, password_changed_at, created_at, updated_at"

	hashCost  = 10
	otpDigits = 6
)

// Notifier delivers the account emails; *mailer.Mailer implements it.
type Notifier interface {
	SendOTP(ctx context.Context, to, otp string) error
	SendPasswordReset(ctx context.Context, to, token string) error
	ResetURL(token string) string
}

// UserOptions holds token secrets and lifetimes.
type UserOptions struct {
	JWTSecret  string
	SessionTTL time.Duration
	ResetTTL   time.Duration
	OTPTTL     time.Duration
}

// SignupInput is a decoded createUser payload.
type SignupInput struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNo     int64  `json:"phoneNo"`
	CountryCode string `json:"countryCode"`
	CountryISO  string `json:"countryISO"`
	Pass        string `json:"pass"`
	Role        string `json:"role"`
}

// Allow-lists of the profile updates. Keys missing from the payload and
// falsy values are left untouched.
var (
	selfUpdateOrder  = []string{"name", "email", "age"}
	adminUpdateOrder = []string{"name", "email", "age", "role"}
	userUpdateFields = map[string]column{
		"name":  {name: "name"},
		"email": {name: "email", convert: lowerString},
		"age":   {name: "age"},
		"role":  {name: "role"},
	}
)

// SelfUpdateFields lists the keys UpdateMe may change.
func SelfUpdateFields() []string { return slices.Clone(selfUpdateOrder) }

// AdminUpdateFields lists the keys AdminUpdate may change.
func AdminUpdateFields() []string { return slices.Clone(adminUpdateOrder) }

// UserService implements accounts, authentication and password flows.
type UserService struct {
	db       *sql.DB
	notifier Notifier
	opts     UserOptions
	logger   *slog.Logger
	now      func() time.Time
}

// NewUserService creates a UserService.
func NewUserService(database *sql.DB, notifier Notifier, opts UserOptions, logger *slog.Logger) *UserService {
	return &UserService{
		db:       database,
		notifier: notifier,
		opts:     opts,
		logger:   config.BuildLogger(logger, config.LoggerOptions{Layer: "services", Location: "users"}),
		now:      time.Now,
	}
}

// Signup stores an unverified account and emails its OTP. A failed email is
// logged only: the client can ask for a new code with ResendOTP.
func (s *UserService) Signup(ctx context.Context, in SignupInput) (models.User, error) {
	email := strings.ToLower(in.Email)
	if _, err := s.byEmail(ctx, email); err == nil {
		return models.User{}, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return models.User{}, err
	}

	hash, err := HashPassword(in.Pass)
	if err != nil {
		return models.User{}, err
	}
	otp, err := GenerateOTP()
	if err != nil {
		return models.User{}, err
	}
	role := in.Role
	if role == "" {
		role = models.RoleUser
	}

	user, err := db.QueryOne[models.User](ctx, s.db,
		`INSERT INTO users (name, email, phone_no, country_code, country_iso, role, password_hash, otp, otp_expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING `+userColumns,
		in.Name, email, in.PhoneNo, in.CountryCode, in.CountryISO, role, hash, otp, s.now().Add(s.opts.OTPTTL),
	)
	if core.IsUniqueConstraintError(err, "users_email_key") {
		return models.User{}, ErrEmailTaken
	}
	if err != nil {
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}

	if err := s.notifier.SendOTP(ctx, user.Email, otp); err != nil {
		s.logger.WarnContext(ctx, "Signup OTP not delivered", "user_id", user.ID, "error", err)
	}
	s.logger.InfoContext(ctx, "User signed up", "user_id", user.ID)
	return user, nil
}

// VerifyOTP confirms an account and opens a session.
func (s *UserService) VerifyOTP(ctx context.Context, email, otp string) (models.User, string, error) {
	user, err := s.byEmail(ctx, email)
	if err != nil {
		return models.User{}, "", err
	}
	if user.IsVerified {
		return models.User{}, "", ErrAlreadyVerified
	}
	if user.OTP == nil || subtle.ConstantTimeCompare([]byte(*user.OTP), []byte(otp)) != 1 {
		return models.User{}, "", ErrInvalidOTP
	}
	if user.OTPExpiresAt == nil || s.now().After(*user.OTPExpiresAt) {
		return models.User{}, "", ErrOTPExpired
	}

	user, err = s.one(ctx,
		`UPDATE users SET is_verified = true, otp = NULL, otp_expires_at = NULL, updated_at = now()
		 WHERE id = $1 RETURNING `+userColumns, user.ID)
	if err != nil {
		return models.User{}, "", err
	}
	token, err := s.sessionToken(user.ID)
	if err != nil {
		return models.User{}, "", err
	}
	return user, token, nil
}

// ResendOTP issues and emails a fresh OTP to an unverified account.
func (s *UserService) ResendOTP(ctx context.Context, email string) error {
	user, err := s.byEmail(ctx, email)
	if err != nil {
		return err
	}
	if user.IsVerified {
		return ErrAlreadyVerified
	}
	otp, err := GenerateOTP()
	if err != nil {
		return err
	}
	if _, err := db.Exec(ctx, s.db,
		"UPDATE users SET otp = $2, otp_expires_at = $3, updated_at = now() WHERE id = $1",
		user.ID, otp, s.now().Add(s.opts.OTPTTL)); err != nil {
		return fmt.Errorf("store otp: %w", err)
	}
	return s.notifier.SendOTP(ctx, user.Email, otp)
}

// Login checks credentials of a verified account and opens a session.
func (s *UserService) Login(ctx context.Context, email, password string) (models.User, string, error) {
	user, err := s.byEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return models.User{}, "", ErrInvalidCredentials
	}
	if err != nil {
		return models.User{}, "", err
	}
	if !CheckPassword(user.PasswordHash, password) {
		return models.User{}, "", ErrInvalidCredentials
	}
	if !user.IsVerified {
		return models.User{}, "", ErrNotVerified
	}
	token, err := s.sessionToken(user.ID)
	if err != nil {
		return models.User{}, "", err
	}
	return user, token, nil
}

// Principal resolves the role of a token subject. ok is false when the
// account no longer exists.
func (s *UserService) Principal(ctx context.Context, id uuid.UUID) (string, bool, error) {
	user, err := s.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return user.Role, true, nil
}

// Get returns one account.
func (s *UserService) Get(ctx context.Context, id uuid.UUID) (models.User, error) {
	return s.one(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id)
}

// List returns every account, newest first.
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	users, err := db.QueryMany[models.User](ctx, s.db, "SELECT "+userColumns+" FROM users ORDER BY created_at DESC, id")
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Delete removes an account with its bookings and reviews.
func (s *UserService) Delete(ctx context.Context, id uuid.UUID) error {
	n, err := db.Exec(ctx, s.db, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateMe applies the self-service allow-list.
func (s *UserService) UpdateMe(ctx context.Context, id uuid.UUID, fields map[string]any) (models.User, error) {
	return s.update(ctx, id, fields, selfUpdateOrder)
}

// AdminUpdate applies the admin allow-list, which adds role.
func (s *UserService) AdminUpdate(ctx context.Context, id uuid.UUID, fields map[string]any) (models.User, error) {
	return s.update(ctx, id, fields, adminUpdateOrder)
}

func (s *UserService) update(ctx context.Context, id uuid.UUID, fields map[string]any, order []string) (models.User, error) {
	clauses, args, err := assignments(fields, userUpdateFields, order, 2, true)
	if err != nil {
		return models.User{}, err
	}
	if len(clauses) == 0 {
		return s.Get(ctx, id)
	}
	user, err := s.one(ctx,
		"UPDATE users SET "+setClause(clauses)+", updated_at = now() WHERE id = $1 RETURNING "+userColumns,
		append([]any{id}, args...)...)
	if core.IsUniqueConstraintError(err, "users_email_key") {
		return models.User{}, ErrEmailTaken
	}
	return user, err
}

// UpdatePassword replaces the password after checking the current one and
// returns a fresh session token.
func (s *UserService) UpdatePassword(ctx context.Context, id uuid.UUID, current, next string) (string, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if !CheckPassword(user.PasswordHash, current) {
		return "", ErrWrongPassword
	}
	if err := s.setPassword(ctx, id, next); err != nil {
		return "", err
	}
	return s.sessionToken(id)
}

// ForgotPassword stores a reset token for a verified account, emails the
// link and returns it.
func (s *UserService) ForgotPassword(ctx context.Context, email string) (string, error) {
	user, err := s.byEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if !user.IsVerified {
		return "", ErrNotVerified
	}

	token, err := jwt.GenerateToken(user.ID, jwt.PurposeReset, s.opts.JWTSecret, s.opts.ResetTTL)
	if err != nil {
		return "", err
	}
	if _, err := db.Exec(ctx, s.db,
		"UPDATE users SET reset_token = $2, reset_expires_at = $3, updated_at = now() WHERE id = $1",
		user.ID, token, s.now().Add(s.opts.ResetTTL)); err != nil {
		return "", fmt.Errorf("store reset token: %w", err)
	}

	if err := s.notifier.SendPasswordReset(ctx, user.Email, token); err != nil {
		if _, clearErr := db.Exec(ctx, s.db,
			"UPDATE users SET reset_token = NULL, reset_expires_at = NULL WHERE id = $1", user.ID); clearErr != nil {
			s.logger.ErrorContext(ctx, "Failed to clear reset token", "user_id", user.ID, "error", clearErr)
		}
		return "", err
	}
	return s.notifier.ResetURL(token), nil
}

// ResetPassword consumes a reset token. The token must verify and still be
// the one stored on the account.
func (s *UserService) ResetPassword(ctx context.Context, token, password string) error {
	claims, err := jwt.ValidatePurpose(token, s.opts.JWTSecret, jwt.PurposeReset)
	if err != nil {
		return ErrResetTokenInvalid
	}
	user, err := s.Get(ctx, claims.UserUUID)
	if errors.Is(err, ErrNotFound) {
		return ErrResetTokenInvalid
	}
	if err != nil {
		return err
	}
	if user.ResetToken == nil || subtle.ConstantTimeCompare([]byte(*user.ResetToken), []byte(token)) != 1 ||
		user.ResetExpiresAt == nil || s.now().After(*user.ResetExpiresAt) {
		return ErrResetTokenInvalid
	}
	return s.setPassword(ctx, user.ID, password)
}

func (s *UserService) setPassword(ctx context.Context, id uuid.UUID, password string) error {
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	if _, err := db.Exec(ctx, s.db,
		`UPDATE users SET password_hash = $2, password_changed_at = now(),
		        reset_token = NULL, reset_expires_at = NULL, updated_at = now()
		 WHERE id = $1`, id, hash); err != nil {
		return fmt.Errorf("store password: %w", err)
	}
	s.logger.InfoContext(ctx, "Password changed", "user_id", id)
	return nil
}

func (s *UserService) sessionToken(id uuid.UUID) (string, error) {
	return jwt.GenerateToken(id, jwt.PurposeSession, s.opts.JWTSecret, s.opts.SessionTTL)
}

func (s *UserService) byEmail(ctx context.Context, email string) (models.User, error) {
	return s.one(ctx, "SELECT "+userColumns+" FROM users WHERE email = $1", strings.ToLower(email))
}

func (s *UserService) one(ctx context.Context, stmt string, args ...any) (models.User, error) {
	user, err := db.QueryOne[models.User](ctx, s.db, stmt, args...)
	if errors.Is(err, db.ErrNotFound) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

// HashPassword bcrypt-hashes a password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// GenerateOTP returns a random six digit code without a leading zero.
func GenerateOTP() (string, error) {
	low := big.NewInt(1)
	for range otpDigits - 1 {
		low.Mul(low, big.NewInt(10))
	}
	span := new(big.Int).Mul(low, big.NewInt(9))
	n, err := rand.Int(rand.Reader, span)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return n.Add(n, low).String(), nil
}

func lowerString(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("expected string, got %T", v)
	}
	return strings.ToLower(s), nil
}
