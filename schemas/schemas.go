// Package schemas declares the payload contracts of the tourbook API and
// registers them under the names route wiring refers to.
package schemas

import (
	"math"

	"github.com/platform-smith-labs/tourbook/schema"
)

// Registry names.
const (
	CreateUser     = "createUser"
	VerifyOTP      = "verifyOtp"
	ResendOTP      = "resendOtp"
	Login          = "login"
	UpdatePassword = "updatePassword"
	UpdateMe       = "updateMe"
	AdminUpdate    = "adminUpdate"
	CreateBooking  = "createBooking"
	CreateReview   = "createReview"
	ForgotPassword = "forgotPassword"
	ResetPassword  = "resetPassword"
	Location       = "location"
	CreateTour     = "createTour"
	UpdateTour     = "updateTour"
)

// Roles accepted by the user contracts.
var Roles = []string{"admin", "user", "Guide"}

// Difficulties accepted by the tour contracts.
var Difficulties = []string{"easy", "medium", "difficult"}

const (
	passwordMessage      = "Password must be at least 4 characters long"
	passwordBytesMessage = "Password cannot exceed 72 bytes"

	// bcrypt rejects longer input.
	passwordMaxBytes = 72

	// duration is stored in an INTEGER column.
	maxDuration = math.MaxInt32
)

func email(message ...string) schema.FieldRule {
	return schema.String().Email(message...).Trim().Lowercase()
}

func userName() schema.FieldRule {
	return schema.String().
		Min(3, "Name must be at least 3 characters long").
		Max(50, "Name cannot exceed 50 characters").
		Trim()
}

func password() schema.FieldRule {
	return schema.String().
		Min(4, passwordMessage).
		MaxBytes(passwordMaxBytes, passwordBytesMessage)
}

// NewCreateUser is the signup contract.
func NewCreateUser() schema.Schema {
	return schema.New(
		schema.Key("name", userName()),
		schema.Key("email", email("Provide a valid mail")),
		schema.Key("phoneNo", schema.Number().Int()),
		schema.Key("countryCode", schema.String()),
		schema.Key("countryISO", schema.String()),
		schema.Key("pass", password()),
		schema.Key("confirmPass", password()),
		schema.Key("role", schema.Enum(Roles...).Default("user")),
	).Refine(schema.Match("pass", "confirmPass", "Passwords do not match"))
}

// NewVerifyOTP is the contract of the OTP confirmation step.
func NewVerifyOTP() schema.Schema {
	return schema.New(
		schema.Key("email", email("Provide a valid mail")),
		schema.Key("otp", schema.String().Min(6, "OTP must be 6 digits").Max(6, "OTP must be 6 digits").Trim()),
	)
}

// NewResendOTP is the contract of the OTP resend request.
func NewResendOTP() schema.Schema {
	return schema.New(
		schema.Key("email", email("Provide a valid mail")),
	)
}

// NewLogin is the login contract.
func NewLogin() schema.Schema {
	return schema.New(
		schema.Key("email", email("Provide a valid mail")),
		schema.Key("pass", schema.String().Min(1)),
	)
}

// NewUpdatePassword is the contract for changing one's own password.
func NewUpdatePassword() schema.Schema {
	return schema.New(
		schema.Key("currentPassword", schema.String().Min(1)),
		schema.Key("newPassword", password()),
		schema.Key("confirmNewPassword", password()),
	).Refine(schema.Match("newPassword", "confirmNewPassword", "New passwords do not match"))
}

// NewUpdateMe is the self-service profile update contract.
func NewUpdateMe() schema.Schema {
	return schema.New(
		schema.Key("name", schema.String().Min(3).Max(50).Optional()),
		schema.Key("email", schema.String().Email().Lowercase().Optional()),
	)
}

// NewAdminUpdate is the admin user update contract.
func NewAdminUpdate() schema.Schema {
	return schema.New(
		schema.Key("name", schema.String().Min(3).Max(50).Optional()),
		schema.Key("email", schema.String().Email().Lowercase().Optional()),
		schema.Key("role", schema.Enum(Roles...).Optional()),
	)
}

// NewCreateBooking is the booking contract.
func NewCreateBooking() schema.Schema {
	return schema.New(
		schema.Key("tour", schema.String().Min(1)),
		schema.Key("price", schema.Number().Positive()),
	)
}

// NewCreateReview is the review contract.
func NewCreateReview() schema.Schema {
	return schema.New(
		schema.Key("tour", schema.String().Min(1)),
		schema.Key("rating", schema.Number().Int().Min(1).Max(5)),
		schema.Key("review", schema.String().Min(1).Trim()),
	)
}

// NewForgotPassword is the contract of the password reset request.
func NewForgotPassword() schema.Schema {
	return schema.New(
		schema.Key("email", email("Provide a valid mail")),
	)
}

// NewResetPassword is the contract of the password reset itself.
func NewResetPassword() schema.Schema {
	return schema.New(
		schema.Key("password", password()),
		schema.Key("confirmPassword", password()),
	).Refine(schema.Match("password", "confirmPassword", "Passwords do not match"))
}

// NewLocation is a GeoJSON point stop of a tour.
func NewLocation() schema.Schema {
	return schema.New(
		schema.Key("type", schema.Literal("Point").Default("Point")),
		schema.Key("coordinates", schema.ArrayOf(schema.Number()).Length(2)),
		schema.Key("description", schema.String().Optional()),
		schema.Key("day", schema.Number().Int().Optional()),
	)
}

// NewCreateTour is the tour creation contract.
func NewCreateTour() schema.Schema {
	return schema.New(
		schema.Key("name", schema.String().
			Min(3, "Name must be at least 3 characters").
			Max(20, "Name cannot exceed 20 characters").
			Trim()),
		schema.Key("price", schema.Number().Positive("Price must be a positive number")),
		schema.Key("ratingsAverage", schema.Number().Default(4.0)),
		schema.Key("duration", schema.Number().Int().Max(maxDuration).Default(int64(3))),
		schema.Key("difficulty", schema.Enum(Difficulties...).Default("easy")),
		schema.Key("locations", schema.ArrayOf(schema.Nested(NewLocation())).Optional()),
	)
}

// NewRegistry builds the registry used by the API. Update contracts are
// derived from their create counterparts.
func NewRegistry() *schema.Registry {
	createTour := NewCreateTour()
	return schema.NewRegistry(map[string]schema.Schema{
		CreateUser:     NewCreateUser(),
		VerifyOTP:      NewVerifyOTP(),
		ResendOTP:      NewResendOTP(),
		Login:          NewLogin(),
		UpdatePassword: NewUpdatePassword(),
		UpdateMe:       NewUpdateMe(),
		AdminUpdate:    NewAdminUpdate(),
		CreateBooking:  NewCreateBooking(),
		CreateReview:   NewCreateReview(),
		ForgotPassword: NewForgotPassword(),
		ResetPassword:  NewResetPassword(),
		Location:       NewLocation(),
		CreateTour:     createTour,
		UpdateTour:     schema.Partial(createTour),
	})
}
