// Package services implements the tourbook use cases on top of PostgreSQL.
// Inputs arrive already normalized by the validation gate; services own
// persistence rules such as allow-lists, uniqueness and one-time secrets.
package services

import "errors"

// Sentinel errors mapped to HTTP responses by the api package.
var (
	ErrNotFound           = errors.New("not found")
	ErrEmailTaken         = errors.New("email already exists")
	ErrAlreadyVerified    = errors.New("user already verified")
	ErrInvalidOTP         = errors.New("invalid otp")
	ErrOTPExpired         = errors.New("otp expired")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotVerified        = errors.New("account not verified")
	ErrWrongPassword      = errors.New("current password is wrong")
	ErrResetTokenInvalid  = errors.New("reset token invalid or expired")
	ErrTourNameTaken      = errors.New("tour name already exists")
	ErrUnknownTour        = errors.New("unknown tour")
	ErrDuplicateReview    = errors.New("tour already reviewed by user")
	ErrPageNotFound       = errors.New("page does not exist")
)

// QueryError reports an invalid tour listing query.
type QueryError struct {
	Param  string
	Reason string
}

func (e *QueryError) Error() string {
	return "invalid query parameter " + e.Param + ": " + e.Reason
}
