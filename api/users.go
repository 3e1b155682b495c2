package api

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/platform-smith-labs/tourbook/core"
	"github.com/platform-smith-labs/tourbook/handler"
	"github.com/platform-smith-labs/tourbook/middleware/typed"
	"github.com/platform-smith-labs/tourbook/models"
	"github.com/platform-smith-labs/tourbook/schemas"
	"github.com/platform-smith-labs/tourbook/services"
)

type verifyBody struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type emailBody struct {
	Email string `json:"email"`
}

type loginBody struct {
	Email string `json:"email"`
	Pass  string `json:"pass"`
}

type updatePasswordBody struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type resetBody struct {
	Password string `json:"password"`
}

type userParams struct {
	ID uuid.UUID `param:"id" validate:"required"`
}

type resetParams struct {
	Token string `param:"token" validate:"required"`
}

// SignupResponse acknowledges a pending account.
type SignupResponse struct {
	Status  string    `json:"status"`
	Message string    `json:"message"`
	UserID  uuid.UUID `json:"userId"`
}

// ForgotResponse acknowledges a reset request. ResetURL is only filled
// outside production.
type ForgotResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	ResetURL string `json:"resetURL,omitempty"`
}

var (
	errUserNotFound = on(services.ErrNotFound, http.StatusNotFound, "User not found")
	errEmailTaken   = on(services.ErrEmailTaken, http.StatusBadRequest, "Email already exists")
)

func (a *API) registerUsers(reg *handler.Registry) {
	secret, lookup := a.deps.Config.JWTSecret, a.deps.Users.Principal

	handler.MakeHandler(reg,
		handler.RouteInfo{Method: http.MethodPost, Path: "/signup", Tags: []string{"Auth"}, Summary: "Create an account and email its OTP", BodySchema: schemas.CreateUser},
		a.signup,
		typed.WithRequestID,
		typed.WithLogging,
		typed.ValidateBody[struct{}, services.SignupInput, SignupResponse](a.gate, schemas.CreateUser),
		typed.ParseBody,
		typed.ResponseJSON,
	)
	handler.MakeHandler(reg,
		handler.RouteInfo{Method: http.MethodPost, Path: "/verify-otp", Tags: []string{"Auth"}, Summary: "Verify the signup OTP", BodySchema: schemas.VerifyOTP},
		a.verifyOTP,
		typed.WithRequestID,
		typed.WithLogging,
		typed.ValidateBody[struct{}, verifyBody, core.Envelope](a.gate, schemas.VerifyOTP),
		typed.ParseBody,
		typed.ResponseStatus[struct{}, verifyBody, core.Envelope](http.StatusOK),
	)
	handler.MakeHandler(reg,
		handler.RouteInfo{Method: http.MethodPost, Path: "/resend-otp", Tags: []string{"Auth"}, Summary: "Send a new OTP", BodySchema: schemas.ResendOTP},
		a.resendOTP,
		typed.WithRequestID,
		typed.WithLogging,
		typed.ValidateBody[struct{}, emailBody, core.Envelope](a.gate, schemas.ResendOTP),
		typed.ParseBody,
		typed.ResponseStatus[struct{}, emailBody, core.Envelope](http.StatusOK),
	)
	handler.MakeHandler(reg,
		handler.RouteInfo{Method: http.MethodPost, Path: "/login", Tags: []string{"Auth"}, Summary: "Log in", BodySchema: schemas.Login},
		a.login,
		typed.WithRequestID,
		typed.WithLogging,
		typed.ValidateBody[struct{}, loginBody, core.Envelope](a.gate, schemas.Login),
		typed.ParseBody,
		typed.ResponseJSON,
	)
	handler.MakeHandler(reg,
		handler.RouteInfo{Method: http.MethodPost, Path: "/logout", Tags: []string{"Auth"}, Summary: "Clear the session cookie"},
		a.logout,
		typed.WithRequestID,
		typed.ResponseStatus[struct{}, struct{}, core.Envelope](http.StatusOK),
	)
	handler.MakeHandler(reg,
		handler.RouteInfo{Method: http.MethodPost, Path: "/forget", Tags: []string{"Auth"}, Summary: "Request a password reset link", BodySchema: schemas.ForgotPassword},
		a.forgotPassword,
		typed.WithRequestID,
		typed.WithLogging,
		typed.ValidateBody[struct{}, emailBody, ForgotResponse](a.gate, schemas.ForgotPassword),
		typed.ParseBody,
		typed.ResponseStatus[struct{}, emailBody, ForgotResponse](http.StatusOK),
	)
	handler.MakeHandler(reg,
		handler.RouteInfo{Method: http.MethodPost, Path: "/reset/{token}", Tags: []string{"Auth"}, Summary: "Reset the password with an emailed token", BodySchema: schemas.ResetPassword},
		a.resetPassword,
		typed.WithRequestID,
		typed.WithLogging,
		typed.ParseParams,
		typed.ValidateBody[resetParams, resetBody, core.Envelope](a.gate, schemas.ResetPassword),
		typed.ParseBody,
		typed.ResponseStatus[resetParams, resetBody, core.Envelope](http.StatusOK),
	)

	handler.MakeHandler(reg,
		handler.RouteInfo{Method: http.MethodGet, Path: "/users", Tags: []string{"Users"}, Summary: "List users"},
		a.listUsers,
		typed.WithRequestID,
		typed.RequireAuth[struct{}, struct{}, core.Envelope](secret, lookup),
		typed.RestrictTo[struct{}, struct{}, core.Envelope](models.RoleAdmin),
		typed.WithLogging,
		typed.ResponseJSON,
	)
	handler.MakeHandler(reg,
		handler.RouteInfo{Method: http.MethodPatch, Path: "/users/me", Tags: []string{"Users"}, Summary: "Update one's own profile", BodySchema: schemas.UpdateMe},
		a.updateMe,
		typed.WithRequestID,
		typed.RequireAuth[struct{}, struct{}, core.Envelope](secret, lookup),
		typed.WithLogging,
		typed.ValidateBody[struct{}, struct{}, core.Envelope](a.gate, schemas.UpdateMe),
		typed.ResponseJSON,
	)
	handler.MakeHandler(reg,
		handler.RouteInfo{Method: http.MethodPatch, Path: "/users/update-password", Tags: []string{"Users"}, Summary: "Change one's own password", BodySchema: schemas.UpdatePassword},
		a.updatePassword,
		typed.WithRequestID,
		typed.RequireAuth[struct{}, updatePasswordBody, core.Envelope](secret, lookup),
		typed.WithLogging,
		typed.ValidateBody[struct{}, updatePasswordBody, core.Envelope](a.gate, schemas.UpdatePassword),
		typed.ParseBody,
		typed.ResponseJSON,
	)
	handler.MakeHandler(reg,
		handler.RouteInfo{Method: http.MethodPatch, Path: "/users/{id}", Tags: []string{"Users"}, Summary: "Update a user", BodySchema: schemas.AdminUpdate},
		a.adminUpdate,
		typed.WithRequestID,
		typed.RequireAuth[userParams, struct{}, core.Envelope](secret, lookup),
		typed.RestrictTo[userParams, struct{}, core.Envelope](models.RoleAdmin),
		typed.WithLogging,
		typed.ParseParams,
		typed.ValidateBody[userParams, struct{}, core.Envelope](a.gate, schemas.AdminUpdate),
		typed.ResponseJSON,
	)
	handler.MakeHandler(reg,
		handler.RouteInfo{Method: http.MethodDelete, Path: "/users/{id}", Tags: []string{"Users"}, Summary: "Delete a user"},
		a.deleteUser,
		typed.WithRequestID,
		typed.RequireAuth[userParams, struct{}, core.Envelope](secret, lookup),
		typed.RestrictTo[userParams, struct{}, core.Envelope](models.RoleAdmin),
		typed.WithLogging,
		typed.ParseParams,
		typed.ResponseJSON,
	)
}

func (a *API) signup(ctx handler.HandlerContext[struct{}, services.SignupInput], w http.ResponseWriter, r *http.Request) (SignupResponse, error) {
	user, err := a.deps.Users.Signup(ctx.Context, ctx.Body.Value())
	if err != nil {
		return SignupResponse{}, translate(err, errEmailTaken)
	}
	return SignupResponse{
		Status:  core.StatusSuccess,
		Message: "OTP sent to your email. Please verify to complete signup.",
		UserID:  user.ID,
	}, nil
}

func (a *API) verifyOTP(ctx handler.HandlerContext[struct{}, verifyBody], w http.ResponseWriter, r *http.Request) (core.Envelope, error) {
	body := ctx.Body.Value()
	user, token, err := a.deps.Users.VerifyOTP(ctx.Context, body.Email, body.OTP)
	if err != nil {
		return core.Envelope{}, translate(err,
			errUserNotFound,
			on(services.ErrAlreadyVerified, http.StatusBadRequest, "User already verified"),
			on(services.ErrInvalidOTP, http.StatusBadRequest, "Invalid OTP"),
			on(services.ErrOTPExpired, http.StatusBadRequest, "OTP expired"),
		)
	}
	a.setSessionCookie(w, token)
	return core.Envelope{Status: core.StatusSuccess, Token: token, Data: user}, nil
}

func (a *API) resendOTP(ctx handler.HandlerContext[struct{}, emailBody], w http.ResponseWriter, r *http.Request) (core.Envelope, error) {
	if err := a.deps.Users.ResendOTP(ctx.Context, ctx.Body.Value().Email); err != nil {
		return core.Envelope{}, translate(err,
			errUserNotFound,
			on(services.ErrAlreadyVerified, http.StatusBadRequest, "User already verified"),
		)
	}
	return core.Message("OTP resent successfully"), nil
}

func (a *API) login(ctx handler.HandlerContext[struct{}, loginBody], w http.ResponseWriter, r *http.Request) (core.Envelope, error) {
	body := ctx.Body.Value()
	user, token, err := a.deps.Users.Login(ctx.Context, body.Email, body.Pass)
	if err != nil {
		return core.Envelope{}, translate(err,
			on(services.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid credentials"),
			on(services.ErrNotVerified, http.StatusUnauthorized, "Please verify your account first"),
		)
	}
	a.setSessionCookie(w, token)
	return core.Envelope{Status: core.StatusSuccess, Token: token, Data: user}, nil
}

func (a *API) logout(ctx handler.HandlerContext[struct{}, struct{}], w http.ResponseWriter, r *http.Request) (core.Envelope, error) {
	a.clearSessionCookie(w)
	return core.Envelope{Status: core.StatusSuccess}, nil
}

func (a *API) forgotPassword(ctx handler.HandlerContext[struct{}, emailBody], w http.ResponseWriter, r *http.Request) (ForgotResponse, error) {
	url, err := a.deps.Users.ForgotPassword(ctx.Context, ctx.Body.Value().Email)
	if err != nil {
		return ForgotResponse{}, translate(err,
			on(services.ErrNotFound, http.StatusNotFound, "Email not found"),
			on(services.ErrNotVerified, http.StatusBadRequest, "Account not verified. Please verify OTP first."),
		)
	}
	resp := ForgotResponse{Status: core.StatusSuccess, Message: "Reset link generated. Please check your email."}
	if !a.deps.Config.IsProduction() {
		resp.ResetURL = url
	}
	return resp, nil
}

func (a *API) resetPassword(ctx handler.HandlerContext[resetParams, resetBody], w http.ResponseWriter, r *http.Request) (core.Envelope, error) {
	err := a.deps.Users.ResetPassword(ctx.Context, ctx.Params.Value().Token, ctx.Body.Value().Password)
	if err != nil {
		return core.Envelope{}, translate(err,
			on(services.ErrResetTokenInvalid, http.StatusBadRequest, "Token invalid or expired"),
		)
	}
	return core.Message("Password reset successfully"), nil
}

func (a *API) listUsers(ctx handler.HandlerContext[struct{}, struct{}], w http.ResponseWriter, r *http.Request) (core.Envelope, error) {
	users, err := a.deps.Users.List(ctx.Context)
	if err != nil {
		return core.Envelope{}, err
	}
	return core.Counted(len(users), users), nil
}

func (a *API) updateMe(ctx handler.HandlerContext[struct{}, struct{}], w http.ResponseWriter, r *http.Request) (core.Envelope, error) {
	user, err := a.deps.Users.UpdateMe(ctx.Context, ctx.UserUUID.Value(), ctx.Validated.Value())
	if err != nil {
		return core.Envelope{}, translate(err, errUserNotFound, errEmailTaken)
	}
	return core.OK(map[string]any{"user": user}), nil
}

func (a *API) updatePassword(ctx handler.HandlerContext[struct{}, updatePasswordBody], w http.ResponseWriter, r *http.Request) (core.Envelope, error) {
	body := ctx.Body.Value()
	token, err := a.deps.Users.UpdatePassword(ctx.Context, ctx.UserUUID.Value(), body.CurrentPassword, body.NewPassword)
	if err != nil {
		return core.Envelope{}, translate(err,
			errUserNotFound,
			on(services.ErrWrongPassword, http.StatusUnauthorized, "Current password is wrong"),
		)
	}
	a.setSessionCookie(w, token)
	return core.Envelope{Status: core.StatusSuccess, Message: "Password updated successfully", Token: token}, nil
}

func (a *API) adminUpdate(ctx handler.HandlerContext[userParams, struct{}], w http.ResponseWriter, r *http.Request) (core.Envelope, error) {
	user, err := a.deps.Users.AdminUpdate(ctx.Context, ctx.Params.Value().ID, ctx.Validated.Value())
	if err != nil {
		return core.Envelope{}, translate(err, errUserNotFound, errEmailTaken)
	}
	return core.OK(map[string]any{"user": user}), nil
}

func (a *API) deleteUser(ctx handler.HandlerContext[userParams, struct{}], w http.ResponseWriter, r *http.Request) (core.Envelope, error) {
	if err := a.deps.Users.Delete(ctx.Context, ctx.Params.Value().ID); err != nil {
		return core.Envelope{}, translate(err, errUserNotFound)
	}
	return core.Envelope{}, nil
}
