package typed

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/platform-smith-labs/tourbook/core"
	"github.com/platform-smith-labs/tourbook/handler"
	"github.com/platform-smith-labs/tourbook/jwt"
)

// SessionCookie is the cookie carrying the session token for browser clients.
const SessionCookie = "jwt"

// PrincipalLookup resolves the user a session token belongs to. ok is false
// when the user no longer exists; err is reserved for storage failures.
type PrincipalLookup func(ctx context.Context, userID uuid.UUID) (role string, ok bool, err error)

var (
	errNoToken      = core.NewAPIError(http.StatusUnauthorized, "Not authorized, no token")
	errTokenFailed  = core.NewAPIError(http.StatusUnauthorized, "Not authorized, token failed")
	errUserVanished = core.NewAPIError(http.StatusUnauthorized, "The user belonging to this token no longer exists")
)

// RequireAuth authenticates the caller from a Bearer token or the session
// cookie, checks the user still exists and sets ctx.UserUUID and ctx.UserRole.
//
// Type arguments cannot be inferred from the factory arguments, so spell them out:
//
//	typed.RequireAuth[struct{}, UpdateMeBody, core.Envelope](cfg.JWTSecret, users.Principal)
func RequireAuth[ParamTypeT any, BodyTypeT any, ResponseBodyT any](
	jwtSecret string,
	lookup PrincipalLookup,
) handler.Middleware[ParamTypeT, BodyTypeT, ResponseBodyT] {
	return func(next handler.Handler[ParamTypeT, BodyTypeT, ResponseBodyT]) handler.Handler[ParamTypeT, BodyTypeT, ResponseBodyT] {
		return func(ctx handler.HandlerContext[ParamTypeT, BodyTypeT], w http.ResponseWriter, r *http.Request) (ResponseBodyT, error) {
			var zeroResponse ResponseBodyT

			token := bearerToken(r)
			if token == "" {
				return zeroResponse, errNoToken
			}

			if jwtSecret == "" {
				ctx.Logger.Error("JWT secret not configured")
				return zeroResponse, core.NewAPIError(http.StatusInternalServerError, "Authentication configuration error")
			}

			claims, err := jwt.ValidateToken(token, jwtSecret)
			if err != nil {
				ctx.Logger.Warn("Invalid JWT token", "error", err.Error())
				return zeroResponse, errTokenFailed
			}

			role, ok, err := lookup(ctx.Context, claims.UserUUID)
			if err != nil {
				return zeroResponse, err
			}
			if !ok {
				return zeroResponse, errUserVanished
			}

			ctx.UserUUID = handler.NewNullable(claims.UserUUID)
			ctx.UserRole = handler.NewNullable(role)
			return next(ctx, w, r)
		}
	}
}

// RestrictTo lets the request through only when the authenticated role is one
// of roles. It must run after RequireAuth.
//
//	typed.RestrictTo[struct{}, struct{}, core.Envelope]("admin")
func RestrictTo[ParamTypeT any, BodyTypeT any, ResponseBodyT any](roles ...string) handler.Middleware[ParamTypeT, BodyTypeT, ResponseBodyT] {
	return func(next handler.Handler[ParamTypeT, BodyTypeT, ResponseBodyT]) handler.Handler[ParamTypeT, BodyTypeT, ResponseBodyT] {
		return func(ctx handler.HandlerContext[ParamTypeT, BodyTypeT], w http.ResponseWriter, r *http.Request) (ResponseBodyT, error) {
			role, ok := ctx.UserRole.TryValue()
			if !ok || !slices.Contains(roles, role) {
				var zeroResponse ResponseBodyT
				return zeroResponse, core.ErrForbidden
			}
			return next(ctx, w, r)
		}
	}
}

// bearerToken prefers the Authorization header and falls back to the cookie.
func bearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer") {
		if _, token, found := strings.Cut(header, " "); found {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}
