// Package auth resolves the acting user for a request. Token issuance belongs
// to the external identity provider; this package only validates bearer
// tokens and threads the actor id through the request context.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	// ActorIDKey carries the acting user's id.
	ActorIDKey contextKey = "actor_id"
)

// Claims are the token claims this service consumes. The subject is the
// user profile id.
type Claims struct {
	jwt.RegisteredClaims
	Roles []string `json:"roles"`
}

// Middleware validates an HMAC-signed bearer token and stores the actor id
// in the request context.
func Middleware(secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if header == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}
			raw := strings.TrimPrefix(header, "Bearer ")
			if raw == header {
				return echo.NewHTTPError(http.StatusUnauthorized, "malformed authorization header")
			}

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
				}
				return secret, nil
			})
			if err != nil || !token.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			actorID, err := uuid.Parse(claims.Subject)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token subject")
			}

			ctx := WithActor(c.Request().Context(), actorID)
			c.SetRequest(c.Request().WithContext(ctx))
			c.Set("actor_id", actorID.String())

			return next(c)
		}
	}
}

// DevAuthMiddleware injects a fixed actor id, for development only.
func DevAuthMiddleware(devUserID uuid.UUID) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := WithActor(c.Request().Context(), devUserID)
			c.SetRequest(c.Request().WithContext(ctx))
			c.Set("actor_id", devUserID.String())
			return next(c)
		}
	}
}

// WithActor stores the acting user id in the context.
func WithActor(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, ActorIDKey, userID)
}

// ActorFromContext retrieves the acting user id. The second return is false
// when no actor is bound (unauthenticated paths).
func ActorFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(ActorIDKey).(uuid.UUID)
	return id, ok
}

// MustActor retrieves the acting user id or returns a 401. Handlers behind
// Middleware can rely on it.
func MustActor(c echo.Context) (uuid.UUID, error) {
	id, ok := ActorFromContext(c.Request().Context())
	if !ok {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "no acting user")
	}
	return id, nil
}
