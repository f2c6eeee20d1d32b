// Package auth provides the authentication gate and the two-tier
// authorization model: a declarative route-level role table and a
// per-instance ownership policy evaluated against loaded resources.
package auth

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/prescripto/prescripto/internal/platform/apierror"
)

// Role is an account role. Every authenticated request resolves to exactly
// one role.
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
	RoleLab     Role = "lab"
)

// ValidRole reports whether r is one of the known roles.
func ValidRole(r Role) bool {
	switch r {
	case RolePatient, RoleDoctor, RoleAdmin, RoleLab:
		return true
	}
	return false
}

// Actor is the authenticated identity performing a request.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

// Claims are the self-contained bearer credential claims. Expiry is the only
// invalidation mechanism; there is no server-side session or revocation.
type Claims struct {
	jwt.RegisteredClaims
	Role Role `json:"role"`
}

type contextKey string

const actorKey contextKey = "actor"

// IssueToken signs a credential for the given account, valid for ttl.
func IssueToken(secret []byte, id uuid.UUID, role Role, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role: role,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// JWTMiddleware verifies the bearer credential and stores the resolved Actor
// in the request context. Handlers behind it fail closed with 401 when the
// credential is absent, malformed, or expired.
func JWTMiddleware(secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return apierror.Unauthenticated("missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return apierror.Unauthenticated("invalid authorization format")
			}

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
				return secret, nil
			}, jwt.WithValidMethods([]string{"HS256"}))
			if err != nil || !token.Valid {
				return apierror.Unauthenticated("invalid or expired token")
			}

			id, err := uuid.Parse(claims.Subject)
			if err != nil || !ValidRole(claims.Role) {
				return apierror.Unauthenticated("invalid token claims")
			}

			ctx := context.WithValue(c.Request().Context(), actorKey, Actor{ID: id, Role: claims.Role})
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// ActorFromContext returns the authenticated actor, if any.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey).(Actor)
	return a, ok
}

// MustActor returns the actor from the echo context or fails with 401. Used
// by handlers mounted behind JWTMiddleware.
func MustActor(c echo.Context) (Actor, error) {
	a, ok := ActorFromContext(c.Request().Context())
	if !ok {
		return Actor{}, apierror.Unauthenticated("not authenticated")
	}
	return a, nil
}

// WithActor returns a context carrying the given actor. Test helper and
// internal plumbing; the middleware is the only production writer.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey, a)
}
