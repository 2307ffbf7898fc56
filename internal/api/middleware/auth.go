package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/ariamap/ariamap/internal/api/models"
	"github.com/ariamap/ariamap/internal/auth"
)

// userIDKey is the context key for the authenticated user ID.
type userIDKey struct{}

// roleKey is the context key for the authenticated user's role.
type roleKey struct{}

// RequireRoles creates authentication middleware that validates JWT
// bearer tokens and admits only the listed roles.
func RequireRoles(jwtService *auth.JWTService, roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Extract bearer token from Authorization header
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeUnauthorized(w, "missing authorization header")
				return
			}

			// Check for Bearer prefix (case-insensitive)
			const bearerPrefix = "Bearer "
			if len(authHeader) < len(bearerPrefix) ||
				!strings.EqualFold(authHeader[:len(bearerPrefix)], bearerPrefix) {
				writeUnauthorized(w, "invalid authorization header format")
				return
			}

			tokenString := authHeader[len(bearerPrefix):]
			if tokenString == "" {
				writeUnauthorized(w, "missing bearer token")
				return
			}

			// Validate the token
			claims, err := jwtService.ValidateAccessToken(tokenString)
			if err != nil {
				switch {
				case errors.Is(err, auth.ErrAccessTokenExpired):
					writeUnauthorized(w, "access token has expired")
				case errors.Is(err, auth.ErrInvalidAccessToken):
					writeUnauthorized(w, "invalid access token")
				default:
					writeUnauthorized(w, "authentication failed")
				}
				return
			}

			if _, ok := allowed[claims.Role]; !ok {
				models.Fail("insufficient role").Write(w, http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey{}, claims.UserID)
			ctx = context.WithValue(ctx, roleKey{}, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, detail string) {
	models.Fail(detail).Write(w, http.StatusUnauthorized)
}

// GetUserID retrieves the authenticated user ID from the context.
// Returns an empty string if not authenticated.
func GetUserID(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey{}).(string); ok {
		return id
	}
	return ""
}

// GetRole retrieves the authenticated user's role from the context.
// Returns an empty string if not authenticated.
func GetRole(ctx context.Context) string {
	if role, ok := ctx.Value(roleKey{}).(string); ok {
		return role
	}
	return ""
}
