package utils

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v4"
)

type contextKey string

const actorKey contextKey = "actor"

// Actor is the authenticated user attached to the request context by
// AuthMiddleware.
type Actor struct {
	ID   uint
	Role string
}

// Claims is the JWT payload: the registered subject carries the user id and
// the custom role claim drives authorization.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func GetActorFromContext(r *http.Request) (Actor, error) {
	actor, ok := r.Context().Value(actorKey).(Actor)
	if !ok {
		return Actor{}, errors.New("actor not found in context")
	}
	return actor, nil
}

// AuthMiddleware validates bearer tokens against the given signing secret and
// resolves the actor before any handler runs. The secret must be the same one
// the token issuer signs with.
func AuthMiddleware(secret string) func(http.Handler) http.Handler {
	key := []byte(secret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				WriteError(w, http.StatusUnauthorized, "Authorization header required")
				return
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
				return key, nil
			})
			if err != nil || !token.Valid {
				WriteError(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			userID, err := strconv.ParseUint(claims.Subject, 10, 64)
			if err != nil {
				WriteError(w, http.StatusUnauthorized, "Invalid user ID in token")
				return
			}

			actor := Actor{ID: uint(userID), Role: claims.Role}
			ctx := context.WithValue(r.Context(), actorKey, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRoles gates a route to the given roles. It assumes AuthMiddleware
// already ran.
func RequireRoles(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, err := GetActorFromContext(r)
			if err != nil {
				WriteError(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			if !allowed[actor.Role] {
				WriteError(w, http.StatusForbidden, "Access denied")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
