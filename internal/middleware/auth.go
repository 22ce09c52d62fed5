package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"catalog-admin/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

type contextKey string

const actorKey contextKey = "actor"

// AuthMiddleware validates the bearer token and stores the actor it names in
// the request context. Tokens must carry user_id and role claims; name is
// optional.
func AuthMiddleware(jwtSecret string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Debug("Missing authorization header", zap.String("path", r.URL.Path))
				RespondWithError(w, http.StatusUnauthorized, CodeUnauthorized, "Missing authorization header")
				return
			}

			tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || tokenString == "" {
				logger.Debug("Invalid authorization header format", zap.String("path", r.URL.Path))
				RespondWithError(w, http.StatusUnauthorized, CodeUnauthorized, "Invalid authorization header format")
				return
			}

			actor, err := parseActor(tokenString, jwtSecret)
			if err != nil {
				logger.Debug("Token rejected", zap.Error(err), zap.String("path", r.URL.Path))
				if errors.Is(err, jwt.ErrTokenExpired) {
					RespondWithError(w, http.StatusUnauthorized, CodeUnauthorized, "Token expired")
					return
				}
				RespondWithError(w, http.StatusUnauthorized, CodeUnauthorized, "Invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}

func parseActor(tokenString, secret string) (domain.Actor, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return domain.Actor{}, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return domain.Actor{}, errors.New("invalid token claims")
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return domain.Actor{}, errors.New("token has no user_id claim")
	}
	role, ok := claims["role"].(string)
	if !ok || role == "" {
		return domain.Actor{}, errors.New("token has no role claim")
	}
	name, _ := claims["name"].(string)

	return domain.Actor{ID: userID, Name: name, Role: role}, nil
}

// WithActor returns a copy of ctx carrying actor
func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// GetActor extracts the authenticated actor from context
func GetActor(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorKey).(domain.Actor)
	return actor, ok
}
