package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"resale-store/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

type contextKey string

const identityKey contextKey = "identity"

// Identity is the authenticated caller extracted from the bearer token.
// Tokens are issued by the identity provider; this service only verifies.
type Identity struct {
	UserID string
	Email  string
	Name   string
	Role   string
}

// Buyer narrows the identity to the form holds and offers are keyed on.
func (i Identity) Buyer() domain.Buyer {
	return domain.Buyer{ID: i.UserID, Name: i.Name, Email: i.Email}
}

// Auth validates the bearer token and stores the caller identity on the
// request context.
func Auth(jwtSecret string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if header == "" || !ok {
				RespondWithError(w, http.StatusUnauthorized, "missing or malformed authorization header")
				return
			}

			parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !parsed.Valid {
				logger.Debug("Token validation failed", zap.Error(err))
				if errors.Is(err, jwt.ErrTokenExpired) {
					RespondWithError(w, http.StatusUnauthorized, "token expired")
					return
				}
				RespondWithError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			claims, ok := parsed.Claims.(jwt.MapClaims)
			if !ok {
				RespondWithError(w, http.StatusUnauthorized, "invalid token claims")
				return
			}

			identity := Identity{
				UserID: stringClaim(claims, "user_id"),
				Email:  stringClaim(claims, "email"),
				Name:   stringClaim(claims, "name"),
				Role:   stringClaim(claims, "role"),
			}
			if identity.UserID == "" && identity.Email == "" {
				logger.Debug("Token carries no usable identity")
				RespondWithError(w, http.StatusUnauthorized, "invalid token claims")
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func stringClaim(claims jwt.MapClaims, key string) string {
	v, _ := claims[key].(string)
	return v
}

// GetIdentity extracts the authenticated caller from the request context.
func GetIdentity(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey).(Identity)
	return identity, ok
}
