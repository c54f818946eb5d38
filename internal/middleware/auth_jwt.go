package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	jwt "github.com/dgrijalva/jwt-go"

	"captzio/internal/domain"
)

// TokenClaims is the bearer token payload issued by the auth provider.
type TokenClaims struct {
	Email        string       `json:"email,omitempty"`
	UserMetadata userMetadata `json:"user_metadata,omitempty"`
	jwt.StandardClaims
}

type userMetadata struct {
	Name     string `json:"name,omitempty"`
	FullName string `json:"full_name,omitempty"`
}

type identityKey struct{}

// SignJWT issues an HS256 token. Used by the admin CLI and tests.
func SignJWT(secret string, identity domain.Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := TokenClaims{
		Email:        identity.Email,
		UserMetadata: userMetadata{Name: identity.Name},
		StandardClaims: jwt.StandardClaims{
			Subject:   identity.UserID,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(ttl).Unix(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// VerifyJWT validates an HS256 token and returns the caller identity.
func VerifyJWT(secret, token string) (domain.Identity, error) {
	claims := &TokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return domain.Identity{}, fmt.Errorf("validate token: %w", err)
	}
	if !parsed.Valid || strings.TrimSpace(claims.Subject) == "" {
		return domain.Identity{}, errors.New("invalid token")
	}
	name := claims.UserMetadata.Name
	if name == "" {
		name = claims.UserMetadata.FullName
	}
	return domain.Identity{UserID: claims.Subject, Email: claims.Email, Name: name}, nil
}

// AuthJWT rejects requests without a valid bearer token and stores the
// identity in the request context.
func AuthJWT(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
				return
			}
			identity, err := VerifyJWT(secret, strings.TrimSpace(token))
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized", "invalid token")
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), identity)))
		})
	}
}

func ContextWithIdentity(ctx context.Context, identity domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// IdentityFromContext returns the authenticated caller, if any.
func IdentityFromContext(ctx context.Context) (domain.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(domain.Identity)
	return id, ok && id.UserID != ""
}
