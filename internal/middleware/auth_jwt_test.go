package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwt "github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"captzio/internal/domain"
)

func TestSignAndVerifyJWT(t *testing.T) {
	id := domain.Identity{UserID: "user-1", Email: "ana@loja.test", Name: "Ana"}
	token, err := SignJWT("s3cret", id, time.Hour)
	require.NoError(t, err)

	got, err := VerifyJWT("s3cret", token)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = VerifyJWT("other", token)
	assert.Error(t, err)
}

func TestVerifyJWTRejectsExpiredAndSubjectless(t *testing.T) {
	expired, err := SignJWT("s3cret", domain.Identity{UserID: "u"}, -time.Minute)
	require.NoError(t, err)
	_, err = VerifyJWT("s3cret", expired)
	assert.Error(t, err)

	anon, err := SignJWT("s3cret", domain.Identity{}, time.Hour)
	require.NoError(t, err)
	_, err = VerifyJWT("s3cret", anon)
	assert.Error(t, err)
}

func TestVerifyJWTReadsFullNameMetadata(t *testing.T) {
	claims := jwt.MapClaims{
		"sub":           "user-2",
		"email":         "bia@loja.test",
		"exp":           time.Now().Add(time.Hour).Unix(),
		"user_metadata": map[string]any{"full_name": "Bia Souza"},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	got, err := VerifyJWT("s3cret", token)
	require.NoError(t, err)
	assert.Equal(t, "Bia Souza", got.Name)
}

func TestAuthJWTMiddleware(t *testing.T) {
	var seen domain.Identity
	h := AuthJWT("s3cret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"unauthorized"`)

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := SignJWT("s3cret", domain.Identity{UserID: "user-3"}, time.Hour)
	require.NoError(t, err)
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer "+token)
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "user-3", seen.UserID)
}
