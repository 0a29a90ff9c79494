package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type stubValidator struct {
	claims *Claims
	err    error
}

func (s *stubValidator) ValidateToken(string) (*Claims, error) {
	return s.claims, s.err
}

func TestRequireAuth_MissingHeader(t *testing.T) {
	mw := NewMiddleware(&stubValidator{}, zap.NewNop())

	called := false
	handler := mw.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, "/api/validations", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)
}

func TestRequireAuth_InvalidToken(t *testing.T) {
	mw := NewMiddleware(&stubValidator{err: errors.New("expired")}, zap.NewNop())

	handler := mw.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not be called")
	})

	req := httptest.NewRequest(http.MethodPost, "/api/validations", nil)
	req.Header.Set("Authorization", "Bearer bad-token")
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuth_SetsClaimsInContext(t *testing.T) {
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-123"},
	}
	mw := NewMiddleware(&stubValidator{claims: claims}, zap.NewNop())

	var gotUserID string
	handler := mw.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = GetUserIDFromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodPost, "/api/validations", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-123", gotUserID)
}

func TestRequireUserIDFromContext_Unauthenticated(t *testing.T) {
	_, err := RequireUserIDFromContext(t.Context())
	assert.Error(t, err)
}
