package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeValidator struct {
	tokens map[string]string // token -> external id
}

func (f *fakeValidator) ValidateToken(tokenString string) (string, error) {
	id, ok := f.tokens[tokenString]
	if !ok {
		return "", errors.New("invalid token")
	}
	return id, nil
}

func newProtectedHandler(t *testing.T) (http.Handler, *string) {
	t.Helper()
	var seen string
	am := NewAuthMiddleware(&fakeValidator{tokens: map[string]string{"good-token": "usr_doc"}})
	h := am.Handle(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := ExternalID(r.Context())
		require.True(t, ok)
		seen = id
		w.WriteHeader(http.StatusOK)
	}))
	return h, &seen
}

func TestHandleBearerHeader(t *testing.T) {
	h, seen := newProtectedHandler(t)

	req := httptest.NewRequest("GET", "/api/chat/rooms", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "usr_doc", *seen)
}

func TestHandleQueryTokenFallback(t *testing.T) {
	h, seen := newProtectedHandler(t)

	req := httptest.NewRequest("GET", "/ws?token=good-token", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "usr_doc", *seen)
}

func TestHandleMissingToken(t *testing.T) {
	h, _ := newProtectedHandler(t)

	req := httptest.NewRequest("GET", "/api/chat/rooms", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleInvalidToken(t *testing.T) {
	h, _ := newProtectedHandler(t)

	req := httptest.NewRequest("GET", "/api/chat/rooms", nil)
	req.Header.Set("Authorization", "Bearer bad-token")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestExternalIDAbsent(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	_, ok := ExternalID(req.Context())
	assert.False(t, ok)
}
