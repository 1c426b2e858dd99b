package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_RecordsAuthenticatedUser(t *testing.T) {
	// Arrange. Logger wraps Authenticate, matching the real chain where
	// the access log sits above the authenticated route groups.
	core, logs := observer.New(zap.InfoLevel)
	authed := Authenticate(testValidator(t), 100, zap.NewNop())
	handler := Logger(zap.New(core))(authed(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))

	req := httptest.NewRequest(http.MethodGet, "/api/v2/trees", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, testSecret, "user-42", time.Hour))
	rec := httptest.NewRecorder()

	// Act
	handler.ServeHTTP(rec, req)

	// Assert
	require.Equal(t, http.StatusNoContent, rec.Code)
	entries := logs.FilterMessage("HTTP Request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "user-42", fields["userID"])
	assert.Equal(t, int64(http.StatusNoContent), fields["status"])
}

func TestLogger_OmitsUserOnUnauthenticatedRoutes(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	handler := Logger(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	entries := logs.FilterMessage("HTTP Request").All()
	require.Len(t, entries, 1)
	_, hasUser := entries[0].ContextMap()["userID"]
	assert.False(t, hasUser)
}
