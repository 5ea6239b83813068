package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"survivor-api/internal/domain"
	"survivor-api/pkg/errors"
	"survivor-api/pkg/logger"
)

// stubAuth accepts a single token
type stubAuth struct{}

func (stubAuth) ValidateToken(_ context.Context, token string) (*domain.UserProfile, error) {
	if token == "good" {
		return &domain.UserProfile{Sub: "user-1"}, nil
	}
	return nil, errors.NewAuthenticationError("Invalid or expired token")
}

func echoUser() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := UserFromContext(r.Context())
		_, _ = w.Write([]byte(user.Sub))
	})
}

func TestAuth(t *testing.T) {
	handler := RequestID(logger.NewNop())(Auth(stubAuth{}, logger.NewNop())(echoUser()))

	tests := []struct {
		name   string
		header string
		query  string
		status int
	}{
		{name: "bearer header", header: "Bearer good", status: http.StatusOK},
		{name: "query token for websockets", query: "?access_token=good", status: http.StatusOK},
		{name: "missing", status: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic good", status: http.StatusUnauthorized},
		{name: "empty bearer", header: "Bearer ", status: http.StatusUnauthorized},
		{name: "bad token", header: "Bearer bad", status: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/leagues"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, "user-1", rec.Body.String())
				return
			}

			var body errors.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, errors.ErrorTypeAuthentication, body.Error.Type)
			assert.NotEmpty(t, body.Error.RequestID)
			assert.Equal(t, rec.Header().Get("X-Request-ID"), body.Error.RequestID)
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	handler := RequireAdmin([]string{"ops"}, logger.NewNop())(echoUser())

	for user, want := range map[string]int{"ops": http.StatusOK, "member": http.StatusForbidden} {
		req := httptest.NewRequest(http.MethodPost, "/api/admin/reconcile", nil)
		req = req.WithContext(WithUser(req.Context(), &domain.UserProfile{Sub: user}))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, user)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/admin/reconcile", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequestID_KeepsIncomingHeader(t *testing.T) {
	var seen string
	handler := RequestID(logger.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "upstream-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "upstream-123", seen)
	assert.Equal(t, "upstream-123", rec.Header().Get("X-Request-ID"))
}

func TestCORS(t *testing.T) {
	cfg := DefaultCORSConfig()
	cfg.AllowedOrigins = []string{"https://pool.example.com"}
	handler := CORS(cfg, logger.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("allowed preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/leagues", nil)
		req.Header.Set("Origin", "https://pool.example.com")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "https://pool.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "86400", rec.Header().Get("Access-Control-Max-Age"))
	})

	t.Run("unknown origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/leagues", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("same origin", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/leagues", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestOriginChecker(t *testing.T) {
	assert.True(t, NewOriginChecker([]string{"*"}).Allowed("https://anything"))
	assert.True(t, NewOriginChecker([]string{"https://a.com/"}).Allowed("https://a.com"))
	assert.False(t, NewOriginChecker(nil).Allowed("https://a.com"))
	assert.True(t, NewOriginChecker(nil).Allowed(""))
}
