package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"wellness-appointments/config"
	"wellness-appointments/internal/domain/entity"
	"wellness-appointments/internal/infrastructure/metrics"
	"wellness-appointments/pkg/jwt"

	"github.com/google/uuid"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTokenChecker struct {
	valid map[string]bool
	err   error
}

func (f *fakeTokenChecker) Exists(ctx context.Context, userID uuid.UUID, tokenID string) (bool, error) {
	return f.valid[tokenID], f.err
}

func sessionEcho(t *testing.T, got **entity.Session) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, ok := GetSessionFromContext(r.Context())
		require.True(t, ok)
		*got = session
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestAuthMiddleware(t *testing.T) {
	jwtService := jwt.NewJWTService(config.JWTConfig{Secret: "secret", AccessExpiry: time.Minute})
	userID := uuid.New()
	token, tokenID, err := jwtService.GenerateAccessToken(userID, "jane@example.com", entity.RoleIDEmployer)
	require.NoError(t, err)

	log, _ := logtest.NewNullLogger()
	checker := &fakeTokenChecker{valid: map[string]bool{tokenID: true}}
	mw := NewAuthMiddleware(jwtService, checker, log)

	var session *entity.Session
	handler := mw.Authenticate(sessionEcho(t, &session))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer abc", http.StatusUnauthorized},
		{"valid token", "Bearer " + token, http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}

	require.NotNil(t, session)
	assert.Equal(t, userID, session.UserID)
	assert.Equal(t, entity.RoleIDEmployer, session.RoleID)
	assert.Equal(t, tokenID, session.TokenID)

	// Revoked
	checker.valid[tokenID] = false
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Token store unavailable
	checker.err = errors.New("redis down")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRequireEmployer(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	handler := RequireEmployer(ok)

	tests := []struct {
		name   string
		ctx    context.Context
		status int
	}{
		{"no session", context.Background(), http.StatusUnauthorized},
		{"employee", WithSession(context.Background(), entity.Session{UserID: uuid.New(), RoleID: entity.RoleIDEmployee}), http.StatusForbidden},
		{"employer", WithSession(context.Background(), entity.Session{UserID: uuid.New(), RoleID: entity.RoleIDEmployer}), http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(tt.ctx)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	mw := NewRateLimitMiddleware(0.001, 2)
	defer mw.Stop()

	handler := mw.Handle(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:5000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// Another client has its own bucket
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.2:5000"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsMiddleware(t *testing.T) {
	m := metrics.New()
	handler := Metrics(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)

	scrape := httptest.NewRecorder()
	m.Handler().ServeHTTP(scrape, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, scrape.Body.String(), `http_requests_total{method="GET",status_code="404"} 1`)
}

func TestCORSPreflight(t *testing.T) {
	handler := NewCORSMiddleware().Handle(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("preflight must not reach the handler")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSAllowList(t *testing.T) {
	handler := NewCORSMiddleware("https://portal.example").Handle(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		origin string
		want   string
	}{
		{"https://portal.example", "https://portal.example"},
		{"https://evil.example", ""},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", tt.origin)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, tt.want, rec.Header().Get("Access-Control-Allow-Origin"), tt.origin)
		assert.Equal(t, "Origin", rec.Header().Get("Vary"))
	}
}
