package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/babysteps/internal/models"
	"github.com/iudanet/babysteps/internal/server/auth"
	"github.com/iudanet/babysteps/internal/server/metrics"
	"github.com/iudanet/babysteps/internal/server/storage"
	"github.com/iudanet/babysteps/pkg/api"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubVerifier map[string]int64

func (s stubVerifier) Verify(token string) (int64, bool) {
	id, ok := s[token]
	return id, ok
}

type stubUsers struct {
	err   error
	calls int
}

func (s *stubUsers) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if id != 1 {
		return nil, storage.ErrUserNotFound
	}
	return &models.User{ID: 1, Email: "a@x.com"}, nil
}

func (s *stubUsers) UpdateLastSignedIn(context.Context, int64, time.Time) error { return nil }

type recordingMetrics struct {
	metrics.Nop
	authFailures []string
	limited      int
	requests     []string
}

func (r *recordingMetrics) RecordAuthFailure(reason string) { r.authFailures = append(r.authFailures, reason) }
func (r *recordingMetrics) RecordRateLimited(string)        { r.limited++ }
func (r *recordingMetrics) RecordRequest(method, route string, status int, _ time.Duration) {
	r.requests = append(r.requests, method+" "+route)
}

func TestRequireUser(t *testing.T) {
	tests := []struct {
		usersErr   error
		name       string
		authHeader string
		wantReason string
		wantMsg    string
		wantStatus int
		wantCalls  int
	}{
		{name: "no token", wantStatus: http.StatusUnauthorized, wantReason: "missing_token", wantMsg: "Missing or invalid token"},
		{name: "invalid token", authHeader: "Bearer bad", wantStatus: http.StatusUnauthorized, wantReason: "invalid_token", wantMsg: "Invalid or expired token"},
		{name: "deleted user", authHeader: "Bearer ghost", wantStatus: http.StatusUnauthorized, wantReason: "user_not_found", wantMsg: "User not found", wantCalls: 1},
		{name: "store failure", authHeader: "Bearer good", usersErr: errors.New("boom"), wantStatus: http.StatusInternalServerError, wantMsg: "internal server error", wantCalls: 1},
		{name: "valid token", authHeader: "bearer good", wantStatus: http.StatusOK, wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := &stubUsers{err: tt.usersErr}
			rec := &recordingMetrics{}
			authn := auth.NewAuthenticator(testLogger(), stubVerifier{"good": 1, "ghost": 2}, users)

			var gotUser *models.User
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUser, _ = auth.UserFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/children", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			w := httptest.NewRecorder()

			RequireUser(authn, testLogger(), rec)(next).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCalls, users.calls)

			switch tt.wantStatus {
			case http.StatusOK:
				require.NotNil(t, gotUser)
				assert.Equal(t, int64(1), gotUser.ID)
			default:
				assert.Nil(t, gotUser, "next handler must not run")
				var body api.ErrorResponse
				require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
				assert.NotEmpty(t, body.Error)
				assert.Equal(t, tt.wantMsg, body.Message)
			}

			if tt.wantReason != "" {
				assert.Equal(t, []string{tt.wantReason}, rec.authFailures)
			}
		})
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	handler := RecoveryMiddleware(testLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("something went wrong")
	}))

	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	w := httptest.NewRecorder()

	assert.NotPanics(t, func() { handler.ServeHTTP(w, req) })
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var body api.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "Internal Server Error", body.Error)
	assert.Equal(t, "internal server error", body.Message)
}

func TestRequestID(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	t.Run("generated", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.NotEmpty(t, seen)
		assert.Equal(t, seen, w.Header().Get(RequestIDHeader))
	})

	t.Run("propagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "abc-123")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, "abc-123", seen)
		assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
	})
}

func TestLoggingMiddleware_RecordsRoutePattern(t *testing.T) {
	rec := &recordingMetrics{}

	r := chi.NewRouter()
	r.Use(LoggingMiddleware(testLogger(), rec))
	r.Get("/api/children/{childID}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/children/42", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, []string{"GET /api/children/{childID}"}, rec.requests)
}

func TestRateLimiter_Allow(t *testing.T) {
	t.Run("requests over burst are denied", func(t *testing.T) {
		limiter := NewRateLimiter(3, time.Minute, testLogger(), metrics.Nop{})
		defer limiter.Stop()

		for i := 0; i < 3; i++ {
			assert.True(t, limiter.Allow("10.0.0.1"), "request %d should be allowed", i+1)
		}
		assert.False(t, limiter.Allow("10.0.0.1"))
	})

	t.Run("different keys are tracked separately", func(t *testing.T) {
		limiter := NewRateLimiter(1, time.Minute, testLogger(), metrics.Nop{})
		defer limiter.Stop()

		assert.True(t, limiter.Allow("10.0.0.1"))
		assert.False(t, limiter.Allow("10.0.0.1"))
		assert.True(t, limiter.Allow("10.0.0.2"))
	})

	t.Run("idle limiters are removed", func(t *testing.T) {
		limiter := NewRateLimiter(1, time.Minute, testLogger(), metrics.Nop{})
		defer limiter.Stop()

		limiter.Allow("10.0.0.1")
		limiter.removeIdle(time.Now().Add(3 * time.Minute))

		limiter.mu.Lock()
		defer limiter.mu.Unlock()
		assert.Empty(t, limiter.limiters)
	})
}

func TestRateLimiter_Middleware(t *testing.T) {
	rec := &recordingMetrics{}
	limiter := NewRateLimiter(2, time.Minute, testLogger(), rec)
	defer limiter.Stop()

	handler := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "192.168.1.10:5555"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		codes = append(codes, w.Code)
		if w.Code == http.StatusTooManyRequests {
			assert.NotEmpty(t, w.Header().Get("Retry-After"))
		}
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Equal(t, 1, rec.limited)
}

func TestRateLimiter_IgnoresSpoofedForwardedFor(t *testing.T) {
	rec := &recordingMetrics{}
	limiter := NewRateLimiter(2, time.Minute, testLogger(), rec)
	defer limiter.Stop()

	handler := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	allowed := 0
	for i := 0; i < 50; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "192.168.1.10:5555"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i))
		req.Header.Set("X-Real-IP", fmt.Sprintf("198.51.100.%d", i))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if w.Code == http.StatusOK {
			allowed++
		}
	}

	assert.Equal(t, 2, allowed)
	assert.Equal(t, 48, rec.limited)

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	assert.Len(t, limiter.limiters, 1)
}

func TestRateLimiter_ClientIP(t *testing.T) {
	proxies := []netip.Prefix{
		netip.MustParsePrefix("10.0.0.0/8"),
		netip.MustParsePrefix("::1/128"),
	}

	tests := []struct {
		headers    map[string]string
		name       string
		remoteAddr string
		want       string
		trusted    []netip.Prefix
	}{
		{name: "remote addr", remoteAddr: "192.168.1.1:1234", want: "192.168.1.1"},
		{name: "remote addr without port", remoteAddr: "192.168.1.1", want: "192.168.1.1"},
		{
			name:       "forwarded headers ignored without trusted proxies",
			remoteAddr: "10.0.0.1:1",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.5", "X-Real-IP": "198.51.100.7"},
			want:       "10.0.0.1",
		},
		{
			name:       "forwarded headers ignored from untrusted peer",
			remoteAddr: "192.168.1.1:1",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.5"},
			trusted:    proxies,
			want:       "192.168.1.1",
		},
		{
			name:       "x-forwarded-for from trusted proxy",
			remoteAddr: "10.0.0.1:1",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.5"},
			trusted:    proxies,
			want:       "203.0.113.5",
		},
		{
			name:       "spoofed left hops are skipped",
			remoteAddr: "10.0.0.1:1",
			headers:    map[string]string{"X-Forwarded-For": "1.2.3.4, 203.0.113.5, 10.0.0.2"},
			trusted:    proxies,
			want:       "203.0.113.5",
		},
		{
			name:       "garbage hop falls back to remote",
			remoteAddr: "10.0.0.1:1",
			headers:    map[string]string{"X-Forwarded-For": "not-an-ip"},
			trusted:    proxies,
			want:       "10.0.0.1",
		},
		{
			name:       "x-real-ip from trusted proxy",
			remoteAddr: "[::1]:8080",
			headers:    map[string]string{"X-Real-IP": "198.51.100.7"},
			trusted:    proxies,
			want:       "198.51.100.7",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limiter := NewRateLimiter(1, time.Minute, testLogger(), metrics.Nop{}, WithTrustedProxies(tt.trusted))
			defer limiter.Stop()

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, limiter.clientIP(req))
		})
	}
}
