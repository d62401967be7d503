package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/babysteps/internal/models"
	"github.com/iudanet/babysteps/internal/server/session"
	"github.com/iudanet/babysteps/internal/server/storage"
)

type fakeVerifier map[string]int64

func (f fakeVerifier) Verify(token string) (int64, bool) {
	id, ok := f[token]
	return id, ok
}

type fakeUsers struct {
	users      map[int64]*models.User
	getErr     error
	updateErr  error
	getCalls   int
	lastUpdate time.Time
}

func (f *fakeUsers) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUsers) UpdateLastSignedIn(_ context.Context, _ int64, at time.Time) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.lastUpdate = at
	return nil
}

type countingRecorder struct{ n int }

func (c *countingRecorder) LastSignedInUpdateFailed() { c.n++ }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAuthenticator_Authenticate(t *testing.T) {
	fixed := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		wantErr      error
		setup        func(r *http.Request)
		users        *fakeUsers
		name         string
		wantGetCalls int
		wantUserID   int64
	}{
		{
			name:         "no token",
			setup:        func(*http.Request) {},
			users:        &fakeUsers{},
			wantErr:      ErrMissingToken,
			wantGetCalls: 0,
		},
		{
			name:         "invalid token",
			setup:        func(r *http.Request) { r.Header.Set("Authorization", "Bearer garbage") },
			users:        &fakeUsers{},
			wantErr:      ErrInvalidToken,
			wantGetCalls: 0,
		},
		{
			name:         "user deleted",
			setup:        func(r *http.Request) { r.Header.Set("Authorization", "Bearer ghost") },
			users:        &fakeUsers{users: map[int64]*models.User{}},
			wantErr:      ErrUserNotFound,
			wantGetCalls: 1,
		},
		{
			name:         "bearer token",
			setup:        func(r *http.Request) { r.Header.Set("Authorization", "Bearer good") },
			users:        &fakeUsers{users: map[int64]*models.User{7: {ID: 7, Email: "a@x.com"}}},
			wantUserID:   7,
			wantGetCalls: 1,
		},
		{
			name: "cookie token",
			setup: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: session.CookieName, Value: "good"})
			},
			users:        &fakeUsers{users: map[int64]*models.User{7: {ID: 7}}},
			wantUserID:   7,
			wantGetCalls: 1,
		},
	}

	verifier := fakeVerifier{"good": 7, "ghost": 99}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAuthenticator(testLogger(), verifier, tt.users, WithClock(func() time.Time { return fixed }))

			req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
			tt.setup(req)

			user, err := a.Authenticate(req)
			assert.Equal(t, tt.wantGetCalls, tt.users.getCalls)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.True(t, IsAuthError(err))
				assert.Nil(t, user)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantUserID, user.ID)
			assert.Equal(t, fixed, user.LastSignedIn)
			assert.Equal(t, fixed, tt.users.lastUpdate)
		})
	}
}

func TestAuthenticator_StoreFailure(t *testing.T) {
	users := &fakeUsers{getErr: errors.New("disk I/O error")}
	a := NewAuthenticator(testLogger(), fakeVerifier{"good": 1}, users)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good")

	_, err := a.Authenticate(req)
	require.Error(t, err)
	assert.False(t, IsAuthError(err), "store failures must surface as server errors")
}

func TestAuthenticator_LastSignedInFailureIsBestEffort(t *testing.T) {
	users := &fakeUsers{
		users:     map[int64]*models.User{1: {ID: 1}},
		updateErr: errors.New("database is locked"),
	}
	rec := &countingRecorder{}
	a := NewAuthenticator(testLogger(), fakeVerifier{"good": 1}, users, WithFailureRecorder(rec))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good")

	user, err := a.Authenticate(req)
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.ID)
	assert.Equal(t, 1, rec.n)
}

func TestUserContext(t *testing.T) {
	_, ok := UserFromContext(context.Background())
	assert.False(t, ok)

	ctx := WithUser(context.Background(), &models.User{ID: 3})
	user, ok := UserFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, int64(3), user.ID)
}

func TestMessage(t *testing.T) {
	tests := []struct {
		err  error
		name string
		want string
	}{
		{name: "missing token", err: ErrMissingToken, want: "Missing or invalid token"},
		{name: "invalid token", err: ErrInvalidToken, want: "Invalid or expired token"},
		{name: "user not found", err: ErrUserNotFound, want: "User not found"},
		{name: "wrapped", err: fmt.Errorf("authenticate: %w", ErrInvalidToken), want: "Invalid or expired token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Message(tt.err))
			assert.NotEqual(t, tt.want, tt.err.Error(), "error values stay lower-case")
		})
	}
}
