package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/babysteps/internal/client/storage"
	"github.com/iudanet/babysteps/internal/validation"
	"github.com/iudanet/babysteps/pkg/api"
)

var errUnauthorized = errors.New("unauthorized")

// fakeAPI отвечает по заранее заданным токенам и запоминает вызовы
type fakeAPI struct {
	users        map[string]api.User // token -> user
	refreshes    map[string]string   // old token -> new token
	loginErr     error
	logoutErr    error
	calls        []string
	logoutTokens []string
	mu           sync.Mutex
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		users:     make(map[string]api.User),
		refreshes: make(map[string]string),
	}
}

func (f *fakeAPI) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeAPI) Register(ctx context.Context, req api.RegisterRequest) (*api.AuthResponse, error) {
	f.record("register")
	user := api.User{ID: 1, Email: req.Email, Name: req.Name, LoginMethod: "email"}
	f.users["registered-token"] = user
	return &api.AuthResponse{Token: "registered-token", User: user}, nil
}

func (f *fakeAPI) Login(ctx context.Context, req api.LoginRequest) (*api.AuthResponse, error) {
	f.record("login")
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	user := api.User{ID: 1, Email: req.Email, LoginMethod: "email"}
	f.users["login-token"] = user
	return &api.AuthResponse{Token: "login-token", User: user}, nil
}

func (f *fakeAPI) Refresh(ctx context.Context, token string) (*api.AuthResponse, error) {
	f.record("refresh:" + token)
	next, ok := f.refreshes[token]
	if !ok {
		return nil, errUnauthorized
	}
	return &api.AuthResponse{Token: next, User: f.users[next]}, nil
}

func (f *fakeAPI) Me(ctx context.Context, token string) (*api.User, error) {
	f.record("me:" + token)
	user, ok := f.users[token]
	if !ok {
		return nil, errUnauthorized
	}
	return &user, nil
}

func (f *fakeAPI) Session(ctx context.Context, token string) (*api.SessionResponse, error) {
	f.record("session:" + token)
	user, ok := f.users[token]
	if !ok {
		return nil, errUnauthorized
	}
	// после обмена cookie jar несет сессию
	f.users[""] = user
	return &api.SessionResponse{Success: true, User: user}, nil
}

func (f *fakeAPI) Logout(ctx context.Context, token string) error {
	f.record("logout")
	f.logoutTokens = append(f.logoutTokens, token)
	delete(f.users, "")
	return f.logoutErr
}

// memStore хранилище сессии в памяти
type memStore struct {
	entry     *storage.SessionEntry
	getErr    error
	saveErr   error
	deleteErr error
}

func (s *memStore) SaveSession(ctx context.Context, entry *storage.SessionEntry) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	cp := *entry
	s.entry = &cp
	return nil
}

func (s *memStore) GetSession(ctx context.Context) (*storage.SessionEntry, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	if s.entry == nil {
		return nil, storage.ErrSessionNotFound
	}
	cp := *s.entry
	return &cp, nil
}

func (s *memStore) DeleteSession(ctx context.Context) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.entry = nil
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestManager(apiClient APIClient, store storage.SessionStorage, platform Platform) (*Manager, *[]State) {
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	m := NewManager(apiClient, store, platform, testLogger(), WithClock(func() time.Time { return fixed }))

	var states []State
	m.Subscribe(func(s State) { states = append(states, s) })
	return m, &states
}

func statuses(states []State) []Status {
	out := make([]Status, 0, len(states))
	for _, s := range states {
		out = append(out, s.Status)
	}
	return out
}

func TestReconcile_Native(t *testing.T) {
	cachedUser := api.User{ID: 1, Email: "old@x.com"}
	freshUser := api.User{ID: 1, Email: "fresh@x.com"}

	tests := []struct {
		setup        func(f *fakeAPI)
		cache        *storage.SessionEntry
		name         string
		wantToken    string
		wantCalls    []string
		wantStatuses []Status
		wantStale    []bool
		wantCached   bool
	}{
		{
			name:         "no cache is anonymous without network",
			cache:        nil,
			wantCalls:    nil,
			wantStatuses: []Status{StatusLoading, StatusAnonymous},
			wantStale:    []bool{false, false},
		},
		{
			name:  "valid token paints stale then fresh",
			cache: &storage.SessionEntry{Token: "t1", User: cachedUser},
			setup: func(f *fakeAPI) {
				f.users["t1"] = freshUser
			},
			wantToken:    "t1",
			wantCalls:    []string{"me:t1"},
			wantStatuses: []Status{StatusLoading, StatusAuthenticated, StatusAuthenticated},
			wantStale:    []bool{false, true, false},
			wantCached:   true,
		},
		{
			name:  "me fails and refresh succeeds",
			cache: &storage.SessionEntry{Token: "t1", User: cachedUser},
			setup: func(f *fakeAPI) {
				f.refreshes["t1"] = "t2"
				f.users["t2"] = freshUser
			},
			wantToken:    "t2",
			wantCalls:    []string{"me:t1", "refresh:t1"},
			wantStatuses: []Status{StatusLoading, StatusAuthenticated, StatusAuthenticated},
			wantStale:    []bool{false, true, false},
			wantCached:   true,
		},
		{
			name:         "both fail clears cache",
			cache:        &storage.SessionEntry{Token: "dead", User: cachedUser},
			wantCalls:    []string{"me:dead", "refresh:dead"},
			wantStatuses: []Status{StatusLoading, StatusAuthenticated, StatusAnonymous},
			wantStale:    []bool{false, true, false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeAPI()
			if tt.setup != nil {
				tt.setup(f)
			}
			store := &memStore{entry: tt.cache}
			m, states := newTestManager(f, store, PlatformNative)

			final := m.Reconcile(context.Background())

			assert.Equal(t, tt.wantCalls, f.calls)
			assert.Equal(t, tt.wantStatuses, statuses(*states))
			for i, s := range *states {
				assert.Equal(t, tt.wantStale[i], s.Stale, "state %d", i)
			}
			assert.Equal(t, final, m.State())
			assert.Equal(t, tt.wantToken, m.Token())

			if tt.wantCached {
				require.NotNil(t, store.entry)
				assert.Equal(t, tt.wantToken, store.entry.Token)
				assert.Equal(t, freshUser.Email, store.entry.User.Email)
				assert.Equal(t, freshUser.Email, final.User.Email)
			} else {
				assert.Nil(t, store.entry)
				assert.Nil(t, final.User)
			}
		})
	}
}

func TestReconcile_StalePaintUsesCachedUser(t *testing.T) {
	f := newFakeAPI()
	f.users["t1"] = api.User{ID: 1, Email: "fresh@x.com"}
	store := &memStore{entry: &storage.SessionEntry{Token: "t1", User: api.User{ID: 1, Email: "old@x.com"}}}
	m, states := newTestManager(f, store, PlatformNative)

	m.Reconcile(context.Background())

	require.Len(t, *states, 3)
	assert.Equal(t, "old@x.com", (*states)[1].User.Email)
	assert.Equal(t, "fresh@x.com", (*states)[2].User.Email)
}

func TestReconcile_Web(t *testing.T) {
	t.Run("cache is never painted", func(t *testing.T) {
		f := newFakeAPI()
		f.users[""] = api.User{ID: 3, Email: "web@x.com"}
		store := &memStore{entry: &storage.SessionEntry{Token: "ignored", User: api.User{ID: 3}}}
		m, states := newTestManager(f, store, PlatformWeb)

		final := m.Reconcile(context.Background())

		assert.Equal(t, []Status{StatusLoading, StatusAuthenticated}, statuses(*states))
		assert.False(t, final.Stale)
		assert.Equal(t, []string{"me:"}, f.calls)
		assert.Empty(t, m.Token())
		require.NotNil(t, store.entry)
		assert.Empty(t, store.entry.Token)
	})

	t.Run("verifies even without cache", func(t *testing.T) {
		f := newFakeAPI()
		m, states := newTestManager(f, &memStore{}, PlatformWeb)

		final := m.Reconcile(context.Background())

		assert.Equal(t, []string{"me:", "refresh:"}, f.calls)
		assert.Equal(t, []Status{StatusLoading, StatusAnonymous}, statuses(*states))
		assert.Equal(t, StatusAnonymous, final.Status)
	})
}

func TestReconcile_CacheReadErrorTreatedAsEmpty(t *testing.T) {
	f := newFakeAPI()
	m, _ := newTestManager(f, &memStore{getErr: errors.New("disk")}, PlatformNative)

	final := m.Reconcile(context.Background())
	assert.Equal(t, StatusAnonymous, final.Status)
	assert.Empty(t, f.calls)
}

func TestManager_LoginRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("login persists session", func(t *testing.T) {
		f := newFakeAPI()
		store := &memStore{}
		m, states := newTestManager(f, store, PlatformNative)

		user, err := m.Login(ctx, "mom@x.com", "secret1")
		require.NoError(t, err)
		assert.Equal(t, "mom@x.com", user.Email)
		assert.Equal(t, "login-token", m.Token())
		require.NotNil(t, store.entry)
		assert.Equal(t, "login-token", store.entry.Token)
		assert.Equal(t, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), store.entry.SavedAt)
		assert.Equal(t, []Status{StatusAuthenticated}, statuses(*states))
	})

	t.Run("register persists session", func(t *testing.T) {
		f := newFakeAPI()
		store := &memStore{}
		m, _ := newTestManager(f, store, PlatformNative)

		user, err := m.Register(ctx, "dad@x.com", "secret1", "Dad")
		require.NoError(t, err)
		assert.Equal(t, "Dad", user.Name)
		assert.Equal(t, "registered-token", store.entry.Token)
	})

	t.Run("client side validation skips network", func(t *testing.T) {
		f := newFakeAPI()
		m, _ := newTestManager(f, &memStore{}, PlatformNative)

		_, err := m.Register(ctx, "dad@x.com", "123", "")
		assert.True(t, validation.IsFieldError(err))

		_, err = m.Login(ctx, "   ", "secret1")
		assert.True(t, validation.IsFieldError(err))

		_, err = m.Login(ctx, "dad@x.com", "")
		assert.True(t, validation.IsFieldError(err))

		assert.Empty(t, f.calls)
	})

	t.Run("server rejection keeps state", func(t *testing.T) {
		f := newFakeAPI()
		f.loginErr = errUnauthorized
		store := &memStore{}
		m, states := newTestManager(f, store, PlatformNative)

		_, err := m.Login(ctx, "mom@x.com", "wrong-password")
		assert.ErrorIs(t, err, errUnauthorized)
		assert.Nil(t, store.entry)
		assert.Empty(t, *states)
	})

	t.Run("cache write failure does not fail login", func(t *testing.T) {
		f := newFakeAPI()
		m, _ := newTestManager(f, &memStore{saveErr: errors.New("disk full")}, PlatformNative)

		_, err := m.Login(ctx, "mom@x.com", "secret1")
		require.NoError(t, err)
		assert.Equal(t, StatusAuthenticated, m.State().Status)
	})
}

func TestManager_AdoptToken(t *testing.T) {
	ctx := context.Background()

	t.Run("native checks token with me", func(t *testing.T) {
		f := newFakeAPI()
		f.users["oauth-token"] = api.User{ID: 4, LoginMethod: "google"}
		store := &memStore{}
		m, _ := newTestManager(f, store, PlatformNative)

		user, err := m.AdoptToken(ctx, "oauth-token")
		require.NoError(t, err)
		assert.Equal(t, "google", user.LoginMethod)
		assert.Equal(t, []string{"me:oauth-token"}, f.calls)
		assert.Equal(t, "oauth-token", store.entry.Token)
	})

	t.Run("web exchanges token for cookie", func(t *testing.T) {
		f := newFakeAPI()
		f.users["oauth-token"] = api.User{ID: 4}
		store := &memStore{}
		m, _ := newTestManager(f, store, PlatformWeb)

		_, err := m.AdoptToken(ctx, "oauth-token")
		require.NoError(t, err)
		assert.Equal(t, []string{"session:oauth-token"}, f.calls)
		assert.Empty(t, store.entry.Token)

		// cookie теперь подтверждает сессию
		final := m.Reconcile(ctx)
		assert.Equal(t, StatusAuthenticated, final.Status)
	})

	t.Run("invalid token", func(t *testing.T) {
		m, _ := newTestManager(newFakeAPI(), &memStore{}, PlatformNative)

		_, err := m.AdoptToken(ctx, "bogus")
		assert.ErrorIs(t, err, errUnauthorized)

		_, err = m.AdoptToken(ctx, "")
		assert.Error(t, err)
	})
}

func TestManager_Logout(t *testing.T) {
	ctx := context.Background()

	t.Run("server failure still clears local session", func(t *testing.T) {
		f := newFakeAPI()
		f.logoutErr = errors.New("connection refused")
		store := &memStore{}
		m, states := newTestManager(f, store, PlatformNative)

		_, err := m.Login(ctx, "mom@x.com", "secret1")
		require.NoError(t, err)

		require.NoError(t, m.Logout(ctx))
		assert.Equal(t, []string{"login-token"}, f.logoutTokens)
		assert.Nil(t, store.entry)
		assert.Empty(t, m.Token())
		assert.Equal(t, StatusAnonymous, (*states)[len(*states)-1].Status)
	})

	t.Run("cache delete failure is reported", func(t *testing.T) {
		f := newFakeAPI()
		m, _ := newTestManager(f, &memStore{deleteErr: errors.New("locked")}, PlatformNative)

		err := m.Logout(ctx)
		assert.Error(t, err)
		assert.Equal(t, StatusAnonymous, m.State().Status)
	})
}

type traceKey struct{}

// traceHandler дописывает trace из контекста, чтобы проверить, что контекст доходит до логгера
type traceHandler struct {
	slog.Handler
}

func (h traceHandler) Handle(ctx context.Context, r slog.Record) error {
	if trace, ok := ctx.Value(traceKey{}).(string); ok {
		r.AddAttrs(slog.String("trace", trace))
	}
	return h.Handler.Handle(ctx, r)
}

func TestManager_LogsCarryContextAndTypedAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(traceHandler{slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})})

	f := newFakeAPI()
	f.logoutErr = errors.New("connection refused")
	store := &memStore{entry: &storage.SessionEntry{Token: "expired", User: api.User{ID: 1}}}
	m := NewManager(f, store, PlatformNative, logger)

	ctx := context.WithValue(context.Background(), traceKey{}, "t-1")
	assert.Equal(t, StatusAnonymous, m.Reconcile(ctx).Status)
	require.NoError(t, m.Logout(ctx))

	var lines []map[string]any
	dec := json.NewDecoder(&buf)
	for dec.More() {
		var line map[string]any
		require.NoError(t, dec.Decode(&line))
		lines = append(lines, line)
	}

	msgs := make([]string, 0, len(lines))
	for _, line := range lines {
		msgs = append(msgs, line["msg"].(string))
		assert.Equal(t, "t-1", line["trace"], "context is passed to %q", line["msg"])
		assert.NotEmpty(t, line["error"])
	}
	assert.Equal(t, []string{
		"session check failed, trying refresh",
		"session expired, falling back to anonymous",
		"failed to logout on server",
	}, msgs)
	assert.Equal(t, "native", lines[0]["platform"])
	assert.Equal(t, "connection refused", lines[2]["error"])
}

func TestManager_Unsubscribe(t *testing.T) {
	m := NewManager(newFakeAPI(), &memStore{}, PlatformNative, testLogger())

	var count int
	unsubscribe := m.Subscribe(func(State) { count++ })
	m.Reconcile(context.Background())
	assert.Equal(t, 2, count)

	unsubscribe()
	m.Reconcile(context.Background())
	assert.Equal(t, 2, count)
}

func TestPlatformByName(t *testing.T) {
	p, err := PlatformByName("native")
	require.NoError(t, err)
	assert.True(t, p.TrustCacheBeforeVerify)

	p, err = PlatformByName("web")
	require.NoError(t, err)
	assert.True(t, p.UseCookies)
	assert.False(t, p.TrustCacheBeforeVerify)

	_, err = PlatformByName("desktop")
	assert.Error(t, err)
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "loading", StatusLoading.String())
	assert.Equal(t, "authenticated", StatusAuthenticated.String())
	assert.Equal(t, "anonymous", StatusAnonymous.String())
}
