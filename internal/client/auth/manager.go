package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/iudanet/babysteps/internal/client/storage"
	"github.com/iudanet/babysteps/internal/validation"
	"github.com/iudanet/babysteps/pkg/api"
)

// APIClient is the subset of the HTTP client the manager talks to.
// An empty token means the request relies on the cookie jar.
type APIClient interface {
	Register(ctx context.Context, req api.RegisterRequest) (*api.AuthResponse, error)
	Login(ctx context.Context, req api.LoginRequest) (*api.AuthResponse, error)
	Refresh(ctx context.Context, token string) (*api.AuthResponse, error)
	Me(ctx context.Context, token string) (*api.User, error)
	Session(ctx context.Context, token string) (*api.SessionResponse, error)
	Logout(ctx context.Context, token string) error
}

// Platform describes how a client proves its session is alive.
type Platform struct {
	Name string
	// TrustCacheBeforeVerify публикует кешированного пользователя до проверки на сервере
	TrustCacheBeforeVerify bool
	// UseCookies: сессию несет cookie jar, Bearer не отправляется и токен не кешируется
	UseCookies bool
}

var (
	// PlatformNative paints from the local cache first, then revalidates with the token.
	PlatformNative = Platform{Name: "native", TrustCacheBeforeVerify: true}
	// PlatformWeb verifies the cookie session before publishing any user.
	PlatformWeb = Platform{Name: "web", UseCookies: true}
)

// PlatformByName returns the preset for "native" or "web".
func PlatformByName(name string) (Platform, error) {
	switch name {
	case PlatformNative.Name:
		return PlatformNative, nil
	case PlatformWeb.Name:
		return PlatformWeb, nil
	default:
		return Platform{}, fmt.Errorf("unknown platform %q", name)
	}
}

// Status of the client session.
type Status int

const (
	StatusLoading Status = iota
	StatusAuthenticated
	StatusAnonymous
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusAuthenticated:
		return "authenticated"
	case StatusAnonymous:
		return "anonymous"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// State is what the UI renders.
type State struct {
	User   *api.User
	Status Status
	// Stale означает, что пользователь взят из кеша и еще не подтвержден сервером
	Stale bool
}

// Listener receives every published state, in order.
type Listener func(State)

// Manager owns the client session: cache, reconciliation and credential flows.
type Manager struct {
	api       APIClient
	store     storage.SessionStorage
	logger    *slog.Logger
	now       func() time.Time
	listeners map[int]Listener
	token     string
	state     State
	platform  Platform
	nextID    int
	mu        sync.Mutex
}

// Option configures Manager
type Option func(*Manager)

// WithClock задает источник времени для SavedAt
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates a session manager in the Loading state.
func NewManager(apiClient APIClient, store storage.SessionStorage, platform Platform, logger *slog.Logger, opts ...Option) *Manager {
	m := &Manager{
		api:       apiClient,
		store:     store,
		platform:  platform,
		logger:    logger,
		now:       time.Now,
		listeners: make(map[int]Listener),
		state:     State{Status: StatusLoading},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Subscribe registers a listener; the returned func removes it.
func (m *Manager) Subscribe(l Listener) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = l
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.listeners, id)
		m.mu.Unlock()
	}
}

// State returns the last published state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Token returns the bearer token for authenticated API calls.
// It is empty on the web platform and when anonymous.
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

// Reconcile brings the local session in line with the server:
// Loading, optional stale first paint, then me, one refresh, or anonymous.
func (m *Manager) Reconcile(ctx context.Context) State {
	m.publish(State{Status: StatusLoading})

	cached := m.loadCache(ctx)
	token := ""
	if cached != nil && !m.platform.UseCookies {
		token = cached.Token
	}

	if m.platform.TrustCacheBeforeVerify {
		if cached == nil || cached.Token == "" {
			// без токена нативному клиенту нечем подтверждать сессию
			m.setToken("")
			return m.publish(State{Status: StatusAnonymous})
		}
		user := cached.User
		m.setToken(token)
		m.publish(State{Status: StatusAuthenticated, User: &user, Stale: true})
	}

	user, err := m.api.Me(ctx, token)
	if err == nil {
		m.persist(ctx, token, user)
		return m.publish(State{Status: StatusAuthenticated, User: user})
	}
	m.logger.DebugContext(ctx, "session check failed, trying refresh",
		slog.String("platform", m.platform.Name),
		slog.Any("error", err))

	resp, err := m.api.Refresh(ctx, token)
	if err == nil {
		m.persist(ctx, resp.Token, &resp.User)
		return m.publish(State{Status: StatusAuthenticated, User: &resp.User})
	}
	m.logger.InfoContext(ctx, "session expired, falling back to anonymous",
		slog.String("platform", m.platform.Name),
		slog.Any("error", err))

	m.clear(ctx)
	return m.publish(State{Status: StatusAnonymous})
}

// Register creates an account and stores the new session.
func (m *Manager) Register(ctx context.Context, email, password, name string) (*api.User, error) {
	if err := validation.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, err
	}

	resp, err := m.api.Register(ctx, api.RegisterRequest{Email: email, Password: password, Name: name})
	if err != nil {
		return nil, fmt.Errorf("registration failed: %w", err)
	}

	return m.authenticated(ctx, resp.Token, &resp.User), nil
}

// Login signs in with email and password and stores the session.
func (m *Manager) Login(ctx context.Context, email, password string) (*api.User, error) {
	if err := validation.ValidateEmail(email); err != nil {
		return nil, err
	}
	if password == "" {
		return nil, &validation.FieldError{Field: "password", Reason: "password is required"}
	}

	resp, err := m.api.Login(ctx, api.LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}

	return m.authenticated(ctx, resp.Token, &resp.User), nil
}

// AdoptToken takes a token obtained elsewhere (OAuth redirect) and makes it the session.
// On the web platform the token is exchanged for a cookie.
func (m *Manager) AdoptToken(ctx context.Context, token string) (*api.User, error) {
	if token == "" {
		return nil, errors.New("token is required")
	}

	var user *api.User
	if m.platform.UseCookies {
		resp, err := m.api.Session(ctx, token)
		if err != nil {
			return nil, fmt.Errorf("session exchange failed: %w", err)
		}
		user = &resp.User
	} else {
		u, err := m.api.Me(ctx, token)
		if err != nil {
			return nil, fmt.Errorf("token check failed: %w", err)
		}
		user = u
	}

	return m.authenticated(ctx, token, user), nil
}

// Logout notifies the server when possible and always drops the local session.
// Bearer tokens stay valid on the server until they expire.
func (m *Manager) Logout(ctx context.Context) error {
	if err := m.api.Logout(ctx, m.Token()); err != nil {
		// сервер недоступен: локальный выход все равно выполняем
		m.logger.WarnContext(ctx, "failed to logout on server", slog.Any("error", err))
	}

	m.setToken("")
	err := m.store.DeleteSession(ctx)
	m.publish(State{Status: StatusAnonymous})
	if err != nil {
		return fmt.Errorf("failed to delete local session: %w", err)
	}

	return nil
}

func (m *Manager) authenticated(ctx context.Context, token string, user *api.User) *api.User {
	m.persist(ctx, token, user)
	m.publish(State{Status: StatusAuthenticated, User: user})
	return user
}

func (m *Manager) loadCache(ctx context.Context) *storage.SessionEntry {
	entry, err := m.store.GetSession(ctx)
	if err != nil {
		if !errors.Is(err, storage.ErrSessionNotFound) {
			m.logger.WarnContext(ctx, "failed to read session cache", slog.Any("error", err))
		}
		return nil
	}
	return entry
}

// persist сохраняет сессию; ошибка кеша не ломает вход
func (m *Manager) persist(ctx context.Context, token string, user *api.User) {
	if m.platform.UseCookies {
		token = ""
	}
	m.setToken(token)

	entry := &storage.SessionEntry{Token: token, User: *user, SavedAt: m.now().UTC()}
	if err := m.store.SaveSession(ctx, entry); err != nil {
		m.logger.WarnContext(ctx, "failed to save session cache", slog.Any("error", err))
	}
}

func (m *Manager) clear(ctx context.Context) {
	m.setToken("")
	if err := m.store.DeleteSession(ctx); err != nil {
		m.logger.WarnContext(ctx, "failed to delete session cache", slog.Any("error", err))
	}
}

func (m *Manager) setToken(token string) {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
}

// publish сохраняет состояние и уведомляет слушателей вне блокировки
func (m *Manager) publish(s State) State {
	m.mu.Lock()
	m.state = s
	listeners := make([]Listener, 0, len(m.listeners))
	for _, l := range m.listeners {
		listeners = append(listeners, l)
	}
	m.mu.Unlock()

	for _, l := range listeners {
		l(s)
	}
	return s
}
