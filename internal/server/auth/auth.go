// Package auth resolves the user of an incoming request from its session token.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/iudanet/babysteps/internal/models"
	"github.com/iudanet/babysteps/internal/server/session"
	"github.com/iudanet/babysteps/internal/server/storage"
)

var (
	// ErrMissingToken - в запросе нет ни Bearer заголовка, ни cookie
	ErrMissingToken = errors.New("missing or invalid token")

	// ErrInvalidToken - подпись, issuer/audience или срок действия не прошли проверку
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrUserNotFound - токен валиден, но пользователя уже нет
	ErrUserNotFound = errors.New("user not found")
)

// TokenVerifier проверяет токен и возвращает ID пользователя
type TokenVerifier interface {
	Verify(token string) (int64, bool)
}

// UserLookup is the part of the credential store the authenticator needs.
type UserLookup interface {
	GetUserByID(ctx context.Context, userID int64) (*models.User, error)
	UpdateLastSignedIn(ctx context.Context, userID int64, at time.Time) error
}

// FailureRecorder counts best-effort writes that failed.
type FailureRecorder interface {
	LastSignedInUpdateFailed()
}

type noopRecorder struct{}

func (noopRecorder) LastSignedInUpdateFailed() {}

// Authenticator извлекает токен из запроса, проверяет его и загружает пользователя
type Authenticator struct {
	verifier TokenVerifier
	users    UserLookup
	recorder FailureRecorder
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures an Authenticator.
type Option func(*Authenticator)

// WithClock overrides the time written to lastSignedIn.
func WithClock(now func() time.Time) Option {
	return func(a *Authenticator) {
		a.now = now
	}
}

// WithFailureRecorder sets the counter for failed lastSignedIn updates.
func WithFailureRecorder(rec FailureRecorder) Option {
	return func(a *Authenticator) {
		if rec != nil {
			a.recorder = rec
		}
	}
}

// NewAuthenticator создает новый Authenticator
func NewAuthenticator(logger *slog.Logger, verifier TokenVerifier, users UserLookup, opts ...Option) *Authenticator {
	a := &Authenticator{
		verifier: verifier,
		users:    users,
		recorder: noopRecorder{},
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Authenticate resolves the user behind the request's token.
// The store is not touched when the request carries no token or the token fails verification.
func (a *Authenticator) Authenticate(r *http.Request) (*models.User, error) {
	ctx := r.Context()

	raw := session.TokenFromRequest(r)
	if raw == "" {
		return nil, ErrMissingToken
	}

	userID, ok := a.verifier.Verify(raw)
	if !ok {
		return nil, ErrInvalidToken
	}

	user, err := a.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user %d: %w", userID, err)
	}

	// lastSignedIn - best effort, ошибка не прерывает запрос
	now := a.now().UTC()
	if err := a.users.UpdateLastSignedIn(ctx, user.ID, now); err != nil {
		a.recorder.LastSignedInUpdateFailed()
		a.logger.WarnContext(ctx, "failed to update last signed in",
			slog.Int64("user_id", user.ID),
			slog.Any("error", err))
	} else {
		user.LastSignedIn = now
	}

	return user, nil
}

// IsAuthError reports whether err means "not authenticated" (401) rather than a server failure.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrMissingToken) || errors.Is(err, ErrInvalidToken) || errors.Is(err, ErrUserNotFound)
}

// Message returns the 401 body text for an authentication error.
// Any other error gets the missing-token wording.
func Message(err error) string {
	switch {
	case errors.Is(err, ErrInvalidToken):
		return "Invalid or expired token"
	case errors.Is(err, ErrUserNotFound):
		return "User not found"
	default:
		return "Missing or invalid token"
	}
}

type contextKey string

const userKey contextKey = "user"

// WithUser stores the authenticated user in ctx.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext returns the user stored by WithUser.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userKey).(*models.User)
	return user, ok && user != nil
}
