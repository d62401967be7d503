package storage

import (
	"context"
	"strings"
	"time"

	"github.com/iudanet/babysteps/internal/models"
)

// LocalIdentityPrefix префикс external identity для аккаунтов с паролем
const LocalIdentityPrefix = "local:"

// NormalizeEmail trims and lower-cases an email. Registration and login must
// both go through it, otherwise case differences look like missing accounts.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// LocalOpenID composes the external identity of a password account.
func LocalOpenID(email string) string {
	return LocalIdentityPrefix + NormalizeEmail(email)
}

// UserStorage defines interface for user (credential) persistence
type UserStorage interface {
	// CreateLocalUser creates a password account identified by local:<email>
	// Returns ErrUserAlreadyExists if the identity is taken
	CreateLocalUser(ctx context.Context, email, name, passwordHash string) (*models.User, error)

	// GetUserByLocalEmail retrieves a password account by email (normalized)
	// Returns ErrUserNotFound if user doesn't exist
	GetUserByLocalEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID retrieves user by numeric ID
	// Returns ErrUserNotFound if user doesn't exist
	GetUserByID(ctx context.Context, userID int64) (*models.User, error)

	// GetUserByOpenID retrieves user by external identity
	// Returns ErrUserNotFound if user doesn't exist
	GetUserByOpenID(ctx context.Context, openID string) (*models.User, error)

	// UpsertOAuthUser creates the user on first OAuth callback, refreshes profile fields otherwise
	UpsertOAuthUser(ctx context.Context, openID, name, email, loginMethod string) (*models.User, error)

	// UpdateLastSignedIn updates the last sign-in timestamp
	// Returns ErrUserNotFound if user doesn't exist
	UpdateLastSignedIn(ctx context.Context, userID int64, at time.Time) error
}
