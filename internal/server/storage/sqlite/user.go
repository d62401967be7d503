package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/babysteps/internal/models"
	"github.com/iudanet/babysteps/internal/server/storage"
)

const userColumns = `id, open_id, name, email, login_method, password_hash, role, created_at, updated_at, last_signed_in`

// CreateLocalUser creates a password account identified by local:<email>
func (s *Storage) CreateLocalUser(ctx context.Context, email, name, passwordHash string) (*models.User, error) {
	now := time.Now().UTC()
	user := &models.User{
		OpenID:       storage.LocalOpenID(email),
		Name:         name,
		Email:        storage.NormalizeEmail(email),
		LoginMethod:  models.LoginMethodEmail,
		PasswordHash: passwordHash,
		Role:         models.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
		LastSignedIn: now,
	}

	query := `
		INSERT INTO users (open_id, name, email, login_method, password_hash, role, created_at, updated_at, last_signed_in)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.ExecContext(ctx, query,
		user.OpenID,
		nullString(user.Name),
		nullString(user.Email),
		user.LoginMethod,
		nullString(user.PasswordHash),
		string(user.Role),
		user.CreatedAt,
		user.UpdatedAt,
		user.LastSignedIn,
	)
	if err != nil {
		// Проверяем на duplicate open_id
		if isUniqueViolation(err) {
			return nil, storage.ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get user id: %w", err)
	}
	user.ID = id

	return user, nil
}

// GetUserByLocalEmail retrieves a password account by email
func (s *Storage) GetUserByLocalEmail(ctx context.Context, email string) (*models.User, error) {
	return s.GetUserByOpenID(ctx, storage.LocalOpenID(email))
}

// GetUserByOpenID retrieves user by external identity
func (s *Storage) GetUserByOpenID(ctx context.Context, openID string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE open_id = ?`
	return s.scanUser(s.db.QueryRowContext(ctx, query, openID))
}

// GetUserByID retrieves user by ID
func (s *Storage) GetUserByID(ctx context.Context, userID int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return s.scanUser(s.db.QueryRowContext(ctx, query, userID))
}

// UpsertOAuthUser creates the user on first OAuth callback or refreshes name/email/login method
func (s *Storage) UpsertOAuthUser(ctx context.Context, openID, name, email, loginMethod string) (*models.User, error) {
	now := time.Now().UTC()

	query := `
		INSERT INTO users (open_id, name, email, login_method, role, created_at, updated_at, last_signed_in)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(open_id) DO UPDATE SET
			name = COALESCE(excluded.name, users.name),
			email = COALESCE(excluded.email, users.email),
			login_method = excluded.login_method,
			updated_at = excluded.updated_at,
			last_signed_in = excluded.last_signed_in
	`

	_, err := s.db.ExecContext(ctx, query,
		openID,
		nullString(name),
		nullString(email),
		loginMethod,
		string(models.RoleUser),
		now,
		now,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	return s.GetUserByOpenID(ctx, openID)
}

// UpdateLastSignedIn updates the last sign-in timestamp
func (s *Storage) UpdateLastSignedIn(ctx context.Context, userID int64, at time.Time) error {
	query := `UPDATE users SET last_signed_in = ? WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query, at.UTC(), userID)
	if err != nil {
		return fmt.Errorf("failed to update last signed in: %w", err)
	}

	return rowsAffectedOr(result, storage.ErrUserNotFound)
}

// scanUser читает одну строку users
func (s *Storage) scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	var (
		name, email, passwordHash sql.NullString
		role                      string
	)

	err := row.Scan(
		&user.ID,
		&user.OpenID,
		&name,
		&email,
		&user.LoginMethod,
		&passwordHash,
		&role,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.LastSignedIn,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	user.Name = name.String
	user.Email = email.String
	user.PasswordHash = passwordHash.String
	user.Role = models.Role(role)

	return user, nil
}
