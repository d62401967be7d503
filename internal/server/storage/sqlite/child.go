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

const childColumns = `id, user_id, name, birth_date, gender, notes, created_at, updated_at`

// CreateChild creates a child profile, fills ID and timestamps
func (s *Storage) CreateChild(ctx context.Context, child *models.Child) error {
	now := time.Now().UTC()

	query := `
		INSERT INTO children (user_id, name, birth_date, gender, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.ExecContext(ctx, query,
		child.UserID,
		child.Name,
		child.BirthDate,
		child.Gender,
		child.Notes,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert child: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get child id: %w", err)
	}

	child.ID = id
	child.CreatedAt = now
	child.UpdatedAt = now

	return nil
}

// GetChild retrieves a child owned by userID
func (s *Storage) GetChild(ctx context.Context, userID, childID int64) (*models.Child, error) {
	query := `SELECT ` + childColumns + ` FROM children WHERE id = ? AND user_id = ?`

	child := &models.Child{}
	err := s.db.QueryRowContext(ctx, query, childID, userID).Scan(
		&child.ID,
		&child.UserID,
		&child.Name,
		&child.BirthDate,
		&child.Gender,
		&child.Notes,
		&child.CreatedAt,
		&child.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrChildNotFound
		}
		return nil, fmt.Errorf("failed to get child: %w", err)
	}

	return child, nil
}

// ListChildren retrieves all children of a user ordered by birth date
func (s *Storage) ListChildren(ctx context.Context, userID int64) ([]*models.Child, error) {
	query := `SELECT ` + childColumns + ` FROM children WHERE user_id = ? ORDER BY birth_date, id`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query children: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	children := make([]*models.Child, 0)
	for rows.Next() {
		child := &models.Child{}
		if err := rows.Scan(
			&child.ID,
			&child.UserID,
			&child.Name,
			&child.BirthDate,
			&child.Gender,
			&child.Notes,
			&child.CreatedAt,
			&child.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan child: %w", err)
		}
		children = append(children, child)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return children, nil
}

// UpdateChild updates profile fields of a child owned by child.UserID
func (s *Storage) UpdateChild(ctx context.Context, child *models.Child) error {
	now := time.Now().UTC()

	query := `
		UPDATE children
		SET name = ?, birth_date = ?, gender = ?, notes = ?, updated_at = ?
		WHERE id = ? AND user_id = ?
	`

	result, err := s.db.ExecContext(ctx, query,
		child.Name,
		child.BirthDate,
		child.Gender,
		child.Notes,
		now,
		child.ID,
		child.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update child: %w", err)
	}

	if err := rowsAffectedOr(result, storage.ErrChildNotFound); err != nil {
		return err
	}

	child.UpdatedAt = now
	return nil
}

// DeleteChild deletes a child and, by cascade, all its records
func (s *Storage) DeleteChild(ctx context.Context, userID, childID int64) error {
	query := `DELETE FROM children WHERE id = ? AND user_id = ?`

	result, err := s.db.ExecContext(ctx, query, childID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete child: %w", err)
	}

	return rowsAffectedOr(result, storage.ErrChildNotFound)
}

// ensureChild проверяет, что ребенок существует и принадлежит пользователю
func (s *Storage) ensureChild(ctx context.Context, userID, childID int64) error {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM children WHERE id = ? AND user_id = ?`, childID, userID,
	).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ErrChildNotFound
		}
		return fmt.Errorf("failed to check child: %w", err)
	}
	return nil
}

// deleteOwned удаляет запись из table, если ее ребенок принадлежит пользователю
func (s *Storage) deleteOwned(ctx context.Context, table string, userID, childID, id int64) error {
	query := `DELETE FROM ` + table + `
		WHERE id = ? AND child_id = ?
		AND child_id IN (SELECT id FROM children WHERE user_id = ?)`

	result, err := s.db.ExecContext(ctx, query, id, childID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}

	return rowsAffectedOr(result, storage.ErrRecordNotFound)
}

// nullTime превращает nil в NULL
func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

// timePtr возвращает указатель на время или nil для NULL
func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
