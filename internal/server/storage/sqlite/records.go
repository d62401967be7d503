package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/iudanet/babysteps/internal/models"
)

// insertRecord проверяет владельца ребенка и выполняет INSERT, возвращает ID и время создания
func (s *Storage) insertRecord(ctx context.Context, userID, childID int64, query string, args ...any) (int64, time.Time, error) {
	if err := s.ensureChild(ctx, userID, childID); err != nil {
		return 0, time.Time{}, err
	}

	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx, query, append(args, now)...)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("failed to insert record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("failed to get record id: %w", err)
	}

	return id, now, nil
}

// listRecords проверяет владельца ребенка и читает все строки через scan
func listRecords[T any](ctx context.Context, s *Storage, userID, childID int64, query string, scan func(*sql.Rows) (T, error)) ([]T, error) {
	if err := s.ensureChild(ctx, userID, childID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, childID)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	items := make([]T, 0)
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return items, nil
}

// Growth

func (s *Storage) CreateGrowth(ctx context.Context, userID int64, rec *models.GrowthRecord) error {
	id, created, err := s.insertRecord(ctx, userID, rec.ChildID, `
		INSERT INTO growth_records (child_id, measured_at, weight_kg, height_cm, head_cm, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ChildID, rec.MeasuredAt.UTC(), rec.WeightKg, rec.HeightCm, rec.HeadCm, rec.Notes,
	)
	if err != nil {
		return err
	}
	rec.ID, rec.CreatedAt = id, created
	return nil
}

func (s *Storage) ListGrowth(ctx context.Context, userID, childID int64) ([]*models.GrowthRecord, error) {
	return listRecords(ctx, s, userID, childID, `
		SELECT id, child_id, measured_at, weight_kg, height_cm, head_cm, notes, created_at
		FROM growth_records WHERE child_id = ? ORDER BY measured_at DESC, id DESC`,
		func(rows *sql.Rows) (*models.GrowthRecord, error) {
			r := &models.GrowthRecord{}
			err := rows.Scan(&r.ID, &r.ChildID, &r.MeasuredAt, &r.WeightKg, &r.HeightCm, &r.HeadCm, &r.Notes, &r.CreatedAt)
			return r, err
		})
}

func (s *Storage) DeleteGrowth(ctx context.Context, userID, childID, id int64) error {
	return s.deleteOwned(ctx, "growth_records", userID, childID, id)
}

// Vaccinations

func (s *Storage) CreateVaccination(ctx context.Context, userID int64, rec *models.Vaccination) error {
	id, created, err := s.insertRecord(ctx, userID, rec.ChildID, `
		INSERT INTO vaccinations (child_id, name, dose, scheduled_at, administered_at, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ChildID, rec.Name, rec.Dose, nullTime(rec.ScheduledAt), nullTime(rec.AdministeredAt), rec.Notes,
	)
	if err != nil {
		return err
	}
	rec.ID, rec.CreatedAt = id, created
	return nil
}

func (s *Storage) ListVaccinations(ctx context.Context, userID, childID int64) ([]*models.Vaccination, error) {
	return listRecords(ctx, s, userID, childID, `
		SELECT id, child_id, name, dose, scheduled_at, administered_at, notes, created_at
		FROM vaccinations WHERE child_id = ?
		ORDER BY COALESCE(administered_at, scheduled_at), id`,
		func(rows *sql.Rows) (*models.Vaccination, error) {
			r := &models.Vaccination{}
			var scheduled, administered sql.NullTime
			if err := rows.Scan(&r.ID, &r.ChildID, &r.Name, &r.Dose, &scheduled, &administered, &r.Notes, &r.CreatedAt); err != nil {
				return nil, err
			}
			r.ScheduledAt = timePtr(scheduled)
			r.AdministeredAt = timePtr(administered)
			return r, nil
		})
}

func (s *Storage) DeleteVaccination(ctx context.Context, userID, childID, id int64) error {
	return s.deleteOwned(ctx, "vaccinations", userID, childID, id)
}

// Nutrition

func (s *Storage) CreateNutrition(ctx context.Context, userID int64, rec *models.NutritionLog) error {
	id, created, err := s.insertRecord(ctx, userID, rec.ChildID, `
		INSERT INTO nutrition_logs (child_id, kind, started_at, amount_ml, duration_min, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ChildID, rec.Kind, rec.StartedAt.UTC(), rec.AmountML, rec.DurationMin, rec.Notes,
	)
	if err != nil {
		return err
	}
	rec.ID, rec.CreatedAt = id, created
	return nil
}

func (s *Storage) ListNutrition(ctx context.Context, userID, childID int64) ([]*models.NutritionLog, error) {
	return listRecords(ctx, s, userID, childID, `
		SELECT id, child_id, kind, started_at, amount_ml, duration_min, notes, created_at
		FROM nutrition_logs WHERE child_id = ? ORDER BY started_at DESC, id DESC`,
		func(rows *sql.Rows) (*models.NutritionLog, error) {
			r := &models.NutritionLog{}
			err := rows.Scan(&r.ID, &r.ChildID, &r.Kind, &r.StartedAt, &r.AmountML, &r.DurationMin, &r.Notes, &r.CreatedAt)
			return r, err
		})
}

func (s *Storage) DeleteNutrition(ctx context.Context, userID, childID, id int64) error {
	return s.deleteOwned(ctx, "nutrition_logs", userID, childID, id)
}

// Sleep

func (s *Storage) CreateSleep(ctx context.Context, userID int64, rec *models.SleepLog) error {
	id, created, err := s.insertRecord(ctx, userID, rec.ChildID, `
		INSERT INTO sleep_logs (child_id, started_at, ended_at, quality, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ChildID, rec.StartedAt.UTC(), nullTime(rec.EndedAt), rec.Quality, rec.Notes,
	)
	if err != nil {
		return err
	}
	rec.ID, rec.CreatedAt = id, created
	return nil
}

func (s *Storage) ListSleep(ctx context.Context, userID, childID int64) ([]*models.SleepLog, error) {
	return listRecords(ctx, s, userID, childID, `
		SELECT id, child_id, started_at, ended_at, quality, notes, created_at
		FROM sleep_logs WHERE child_id = ? ORDER BY started_at DESC, id DESC`,
		func(rows *sql.Rows) (*models.SleepLog, error) {
			r := &models.SleepLog{}
			var ended sql.NullTime
			if err := rows.Scan(&r.ID, &r.ChildID, &r.StartedAt, &ended, &r.Quality, &r.Notes, &r.CreatedAt); err != nil {
				return nil, err
			}
			r.EndedAt = timePtr(ended)
			return r, nil
		})
}

func (s *Storage) DeleteSleep(ctx context.Context, userID, childID, id int64) error {
	return s.deleteOwned(ctx, "sleep_logs", userID, childID, id)
}

// Health notes

func (s *Storage) CreateHealthNote(ctx context.Context, userID int64, rec *models.HealthNote) error {
	id, created, err := s.insertRecord(ctx, userID, rec.ChildID, `
		INSERT INTO health_notes (child_id, category, title, body, recorded_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ChildID, rec.Category, rec.Title, rec.Body, rec.RecordedAt.UTC(),
	)
	if err != nil {
		return err
	}
	rec.ID, rec.CreatedAt = id, created
	return nil
}

func (s *Storage) ListHealthNotes(ctx context.Context, userID, childID int64) ([]*models.HealthNote, error) {
	return listRecords(ctx, s, userID, childID, `
		SELECT id, child_id, category, title, body, recorded_at, created_at
		FROM health_notes WHERE child_id = ? ORDER BY recorded_at DESC, id DESC`,
		func(rows *sql.Rows) (*models.HealthNote, error) {
			r := &models.HealthNote{}
			err := rows.Scan(&r.ID, &r.ChildID, &r.Category, &r.Title, &r.Body, &r.RecordedAt, &r.CreatedAt)
			return r, err
		})
}

func (s *Storage) DeleteHealthNote(ctx context.Context, userID, childID, id int64) error {
	return s.deleteOwned(ctx, "health_notes", userID, childID, id)
}

// Journal

func (s *Storage) CreateJournalEntry(ctx context.Context, userID int64, rec *models.JournalEntry) error {
	id, created, err := s.insertRecord(ctx, userID, rec.ChildID, `
		INSERT INTO journal_entries (child_id, title, body, mood, happened_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ChildID, rec.Title, rec.Body, rec.Mood, rec.HappenedAt.UTC(),
	)
	if err != nil {
		return err
	}
	rec.ID, rec.CreatedAt = id, created
	return nil
}

func (s *Storage) ListJournalEntries(ctx context.Context, userID, childID int64) ([]*models.JournalEntry, error) {
	return listRecords(ctx, s, userID, childID, `
		SELECT id, child_id, title, body, mood, happened_at, created_at
		FROM journal_entries WHERE child_id = ? ORDER BY happened_at DESC, id DESC`,
		func(rows *sql.Rows) (*models.JournalEntry, error) {
			r := &models.JournalEntry{}
			err := rows.Scan(&r.ID, &r.ChildID, &r.Title, &r.Body, &r.Mood, &r.HappenedAt, &r.CreatedAt)
			return r, err
		})
}

func (s *Storage) DeleteJournalEntry(ctx context.Context, userID, childID, id int64) error {
	return s.deleteOwned(ctx, "journal_entries", userID, childID, id)
}
