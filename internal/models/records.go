package models

import (
	"time"

	"github.com/iudanet/babysteps/internal/validation"
)

const maxNoteLen = 5000

// GrowthRecord - измерение роста/веса
type GrowthRecord struct {
	MeasuredAt time.Time `json:"measured_at"`
	CreatedAt  time.Time `json:"created_at"`
	Notes      string    `json:"notes"`
	ID         int64     `json:"id"`
	ChildID    int64     `json:"child_id"`
	WeightKg   float64   `json:"weight_kg"`
	HeightCm   float64   `json:"height_cm"`
	HeadCm     float64   `json:"head_cm"`
}

// GrowthInput is the body of POST /children/{id}/growth.
type GrowthInput struct {
	MeasuredAt time.Time `json:"measured_at"`
	Notes      string    `json:"notes"`
	WeightKg   float64   `json:"weight_kg"`
	HeightCm   float64   `json:"height_cm"`
	HeadCm     float64   `json:"head_cm"`
}

func (in *GrowthInput) Validate() error {
	in.Notes = validation.SanitizeText(in.Notes)
	if in.MeasuredAt.IsZero() {
		return &validation.FieldError{Field: "measured_at", Reason: "measured_at is required"}
	}
	if in.WeightKg == 0 && in.HeightCm == 0 && in.HeadCm == 0 {
		return &validation.FieldError{Field: "weight_kg", Reason: "at least one of weight_kg, height_cm, head_cm is required"}
	}
	for field, v := range map[string]float64{"weight_kg": in.WeightKg, "height_cm": in.HeightCm, "head_cm": in.HeadCm} {
		if err := validation.NonNegative(field, v); err != nil {
			return err
		}
	}
	return validation.MaxLen("notes", in.Notes, maxNoteLen)
}

// Vaccination - запись о прививке (плановой или сделанной)
type Vaccination struct {
	ScheduledAt    *time.Time `json:"scheduled_at"`
	AdministeredAt *time.Time `json:"administered_at"`
	CreatedAt      time.Time  `json:"created_at"`
	Name           string     `json:"name"`
	Notes          string     `json:"notes"`
	ID             int64      `json:"id"`
	ChildID        int64      `json:"child_id"`
	Dose           int        `json:"dose"`
}

type VaccinationInput struct {
	ScheduledAt    *time.Time `json:"scheduled_at"`
	AdministeredAt *time.Time `json:"administered_at"`
	Name           string     `json:"name"`
	Notes          string     `json:"notes"`
	Dose           int        `json:"dose"`
}

func (in *VaccinationInput) Validate() error {
	in.Name = validation.SanitizeText(in.Name)
	in.Notes = validation.SanitizeText(in.Notes)
	if err := validation.Required("name", in.Name); err != nil {
		return err
	}
	if err := validation.MaxLen("name", in.Name, 200); err != nil {
		return err
	}
	if in.Dose < 0 {
		return &validation.FieldError{Field: "dose", Reason: "dose must not be negative"}
	}
	if in.ScheduledAt == nil && in.AdministeredAt == nil {
		return &validation.FieldError{Field: "scheduled_at", Reason: "scheduled_at or administered_at is required"}
	}
	return validation.MaxLen("notes", in.Notes, maxNoteLen)
}

// NutritionLog - кормление
type NutritionLog struct {
	StartedAt   time.Time `json:"started_at"`
	CreatedAt   time.Time `json:"created_at"`
	Kind        string    `json:"kind"`
	Notes       string    `json:"notes"`
	ID          int64     `json:"id"`
	ChildID     int64     `json:"child_id"`
	AmountML    float64   `json:"amount_ml"`
	DurationMin int       `json:"duration_min"`
}

type NutritionInput struct {
	StartedAt   time.Time `json:"started_at"`
	Kind        string    `json:"kind"`
	Notes       string    `json:"notes"`
	AmountML    float64   `json:"amount_ml"`
	DurationMin int       `json:"duration_min"`
}

func (in *NutritionInput) Validate() error {
	in.Notes = validation.SanitizeText(in.Notes)
	if err := validation.Required("kind", in.Kind); err != nil {
		return err
	}
	if err := validation.OneOf("kind", in.Kind, "breast", "bottle", "solid"); err != nil {
		return err
	}
	if in.StartedAt.IsZero() {
		return &validation.FieldError{Field: "started_at", Reason: "started_at is required"}
	}
	if err := validation.NonNegative("amount_ml", in.AmountML); err != nil {
		return err
	}
	if in.DurationMin < 0 {
		return &validation.FieldError{Field: "duration_min", Reason: "duration_min must not be negative"}
	}
	return validation.MaxLen("notes", in.Notes, maxNoteLen)
}

// SleepLog - период сна
type SleepLog struct {
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at"`
	CreatedAt time.Time  `json:"created_at"`
	Quality   string     `json:"quality"`
	Notes     string     `json:"notes"`
	ID        int64      `json:"id"`
	ChildID   int64      `json:"child_id"`
}

type SleepInput struct {
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at"`
	Quality   string     `json:"quality"`
	Notes     string     `json:"notes"`
}

func (in *SleepInput) Validate() error {
	in.Notes = validation.SanitizeText(in.Notes)
	if in.StartedAt.IsZero() {
		return &validation.FieldError{Field: "started_at", Reason: "started_at is required"}
	}
	if in.EndedAt != nil && !in.EndedAt.After(in.StartedAt) {
		return &validation.FieldError{Field: "ended_at", Reason: "ended_at must be after started_at"}
	}
	if err := validation.OneOf("quality", in.Quality, "good", "fair", "poor"); err != nil {
		return err
	}
	return validation.MaxLen("notes", in.Notes, maxNoteLen)
}

// HealthNote - заметка о здоровье (симптом, лекарство, визит к врачу)
type HealthNote struct {
	RecordedAt time.Time `json:"recorded_at"`
	CreatedAt  time.Time `json:"created_at"`
	Category   string    `json:"category"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	ID         int64     `json:"id"`
	ChildID    int64     `json:"child_id"`
}

type HealthNoteInput struct {
	RecordedAt time.Time `json:"recorded_at"`
	Category   string    `json:"category"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
}

func (in *HealthNoteInput) Validate() error {
	in.Title = validation.SanitizeText(in.Title)
	in.Body = validation.SanitizeText(in.Body)
	if err := validation.Required("title", in.Title); err != nil {
		return err
	}
	if err := validation.MaxLen("title", in.Title, 200); err != nil {
		return err
	}
	if in.Category == "" {
		in.Category = "other"
	}
	if err := validation.OneOf("category", in.Category, "symptom", "medication", "doctor_visit", "other"); err != nil {
		return err
	}
	if in.RecordedAt.IsZero() {
		return &validation.FieldError{Field: "recorded_at", Reason: "recorded_at is required"}
	}
	return validation.MaxLen("body", in.Body, maxNoteLen)
}

// JournalEntry - запись в дневнике воспоминаний
type JournalEntry struct {
	HappenedAt time.Time `json:"happened_at"`
	CreatedAt  time.Time `json:"created_at"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	Mood       string    `json:"mood"`
	ID         int64     `json:"id"`
	ChildID    int64     `json:"child_id"`
}

type JournalInput struct {
	HappenedAt time.Time `json:"happened_at"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	Mood       string    `json:"mood"`
}

func (in *JournalInput) Validate() error {
	in.Title = validation.SanitizeText(in.Title)
	in.Body = validation.SanitizeText(in.Body)
	if err := validation.Required("title", in.Title); err != nil {
		return err
	}
	if err := validation.MaxLen("title", in.Title, 200); err != nil {
		return err
	}
	if in.HappenedAt.IsZero() {
		return &validation.FieldError{Field: "happened_at", Reason: "happened_at is required"}
	}
	if err := validation.OneOf("mood", in.Mood, "happy", "calm", "tired", "sad"); err != nil {
		return err
	}
	return validation.MaxLen("body", in.Body, 10000)
}
