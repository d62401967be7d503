package models

import (
	"time"

	"github.com/iudanet/babysteps/internal/validation"
)

// DateLayout формат дат без времени (дата рождения)
const DateLayout = "2006-01-02"

// Child представляет профиль ребенка, принадлежит одному пользователю
type Child struct {
	BirthDate time.Time `json:"birth_date"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Name      string    `json:"name"`
	Gender    string    `json:"gender"`
	Notes     string    `json:"notes"`
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
}

// ChildInput is the body of create/update child requests.
type ChildInput struct {
	Name      string `json:"name"`
	BirthDate string `json:"birth_date"` // YYYY-MM-DD
	Gender    string `json:"gender"`
	Notes     string `json:"notes"`
}

// Validate strips markup from text fields and checks required ones.
func (in *ChildInput) Validate() error {
	in.Name = validation.SanitizeText(in.Name)
	in.Notes = validation.SanitizeText(in.Notes)

	if err := validation.Required("name", in.Name); err != nil {
		return err
	}
	if err := validation.MaxLen("name", in.Name, 100); err != nil {
		return err
	}
	if err := validation.Required("birth_date", in.BirthDate); err != nil {
		return err
	}
	if _, err := time.Parse(DateLayout, in.BirthDate); err != nil {
		return &validation.FieldError{Field: "birth_date", Reason: "birth_date must be in YYYY-MM-DD format"}
	}
	if err := validation.OneOf("gender", in.Gender, "male", "female", "other"); err != nil {
		return err
	}
	return validation.MaxLen("notes", in.Notes, 2000)
}

// ToChild converts validated input into a Child owned by userID.
func (in *ChildInput) ToChild(userID int64) *Child {
	birth, _ := time.Parse(DateLayout, in.BirthDate)
	return &Child{
		UserID:    userID,
		Name:      in.Name,
		BirthDate: birth,
		Gender:    in.Gender,
		Notes:     in.Notes,
	}
}
