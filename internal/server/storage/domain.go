package storage

import (
	"context"

	"github.com/iudanet/babysteps/internal/models"
)

// ChildStorage defines persistence of child profiles.
// All methods are scoped to the owning user: a child of another user is reported as ErrChildNotFound.
type ChildStorage interface {
	CreateChild(ctx context.Context, child *models.Child) error
	GetChild(ctx context.Context, userID, childID int64) (*models.Child, error)
	ListChildren(ctx context.Context, userID int64) ([]*models.Child, error)
	UpdateChild(ctx context.Context, child *models.Child) error
	DeleteChild(ctx context.Context, userID, childID int64) error
}

// RecordStorage defines persistence of per-child records.
// Create/List return ErrChildNotFound when the child is not owned by userID,
// Delete returns ErrRecordNotFound when nothing was deleted.
type RecordStorage interface {
	CreateGrowth(ctx context.Context, userID int64, rec *models.GrowthRecord) error
	ListGrowth(ctx context.Context, userID, childID int64) ([]*models.GrowthRecord, error)
	DeleteGrowth(ctx context.Context, userID, childID, id int64) error

	CreateVaccination(ctx context.Context, userID int64, rec *models.Vaccination) error
	ListVaccinations(ctx context.Context, userID, childID int64) ([]*models.Vaccination, error)
	DeleteVaccination(ctx context.Context, userID, childID, id int64) error

	CreateNutrition(ctx context.Context, userID int64, rec *models.NutritionLog) error
	ListNutrition(ctx context.Context, userID, childID int64) ([]*models.NutritionLog, error)
	DeleteNutrition(ctx context.Context, userID, childID, id int64) error

	CreateSleep(ctx context.Context, userID int64, rec *models.SleepLog) error
	ListSleep(ctx context.Context, userID, childID int64) ([]*models.SleepLog, error)
	DeleteSleep(ctx context.Context, userID, childID, id int64) error

	CreateHealthNote(ctx context.Context, userID int64, rec *models.HealthNote) error
	ListHealthNotes(ctx context.Context, userID, childID int64) ([]*models.HealthNote, error)
	DeleteHealthNote(ctx context.Context, userID, childID, id int64) error

	CreateJournalEntry(ctx context.Context, userID int64, rec *models.JournalEntry) error
	ListJournalEntries(ctx context.Context, userID, childID int64) ([]*models.JournalEntry, error)
	DeleteJournalEntry(ctx context.Context, userID, childID, id int64) error
}

// SubscriptionStorage defines persistence of the user's plan.
type SubscriptionStorage interface {
	// GetSubscription returns the stored plan or models.FreeSubscription if none was saved
	GetSubscription(ctx context.Context, userID int64) (*models.Subscription, error)
	UpsertSubscription(ctx context.Context, sub *models.Subscription) error
}

// Pinger is implemented by storages that can report liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}
