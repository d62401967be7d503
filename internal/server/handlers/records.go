package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/iudanet/babysteps/internal/models"
	"github.com/iudanet/babysteps/internal/server/storage"
)

// RecordHandler обрабатывает записи ребенка: рост, прививки, питание, сон, здоровье, дневник
type RecordHandler struct {
	responder
	store storage.RecordStorage
}

// NewRecordHandler создает новый handler записей
func NewRecordHandler(logger *slog.Logger, store storage.RecordStorage) *RecordHandler {
	return &RecordHandler{
		responder: responder{logger: logger},
		store:     store,
	}
}

type validatable interface {
	Validate() error
}

// saveFunc строит запись из провалидированного ввода и сохраняет ее
type saveFunc func(ctx context.Context, userID, childID int64) (any, error)

type listFunc func(ctx context.Context, userID, childID int64) (any, error)

type deleteFunc func(ctx context.Context, userID, childID, id int64) error

func (h *RecordHandler) create(w http.ResponseWriter, r *http.Request, in validatable, save saveFunc) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	childID, err := pathID(r, "childID")
	if err != nil {
		h.sendError(w, "invalid child id", http.StatusBadRequest)
		return
	}

	if err := decodeJSON(r, in); err != nil {
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := in.Validate(); err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	rec, err := save(r.Context(), user.ID, childID)
	if err != nil {
		h.sendStoreError(w, r, err)
		return
	}

	h.sendJSON(w, rec, http.StatusCreated)
}

func (h *RecordHandler) list(w http.ResponseWriter, r *http.Request, list listFunc) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	childID, err := pathID(r, "childID")
	if err != nil {
		h.sendError(w, "invalid child id", http.StatusBadRequest)
		return
	}

	items, err := list(r.Context(), user.ID, childID)
	if err != nil {
		h.sendStoreError(w, r, err)
		return
	}

	h.sendJSON(w, items, http.StatusOK)
}

func (h *RecordHandler) remove(w http.ResponseWriter, r *http.Request, del deleteFunc) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	childID, err := pathID(r, "childID")
	if err != nil {
		h.sendError(w, "invalid child id", http.StatusBadRequest)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		h.sendError(w, "invalid record id", http.StatusBadRequest)
		return
	}

	if err := del(r.Context(), user.ID, childID, id); err != nil {
		h.sendStoreError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Growth

func (h *RecordHandler) ListGrowth(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, func(ctx context.Context, userID, childID int64) (any, error) {
		return h.store.ListGrowth(ctx, userID, childID)
	})
}

func (h *RecordHandler) CreateGrowth(w http.ResponseWriter, r *http.Request) {
	var in models.GrowthInput
	h.create(w, r, &in, func(ctx context.Context, userID, childID int64) (any, error) {
		rec := &models.GrowthRecord{
			ChildID:    childID,
			MeasuredAt: in.MeasuredAt,
			WeightKg:   in.WeightKg,
			HeightCm:   in.HeightCm,
			HeadCm:     in.HeadCm,
			Notes:      in.Notes,
		}
		return rec, h.store.CreateGrowth(ctx, userID, rec)
	})
}

func (h *RecordHandler) DeleteGrowth(w http.ResponseWriter, r *http.Request) {
	h.remove(w, r, h.store.DeleteGrowth)
}

// Vaccinations

func (h *RecordHandler) ListVaccinations(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, func(ctx context.Context, userID, childID int64) (any, error) {
		return h.store.ListVaccinations(ctx, userID, childID)
	})
}

func (h *RecordHandler) CreateVaccination(w http.ResponseWriter, r *http.Request) {
	var in models.VaccinationInput
	h.create(w, r, &in, func(ctx context.Context, userID, childID int64) (any, error) {
		rec := &models.Vaccination{
			ChildID:        childID,
			Name:           in.Name,
			Dose:           in.Dose,
			ScheduledAt:    in.ScheduledAt,
			AdministeredAt: in.AdministeredAt,
			Notes:          in.Notes,
		}
		return rec, h.store.CreateVaccination(ctx, userID, rec)
	})
}

func (h *RecordHandler) DeleteVaccination(w http.ResponseWriter, r *http.Request) {
	h.remove(w, r, h.store.DeleteVaccination)
}

// Nutrition

func (h *RecordHandler) ListNutrition(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, func(ctx context.Context, userID, childID int64) (any, error) {
		return h.store.ListNutrition(ctx, userID, childID)
	})
}

func (h *RecordHandler) CreateNutrition(w http.ResponseWriter, r *http.Request) {
	var in models.NutritionInput
	h.create(w, r, &in, func(ctx context.Context, userID, childID int64) (any, error) {
		rec := &models.NutritionLog{
			ChildID:     childID,
			Kind:        in.Kind,
			StartedAt:   in.StartedAt,
			AmountML:    in.AmountML,
			DurationMin: in.DurationMin,
			Notes:       in.Notes,
		}
		return rec, h.store.CreateNutrition(ctx, userID, rec)
	})
}

func (h *RecordHandler) DeleteNutrition(w http.ResponseWriter, r *http.Request) {
	h.remove(w, r, h.store.DeleteNutrition)
}

// Sleep

func (h *RecordHandler) ListSleep(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, func(ctx context.Context, userID, childID int64) (any, error) {
		return h.store.ListSleep(ctx, userID, childID)
	})
}

func (h *RecordHandler) CreateSleep(w http.ResponseWriter, r *http.Request) {
	var in models.SleepInput
	h.create(w, r, &in, func(ctx context.Context, userID, childID int64) (any, error) {
		rec := &models.SleepLog{
			ChildID:   childID,
			StartedAt: in.StartedAt,
			EndedAt:   in.EndedAt,
			Quality:   in.Quality,
			Notes:     in.Notes,
		}
		return rec, h.store.CreateSleep(ctx, userID, rec)
	})
}

func (h *RecordHandler) DeleteSleep(w http.ResponseWriter, r *http.Request) {
	h.remove(w, r, h.store.DeleteSleep)
}

// Health notes

func (h *RecordHandler) ListHealthNotes(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, func(ctx context.Context, userID, childID int64) (any, error) {
		return h.store.ListHealthNotes(ctx, userID, childID)
	})
}

func (h *RecordHandler) CreateHealthNote(w http.ResponseWriter, r *http.Request) {
	var in models.HealthNoteInput
	h.create(w, r, &in, func(ctx context.Context, userID, childID int64) (any, error) {
		rec := &models.HealthNote{
			ChildID:    childID,
			Category:   in.Category,
			Title:      in.Title,
			Body:       in.Body,
			RecordedAt: in.RecordedAt,
		}
		return rec, h.store.CreateHealthNote(ctx, userID, rec)
	})
}

func (h *RecordHandler) DeleteHealthNote(w http.ResponseWriter, r *http.Request) {
	h.remove(w, r, h.store.DeleteHealthNote)
}

// Journal

func (h *RecordHandler) ListJournal(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, func(ctx context.Context, userID, childID int64) (any, error) {
		return h.store.ListJournalEntries(ctx, userID, childID)
	})
}

func (h *RecordHandler) CreateJournalEntry(w http.ResponseWriter, r *http.Request) {
	var in models.JournalInput
	h.create(w, r, &in, func(ctx context.Context, userID, childID int64) (any, error) {
		rec := &models.JournalEntry{
			ChildID:    childID,
			Title:      in.Title,
			Body:       in.Body,
			Mood:       in.Mood,
			HappenedAt: in.HappenedAt,
		}
		return rec, h.store.CreateJournalEntry(ctx, userID, rec)
	})
}

func (h *RecordHandler) DeleteJournalEntry(w http.ResponseWriter, r *http.Request) {
	h.remove(w, r, h.store.DeleteJournalEntry)
}
