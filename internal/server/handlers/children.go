package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/iudanet/babysteps/internal/models"
	"github.com/iudanet/babysteps/internal/server/auth"
	"github.com/iudanet/babysteps/internal/server/storage"
	"github.com/iudanet/babysteps/internal/validation"
)

// ChildHandler обрабатывает CRUD профилей детей текущего пользователя
type ChildHandler struct {
	responder
	store storage.ChildStorage
}

// NewChildHandler создает новый handler профилей детей
func NewChildHandler(logger *slog.Logger, store storage.ChildStorage) *ChildHandler {
	return &ChildHandler{
		responder: responder{logger: logger},
		store:     store,
	}
}

// List обрабатывает GET /api/children
func (h *ChildHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	children, err := h.store.ListChildren(r.Context(), user.ID)
	if err != nil {
		h.sendInternalError(w, r, "failed to list children", err)
		return
	}

	h.sendJSON(w, children, http.StatusOK)
}

// Create обрабатывает POST /api/children
func (h *ChildHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	in, ok := h.decodeInput(w, r)
	if !ok {
		return
	}

	child := in.ToChild(user.ID)
	if err := h.store.CreateChild(r.Context(), child); err != nil {
		h.sendInternalError(w, r, "failed to create child", err)
		return
	}

	h.logger.InfoContext(r.Context(), "child created",
		slog.Int64("user_id", user.ID),
		slog.Int64("child_id", child.ID))

	h.sendJSON(w, child, http.StatusCreated)
}

// Get обрабатывает GET /api/children/{childID}
func (h *ChildHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	childID, err := pathID(r, "childID")
	if err != nil {
		h.sendError(w, "invalid child id", http.StatusBadRequest)
		return
	}

	child, err := h.store.GetChild(r.Context(), user.ID, childID)
	if err != nil {
		h.sendStoreError(w, r, err)
		return
	}

	h.sendJSON(w, child, http.StatusOK)
}

// Update обрабатывает PUT /api/children/{childID}
func (h *ChildHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	childID, err := pathID(r, "childID")
	if err != nil {
		h.sendError(w, "invalid child id", http.StatusBadRequest)
		return
	}

	in, ok := h.decodeInput(w, r)
	if !ok {
		return
	}

	child := in.ToChild(user.ID)
	child.ID = childID
	if err := h.store.UpdateChild(r.Context(), child); err != nil {
		h.sendStoreError(w, r, err)
		return
	}

	updated, err := h.store.GetChild(r.Context(), user.ID, childID)
	if err != nil {
		h.sendStoreError(w, r, err)
		return
	}

	h.sendJSON(w, updated, http.StatusOK)
}

// Delete обрабатывает DELETE /api/children/{childID}
// Записи ребенка удаляются каскадно
func (h *ChildHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	childID, err := pathID(r, "childID")
	if err != nil {
		h.sendError(w, "invalid child id", http.StatusBadRequest)
		return
	}

	if err := h.store.DeleteChild(r.Context(), user.ID, childID); err != nil {
		h.sendStoreError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ChildHandler) decodeInput(w http.ResponseWriter, r *http.Request) (*models.ChildInput, bool) {
	var in models.ChildInput
	if err := decodeJSON(r, &in); err != nil {
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return nil, false
	}
	if err := in.Validate(); err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}
	return &in, true
}

// currentUser возвращает пользователя, положенного RequireUser
func (h responder) currentUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.sendError(w, auth.Message(auth.ErrMissingToken), http.StatusUnauthorized)
		return nil, false
	}
	return user, true
}

// sendStoreError переводит ошибки хранилища в HTTP статусы
func (h responder) sendStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, storage.ErrChildNotFound), errors.Is(err, storage.ErrRecordNotFound):
		h.sendError(w, err.Error(), http.StatusNotFound)
	case validation.IsFieldError(err):
		h.sendError(w, err.Error(), http.StatusBadRequest)
	default:
		h.sendInternalError(w, r, "storage operation failed", err)
	}
}
