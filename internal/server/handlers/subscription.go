package handlers

import (
	"log/slog"
	"net/http"

	"github.com/iudanet/babysteps/internal/models"
	"github.com/iudanet/babysteps/internal/server/storage"
)

// SubscriptionHandler обрабатывает тарифный план пользователя
type SubscriptionHandler struct {
	responder
	store storage.SubscriptionStorage
}

// NewSubscriptionHandler создает новый handler подписки
func NewSubscriptionHandler(logger *slog.Logger, store storage.SubscriptionStorage) *SubscriptionHandler {
	return &SubscriptionHandler{
		responder: responder{logger: logger},
		store:     store,
	}
}

// Get обрабатывает GET /api/subscription
// Пользователь без сохраненного плана получает free
func (h *SubscriptionHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	sub, err := h.store.GetSubscription(r.Context(), user.ID)
	if err != nil {
		h.sendInternalError(w, r, "failed to get subscription", err)
		return
	}

	h.sendJSON(w, sub, http.StatusOK)
}

// Put обрабатывает PUT /api/subscription
func (h *SubscriptionHandler) Put(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var in models.SubscriptionInput
	if err := decodeJSON(r, &in); err != nil {
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := in.Validate(); err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	sub := &models.Subscription{
		UserID:    user.ID,
		Plan:      in.Plan,
		Status:    in.Status,
		ExpiresAt: in.ExpiresAt,
	}
	if in.Plan == models.PlanFree {
		sub.ExpiresAt = nil
	}

	if err := h.store.UpsertSubscription(r.Context(), sub); err != nil {
		h.sendInternalError(w, r, "failed to save subscription", err)
		return
	}

	h.logger.InfoContext(r.Context(), "subscription updated",
		slog.Int64("user_id", user.ID),
		slog.String("plan", sub.Plan),
		slog.String("status", sub.Status))

	h.sendJSON(w, sub, http.StatusOK)
}
