package models

import (
	"time"

	"github.com/iudanet/babysteps/internal/validation"
)

const (
	PlanFree    = "free"
	PlanPremium = "premium"

	SubscriptionActive   = "active"
	SubscriptionCanceled = "canceled"
	SubscriptionExpired  = "expired"
)

// Subscription хранит текущий план пользователя (одна строка на пользователя)
type Subscription struct {
	ExpiresAt *time.Time `json:"expires_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	Plan      string     `json:"plan"`
	Status    string     `json:"status"`
	UserID    int64      `json:"user_id"`
}

// FreeSubscription is returned for users that never purchased anything.
func FreeSubscription(userID int64) *Subscription {
	return &Subscription{UserID: userID, Plan: PlanFree, Status: SubscriptionActive}
}

type SubscriptionInput struct {
	ExpiresAt *time.Time `json:"expires_at"`
	Plan      string     `json:"plan"`
	Status    string     `json:"status"`
}

func (in *SubscriptionInput) Validate() error {
	if err := validation.Required("plan", in.Plan); err != nil {
		return err
	}
	if err := validation.OneOf("plan", in.Plan, PlanFree, PlanPremium); err != nil {
		return err
	}
	if in.Status == "" {
		in.Status = SubscriptionActive
	}
	if err := validation.OneOf("status", in.Status, SubscriptionActive, SubscriptionCanceled, SubscriptionExpired); err != nil {
		return err
	}
	if in.Plan == PlanPremium && in.ExpiresAt == nil {
		return &validation.FieldError{Field: "expires_at", Reason: "expires_at is required for premium plan"}
	}
	return nil
}
