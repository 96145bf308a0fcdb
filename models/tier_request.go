package models

import "time"

// TierRequestStatus соответствует ENUM в БД.
type TierRequestStatus string

const (
	TierRequestStatusPending  TierRequestStatus = "pending"
	TierRequestStatusApproved TierRequestStatus = "approved"
	TierRequestStatusRejected TierRequestStatus = "rejected"
)

// TierRequest - запрос игрока на повышение тира.
// pending → approved или pending → rejected; оба перехода терминальны
// и выполняются только администратором.
type TierRequest struct {
	ID            int               `json:"id" db:"id"`
	UserID        int               `json:"user_id" db:"user_id"`
	CurrentTier   Tier              `json:"current_tier" db:"current_tier"`
	RequestedTier Tier              `json:"requested_tier" db:"requested_tier"`
	Status        TierRequestStatus `json:"status" db:"status"`
	CreatedAt     time.Time         `json:"created_at" db:"created_at"`
	ProcessedAt   *time.Time        `json:"processed_at,omitempty" db:"processed_at"`

	User *User `json:"user,omitempty" db:"-"`
}
