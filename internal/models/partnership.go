package models

import "time"

type PartnershipStatus string

const (
	PartnershipPending   PartnershipStatus = "pending"
	PartnershipActive    PartnershipStatus = "active"
	PartnershipCompleted PartnershipStatus = "completed"
	PartnershipCancelled PartnershipStatus = "cancelled"
)

// Open reports whether the status still counts against the one-open-partnership
// per pair rule.
func (s PartnershipStatus) Open() bool {
	return s == PartnershipPending || s == PartnershipActive
}

// Terminal reports whether no further transitions are allowed.
func (s PartnershipStatus) Terminal() bool {
	return s == PartnershipCompleted || s == PartnershipCancelled
}

// StreakPartnership is a joint streak between two friends. User1 is always the
// inviter. Dates are YYYY-MM-DD and empty when unset.
type StreakPartnership struct {
	ID               string            `json:"id"`
	User1ID          string            `json:"user1_id"`
	User2ID          string            `json:"user2_id"`
	Status           PartnershipStatus `json:"status"`
	TargetDays       int               `json:"target_days"`
	CurrentStreak    int               `json:"current_streak"`
	StartDate        string            `json:"start_date,omitempty"`
	EndDate          string            `json:"end_date,omitempty"`
	LastActivityDate string            `json:"last_activity_date,omitempty"`
	ReminderEnabled  bool              `json:"reminder_enabled"`
	Version          int64             `json:"version"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

func (p StreakPartnership) Involves(userID string) bool {
	return p.User1ID == userID || p.User2ID == userID
}

// PartnerOf returns the other member of the partnership.
func (p StreakPartnership) PartnerOf(userID string) string {
	if p.User1ID == userID {
		return p.User2ID
	}
	return p.User1ID
}
