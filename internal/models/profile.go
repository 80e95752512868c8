package models

import "time"

// Profile is a registered user. The streak columns live on the profile row
// and are only touched through StreakProfile.
type Profile struct {
	ID               string    `json:"id"`
	Username         string    `json:"username"`
	DisplayName      string    `json:"display_name"`
	AvatarURL        string    `json:"avatar_url,omitempty"`
	CurrentStreak    int       `json:"current_streak"`
	LongestStreak    int       `json:"longest_streak"`
	LastActivityDate string    `json:"last_activity_date,omitempty"` // YYYY-MM-DD format
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// PublicProfile is the subset of a profile visible to other users.
type PublicProfile struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	DisplayName   string `json:"display_name"`
	AvatarURL     string `json:"avatar_url,omitempty"`
	CurrentStreak int    `json:"current_streak"`
	LongestStreak int    `json:"longest_streak"`
}

func (p Profile) Public() PublicProfile {
	return PublicProfile{
		ID:            p.ID,
		Username:      p.Username,
		DisplayName:   p.DisplayName,
		AvatarURL:     p.AvatarURL,
		CurrentStreak: p.CurrentStreak,
		LongestStreak: p.LongestStreak,
	}
}

// StreakProfile is the per-user streak bookkeeping. An empty
// LastActivityDate means the user has never been credited a day.
type StreakProfile struct {
	UserID           string `json:"user_id"`
	CurrentStreak    int    `json:"current_streak"`
	LongestStreak    int    `json:"longest_streak"`
	LastActivityDate string `json:"last_activity_date,omitempty"` // YYYY-MM-DD format
	Version          int64  `json:"version"`
}
