package models

import "time"

type Frequency string

const (
	FrequencyDaily  Frequency = "daily"
	FrequencyWeekly Frequency = "weekly"
)

// Valid reports whether f is a known frequency.
func (f Frequency) Valid() bool {
	return f == FrequencyDaily || f == FrequencyWeekly
}

// Habit is a recurring task a user tracks. StartDate is the calendar day the
// habit was created in the owner's timezone; a habit only counts toward a
// day's completion condition from that day on.
type Habit struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Icon      string    `json:"icon"`
	Frequency Frequency `json:"frequency"`
	Points    int       `json:"points"`
	Streak    int       `json:"streak"`
	IsActive  bool      `json:"is_active"`
	StartDate string    `json:"start_date"` // YYYY-MM-DD format
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Completion records whether a habit was done on a calendar day. There is at
// most one Completion per (HabitID, Date).
type Completion struct {
	ID        string    `json:"id"`
	HabitID   string    `json:"habit_id"`
	UserID    string    `json:"user_id"`
	Date      string    `json:"completed_date"` // YYYY-MM-DD format
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"created_at"`
}

// DayProgress is the per-day tally of eligible habits and how many of them
// were completed.
type DayProgress struct {
	Day       string `json:"day"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
}

// AllDone reports whether every eligible habit was completed. A day with no
// eligible habits is never done.
func (p DayProgress) AllDone() bool {
	return p.Total > 0 && p.Completed >= p.Total
}
