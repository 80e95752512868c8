package constants

const (
	// Leveling: the first level costs BaseXPToNextLevel and every level-up
	// raises the next threshold by XPLevelIncrement.
	BaseXPToNextLevel = 100
	XPLevelIncrement  = 100
	StartingLevel     = 1

	// Default points per completion by habit frequency
	DefaultDailyPoints  = 10
	DefaultWeeklyPoints = 30

	// Partnership target bounds (inclusive)
	MinPartnershipTargetDays = 1
	MaxPartnershipTargetDays = 365

	// MaxConflictRetries bounds optimistic read-modify-write loops on
	// versioned rows before giving up with a conflict.
	MaxConflictRetries = 5

	// MaxStreakBackfillDays bounds how far back a streak check re-evaluates
	// days it has not seen. Older gaps count as missed days.
	MaxStreakBackfillDays = 60

	// RecentDays is the window used by the last-7-days query and weekly summary.
	RecentDays = 7

	// DefaultSearchLimit caps profile search results.
	DefaultSearchLimit = 20
)

// StreakMilestones are the streak lengths that emit a milestone event.
var StreakMilestones = []int{7, 14, 30, 50, 100, 365}

// IsStreakMilestone reports whether days is one of StreakMilestones.
func IsStreakMilestone(days int) bool {
	for _, m := range StreakMilestones {
		if m == days {
			return true
		}
	}
	return false
}
