// Package ledger records per-day habit completions and answers the
// "were all habits done on this day" question the streak and partnership
// engines depend on. It also owns habit creation and soft deletion.
package ledger

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/julianstephens/daystreak/internal/clock"
	"github.com/julianstephens/daystreak/internal/constants"
	apperrors "github.com/julianstephens/daystreak/internal/errors"
	"github.com/julianstephens/daystreak/internal/logger"
	"github.com/julianstephens/daystreak/internal/models"
	"github.com/julianstephens/daystreak/internal/storage"
	"github.com/julianstephens/daystreak/internal/utils"
)

type Options struct {
	// CountEmptyDays makes a day with no eligible habits count as completed.
	CountEmptyDays bool
}

type Ledger struct {
	store storage.Provider
	clock clock.Clock
	opts  Options
	log   *log.Logger
}

// New creates a new Ledger
func New(store storage.Provider, clk clock.Clock, opts Options) *Ledger {
	return &Ledger{
		store: store,
		clock: clk,
		opts:  opts,
		log:   logger.Component("ledger"),
	}
}

// HabitInput carries the user-editable habit fields. Zero Points selects the
// default for the frequency.
type HabitInput struct {
	Name      string
	Icon      string
	Frequency models.Frequency
	Points    int
}

// ToggleResult is the outcome of Toggle. Changed is false when the habit was
// already in the requested state for that day.
type ToggleResult struct {
	Completion models.Completion
	Changed    bool
}

// DaySummary is one day of the weekly summary.
type DaySummary = models.DayProgress

func defaultPoints(f models.Frequency) int {
	if f == models.FrequencyWeekly {
		return constants.DefaultWeeklyPoints
	}
	return constants.DefaultDailyPoints
}

func (in *HabitInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return apperrors.Validation("habit name is required")
	}
	if in.Frequency == "" {
		in.Frequency = models.FrequencyDaily
	}
	if !in.Frequency.Valid() {
		return apperrors.Validation("frequency must be daily or weekly, got %q", in.Frequency)
	}
	if in.Points < 0 {
		return apperrors.Validation("points must be positive, got %d", in.Points)
	}
	if in.Points == 0 {
		in.Points = defaultPoints(in.Frequency)
	}
	return nil
}

// CreateHabit adds an active habit for userID that counts from today on.
func (l *Ledger) CreateHabit(ctx context.Context, userID string, in HabitInput) (models.Habit, error) {
	if err := in.normalize(); err != nil {
		return models.Habit{}, err
	}

	now := l.clock.Now().UTC()
	habit := models.Habit{
		ID:        uuid.New().String(),
		UserID:    userID,
		Name:      in.Name,
		Icon:      in.Icon,
		Frequency: in.Frequency,
		Points:    in.Points,
		IsActive:  true,
		StartDate: l.clock.Today(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := l.store.AddHabit(ctx, habit); err != nil {
		return models.Habit{}, apperrors.FromStore("add habit", "user", userID, err)
	}

	l.log.Debug("Habit created", "habit", habit.ID, "user", userID, "points", habit.Points)
	return habit, nil
}

// GetAll returns the user's active habits in creation order. On a store
// failure it returns an empty list along with the error.
func (l *Ledger) GetAll(ctx context.Context, userID string) ([]models.Habit, error) {
	habits, err := l.store.GetActiveHabits(ctx, userID)
	if err != nil {
		l.log.Warn("Failed to load habits", "user", userID, "error", err)
		return []models.Habit{}, apperrors.Store("get habits", err)
	}
	return habits, nil
}

// GetHabit loads a habit and checks that userID owns it.
func (l *Ledger) GetHabit(ctx context.Context, userID, habitID string) (models.Habit, error) {
	habit, err := l.store.GetHabit(ctx, habitID)
	if err != nil {
		return models.Habit{}, apperrors.FromStore("get habit", "habit", habitID, err)
	}
	if habit.UserID != userID {
		return models.Habit{}, apperrors.NotFound("habit", habitID)
	}
	return habit, nil
}

// UpdateHabit changes the name, icon or frequency. Points are fixed at
// creation; a non-zero Points that differs from the stored value is a
// validation error.
func (l *Ledger) UpdateHabit(ctx context.Context, userID, habitID string, in HabitInput) (models.Habit, error) {
	habit, err := l.GetHabit(ctx, userID, habitID)
	if err != nil {
		return models.Habit{}, err
	}
	if !habit.IsActive {
		return models.Habit{}, apperrors.NotFound("habit", habitID)
	}
	if in.Points != 0 && in.Points != habit.Points {
		return models.Habit{}, apperrors.Validation("points cannot be changed after a habit is created")
	}

	if in.Name == "" {
		in.Name = habit.Name
	}
	if in.Frequency == "" {
		in.Frequency = habit.Frequency
	}
	in.Points = habit.Points
	if err := in.normalize(); err != nil {
		return models.Habit{}, err
	}

	habit.Name = in.Name
	habit.Frequency = in.Frequency
	if in.Icon != "" {
		habit.Icon = in.Icon
	}
	habit.UpdatedAt = l.clock.Now().UTC()
	if err := l.store.UpdateHabit(ctx, habit); err != nil {
		return models.Habit{}, apperrors.FromStore("update habit", "habit", habitID, err)
	}
	return habit, nil
}

// DeleteHabit clears the active flag. Completions are kept.
func (l *Ledger) DeleteHabit(ctx context.Context, userID, habitID string) error {
	if _, err := l.GetHabit(ctx, userID, habitID); err != nil {
		return err
	}
	if err := l.store.DeleteHabit(ctx, habitID); err != nil {
		return apperrors.FromStore("delete habit", "habit", habitID, err)
	}
	l.log.Debug("Habit deleted", "habit", habitID, "user", userID)
	return nil
}

// SetHabitStreak stores the per-habit streak counter.
func (l *Ledger) SetHabitStreak(ctx context.Context, habitID string, streak int) error {
	if streak < 0 {
		streak = 0
	}
	if err := l.store.SetHabitStreak(ctx, habitID, streak); err != nil {
		return apperrors.FromStore("set habit streak", "habit", habitID, err)
	}
	return nil
}

// Toggle records whether the habit was done on day. The row for (habit, day)
// is inserted on first use and flipped afterwards; both directions are
// allowed. Days after the clock's today are rejected.
func (l *Ledger) Toggle(ctx context.Context, userID, habitID, day string, completed bool) (ToggleResult, error) {
	if err := utils.ValidateDate(day); err != nil {
		return ToggleResult{}, apperrors.Validation("%v", err)
	}
	if today := l.clock.Today(); day > today {
		return ToggleResult{}, apperrors.Validation("%s is in the future (today is %s)", day, today)
	}
	habit, err := l.GetHabit(ctx, userID, habitID)
	if err != nil {
		return ToggleResult{}, err
	}
	if !habit.IsActive {
		return ToggleResult{}, apperrors.Validation("habit %q has been deleted", habit.Name)
	}

	// Un-completing a day that was never recorded still writes the row but
	// is not a state change.
	existed := true
	if !completed {
		if _, err := l.store.GetCompletion(ctx, habitID, day); err != nil {
			if !errors.Is(err, storage.ErrNotFound) {
				return ToggleResult{}, apperrors.Store("get completion", err)
			}
			existed = false
		}
	}

	c := models.Completion{
		ID:        uuid.New().String(),
		HabitID:   habitID,
		UserID:    userID,
		Date:      day,
		Completed: completed,
		CreatedAt: l.clock.Now().UTC(),
	}
	changed, err := l.store.UpsertCompletion(ctx, c)
	if err != nil {
		return ToggleResult{}, apperrors.Store("upsert completion", err)
	}

	stored, err := l.store.GetCompletion(ctx, habitID, day)
	if err != nil {
		return ToggleResult{}, apperrors.Store("get completion", err)
	}

	l.log.Debug("Completion toggled", "habit", habitID, "day", day, "completed", completed, "changed", changed && existed)
	return ToggleResult{Completion: stored, Changed: changed && existed}, nil
}

// GetByDate returns the user's completion rows for day.
func (l *Ledger) GetByDate(ctx context.Context, userID, day string) ([]models.Completion, error) {
	if err := utils.ValidateDate(day); err != nil {
		return []models.Completion{}, apperrors.Validation("%v", err)
	}
	completions, err := l.store.GetCompletionsForDay(ctx, userID, day)
	if err != nil {
		l.log.Warn("Failed to load completions", "user", userID, "day", day, "error", err)
		return []models.Completion{}, apperrors.Store("get completions", err)
	}
	return completions, nil
}

// GetLast7Days returns completion rows from six days ago through today.
func (l *Ledger) GetLast7Days(ctx context.Context, userID string) ([]models.Completion, error) {
	today := l.clock.Today()
	start, err := utils.AddDays(today, -(constants.RecentDays - 1))
	if err != nil {
		return []models.Completion{}, err
	}
	completions, err := l.store.GetCompletionsInRange(ctx, userID, start, today)
	if err != nil {
		l.log.Warn("Failed to load recent completions", "user", userID, "error", err)
		return []models.Completion{}, apperrors.Store("get completions", err)
	}
	return completions, nil
}

// AllHabitsCompletedOnDate reports whether every habit that was active and
// started on or before day has a completed row for day. Days without any
// such habit follow Options.CountEmptyDays.
func (l *Ledger) AllHabitsCompletedOnDate(ctx context.Context, userID, day string) (bool, error) {
	progress, err := l.store.GetDayProgress(ctx, userID, day)
	if err != nil {
		return false, apperrors.Store("get day progress", err)
	}
	if progress.Total == 0 {
		return l.opts.CountEmptyDays, nil
	}
	return progress.AllDone(), nil
}

// CheckAllCompletedToday is AllHabitsCompletedOnDate for the clock's today.
func (l *Ledger) CheckAllCompletedToday(ctx context.Context, userID string) (bool, error) {
	return l.AllHabitsCompletedOnDate(ctx, userID, l.clock.Today())
}

// WeeklySummary returns per-day progress for the last seven days, oldest first.
func (l *Ledger) WeeklySummary(ctx context.Context, userID string) ([]DaySummary, error) {
	today := l.clock.Today()
	start, err := utils.AddDays(today, -(constants.RecentDays - 1))
	if err != nil {
		return nil, err
	}
	days, err := utils.DateRange(start, today)
	if err != nil {
		return nil, err
	}

	summary := make([]DaySummary, 0, len(days))
	for _, day := range days {
		progress, err := l.store.GetDayProgress(ctx, userID, day)
		if err != nil {
			return nil, apperrors.Store("get day progress", err)
		}
		summary = append(summary, progress)
	}
	return summary, nil
}

// HabitStreak counts the consecutive completed days for habitID ending at
// day. If day itself is not completed the count ends at the day before, so
// a streak stays visible until the day is over.
func (l *Ledger) HabitStreak(ctx context.Context, habitID, day string) (int, error) {
	days, err := l.store.GetCompletedDays(ctx, habitID, day)
	if err != nil {
		return 0, apperrors.Store("get completed days", err)
	}
	if len(days) == 0 {
		return 0, nil
	}

	expected := day
	if days[0] != day {
		if expected, err = utils.AddDays(day, -1); err != nil {
			return 0, err
		}
	}

	streak := 0
	for _, d := range days {
		if d != expected {
			break
		}
		streak++
		if expected, err = utils.AddDays(expected, -1); err != nil {
			return 0, err
		}
	}
	return streak, nil
}

