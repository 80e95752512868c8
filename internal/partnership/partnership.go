// Package partnership runs streak partnerships: two friends share a streak
// that only advances on days both of them complete all their habits.
//
// Status moves pending -> active -> completed, or to cancelled from either
// open state. A day is counted at most once per partnership no matter how
// many times or from which side progress is checked.
package partnership

import (
	"context"
	"errors"

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

// DayChecker answers whether a user satisfied a day. The ledger implements it.
type DayChecker interface {
	AllHabitsCompletedOnDate(ctx context.Context, userID, day string) (bool, error)
}

// FriendChecker reports accepted friendships. The social service implements it.
type FriendChecker interface {
	AreFriends(ctx context.Context, userA, userB string) (bool, error)
}

type Outcome string

const (
	// OutcomeCounted: both partners finished today and this call counted it.
	OutcomeCounted Outcome = "counted"
	// OutcomeWaiting: at least one partner has not finished today.
	OutcomeWaiting Outcome = "waiting"
	// OutcomeAlreadyCounted: today was counted by an earlier call.
	OutcomeAlreadyCounted Outcome = "already_counted"
	// OutcomeTargetReached: this call counted today and completed the partnership.
	OutcomeTargetReached Outcome = "target_reached"
	// OutcomeInactive: the partnership is not active.
	OutcomeInactive Outcome = "inactive"
)

// ProgressResult is the outcome of CheckPartnershipProgress.
type ProgressResult struct {
	Outcome        Outcome                  `json:"outcome"`
	User1Completed bool                     `json:"user1_completed"`
	User2Completed bool                     `json:"user2_completed"`
	BothCompleted  bool                     `json:"both_completed"`
	CurrentStreak  int                      `json:"current_streak"`
	TargetDays     int                      `json:"target_days"`
	StreakReset    bool                     `json:"streak_reset"`
	Partnership    models.StreakPartnership `json:"partnership"`
}

// Counted reports whether this call advanced the shared streak.
func (r ProgressResult) Counted() bool {
	return r.Outcome == OutcomeCounted || r.Outcome == OutcomeTargetReached
}

// View is a partnership as seen by one of its members.
type View struct {
	Partnership models.StreakPartnership `json:"partnership"`
	PartnerID   string                   `json:"partner_id"`
	IsUser1     bool                     `json:"is_user1"`
	Partner     *models.PublicProfile    `json:"partner,omitempty"`
}

type Engine struct {
	store   storage.Provider
	days    DayChecker
	friends FriendChecker
	clock   clock.Clock
	log     *log.Logger
}

// New creates a new Engine
func New(store storage.Provider, days DayChecker, friends FriendChecker, clk clock.Clock) *Engine {
	return &Engine{
		store:   store,
		days:    days,
		friends: friends,
		clock:   clk,
		log:     logger.Component("partnership"),
	}
}

// CreateInvite creates a pending partnership from userID to friendID.
func (e *Engine) CreateInvite(ctx context.Context, userID, friendID string, targetDays int) (models.StreakPartnership, error) {
	if targetDays < constants.MinPartnershipTargetDays || targetDays > constants.MaxPartnershipTargetDays {
		return models.StreakPartnership{}, apperrors.Validation("target days must be between %d and %d",
			constants.MinPartnershipTargetDays, constants.MaxPartnershipTargetDays)
	}
	if userID == friendID {
		return models.StreakPartnership{}, apperrors.Validation("you cannot partner with yourself")
	}

	friends, err := e.friends.AreFriends(ctx, userID, friendID)
	if err != nil {
		return models.StreakPartnership{}, err
	}
	if !friends {
		return models.StreakPartnership{}, apperrors.Validation("you can only invite friends to a streak partnership")
	}

	_, err = e.store.GetOpenPartnershipBetween(ctx, userID, friendID)
	if err == nil {
		return models.StreakPartnership{}, apperrors.Validation("you already have an open partnership with this friend")
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return models.StreakPartnership{}, apperrors.Store("get open partnership", err)
	}

	now := e.clock.Now().UTC()
	p := models.StreakPartnership{
		ID:              uuid.New().String(),
		User1ID:         userID,
		User2ID:         friendID,
		Status:          models.PartnershipPending,
		TargetDays:      targetDays,
		ReminderEnabled: true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := e.store.AddPartnership(ctx, p); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return models.StreakPartnership{}, apperrors.Validation("you already have an open partnership with this friend")
		}
		return models.StreakPartnership{}, apperrors.Store("add partnership", err)
	}

	e.log.Info("Partnership invite created", "partnership", p.ID, "from", userID, "to", friendID, "target", targetDays)
	return p, nil
}

// Get returns a partnership userID belongs to.
func (e *Engine) Get(ctx context.Context, id, userID string) (models.StreakPartnership, error) {
	p, err := e.store.GetPartnership(ctx, id)
	if err != nil {
		return models.StreakPartnership{}, apperrors.FromStore("get partnership", "partnership", id, err)
	}
	if !p.Involves(userID) {
		return models.StreakPartnership{}, apperrors.NotFound("partnership", id)
	}
	return p, nil
}

// transition applies change under the row version. change returns false when
// its precondition does not hold, which ends the attempt without writing.
func (e *Engine) transition(ctx context.Context, id string, change func(*models.StreakPartnership) bool) (bool, error) {
	for attempt := 0; attempt < constants.MaxConflictRetries; attempt++ {
		p, err := e.store.GetPartnership(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, apperrors.Store("get partnership", err)
		}

		if !change(&p) {
			return false, nil
		}
		err = e.store.UpdatePartnership(ctx, p)
		if err == nil {
			return true, nil
		}
		if !errors.Is(err, storage.ErrConflict) {
			return false, apperrors.FromStore("update partnership", "partnership", id, err)
		}
	}
	return false, apperrors.Conflict("partnership", id)
}

// AcceptInvite activates a pending partnership. Only the invitee may accept.
// It returns false without error when the preconditions do not hold.
func (e *Engine) AcceptInvite(ctx context.Context, id, userID string) (bool, error) {
	today := e.clock.Today()
	ok, err := e.transition(ctx, id, func(p *models.StreakPartnership) bool {
		if p.Status != models.PartnershipPending || p.User2ID != userID {
			return false
		}
		p.Status = models.PartnershipActive
		p.StartDate = today
		return true
	})
	if ok {
		e.log.Info("Partnership accepted", "partnership", id, "user", userID)
	}
	return ok, err
}

// CancelPartnership cancels an open partnership on behalf of either member.
func (e *Engine) CancelPartnership(ctx context.Context, id, userID string) (bool, error) {
	today := e.clock.Today()
	ok, err := e.transition(ctx, id, func(p *models.StreakPartnership) bool {
		if !p.Involves(userID) || p.Status.Terminal() {
			return false
		}
		p.Status = models.PartnershipCancelled
		p.EndDate = today
		return true
	})
	if ok {
		e.log.Info("Partnership cancelled", "partnership", id, "user", userID)
	}
	return ok, err
}

// UpdateReminderSettings sets the reminder flag for either member.
func (e *Engine) UpdateReminderSettings(ctx context.Context, id, userID string, enabled bool) (bool, error) {
	return e.transition(ctx, id, func(p *models.StreakPartnership) bool {
		if !p.Involves(userID) || p.Status.Terminal() {
			return false
		}
		p.ReminderEnabled = enabled
		return true
	})
}

// CheckPartnershipProgress counts today for the partnership if both members
// have completed all their habits and today has not been counted yet. It is
// safe to call concurrently from both members.
func (e *Engine) CheckPartnershipProgress(ctx context.Context, id string) (ProgressResult, error) {
	today := e.clock.Today()
	yesterday, err := utils.AddDays(today, -1)
	if err != nil {
		return ProgressResult{}, err
	}

	for attempt := 0; attempt < constants.MaxConflictRetries; attempt++ {
		p, err := e.store.GetPartnership(ctx, id)
		if err != nil {
			return ProgressResult{}, apperrors.FromStore("get partnership", "partnership", id, err)
		}

		res := ProgressResult{
			CurrentStreak: p.CurrentStreak,
			TargetDays:    p.TargetDays,
			Partnership:   p,
		}
		if p.Status != models.PartnershipActive {
			res.Outcome = OutcomeInactive
			return res, nil
		}

		if res.User1Completed, err = e.days.AllHabitsCompletedOnDate(ctx, p.User1ID, today); err != nil {
			return ProgressResult{}, err
		}
		if res.User2Completed, err = e.days.AllHabitsCompletedOnDate(ctx, p.User2ID, today); err != nil {
			return ProgressResult{}, err
		}
		res.BothCompleted = res.User1Completed && res.User2Completed

		// A last activity date after today means the clock moved back
		if p.LastActivityDate >= today {
			res.Outcome = OutcomeAlreadyCounted
			return res, nil
		}
		if !res.BothCompleted {
			res.Outcome = OutcomeWaiting
			return res, nil
		}

		next := p
		if p.LastActivityDate == yesterday {
			next.CurrentStreak = p.CurrentStreak + 1
		} else {
			// A missed joint day restarts the shared streak
			next.CurrentStreak = 1
			res.StreakReset = p.CurrentStreak > 0
		}
		res.Outcome = OutcomeCounted
		if next.CurrentStreak >= next.TargetDays {
			next.CurrentStreak = next.TargetDays
			next.Status = models.PartnershipCompleted
			next.EndDate = today
			res.Outcome = OutcomeTargetReached
		}

		counted, err := e.store.RecordPartnershipDay(ctx, next, today)
		if err != nil {
			return ProgressResult{}, apperrors.Store("record partnership day", err)
		}
		if counted {
			next.LastActivityDate = today
			next.Version++
			res.CurrentStreak = next.CurrentStreak
			res.Partnership = next
			e.log.Info("Partnership day counted", "partnership", id, "streak", next.CurrentStreak, "outcome", res.Outcome)
			return res, nil
		}
		// Lost the race: the next read reports already_counted, inactive, or
		// retries after an unrelated write such as a reminder toggle.
		e.log.Debug("Partnership changed concurrently, re-reading", "partnership", id, "attempt", attempt+1)
	}
	return ProgressResult{}, apperrors.Conflict("partnership", id)
}

// CheckAllForUser runs CheckPartnershipProgress for each of the user's
// active partnerships.
func (e *Engine) CheckAllForUser(ctx context.Context, userID string) ([]ProgressResult, error) {
	active, err := e.store.GetPartnershipsForUser(ctx, userID, models.PartnershipActive)
	if err != nil {
		return nil, apperrors.Store("get partnerships", err)
	}

	results := make([]ProgressResult, 0, len(active))
	var errs []error
	for _, p := range active {
		res, err := e.CheckPartnershipProgress(ctx, p.ID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		results = append(results, res)
	}
	return results, errors.Join(errs...)
}

// GetUserPartnerships returns every partnership of userID, newest first,
// with the partner's public profile when it can be loaded.
func (e *Engine) GetUserPartnerships(ctx context.Context, userID string, statuses ...models.PartnershipStatus) ([]View, error) {
	partnerships, err := e.store.GetPartnershipsForUser(ctx, userID, statuses...)
	if err != nil {
		e.log.Warn("Failed to load partnerships", "user", userID, "error", err)
		return []View{}, apperrors.Store("get partnerships", err)
	}

	views := make([]View, 0, len(partnerships))
	for _, p := range partnerships {
		v := View{Partnership: p, PartnerID: p.PartnerOf(userID), IsUser1: p.User1ID == userID}
		if profile, err := e.store.GetProfile(ctx, v.PartnerID); err == nil {
			public := profile.Public()
			v.Partner = &public
		}
		views = append(views, v)
	}
	return views, nil
}

// PendingInvitesCount counts invites waiting for userID to accept.
func (e *Engine) PendingInvitesCount(ctx context.Context, userID string) (int, error) {
	pending, err := e.store.GetPartnershipsForUser(ctx, userID, models.PartnershipPending)
	if err != nil {
		return 0, apperrors.Store("get partnerships", err)
	}
	n := 0
	for _, p := range pending {
		if p.User2ID == userID {
			n++
		}
	}
	return n, nil
}
