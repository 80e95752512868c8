// Package events publishes gamification outcomes (level-ups, milestones,
// unlocks, partnership progress) to whoever is listening.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/julianstephens/daystreak/internal/logger"
)

type Type string

const (
	HabitCompleted       Type = "habit_completed"
	HabitUncompleted     Type = "habit_uncompleted"
	LevelUp              Type = "level_up"
	StreakExtended       Type = "streak_extended"
	StreakBroken         Type = "streak_broken"
	StreakMilestone      Type = "streak_milestone"
	AchievementUnlocked  Type = "achievement_unlocked"
	PartnershipCounted   Type = "partnership_counted"
	PartnershipCompleted Type = "partnership_completed"
	ReminderSent         Type = "reminder_sent"
)

// Event is a single gamification outcome for one user.
type Event struct {
	Type   Type                   `json:"type"`
	UserID string                 `json:"user_id"`
	Time   time.Time              `json:"time"`
	Data   map[string]interface{} `json:"data,omitempty"`
}

// New creates a new Event stamped with at.
func New(t Type, userID string, at time.Time, data map[string]interface{}) Event {
	return Event{Type: t, UserID: userID, Time: at.UTC(), Data: data}
}

// Publisher delivers events. Publish must not block on slow consumers for
// longer than the context allows.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// LogPublisher writes events to the application log.
type LogPublisher struct {
	log *log.Logger
}

func NewLogPublisher() *LogPublisher {
	return &LogPublisher{log: logger.Component("events")}
}

func (p *LogPublisher) Publish(_ context.Context, e Event) error {
	kv := []interface{}{"type", e.Type, "user", e.UserID}
	for k, v := range e.Data {
		kv = append(kv, k, v)
	}
	p.log.Info("Event", kv...)
	return nil
}

func (p *LogPublisher) Close() error { return nil }

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }

// Recorder keeps published events in memory.
//
// Thread-safety: all methods are safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *Recorder) Close() error { return nil }

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// OfType returns the recorded events of type t in publish order.
func (r *Recorder) OfType(t Type) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
