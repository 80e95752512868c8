// Package reminder decides who still needs a nudge and delivers it.
package reminder

import (
	"context"
	"errors"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/julianstephens/daystreak/internal/clock"
	apperrors "github.com/julianstephens/daystreak/internal/errors"
	"github.com/julianstephens/daystreak/internal/events"
	"github.com/julianstephens/daystreak/internal/logger"
	"github.com/julianstephens/daystreak/internal/metrics"
	"github.com/julianstephens/daystreak/internal/notifier"
	"github.com/julianstephens/daystreak/internal/storage"
)

const defaultConcurrency = 8

// DayChecker answers whether a user satisfied a day. The ledger implements it.
type DayChecker interface {
	AllHabitsCompletedOnDate(ctx context.Context, userID, day string) (bool, error)
}

// Sender delivers one reminder to one user.
type Sender interface {
	Send(ctx context.Context, userID string, m Message) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, userID string, m Message) error

func (f SenderFunc) Send(ctx context.Context, userID string, m Message) error {
	return f(ctx, userID, m)
}

// TraySender shows reminders on this desktop. The desktop belongs to a single
// user, so the user id is only logged.
type TraySender struct {
	Notifier *notifier.Notifier
}

func (s TraySender) Send(ctx context.Context, _ string, m Message) error {
	return s.Notifier.Notify(ctx, notifier.Notification{Title: m.Title, Body: m.Body, Channel: m.Channel})
}

// EventSender hands reminders to an external push service as events.
type EventSender struct {
	Publisher events.Publisher
	Clock     clock.Clock
}

func (s EventSender) Send(ctx context.Context, userID string, m Message) error {
	return s.Publisher.Publish(ctx, events.New(events.ReminderSent, userID, s.Clock.Now(), map[string]interface{}{
		"reminder_type": string(m.Type),
		"title":         m.Title,
		"body":          m.Body,
		"channel":       m.Channel,
		"priority":      m.Priority,
	}))
}

// Report summarizes one dispatch.
type Report struct {
	Type     Type              `json:"type"`
	Targeted int               `json:"targeted"`
	Sent     int               `json:"sent"`
	Failed   int               `json:"failed"`
	Errors   map[string]string `json:"errors,omitempty"`
}

type Dispatcher struct {
	store       storage.Provider
	days        DayChecker
	sender      Sender
	clock       clock.Clock
	metrics     *metrics.Metrics
	concurrency int
	log         *log.Logger
}

// New creates a new Dispatcher. m may be nil.
func New(store storage.Provider, days DayChecker, sender Sender, clk clock.Clock, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{
		store:       store,
		days:        days,
		sender:      sender,
		clock:       clk,
		metrics:     m,
		concurrency: defaultConcurrency,
		log:         logger.Component("reminder"),
	}
}

// Pending returns the users among userIDs (every user when empty) that
// should get a reminder of type t. Streak reminders skip users whose day is
// already done; unknown ids are dropped.
func (d *Dispatcher) Pending(ctx context.Context, t Type, userIDs []string) ([]string, error) {
	candidates := userIDs
	if len(candidates) == 0 {
		all, err := d.store.GetAllProfileIDs(ctx)
		if err != nil {
			return nil, apperrors.Store("get profile ids", err)
		}
		candidates = all
	}

	today := d.clock.Today()
	keep := make([]bool, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)
	for i, id := range candidates {
		g.Go(func() error {
			if len(userIDs) > 0 {
				if _, err := d.store.GetProfile(gctx, id); err != nil {
					if errors.Is(err, storage.ErrNotFound) {
						return nil
					}
					return apperrors.Store("get profile", err)
				}
			}
			if !t.StreakOnly() {
				keep[i] = true
				return nil
			}
			done, err := d.days.AllHabitsCompletedOnDate(gctx, id, today)
			if err != nil {
				return err
			}
			keep[i] = !done
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	pending := make([]string, 0, len(candidates))
	for i, id := range candidates {
		if keep[i] {
			pending = append(pending, id)
		}
	}
	return pending, nil
}

// Dispatch sends reminder type name to every pending user. Delivery failures
// are counted in the report; only selection failures return an error.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, userIDs []string) (Report, error) {
	msg, err := Lookup(name)
	if err != nil {
		return Report{}, err
	}
	targets, err := d.Pending(ctx, msg.Type, userIDs)
	if err != nil {
		return Report{}, err
	}

	report := Report{Type: msg.Type, Targeted: len(targets)}
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(d.concurrency)
	for _, id := range targets {
		g.Go(func() error {
			err := d.sender.Send(ctx, id, msg)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failed++
				if report.Errors == nil {
					report.Errors = map[string]string{}
				}
				report.Errors[id] = err.Error()
				d.metrics.Reminder(string(msg.Type), "failed")
				d.log.Warn("Reminder delivery failed", "user", id, "type", msg.Type, "error", err)
				return nil
			}
			report.Sent++
			d.metrics.Reminder(string(msg.Type), "sent")
			return nil
		})
	}
	_ = g.Wait()

	d.log.Info("Reminders dispatched", "type", msg.Type, "targeted", report.Targeted, "sent", report.Sent, "failed", report.Failed)
	return report, nil
}
