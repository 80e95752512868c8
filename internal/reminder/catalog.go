package reminder

import (
	"sort"

	apperrors "github.com/julianstephens/daystreak/internal/errors"
)

type Type string

const (
	Streak18h Type = "streak_18h"
	Streak21h Type = "streak_21h"
	Streak23h Type = "streak_23h"
	Daily     Type = "daily"
)

// Message is the content of one reminder type.
type Message struct {
	Type     Type   `json:"type"`
	Title    string `json:"title"`
	Body     string `json:"body"`
	Channel  string `json:"channel"`
	Priority string `json:"priority"`
}

var catalog = map[Type]Message{
	Streak18h: {
		Type:     Streak18h,
		Title:    "🔥 Don't forget your streak!",
		Body:     "There's still time to keep your streak alive today. Let's go!",
		Channel:  "streak",
		Priority: "high",
	},
	Streak21h: {
		Type:     Streak21h,
		Title:    "⚠️ Last call for your streak!",
		Body:     "Only 3 hours left! Finish your habits before midnight!",
		Channel:  "streak",
		Priority: "high",
	},
	Streak23h: {
		Type:     Streak23h,
		Title:    "🚨 Last chance! Your streak is about to reset!",
		Body:     "Less than 60 minutes left! Don't lose your streak now!",
		Channel:  "streak",
		Priority: "high",
	},
	Daily: {
		Type:     Daily,
		Title:    "🎯 Habit time!",
		Body:     "Don't forget to complete your habits today!",
		Channel:  "habits",
		Priority: "high",
	},
}

// Lookup returns the message for a reminder type name.
func Lookup(name string) (Message, error) {
	m, ok := catalog[Type(name)]
	if !ok {
		return Message{}, apperrors.Validation("invalid reminder type %q", name)
	}
	return m, nil
}

// Types lists the known reminder types in name order.
func Types() []Type {
	types := make([]Type, 0, len(catalog))
	for t := range catalog {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// StreakOnly reports whether the reminder only goes to users who have not
// finished the day yet.
func (t Type) StreakOnly() bool {
	return t == Streak18h || t == Streak21h || t == Streak23h
}
