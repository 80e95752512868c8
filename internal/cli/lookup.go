package cli

import (
	"strings"

	apperrors "github.com/julianstephens/daystreak/internal/errors"
	"github.com/julianstephens/daystreak/internal/models"
)

// ResolveHabit finds one of the user's active habits by id or by name,
// ignoring case.
func (c *Context) ResolveHabit(userID, ref string) (models.Habit, error) {
	habits, err := c.Tracker().Ledger().GetAll(c.Context(), userID)
	if err != nil {
		return models.Habit{}, err
	}
	for _, h := range habits {
		if h.ID == ref {
			return h, nil
		}
	}
	var match []models.Habit
	for _, h := range habits {
		if strings.EqualFold(h.Name, ref) {
			match = append(match, h)
		}
	}
	switch len(match) {
	case 0:
		return models.Habit{}, apperrors.NotFound("habit", ref)
	case 1:
		return match[0], nil
	default:
		return models.Habit{}, apperrors.Validation("%d habits are named %q, use the habit id", len(match), ref)
	}
}

// ResolveUser finds a profile by id or username.
func (c *Context) ResolveUser(ref string) (models.Profile, error) {
	ref = strings.TrimPrefix(strings.TrimSpace(ref), "@")
	if p, err := c.Store.GetProfileByUsername(c.Context(), ref); err == nil {
		return p, nil
	}
	return c.Tracker().Social().GetProfile(c.Context(), ref)
}
