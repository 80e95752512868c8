// Package clock supplies the current instant and the user's logical
// calendar day. Streak logic only ever looks at Today.
package clock

import (
	"sync"
	"time"

	"github.com/julianstephens/daystreak/internal/utils"
)

type Clock interface {
	Now() time.Time
	// Today is the current calendar day (YYYY-MM-DD) in the clock's location.
	Today() string
	Location() *time.Location
}

// System reads the wall clock in a fixed location.
type System struct {
	loc *time.Location
}

// NewSystem returns a wall clock for the named IANA timezone ("" or "Local"
// for the host zone).
func NewSystem(timezone string) (*System, error) {
	loc, err := utils.LoadLocation(timezone)
	if err != nil {
		return nil, err
	}
	return &System{loc: loc}, nil
}

func (c *System) Now() time.Time {
	return time.Now().In(c.loc)
}

func (c *System) Today() string {
	return utils.DayOf(time.Now(), c.loc)
}

func (c *System) Location() *time.Location {
	return c.loc
}

// Fixed is a settable clock for tests and replays.
//
// Thread-safety: all methods are safe for concurrent use.
type Fixed struct {
	mu  sync.Mutex
	now time.Time
}

func NewFixed(now time.Time) *Fixed {
	return &Fixed{now: now}
}

// NewFixedDay returns a clock pinned to noon UTC on day.
func NewFixedDay(day string) *Fixed {
	t, err := utils.ParseDateInLocation(day, time.UTC)
	if err != nil {
		panic("clock: invalid day " + day)
	}
	return &Fixed{now: t.Add(12 * time.Hour)}
}

func (c *Fixed) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Fixed) Today() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return utils.DayOf(c.now, c.now.Location())
}

func (c *Fixed) Location() *time.Location {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now.Location()
}

func (c *Fixed) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// AdvanceDays moves the clock forward by n calendar days.
func (c *Fixed) AdvanceDays(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.AddDate(0, 0, n)
}
