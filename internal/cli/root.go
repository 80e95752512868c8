package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/julianstephens/daystreak/internal/clock"
	"github.com/julianstephens/daystreak/internal/config"
	apperrors "github.com/julianstephens/daystreak/internal/errors"
	"github.com/julianstephens/daystreak/internal/events"
	"github.com/julianstephens/daystreak/internal/logger"
	"github.com/julianstephens/daystreak/internal/metrics"
	"github.com/julianstephens/daystreak/internal/storage"
	"github.com/julianstephens/daystreak/internal/storage/sqlite"
	"github.com/julianstephens/daystreak/internal/tracker"
)

// ErrNoUser is returned by commands that act as the local user before one
// has been registered.
var ErrNoUser = errors.New("no local user, run 'daystreak user register <username>' first")

// Context is handed to every command's Run method.
type Context struct {
	Config     *config.Config
	ConfigPath string
	Store      storage.Provider
	Clock      clock.Clock
	Publisher  events.Publisher
	Metrics    *metrics.Metrics
	Reporter   apperrors.Reporter
	Out        io.Writer
	// Base is cancelled when the process is interrupted.
	Base context.Context

	tracker *tracker.Tracker
}

// Tracker returns the tracker over the context's store, creating it on first
// use.
func (c *Context) Tracker() *tracker.Tracker {
	if c.tracker == nil {
		countEmpty := false
		if c.Config != nil {
			countEmpty = c.Config.Streak.CountEmptyDays
		}
		c.tracker = tracker.New(c.Store, c.Clock, tracker.Options{
			CountEmptyDays: countEmpty,
			Publisher:      c.Publisher,
			Metrics:        c.Metrics,
			Reporter:       c.Reporter,
		})
	}
	return c.tracker
}

// UserID returns the profile the CLI acts as.
func (c *Context) UserID() (string, error) {
	if c.Config == nil || c.Config.UserID == "" {
		return "", ErrNoUser
	}
	return c.Config.UserID, nil
}

// SaveConfig writes the current configuration back to its file.
func (c *Context) SaveConfig() error {
	if c.Config == nil {
		return errors.New("no configuration loaded")
	}
	return c.Config.Save(c.ConfigPath)
}

// Context returns the context commands pass to the engines.
func (c *Context) Context() context.Context {
	if c.Base == nil {
		return context.Background()
	}
	return c.Base
}

func (c *Context) out() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

func (c *Context) Printf(format string, args ...interface{}) {
	fmt.Fprintf(c.out(), format, args...)
}

func (c *Context) Println(args ...interface{}) {
	fmt.Fprintln(c.out(), args...)
}

// PerformAutomaticBackup creates an automatic backup and silently handles errors
func (c *Context) PerformAutomaticBackup() {
	store, ok := c.Store.(*sqlite.Store)
	if !ok {
		return
	}
	if _, err := store.Backup(c.Context()); err != nil {
		// Log warning but don't interrupt user workflow
		logger.Warn("Automatic backup failed", "error", err)
	}
}
