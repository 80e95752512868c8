package system

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/julianstephens/daystreak/internal/cli"
	"github.com/julianstephens/daystreak/internal/config"
	"github.com/julianstephens/daystreak/internal/models"
	"github.com/julianstephens/daystreak/internal/storage"
	"github.com/julianstephens/daystreak/internal/storage/postgres"
	"github.com/julianstephens/daystreak/internal/storage/sqlite"
	"github.com/julianstephens/daystreak/internal/utils"
)

// firstDay and lastDay bound completion range queries when copying a database.
const (
	firstDay = "0001-01-01"
	lastDay  = "9999-12-31"
)

type InitCmd struct {
	Force  bool   `help:"Force reset by deleting existing database before initialization."`
	Source string `help:"Source database path or connection string to copy data from."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	// If force flag is provided, delete existing database
	if c.Force {
		if _, ok := ctx.Store.(*sqlite.Store); !ok {
			return fmt.Errorf("--force is only supported for SQLite databases")
		}
		dbPath := ctx.Store.GetConfigPath()
		// Don't delete if it's the source (user error protection)
		if c.Source != "" {
			absDbPath, err := filepath.Abs(dbPath)
			if err == nil {
				dbPath = absDbPath
			}
			absSource, err := filepath.Abs(c.Source)
			if err == nil && absSource == dbPath {
				return fmt.Errorf("cannot use --force when source and destination are the same: %s", dbPath)
			}
		}
		if _, err := os.Stat(dbPath); err == nil {
			// Close first to release the file
			if err := ctx.Store.Close(); err != nil {
				return fmt.Errorf("failed to close existing database: %w", err)
			}
			if err := os.Remove(dbPath); err != nil {
				return fmt.Errorf("failed to delete existing database: %w", err)
			}
			ctx.Printf("Deleted existing database at: %s\n", dbPath)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to access existing database: %w", err)
		}
	}

	if err := ctx.Store.Init(ctx.Context()); err != nil {
		return err
	}
	ctx.Printf("Initialized daystreak storage at: %s\n", ctx.Store.GetConfigPath())

	if ctx.Config != nil && ctx.ConfigPath != "" {
		path, err := utils.ExpandHome(ctx.ConfigPath)
		if err != nil {
			return err
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := ctx.SaveConfig(); err != nil {
				return fmt.Errorf("failed to write config file: %w", err)
			}
			ctx.Printf("Wrote default config to: %s\n", ctx.ConfigPath)
		}
	}

	if c.Source != "" {
		ctx.Printf("Copying data from: %s\n", c.Source)
		if err := c.copyFrom(ctx, c.Source); err != nil {
			return fmt.Errorf("copy failed: %w", err)
		}
		ctx.Println("Copy completed successfully!")
	}

	return nil
}

func (c *InitCmd) copyFrom(ctx *cli.Context, source string) error {
	var src storage.Provider
	if config.IsPostgres(source) {
		if valid, err := postgres.ValidateConnString(source); !valid {
			if errors.Is(err, postgres.ErrEmbeddedCredentials) {
				return fmt.Errorf("PostgreSQL source connection string contains embedded credentials. Use environment variables or .pgpass instead")
			}
			return err
		}
		src = postgres.New(source)
	} else {
		src = sqlite.NewStore(source)
	}

	if err := src.Load(ctx.Context()); err != nil {
		return fmt.Errorf("failed to load source database: %w", err)
	}
	defer src.Close()

	counts, err := CopyData(ctx.Context(), src, ctx.Store)
	if err != nil {
		return err
	}
	ctx.Printf("  Copied %d profiles, %d habits, %d completions, %d achievements, %d friendships, %d partnerships\n",
		counts.Profiles, counts.Habits, counts.Completions, counts.Achievements, counts.Friendships, counts.Partnerships)
	return nil
}

// CopyCounts reports how many rows CopyData wrote.
type CopyCounts struct {
	Profiles     int
	Habits       int
	Completions  int
	Achievements int
	Friendships  int
	Partnerships int
}

// CopyData copies every user and their rows from src into an empty dst.
// Deleted habits are not copied.
func CopyData(ctx context.Context, src, dst storage.Provider) (CopyCounts, error) {
	var counts CopyCounts

	ids, err := src.GetAllProfileIDs(ctx)
	if err != nil {
		return counts, fmt.Errorf("failed to list profiles: %w", err)
	}

	// Profiles first so every foreign key resolves
	for _, id := range ids {
		p, err := src.GetProfile(ctx, id)
		if err != nil {
			return counts, fmt.Errorf("failed to get profile %s: %w", id, err)
		}
		if err := dst.AddProfile(ctx, p); err != nil {
			return counts, fmt.Errorf("failed to add profile %s: %w", id, err)
		}
		stats, err := src.GetUserStats(ctx, id)
		if err != nil {
			return counts, fmt.Errorf("failed to get stats for %s: %w", id, err)
		}
		if err := dst.AddUserStats(ctx, stats); err != nil {
			return counts, fmt.Errorf("failed to add stats for %s: %w", id, err)
		}
		counts.Profiles++
	}

	friendships := map[string]bool{}
	partnerships := map[string]bool{}
	for _, id := range ids {
		habits, err := src.GetActiveHabits(ctx, id)
		if err != nil {
			return counts, fmt.Errorf("failed to get habits for %s: %w", id, err)
		}
		active := make(map[string]bool, len(habits))
		for _, h := range habits {
			if err := dst.AddHabit(ctx, h); err != nil {
				return counts, fmt.Errorf("failed to add habit %s: %w", h.ID, err)
			}
			active[h.ID] = true
			counts.Habits++
		}

		completions, err := src.GetCompletionsInRange(ctx, id, firstDay, lastDay)
		if err != nil {
			return counts, fmt.Errorf("failed to get completions for %s: %w", id, err)
		}
		for _, comp := range completions {
			if !active[comp.HabitID] {
				continue
			}
			if _, err := dst.UpsertCompletion(ctx, comp); err != nil {
				return counts, fmt.Errorf("failed to add completion %s: %w", comp.ID, err)
			}
			counts.Completions++
		}

		achievements, err := src.GetAchievements(ctx, id)
		if err != nil {
			return counts, fmt.Errorf("failed to get achievements for %s: %w", id, err)
		}
		for _, a := range achievements {
			if _, err := dst.AddAchievement(ctx, a); err != nil {
				return counts, fmt.Errorf("failed to add achievement %s: %w", a.ID, err)
			}
			counts.Achievements++
		}

		for _, status := range []models.FriendshipStatus{models.FriendshipPending, models.FriendshipAccepted} {
			fs, err := src.GetFriendships(ctx, id, status)
			if err != nil {
				return counts, fmt.Errorf("failed to get friendships for %s: %w", id, err)
			}
			for _, f := range fs {
				if friendships[f.ID] {
					continue
				}
				friendships[f.ID] = true
				if err := dst.AddFriendship(ctx, f); err != nil {
					return counts, fmt.Errorf("failed to add friendship %s: %w", f.ID, err)
				}
				counts.Friendships++
			}
		}

		ps, err := src.GetPartnershipsForUser(ctx, id)
		if err != nil {
			return counts, fmt.Errorf("failed to get partnerships for %s: %w", id, err)
		}
		for _, p := range ps {
			if partnerships[p.ID] {
				continue
			}
			partnerships[p.ID] = true
			if err := dst.AddPartnership(ctx, p); err != nil {
				return counts, fmt.Errorf("failed to add partnership %s: %w", p.ID, err)
			}
			counts.Partnerships++
		}
	}

	return counts, nil
}
