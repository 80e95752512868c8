package system

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/julianstephens/daystreak/internal/cli"
	"github.com/julianstephens/daystreak/internal/storage"
	"github.com/julianstephens/daystreak/internal/utils"
)

type DebugCmd struct {
	DBPath          *DebugDBPathCmd          `cmd:"" help:"Show database path."`
	DumpUser        *DebugDumpUserCmd        `cmd:"" help:"Dump a user's profile, stats and streak as JSON."`
	DumpHabit       *DebugDumpHabitCmd       `cmd:"" help:"Dump habit data as JSON."`
	DumpDay         *DebugDumpDayCmd         `cmd:"" help:"Dump a user's completions for a day as JSON."`
	DumpPartnership *DebugDumpPartnershipCmd `cmd:"" help:"Dump partnership data as JSON."`
	DumpConfig      *DebugDumpConfigCmd      `cmd:"" help:"Dump the effective configuration as JSON."`
}

func printJSON(ctx *cli.Context, v interface{}) error {
	jsonBytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	ctx.Println(string(jsonBytes))
	return nil
}

func notFoundOr(err error, what, id string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%s not found: %s", what, id)
	}
	return fmt.Errorf("failed to get %s: %w", what, err)
}

type DebugDBPathCmd struct{}

func (cmd *DebugDBPathCmd) Run(ctx *cli.Context) error {
	return printJSON(ctx, map[string]string{
		"path": ctx.Store.GetConfigPath(),
	})
}

type DebugDumpUserCmd struct {
	ID string `arg:"" optional:"" help:"ID of the user to dump (default: the local user)."`
}

func (cmd *DebugDumpUserCmd) Run(ctx *cli.Context) error {
	id := cmd.ID
	if id == "" {
		var err error
		if id, err = ctx.UserID(); err != nil {
			return err
		}
	}

	profile, err := ctx.Store.GetProfile(ctx.Context(), id)
	if err != nil {
		return notFoundOr(err, "user", id)
	}
	stats, err := ctx.Store.GetUserStats(ctx.Context(), id)
	if err != nil {
		return notFoundOr(err, "stats", id)
	}
	streak, err := ctx.Store.GetStreakProfile(ctx.Context(), id)
	if err != nil {
		return notFoundOr(err, "streak profile", id)
	}

	return printJSON(ctx, map[string]interface{}{
		"profile": profile,
		"stats":   stats,
		"streak":  streak,
	})
}

type DebugDumpHabitCmd struct {
	ID string `arg:"" help:"ID of the habit to dump."`
}

func (cmd *DebugDumpHabitCmd) Run(ctx *cli.Context) error {
	habit, err := ctx.Store.GetHabit(ctx.Context(), cmd.ID)
	if err != nil {
		return notFoundOr(err, "habit", cmd.ID)
	}
	return printJSON(ctx, habit)
}

type DebugDumpDayCmd struct {
	Date string `arg:"" help:"Day to dump (YYYY-MM-DD or 'today')."`
}

func (cmd *DebugDumpDayCmd) Run(ctx *cli.Context) error {
	id, err := ctx.UserID()
	if err != nil {
		return err
	}

	day := cmd.Date
	if day == "today" {
		day = ctx.Clock.Today()
	}
	if err := utils.ValidateDate(day); err != nil {
		return fmt.Errorf("invalid date format: %s (expected YYYY-MM-DD or 'today')", day)
	}

	completions, err := ctx.Store.GetCompletionsForDay(ctx.Context(), id, day)
	if err != nil {
		return fmt.Errorf("failed to get completions: %w", err)
	}
	progress, err := ctx.Store.GetDayProgress(ctx.Context(), id, day)
	if err != nil {
		return fmt.Errorf("failed to get day progress: %w", err)
	}
	return printJSON(ctx, map[string]interface{}{
		"progress":    progress,
		"completions": completions,
	})
}

type DebugDumpPartnershipCmd struct {
	ID string `arg:"" help:"ID of the partnership to dump."`
}

func (cmd *DebugDumpPartnershipCmd) Run(ctx *cli.Context) error {
	p, err := ctx.Store.GetPartnership(ctx.Context(), cmd.ID)
	if err != nil {
		return notFoundOr(err, "partnership", cmd.ID)
	}
	return printJSON(ctx, p)
}

type DebugDumpConfigCmd struct{}

func (cmd *DebugDumpConfigCmd) Run(ctx *cli.Context) error {
	if ctx.Config == nil {
		return errors.New("no configuration loaded")
	}
	return printJSON(ctx, ctx.Config)
}
