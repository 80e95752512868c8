package habits

import (
	"fmt"
	"strings"

	"github.com/julianstephens/daystreak/internal/cli"
	"github.com/julianstephens/daystreak/internal/ledger"
	"github.com/julianstephens/daystreak/internal/models"
)

type HabitCmd struct {
	Add    HabitAddCmd    `cmd:"" help:"Add a new habit."`
	List   HabitListCmd   `cmd:"" help:"List active habits."`
	Edit   HabitEditCmd   `cmd:"" help:"Rename a habit or change its icon or frequency."`
	Delete HabitDeleteCmd `cmd:"" help:"Delete a habit (its history is kept)."`
}

type HabitAddCmd struct {
	Name      string `arg:"" help:"Habit name."`
	Icon      string `help:"Emoji shown next to the habit." default:"✅"`
	Frequency string `help:"daily or weekly." default:"daily" enum:"daily,weekly"`
	Points    int    `help:"XP awarded per completion (default: 10 daily, 30 weekly)."`
}

func (c *HabitAddCmd) Run(ctx *cli.Context) error {
	userID, err := ctx.UserID()
	if err != nil {
		return err
	}

	habit, err := ctx.Tracker().Ledger().CreateHabit(ctx.Context(), userID, ledger.HabitInput{
		Name:      c.Name,
		Icon:      c.Icon,
		Frequency: models.Frequency(strings.ToLower(c.Frequency)),
		Points:    c.Points,
	})
	if err != nil {
		return err
	}

	ctx.Printf("Added habit: %s %s (%d XP, %s)\n", habit.Icon, habit.Name, habit.Points, habit.Frequency)
	return nil
}

type HabitListCmd struct {
	IDs bool `help:"Show habit ids."`
}

func (c *HabitListCmd) Run(ctx *cli.Context) error {
	userID, err := ctx.UserID()
	if err != nil {
		return err
	}

	habits, err := ctx.Tracker().Ledger().GetAll(ctx.Context(), userID)
	if err != nil {
		return err
	}
	if len(habits) == 0 {
		ctx.Println("No habits found. Add one with 'daystreak habit add <name>'.")
		return nil
	}

	for _, h := range habits {
		line := fmt.Sprintf("%s %-24s %3d XP  %-6s  🔥 %d", h.Icon, h.Name, h.Points, h.Frequency, h.Streak)
		if c.IDs {
			line += "  " + cli.MutedStyle.Render(h.ID)
		}
		ctx.Println(line)
	}
	return nil
}

type HabitEditCmd struct {
	Habit     string `arg:"" help:"Habit name or id."`
	Name      string `help:"New name."`
	Icon      string `help:"New icon."`
	Frequency string `help:"New frequency (daily or weekly)."`
}

func (c *HabitEditCmd) Run(ctx *cli.Context) error {
	userID, err := ctx.UserID()
	if err != nil {
		return err
	}
	habit, err := ctx.ResolveHabit(userID, c.Habit)
	if err != nil {
		return err
	}

	updated, err := ctx.Tracker().Ledger().UpdateHabit(ctx.Context(), userID, habit.ID, ledger.HabitInput{
		Name:      c.Name,
		Icon:      c.Icon,
		Frequency: models.Frequency(strings.ToLower(c.Frequency)),
	})
	if err != nil {
		return err
	}

	ctx.Printf("Updated habit: %s %s (%s)\n", updated.Icon, updated.Name, updated.Frequency)
	return nil
}

type HabitDeleteCmd struct {
	Habit string `arg:"" help:"Habit name or id."`
}

func (c *HabitDeleteCmd) Run(ctx *cli.Context) error {
	userID, err := ctx.UserID()
	if err != nil {
		return err
	}
	habit, err := ctx.ResolveHabit(userID, c.Habit)
	if err != nil {
		return err
	}

	ctx.PerformAutomaticBackup()

	if err := ctx.Tracker().Ledger().DeleteHabit(ctx.Context(), userID, habit.ID); err != nil {
		return err
	}
	ctx.Printf("Deleted habit: %s\n", habit.Name)
	return nil
}
