package habits

import (
	"github.com/julianstephens/daystreak/internal/cli"
	"github.com/julianstephens/daystreak/internal/utils"
)

// DoneCmd marks a habit completed and runs the reward chain.
type DoneCmd struct {
	Habit string `arg:"" help:"Habit name or id."`
	Date  string `help:"Date in YYYY-MM-DD format (default: today)."`
}

func (c *DoneCmd) Run(ctx *cli.Context) error {
	userID, err := ctx.UserID()
	if err != nil {
		return err
	}
	if c.Date != "" {
		if err := utils.ValidateDate(c.Date); err != nil {
			return err
		}
	}
	habit, err := ctx.ResolveHabit(userID, c.Habit)
	if err != nil {
		return err
	}

	out, err := ctx.Tracker().CompleteHabit(ctx.Context(), userID, habit.ID, c.Date)
	if err != nil {
		return err
	}

	if !out.Changed {
		ctx.Printf("%s %s was already done on %s\n", habit.Icon, habit.Name, out.Completion.Date)
		return nil
	}
	ctx.Println(cli.SuccessStyle.Render("✓ " + habit.Icon + " " + habit.Name))
	ctx.PrintOutcome(out)
	return nil
}

// UndoCmd clears a completion and takes back its points.
type UndoCmd struct {
	Habit string `arg:"" help:"Habit name or id."`
	Date  string `help:"Date in YYYY-MM-DD format (default: today)."`
}

func (c *UndoCmd) Run(ctx *cli.Context) error {
	userID, err := ctx.UserID()
	if err != nil {
		return err
	}
	if c.Date != "" {
		if err := utils.ValidateDate(c.Date); err != nil {
			return err
		}
	}
	habit, err := ctx.ResolveHabit(userID, c.Habit)
	if err != nil {
		return err
	}

	out, err := ctx.Tracker().UncompleteHabit(ctx.Context(), userID, habit.ID, c.Date)
	if err != nil {
		return err
	}

	if !out.Changed {
		ctx.Printf("%s %s was not done on %s\n", habit.Icon, habit.Name, out.Completion.Date)
		return nil
	}
	ctx.Printf("Undid %s %s\n", habit.Icon, habit.Name)
	ctx.PrintOutcome(out)
	return nil
}
