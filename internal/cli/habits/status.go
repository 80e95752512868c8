package habits

import (
	"time"

	"github.com/julianstephens/daystreak/internal/cli"
	"github.com/julianstephens/daystreak/internal/utils"
)

const barWidth = 20

// StatusCmd shows which habits are done on a day.
type StatusCmd struct {
	Date string `help:"Date in YYYY-MM-DD format (default: today)."`
}

func (c *StatusCmd) Run(ctx *cli.Context) error {
	userID, err := ctx.UserID()
	if err != nil {
		return err
	}
	tr := ctx.Tracker()

	day := c.Date
	if day == "" {
		day = tr.Clock().Today()
	}
	if err := utils.ValidateDate(day); err != nil {
		return err
	}

	habits, err := tr.Ledger().GetAll(ctx.Context(), userID)
	if err != nil {
		return err
	}
	completions, err := tr.Ledger().GetByDate(ctx.Context(), userID, day)
	if err != nil {
		return err
	}
	done := make(map[string]bool, len(completions))
	for _, comp := range completions {
		done[comp.HabitID] = comp.Completed
	}

	ctx.Println(cli.TitleStyle.Render("Habits for " + day))
	if len(habits) == 0 {
		ctx.Println("No habits yet. Add one with 'daystreak habit add <name>'.")
		return nil
	}

	finished, eligible := 0, 0
	for _, h := range habits {
		if h.StartDate > day {
			continue
		}
		eligible++
		if done[h.ID] {
			finished++
		}
		ctx.Printf("  %s %s %s\n", cli.Check(done[h.ID]), h.Icon, h.Name)
	}
	ctx.Printf("\n  %s\n", cli.ProgressBar(finished, eligible, barWidth))

	all, err := tr.Ledger().AllHabitsCompletedOnDate(ctx.Context(), userID, day)
	if err != nil {
		return err
	}
	if all {
		ctx.Println(cli.SuccessStyle.Render("  All habits done. Streak is safe! 🔥"))
	}
	return nil
}

// WeekCmd shows per-day progress for the last seven days.
type WeekCmd struct{}

func (c *WeekCmd) Run(ctx *cli.Context) error {
	userID, err := ctx.UserID()
	if err != nil {
		return err
	}

	summary, err := ctx.Tracker().Ledger().WeeklySummary(ctx.Context(), userID)
	if err != nil {
		return err
	}

	ctx.Println(cli.TitleStyle.Render("Last 7 days"))
	for _, d := range summary {
		label := d.Day
		if t, err := time.Parse(time.DateOnly, d.Day); err == nil {
			label = t.Format("Mon 01-02")
		}
		ctx.Printf("  %s  %s %s\n", label, cli.ProgressBar(d.Completed, d.Total, barWidth), cli.Check(d.AllDone()))
	}
	return nil
}
