package progress

import (
	"fmt"

	"github.com/julianstephens/daystreak/internal/cli"
)

// StatsCmd shows level, XP and totals.
type StatsCmd struct{}

func (c *StatsCmd) Run(ctx *cli.Context) error {
	userID, err := ctx.UserID()
	if err != nil {
		return err
	}
	stats, err := ctx.Tracker().XP().Get(ctx.Context(), userID)
	if err != nil {
		return err
	}

	ctx.Println(cli.TitleStyle.Render(fmt.Sprintf("Level %d", stats.Level)))
	ctx.Printf("  XP:        %s\n", cli.ProgressBar(stats.XP, stats.XPToNextLevel, 20))
	ctx.Printf("  To next:   %d XP\n", stats.XPToNextLevel-stats.XP)
	ctx.Printf("  Earned:    %d XP total\n", stats.TotalPoints)
	ctx.Printf("  Completed: %d habits\n", stats.TotalHabitsCompleted)
	return nil
}

// StreakCmd shows the overall streak. Check re-evaluates it against the
// ledger first.
type StreakCmd struct {
	Check bool `help:"Bring the streak up to date before showing it."`
}

func (c *StreakCmd) Run(ctx *cli.Context) error {
	userID, err := ctx.UserID()
	if err != nil {
		return err
	}
	tr := ctx.Tracker()

	if c.Check {
		res, err := tr.Streaks().Check(ctx.Context(), userID)
		if err != nil {
			return err
		}
		if res.StreakBroken {
			ctx.Println(cli.WarningStyle.Render(fmt.Sprintf("Your %d-day streak was broken.", res.OldStreak)))
		}
	}

	sp, err := tr.Streaks().GetProfile(ctx.Context(), userID)
	if err != nil {
		return err
	}
	ctx.Printf("🔥 Current streak: %d days\n", sp.CurrentStreak)
	ctx.Printf("   Longest streak: %d days\n", sp.LongestStreak)
	if sp.LastActivityDate != "" {
		ctx.Println(cli.MutedStyle.Render("   Last active " + sp.LastActivityDate))
	}

	done, err := tr.Ledger().CheckAllCompletedToday(ctx.Context(), userID)
	if err != nil {
		return err
	}
	if !done {
		ctx.Println(cli.WarningStyle.Render("   Finish today's habits to keep it going."))
	}
	return nil
}

// AchievementsCmd lists the achievement catalog and what is unlocked.
type AchievementsCmd struct {
	Unlocked bool `help:"Only show unlocked achievements."`
}

func (c *AchievementsCmd) Run(ctx *cli.Context) error {
	userID, err := ctx.UserID()
	if err != nil {
		return err
	}
	engine := ctx.Tracker().Achievements()

	achievements, err := engine.GetAll(ctx.Context(), userID)
	if err != nil {
		return err
	}
	prog, err := engine.Progress(ctx.Context(), userID)
	if err != nil {
		return err
	}

	ctx.Println(cli.TitleStyle.Render(fmt.Sprintf("Achievements %d/%d", prog.Unlocked, prog.Total)))
	for _, a := range achievements {
		if c.Unlocked && !a.Unlocked() {
			continue
		}
		line := fmt.Sprintf("  %s %s %-16s %s", cli.Check(a.Unlocked()), a.Icon, a.Title, a.Description)
		if a.Unlocked() {
			line += cli.MutedStyle.Render("  " + a.UnlockedAt.Format("2006-01-02"))
		}
		ctx.Println(line)
	}
	return nil
}

// RefreshCmd catches the streak and achievements up without a completion.
type RefreshCmd struct{}

func (c *RefreshCmd) Run(ctx *cli.Context) error {
	userID, err := ctx.UserID()
	if err != nil {
		return err
	}
	out, err := ctx.Tracker().Refresh(ctx.Context(), userID)
	if err != nil {
		return err
	}

	ctx.PrintOutcome(out)
	if out.Streak != nil {
		ctx.Printf("🔥 Current streak: %d days\n", out.Streak.CurrentStreak)
	}
	return nil
}
