package cli

import (
	"fmt"

	"github.com/julianstephens/daystreak/internal/partnership"
	"github.com/julianstephens/daystreak/internal/tracker"
)

// PrintOutcome reports what a completion, undo or refresh changed.
func (c *Context) PrintOutcome(out tracker.Outcome) {
	switch {
	case out.Points > 0:
		c.Printf("  +%d XP\n", out.Points)
	case out.Points < 0:
		c.Printf("  %d XP\n", out.Points)
	}
	if out.Level != nil && out.Level.LevelUp {
		c.Println(TitleStyle.Render(fmt.Sprintf("  ⬆ Level up! You are now level %d", out.Level.Level)))
	}
	if s := out.Streak; s != nil {
		if s.StreakBroken {
			c.Println(WarningStyle.Render(fmt.Sprintf("  Your %d-day streak was broken.", s.OldStreak)))
		}
		if s.Extended {
			c.Printf("  🔥 Streak: %d days\n", s.CurrentStreak)
		}
	}
	if out.Milestone > 0 {
		c.Println(TitleStyle.Render(fmt.Sprintf("  🏆 %d-day milestone!", out.Milestone)))
	}
	for _, a := range out.Unlocked {
		c.Println(SuccessStyle.Render(fmt.Sprintf("  %s Achievement unlocked: %s", a.Icon, a.Title)))
	}
	for _, p := range out.Partnerships {
		switch p.Outcome {
		case partnership.OutcomeCounted:
			c.Printf("  🤝 Partner streak: %d/%d days\n", p.CurrentStreak, p.TargetDays)
		case partnership.OutcomeWaiting:
			c.Println(MutedStyle.Render("  🤝 Waiting for your partner today"))
		case partnership.OutcomeTargetReached:
			c.Println(TitleStyle.Render(fmt.Sprintf("  🤝 Partnership goal of %d days reached!", p.TargetDays)))
		}
	}
	for _, f := range out.Failures {
		c.Println(DangerStyle.Render("  ! " + f.Error()))
	}
}
