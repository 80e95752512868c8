package reminders

import (
	"github.com/julianstephens/daystreak/internal/cli"
	"github.com/julianstephens/daystreak/internal/notifier"
	"github.com/julianstephens/daystreak/internal/reminder"
)

// RemindCmd sends a reminder to every user who still needs it.
type RemindCmd struct {
	Type   string   `arg:"" optional:"" default:"daily" help:"Reminder type (streak_18h, streak_21h, streak_23h, daily)."`
	Users  []string `help:"Only these usernames or ids (default: everyone)."`
	Events bool     `help:"Publish reminders to the event bus instead of the tray app."`
	DryRun bool     `help:"List who would be reminded without sending anything."`

	// Sender overrides delivery; used by tests.
	Sender reminder.Sender `kong:"-"`
}

func (c *RemindCmd) Run(ctx *cli.Context) error {
	msg, err := reminder.Lookup(c.Type)
	if err != nil {
		return err
	}

	ids := make([]string, 0, len(c.Users))
	for _, ref := range c.Users {
		p, err := ctx.ResolveUser(ref)
		if err != nil {
			return err
		}
		ids = append(ids, p.ID)
	}

	tr := ctx.Tracker()
	sender := c.Sender
	if sender == nil {
		if c.Events {
			pub := ctx.Publisher
			if pub == nil {
				pub = tr.Publisher()
			}
			sender = reminder.EventSender{Publisher: pub, Clock: tr.Clock()}
		} else {
			sender = reminder.TraySender{Notifier: notifier.New()}
		}
	}
	dispatcher := reminder.New(ctx.Store, tr.Ledger(), sender, tr.Clock(), ctx.Metrics)

	if c.DryRun {
		pending, err := dispatcher.Pending(ctx.Context(), msg.Type, ids)
		if err != nil {
			return err
		}
		ctx.Printf("[DryRun] %s would go to %d user(s)\n", msg.Type, len(pending))
		for _, id := range pending {
			ctx.Printf("  %s\n", id)
		}
		return nil
	}

	report, err := dispatcher.Dispatch(ctx.Context(), c.Type, ids)
	if err != nil {
		return err
	}
	ctx.Printf("%s: %d targeted, %d sent, %d failed\n", report.Type, report.Targeted, report.Sent, report.Failed)
	for id, reason := range report.Errors {
		ctx.Println(cli.DangerStyle.Render("  " + id + ": " + reason))
	}
	return nil
}
