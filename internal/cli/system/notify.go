package system

import (
	"fmt"

	"github.com/julianstephens/daystreak/internal/cli"
	"github.com/julianstephens/daystreak/internal/notifier"
	"github.com/julianstephens/daystreak/internal/reminder"
)

// NotifyCmd shows a single reminder on this desktop through the tray app.
type NotifyCmd struct {
	Type   string `arg:"" optional:"" default:"daily" help:"Reminder type to show (streak_18h, streak_21h, streak_23h, daily)."`
	DryRun bool   `help:"Print the notification to stdout instead of sending it."`
}

func (c *NotifyCmd) Run(ctx *cli.Context) error {
	msg, err := reminder.Lookup(c.Type)
	if err != nil {
		return err
	}

	if c.DryRun {
		ctx.Printf("[DryRun] %s: %s\n", msg.Title, msg.Body)
		return nil
	}

	sender := reminder.TraySender{Notifier: notifier.New()}
	if err := sender.Send(ctx.Context(), "", msg); err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	ctx.Printf("Sent %q notification\n", msg.Title)
	return nil
}
