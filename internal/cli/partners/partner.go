package partners

import (
	"fmt"

	"github.com/julianstephens/daystreak/internal/cli"
	apperrors "github.com/julianstephens/daystreak/internal/errors"
	"github.com/julianstephens/daystreak/internal/models"
	"github.com/julianstephens/daystreak/internal/partnership"
)

type PartnerCmd struct {
	Invite   PartnerInviteCmd   `cmd:"" help:"Invite a friend to a streak partnership."`
	Accept   PartnerAcceptCmd   `cmd:"" help:"Accept a partnership invite."`
	Cancel   PartnerCancelCmd   `cmd:"" help:"Cancel a partnership."`
	Check    PartnerCheckCmd    `cmd:"" help:"Count today for a partnership if both partners are done."`
	Reminder PartnerReminderCmd `cmd:"" help:"Turn partnership reminders on or off."`
	List     PartnerListCmd     `cmd:"" help:"List partnerships."`
}

// resolve finds a partnership by id, or the open partnership with the
// named partner.
func resolve(ctx *cli.Context, userID, ref string) (models.StreakPartnership, error) {
	engine := ctx.Tracker().Partnerships()
	if p, err := engine.Get(ctx.Context(), ref, userID); err == nil {
		return p, nil
	}
	partner, err := ctx.ResolveUser(ref)
	if err != nil {
		return models.StreakPartnership{}, apperrors.NotFound("partnership", ref)
	}
	views, err := engine.GetUserPartnerships(ctx.Context(), userID, models.PartnershipPending, models.PartnershipActive)
	if err != nil {
		return models.StreakPartnership{}, err
	}
	for _, v := range views {
		if v.PartnerID == partner.ID {
			return v.Partnership, nil
		}
	}
	return models.StreakPartnership{}, apperrors.NotFound("partnership", ref)
}

type PartnerInviteCmd struct {
	Friend string `arg:"" help:"Friend's username or id."`
	Days   int    `help:"Target streak length in days (1-365)." default:"7"`
}

func (c *PartnerInviteCmd) Run(ctx *cli.Context) error {
	userID, err := ctx.UserID()
	if err != nil {
		return err
	}
	friend, err := ctx.ResolveUser(c.Friend)
	if err != nil {
		return err
	}
	p, err := ctx.Tracker().Partnerships().CreateInvite(ctx.Context(), userID, friend.ID, c.Days)
	if err != nil {
		return err
	}
	ctx.Printf("Invited @%s to a %d-day streak partnership\n", friend.Username, p.TargetDays)
	ctx.Println(cli.MutedStyle.Render("  id " + p.ID))
	return nil
}

type PartnerAcceptCmd struct {
	Partnership string `arg:"" help:"Partnership id or the inviter's username."`
}

func (c *PartnerAcceptCmd) Run(ctx *cli.Context) error {
	userID, err := ctx.UserID()
	if err != nil {
		return err
	}
	p, err := resolve(ctx, userID, c.Partnership)
	if err != nil {
		return err
	}
	ok, err := ctx.Tracker().Partnerships().AcceptInvite(ctx.Context(), p.ID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.Validation("only a pending invite sent to you can be accepted")
	}
	ctx.Printf("✓ Partnership started: %d days to go together\n", p.TargetDays)
	return nil
}

type PartnerCancelCmd struct {
	Partnership string `arg:"" help:"Partnership id or the partner's username."`
}

func (c *PartnerCancelCmd) Run(ctx *cli.Context) error {
	userID, err := ctx.UserID()
	if err != nil {
		return err
	}
	p, err := resolve(ctx, userID, c.Partnership)
	if err != nil {
		return err
	}
	ok, err := ctx.Tracker().Partnerships().CancelPartnership(ctx.Context(), p.ID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.Validation("partnership is already %s", p.Status)
	}
	ctx.Println("Partnership cancelled.")
	return nil
}

type PartnerCheckCmd struct {
	Partnership string `arg:"" help:"Partnership id or the partner's username."`
}

func (c *PartnerCheckCmd) Run(ctx *cli.Context) error {
	userID, err := ctx.UserID()
	if err != nil {
		return err
	}
	p, err := resolve(ctx, userID, c.Partnership)
	if err != nil {
		return err
	}
	res, err := ctx.Tracker().Partnerships().CheckPartnershipProgress(ctx.Context(), p.ID)
	if err != nil {
		return err
	}

	switch res.Outcome {
	case partnership.OutcomeInactive:
		ctx.Printf("Partnership is %s.\n", res.Partnership.Status)
		return nil
	case partnership.OutcomeWaiting:
		you, partner := res.User1Completed, res.User2Completed
		if p.User2ID == userID {
			you, partner = partner, you
		}
		ctx.Printf("  You %s  Partner %s\n", cli.Check(you), cli.Check(partner))
		ctx.Println(cli.MutedStyle.Render("  Today counts once you both finish every habit."))
	case partnership.OutcomeTargetReached:
		ctx.Println(cli.TitleStyle.Render(fmt.Sprintf("🤝 Goal of %d days reached together!", res.TargetDays)))
	}
	ctx.Printf("  %s\n", cli.ProgressBar(res.CurrentStreak, res.TargetDays, 20))
	return nil
}

type PartnerReminderCmd struct {
	Partnership string `arg:"" help:"Partnership id or the partner's username."`
	Enabled     bool   `arg:"" help:"true or false."`
}

func (c *PartnerReminderCmd) Run(ctx *cli.Context) error {
	userID, err := ctx.UserID()
	if err != nil {
		return err
	}
	p, err := resolve(ctx, userID, c.Partnership)
	if err != nil {
		return err
	}
	ok, err := ctx.Tracker().Partnerships().UpdateReminderSettings(ctx.Context(), p.ID, userID, c.Enabled)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.Validation("reminders cannot be changed on a %s partnership", p.Status)
	}
	state := "off"
	if c.Enabled {
		state = "on"
	}
	ctx.Printf("Partnership reminders turned %s.\n", state)
	return nil
}

type PartnerListCmd struct {
	Status []string `help:"Only show these statuses (pending, active, completed, cancelled)."`
}

func (c *PartnerListCmd) Run(ctx *cli.Context) error {
	userID, err := ctx.UserID()
	if err != nil {
		return err
	}
	statuses := make([]models.PartnershipStatus, 0, len(c.Status))
	for _, s := range c.Status {
		statuses = append(statuses, models.PartnershipStatus(s))
	}

	views, err := ctx.Tracker().Partnerships().GetUserPartnerships(ctx.Context(), userID, statuses...)
	if err != nil {
		return err
	}
	if len(views) == 0 {
		ctx.Println("No partnerships.")
		return nil
	}
	for _, v := range views {
		name := v.PartnerID
		if v.Partner != nil {
			name = "@" + v.Partner.Username
		}
		p := v.Partnership
		ctx.Printf("  %-20s %-10s %d/%d days\n", name, p.Status, p.CurrentStreak, p.TargetDays)
	}
	return nil
}
