package users

import (
	"fmt"

	"github.com/julianstephens/daystreak/internal/cli"
	"github.com/julianstephens/daystreak/internal/models"
	"github.com/julianstephens/daystreak/internal/social"
)

type UserCmd struct {
	Register UserRegisterCmd `cmd:"" help:"Create the local user profile."`
	Show     UserShowCmd     `cmd:"" help:"Show a profile (default: the local user)."`
	Update   UserUpdateCmd   `cmd:"" help:"Change the local user's profile."`
	Search   UserSearchCmd   `cmd:"" help:"Find other users by name."`
}

type UserRegisterCmd struct {
	Username    string `arg:"" help:"Unique username (3-30 letters, digits, '_' or '.')."`
	DisplayName string `help:"Display name (default: the username)."`
	Force       bool   `help:"Replace the configured local user."`
}

func (c *UserRegisterCmd) Run(ctx *cli.Context) error {
	if id, err := ctx.UserID(); err == nil && !c.Force {
		return fmt.Errorf("local user %s is already configured; use --force to register another", id)
	}

	p, err := ctx.Tracker().Register(ctx.Context(), c.Username, c.DisplayName)
	if err != nil {
		return err
	}

	ctx.Config.UserID = p.ID
	if err := ctx.SaveConfig(); err != nil {
		return fmt.Errorf("registered %s but failed to save config: %w", p.Username, err)
	}

	ctx.Printf("✓ Registered @%s (%s)\n", p.Username, p.ID)
	return nil
}

type UserShowCmd struct {
	User string `arg:"" optional:"" help:"Username or id (default: the local user)."`
}

func (c *UserShowCmd) Run(ctx *cli.Context) error {
	var (
		p   models.Profile
		err error
	)
	if c.User == "" {
		var id string
		if id, err = ctx.UserID(); err != nil {
			return err
		}
		p, err = ctx.Tracker().Social().GetProfile(ctx.Context(), id)
	} else {
		p, err = ctx.ResolveUser(c.User)
	}
	if err != nil {
		return err
	}

	stats, err := ctx.Tracker().XP().Get(ctx.Context(), p.ID)
	if err != nil {
		return err
	}

	ctx.Println(cli.TitleStyle.Render(fmt.Sprintf("%s (@%s)", p.DisplayName, p.Username)))
	ctx.Printf("  Level:    %d (%d/%d XP)\n", stats.Level, stats.XP, stats.XPToNextLevel)
	ctx.Printf("  Streak:   %d days (longest %d)\n", p.CurrentStreak, p.LongestStreak)
	ctx.Printf("  Habits:   %d completed\n", stats.TotalHabitsCompleted)
	if p.AvatarURL != "" {
		ctx.Printf("  Avatar:   %s\n", p.AvatarURL)
	}
	ctx.Println(cli.MutedStyle.Render("  id " + p.ID))
	return nil
}

type UserUpdateCmd struct {
	Username    string `help:"New username."`
	DisplayName string `help:"New display name."`
	AvatarURL   string `name:"avatar" help:"New avatar URL."`
}

func (c *UserUpdateCmd) Run(ctx *cli.Context) error {
	id, err := ctx.UserID()
	if err != nil {
		return err
	}
	if c.Username == "" && c.DisplayName == "" && c.AvatarURL == "" {
		ctx.Println("No changes specified. Use --username, --display-name or --avatar.")
		return nil
	}

	p, err := ctx.Tracker().Social().UpdateProfile(ctx.Context(), id, social.ProfileUpdate{
		Username:    c.Username,
		DisplayName: c.DisplayName,
		AvatarURL:   c.AvatarURL,
	})
	if err != nil {
		return err
	}
	ctx.Printf("✓ Profile updated: %s (@%s)\n", p.DisplayName, p.Username)
	return nil
}

type UserSearchCmd struct {
	Query string `arg:"" help:"Part of a username or display name."`
}

func (c *UserSearchCmd) Run(ctx *cli.Context) error {
	id, err := ctx.UserID()
	if err != nil {
		return err
	}
	results, err := ctx.Tracker().Social().SearchUsers(ctx.Context(), id, c.Query)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		ctx.Println("No users found.")
		return nil
	}
	for _, p := range results {
		ctx.Printf("  @%-20s %-24s 🔥 %d\n", p.Username, p.DisplayName, p.CurrentStreak)
	}
	return nil
}
