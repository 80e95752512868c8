package settings

import (
	"fmt"

	"github.com/julianstephens/daystreak/internal/cli"
	"github.com/julianstephens/daystreak/internal/config"
)

// SettingsCmd shows or changes values in the config file. Environment
// overrides are shown but never written back.
type SettingsCmd struct {
	List  bool   `help:"List current settings."`
	Key   string `arg:"" optional:"" help:"Setting to show or change."`
	Value string `arg:"" optional:"" help:"New value for the setting."`
}

func (c *SettingsCmd) Run(ctx *cli.Context) error {
	if ctx.Config == nil {
		return fmt.Errorf("no configuration loaded")
	}

	if c.List || c.Key == "" {
		ctx.Println("Current Settings:")
		for _, key := range config.Keys() {
			value, err := ctx.Config.Get(key)
			if err != nil {
				return err
			}
			if value == "" {
				value = cli.MutedStyle.Render("(unset)")
			}
			ctx.Printf("  %-24s %s\n", key, value)
		}
		ctx.Println(cli.MutedStyle.Render(fmt.Sprintf("\nOverride any setting with %s and friends.", config.EnvName("timezone"))))
		return nil
	}

	if c.Value == "" {
		value, err := ctx.Config.Get(c.Key)
		if err != nil {
			return err
		}
		ctx.Println(value)
		return nil
	}

	updated := *ctx.Config
	if err := updated.Set(c.Key, c.Value); err != nil {
		return err
	}
	if err := updated.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	*ctx.Config = updated
	if err := ctx.SaveConfig(); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	ctx.Printf("Set %s = %s\n", c.Key, c.Value)
	return nil
}
