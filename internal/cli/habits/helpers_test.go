package habits

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/julianstephens/daystreak/internal/cli"
	"github.com/julianstephens/daystreak/internal/clock"
	"github.com/julianstephens/daystreak/internal/config"
	"github.com/julianstephens/daystreak/internal/testutil"
)

// registeredContext returns a context over a fresh store with a local user.
func registeredContext(t *testing.T) (*cli.Context, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	ctx := &cli.Context{
		Config:     config.DefaultConfig(),
		ConfigPath: filepath.Join(t.TempDir(), "config.yaml"),
		Store:      testutil.NewStore(t),
		Clock:      clock.NewFixedDay("2024-03-10"),
		Out:        &out,
	}
	p, err := ctx.Tracker().Register(ctx.Context(), "alice", "Alice")
	if err != nil {
		t.Fatalf("failed to register user: %v", err)
	}
	ctx.Config.UserID = p.ID
	return ctx, &out
}

func addHabit(t *testing.T, ctx *cli.Context, name string) {
	t.Helper()
	if err := (&HabitAddCmd{Name: name, Icon: "✅", Frequency: "daily"}).Run(ctx); err != nil {
		t.Fatalf("failed to add habit %q: %v", name, err)
	}
}
