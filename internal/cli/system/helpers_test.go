package system

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/julianstephens/daystreak/internal/cli"
	"github.com/julianstephens/daystreak/internal/clock"
	"github.com/julianstephens/daystreak/internal/config"
	"github.com/julianstephens/daystreak/internal/storage"
	"github.com/julianstephens/daystreak/internal/testutil"
)

func newTestContext(t *testing.T, store storage.Provider) (*cli.Context, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	return &cli.Context{
		Config:     config.DefaultConfig(),
		ConfigPath: filepath.Join(t.TempDir(), "config.yaml"),
		Store:      store,
		Clock:      clock.NewFixedDay("2024-03-10"),
		Out:        &out,
	}, &out
}

// registeredContext returns a context over a fresh store with a local user.
func registeredContext(t *testing.T) (*cli.Context, *bytes.Buffer) {
	t.Helper()
	ctx, out := newTestContext(t, testutil.NewStore(t))
	p, err := ctx.Tracker().Register(ctx.Context(), "alice", "Alice")
	if err != nil {
		t.Fatalf("failed to register user: %v", err)
	}
	ctx.Config.UserID = p.ID
	return ctx, out
}
