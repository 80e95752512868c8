package partners

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/julianstephens/daystreak/internal/cli"
	"github.com/julianstephens/daystreak/internal/clock"
	"github.com/julianstephens/daystreak/internal/config"
	apperrors "github.com/julianstephens/daystreak/internal/errors"
	"github.com/julianstephens/daystreak/internal/ledger"
	"github.com/julianstephens/daystreak/internal/models"
	"github.com/julianstephens/daystreak/internal/testutil"
)

type member struct {
	ctx   *cli.Context
	out   *bytes.Buffer
	habit models.Habit
}

func (m *member) complete(t *testing.T) {
	t.Helper()
	if _, err := m.ctx.Tracker().CompleteHabit(m.ctx.Context(), m.ctx.Config.UserID, m.habit.ID, ""); err != nil {
		t.Fatalf("CompleteHabit failed: %v", err)
	}
}

// newFriends returns alice and bob as accepted friends with one habit each.
func newFriends(t *testing.T) (alice, bob *member, clk *clock.Fixed) {
	t.Helper()
	store := testutil.NewStore(t)
	clk = clock.NewFixedDay("2024-03-10")

	mk := func(username string) *member {
		var out bytes.Buffer
		ctx := &cli.Context{
			Config:     config.DefaultConfig(),
			ConfigPath: filepath.Join(t.TempDir(), "config.yaml"),
			Store:      store,
			Clock:      clk,
			Out:        &out,
		}
		p, err := ctx.Tracker().Register(ctx.Context(), username, "")
		if err != nil {
			t.Fatalf("failed to register %s: %v", username, err)
		}
		ctx.Config.UserID = p.ID
		h, err := ctx.Tracker().Ledger().CreateHabit(ctx.Context(), p.ID, ledger.HabitInput{Name: "Run"})
		if err != nil {
			t.Fatalf("failed to create habit: %v", err)
		}
		return &member{ctx: ctx, out: &out, habit: h}
	}
	alice, bob = mk("alice"), mk("bob")

	f, err := alice.ctx.Tracker().Social().SendRequest(alice.ctx.Context(), alice.ctx.Config.UserID, bob.ctx.Config.UserID)
	if err != nil {
		t.Fatalf("SendRequest failed: %v", err)
	}
	if _, _, err := bob.ctx.Tracker().AcceptFriend(bob.ctx.Context(), f.ID, bob.ctx.Config.UserID); err != nil {
		t.Fatalf("AcceptFriend failed: %v", err)
	}
	return alice, bob, clk
}

func TestPartnerFlow(t *testing.T) {
	alice, bob, clk := newFriends(t)

	if err := (&PartnerInviteCmd{Friend: "bob", Days: 2}).Run(alice.ctx); err != nil {
		t.Fatalf("invite failed: %v", err)
	}
	if !strings.Contains(alice.out.String(), "Invited @bob to a 2-day streak partnership") {
		t.Errorf("unexpected output: %q", alice.out.String())
	}

	if err := (&PartnerAcceptCmd{Partnership: "bob"}).Run(alice.ctx); !apperrors.IsValidation(err) {
		t.Errorf("inviter accepting: expected validation error, got %v", err)
	}
	if err := (&PartnerAcceptCmd{Partnership: "alice"}).Run(bob.ctx); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	alice.complete(t)
	alice.out.Reset()
	if err := (&PartnerCheckCmd{Partnership: "bob"}).Run(alice.ctx); err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if !strings.Contains(alice.out.String(), "Today counts once you both finish") {
		t.Errorf("expected waiting outcome:\n%s", alice.out.String())
	}

	bob.complete(t)
	alice.out.Reset()
	if err := (&PartnerCheckCmd{Partnership: "bob"}).Run(alice.ctx); err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if !strings.Contains(alice.out.String(), "1/2") {
		t.Errorf("expected day counted once:\n%s", alice.out.String())
	}

	clk.AdvanceDays(1)
	alice.complete(t)
	bob.complete(t)

	alice.out.Reset()
	if err := (&PartnerListCmd{}).Run(alice.ctx); err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(alice.out.String(), "completed") || !strings.Contains(alice.out.String(), "2/2 days") {
		t.Errorf("expected completed partnership:\n%s", alice.out.String())
	}

	if err := (&PartnerCancelCmd{Partnership: "bob"}).Run(alice.ctx); !apperrors.IsNotFound(err) {
		t.Errorf("cancel after completion: expected not found, got %v", err)
	}
}

func TestPartnerInviteCmd_NotFriends(t *testing.T) {
	alice, _, _ := newFriends(t)
	if _, err := alice.ctx.Tracker().Register(alice.ctx.Context(), "carol", ""); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := (&PartnerInviteCmd{Friend: "carol", Days: 7}).Run(alice.ctx); !apperrors.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestPartnerInviteCmd_TargetBounds(t *testing.T) {
	alice, _, _ := newFriends(t)
	for _, days := range []int{0, 366} {
		if err := (&PartnerInviteCmd{Friend: "bob", Days: days}).Run(alice.ctx); !apperrors.IsValidation(err) {
			t.Errorf("days=%d: expected validation error, got %v", days, err)
		}
	}
}

func TestPartnerReminderAndCancel(t *testing.T) {
	alice, bob, _ := newFriends(t)
	if err := (&PartnerInviteCmd{Friend: "bob", Days: 7}).Run(alice.ctx); err != nil {
		t.Fatalf("invite failed: %v", err)
	}

	if err := (&PartnerReminderCmd{Partnership: "alice", Enabled: false}).Run(bob.ctx); err != nil {
		t.Fatalf("reminder failed: %v", err)
	}
	if !strings.Contains(bob.out.String(), "turned off") {
		t.Errorf("unexpected output: %q", bob.out.String())
	}

	if err := (&PartnerCancelCmd{Partnership: "alice"}).Run(bob.ctx); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	bob.out.Reset()
	if err := (&PartnerListCmd{Status: []string{"cancelled"}}).Run(bob.ctx); err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(bob.out.String(), "@alice") || !strings.Contains(bob.out.String(), "cancelled") {
		t.Errorf("expected cancelled partnership:\n%s", bob.out.String())
	}
}
