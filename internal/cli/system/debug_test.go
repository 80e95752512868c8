package system

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/julianstephens/daystreak/internal/storage/sqlite"
	"github.com/julianstephens/daystreak/internal/testutil"
)

func TestDebugDBPathCmd(t *testing.T) {
	ctx, out := newTestContext(t, testutil.NewStore(t))

	cmd := &DebugDBPathCmd{}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("DebugDBPathCmd failed: %v", err)
	}

	var result map[string]string
	if err := json.Unmarshal(out.Bytes(), &result); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if result["path"] != ctx.Store.GetConfigPath() {
		t.Errorf("path = %q, want %q", result["path"], ctx.Store.GetConfigPath())
	}
}

func TestDebugDumpUserCmd(t *testing.T) {
	ctx, out := registeredContext(t)

	cmd := &DebugDumpUserCmd{}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("DebugDumpUserCmd failed: %v", err)
	}

	var result struct {
		Profile struct {
			Username string `json:"username"`
		} `json:"profile"`
		Stats struct {
			Level int `json:"level"`
		} `json:"stats"`
	}
	if err := json.Unmarshal(out.Bytes(), &result); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if result.Profile.Username != "alice" {
		t.Errorf("username = %q, want alice", result.Profile.Username)
	}
	if result.Stats.Level != 1 {
		t.Errorf("level = %d, want 1", result.Stats.Level)
	}
}

func TestDebugDumpUserCmd_NoLocalUser(t *testing.T) {
	ctx, _ := newTestContext(t, testutil.NewStore(t))

	if err := (&DebugDumpUserCmd{}).Run(ctx); err == nil {
		t.Error("expected error without a local user")
	}
}

func TestDebugDumpHabitCmd_NotFound(t *testing.T) {
	ctx, _ := newTestContext(t, testutil.NewStore(t))

	err := (&DebugDumpHabitCmd{ID: "nope"}).Run(ctx)
	if err == nil || !strings.Contains(err.Error(), "habit not found") {
		t.Errorf("expected not found error, got %v", err)
	}
}

func TestDebugDumpDayCmd(t *testing.T) {
	ctx, out := registeredContext(t)
	store := ctx.Store.(*sqlite.Store)
	habit := testutil.AddHabit(t, store, ctx.Config.UserID, "Read", "2024-03-01")
	testutil.Complete(t, store, habit, "2024-03-10", true)

	if err := (&DebugDumpDayCmd{Date: "today"}).Run(ctx); err != nil {
		t.Fatalf("DebugDumpDayCmd failed: %v", err)
	}

	var result struct {
		Progress struct {
			Completed int `json:"completed"`
			Total     int `json:"total"`
		} `json:"progress"`
		Completions []json.RawMessage `json:"completions"`
	}
	if err := json.Unmarshal(out.Bytes(), &result); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if result.Progress.Completed != 1 || result.Progress.Total != 1 {
		t.Errorf("progress = %+v, want 1/1", result.Progress)
	}
	if len(result.Completions) != 1 {
		t.Errorf("got %d completions, want 1", len(result.Completions))
	}
}

func TestDebugDumpDayCmd_InvalidDate(t *testing.T) {
	ctx, _ := registeredContext(t)

	if err := (&DebugDumpDayCmd{Date: "03/10/2024"}).Run(ctx); err == nil {
		t.Error("expected error for invalid date")
	}
}
