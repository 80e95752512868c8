package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/daystreak/internal/clock"
	apperrors "github.com/julianstephens/daystreak/internal/errors"
	"github.com/julianstephens/daystreak/internal/metrics"
	"github.com/julianstephens/daystreak/internal/reminder"
	"github.com/julianstephens/daystreak/internal/testutil"
	"github.com/julianstephens/daystreak/internal/tracker"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

type testServer struct {
	server *Server
	clock  *clock.Fixed

	mu   sync.Mutex
	sent []string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{clock: clock.NewFixedDay("2024-03-10")}
	store := testutil.NewStore(t)
	trk := tracker.New(store, ts.clock, tracker.Options{Metrics: metrics.New()})
	sender := reminder.SenderFunc(func(_ context.Context, userID string, _ reminder.Message) error {
		ts.mu.Lock()
		defer ts.mu.Unlock()
		ts.sent = append(ts.sent, userID)
		return nil
	})
	reminders := reminder.New(store, trk.Ledger(), sender, ts.clock, trk.Metrics())
	ts.server = New(trk, reminders, Options{})
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, user string, body interface{}) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.Header.Set(UserHeader, user)
	}
	resp, err := ts.server.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

func decode(t *testing.T, env envelope, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, v), string(env.Data))
}

func (ts *testServer) register(t *testing.T, username string) string {
	t.Helper()
	status, env := ts.do(t, http.MethodPost, "/v1/users", "", fiber.Map{"username": username})
	require.Equal(t, http.StatusCreated, status, env.Message)
	var p struct {
		ID string `json:"id"`
	}
	decode(t, env, &p)
	require.NotEmpty(t, p.ID)
	return p.ID
}

func (ts *testServer) habit(t *testing.T, userID, name string) string {
	t.Helper()
	status, env := ts.do(t, http.MethodPost, "/v1/habits", userID, fiber.Map{"name": name})
	require.Equal(t, http.StatusCreated, status, env.Message)
	var h struct {
		ID     string `json:"id"`
		Points int    `json:"points"`
	}
	decode(t, env, &h)
	assert.Equal(t, 10, h.Points)
	return h.ID
}

func (ts *testServer) friends(t *testing.T, a, b string) {
	t.Helper()
	status, env := ts.do(t, http.MethodPost, "/v1/friends/requests", a, fiber.Map{"user_id": b})
	require.Equal(t, http.StatusCreated, status, env.Message)
	var f struct {
		ID string `json:"id"`
	}
	decode(t, env, &f)
	status, env = ts.do(t, http.MethodPost, "/v1/friends/requests/"+f.ID+"/accept", b, nil)
	require.Equal(t, http.StatusOK, status, env.Message)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	status, env := ts.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, env.Success)
}

func TestRequireUser(t *testing.T) {
	ts := newTestServer(t)
	status, env := ts.do(t, http.MethodGet, "/v1/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.False(t, env.Success)
	assert.Equal(t, "unauthorized", env.Error)
}

func TestErrorMapping(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.register(t, "alice")
	habitID := ts.habit(t, alice, "Read")

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
		code   string
	}{
		{"duplicate username", http.MethodPost, "/v1/users", fiber.Map{"username": "alice"}, http.StatusBadRequest, "validation_error"},
		{"invalid username", http.MethodPost, "/v1/users", fiber.Map{"username": "a"}, http.StatusBadRequest, "validation_error"},
		{"unknown habit", http.MethodGet, "/v1/habits/nope", nil, http.StatusNotFound, "not_found"},
		{"empty habit name", http.MethodPost, "/v1/habits", fiber.Map{"name": " "}, http.StatusBadRequest, "validation_error"},
		{"bad frequency", http.MethodPost, "/v1/habits", fiber.Map{"name": "Run", "frequency": "hourly"}, http.StatusBadRequest, "validation_error"},
		{"befriend self", http.MethodPost, "/v1/friends/requests", fiber.Map{"user_id": alice}, http.StatusBadRequest, "validation_error"},
		{"toggle without habit", http.MethodPut, "/v1/completions", fiber.Map{"completed": true}, http.StatusBadRequest, "validation_error"},
		{"unknown reminder", http.MethodPost, "/v1/reminders/dispatch", fiber.Map{"reminder_type": "hourly"}, http.StatusBadRequest, "validation_error"},
		{"future completion", http.MethodPost, "/v1/habits/" + habitID + "/complete", fiber.Map{"date": "2024-03-11"}, http.StatusBadRequest, "validation_error"},
		{"change points", http.MethodPatch, "/v1/habits/" + habitID, fiber.Map{"points": 25}, http.StatusBadRequest, "validation_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := ts.do(t, tt.method, tt.path, alice, tt.body)
			assert.Equal(t, tt.status, status, env.Message)
			assert.False(t, env.Success)
			assert.Equal(t, tt.code, env.Error)
		})
	}
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, StatusOf(apperrors.Validation("bad")))
	assert.Equal(t, http.StatusNotFound, StatusOf(apperrors.NotFound("habit", "h1")))
	assert.Equal(t, http.StatusConflict, StatusOf(apperrors.Conflict("user", "u1")))
	assert.Equal(t, http.StatusServiceUnavailable, StatusOf(apperrors.Store("get", errors.New("locked"))))
	assert.Equal(t, http.StatusTeapot, StatusOf(fiber.NewError(http.StatusTeapot)))
	assert.Equal(t, http.StatusInternalServerError, StatusOf(errors.New("boom")))
}

func TestCompleteHabitFlow(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.register(t, "alice")
	habitID := ts.habit(t, alice, "Read")

	status, env := ts.do(t, http.MethodPost, "/v1/habits/"+habitID+"/complete", alice, nil)
	require.Equal(t, http.StatusOK, status, env.Message)
	var out struct {
		Changed  bool `json:"changed"`
		Points   int  `json:"points"`
		Unlocked []struct {
			Title string `json:"title"`
		} `json:"unlocked"`
	}
	decode(t, env, &out)
	assert.True(t, out.Changed)
	assert.Equal(t, 10, out.Points)
	require.Len(t, out.Unlocked, 1)
	assert.Equal(t, "First Step", out.Unlocked[0].Title)

	// Completing again awards nothing
	status, env = ts.do(t, http.MethodPost, "/v1/habits/"+habitID+"/complete", alice, nil)
	require.Equal(t, http.StatusOK, status)
	decode(t, env, &out)
	assert.False(t, out.Changed)
	assert.Zero(t, out.Points)

	status, env = ts.do(t, http.MethodGet, "/v1/stats", alice, nil)
	require.Equal(t, http.StatusOK, status)
	var stats struct {
		TotalPoints          int `json:"total_points"`
		TotalHabitsCompleted int `json:"total_habits_completed"`
	}
	decode(t, env, &stats)
	assert.Equal(t, 10, stats.TotalPoints)
	assert.Equal(t, 1, stats.TotalHabitsCompleted)

	status, env = ts.do(t, http.MethodGet, "/v1/streak", alice, nil)
	require.Equal(t, http.StatusOK, status)
	var sp struct {
		CurrentStreak int `json:"current_streak"`
	}
	decode(t, env, &sp)
	assert.Equal(t, 1, sp.CurrentStreak)

	status, env = ts.do(t, http.MethodGet, "/v1/days/today", alice, nil)
	require.Equal(t, http.StatusOK, status)
	var day struct {
		Date         string `json:"date"`
		AllCompleted bool   `json:"all_completed"`
	}
	decode(t, env, &day)
	assert.Equal(t, "2024-03-10", day.Date)
	assert.True(t, day.AllCompleted)

	status, env = ts.do(t, http.MethodPost, "/v1/habits/"+habitID+"/uncomplete", alice, nil)
	require.Equal(t, http.StatusOK, status, env.Message)
	decode(t, env, &out)
	assert.True(t, out.Changed)
	assert.Equal(t, -10, out.Points)

	status, env = ts.do(t, http.MethodGet, "/v1/completions?date=2024-03-10", alice, nil)
	require.Equal(t, http.StatusOK, status)
	var completions []struct {
		Completed bool `json:"completed"`
	}
	decode(t, env, &completions)
	require.Len(t, completions, 1)
	assert.False(t, completions[0].Completed)
}

func TestHabitCRUD(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.register(t, "alice")
	bob := ts.register(t, "bob")
	habitID := ts.habit(t, alice, "Read")

	status, _ := ts.do(t, http.MethodPatch, "/v1/habits/"+habitID, alice, fiber.Map{"name": "Read more", "points": 25})
	assert.Equal(t, http.StatusBadRequest, status, "points are fixed at creation")

	status, env := ts.do(t, http.MethodPatch, "/v1/habits/"+habitID, alice, fiber.Map{"name": "Read more"})
	require.Equal(t, http.StatusOK, status, env.Message)
	var h struct {
		Name   string `json:"name"`
		Points int    `json:"points"`
	}
	decode(t, env, &h)
	assert.Equal(t, "Read more", h.Name)
	assert.Equal(t, 10, h.Points)

	status, _ = ts.do(t, http.MethodGet, "/v1/habits/"+habitID, bob, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = ts.do(t, http.MethodDelete, "/v1/habits/"+habitID, alice, nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, env = ts.do(t, http.MethodGet, "/v1/habits", alice, nil)
	require.Equal(t, http.StatusOK, status)
	var habits []json.RawMessage
	decode(t, env, &habits)
	assert.Empty(t, habits)
}

func TestToggleCompletionHasNoSideEffects(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.register(t, "alice")
	habitID := ts.habit(t, alice, "Read")

	status, env := ts.do(t, http.MethodPut, "/v1/completions", alice, fiber.Map{"habit_id": habitID, "completed": true})
	require.Equal(t, http.StatusOK, status, env.Message)
	var res struct {
		Changed bool `json:"changed"`
	}
	decode(t, env, &res)
	assert.True(t, res.Changed)

	status, env = ts.do(t, http.MethodGet, "/v1/stats", alice, nil)
	require.Equal(t, http.StatusOK, status)
	var stats struct {
		TotalPoints int `json:"total_points"`
	}
	decode(t, env, &stats)
	assert.Zero(t, stats.TotalPoints)
}

func TestXPEndpoints(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.register(t, "alice")

	status, env := ts.do(t, http.MethodPost, "/v1/stats/xp", alice, fiber.Map{"points": 150})
	require.Equal(t, http.StatusOK, status, env.Message)
	var lvl struct {
		LevelUp bool `json:"level_up"`
		Level   int  `json:"level"`
		XP      int  `json:"xp"`
	}
	decode(t, env, &lvl)
	assert.True(t, lvl.LevelUp)
	assert.Equal(t, 2, lvl.Level)
	assert.Equal(t, 50, lvl.XP)

	status, env = ts.do(t, http.MethodDelete, "/v1/stats/xp", alice, fiber.Map{"points": 500})
	require.Equal(t, http.StatusOK, status, env.Message)
	var stats struct {
		Level       int `json:"level"`
		XP          int `json:"xp"`
		TotalPoints int `json:"total_points"`
	}
	decode(t, env, &stats)
	assert.Equal(t, 2, stats.Level)
	assert.Zero(t, stats.XP)
	assert.Zero(t, stats.TotalPoints)
}

func TestFriendsAndPartnership(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.register(t, "alice")
	bob := ts.register(t, "bob")
	aliceHabit := ts.habit(t, alice, "Read")
	bobHabit := ts.habit(t, bob, "Run")

	status, _ := ts.do(t, http.MethodPost, "/v1/partnerships", alice, fiber.Map{"friend_id": bob, "target_days": 7})
	assert.Equal(t, http.StatusBadRequest, status, "partners must be friends")

	ts.friends(t, alice, bob)

	status, env := ts.do(t, http.MethodGet, "/v1/friends", alice, nil)
	require.Equal(t, http.StatusOK, status)
	var friends []json.RawMessage
	decode(t, env, &friends)
	assert.Len(t, friends, 1)

	status, env = ts.do(t, http.MethodPost, "/v1/partnerships", alice, fiber.Map{"friend_id": bob, "target_days": 7})
	require.Equal(t, http.StatusCreated, status, env.Message)
	var p struct {
		ID string `json:"id"`
	}
	decode(t, env, &p)

	status, env = ts.do(t, http.MethodGet, "/v1/partnerships/invites/count", bob, nil)
	require.Equal(t, http.StatusOK, status)
	var count struct {
		Count int `json:"count"`
	}
	decode(t, env, &count)
	assert.Equal(t, 1, count.Count)

	var res struct {
		Applied bool `json:"applied"`
	}
	status, env = ts.do(t, http.MethodPost, "/v1/partnerships/"+p.ID+"/accept", alice, nil)
	require.Equal(t, http.StatusOK, status)
	decode(t, env, &res)
	assert.False(t, res.Applied, "only the invitee can accept")

	status, env = ts.do(t, http.MethodPost, "/v1/partnerships/"+p.ID+"/accept", bob, nil)
	require.Equal(t, http.StatusOK, status)
	decode(t, env, &res)
	assert.True(t, res.Applied)

	status, _ = ts.do(t, http.MethodPost, "/v1/habits/"+aliceHabit+"/complete", alice, nil)
	require.Equal(t, http.StatusOK, status)
	status, env = ts.do(t, http.MethodPost, "/v1/habits/"+bobHabit+"/complete", bob, nil)
	require.Equal(t, http.StatusOK, status)
	var out struct {
		Partnerships []struct {
			Outcome       string `json:"outcome"`
			CurrentStreak int    `json:"current_streak"`
		} `json:"partnerships"`
	}
	decode(t, env, &out)
	require.Len(t, out.Partnerships, 1)
	assert.Equal(t, "counted", out.Partnerships[0].Outcome)
	assert.Equal(t, 1, out.Partnerships[0].CurrentStreak)

	status, env = ts.do(t, http.MethodPost, "/v1/partnerships/"+p.ID+"/check", alice, nil)
	require.Equal(t, http.StatusOK, status, env.Message)
	var check struct {
		Outcome string `json:"outcome"`
	}
	decode(t, env, &check)
	assert.Equal(t, "already_counted", check.Outcome)

	carol := ts.register(t, "carol")
	status, _ = ts.do(t, http.MethodGet, "/v1/partnerships/"+p.ID, carol, nil)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = ts.do(t, http.MethodPost, "/v1/partnerships/"+p.ID+"/check", carol, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, env = ts.do(t, http.MethodPut, "/v1/partnerships/"+p.ID+"/reminder", bob, fiber.Map{"enabled": false})
	require.Equal(t, http.StatusOK, status, env.Message)
	decode(t, env, &res)
	assert.True(t, res.Applied)

	status, env = ts.do(t, http.MethodPost, "/v1/partnerships/"+p.ID+"/cancel", alice, nil)
	require.Equal(t, http.StatusOK, status)
	decode(t, env, &res)
	assert.True(t, res.Applied)

	status, env = ts.do(t, http.MethodGet, "/v1/partnerships?status=active", alice, nil)
	require.Equal(t, http.StatusOK, status)
	var views []json.RawMessage
	decode(t, env, &views)
	assert.Empty(t, views)
}

func TestRejectRequest(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.register(t, "alice")
	bob := ts.register(t, "bob")

	status, env := ts.do(t, http.MethodPost, "/v1/friends/requests", alice, fiber.Map{"user_id": bob})
	require.Equal(t, http.StatusCreated, status, env.Message)
	var f struct {
		ID string `json:"id"`
	}
	decode(t, env, &f)

	status, env = ts.do(t, http.MethodGet, "/v1/friends/requests", bob, nil)
	require.Equal(t, http.StatusOK, status)
	var pending []json.RawMessage
	decode(t, env, &pending)
	assert.Len(t, pending, 1)

	status, _ = ts.do(t, http.MethodPost, "/v1/friends/requests/"+f.ID+"/reject", bob, nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, env = ts.do(t, http.MethodGet, "/v1/friends/requests", bob, nil)
	require.Equal(t, http.StatusOK, status)
	decode(t, env, &pending)
	assert.Empty(t, pending)
}

func TestDispatchReminders(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.register(t, "alice")
	bob := ts.register(t, "bob")
	aliceHabit := ts.habit(t, alice, "Read")
	ts.habit(t, bob, "Run")

	status, _ := ts.do(t, http.MethodPost, "/v1/habits/"+aliceHabit+"/complete", alice, nil)
	require.Equal(t, http.StatusOK, status)

	status, env := ts.do(t, http.MethodPost, "/v1/reminders/dispatch", "", fiber.Map{
		"reminder_type": "streak_21h",
		"user_ids":      []string{alice, bob},
	})
	require.Equal(t, http.StatusOK, status, env.Message)
	var report reminder.Report
	decode(t, env, &report)
	assert.Equal(t, 1, report.Targeted)
	assert.Equal(t, 1, report.Sent)
	assert.Equal(t, []string{bob}, ts.sent)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodGet, "/healthz", "", nil)

	resp, err := ts.server.App().Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `daystreak_http_requests_total{code="200",route="/healthz"} 1`)
}
