package reminder

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	prom "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/daystreak/internal/clock"
	apperrors "github.com/julianstephens/daystreak/internal/errors"
	"github.com/julianstephens/daystreak/internal/events"
	"github.com/julianstephens/daystreak/internal/ledger"
	"github.com/julianstephens/daystreak/internal/metrics"
	"github.com/julianstephens/daystreak/internal/testutil"
)

type inbox struct {
	mu   sync.Mutex
	got  map[string][]Message
	fail map[string]bool
}

func (b *inbox) Send(_ context.Context, userID string, m Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fail[userID] {
		return errors.New("no push token")
	}
	if b.got == nil {
		b.got = map[string][]Message{}
	}
	b.got[userID] = append(b.got[userID], m)
	return nil
}

func TestLookup(t *testing.T) {
	for _, typ := range Types() {
		m, err := Lookup(string(typ))
		require.NoError(t, err)
		assert.Equal(t, typ, m.Type)
		assert.NotEmpty(t, m.Title)
		assert.NotEmpty(t, m.Body)
	}
	assert.Len(t, Types(), 4)

	_, err := Lookup("streak_12h")
	assert.True(t, apperrors.IsValidation(err))

	assert.True(t, Streak21h.StreakOnly())
	assert.False(t, Daily.StreakOnly())
}

func TestDispatch(t *testing.T) {
	store := testutil.NewStore(t)
	clk := clock.NewFixedDay("2024-03-10")
	ctx := context.Background()

	done := testutil.AddUser(t, store, "done")
	behind := testutil.AddUser(t, store, "behind")
	broken := testutil.AddUser(t, store, "broken")
	h := testutil.AddHabit(t, store, done.ID, "Read", "2024-03-01")
	testutil.AddHabit(t, store, behind.ID, "Run", "2024-03-01")
	testutil.AddHabit(t, store, broken.ID, "Swim", "2024-03-01")
	testutil.Complete(t, store, h, "2024-03-10", true)

	m := metrics.New()
	box := &inbox{fail: map[string]bool{broken.ID: true}}
	d := New(store, ledger.New(store, clk, ledger.Options{}), box, clk, m)

	pending, err := d.Pending(ctx, Streak18h, nil)
	require.NoError(t, err)
	sort.Strings(pending)
	want := []string{behind.ID, broken.ID}
	sort.Strings(want)
	assert.Equal(t, want, pending)

	report, err := d.Dispatch(ctx, "streak_23h", nil)
	require.NoError(t, err)
	assert.Equal(t, Streak23h, report.Type)
	assert.Equal(t, 2, report.Targeted)
	assert.Equal(t, 1, report.Sent)
	assert.Equal(t, 1, report.Failed)
	assert.Contains(t, report.Errors, broken.ID)
	require.Len(t, box.got[behind.ID], 1)
	assert.Equal(t, Streak23h, box.got[behind.ID][0].Type)

	report, err = d.Dispatch(ctx, "daily", []string{done.ID, "missing"})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Targeted)
	assert.Equal(t, 1, report.Sent)

	assert.Equal(t, 2.0, prom.ToFloat64(m.Reminders.WithLabelValues("streak_23h", "sent"))+prom.ToFloat64(m.Reminders.WithLabelValues("daily", "sent")))
	assert.Equal(t, 1.0, prom.ToFloat64(m.Reminders.WithLabelValues("streak_23h", "failed")))

	_, err = d.Dispatch(ctx, "weekly", nil)
	assert.True(t, apperrors.IsValidation(err))
}

func TestEventSender(t *testing.T) {
	rec := &events.Recorder{}
	clk := clock.NewFixedDay("2024-03-10")
	s := EventSender{Publisher: rec, Clock: clk}

	msg, err := Lookup("daily")
	require.NoError(t, err)
	require.NoError(t, s.Send(context.Background(), "u1", msg))

	sent := rec.OfType(events.ReminderSent)
	require.Len(t, sent, 1)
	assert.Equal(t, "u1", sent[0].UserID)
	assert.Equal(t, "daily", sent[0].Data["reminder_type"])
}

func TestSenderFunc(t *testing.T) {
	var got string
	s := SenderFunc(func(_ context.Context, userID string, _ Message) error {
		got = userID
		return nil
	})
	require.NoError(t, s.Send(context.Background(), "u1", Message{}))
	assert.Equal(t, "u1", got)
}
