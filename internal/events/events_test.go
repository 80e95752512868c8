package events

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubject(t *testing.T) {
	assert.Equal(t, "daystreak.events.level_up", Subject("daystreak.events", LevelUp))
	assert.Equal(t, "app.streak_broken", Subject("app.", StreakBroken))
}

func TestEventJSON(t *testing.T) {
	at := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	e := New(StreakMilestone, "u1", at, map[string]interface{}{"days": 7})

	data, err := json.Marshal(e)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"streak_milestone","user_id":"u1","time":"2024-03-10T12:00:00Z","data":{"days":7}}`, string(data))
}

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = r.Publish(ctx, Event{Type: HabitCompleted, UserID: "u1"})
		}()
	}
	wg.Wait()
	require.NoError(t, r.Publish(ctx, Event{Type: LevelUp, UserID: "u1"}))

	assert.Len(t, r.Events(), 11)
	assert.Len(t, r.OfType(HabitCompleted), 10)
	assert.Len(t, r.OfType(LevelUp), 1)
	assert.Empty(t, r.OfType(StreakBroken))
}

func TestLogAndNopPublishers(t *testing.T) {
	ctx := context.Background()
	for _, p := range []Publisher{NewLogPublisher(), Nop{}} {
		assert.NoError(t, p.Publish(ctx, Event{Type: ReminderSent, UserID: "u1", Data: map[string]interface{}{"k": "v"}}))
		assert.NoError(t, p.Close())
	}
}

func TestNewNATSPublisherRequiresURL(t *testing.T) {
	_, err := NewNATSPublisher("  ", "")
	assert.Error(t, err)
}

func TestNewNATSPublisherUnreachable(t *testing.T) {
	_, err := NewNATSPublisher("nats://127.0.0.1:1", "")
	assert.Error(t, err)
}
