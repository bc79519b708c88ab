package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	h := NewHub(zap.NewNop())
	go h.Run(ctx)
	t.Cleanup(cancel)
	return h, cancel
}

func receive(t *testing.T, sub *Subscription) (Event, bool) {
	t.Helper()
	select {
	case ev, ok := <-sub.Events():
		return ev, ok
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}, false
	}
}

func TestHub_DeliversOnlyOwnRows(t *testing.T) {
	h, _ := startHub(t)
	ctx := context.Background()
	u1, u2 := uuid.New(), uuid.New()

	sub, err := h.Subscribe(ctx, u1, nil)
	require.NoError(t, err)

	h.Publish(ctx, Event{Table: TableTasks, Type: "INSERT", UserID: u2})
	h.Publish(ctx, Event{Table: TableTasks, Type: "UPDATE", UserID: u1})

	ev, ok := receive(t, sub)
	require.True(t, ok)
	assert.Equal(t, u1, ev.UserID)
	assert.Equal(t, "UPDATE", ev.Type)
}

func TestHub_TableFilter(t *testing.T) {
	h, _ := startHub(t)
	ctx := context.Background()
	u1 := uuid.New()

	sub, err := h.Subscribe(ctx, u1, []string{TableNotifications})
	require.NoError(t, err)

	h.Publish(ctx, Event{Table: TableTasks, Type: "INSERT", UserID: u1})
	h.Publish(ctx, Event{Table: TableNotifications, Type: "INSERT", UserID: u1})

	ev, ok := receive(t, sub)
	require.True(t, ok)
	assert.Equal(t, TableNotifications, ev.Table)
}

func TestHub_DropsSlowSubscriber(t *testing.T) {
	h, _ := startHub(t)
	ctx := context.Background()
	u1 := uuid.New()

	sub, err := h.Subscribe(ctx, u1, nil)
	require.NoError(t, err)

	for i := 0; i < subscriberBuffer+1; i++ {
		h.Publish(ctx, Event{Table: TableTasks, Type: "INSERT", UserID: u1})
	}
	// Registration goes through the same loop, so the last event is handled once it returns.
	_, err = h.Subscribe(ctx, uuid.New(), nil)
	require.NoError(t, err)

	n := 0
	for range sub.Events() {
		n++
	}
	assert.Equal(t, subscriberBuffer, n)
}

func TestHub_StopClosesSubscriptions(t *testing.T) {
	h, cancel := startHub(t)
	sub, err := h.Subscribe(context.Background(), uuid.New(), nil)
	require.NoError(t, err)

	cancel()

	_, ok := receive(t, sub)
	assert.False(t, ok)

	<-h.done
	_, err = h.Subscribe(context.Background(), uuid.New(), nil)
	assert.ErrorIs(t, err, ErrHubClosed)
}

func TestHub_UnsubscribeTwice(t *testing.T) {
	h, _ := startHub(t)
	sub, err := h.Subscribe(context.Background(), uuid.New(), nil)
	require.NoError(t, err)

	h.Unsubscribe(sub)
	h.Unsubscribe(sub)

	_, ok := receive(t, sub)
	assert.False(t, ok)
}

func TestDecode(t *testing.T) {
	u1 := uuid.New()
	ev, err := Decode(`{"table":"tasks","type":"DELETE","user_id":"` + u1.String() + `","record":null,"old_record":{"id":"x"}}`)
	require.NoError(t, err)
	assert.Equal(t, TableTasks, ev.Table)
	assert.Equal(t, u1, ev.UserID)
	assert.JSONEq(t, `{"id":"x"}`, string(ev.OldRecord))

	_, err = Decode(`{"table":"tasks"}`)
	assert.Error(t, err)
	_, err = Decode(`not json`)
	assert.Error(t, err)

	assert.True(t, ValidTable("notifications"))
	assert.False(t, ValidTable("profiles"))
}
