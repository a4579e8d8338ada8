package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_JoinAndDeliver(t *testing.T) {
	hub := NewHub()
	a, err := hub.Join(10, nil)
	require.NoError(t, err)
	b, err := hub.Join(10, nil)
	require.NoError(t, err)
	other, err := hub.Join(11, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, hub.Listening(10))

	assert.Equal(t, 2, hub.Deliver(10, []byte("hello")))
	assert.Equal(t, "hello", string(<-a.outbox))
	assert.Equal(t, "hello", string(<-b.outbox))
	assert.Empty(t, other.outbox)

	hub.Remove(a)
	hub.Remove(a)
	assert.Equal(t, 1, hub.Listening(10))
	assert.False(t, a.Deliver([]byte("late")))

	require.NoError(t, hub.Shutdown(context.Background()))
	assert.Zero(t, hub.Listening(10))
	assert.False(t, b.Deliver([]byte("after shutdown")))
}

func TestHub_PerUserLimit(t *testing.T) {
	hub := NewHub()
	for range maxListenersPerUser {
		_, err := hub.Join(1, nil)
		require.NoError(t, err)
	}
	_, err := hub.Join(1, nil)
	assert.ErrorIs(t, err, ErrUserFull)

	_, err = hub.Join(2, nil)
	assert.NoError(t, err)
	_ = hub.Shutdown(context.Background())
}

func TestListener_DeliverDropsWhenFull(t *testing.T) {
	hub := NewHub()
	l, err := hub.Join(3, nil)
	require.NoError(t, err)
	for range outboxSize {
		require.True(t, l.Deliver([]byte("x")))
	}
	assert.False(t, l.Deliver([]byte("overflow")))
	assert.Len(t, l.outbox, outboxSize)
}

func TestHub_SubscribeForwardsUserChannels(t *testing.T) {
	rdb := newRedis(t)
	hub := NewHub()
	l, err := hub.Join(8, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	n := NewNotifier(rdb)
	require.NoError(t, hub.Subscribe(ctx, n))

	require.NoError(t, n.PublishUser(context.Background(), 8, `{"type":"chat_message"}`))
	select {
	case msg := <-l.outbox:
		assert.JSONEq(t, `{"type":"chat_message"}`, string(msg))
	case <-time.After(time.Second):
		t.Fatal("notification not forwarded")
	}
	_ = hub.Shutdown(context.Background())
}
