package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBroker_PublishReachesRoomSubscribers(t *testing.T) {
	b := NewMemoryBroker()
	ctx := context.Background()

	ch1, cancel1, err := b.Subscribe(ctx, "room-1")
	require.NoError(t, err)
	defer cancel1()
	ch2, cancel2, err := b.Subscribe(ctx, "room-1")
	require.NoError(t, err)
	defer cancel2()
	other, cancelOther, err := b.Subscribe(ctx, "room-2")
	require.NoError(t, err)
	defer cancelOther()

	require.NoError(t, b.Publish(ctx, Event{Type: EventRoundStarted, RoomID: "room-1"}))

	for _, ch := range []<-chan Event{ch1, ch2} {
		select {
		case ev := <-ch:
			assert.Equal(t, EventRoundStarted, ev.Type)
			assert.Equal(t, "room-1", ev.RoomID)
		default:
			t.Fatal("subscriber did not receive the event")
		}
	}

	select {
	case ev := <-other:
		t.Fatalf("room-2 subscriber got %+v", ev)
	default:
	}
}

func TestMemoryBroker_CancelClosesChannel(t *testing.T) {
	b := NewMemoryBroker()
	ctx := context.Background()

	ch, cancel, err := b.Subscribe(ctx, "room-1")
	require.NoError(t, err)

	cancel()
	cancel() // idempotent

	_, open := <-ch
	assert.False(t, open)

	// Publishing after the last subscriber left is a no-op, not a panic.
	require.NoError(t, b.Publish(ctx, Event{Type: EventRoomDeleted, RoomID: "room-1"}))
}

func TestMemoryBroker_SlowSubscriberDoesNotBlock(t *testing.T) {
	b := NewMemoryBroker()
	ctx := context.Background()

	_, cancel, err := b.Subscribe(ctx, "room-1")
	require.NoError(t, err)
	defer cancel()

	// Overflow the buffer; Publish must keep returning instead of blocking.
	for i := 0; i < 100; i++ {
		require.NoError(t, b.Publish(ctx, Event{Type: EventRoomUpdated, RoomID: "room-1"}))
	}
}
