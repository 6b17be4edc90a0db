package notify

import (
	"context"
	"sync"
)

// Event is a best-effort room-change hint. It never carries role or word
// data; clients re-fetch what they are allowed to see.
type Event struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId"`
}

const (
	EventRoomUpdated   = "room_updated"
	EventRosterChanged = "roster_changed"
	EventRoundStarted  = "round_started"
	EventRoundReset    = "round_reset"
	EventRoomDeleted   = "room_deleted"
)

// Broker fans room events out to subscribers. Delivery is best effort:
// clients must tolerate missed events by re-fetching on (re)connect.
type Broker interface {
	Publish(ctx context.Context, ev Event) error
	// Subscribe returns a channel of events for one room plus a cancel func.
	// The channel closes after cancel.
	Subscribe(ctx context.Context, roomID string) (<-chan Event, func(), error)
}

// MemoryBroker is an in-process Broker for tests and single-node runs.
type MemoryBroker struct {
	mu   sync.Mutex
	subs map[string]map[chan Event]struct{}
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{subs: make(map[string]map[chan Event]struct{})}
}

func (b *MemoryBroker) Publish(ctx context.Context, ev Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.subs[ev.RoomID] {
		select {
		case ch <- ev:
		default:
			// slow subscriber: drop rather than block the publisher
		}
	}
	return nil
}

func (b *MemoryBroker) Subscribe(ctx context.Context, roomID string) (<-chan Event, func(), error) {
	ch := make(chan Event, 16)

	b.mu.Lock()
	if b.subs[roomID] == nil {
		b.subs[roomID] = make(map[chan Event]struct{})
	}
	b.subs[roomID][ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs[roomID], ch)
			if len(b.subs[roomID]) == 0 {
				delete(b.subs, roomID)
			}
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel, nil
}
