package rewardfeed

import (
	"context"
	"sync"
)

// Broadcaster fans reward updates out to registered listeners. Each listener
// owns its channel, so one account's stream never consumes another's updates.
type Broadcaster struct {
	mu        sync.Mutex
	buffer    int
	listeners map[uint64]*listener
	nextID    uint64
}

type listener struct {
	accountID string
	ch        chan Update
}

// NewBroadcaster creates a broadcaster; buffer sizes each listener's channel.
func NewBroadcaster(buffer int) *Broadcaster {
	return &Broadcaster{
		buffer:    buffer,
		listeners: make(map[uint64]*listener),
	}
}

// Send delivers an update to every matching listener (non-blocking with drop
// on a full listener buffer).
func (b *Broadcaster) Send(update Update) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, l := range b.listeners {
		if l.accountID != "" && update.AccountID != l.accountID {
			continue
		}
		select {
		case l.ch <- update:
		default:
			// drop if this listener is slow; keep simple
		}
	}
}

// Listen registers a listener and returns its channel plus a cancel function.
// When accountID is non-empty, only that account's updates are delivered.
// The channel is closed when the listener is canceled.
func (b *Broadcaster) Listen(ctx context.Context, accountID string) (<-chan Update, context.CancelFunc) {
	l := &listener{
		accountID: accountID,
		ch:        make(chan Update, b.buffer),
	}

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.listeners[id] = l
	b.mu.Unlock()

	listenerCtx, cancel := context.WithCancel(ctx)
	go func() {
		<-listenerCtx.Done()
		// removal and close happen under the mutex so Send never writes
		// to a closed channel
		b.mu.Lock()
		delete(b.listeners, id)
		close(l.ch)
		b.mu.Unlock()
	}()

	return l.ch, cancel
}

// ListenerCount returns the number of registered listeners.
func (b *Broadcaster) ListenerCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners)
}
