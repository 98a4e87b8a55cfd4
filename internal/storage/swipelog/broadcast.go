package storage_swipelog

import (
	"context"
	"sync"
)

// Broadcast is a Notifier for clients hosted by one process. It gives a
// local backing the same change feed the shared backings have.
type Broadcast struct {
	mu   sync.Mutex
	subs map[chan struct{}]struct{}
}

func NewBroadcast() *Broadcast {
	return &Broadcast{subs: make(map[chan struct{}]struct{})}
}

func (b *Broadcast) Publish(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	return nil
}

// Listen returns a coalescing channel that is closed once ctx is done.
func (b *Broadcast) Listen(ctx context.Context) (<-chan struct{}, error) {
	ch := make(chan struct{}, 1)

	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, ch)
		close(ch)
		b.mu.Unlock()
	}()
	return ch, nil
}

func (b *Broadcast) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.subs)
}
