package orchestrator

import (
	"sync"

	"github.com/Engusseus/Warframe-Market-Set-Profit-Analyzer/internal/domain"
)

// progressBus fans out Progress snapshots to SSE subscribers using a
// register/broadcast pattern guarded by a plain mutex. Publish is called
// both from the run goroutine and from the per-set worker goroutines; the
// mutex serializes them.
type progressBus struct {
	mu   sync.Mutex
	subs map[chan domain.Progress]struct{}
}

func newProgressBus() *progressBus {
	return &progressBus{subs: make(map[chan domain.Progress]struct{})}
}

// Subscribe registers a new subscriber channel. Callers must call the
// returned cancel function when done to avoid leaking the channel.
func (b *progressBus) Subscribe() (<-chan domain.Progress, func()) {
	ch := make(chan domain.Progress, 8)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if _, ok := b.subs[ch]; ok {
			delete(b.subs, ch)
			close(ch)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

// Publish sends p to every current subscriber, dropping it for any
// subscriber whose buffer is full rather than blocking the run loop.
func (b *progressBus) Publish(p domain.Progress) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- p:
		default:
		}
	}
}

// CloseAll closes and forgets every subscriber, used on terminal events so
// long-lived SSE handlers see channel closure and end the stream.
func (b *progressBus) CloseAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		close(ch)
		delete(b.subs, ch)
	}
}
