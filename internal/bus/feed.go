// Package bus provides the channel-based publish/subscribe primitive every
// manager uses to expose its snapshots. Ordering and coalescing stay explicit:
// a publisher decides when a value goes out, subscribers that fall behind drop
// intermediate values rather than backing the publisher up.
package bus

import (
	"sync"

	"github.com/google/uuid"
)

// Feed is a broadcast channel for equality-comparable snapshot values.
// Publish is idempotent: a value equal to the last published one is absorbed
// without waking subscribers, so redundant upstream notifications never cause
// a visible re-render downstream.
type Feed[T comparable] struct {
	mu   sync.RWMutex
	subs map[string]chan T
	last T
	seen bool
}

// NewFeed creates an empty feed.
func NewFeed[T comparable]() *Feed[T] {
	return &Feed[T]{subs: make(map[string]chan T)}
}

// Subscribe registers a new subscriber and returns its id and channel. The
// last published value, if any, is replayed immediately so late subscribers
// start from current state.
func (f *Feed[T]) Subscribe() (string, <-chan T) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := uuid.NewString()
	ch := make(chan T, 16)
	f.subs[id] = ch
	if f.seen {
		ch <- f.last
	}
	return id, ch
}

// Unsubscribe removes a subscription and closes its channel.
func (f *Feed[T]) Unsubscribe(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if ch, ok := f.subs[id]; ok {
		close(ch)
		delete(f.subs, id)
	}
}

// Publish broadcasts value to all subscribers unless it equals the previous
// published value. Sends are non-blocking: a full subscriber channel drops
// the value. Returns true if the value was actually published.
func (f *Feed[T]) Publish(value T) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.seen && value == f.last {
		return false
	}
	f.last = value
	f.seen = true

	for _, ch := range f.subs {
		select {
		case ch <- value:
		default:
			// Drop if subscriber can't keep up
		}
	}
	return true
}

// Last returns the most recently published value and whether one exists.
func (f *Feed[T]) Last() (T, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.last, f.seen
}
