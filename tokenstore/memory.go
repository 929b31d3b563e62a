package tokenstore

import (
	"context"
	"sync"
)

// Memory is an in-process Store. Sharing one Memory between two session
// controllers models two browser tabs over the same origin storage, which is
// how the cross-tab behaviour is tested.
type Memory struct {
	mu       sync.Mutex
	pair     Pair
	watchers map[chan Pair]struct{}
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{watchers: make(map[chan Pair]struct{})}
}

// Save overwrites the stored pair and notifies watchers.
func (m *Memory) Save(_ context.Context, pair Pair) error {
	m.mu.Lock()
	m.pair = pair
	m.notifyLocked()
	m.mu.Unlock()
	return nil
}

// Clear removes both tokens and notifies watchers.
func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	m.pair = Pair{}
	m.notifyLocked()
	m.mu.Unlock()
	return nil
}

func (m *Memory) AccessToken(_ context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pair.AccessToken, nil
}

func (m *Memory) RefreshToken(_ context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pair.RefreshToken, nil
}

// Watch registers a change listener. The channel is closed and deregistered
// when ctx is cancelled.
func (m *Memory) Watch(ctx context.Context) (<-chan Pair, error) {
	ch := make(chan Pair, 8)
	m.mu.Lock()
	m.watchers[ch] = struct{}{}
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		delete(m.watchers, ch)
		m.mu.Unlock()
		close(ch)
	}()

	return ch, nil
}

// notifyLocked fans the current pair out to every watcher. A watcher that has
// fallen behind misses intermediate values, never the latest one, because the
// consumer re-derives from the received snapshot anyway.
func (m *Memory) notifyLocked() {
	for ch := range m.watchers {
		select {
		case ch <- m.pair:
		default:
			// Drop the oldest queued snapshot to make room for the newest.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- m.pair:
			default:
			}
		}
	}
}
