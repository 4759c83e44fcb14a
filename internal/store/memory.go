package store

import (
	"sync"
)

const subscriberBuffer = 100

// MemoryStore is an in-memory implementation of [Store].
//
// MemoryStore keeps a single [ViewState], replaced wholesale on every
// update. Subscribers receive updates via buffered channels (buffer size
// 100). Updates are sent non-blocking; if a subscriber's buffer is full the
// update is dropped for that subscriber.
type MemoryStore struct {
	mu          sync.RWMutex
	state       ViewState
	subscribers map[chan ViewState]struct{}
	subMu       sync.RWMutex
}

// NewMemoryStore creates a new in-memory [Store] implementation.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		subscribers: make(map[chan ViewState]struct{}),
	}
}

// Update stores a copy of state and notifies all subscribers.
func (m *MemoryStore) Update(state ViewState) {
	state = state.Clone()

	m.mu.Lock()
	m.state = state
	m.mu.Unlock()

	m.notifySubscribers(state)
}

// Get returns a copy of the current state.
func (m *MemoryStore) Get() ViewState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.Clone()
}

// Subscribe creates a new subscription and returns a channel for receiving updates.
//
// Caller must call [MemoryStore.Unsubscribe] when done to prevent resource leaks.
func (m *MemoryStore) Subscribe() <-chan ViewState {
	ch := make(chan ViewState, subscriberBuffer)

	m.subMu.Lock()
	m.subscribers[ch] = struct{}{}
	m.subMu.Unlock()

	return ch
}

// Unsubscribe removes a subscription and closes its channel.
//
// Safe to call multiple times or with an unknown channel.
func (m *MemoryStore) Unsubscribe(ch <-chan ViewState) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	for subCh := range m.subscribers {
		if subCh == ch {
			delete(m.subscribers, subCh)
			close(subCh)
			break
		}
	}
}

// notifySubscribers sends the state to all active subscribers without blocking.
func (m *MemoryStore) notifySubscribers(state ViewState) {
	m.subMu.RLock()
	defer m.subMu.RUnlock()

	for ch := range m.subscribers {
		select {
		case ch <- state.Clone():
		default:
			// subscriber is slow, drop the message
		}
	}
}
