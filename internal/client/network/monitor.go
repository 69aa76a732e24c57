// Package network tracks device connectivity for the offline-first data
// layer. The Monitor holds a cached online flag that repository
// operations consult synchronously, and notifies subscribers when the
// flag flips.
package network

import (
	"context"
	"sync"
	"time"
)

// Probe reports whether the device currently has connectivity.
type Probe func(ctx context.Context) bool

// Listener is called with the new state after each transition.
type Listener func(online bool)

type Monitor struct {
	mu        sync.RWMutex
	online    bool
	pinned    bool
	nextID    int
	listeners map[int]Listener
}

// NewMonitor returns a monitor in the given initial state.
func NewMonitor(initial bool) *Monitor {
	return &Monitor{online: initial, listeners: make(map[int]Listener)}
}

func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.online
}

// SetOnline records a platform observation. It is ignored while the
// monitor is pinned.
func (m *Monitor) SetOnline(online bool) {
	m.mu.Lock()
	if m.pinned {
		m.mu.Unlock()
		return
	}
	handlers := m.swapLocked(online)
	m.mu.Unlock()
	notify(handlers, online)
}

// Pin forces the state until Unpin is called.
func (m *Monitor) Pin(online bool) {
	m.mu.Lock()
	m.pinned = true
	handlers := m.swapLocked(online)
	m.mu.Unlock()
	notify(handlers, online)
}

func (m *Monitor) Unpin() {
	m.mu.Lock()
	m.pinned = false
	m.mu.Unlock()
}

func (m *Monitor) Pinned() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pinned
}

// Subscribe registers fn for state transitions. The returned function
// removes the subscription.
func (m *Monitor) Subscribe(fn Listener) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.listeners, id)
			m.mu.Unlock()
		})
	}
}

// swapLocked stores online and returns the listeners to notify, or nil
// when the state did not change. m.mu must be held.
func (m *Monitor) swapLocked(online bool) []Listener {
	if m.online == online {
		return nil
	}
	m.online = online
	handlers := make([]Listener, 0, len(m.listeners))
	for _, h := range m.listeners {
		handlers = append(handlers, h)
	}
	return handlers
}

func notify(handlers []Listener, online bool) {
	for _, h := range handlers {
		func() {
			defer func() { _ = recover() }() // swallow listener panics
			h(online)
		}()
	}
}

// Run polls probe every interval and feeds the result into SetOnline until
// ctx is cancelled. The first probe runs immediately.
func (m *Monitor) Run(ctx context.Context, interval time.Duration, probe Probe) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		m.SetOnline(probe(ctx))

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
