// Package netstate models network reachability for the sync engine.
//
// The engine only needs two things from the platform: whether the device
// is currently online, and a wake signal when that changes. [Provider]
// captures exactly that contract. [Manual] is a directly-settable provider
// for tests and for platforms that push connectivity events into Go;
// [Probe] derives the state by periodically dialing a known address.
package netstate

import "sync"

// Provider exposes the current reachability state and change notification.
// Implementations must be safe for concurrent use.
type Provider interface {
	// Online reports whether the network is currently reachable.
	Online() bool

	// Subscribe registers for change signals. The returned channel
	// receives a pulse after every state change (coalesced: a slow
	// reader sees at least one pulse, not necessarily one per change).
	// The cancel function releases the subscription.
	Subscribe() (<-chan struct{}, func())
}

// hub fans a change pulse out to all subscribers without blocking the
// notifier. Each subscriber channel has capacity 1 so pulses coalesce.
type hub struct {
	mu   sync.Mutex
	subs map[chan struct{}]struct{}
}

func newHub() *hub {
	return &hub{subs: make(map[chan struct{}]struct{})}
}

func (h *hub) subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		delete(h.subs, ch)
		h.mu.Unlock()
	}
	return ch, cancel
}

func (h *hub) broadcast() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// ──────────────────────────────────────────────────
// Manual
// ──────────────────────────────────────────────────

// Manual is a Provider whose state is set directly. Use it in tests, or
// wire platform connectivity callbacks into SetOnline.
type Manual struct {
	mu     sync.Mutex
	online bool
	hub    *hub
}

// NewManual creates a Manual provider with the given initial state.
func NewManual(online bool) *Manual {
	return &Manual{online: online, hub: newHub()}
}

// Online implements Provider.
func (m *Manual) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// SetOnline updates the state and notifies subscribers on change.
func (m *Manual) SetOnline(online bool) {
	m.mu.Lock()
	changed := m.online != online
	m.online = online
	m.mu.Unlock()

	if changed {
		m.hub.broadcast()
	}
}

// Subscribe implements Provider.
func (m *Manual) Subscribe() (<-chan struct{}, func()) {
	return m.hub.subscribe()
}
