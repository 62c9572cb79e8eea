package scheduler

import (
	"context"
	"sync"
)

// lockEntry is one conversation's exclusivity token plus a reference count
// of holders and waiters. An entry is removed from the table when the last
// reference goes away, so the table stays bounded by live conversations.
type lockEntry struct {
	refs int
	// token holds the exclusivity token when the lock is free. Blocked
	// receivers are serviced in arrival order by the runtime, which gives
	// admission-order execution within a conversation.
	token chan struct{}
}

// Locks is the conversation-lock table: safe concurrent acquire/release
// keyed by conversation id, with no leakage on failure paths.
type Locks struct {
	mu    sync.Mutex
	table map[string]*lockEntry
}

// NewLocks creates an empty lock table.
func NewLocks() *Locks {
	return &Locks{table: make(map[string]*lockEntry)}
}

// Acquire obtains the exclusivity token for conversationID, waiting if
// another caller holds it. The returned release function is idempotent and
// must be called on every exit path; Acquire itself releases its reference
// if ctx is cancelled while waiting.
func (l *Locks) Acquire(ctx context.Context, conversationID string) (release func(), err error) {
	l.mu.Lock()
	e, ok := l.table[conversationID]
	if !ok {
		e = &lockEntry{token: make(chan struct{}, 1)}
		e.token <- struct{}{}
		l.table[conversationID] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case <-e.token:
		var once sync.Once
		return func() {
			once.Do(func() {
				e.token <- struct{}{}
				l.unref(conversationID, e)
			})
		}, nil
	case <-ctx.Done():
		l.unref(conversationID, e)
		return nil, ctx.Err()
	}
}

func (l *Locks) unref(conversationID string, e *lockEntry) {
	l.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(l.table, conversationID)
	}
	l.mu.Unlock()
}

// Len returns the number of conversations currently tracked (held or
// contended). Exposed for tests and introspection.
func (l *Locks) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.table)
}
