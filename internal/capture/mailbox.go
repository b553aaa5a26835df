package capture

import (
	"context"
	"errors"
	"sync"
)

// ErrMailboxClosed is returned by Put and Take after Close.
var ErrMailboxClosed = errors.New("mailbox closed")

// Mailbox is a single-slot, latest-wins buffer between one producer and one
// consumer. Putting into a full mailbox replaces the pending item; the
// replaced item is handed to the drop function.
type Mailbox[T any] struct {
	mu     sync.Mutex
	item   T
	full   bool
	closed bool
	ready  chan struct{}
	drop   func(T)
}

// NewMailbox creates an empty mailbox. drop may be nil.
func NewMailbox[T any](drop func(T)) *Mailbox[T] {
	if drop == nil {
		drop = func(T) {}
	}
	return &Mailbox[T]{
		ready: make(chan struct{}, 1),
		drop:  drop,
	}
}

// Put stores v, replacing any pending item. It reports whether an item
// was replaced. On a closed mailbox v is dropped and ErrMailboxClosed returned.
func (m *Mailbox[T]) Put(v T) (bool, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		m.drop(v)
		return false, ErrMailboxClosed
	}

	old, replaced := m.item, m.full
	m.item = v
	m.full = true

	select {
	case m.ready <- struct{}{}:
	default:
	}
	m.mu.Unlock()

	if replaced {
		m.drop(old)
	}
	return replaced, nil
}

// Take blocks until an item is available, the mailbox is closed or ctx is done.
func (m *Mailbox[T]) Take(ctx context.Context) (T, error) {
	var zero T
	for {
		m.mu.Lock()
		if m.full {
			v := m.item
			m.item = zero
			m.full = false
			m.mu.Unlock()
			return v, nil
		}
		if m.closed {
			m.mu.Unlock()
			return zero, ErrMailboxClosed
		}
		m.mu.Unlock()

		select {
		case <-m.ready:
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
}

// Len returns 1 when an item is pending, 0 otherwise.
func (m *Mailbox[T]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.full {
		return 1
	}
	return 0
}

// Close wakes any waiting Take and drops the pending item. Close is idempotent.
func (m *Mailbox[T]) Close() {
	var zero T

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	old, pending := m.item, m.full
	m.item = zero
	m.full = false
	close(m.ready)
	m.mu.Unlock()

	if pending {
		m.drop(old)
	}
}
