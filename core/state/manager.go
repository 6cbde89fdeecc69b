package state

import (
	"errors"
	"fmt"
	"sync"

	"tokensale/core/events"
	"tokensale/storage"
)

// ErrReadOnly is returned when a write is attempted inside View.
var ErrReadOnly = errors.New("state: read-only transaction")

// Manager owns the persistent sale state. Every externally triggered operation
// runs inside Update, which either commits all of its writes and events or
// none of them.
type Manager struct {
	mu      sync.Mutex
	db      storage.Database
	emitter events.Emitter
}

// NewManager creates a state manager operating on the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db, emitter: events.NoopEmitter{}}
}

// SetEmitter configures where committed events are delivered. Passing nil
// resets the emitter to a no-op implementation.
func (m *Manager) SetEmitter(emitter events.Emitter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if emitter == nil {
		m.emitter = events.NoopEmitter{}
		return
	}
	m.emitter = emitter
}

// Update runs fn against a write overlay. When fn returns nil the overlay is
// flushed through one atomic batch and the buffered events are emitted in
// order; otherwise both are discarded.
func (m *Manager) Update(fn func(tx *Tx) error) error {
	if fn == nil {
		return fmt.Errorf("state: nil update function")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := newTx(m.db, false)
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.commit(); err != nil {
		return fmt.Errorf("state: commit: %w", err)
	}
	for _, evt := range tx.events {
		m.emitter.Emit(evt)
	}
	return nil
}

// View runs fn against a read-only transaction.
func (m *Manager) View(fn func(tx *Tx) error) error {
	if fn == nil {
		return fmt.Errorf("state: nil view function")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(newTx(m.db, true))
}
