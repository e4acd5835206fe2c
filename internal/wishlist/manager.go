package wishlist

import (
	"context"
	"log/slog"
	"sync"
)

// StorageFactory builds the Storage for one owner's collection.
type StorageFactory func(owner string) Storage

// Manager hands out one Store per owner, loading from storage on
// first access. A second replica (or browser tab) served elsewhere may
// observe a stale collection until its own first access; see the
// design notes.
type Manager struct {
	mu         sync.Mutex
	stores     map[string]*Store
	newStorage StorageFactory
	sink       EventSink
	logger     *slog.Logger
}

// NewManager creates a manager backed by the given storage factory.
func NewManager(newStorage StorageFactory, sink EventSink, logger *slog.Logger) *Manager {
	return &Manager{
		stores:     make(map[string]*Store),
		newStorage: newStorage,
		sink:       sink,
		logger:     logger,
	}
}

// Get returns the owner's store, constructing and loading it on first
// access.
func (m *Manager) Get(ctx context.Context, owner string, authenticated bool) *Store {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.stores[owner]; ok {
		return s
	}

	s := NewStore(ctx, owner, authenticated, m.newStorage(owner), m.sink, m.logger)
	m.stores[owner] = s
	return s
}

// Release drops the in-memory store for an owner; the persisted
// collection is untouched and reloads on next access.
func (m *Manager) Release(owner string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.stores, owner)
}
