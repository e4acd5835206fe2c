// Package wishlist owns the persistent saved-items collection:
// ordered, unique by product ID, durable across visits, with
// idempotent toggle semantics.
package wishlist

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/curetcore/velox-storefront/internal/domain"
	"github.com/curetcore/velox-storefront/internal/event"
)

// EventSink receives the store's domain events.
type EventSink interface {
	Publish(ctx context.Context, ev event.Event)
}

// Store holds one owner's wishlist. The in-memory collection is
// authoritative for the session; storage is written on every mutation
// and a failed write never rejects the mutation.
type Store struct {
	mu            sync.Mutex
	items         []domain.WishlistItem
	owner         string
	authenticated bool
	storage       Storage
	sink          EventSink
	logger        *slog.Logger
}

// NewStore constructs a store and loads the persisted collection. A
// load failure (including a corrupted payload) resets to an empty
// collection: losing saved items is acceptable, failing to start is
// not. Emits wishlist.initialized.
func NewStore(ctx context.Context, owner string, authenticated bool, storage Storage, sink EventSink, logger *slog.Logger) *Store {
	s := &Store{
		owner:         owner,
		authenticated: authenticated,
		storage:       storage,
		sink:          sink,
		logger:        logger,
	}

	items, err := storage.Load(ctx)
	if err != nil {
		logger.WarnContext(ctx, "wishlist load failed, starting empty",
			slog.String("owner", owner),
			slog.String("error", err.Error()),
		)
		items = nil
	}
	if items == nil {
		items = []domain.WishlistItem{}
	}
	s.items = items

	s.sink.Publish(ctx, event.Event{
		Type:    event.WishlistInitialized,
		Owner:   owner,
		Payload: event.WishlistPayload{Items: s.copyItems()},
	})

	return s
}

// Owner returns the session or customer ID this store belongs to.
func (s *Store) Owner() string { return s.owner }

// Authenticated reports whether the owner is a logged-in customer.
// Informational only; cross-device sync happens elsewhere.
func (s *Store) Authenticated() bool { return s.authenticated }

// Add appends the item with a server-independent timestamp. Returns
// false without side effects when the ID is empty or already present.
func (s *Store) Add(ctx context.Context, item domain.WishlistItem) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addLocked(ctx, item)
}

func (s *Store) addLocked(ctx context.Context, item domain.WishlistItem) bool {
	if item.ID == "" || s.indexOf(item.ID) >= 0 {
		return false
	}

	item.AddedAt = time.Now().UTC()
	s.items = append(s.items, item)
	s.persist(ctx)

	s.sink.Publish(ctx, event.Event{
		Type:    event.WishlistItemAdded,
		Owner:   s.owner,
		Payload: event.WishlistPayload{Item: &item, Items: s.copyItems()},
	})

	return true
}

// Remove deletes the item with the given ID, preserving the order of
// the rest. Returns false when the ID is not present.
func (s *Store) Remove(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked(ctx, id)
}

func (s *Store) removeLocked(ctx context.Context, id string) bool {
	idx := s.indexOf(id)
	if idx < 0 {
		return false
	}

	removed := s.items[idx]
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	s.persist(ctx)

	s.sink.Publish(ctx, event.Event{
		Type:    event.WishlistItemRemoved,
		Owner:   s.owner,
		Payload: event.WishlistPayload{Item: &removed, Items: s.copyItems()},
	})

	return true
}

// Toggle removes the item when present, adds it otherwise, and
// reports whether the item is in the collection afterwards. Two
// toggles of the same ID restore the original membership.
func (s *Store) Toggle(ctx context.Context, item domain.WishlistItem) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(item.ID) >= 0 {
		s.removeLocked(ctx, item.ID)
		return false
	}
	return s.addLocked(ctx, item)
}

// Has reports whether the ID is in the collection.
func (s *Store) Has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexOf(id) >= 0
}

// All returns a defensive copy in insertion (display) order.
func (s *Store) All() []domain.WishlistItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyItems()
}

// Count returns the number of saved items.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Clear empties the collection unconditionally.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = []domain.WishlistItem{}
	s.persist(ctx)

	s.sink.Publish(ctx, event.Event{
		Type:    event.WishlistCleared,
		Owner:   s.owner,
		Payload: event.WishlistPayload{Items: []domain.WishlistItem{}},
	})
}

// persist writes the collection to storage. A failure is logged and
// the in-memory state stays authoritative for the session.
func (s *Store) persist(ctx context.Context) {
	if err := s.storage.Save(ctx, s.items); err != nil {
		s.logger.WarnContext(ctx, "wishlist save failed, keeping in-memory state",
			slog.String("owner", s.owner),
			slog.Int("items", len(s.items)),
			slog.String("error", err.Error()),
		)
	}
}

func (s *Store) indexOf(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) copyItems() []domain.WishlistItem {
	out := make([]domain.WishlistItem, len(s.items))
	copy(out, s.items)
	return out
}
