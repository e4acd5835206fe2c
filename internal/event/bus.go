// Package event carries the domain events published by the storefront
// pipelines and the in-process bus that fans them out to subscribers
// (renderers, counters, analytics forwarders).
package event

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/curetcore/velox-storefront/internal/domain"
)

// Type identifies a domain event.
type Type string

const (
	WishlistInitialized Type = "wishlist.initialized"
	WishlistItemAdded   Type = "wishlist.item_added"
	WishlistItemRemoved Type = "wishlist.item_removed"
	WishlistCleared     Type = "wishlist.cleared"

	CartUpdated       Type = "cart.updated"
	CartNotice        Type = "cart.notice"
	CartUpsellsLoaded Type = "cart.upsells_loaded"

	SearchSettled Type = "search.settled"
	SearchCleared Type = "search.cleared"
)

// Event is one published domain event.
type Event struct {
	Type    Type      `json:"type"`
	Owner   string    `json:"owner"`
	At      time.Time `json:"at"`
	Payload any       `json:"payload"`
}

// WishlistPayload accompanies every wishlist event. Item is the
// affected record (nil for initialized and cleared); Items is the full
// collection after the mutation.
type WishlistPayload struct {
	Item  *domain.WishlistItem  `json:"item,omitempty"`
	Items []domain.WishlistItem `json:"items"`
}

// CartUpdatedPayload carries the replaced snapshot and everything a
// renderer needs to refresh the drawer in one pass.
type CartUpdatedPayload struct {
	Snapshot       domain.CartSnapshot     `json:"snapshot"`
	Shipping       domain.ShippingProgress `json:"shipping"`
	RemovedLineKey string                  `json:"removed_line_key,omitempty"`
	Empty          bool                    `json:"empty"`
}

// NoticePayload is a transient, auto-dismissing user notification.
type NoticePayload struct {
	Message string        `json:"message"`
	TTL     time.Duration `json:"ttl"`
}

// UpsellsPayload reports the upsell region's content, or that it
// should stay hidden.
type UpsellsPayload struct {
	Items  []domain.Recommendation `json:"items"`
	Hidden bool                    `json:"hidden"`
}

// SearchPayload reports a settled (or cleared) search session.
type SearchPayload struct {
	Query      string                `json:"query"`
	Generation uint64                `json:"generation"`
	Outcome    domain.SearchOutcome  `json:"outcome"`
	Results    []domain.SearchResult `json:"results,omitempty"`
}

// Handler consumes a published event.
type Handler func(ctx context.Context, ev Event)

// Bus is a synchronous in-process dispatcher. Publish runs every
// matching handler to completion on the calling goroutine, so wishlist
// mutations stay race-free within one intent.
type Bus struct {
	mu     sync.RWMutex
	subs   map[Type][]Handler
	all    []Handler
	logger *slog.Logger
}

// NewBus creates an empty bus.
func NewBus(logger *slog.Logger) *Bus {
	return &Bus{
		subs:   make(map[Type][]Handler),
		logger: logger,
	}
}

// Subscribe registers a handler for one event type.
func (b *Bus) Subscribe(t Type, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[t] = append(b.subs[t], h)
}

// SubscribeAll registers a handler for every event type.
func (b *Bus) SubscribeAll(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.all = append(b.all, h)
}

// Publish dispatches the event synchronously. A panicking handler is
// logged and skipped; it never propagates into the pipelines.
func (b *Bus) Publish(ctx context.Context, ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}

	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[ev.Type])+len(b.all))
	handlers = append(handlers, b.subs[ev.Type]...)
	handlers = append(handlers, b.all...)
	b.mu.RUnlock()

	for _, h := range handlers {
		b.dispatch(ctx, h, ev)
	}
}

func (b *Bus) dispatch(ctx context.Context, h Handler, ev Event) {
	defer func() {
		if rec := recover(); rec != nil {
			b.logger.ErrorContext(ctx, "event handler panicked",
				slog.String("event_type", string(ev.Type)),
				slog.Any("panic", rec),
			)
		}
	}()
	h(ctx, ev)
}
