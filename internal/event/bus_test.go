package event

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestBus_SubscribeAndPublish(t *testing.T) {
	bus := NewBus(testLogger())
	ctx := context.Background()

	var added, all int
	bus.Subscribe(WishlistItemAdded, func(ctx context.Context, ev Event) { added++ })
	bus.SubscribeAll(func(ctx context.Context, ev Event) { all++ })

	bus.Publish(ctx, Event{Type: WishlistItemAdded, Owner: "sess-1"})
	bus.Publish(ctx, Event{Type: CartUpdated, Owner: "sess-1"})

	assert.Equal(t, 1, added)
	assert.Equal(t, 2, all)
}

func TestBus_PublishSetsTimestamp(t *testing.T) {
	bus := NewBus(testLogger())

	var got Event
	bus.Subscribe(CartNotice, func(ctx context.Context, ev Event) { got = ev })

	bus.Publish(context.Background(), Event{Type: CartNotice, Owner: "sess-1"})

	assert.False(t, got.At.IsZero())
}

func TestBus_PanickingHandlerIsIsolated(t *testing.T) {
	bus := NewBus(testLogger())

	var reached bool
	bus.Subscribe(CartUpdated, func(ctx context.Context, ev Event) { panic("renderer bug") })
	bus.Subscribe(CartUpdated, func(ctx context.Context, ev Event) { reached = true })

	assert.NotPanics(t, func() {
		bus.Publish(context.Background(), Event{Type: CartUpdated, Owner: "sess-1"})
	})
	assert.True(t, reached)
}
