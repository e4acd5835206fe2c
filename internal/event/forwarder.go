package event

import (
	"context"
	"log/slog"
	"strings"

	pkgkafka "github.com/curetcore/velox-storefront/pkg/kafka"
)

// Kafka topics for storefront analytics.
const (
	TopicWishlist = "velox.storefront.wishlist"
	TopicCart     = "velox.storefront.cart"
)

// Source identifier stamped on forwarded events.
const SourceStorefront = "storefront-session"

// Forwarder republishes wishlist and cart events to Kafka for
// analytics consumers. Publish failures are logged and swallowed; the
// UI path never depends on the broker.
type Forwarder struct {
	producer *pkgkafka.Producer
	logger   *slog.Logger
}

// NewForwarder creates a Kafka forwarder.
func NewForwarder(producer *pkgkafka.Producer, logger *slog.Logger) *Forwarder {
	return &Forwarder{producer: producer, logger: logger}
}

// Handle implements the bus Handler signature. Search events are not
// forwarded; only durable-state changes interest analytics.
func (f *Forwarder) Handle(ctx context.Context, ev Event) {
	var topic, aggregate string
	switch {
	case strings.HasPrefix(string(ev.Type), "wishlist."):
		topic, aggregate = TopicWishlist, "wishlist"
	case ev.Type == CartUpdated:
		topic, aggregate = TopicCart, "cart"
	default:
		return
	}

	kev, err := pkgkafka.NewEvent(string(ev.Type), ev.Owner, aggregate, SourceStorefront, ev.Payload)
	if err != nil {
		f.logger.ErrorContext(ctx, "failed to build analytics event",
			slog.String("event_type", string(ev.Type)),
			slog.String("error", err.Error()),
		)
		return
	}

	if err := f.producer.Publish(ctx, topic, kev); err != nil {
		f.logger.WarnContext(ctx, "analytics event dropped",
			slog.String("topic", topic),
			slog.String("event_type", string(ev.Type)),
			slog.String("error", err.Error()),
		)
	}
}
