// Package cart implements the optimistic cart mutation pipeline. The
// authoritative cart lives upstream; each mutation replaces the cached
// snapshot wholesale from the mutation response, and per-line
// generation counters fence off responses superseded by newer intents
// on the same line.
package cart

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/curetcore/velox-storefront/internal/domain"
	"github.com/curetcore/velox-storefront/internal/event"
	apperrors "github.com/curetcore/velox-storefront/pkg/errors"
)

// failureNotice is shown when a mutation is rejected upstream.
const failureNotice = "Could not update your cart. Please try again."

// StoreAPI is the authoritative storefront surface the pipeline
// mutates against.
type StoreAPI interface {
	ChangeLine(ctx context.Context, lineKey string, quantity int) (*domain.CartSnapshot, error)
	Recommendations(ctx context.Context, productID string, limit int) ([]domain.Recommendation, error)
}

// EventSink receives the pipeline's update, notice, and upsell events.
type EventSink interface {
	Publish(ctx context.Context, ev event.Event)
}

// Options bound one pipeline's behavior.
type Options struct {
	UpsellLimit int
	NoticeTTL   time.Duration
}

// lineState is the per-line mutation bookkeeping. Each new intent on a
// line bumps its generation; a response carrying an older generation
// is discarded in full.
type lineState struct {
	busy bool
	gen  uint64
}

// Pipeline is one session's cart state machine.
type Pipeline struct {
	owner    string
	api      StoreAPI
	sink     EventSink
	shipping *ShippingCalculator
	logger   *slog.Logger
	opts     Options

	mu       sync.Mutex
	snapshot domain.CartSnapshot
	progress domain.ShippingProgress
	lines    map[string]*lineState

	upsellArmed  bool
	upsells      []domain.Recommendation
	upsellHidden bool
}

// NewPipeline returns an empty-cart pipeline for one session.
func NewPipeline(owner string, api StoreAPI, sink EventSink, shipping *ShippingCalculator, opts Options, logger *slog.Logger) *Pipeline {
	p := &Pipeline{
		owner:    owner,
		api:      api,
		sink:     sink,
		shipping: shipping,
		logger:   logger,
		opts:     opts,
		lines:    make(map[string]*lineState),
	}
	p.progress = shipping.Progress(0)
	return p
}

// Snapshot returns the cached cart state and its derived shipping
// progress.
func (p *Pipeline) Snapshot() (domain.CartSnapshot, domain.ShippingProgress) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.copySnapshotLocked(), p.progress
}

// Prime seeds the pipeline with an externally fetched snapshot, e.g.
// the server-rendered cart state at session start. It goes through the
// same wholesale replacement as a mutation response.
func (p *Pipeline) Prime(ctx context.Context, snap domain.CartSnapshot) {
	p.mu.Lock()
	p.replaceLocked(snap)
	payload := p.updatePayloadLocked("")
	p.mu.Unlock()

	p.publishUpdated(ctx, payload)
}

// SetQuantity requests the authoritative quantity change for one line.
// Zero removes the line. On success the whole snapshot is replaced and
// shipping progress recomputed; on failure the cached state is left
// untouched and a transient notice is emitted. A response superseded
// by a newer intent on the same line is discarded entirely, including
// its snapshot.
func (p *Pipeline) SetQuantity(ctx context.Context, lineKey string, quantity int) (domain.CartSnapshot, error) {
	if lineKey == "" {
		return domain.CartSnapshot{}, apperrors.InvalidInput("line key is required")
	}
	if quantity < 0 {
		return domain.CartSnapshot{}, apperrors.InvalidInput("quantity must not be negative")
	}

	p.mu.Lock()
	ls, ok := p.lines[lineKey]
	if !ok {
		ls = &lineState{}
		p.lines[lineKey] = ls
	}
	ls.busy = true
	ls.gen++
	gen := ls.gen
	p.mu.Unlock()

	snap, err := p.api.ChangeLine(ctx, lineKey, quantity)

	p.mu.Lock()
	if gen != ls.gen {
		// A newer intent owns this line now; its response is the only
		// one that may touch the snapshot.
		current := p.copySnapshotLocked()
		p.mu.Unlock()
		return current, nil
	}
	ls.busy = false

	if err != nil {
		current := p.copySnapshotLocked()
		p.mu.Unlock()

		p.logger.WarnContext(ctx, "cart mutation rejected",
			slog.String("line_key", lineKey),
			slog.Int("quantity", quantity),
			slog.String("error", err.Error()),
		)
		p.sink.Publish(ctx, event.Event{
			Type:  event.CartNotice,
			Owner: p.owner,
			Payload: event.NoticePayload{
				Message: failureNotice,
				TTL:     p.opts.NoticeTTL,
			},
		})
		return current, err
	}

	p.replaceLocked(*snap)
	removedKey := ""
	if quantity == 0 && p.snapshot.Line(lineKey) == nil {
		removedKey = lineKey
		delete(p.lines, lineKey)
	}
	payload := p.updatePayloadLocked(removedKey)
	current := p.copySnapshotLocked()
	p.mu.Unlock()

	p.publishUpdated(ctx, payload)
	return current, nil
}

// RemoveLine removes a line outright.
func (p *Pipeline) RemoveLine(ctx context.Context, lineKey string) (domain.CartSnapshot, error) {
	return p.SetQuantity(ctx, lineKey, 0)
}

// LineBusy reports whether a mutation is in flight for the line.
func (p *Pipeline) LineBusy(lineKey string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	ls, ok := p.lines[lineKey]
	return ok && ls.busy
}

// LoadUpsells fetches recommendations seeded from the first cart line,
// at most once per pipeline lifetime. The latch arms before the
// request is issued, so a failed or empty fetch hides the region for
// good rather than retrying. Products already in the cart are filtered
// out, and the result is capped at the configured limit.
func (p *Pipeline) LoadUpsells(ctx context.Context) ([]domain.Recommendation, bool) {
	p.mu.Lock()
	if p.upsellArmed {
		items := append([]domain.Recommendation(nil), p.upsells...)
		hidden := p.upsellHidden
		p.mu.Unlock()
		return items, hidden
	}
	p.upsellArmed = true

	if len(p.snapshot.Lines) == 0 {
		p.upsellHidden = true
		p.mu.Unlock()
		p.publishUpsells(ctx, nil, true)
		return nil, true
	}
	seed := p.snapshot.Lines[0].ProductID
	p.mu.Unlock()

	// Over-fetch so carted products can be filtered out without
	// starving the region.
	recs, err := p.api.Recommendations(ctx, strconv.FormatInt(seed, 10), p.opts.UpsellLimit*2)
	if err != nil {
		p.logger.WarnContext(ctx, "upsell fetch failed",
			slog.Int64("seed_product_id", seed),
			slog.String("error", err.Error()),
		)
	}

	p.mu.Lock()
	kept := make([]domain.Recommendation, 0, p.opts.UpsellLimit)
	for _, rec := range recs {
		if p.snapshot.HasHandle(rec.Handle) {
			continue
		}
		kept = append(kept, rec)
		if len(kept) == p.opts.UpsellLimit {
			break
		}
	}
	hidden := len(kept) == 0
	p.upsells = kept
	p.upsellHidden = hidden
	p.mu.Unlock()

	p.publishUpsells(ctx, kept, hidden)
	return append([]domain.Recommendation(nil), kept...), hidden
}

// replaceLocked swaps in the authoritative snapshot and recomputes the
// derived shipping progress. Caller holds p.mu.
func (p *Pipeline) replaceLocked(snap domain.CartSnapshot) {
	if snap.Lines == nil {
		snap.Lines = []domain.CartLine{}
	}
	p.snapshot = snap
	p.progress = p.shipping.Progress(snap.TotalPrice)
}

func (p *Pipeline) copySnapshotLocked() domain.CartSnapshot {
	out := p.snapshot
	out.Lines = append([]domain.CartLine(nil), p.snapshot.Lines...)
	return out
}

func (p *Pipeline) updatePayloadLocked(removedKey string) event.CartUpdatedPayload {
	return event.CartUpdatedPayload{
		Snapshot:       p.copySnapshotLocked(),
		Shipping:       p.progress,
		RemovedLineKey: removedKey,
		Empty:          p.snapshot.IsEmpty(),
	}
}

func (p *Pipeline) publishUpdated(ctx context.Context, payload event.CartUpdatedPayload) {
	p.sink.Publish(ctx, event.Event{
		Type:    event.CartUpdated,
		Owner:   p.owner,
		Payload: payload,
	})
}

func (p *Pipeline) publishUpsells(ctx context.Context, items []domain.Recommendation, hidden bool) {
	p.sink.Publish(ctx, event.Event{
		Type:    event.CartUpsellsLoaded,
		Owner:   p.owner,
		Payload: event.UpsellsPayload{Items: items, Hidden: hidden},
	})
}
