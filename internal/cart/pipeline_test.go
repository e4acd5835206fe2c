package cart

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curetcore/velox-storefront/internal/domain"
	"github.com/curetcore/velox-storefront/internal/event"
	"github.com/curetcore/velox-storefront/internal/money"
)

type changeCall struct {
	lineKey  string
	quantity int
	reply    chan changeReply
}

type changeReply struct {
	snap *domain.CartSnapshot
	err  error
}

// fakeStoreAPI answers ChangeLine from a queue of canned replies, or
// blocks per call when gated, so responses can land out of order.
type fakeStoreAPI struct {
	mu      sync.Mutex
	gated   bool
	calls   []*changeCall
	replies []changeReply

	recCalls   int
	recSeed    string
	recLimit   int
	recResults []domain.Recommendation
	recErr     error
}

func (f *fakeStoreAPI) ChangeLine(ctx context.Context, lineKey string, quantity int) (*domain.CartSnapshot, error) {
	f.mu.Lock()
	call := &changeCall{lineKey: lineKey, quantity: quantity, reply: make(chan changeReply, 1)}
	f.calls = append(f.calls, call)
	if !f.gated {
		r := f.replies[0]
		f.replies = f.replies[1:]
		call.reply <- r
	}
	f.mu.Unlock()

	r := <-call.reply
	return r.snap, r.err
}

func (f *fakeStoreAPI) Recommendations(ctx context.Context, productID string, limit int) ([]domain.Recommendation, error) {
	f.mu.Lock()
	f.recCalls++
	f.recSeed = productID
	f.recLimit = limit
	f.mu.Unlock()
	return f.recResults, f.recErr
}

func (f *fakeStoreAPI) queue(snap *domain.CartSnapshot, err error) {
	f.mu.Lock()
	f.replies = append(f.replies, changeReply{snap: snap, err: err})
	f.mu.Unlock()
}

func (f *fakeStoreAPI) call(i int) *changeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i >= len(f.calls) {
		return nil
	}
	return f.calls[i]
}

// syncSink records events; safe for publication from other goroutines.
type syncSink struct {
	mu     sync.Mutex
	events []event.Event
}

func (s *syncSink) Publish(ctx context.Context, ev event.Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	s.mu.Unlock()
}

func (s *syncSink) byType(t event.Type) []event.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []event.Event
	for _, ev := range s.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

func newTestPipeline(api StoreAPI) (*Pipeline, *syncSink) {
	sink := &syncSink{}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	shipping := NewShippingCalculator(200000, "You have free shipping!", "Add {amount} more for free shipping", money.NewFormatter(nil))
	opts := Options{UpsellLimit: 4, NoticeTTL: 3 * time.Second}
	return NewPipeline("sess-1", api, sink, shipping, opts, logger), sink
}

func snapshot(total int64, lines ...domain.CartLine) *domain.CartSnapshot {
	count := 0
	for _, l := range lines {
		count += l.Quantity
	}
	return &domain.CartSnapshot{Lines: lines, TotalPrice: total, ItemCount: count}
}

func line(key string, productID int64, handle string, qty int) domain.CartLine {
	return domain.CartLine{
		Key:       key,
		ProductID: productID,
		Quantity:  qty,
		Handle:    handle,
		Title:     "Product " + handle,
		UnitPrice: 5000,
		LinePrice: int64(qty) * 5000,
	}
}

func TestPipeline_SetQuantityReplacesSnapshot(t *testing.T) {
	api := &fakeStoreAPI{}
	api.queue(snapshot(150000, line("l1", 101, "hat", 3)), nil)
	p, sink := newTestPipeline(api)

	got, err := p.SetQuantity(context.Background(), "l1", 3)
	require.NoError(t, err)

	assert.Equal(t, int64(150000), got.TotalPrice)
	assert.Equal(t, 3, got.ItemCount)

	updates := sink.byType(event.CartUpdated)
	require.Len(t, updates, 1)
	payload := updates[0].Payload.(event.CartUpdatedPayload)
	assert.Equal(t, int64(150000), payload.Snapshot.TotalPrice)
	assert.InDelta(t, 75.0, payload.Shipping.Percent, 0.001)
	assert.Equal(t, int64(50000), payload.Shipping.Remaining)
	assert.False(t, payload.Empty)
	assert.Empty(t, payload.RemovedLineKey)
	assert.False(t, p.LineBusy("l1"))
}

func TestPipeline_FailureLeavesSnapshotUntouched(t *testing.T) {
	api := &fakeStoreAPI{}
	api.queue(snapshot(100000, line("l1", 101, "hat", 2)), nil)
	api.queue(nil, errors.New("variant sold out"))
	p, sink := newTestPipeline(api)
	ctx := context.Background()

	_, err := p.SetQuantity(ctx, "l1", 2)
	require.NoError(t, err)

	_, err = p.SetQuantity(ctx, "l1", 9)
	require.Error(t, err)

	snap, progress := p.Snapshot()
	assert.Equal(t, int64(100000), snap.TotalPrice)
	require.Len(t, snap.Lines, 1)
	assert.Equal(t, 2, snap.Lines[0].Quantity)
	assert.InDelta(t, 50.0, progress.Percent, 0.001)
	assert.False(t, p.LineBusy("l1"))

	notices := sink.byType(event.CartNotice)
	require.Len(t, notices, 1)
	payload := notices[0].Payload.(event.NoticePayload)
	assert.Equal(t, "Could not update your cart. Please try again.", payload.Message)
	assert.Equal(t, 3*time.Second, payload.TTL)

	// Only the first, successful mutation produced an update.
	assert.Len(t, sink.byType(event.CartUpdated), 1)
}

func TestPipeline_RemovalReportsLineKey(t *testing.T) {
	api := &fakeStoreAPI{}
	api.queue(snapshot(100000, line("l1", 101, "hat", 1), line("l2", 102, "scarf", 1)), nil)
	api.queue(snapshot(50000, line("l2", 102, "scarf", 1)), nil)
	p, sink := newTestPipeline(api)
	ctx := context.Background()

	_, err := p.SetQuantity(ctx, "l1", 1)
	require.NoError(t, err)

	_, err = p.RemoveLine(ctx, "l1")
	require.NoError(t, err)

	updates := sink.byType(event.CartUpdated)
	require.Len(t, updates, 2)
	payload := updates[1].Payload.(event.CartUpdatedPayload)
	assert.Equal(t, "l1", payload.RemovedLineKey)
	assert.False(t, payload.Empty)
}

func TestPipeline_LastRemovalMarksEmpty(t *testing.T) {
	api := &fakeStoreAPI{}
	api.queue(snapshot(0), nil)
	p, sink := newTestPipeline(api)

	_, err := p.SetQuantity(context.Background(), "l1", 0)
	require.NoError(t, err)

	updates := sink.byType(event.CartUpdated)
	require.Len(t, updates, 1)
	payload := updates[0].Payload.(event.CartUpdatedPayload)
	assert.True(t, payload.Empty)
	assert.Equal(t, "l1", payload.RemovedLineKey)
	assert.Equal(t, 0.0, payload.Shipping.Percent)
	assert.Equal(t, int64(200000), payload.Shipping.Remaining)
}

func TestPipeline_StaleResponseDiscarded(t *testing.T) {
	api := &fakeStoreAPI{gated: true}
	p, sink := newTestPipeline(api)
	ctx := context.Background()

	results := make(chan domain.CartSnapshot, 2)
	go func() {
		snap, _ := p.SetQuantity(ctx, "l1", 2)
		results <- snap
	}()
	require.Eventually(t, func() bool { return api.call(0) != nil }, time.Second, 5*time.Millisecond)

	go func() {
		snap, _ := p.SetQuantity(ctx, "l1", 5)
		results <- snap
	}()
	require.Eventually(t, func() bool { return api.call(1) != nil }, time.Second, 5*time.Millisecond)

	// The newer intent's response lands first and wins.
	api.call(1).reply <- changeReply{snap: snapshot(25000, line("l1", 101, "hat", 5))}
	require.Eventually(t, func() bool {
		return len(sink.byType(event.CartUpdated)) == 1
	}, time.Second, 5*time.Millisecond)

	// The superseded response must not replace the snapshot.
	api.call(0).reply <- changeReply{snap: snapshot(10000, line("l1", 101, "hat", 2))}
	<-results
	<-results

	snap, _ := p.Snapshot()
	require.Len(t, snap.Lines, 1)
	assert.Equal(t, 5, snap.Lines[0].Quantity)
	assert.Equal(t, int64(25000), snap.TotalPrice)
	assert.Len(t, sink.byType(event.CartUpdated), 1)
}

func TestPipeline_LineBusyWhileInFlight(t *testing.T) {
	api := &fakeStoreAPI{gated: true}
	p, _ := newTestPipeline(api)

	done := make(chan struct{})
	go func() {
		p.SetQuantity(context.Background(), "l1", 2)
		close(done)
	}()
	require.Eventually(t, func() bool { return api.call(0) != nil }, time.Second, 5*time.Millisecond)

	assert.True(t, p.LineBusy("l1"))
	assert.False(t, p.LineBusy("l2"))

	api.call(0).reply <- changeReply{snap: snapshot(10000, line("l1", 101, "hat", 2))}
	<-done
	assert.False(t, p.LineBusy("l1"))
}

func TestPipeline_RejectsInvalidInput(t *testing.T) {
	p, _ := newTestPipeline(&fakeStoreAPI{})
	ctx := context.Background()

	_, err := p.SetQuantity(ctx, "", 1)
	assert.Error(t, err)

	_, err = p.SetQuantity(ctx, "l1", -1)
	assert.Error(t, err)
}

func TestPipeline_PrimeSeedsSnapshot(t *testing.T) {
	p, sink := newTestPipeline(&fakeStoreAPI{})

	p.Prime(context.Background(), *snapshot(200000, line("l1", 101, "hat", 4)))

	snap, progress := p.Snapshot()
	assert.Equal(t, int64(200000), snap.TotalPrice)
	assert.True(t, progress.Achieved)
	assert.Equal(t, "You have free shipping!", progress.Message)
	assert.Len(t, sink.byType(event.CartUpdated), 1)
}

func TestPipeline_UpsellsFilteredAndCapped(t *testing.T) {
	api := &fakeStoreAPI{
		recResults: []domain.Recommendation{
			{Handle: "hat", Title: "Hat"}, // already in cart
			{Handle: "scarf", Title: "Scarf"},
			{Handle: "gloves", Title: "Gloves"},
			{Handle: "boots", Title: "Boots"},
			{Handle: "coat", Title: "Coat"},
			{Handle: "belt", Title: "Belt"},
		},
	}
	p, sink := newTestPipeline(api)
	p.Prime(context.Background(), *snapshot(50000, line("l1", 101, "hat", 1)))

	items, hidden := p.LoadUpsells(context.Background())
	assert.False(t, hidden)
	require.Len(t, items, 4)
	assert.Equal(t, "scarf", items[0].Handle)
	assert.Equal(t, "101", api.recSeed)
	assert.Equal(t, 8, api.recLimit)

	loaded := sink.byType(event.CartUpsellsLoaded)
	require.Len(t, loaded, 1)
	payload := loaded[0].Payload.(event.UpsellsPayload)
	assert.False(t, payload.Hidden)
	assert.Len(t, payload.Items, 4)
}

func TestPipeline_UpsellLatchFiresOnce(t *testing.T) {
	api := &fakeStoreAPI{
		recResults: []domain.Recommendation{{Handle: "scarf", Title: "Scarf"}},
	}
	p, _ := newTestPipeline(api)
	p.Prime(context.Background(), *snapshot(50000, line("l1", 101, "hat", 1)))

	first, _ := p.LoadUpsells(context.Background())
	second, _ := p.LoadUpsells(context.Background())

	assert.Equal(t, 1, api.recCalls)
	assert.Equal(t, first, second)
}

func TestPipeline_UpsellErrorHidesForGood(t *testing.T) {
	api := &fakeStoreAPI{recErr: errors.New("recommendations unavailable")}
	p, sink := newTestPipeline(api)
	p.Prime(context.Background(), *snapshot(50000, line("l1", 101, "hat", 1)))

	items, hidden := p.LoadUpsells(context.Background())
	assert.True(t, hidden)
	assert.Empty(t, items)

	// The latch armed before the request; no retry on later calls.
	_, hidden = p.LoadUpsells(context.Background())
	assert.True(t, hidden)
	assert.Equal(t, 1, api.recCalls)

	loaded := sink.byType(event.CartUpsellsLoaded)
	require.Len(t, loaded, 1)
	assert.True(t, loaded[0].Payload.(event.UpsellsPayload).Hidden)
}

func TestPipeline_UpsellsOnEmptyCartHiddenWithoutRequest(t *testing.T) {
	api := &fakeStoreAPI{}
	p, _ := newTestPipeline(api)

	_, hidden := p.LoadUpsells(context.Background())
	assert.True(t, hidden)
	assert.Equal(t, 0, api.recCalls)
}

func TestManager_PipelinePerSession(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	shipping := NewShippingCalculator(200000, "ok", "{amount}", money.NewFormatter(nil))
	mgr := NewManager(&fakeStoreAPI{}, &syncSink{}, shipping, Options{UpsellLimit: 4, NoticeTTL: time.Second}, logger)

	a1 := mgr.Get("sess-a")
	a2 := mgr.Get("sess-a")
	b := mgr.Get("sess-b")

	assert.Same(t, a1, a2)
	assert.NotSame(t, a1, b)

	mgr.Release("sess-a")
	assert.NotSame(t, a1, mgr.Get("sess-a"))
}
