package search

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
)

type suggestReply struct {
	results []domain.SearchResult
	err     error
}

// gatedSearcher blocks each Suggest call until the test releases it,
// so responses can be delivered out of order.
type gatedSearcher struct {
	mu      sync.Mutex
	pending map[string]chan suggestReply
	calls   []string
}

func newGatedSearcher() *gatedSearcher {
	return &gatedSearcher{pending: make(map[string]chan suggestReply)}
}

func (g *gatedSearcher) Suggest(ctx context.Context, query string, limit int) ([]domain.SearchResult, error) {
	ch := make(chan suggestReply, 1)
	g.mu.Lock()
	g.calls = append(g.calls, query)
	g.pending[query] = ch
	g.mu.Unlock()
	r := <-ch
	return r.results, r.err
}

func (g *gatedSearcher) inFlight(query string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.pending[query]
	return ok
}

func (g *gatedSearcher) release(query string, results []domain.SearchResult, err error) {
	g.mu.Lock()
	ch := g.pending[query]
	delete(g.pending, query)
	g.mu.Unlock()
	ch <- suggestReply{results: results, err: err}
}

func (g *gatedSearcher) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

// stubSearcher answers immediately with fixed results.
type stubSearcher struct {
	mu      sync.Mutex
	calls   []string
	results []domain.SearchResult
	err     error
}

func (s *stubSearcher) Suggest(ctx context.Context, query string, limit int) ([]domain.SearchResult, error) {
	s.mu.Lock()
	s.calls = append(s.calls, query)
	s.mu.Unlock()
	return s.results, s.err
}

func (s *stubSearcher) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// asyncSink records events published from timer goroutines.
type asyncSink struct {
	mu     sync.Mutex
	events []event.Event
}

func (a *asyncSink) Publish(ctx context.Context, ev event.Event) {
	a.mu.Lock()
	a.events = append(a.events, ev)
	a.mu.Unlock()
}

func (a *asyncSink) settled() []event.SearchPayload {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []event.SearchPayload
	for _, ev := range a.events {
		if ev.Type == event.SearchSettled {
			out = append(out, ev.Payload.(event.SearchPayload))
		}
	}
	return out
}

func (a *asyncSink) has(t event.Type) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, ev := range a.events {
		if ev.Type == t {
			return true
		}
	}
	return false
}

func testOptions() Options {
	return Options{
		Debounce:    10 * time.Millisecond,
		MinQueryLen: 2,
		MaxResults:  6,
	}
}

func newTestPipeline(searcher Searcher) (*Pipeline, *asyncSink) {
	sink := &asyncSink{}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewPipeline("sess-1", searcher, sink, testOptions(), logger), sink
}

func results(titles ...string) []domain.SearchResult {
	out := make([]domain.SearchResult, len(titles))
	for i, title := range titles {
		out[i] = domain.SearchResult{Title: title, URL: "/products/" + title, Price: 1000}
	}
	return out
}

func TestPipeline_ShortQueryStaysIdle(t *testing.T) {
	searcher := &stubSearcher{results: results("hat")}
	p, _ := newTestPipeline(searcher)
	ctx := context.Background()

	p.Submit(ctx, "h")
	p.Submit(ctx, " ") // whitespace trims to empty

	time.Sleep(50 * time.Millisecond)
	state, _, _, _ := p.Snapshot()
	assert.Equal(t, domain.SearchIdle, state)
	assert.Equal(t, 0, searcher.callCount())
}

func TestPipeline_ShortQueryCancelsPending(t *testing.T) {
	searcher := &stubSearcher{results: results("hat")}
	p, _ := newTestPipeline(searcher)
	ctx := context.Background()

	p.Submit(ctx, "hat")
	p.Submit(ctx, "h") // backspaced below the minimum before the timer fired

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, searcher.callCount())
}

func TestPipeline_RapidInputCoalescesToOneRequest(t *testing.T) {
	searcher := &stubSearcher{results: results("hat")}
	p, sink := newTestPipeline(searcher)
	ctx := context.Background()

	p.Submit(ctx, "ha")
	p.Submit(ctx, "hat")
	p.Submit(ctx, "hats")

	require.Eventually(t, func() bool {
		return len(sink.settled()) == 1
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, 1, searcher.callCount())
	settled := sink.settled()[0]
	assert.Equal(t, "hats", settled.Query)
	assert.Equal(t, domain.SearchOutcomeResults, settled.Outcome)
}

func TestPipeline_SettlesEmpty(t *testing.T) {
	searcher := &stubSearcher{}
	p, sink := newTestPipeline(searcher)

	p.Submit(context.Background(), "nothing matches")

	require.Eventually(t, func() bool {
		return len(sink.settled()) == 1
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, domain.SearchOutcomeEmpty, sink.settled()[0].Outcome)
	assert.Empty(t, sink.settled()[0].Results)
}

func TestPipeline_SettlesError(t *testing.T) {
	searcher := &stubSearcher{err: errors.New("upstream down")}
	p, sink := newTestPipeline(searcher)

	p.Submit(context.Background(), "hat")

	require.Eventually(t, func() bool {
		return len(sink.settled()) == 1
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, domain.SearchOutcomeError, sink.settled()[0].Outcome)
	assert.Empty(t, sink.settled()[0].Results)
}

func TestPipeline_CapsResults(t *testing.T) {
	searcher := &stubSearcher{results: results("a", "b", "c", "d", "e", "f", "g", "h")}
	p, sink := newTestPipeline(searcher)

	p.Submit(context.Background(), "hat")

	require.Eventually(t, func() bool {
		return len(sink.settled()) == 1
	}, time.Second, 5*time.Millisecond)

	assert.Len(t, sink.settled()[0].Results, 6)
}

func TestPipeline_StaleResponseDiscarded(t *testing.T) {
	searcher := newGatedSearcher()
	p, sink := newTestPipeline(searcher)
	ctx := context.Background()

	p.Submit(ctx, "hat")
	require.Eventually(t, func() bool {
		return searcher.inFlight("hat")
	}, time.Second, 5*time.Millisecond)

	// Newer input while the first request is still in flight.
	p.Submit(ctx, "hats")
	require.Eventually(t, func() bool {
		return searcher.inFlight("hats")
	}, time.Second, 5*time.Millisecond)

	// The stale response lands after the newer one.
	searcher.release("hats", results("fresh"), nil)
	require.Eventually(t, func() bool {
		return len(sink.settled()) == 1
	}, time.Second, 5*time.Millisecond)
	searcher.release("hat", results("stale"), nil)

	time.Sleep(50 * time.Millisecond)
	settled := sink.settled()
	require.Len(t, settled, 1)
	assert.Equal(t, "hats", settled[0].Query)
	require.Len(t, settled[0].Results, 1)
	assert.Equal(t, "fresh", settled[0].Results[0].Title)

	_, query, _, got := p.Snapshot()
	assert.Equal(t, "hats", query)
	require.Len(t, got, 1)
	assert.Equal(t, "fresh", got[0].Title)
}

func TestPipeline_OutOfOrderArrivalsOnlyNewestSettles(t *testing.T) {
	searcher := newGatedSearcher()
	p, sink := newTestPipeline(searcher)
	ctx := context.Background()

	for _, q := range []string{"ha", "hat", "hats"} {
		p.Submit(ctx, q)
		require.Eventually(t, func() bool {
			return searcher.inFlight(q)
		}, time.Second, 5*time.Millisecond)
	}

	// Responses arrive 3, 1, 2; only the third generation settles,
	// exactly once.
	searcher.release("hats", results("third"), nil)
	require.Eventually(t, func() bool {
		return len(sink.settled()) == 1
	}, time.Second, 5*time.Millisecond)
	searcher.release("ha", results("first"), nil)
	searcher.release("hat", results("second"), nil)

	time.Sleep(50 * time.Millisecond)
	settled := sink.settled()
	require.Len(t, settled, 1)
	assert.Equal(t, "hats", settled[0].Query)
	require.Len(t, settled[0].Results, 1)
	assert.Equal(t, "third", settled[0].Results[0].Title)
}

func TestPipeline_CloseOrphansInFlightRequest(t *testing.T) {
	searcher := newGatedSearcher()
	p, sink := newTestPipeline(searcher)
	ctx := context.Background()

	p.Submit(ctx, "hat")
	require.Eventually(t, func() bool {
		return searcher.inFlight("hat")
	}, time.Second, 5*time.Millisecond)

	p.Close(ctx)
	searcher.release("hat", results("late"), nil)

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, sink.settled())
	assert.True(t, sink.has(event.SearchCleared))

	state, _, _, got := p.Snapshot()
	assert.Equal(t, domain.SearchIdle, state)
	assert.Empty(t, got)
}

func TestPipeline_ClosePreventsPendingFire(t *testing.T) {
	searcher := &stubSearcher{results: results("hat")}
	p, sink := newTestPipeline(searcher)
	ctx := context.Background()

	p.Submit(ctx, "hat")
	p.Close(ctx) // before the debounce interval elapses

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, searcher.callCount())
	assert.Empty(t, sink.settled())
}

func TestManager_PipelinePerSession(t *testing.T) {
	searcher := &stubSearcher{}
	sink := &asyncSink{}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	mgr := NewManager(searcher, sink, testOptions(), logger)

	a1 := mgr.Get("sess-a")
	a2 := mgr.Get("sess-a")
	b := mgr.Get("sess-b")

	assert.Same(t, a1, a2)
	assert.NotSame(t, a1, b)

	mgr.Release("sess-a")
	assert.NotSame(t, a1, mgr.Get("sess-a"))
}
