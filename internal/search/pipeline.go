// Package search implements the debounced predictive-search pipeline.
// Every keystroke advances a generation counter; only the response for
// the newest generation is allowed to settle, so out-of-order upstream
// replies can never paint stale results.
package search

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/curetcore/velox-storefront/internal/domain"
	"github.com/curetcore/velox-storefront/internal/event"
	"github.com/curetcore/velox-storefront/pkg/debounce"
)

// Searcher issues the upstream suggestion lookup.
type Searcher interface {
	Suggest(ctx context.Context, query string, limit int) ([]domain.SearchResult, error)
}

// EventSink receives the pipeline's settle and clear events.
type EventSink interface {
	Publish(ctx context.Context, ev event.Event)
}

// Options bound one pipeline's behavior.
type Options struct {
	Debounce    time.Duration
	MinQueryLen int
	MaxResults  int
}

// Pipeline is one session's predictive-search state machine. Input
// moves it idle -> pending -> loading -> settled; any new input while
// a request is in flight invalidates that request's generation.
type Pipeline struct {
	owner    string
	searcher Searcher
	sink     EventSink
	logger   *slog.Logger
	opts     Options
	timer    *debounce.Timer

	mu         sync.Mutex
	generation uint64
	state      domain.SearchState
	query      string
	results    []domain.SearchResult
	outcome    domain.SearchOutcome
}

// NewPipeline returns an idle pipeline for one session.
func NewPipeline(owner string, searcher Searcher, sink EventSink, opts Options, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		owner:    owner,
		searcher: searcher,
		sink:     sink,
		logger:   logger,
		opts:     opts,
		timer:    debounce.New(),
		state:    domain.SearchIdle,
	}
}

// Submit feeds one input value into the pipeline. Every call, short or
// not, bumps the generation so any in-flight request is orphaned.
// Queries shorter than the minimum cancel the pending timer and reset
// to idle; longer ones re-arm the debounce interval.
func (p *Pipeline) Submit(ctx context.Context, raw string) {
	query := strings.TrimSpace(raw)

	p.mu.Lock()
	p.generation++
	gen := p.generation
	p.query = query

	if len([]rune(query)) < p.opts.MinQueryLen {
		p.state = domain.SearchIdle
		p.results = nil
		p.mu.Unlock()
		p.timer.Stop()
		return
	}

	p.state = domain.SearchPending
	p.mu.Unlock()

	p.timer.Arm(p.opts.Debounce, func() {
		p.fire(ctx, gen, query)
	})
}

// fire issues the upstream request for one generation. It re-checks
// the generation before dispatching and again before settling: the
// debounce callback can race a newer Submit.
func (p *Pipeline) fire(ctx context.Context, gen uint64, query string) {
	p.mu.Lock()
	if gen != p.generation {
		p.mu.Unlock()
		return
	}
	p.state = domain.SearchLoading
	p.mu.Unlock()

	results, err := p.searcher.Suggest(ctx, query, p.opts.MaxResults)

	p.mu.Lock()
	if gen != p.generation {
		p.mu.Unlock()
		return
	}

	p.state = domain.SearchSettled
	switch {
	case err != nil:
		p.outcome = domain.SearchOutcomeError
		p.results = nil
		p.logger.WarnContext(ctx, "search request failed",
			slog.String("query", query),
			slog.String("error", err.Error()),
		)
	case len(results) == 0:
		p.outcome = domain.SearchOutcomeEmpty
		p.results = nil
	default:
		if len(results) > p.opts.MaxResults {
			results = results[:p.opts.MaxResults]
		}
		p.outcome = domain.SearchOutcomeResults
		p.results = results
	}
	outcome := p.outcome
	settled := p.results
	p.mu.Unlock()

	p.sink.Publish(ctx, event.Event{
		Type:  event.SearchSettled,
		Owner: p.owner,
		Payload: event.SearchPayload{
			Query:      query,
			Generation: gen,
			Outcome:    outcome,
			Results:    settled,
		},
	})
}

// Snapshot reports the pipeline's current state for rendering.
func (p *Pipeline) Snapshot() (domain.SearchState, string, domain.SearchOutcome, []domain.SearchResult) {
	p.mu.Lock()
	defer p.mu.Unlock()
	results := append([]domain.SearchResult(nil), p.results...)
	return p.state, p.query, p.outcome, results
}

// Close cancels any pending timer, orphans any in-flight request, and
// resets to idle. Equivalent to the panel being dismissed.
func (p *Pipeline) Close(ctx context.Context) {
	p.timer.Stop()

	p.mu.Lock()
	p.generation++
	p.state = domain.SearchIdle
	p.query = ""
	p.results = nil
	p.outcome = ""
	p.mu.Unlock()

	p.sink.Publish(ctx, event.Event{
		Type:    event.SearchCleared,
		Owner:   p.owner,
		Payload: event.SearchPayload{},
	})
}
