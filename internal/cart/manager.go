package cart

import (
	"log/slog"
	"sync"
)

// Manager hands out one Pipeline per session, created lazily.
type Manager struct {
	api      StoreAPI
	sink     EventSink
	shipping *ShippingCalculator
	opts     Options
	logger   *slog.Logger

	mu        sync.Mutex
	pipelines map[string]*Pipeline
}

// NewManager creates an empty pipeline registry.
func NewManager(api StoreAPI, sink EventSink, shipping *ShippingCalculator, opts Options, logger *slog.Logger) *Manager {
	return &Manager{
		api:       api,
		sink:      sink,
		shipping:  shipping,
		opts:      opts,
		logger:    logger,
		pipelines: make(map[string]*Pipeline),
	}
}

// Get returns the session's pipeline, creating it on first access.
func (m *Manager) Get(owner string) *Pipeline {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.pipelines[owner]; ok {
		return p
	}
	p := NewPipeline(owner, m.api, m.sink, m.shipping, m.opts, m.logger)
	m.pipelines[owner] = p
	return p
}

// Release drops the session's pipeline.
func (m *Manager) Release(owner string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pipelines, owner)
}
