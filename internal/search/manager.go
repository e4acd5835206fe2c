package search

import (
	"log/slog"
	"sync"
)

// Manager hands out one Pipeline per session, created lazily.
type Manager struct {
	searcher Searcher
	sink     EventSink
	opts     Options
	logger   *slog.Logger

	mu        sync.Mutex
	pipelines map[string]*Pipeline
}

// NewManager creates an empty pipeline registry.
func NewManager(searcher Searcher, sink EventSink, opts Options, logger *slog.Logger) *Manager {
	return &Manager{
		searcher:  searcher,
		sink:      sink,
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
	p := NewPipeline(owner, m.searcher, m.sink, m.opts, m.logger)
	m.pipelines[owner] = p
	return p
}

// Release drops the session's pipeline after closing it.
func (m *Manager) Release(owner string) {
	m.mu.Lock()
	p, ok := m.pipelines[owner]
	delete(m.pipelines, owner)
	m.mu.Unlock()
	if ok {
		p.timer.Stop()
	}
}
