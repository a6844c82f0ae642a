package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"streamwatch/internal/domain"
)

// scriptedProbe replays a fixed sequence of probe outcomes. The last
// step repeats once the script runs out.
type probeStep struct {
	result *domain.LiveCheckResult
	err    error
}

type scriptedProbe struct {
	mu    sync.Mutex
	steps []probeStep
	calls int
}

func (p *scriptedProbe) CheckLive(ctx context.Context, identity string) (*domain.LiveCheckResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	i := p.calls
	if i >= len(p.steps) {
		i = len(p.steps) - 1
	}
	p.calls++
	step := p.steps[i]
	return step.result, step.err
}

func (p *scriptedProbe) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func liveResult() *domain.LiveCheckResult {
	return &domain.LiveCheckResult{IsLive: true, ObservedAt: time.Now()}
}

func offlineResult() *domain.LiveCheckResult {
	return &domain.LiveCheckResult{IsLive: false, ObservedAt: time.Now()}
}

// countingDispatcher records every dispatched transition
type countingDispatcher struct {
	mu    sync.Mutex
	calls []domain.WatchKey
}

func (d *countingDispatcher) Dispatch(ctx context.Context, entry *domain.WatchEntry, result *domain.LiveCheckResult) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, entry.Key())
}

func (d *countingDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.calls)
}

// memRegistry is an in-memory domain.WatchRegistry
type memRegistry struct {
	mu      sync.Mutex
	entries map[domain.WatchKey]*domain.WatchEntry
}

func newMemRegistry(entries ...*domain.WatchEntry) *memRegistry {
	r := &memRegistry{entries: make(map[domain.WatchKey]*domain.WatchEntry)}
	for _, e := range entries {
		r.entries[e.Key()] = e
	}
	return r
}

func (r *memRegistry) Add(ctx context.Context, entry *domain.WatchEntry) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[entry.Key()]; exists {
		return "", domain.ErrDuplicateWatch
	}
	if entry.ID == "" {
		entry.ID = fmt.Sprintf("entry-%d", len(r.entries)+1)
	}
	entry.IsActive = true
	r.entries[entry.Key()] = entry
	return entry.ID, nil
}

func (r *memRegistry) Remove(ctx context.Context, key domain.WatchKey) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[key]; !exists {
		return false, nil
	}
	delete(r.entries, key)
	return true, nil
}

func (r *memRegistry) ListActive(ctx context.Context) ([]*domain.WatchEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.WatchEntry
	for _, e := range r.entries {
		if e.IsActive {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memRegistry) ListForGuild(ctx context.Context, guildID string) ([]*domain.WatchEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.WatchEntry
	for _, e := range r.entries {
		if e.GuildID == guildID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memRegistry) Deactivate(ctx context.Context, key domain.WatchKey, errorMessage string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, exists := r.entries[key]
	if !exists {
		return domain.ErrWatchNotFound
	}
	e.IsActive = false
	e.ErrorMessage = errorMessage
	return nil
}

func (r *memRegistry) get(key domain.WatchKey) *domain.WatchEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entries[key]
}

// memStates is an in-memory repository.RuntimeStateRepository
type memStates struct {
	mu     sync.Mutex
	states map[domain.WatchKey]domain.RuntimeState
}

func newMemStates() *memStates {
	return &memStates{states: make(map[domain.WatchKey]domain.RuntimeState)}
}

func (s *memStates) Save(ctx context.Context, key domain.WatchKey, state *domain.RuntimeState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[key] = *state
	return nil
}

func (s *memStates) Get(ctx context.Context, key domain.WatchKey) (*domain.RuntimeState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.states[key]
	if !ok {
		return nil, nil
	}
	return &state, nil
}

func (s *memStates) Delete(ctx context.Context, key domain.WatchKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, key)
	return nil
}
