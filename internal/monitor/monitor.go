package monitor

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"streamwatch/internal/domain"
	"streamwatch/internal/logger"
	"streamwatch/internal/repository"
)

// taskHandle pairs a running task with its cancellation and the number
// of times the watchdog respawned it
type taskHandle struct {
	task     *task
	cancel   context.CancelFunc
	restarts int
}

// Monitor supervises one check task per active watch entry. The task
// table is guarded by a single mutex so a key never has two tasks.
type Monitor struct {
	registry     domain.WatchRegistry
	states       repository.RuntimeStateRepository
	probes       map[domain.Platform]domain.PlatformProbe
	dispatcher   Dispatcher
	log          *logger.Logger
	probeTimeout time.Duration

	mu           sync.Mutex
	tasks        map[domain.WatchKey]*taskHandle
	running      bool
	startedAt    time.Time
	lastError    string
	rootCtx      context.Context
	rootCancel   context.CancelFunc
	watchdogDone chan struct{}

	now func() time.Time
}

// New creates a monitor over the given probes and collaborators
func New(registry domain.WatchRegistry, states repository.RuntimeStateRepository,
	probes map[domain.Platform]domain.PlatformProbe, dispatcher Dispatcher,
	log *logger.Logger, probeTimeout time.Duration) *Monitor {
	return &Monitor{
		registry:     registry,
		states:       states,
		probes:       probes,
		dispatcher:   dispatcher,
		log:          log,
		probeTimeout: probeTimeout,
		tasks:        make(map[domain.WatchKey]*taskHandle),
		now:          time.Now,
	}
}

// StartAll spawns a check task for every active entry. Calling it while
// already running is a no-op.
func (m *Monitor) StartAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}

	entries, err := m.registry.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to list active watches: %w", err)
	}

	m.rootCtx, m.rootCancel = context.WithCancel(context.Background())
	m.running = true
	m.startedAt = m.now()

	for _, entry := range entries {
		m.spawnLocked(entry, 0)
	}

	m.watchdogDone = make(chan struct{})
	go m.watchdog(m.rootCtx, m.watchdogDone)

	m.log.Info("Stream monitor started", logger.Fields{
		"tasks": len(m.tasks),
	})
	return nil
}

// StopAll cancels every task, waits for them to finish, and clears the
// task table. Tasks mid-sleep observe the cancellation immediately.
func (m *Monitor) StopAll() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.rootCancel()
	handles := make([]*taskHandle, 0, len(m.tasks))
	for _, h := range m.tasks {
		handles = append(handles, h)
	}
	watchdogDone := m.watchdogDone
	m.mu.Unlock()

	for _, h := range handles {
		<-h.task.done
	}
	<-watchdogDone

	m.mu.Lock()
	m.tasks = make(map[domain.WatchKey]*taskHandle)
	m.running = false
	m.mu.Unlock()

	m.log.Info("Stream monitor stopped", nil)
}

// AddWatch registers a new entry and, when the monitor is running,
// starts its task. Adding an entry whose task already runs never spawns
// a duplicate.
func (m *Monitor) AddWatch(ctx context.Context, entry *domain.WatchEntry) (string, error) {
	id, err := m.registry.Add(ctx, entry)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		m.spawnLocked(entry, 0)
	}
	return id, nil
}

// RemoveWatch stops the entry's task and deletes it from the registry.
// Returns false when no such entry existed.
func (m *Monitor) RemoveWatch(ctx context.Context, key domain.WatchKey) (bool, error) {
	m.mu.Lock()
	handle, ok := m.tasks[key]
	if ok {
		delete(m.tasks, key)
	}
	m.mu.Unlock()

	if ok {
		handle.cancel()
		<-handle.task.done
	}

	return m.registry.Remove(ctx, key)
}

// Status returns a point-in-time view of the monitor and every task
func (m *Monitor) Status() domain.ServiceStatusSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := domain.ServiceStatusSnapshot{
		Running:   m.running,
		StartedAt: m.startedAt,
		LastError: m.lastError,
	}
	if m.running {
		snapshot.Uptime = m.now().Sub(m.startedAt)
	}

	for key, h := range m.tasks {
		snapshot.Streams = append(snapshot.Streams, domain.StreamStatusSnapshot{
			Key:          key,
			ProfileURL:   h.task.entry.ProfileURL,
			State:        h.task.stateSnapshot(),
			TaskRestarts: h.restarts,
		})
	}
	sort.Slice(snapshot.Streams, func(i, j int) bool {
		a, b := snapshot.Streams[i].Key, snapshot.Streams[j].Key
		if a.GuildID != b.GuildID {
			return a.GuildID < b.GuildID
		}
		if a.Platform != b.Platform {
			return a.Platform < b.Platform
		}
		return a.Identity < b.Identity
	})

	return snapshot
}

// spawnLocked starts a task for the entry unless one already runs.
// Callers must hold m.mu.
func (m *Monitor) spawnLocked(entry *domain.WatchEntry, restarts int) {
	key := entry.Key()
	if _, exists := m.tasks[key]; exists {
		return
	}

	probe, ok := m.probes[entry.Platform]
	if !ok {
		m.log.Error("No probe registered for platform", logger.Fields{
			"platform": entry.Platform,
			"identity": entry.Identity,
		})
		return
	}

	ctx, cancel := context.WithCancel(m.rootCtx)
	t := newTask(entry, probe, m.dispatcher, m.registry, m.states,
		m.log, m.probeTimeout, m.recordFatal)
	m.tasks[key] = &taskHandle{task: t, cancel: cancel, restarts: restarts}

	go func() {
		t.run(ctx)
		// A task that deactivated its entry removes itself so the
		// status view stops showing it as running
		m.mu.Lock()
		if h, ok := m.tasks[key]; ok && h.task == t {
			if t.stateSnapshot().Status == domain.CheckStatusError {
				delete(m.tasks, key)
			}
		}
		m.mu.Unlock()
	}()
}

// recordFatal remembers the most recent terminal entry fault
func (m *Monitor) recordFatal(msg string) {
	m.mu.Lock()
	m.lastError = msg
	m.mu.Unlock()
}
