package monitor

import (
	"context"
	"errors"
	"sync"
	"time"

	"streamwatch/internal/domain"
	"streamwatch/internal/logger"
	"streamwatch/internal/repository"
)

// Dispatcher announces an offline to live transition for one entry
type Dispatcher interface {
	Dispatch(ctx context.Context, entry *domain.WatchEntry, result *domain.LiveCheckResult)
}

// task runs the check loop for a single watch entry. The entry's runtime
// state is owned exclusively by the task goroutine; readers (status view,
// watchdog) take snapshots through the mutex.
type task struct {
	entry        *domain.WatchEntry
	probe        domain.PlatformProbe
	dispatcher   Dispatcher
	registry     domain.WatchRegistry
	states       repository.RuntimeStateRepository
	log          *logger.Logger
	probeTimeout time.Duration

	// reportFatal surfaces a terminal entry fault to the monitor
	reportFatal func(msg string)

	mu        sync.Mutex
	state     domain.RuntimeState
	startedAt time.Time

	done chan struct{}

	// Overridable in tests
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func newTask(entry *domain.WatchEntry, probe domain.PlatformProbe, dispatcher Dispatcher,
	registry domain.WatchRegistry, states repository.RuntimeStateRepository,
	log *logger.Logger, probeTimeout time.Duration, reportFatal func(string)) *task {
	return &task{
		entry:        entry,
		probe:        probe,
		dispatcher:   dispatcher,
		registry:     registry,
		states:       states,
		log:          log,
		probeTimeout: probeTimeout,
		reportFatal:  reportFatal,
		state:        domain.NewRuntimeState(),
		done:         make(chan struct{}),
		now:          time.Now,
		sleep:        sleepContext,
	}
}

// run executes the check loop until the context is cancelled or the
// entry's identity turns out to be permanently gone
func (t *task) run(ctx context.Context) {
	defer close(t.done)

	t.loadPersistedState(ctx)

	t.mu.Lock()
	t.startedAt = t.now()
	t.state.Status = domain.CheckStatusRunning
	t.mu.Unlock()

	t.log.Info("Started stream check task", logger.Fields{
		"guild_id": t.entry.GuildID,
		"platform": t.entry.Platform,
		"identity": t.entry.Identity,
	})

	for {
		delay, terminal := t.tick(ctx)
		if terminal {
			return
		}
		if err := t.sleep(ctx, delay); err != nil {
			t.markStopped()
			return
		}
	}
}

// loadPersistedState resumes from the last persisted liveness so a
// restart while the stream is live does not re-announce it
func (t *task) loadPersistedState(ctx context.Context) {
	persisted, err := t.states.Get(ctx, t.entry.Key())
	if err != nil {
		t.log.Warn("Failed to load persisted runtime state", logger.Fields{
			"identity": t.entry.Identity,
			"error":    err.Error(),
		})
		return
	}
	if persisted == nil {
		return
	}

	t.mu.Lock()
	t.state = *persisted
	t.state.ConsecutiveErrors = 0
	t.mu.Unlock()
}

// tick performs one probe and returns the delay before the next one.
// terminal is true when the task must stop for good.
func (t *task) tick(ctx context.Context) (delay time.Duration, terminal bool) {
	probeCtx, cancel := context.WithTimeout(ctx, t.probeTimeout)
	result, err := t.probe.CheckLive(probeCtx, t.entry.Identity)
	cancel()

	// Abandon the tick without touching state when the shutdown raced
	// the probe call
	if ctx.Err() != nil {
		t.markStopped()
		return 0, true
	}

	observedAt := t.now()

	if err != nil {
		if errors.Is(err, domain.ErrIdentityNotFound) {
			t.deactivate(err)
			return 0, true
		}
		return t.recordError(ctx, observedAt, err), false
	}

	t.mu.Lock()
	wasLive := t.state.IsLive
	t.state.IsLive = result.IsLive
	t.state.LastCheckAt = observedAt
	t.state.LastSuccessAt = observedAt
	t.state.ConsecutiveErrors = 0
	t.state.TotalSuccesses++
	t.state.LastError = ""
	t.state.Status = domain.CheckStatusRunning
	t.mu.Unlock()

	switch {
	case result.IsLive && !wasLive:
		t.log.Info("Stream went live", logger.Fields{
			"platform": t.entry.Platform,
			"identity": t.entry.Identity,
		})
		t.dispatcher.Dispatch(ctx, t.entry, result)
	case !result.IsLive && wasLive:
		t.log.Info("Stream went offline", logger.Fields{
			"platform": t.entry.Platform,
			"identity": t.entry.Identity,
		})
	}

	t.saveState(ctx)

	return checkInterval(result.IsLive, observedAt.Hour(), t.entry.NightMode, t.entry.CheckIntervals), false
}

// recordError counts a transient fault and returns its backoff delay
func (t *task) recordError(ctx context.Context, observedAt time.Time, err error) time.Duration {
	t.mu.Lock()
	t.state.LastCheckAt = observedAt
	t.state.ConsecutiveErrors++
	t.state.TotalErrors++
	t.state.LastError = err.Error()
	t.state.Status = domain.CheckStatusError
	consecutive := t.state.ConsecutiveErrors
	t.mu.Unlock()

	t.log.Warn("Stream check failed", logger.Fields{
		"platform":           t.entry.Platform,
		"identity":           t.entry.Identity,
		"consecutive_errors": consecutive,
		"error":              err.Error(),
	})

	t.saveState(ctx)

	return backoffDelay(consecutive)
}

// deactivate marks the entry permanently failed and stops the task
func (t *task) deactivate(cause error) {
	msg := cause.Error()

	t.mu.Lock()
	t.state.LastCheckAt = t.now()
	t.state.LastError = msg
	t.state.Status = domain.CheckStatusError
	t.mu.Unlock()

	t.log.Error("Deactivating watch, identity permanently gone", logger.Fields{
		"platform": t.entry.Platform,
		"identity": t.entry.Identity,
		"error":    msg,
	})

	// The parent context may already be gone; deactivation must still land
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := t.registry.Deactivate(ctx, t.entry.Key(), msg); err != nil {
		t.log.Error("Failed to deactivate watch", logger.Fields{
			"identity": t.entry.Identity,
			"error":    err.Error(),
		})
	}
	t.saveState(ctx)

	if t.reportFatal != nil {
		t.reportFatal(msg)
	}
}

func (t *task) markStopped() {
	t.mu.Lock()
	t.state.Status = domain.CheckStatusStopped
	t.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	t.saveState(ctx)
}

// saveState mirrors the runtime state to the store
func (t *task) saveState(ctx context.Context) {
	snapshot := t.stateSnapshot()
	if err := t.states.Save(ctx, t.entry.Key(), &snapshot); err != nil {
		t.log.Warn("Failed to persist runtime state", logger.Fields{
			"identity": t.entry.Identity,
			"error":    err.Error(),
		})
	}
}

func (t *task) stateSnapshot() domain.RuntimeState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// lastActivity returns the most recent sign of life, used by the
// watchdog to detect hung tasks
func (t *task) lastActivity() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state.LastCheckAt.After(t.startedAt) {
		return t.state.LastCheckAt
	}
	return t.startedAt
}

// sleepContext waits for the duration or until the context is cancelled
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
