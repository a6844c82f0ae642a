package monitor

import (
	"context"
	"time"

	"streamwatch/internal/logger"
)

const (
	// watchdogInterval is how often the supervisor scans the task table
	watchdogInterval = time.Minute

	// staleThreshold is how long a task may go without a completed check
	// before it counts as hung
	staleThreshold = 5 * time.Minute
)

// watchdog periodically restarts tasks that stopped making progress
func (m *Monitor) watchdog(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(watchdogInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.restartStale()
		}
	}
}

// restartStale replaces every task whose last activity is older than the
// stale threshold
func (m *Monitor) restartStale() {
	now := m.now()

	m.mu.Lock()
	stale := make([]*taskHandle, 0)
	for key, h := range m.tasks {
		if now.Sub(h.task.lastActivity()) > staleThreshold {
			stale = append(stale, h)
			delete(m.tasks, key)
		}
	}
	m.mu.Unlock()

	for _, h := range stale {
		h.cancel()
		<-h.task.done

		m.log.Warn("Restarting stale stream check task", logger.Fields{
			"platform": h.task.entry.Platform,
			"identity": h.task.entry.Identity,
			"restarts": h.restarts + 1,
		})

		m.mu.Lock()
		if m.running {
			m.spawnLocked(h.task.entry, h.restarts+1)
		}
		m.mu.Unlock()
	}
}
