package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"streamwatch/internal/domain"
	"streamwatch/internal/logger"
)

func watchedEntry() *domain.WatchEntry {
	return &domain.WatchEntry{
		ID: "entry-1",
		Destination: domain.Destination{
			GuildID:   "guild-1",
			ChannelID: "chan-1",
			RoleID:    "role-1",
		},
		Platform:        domain.PlatformTwitch,
		Identity:        "somestreamer",
		ProfileURL:      "https://www.twitch.tv/somestreamer",
		MessageTemplate: "Stream is live!",
		CheckIntervals:  domain.DefaultCheckIntervals(),
		NightMode:       domain.DefaultNightMode(),
		IsActive:        true,
	}
}

type taskFixture struct {
	task       *task
	probe      *scriptedProbe
	dispatcher *countingDispatcher
	registry   *memRegistry
	states     *memStates
}

func newTaskFixture(t *testing.T, entry *domain.WatchEntry, steps ...probeStep) *taskFixture {
	t.Helper()
	f := &taskFixture{
		probe:      &scriptedProbe{steps: steps},
		dispatcher: &countingDispatcher{},
		registry:   newMemRegistry(entry),
		states:     newMemStates(),
	}
	log := logger.NewWithOutput(logger.LevelError, io.Discard)
	f.task = newTask(entry, f.probe, f.dispatcher, f.registry, f.states, log, time.Second, nil)
	return f
}

func TestTask_NotifiesOnceOnLiveEdge(t *testing.T) {
	entry := watchedEntry()
	f := newTaskFixture(t, entry,
		probeStep{result: liveResult()},
		probeStep{result: liveResult()},
	)
	ctx := context.Background()

	if _, terminal := f.task.tick(ctx); terminal {
		t.Fatal("tick should not be terminal")
	}
	if f.dispatcher.count() != 1 {
		t.Fatalf("expected 1 dispatch on the offline to live edge, got %d", f.dispatcher.count())
	}

	persisted, _ := f.states.Get(ctx, entry.Key())
	if persisted == nil || !persisted.IsLive {
		t.Fatal("expected is_live=true to be persisted after the edge")
	}

	// The stream stays live, no second announcement
	f.task.tick(ctx)
	if f.dispatcher.count() != 1 {
		t.Errorf("expected no dispatch on live to live, got %d total", f.dispatcher.count())
	}
}

func TestTask_NoDispatchWhileOffline(t *testing.T) {
	f := newTaskFixture(t, watchedEntry(),
		probeStep{result: offlineResult()},
	)
	ctx := context.Background()

	f.task.tick(ctx)
	f.task.tick(ctx)

	if f.dispatcher.count() != 0 {
		t.Errorf("expected no dispatches while offline, got %d", f.dispatcher.count())
	}
}

func TestTask_OfflineThenLiveAgainNotifiesTwice(t *testing.T) {
	f := newTaskFixture(t, watchedEntry(),
		probeStep{result: liveResult()},
		probeStep{result: offlineResult()},
		probeStep{result: liveResult()},
	)
	ctx := context.Background()

	f.task.tick(ctx)
	f.task.tick(ctx)
	f.task.tick(ctx)

	if f.dispatcher.count() != 2 {
		t.Errorf("expected one dispatch per live edge, got %d", f.dispatcher.count())
	}
}

func TestTask_RestartWhileLiveDoesNotReannounce(t *testing.T) {
	entry := watchedEntry()
	f := newTaskFixture(t, entry,
		probeStep{result: liveResult()},
	)
	ctx := context.Background()

	// A previous incarnation of the task saw the stream live
	f.states.Save(ctx, entry.Key(), &domain.RuntimeState{
		IsLive: true,
		Status: domain.CheckStatusRunning,
	})

	f.task.loadPersistedState(ctx)
	f.task.tick(ctx)

	if f.dispatcher.count() != 0 {
		t.Errorf("restart while live must not re-announce, got %d dispatches", f.dispatcher.count())
	}
}

func TestTask_IdentityNotFoundDeactivates(t *testing.T) {
	entry := watchedEntry()
	notFound := fmt.Errorf("twitch user %q: %w", "ghost", domain.ErrIdentityNotFound)
	f := newTaskFixture(t, entry, probeStep{err: notFound})
	ctx := context.Background()

	_, terminal := f.task.tick(ctx)
	if !terminal {
		t.Fatal("identity-not-found must terminate the task")
	}

	stored := f.registry.get(entry.Key())
	if stored.IsActive {
		t.Error("expected entry to be deactivated")
	}
	if stored.ErrorMessage == "" {
		t.Error("expected the deactivation reason to be recorded")
	}
	if f.dispatcher.count() != 0 {
		t.Error("deactivation must not dispatch a notification")
	}
}

func TestTask_BackoffSequenceAndReset(t *testing.T) {
	timeout := errors.New("probe timeout")
	f := newTaskFixture(t, watchedEntry(),
		probeStep{err: timeout},
		probeStep{err: timeout},
		probeStep{err: timeout},
		probeStep{result: offlineResult()},
	)
	ctx := context.Background()

	var delays []time.Duration
	for i := 0; i < 3; i++ {
		delay, terminal := f.task.tick(ctx)
		if terminal {
			t.Fatal("transient errors must not terminate the task")
		}
		delays = append(delays, delay)
	}

	want := []time.Duration{30 * time.Second, 60 * time.Second, 120 * time.Second}
	for i := range want {
		if delays[i] != want[i] {
			t.Errorf("attempt %d: delay = %v, want %v", i+1, delays[i], want[i])
		}
	}

	// Fourth attempt succeeds and resets the consecutive counter
	f.task.tick(ctx)
	state := f.task.stateSnapshot()
	if state.ConsecutiveErrors != 0 {
		t.Errorf("expected consecutive errors reset to 0, got %d", state.ConsecutiveErrors)
	}
	if state.TotalErrors != 3 {
		t.Errorf("expected total errors preserved at 3, got %d", state.TotalErrors)
	}
	if state.Status != domain.CheckStatusRunning {
		t.Errorf("expected status Running after recovery, got %s", state.Status)
	}
}

func TestTask_SuccessfulTickUsesIntervalPolicy(t *testing.T) {
	entry := watchedEntry()
	entry.CheckIntervals = domain.CheckIntervals{
		Live:    10 * time.Minute,
		Offline: time.Minute,
		Night:   20 * time.Minute,
	}
	f := newTaskFixture(t, entry,
		probeStep{result: offlineResult()},
		probeStep{result: liveResult()},
	)
	f.task.now = func() time.Time {
		return time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	}
	ctx := context.Background()

	delay, _ := f.task.tick(ctx)
	if delay != time.Minute {
		t.Errorf("offline tick: delay = %v, want 1m", delay)
	}
	delay, _ = f.task.tick(ctx)
	if delay != 10*time.Minute {
		t.Errorf("live tick: delay = %v, want 10m", delay)
	}
}

func TestTask_RunStopsOnCancel(t *testing.T) {
	entry := watchedEntry()
	entry.CheckIntervals = domain.CheckIntervals{
		Live:    time.Millisecond,
		Offline: time.Millisecond,
		Night:   time.Millisecond,
	}
	f := newTaskFixture(t, entry, probeStep{result: offlineResult()})

	ctx, cancel := context.WithCancel(context.Background())
	go f.task.run(ctx)

	// Let a few ticks land, then cancel mid-sleep
	deadline := time.After(2 * time.Second)
	for f.probe.callCount() < 3 {
		select {
		case <-deadline:
			t.Fatal("task never made progress")
		case <-time.After(time.Millisecond):
		}
	}
	cancel()

	select {
	case <-f.task.done:
	case <-time.After(2 * time.Second):
		t.Fatal("task did not observe cancellation")
	}

	if got := f.task.stateSnapshot().Status; got != domain.CheckStatusStopped {
		t.Errorf("expected status Stopped after cancel, got %s", got)
	}
}
