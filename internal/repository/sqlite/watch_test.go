package sqlite

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"streamwatch/internal/domain"

	"github.com/google/uuid"
)

// setupTestDB creates a migrated temp database for repository tests
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "test-watch-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpFile.Close()

	db, err := NewDB(tmpFile.Name())
	if err != nil {
		os.Remove(tmpFile.Name())
		t.Fatalf("failed to open database: %v", err)
	}

	if err := Migrate(db.DB); err != nil {
		db.Close()
		os.Remove(tmpFile.Name())
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
		os.Remove(tmpFile.Name())
	})

	return db
}

func testEntry(guildID string, platform domain.Platform, identity string) *domain.WatchEntry {
	now := time.Now().UTC().Truncate(time.Second)
	return &domain.WatchEntry{
		ID: uuid.New().String(),
		Destination: domain.Destination{
			GuildID:   guildID,
			ChannelID: "channel-1",
			RoleID:    "role-1",
		},
		Platform:        platform,
		Identity:        identity,
		ProfileURL:      "https://twitch.tv/" + identity,
		MessageTemplate: "we are live!",
		CheckIntervals:  domain.DefaultCheckIntervals(),
		NightMode:       domain.DefaultNightMode(),
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func TestWatchRepository_CreateAndGetByKey(t *testing.T) {
	db := setupTestDB(t)
	repo := NewWatchRepository(db)
	ctx := context.Background()

	entry := testEntry("guild-1", domain.PlatformTwitch, "somestreamer")
	if err := repo.Create(ctx, entry); err != nil {
		t.Fatalf("failed to create watch: %v", err)
	}

	got, err := repo.GetByKey(ctx, entry.Key())
	if err != nil {
		t.Fatalf("failed to get watch: %v", err)
	}

	if got.ID != entry.ID {
		t.Errorf("expected ID %s, got %s", entry.ID, got.ID)
	}
	if got.Destination != entry.Destination {
		t.Errorf("expected destination %+v, got %+v", entry.Destination, got.Destination)
	}
	if got.MessageTemplate != "we are live!" {
		t.Errorf("unexpected message template %q", got.MessageTemplate)
	}
	if got.CheckIntervals != entry.CheckIntervals {
		t.Errorf("expected intervals %+v, got %+v", entry.CheckIntervals, got.CheckIntervals)
	}
	if got.NightMode != entry.NightMode {
		t.Errorf("expected night mode %+v, got %+v", entry.NightMode, got.NightMode)
	}
	if !got.IsActive {
		t.Error("expected entry to be active")
	}
}

func TestWatchRepository_DuplicateKey(t *testing.T) {
	db := setupTestDB(t)
	repo := NewWatchRepository(db)
	ctx := context.Background()

	first := testEntry("guild-1", domain.PlatformKick, "dupstreamer")
	if err := repo.Create(ctx, first); err != nil {
		t.Fatalf("failed to create first watch: %v", err)
	}

	second := testEntry("guild-1", domain.PlatformKick, "dupstreamer")
	err := repo.Create(ctx, second)
	if !errors.Is(err, domain.ErrDuplicateWatch) {
		t.Errorf("expected ErrDuplicateWatch, got %v", err)
	}

	// Same identity in a different guild is a different watch
	otherGuild := testEntry("guild-2", domain.PlatformKick, "dupstreamer")
	if err := repo.Create(ctx, otherGuild); err != nil {
		t.Errorf("expected create in other guild to succeed, got %v", err)
	}

	// Same identity on a different platform is a different watch
	otherPlatform := testEntry("guild-1", domain.PlatformTwitch, "dupstreamer")
	if err := repo.Create(ctx, otherPlatform); err != nil {
		t.Errorf("expected create on other platform to succeed, got %v", err)
	}
}

func TestWatchRepository_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewWatchRepository(db)
	ctx := context.Background()

	entry := testEntry("guild-1", domain.PlatformTwitch, "gone")
	if err := repo.Create(ctx, entry); err != nil {
		t.Fatalf("failed to create watch: %v", err)
	}

	deleted, err := repo.Delete(ctx, entry.Key())
	if err != nil {
		t.Fatalf("failed to delete watch: %v", err)
	}
	if !deleted {
		t.Error("expected delete to report a removed row")
	}

	// Deleting again is idempotent
	deleted, err = repo.Delete(ctx, entry.Key())
	if err != nil {
		t.Fatalf("second delete returned error: %v", err)
	}
	if deleted {
		t.Error("expected second delete to report no removed row")
	}

	if _, err := repo.GetByKey(ctx, entry.Key()); !errors.Is(err, domain.ErrWatchNotFound) {
		t.Errorf("expected ErrWatchNotFound after delete, got %v", err)
	}
}

func TestWatchRepository_DeleteRemovesRuntimeState(t *testing.T) {
	db := setupTestDB(t)
	repo := NewWatchRepository(db)
	stateRepo := NewRuntimeStateRepository(db)
	ctx := context.Background()

	entry := testEntry("guild-1", domain.PlatformTikTok, "dancer")
	if err := repo.Create(ctx, entry); err != nil {
		t.Fatalf("failed to create watch: %v", err)
	}

	state := domain.NewRuntimeState()
	state.IsLive = true
	if err := stateRepo.Save(ctx, entry.Key(), &state); err != nil {
		t.Fatalf("failed to save runtime state: %v", err)
	}

	if _, err := repo.Delete(ctx, entry.Key()); err != nil {
		t.Fatalf("failed to delete watch: %v", err)
	}

	got, err := stateRepo.Get(ctx, entry.Key())
	if err != nil {
		t.Fatalf("failed to get runtime state: %v", err)
	}
	if got != nil {
		t.Error("expected runtime state to be removed with the watch")
	}
}

func TestWatchRepository_ListActive(t *testing.T) {
	db := setupTestDB(t)
	repo := NewWatchRepository(db)
	ctx := context.Background()

	active := testEntry("guild-1", domain.PlatformTwitch, "activestreamer")
	if err := repo.Create(ctx, active); err != nil {
		t.Fatalf("failed to create watch: %v", err)
	}

	inactive := testEntry("guild-1", domain.PlatformTwitch, "deadstreamer")
	if err := repo.Create(ctx, inactive); err != nil {
		t.Fatalf("failed to create watch: %v", err)
	}
	if err := repo.SetActive(ctx, inactive.Key(), false, "user not found"); err != nil {
		t.Fatalf("failed to deactivate watch: %v", err)
	}

	entries, err := repo.ListActive(ctx)
	if err != nil {
		t.Fatalf("failed to list active watches: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 active watch, got %d", len(entries))
	}
	if entries[0].Identity != "activestreamer" {
		t.Errorf("expected activestreamer, got %s", entries[0].Identity)
	}
}

func TestWatchRepository_SetActiveRecordsError(t *testing.T) {
	db := setupTestDB(t)
	repo := NewWatchRepository(db)
	ctx := context.Background()

	entry := testEntry("guild-1", domain.PlatformTwitch, "vanished")
	if err := repo.Create(ctx, entry); err != nil {
		t.Fatalf("failed to create watch: %v", err)
	}

	if err := repo.SetActive(ctx, entry.Key(), false, "user not found: vanished"); err != nil {
		t.Fatalf("failed to deactivate: %v", err)
	}

	got, err := repo.GetByKey(ctx, entry.Key())
	if err != nil {
		t.Fatalf("failed to get watch: %v", err)
	}
	if got.IsActive {
		t.Error("expected entry to be inactive")
	}
	if got.ErrorMessage != "user not found: vanished" {
		t.Errorf("unexpected error message %q", got.ErrorMessage)
	}

	// Reactivating clears nothing implicitly; the message passed wins
	if err := repo.SetActive(ctx, entry.Key(), true, ""); err != nil {
		t.Fatalf("failed to reactivate: %v", err)
	}
	got, _ = repo.GetByKey(ctx, entry.Key())
	if !got.IsActive || got.ErrorMessage != "" {
		t.Errorf("expected active entry with cleared error, got active=%v msg=%q", got.IsActive, got.ErrorMessage)
	}
}

func TestWatchRepository_SetActiveMissingEntry(t *testing.T) {
	db := setupTestDB(t)
	repo := NewWatchRepository(db)
	ctx := context.Background()

	key := domain.WatchKey{GuildID: "guild-x", Platform: domain.PlatformKick, Identity: "nobody"}
	if err := repo.SetActive(ctx, key, false, "gone"); !errors.Is(err, domain.ErrWatchNotFound) {
		t.Errorf("expected ErrWatchNotFound, got %v", err)
	}
}

func TestWatchRepository_ListByGuild(t *testing.T) {
	db := setupTestDB(t)
	repo := NewWatchRepository(db)
	ctx := context.Background()

	for _, identity := range []string{"one", "two"} {
		if err := repo.Create(ctx, testEntry("guild-a", domain.PlatformTwitch, identity)); err != nil {
			t.Fatalf("failed to create watch: %v", err)
		}
	}
	if err := repo.Create(ctx, testEntry("guild-b", domain.PlatformTwitch, "three")); err != nil {
		t.Fatalf("failed to create watch: %v", err)
	}

	entries, err := repo.ListByGuild(ctx, "guild-a")
	if err != nil {
		t.Fatalf("failed to list guild watches: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 watches for guild-a, got %d", len(entries))
	}
}

func TestRuntimeStateRepository_SaveAndGet(t *testing.T) {
	db := setupTestDB(t)
	stateRepo := NewRuntimeStateRepository(db)
	ctx := context.Background()

	key := domain.WatchKey{GuildID: "guild-1", Platform: domain.PlatformTwitch, Identity: "somestreamer"}

	// Never-checked entries have no state
	got, err := stateRepo.Get(ctx, key)
	if err != nil {
		t.Fatalf("failed to get runtime state: %v", err)
	}
	if got != nil {
		t.Fatal("expected nil state for unknown key")
	}

	now := time.Now().UTC().Truncate(time.Second)
	state := domain.RuntimeState{
		IsLive:            true,
		LastCheckAt:       now,
		LastSuccessAt:     now,
		ConsecutiveErrors: 0,
		TotalErrors:       3,
		TotalSuccesses:    17,
		Status:            domain.CheckStatusRunning,
	}
	if err := stateRepo.Save(ctx, key, &state); err != nil {
		t.Fatalf("failed to save runtime state: %v", err)
	}

	got, err = stateRepo.Get(ctx, key)
	if err != nil {
		t.Fatalf("failed to get runtime state: %v", err)
	}
	if got == nil {
		t.Fatal("expected state after save")
	}
	if !got.IsLive || got.TotalErrors != 3 || got.TotalSuccesses != 17 {
		t.Errorf("unexpected state %+v", got)
	}
	if got.Status != domain.CheckStatusRunning {
		t.Errorf("expected Running status, got %s", got.Status)
	}

	// Second save updates the same row
	state.IsLive = false
	state.ConsecutiveErrors = 2
	state.LastError = "timeout"
	state.Status = domain.CheckStatusError
	if err := stateRepo.Save(ctx, key, &state); err != nil {
		t.Fatalf("failed to re-save runtime state: %v", err)
	}

	got, _ = stateRepo.Get(ctx, key)
	if got.IsLive {
		t.Error("expected is_live false after update")
	}
	if got.ConsecutiveErrors != 2 || got.LastError != "timeout" {
		t.Errorf("unexpected updated state %+v", got)
	}
}
