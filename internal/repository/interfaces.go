package repository

import (
	"context"

	"streamwatch/internal/domain"
)

// WatchRepository handles watch entry persistence. Entries are keyed by
// the structured (guild, platform, identity) tuple; the store enforces
// its uniqueness.
type WatchRepository interface {
	Create(ctx context.Context, entry *domain.WatchEntry) error
	GetByKey(ctx context.Context, key domain.WatchKey) (*domain.WatchEntry, error)
	ListActive(ctx context.Context) ([]*domain.WatchEntry, error)
	ListByGuild(ctx context.Context, guildID string) ([]*domain.WatchEntry, error)
	// Delete removes an entry, reporting whether a row was actually deleted
	Delete(ctx context.Context, key domain.WatchKey) (bool, error)
	// SetActive flips the entry's active flag, recording the reason when
	// deactivating
	SetActive(ctx context.Context, key domain.WatchKey, active bool, errorMessage string) error
}

// RuntimeStateRepository is the durable mirror of per-entry monitoring
// state, written through after every check tick. Each write is scoped to
// one entry's row.
type RuntimeStateRepository interface {
	Save(ctx context.Context, key domain.WatchKey, state *domain.RuntimeState) error
	// Get returns the persisted state, or nil when the entry has never
	// been checked
	Get(ctx context.Context, key domain.WatchKey) (*domain.RuntimeState, error)
	Delete(ctx context.Context, key domain.WatchKey) error
}
