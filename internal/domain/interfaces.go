package domain

import "context"

// PlatformProbe abstracts the per-platform liveness check. Implementations
// are stateless with respect to watch entries and safe for concurrent use
// across identities. An offline stream is an ordinary result, never an
// error; ErrIdentityNotFound (wrapped) marks the identity as permanently
// gone, any other error is a transient fault.
type PlatformProbe interface {
	CheckLive(ctx context.Context, identity string) (*LiveCheckResult, error)
}

// Notifier delivers a rendered notification to a destination. A wrapped
// ErrChannelGone marks the failure as permanent.
type Notifier interface {
	Send(ctx context.Context, dest Destination, message string) error
}

// WatchRegistry manages the set of watch entries. Identity normalization
// and unique-key enforcement live behind this interface.
type WatchRegistry interface {
	// Add validates and stores a new entry, returning its assigned ID.
	// Fails with ErrDuplicateWatch when the key is already registered.
	Add(ctx context.Context, entry *WatchEntry) (string, error)

	// Remove deletes an entry. Returns false when no entry matched;
	// removing a nonexistent key is not an error.
	Remove(ctx context.Context, key WatchKey) (bool, error)

	// ListActive returns every entry that should be monitored
	ListActive(ctx context.Context) ([]*WatchEntry, error)

	// ListForGuild returns all entries for one guild, active or not
	ListForGuild(ctx context.Context, guildID string) ([]*WatchEntry, error)

	// Deactivate marks an entry as permanently failed, retaining it with
	// the reason so the status view can surface it
	Deactivate(ctx context.Context, key WatchKey, errorMessage string) error
}
