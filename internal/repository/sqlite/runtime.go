package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"streamwatch/internal/domain"
)

// RuntimeStateRepository implements repository.RuntimeStateRepository for
// SQLite. Writes are upserts scoped to a single entry's row, matching the
// write-through-per-tick access pattern.
type RuntimeStateRepository struct {
	db *DB
}

// NewRuntimeStateRepository creates a new RuntimeStateRepository
func NewRuntimeStateRepository(db *DB) *RuntimeStateRepository {
	return &RuntimeStateRepository{db: db}
}

// Save upserts the runtime state for one watch entry
func (r *RuntimeStateRepository) Save(ctx context.Context, key domain.WatchKey, state *domain.RuntimeState) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO watch_runtime_state (
			guild_id, platform, identity, is_live, last_check_at, last_success_at,
			consecutive_errors, total_errors, total_successes, last_error, check_status, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (guild_id, platform, identity) DO UPDATE SET
			is_live = excluded.is_live,
			last_check_at = excluded.last_check_at,
			last_success_at = excluded.last_success_at,
			consecutive_errors = excluded.consecutive_errors,
			total_errors = excluded.total_errors,
			total_successes = excluded.total_successes,
			last_error = excluded.last_error,
			check_status = excluded.check_status,
			updated_at = excluded.updated_at
	`,
		key.GuildID,
		string(key.Platform),
		key.Identity,
		state.IsLive,
		nullTime(state.LastCheckAt),
		nullTime(state.LastSuccessAt),
		state.ConsecutiveErrors,
		state.TotalErrors,
		state.TotalSuccesses,
		nullString(state.LastError),
		string(state.Status),
		timeNow(),
	)
	if err != nil {
		return fmt.Errorf("failed to save runtime state: %w", err)
	}
	return nil
}

// Get returns the persisted runtime state, or nil when the entry has
// never been checked
func (r *RuntimeStateRepository) Get(ctx context.Context, key domain.WatchKey) (*domain.RuntimeState, error) {
	var state domain.RuntimeState
	var lastCheckAt, lastSuccessAt sql.NullTime
	var lastError sql.NullString
	var status string

	err := r.db.QueryRowContext(ctx, `
		SELECT is_live, last_check_at, last_success_at, consecutive_errors,
		       total_errors, total_successes, last_error, check_status
		FROM watch_runtime_state
		WHERE guild_id = ? AND platform = ? AND identity = ?
	`, key.GuildID, string(key.Platform), key.Identity).Scan(
		&state.IsLive,
		&lastCheckAt,
		&lastSuccessAt,
		&state.ConsecutiveErrors,
		&state.TotalErrors,
		&state.TotalSuccesses,
		&lastError,
		&status,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query runtime state: %w", err)
	}

	state.LastCheckAt = lastCheckAt.Time
	state.LastSuccessAt = lastSuccessAt.Time
	state.LastError = lastError.String
	state.Status = domain.CheckStatus(status)

	return &state, nil
}

// Delete removes the runtime state row for one watch entry
func (r *RuntimeStateRepository) Delete(ctx context.Context, key domain.WatchKey) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM watch_runtime_state
		WHERE guild_id = ? AND platform = ? AND identity = ?
	`, key.GuildID, string(key.Platform), key.Identity)
	if err != nil {
		return fmt.Errorf("failed to delete runtime state: %w", err)
	}
	return nil
}
