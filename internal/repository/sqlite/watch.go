package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"streamwatch/internal/domain"
)

// WatchRepository implements repository.WatchRepository for SQLite
type WatchRepository struct {
	db *DB
}

// NewWatchRepository creates a new WatchRepository
func NewWatchRepository(db *DB) *WatchRepository {
	return &WatchRepository{db: db}
}

const watchColumns = `id, guild_id, channel_id, role_id, platform, identity, profile_url,
	message_template, interval_live_seconds, interval_offline_seconds, interval_night_seconds,
	night_enabled, night_start_hour, night_end_hour, is_active, error_message, created_at, updated_at`

// Create inserts a new watch entry. A violation of the
// (guild, platform, identity) unique key surfaces as ErrDuplicateWatch.
func (r *WatchRepository) Create(ctx context.Context, entry *domain.WatchEntry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO watches (`+watchColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		entry.ID,
		entry.Destination.GuildID,
		entry.Destination.ChannelID,
		nullString(entry.Destination.RoleID),
		string(entry.Platform),
		entry.Identity,
		entry.ProfileURL,
		nullString(entry.MessageTemplate),
		int(entry.CheckIntervals.Live.Seconds()),
		int(entry.CheckIntervals.Offline.Seconds()),
		int(entry.CheckIntervals.Night.Seconds()),
		entry.NightMode.Enabled,
		entry.NightMode.StartHour,
		entry.NightMode.EndHour,
		entry.IsActive,
		nullString(entry.ErrorMessage),
		entry.CreatedAt,
		entry.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("watch for %s/%s in guild %s: %w",
				entry.Platform, entry.Identity, entry.Destination.GuildID, domain.ErrDuplicateWatch)
		}
		return fmt.Errorf("failed to insert watch: %w", err)
	}
	return nil
}

// GetByKey retrieves a watch entry by its structured key
func (r *WatchRepository) GetByKey(ctx context.Context, key domain.WatchKey) (*domain.WatchEntry, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+watchColumns+`
		FROM watches
		WHERE guild_id = ? AND platform = ? AND identity = ?
	`, key.GuildID, string(key.Platform), key.Identity)

	entry, err := scanWatch(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("watch %s/%s in guild %s: %w",
			key.Platform, key.Identity, key.GuildID, domain.ErrWatchNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query watch: %w", err)
	}
	return entry, nil
}

// ListActive retrieves all watch entries that should be monitored
func (r *WatchRepository) ListActive(ctx context.Context) ([]*domain.WatchEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+watchColumns+`
		FROM watches
		WHERE is_active = 1
		ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query active watches: %w", err)
	}
	defer rows.Close()

	return collectWatches(rows)
}

// ListAll retrieves every watch entry, active or not
func (r *WatchRepository) ListAll(ctx context.Context) ([]*domain.WatchEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+watchColumns+`
		FROM watches
		ORDER BY guild_id, platform, identity
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query watches: %w", err)
	}
	defer rows.Close()

	return collectWatches(rows)
}

// ListByGuild retrieves all watch entries for a guild, active or not
func (r *WatchRepository) ListByGuild(ctx context.Context, guildID string) ([]*domain.WatchEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+watchColumns+`
		FROM watches
		WHERE guild_id = ?
		ORDER BY created_at
	`, guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to query guild watches: %w", err)
	}
	defer rows.Close()

	return collectWatches(rows)
}

// Delete removes a watch entry and its runtime state, reporting whether a
// row was actually deleted
func (r *WatchRepository) Delete(ctx context.Context, key domain.WatchKey) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM watches
		WHERE guild_id = ? AND platform = ? AND identity = ?
	`, key.GuildID, string(key.Platform), key.Identity)
	if err != nil {
		return false, fmt.Errorf("failed to delete watch: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	// Runtime state has no reason to outlive its entry
	_, err = r.db.ExecContext(ctx, `
		DELETE FROM watch_runtime_state
		WHERE guild_id = ? AND platform = ? AND identity = ?
	`, key.GuildID, string(key.Platform), key.Identity)
	if err != nil {
		return true, fmt.Errorf("failed to delete runtime state: %w", err)
	}

	return true, nil
}

// SetActive flips the entry's active flag, recording the reason when
// deactivating
func (r *WatchRepository) SetActive(ctx context.Context, key domain.WatchKey, active bool, errorMessage string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE watches
		SET is_active = ?, error_message = ?, updated_at = ?
		WHERE guild_id = ? AND platform = ? AND identity = ?
	`,
		active,
		nullString(errorMessage),
		timeNow(),
		key.GuildID,
		string(key.Platform),
		key.Identity,
	)
	if err != nil {
		return fmt.Errorf("failed to update watch activity: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("watch %s/%s in guild %s: %w",
			key.Platform, key.Identity, key.GuildID, domain.ErrWatchNotFound)
	}
	return nil
}

// scanner covers both sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanWatch(s scanner) (*domain.WatchEntry, error) {
	var entry domain.WatchEntry
	var roleID, messageTemplate, errorMessage sql.NullString
	var platform string
	var liveSec, offlineSec, nightSec int
	var createdAt, updatedAt time.Time

	err := s.Scan(
		&entry.ID,
		&entry.Destination.GuildID,
		&entry.Destination.ChannelID,
		&roleID,
		&platform,
		&entry.Identity,
		&entry.ProfileURL,
		&messageTemplate,
		&liveSec,
		&offlineSec,
		&nightSec,
		&entry.NightMode.Enabled,
		&entry.NightMode.StartHour,
		&entry.NightMode.EndHour,
		&entry.IsActive,
		&errorMessage,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	entry.Destination.RoleID = roleID.String
	entry.Platform = domain.Platform(platform)
	entry.MessageTemplate = messageTemplate.String
	entry.ErrorMessage = errorMessage.String
	entry.CheckIntervals = domain.CheckIntervals{
		Live:    time.Duration(liveSec) * time.Second,
		Offline: time.Duration(offlineSec) * time.Second,
		Night:   time.Duration(nightSec) * time.Second,
	}
	entry.CreatedAt = createdAt
	entry.UpdatedAt = updatedAt

	return &entry, nil
}

func collectWatches(rows *sql.Rows) ([]*domain.WatchEntry, error) {
	var entries []*domain.WatchEntry
	for rows.Next() {
		entry, err := scanWatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan watch: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate watches: %w", err)
	}
	return entries, nil
}

// isUniqueViolation reports whether the error is a SQLite unique
// constraint failure
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
