package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"streamwatch/internal/domain"
	"streamwatch/internal/logger"
	"streamwatch/internal/repository"

	"github.com/google/uuid"
)

// timeNow is a variable for testing purposes
var timeNow = time.Now

// watchService implements domain.WatchRegistry over a WatchRepository.
// It owns identity normalization and profile URL derivation so every
// caller stores the same canonical key for the same streamer.
type watchService struct {
	watchRepo repository.WatchRepository
	defaults  domain.CheckIntervals
	logger    *logger.Logger
}

// NewWatchService creates a new WatchRegistry instance. Entries added
// without explicit intervals inherit the given defaults.
func NewWatchService(watchRepo repository.WatchRepository, defaults domain.CheckIntervals, log *logger.Logger) domain.WatchRegistry {
	if defaults == (domain.CheckIntervals{}) {
		defaults = domain.DefaultCheckIntervals()
	}
	if log == nil {
		log = logger.Default()
	}
	return &watchService{
		watchRepo: watchRepo,
		defaults:  defaults,
		logger:    log,
	}
}

// identityPatterns extract the handle when the user pasted a full channel
// URL instead of a bare username
var identityPatterns = map[domain.Platform]*regexp.Regexp{
	domain.PlatformTwitch: regexp.MustCompile(`twitch\.tv/([a-zA-Z0-9_]+)`),
	domain.PlatformTikTok: regexp.MustCompile(`tiktok\.com/@([a-zA-Z0-9_.]+)`),
	domain.PlatformKick:   regexp.MustCompile(`kick\.com/([a-zA-Z0-9_-]+)`),
}

// NormalizeIdentity canonicalizes a user-supplied handle: profile URLs are
// reduced to the handle, a leading @ is stripped, and the result is
// lowercased. Returns ErrInvalidInput when nothing usable remains.
func NormalizeIdentity(platform domain.Platform, raw string) (string, error) {
	identity := strings.TrimSpace(raw)

	if pattern, ok := identityPatterns[platform]; ok {
		if m := pattern.FindStringSubmatch(identity); m != nil {
			identity = m[1]
		}
	}

	identity = strings.TrimPrefix(identity, "@")
	identity = strings.ToLower(identity)

	if identity == "" {
		return "", fmt.Errorf("empty identity for platform %s: %w", platform, domain.ErrInvalidInput)
	}
	if strings.ContainsAny(identity, " /?#") {
		return "", fmt.Errorf("malformed identity %q: %w", raw, domain.ErrInvalidInput)
	}

	return identity, nil
}

// ProfileURL derives the canonical channel URL for a normalized identity
func ProfileURL(platform domain.Platform, identity string) string {
	switch platform {
	case domain.PlatformTwitch:
		return fmt.Sprintf("https://www.twitch.tv/%s", identity)
	case domain.PlatformTikTok:
		return fmt.Sprintf("https://www.tiktok.com/@%s", identity)
	case domain.PlatformKick:
		return fmt.Sprintf("https://kick.com/%s", identity)
	default:
		return ""
	}
}

// Add validates and stores a new watch entry, returning its assigned ID
func (s *watchService) Add(ctx context.Context, entry *domain.WatchEntry) (string, error) {
	if entry == nil {
		return "", fmt.Errorf("nil entry: %w", domain.ErrInvalidInput)
	}
	if !entry.Platform.Valid() {
		return "", fmt.Errorf("unsupported platform %q: %w", entry.Platform, domain.ErrInvalidInput)
	}
	if entry.Destination.GuildID == "" || entry.Destination.ChannelID == "" {
		return "", fmt.Errorf("destination guild and channel are required: %w", domain.ErrInvalidInput)
	}

	identity, err := NormalizeIdentity(entry.Platform, entry.Identity)
	if err != nil {
		return "", err
	}
	entry.Identity = identity

	if entry.ProfileURL == "" {
		entry.ProfileURL = ProfileURL(entry.Platform, identity)
	}
	if entry.CheckIntervals == (domain.CheckIntervals{}) {
		entry.CheckIntervals = s.defaults
	}
	if entry.NightMode == (domain.NightMode{}) {
		entry.NightMode = domain.DefaultNightMode()
	}

	entry.ID = uuid.New().String()
	entry.IsActive = true
	entry.ErrorMessage = ""
	now := timeNow()
	entry.CreatedAt = now
	entry.UpdatedAt = now

	if err := s.watchRepo.Create(ctx, entry); err != nil {
		return "", err
	}

	s.logger.Info("watch added", logger.Fields{
		"guild":    entry.Destination.GuildID,
		"platform": entry.Platform,
		"identity": entry.Identity,
	})

	return entry.ID, nil
}

// Remove deletes a watch entry; removing a nonexistent key is not an error
func (s *watchService) Remove(ctx context.Context, key domain.WatchKey) (bool, error) {
	identity, err := NormalizeIdentity(key.Platform, key.Identity)
	if err != nil {
		return false, err
	}
	key.Identity = identity

	removed, err := s.watchRepo.Delete(ctx, key)
	if err != nil {
		return false, err
	}
	if removed {
		s.logger.Info("watch removed", logger.Fields{
			"guild":    key.GuildID,
			"platform": key.Platform,
			"identity": key.Identity,
		})
	}
	return removed, nil
}

// ListActive returns every entry that should be monitored
func (s *watchService) ListActive(ctx context.Context) ([]*domain.WatchEntry, error) {
	return s.watchRepo.ListActive(ctx)
}

// ListForGuild returns all entries for one guild, active or not
func (s *watchService) ListForGuild(ctx context.Context, guildID string) ([]*domain.WatchEntry, error) {
	if guildID == "" {
		return nil, fmt.Errorf("guild ID cannot be empty: %w", domain.ErrInvalidInput)
	}
	return s.watchRepo.ListByGuild(ctx, guildID)
}

// Deactivate marks an entry as permanently failed
func (s *watchService) Deactivate(ctx context.Context, key domain.WatchKey, errorMessage string) error {
	if err := s.watchRepo.SetActive(ctx, key, false, errorMessage); err != nil {
		return err
	}
	s.logger.Warn("watch deactivated", logger.Fields{
		"guild":    key.GuildID,
		"platform": key.Platform,
		"identity": key.Identity,
		"reason":   errorMessage,
	})
	return nil
}
