package seed

import (
	"context"
	"errors"
	"fmt"
	"log"

	"streamwatch/internal/domain"
)

// DemoStreamers are well known handles used to populate a fresh
// database for local development
var DemoStreamers = []struct {
	Platform domain.Platform
	Identity string
}{
	{domain.PlatformKick, "xqc"},
	{domain.PlatformKick, "adinross"},
	{domain.PlatformTwitch, "shroud"},
	{domain.PlatformTwitch, "pokimane"},
	{domain.PlatformTikTok, "charlidamelio"},
}

// Seeder populates the registry with demo watch entries
type Seeder struct {
	registry domain.WatchRegistry
	dest     domain.Destination
}

// NewSeeder creates a new Seeder targeting the given destination
func NewSeeder(registry domain.WatchRegistry, dest domain.Destination) *Seeder {
	return &Seeder{
		registry: registry,
		dest:     dest,
	}
}

// Result contains the results of a seeding operation
type Result struct {
	Created []string // Identities of newly created watches
	Skipped []string // Identities that already existed (skipped)
	Failed  []string // Identities that failed to seed
	Errors  []error  // Errors encountered during seeding
}

// SeedDemoWatches registers a watch for every demo streamer. The
// operation is idempotent - existing watches are skipped.
func (s *Seeder) SeedDemoWatches(ctx context.Context) (*Result, error) {
	result := &Result{
		Created: make([]string, 0),
		Skipped: make([]string, 0),
		Failed:  make([]string, 0),
		Errors:  make([]error, 0),
	}

	for _, streamer := range DemoStreamers {
		entry := &domain.WatchEntry{
			Destination:     s.dest,
			Platform:        streamer.Platform,
			Identity:        streamer.Identity,
			MessageTemplate: "Stream is live!",
		}

		_, err := s.registry.Add(ctx, entry)
		switch {
		case err == nil:
			result.Created = append(result.Created, streamer.Identity)
		case errors.Is(err, domain.ErrDuplicateWatch):
			result.Skipped = append(result.Skipped, streamer.Identity)
		default:
			result.Failed = append(result.Failed, streamer.Identity)
			result.Errors = append(result.Errors, fmt.Errorf("failed to seed %s: %w", streamer.Identity, err))
			log.Printf("Failed to seed watch %s: %v", streamer.Identity, err)
		}
	}

	return result, nil
}
