// streamctl administers the stream watch registry from the command
// line. It operates directly on the SQLite store, so it works whether
// or not the monitor daemon is running.
package main

import (
	"fmt"
	"os"

	"streamwatch/internal/domain"
	"streamwatch/internal/logger"
	"streamwatch/internal/repository/sqlite"
	"streamwatch/internal/service"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var databasePath string

var rootCmd = &cobra.Command{
	Use:   "streamctl",
	Short: "Manage stream liveness watches",
	Long: `streamctl manages the watch entries the stream monitor polls.
Watches pair a streamer identity on twitch, tiktok, or kick with the
Discord channel that gets notified when the stream goes live.`,
	SilenceUsage: true,
}

func init() {
	_ = godotenv.Load()

	defaultPath := os.Getenv("DATABASE_PATH")
	if defaultPath == "" {
		defaultPath = "./data/streamwatch.db"
	}
	rootCmd.PersistentFlags().StringVar(&databasePath, "db", defaultPath, "Path to the SQLite database")
}

// store bundles the handles every subcommand needs
type store struct {
	db       *sqlite.DB
	registry domain.WatchRegistry
	watches  *sqlite.WatchRepository
	states   *sqlite.RuntimeStateRepository
}

func openStore() (*store, error) {
	db, err := sqlite.NewDB(databasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := sqlite.Migrate(db.DB); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	watches := sqlite.NewWatchRepository(db)
	return &store{
		db:       db,
		registry: service.NewWatchService(watches, domain.CheckIntervals{}, logger.New(logger.LevelError)),
		watches:  watches,
		states:   sqlite.NewRuntimeStateRepository(db),
	}, nil
}

func (s *store) Close() {
	s.db.Close()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
