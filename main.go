package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"streamwatch/internal/adapter"
	"streamwatch/internal/config"
	"streamwatch/internal/domain"
	"streamwatch/internal/logger"
	"streamwatch/internal/monitor"
	"streamwatch/internal/notify"
	"streamwatch/internal/repository/sqlite"
	"streamwatch/internal/service"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (ignore error if file doesn't exist)
	_ = godotenv.Load()

	// Load configuration from environment variables
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Log configuration (excluding secrets)
	cfg.LogConfiguration()

	appLog := logger.New(logger.ParseLevel(cfg.LogLevel))

	// Initialize SQLite database with WAL mode
	db, err := sqlite.NewDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Run database migrations to ensure schema is up to date
	if err := sqlite.Migrate(db.DB); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize data access layer (repositories)
	watchRepo := sqlite.NewWatchRepository(db)
	stateRepo := sqlite.NewRuntimeStateRepository(db)

	// Initialize platform probes for external streaming APIs
	probes := map[domain.Platform]domain.PlatformProbe{
		domain.PlatformTwitch: adapter.NewTwitchProbe(cfg.TwitchClientID, cfg.TwitchSecret, cfg.ProbeTimeout),
		domain.PlatformTikTok: adapter.NewTikTokProbe(cfg.ProbeTimeout),
		domain.PlatformKick:   adapter.NewKickProbe(cfg.ProbeTimeout),
	}

	// Initialize notification delivery
	notifier := notify.NewDiscordNotifier(cfg.DiscordBotToken)
	dispatcher := notify.NewDispatcher(notifier, appLog)

	// Initialize the watch registry and the monitor supervising one
	// check task per active watch
	registry := service.NewWatchService(watchRepo, cfg.CheckIntervals, appLog)
	mon := monitor.New(registry, stateRepo, probes, dispatcher, appLog, cfg.ProbeTimeout)

	if err := mon.StartAll(context.Background()); err != nil {
		log.Fatalf("Failed to start stream monitor: %v", err)
	}

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLog.Info("Shutting down stream monitor", nil)
	mon.StopAll()
	appLog.Info("Stream monitor exited", nil)
}
