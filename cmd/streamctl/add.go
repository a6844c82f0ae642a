package main

import (
	"fmt"
	"time"

	"streamwatch/internal/domain"

	"github.com/spf13/cobra"
)

var addFlags struct {
	guildID   string
	channelID string
	roleID    string
	message   string

	liveInterval    time.Duration
	offlineInterval time.Duration
	nightInterval   time.Duration

	nightMode      bool
	nightStartHour int
	nightEndHour   int
}

func init() {
	rootCmd.AddCommand(addCmd)

	addCmd.Flags().StringVar(&addFlags.guildID, "guild", "", "Discord server ID the watch belongs to")
	addCmd.Flags().StringVar(&addFlags.channelID, "channel", "", "Discord channel ID that receives notifications")
	addCmd.Flags().StringVar(&addFlags.roleID, "role", "", "Discord role ID to mention (optional)")
	addCmd.Flags().StringVar(&addFlags.message, "message", "Stream is live!", "Notification message")
	addCmd.MarkFlagRequired("guild")
	addCmd.MarkFlagRequired("channel")

	addCmd.Flags().DurationVar(&addFlags.liveInterval, "live-interval", 0, "Check interval while live (default 30m)")
	addCmd.Flags().DurationVar(&addFlags.offlineInterval, "offline-interval", 0, "Check interval while offline (default 2m)")
	addCmd.Flags().DurationVar(&addFlags.nightInterval, "night-interval", 0, "Check interval during the night window (default 30m)")

	addCmd.Flags().BoolVar(&addFlags.nightMode, "night-mode", false, "Slow down checks during the night window")
	addCmd.Flags().IntVar(&addFlags.nightStartHour, "night-start", 20, "Hour (0-23) the night window opens")
	addCmd.Flags().IntVar(&addFlags.nightEndHour, "night-end", 8, "Hour (0-23) the night window closes")
}

var addCmd = &cobra.Command{
	Use:   "add <platform> <identity-or-url>",
	Short: "Register a streamer to watch",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		platform := domain.Platform(args[0])
		if !platform.Valid() {
			return fmt.Errorf("unsupported platform %q (use twitch, tiktok, or kick)", args[0])
		}

		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		entry := &domain.WatchEntry{
			Destination: domain.Destination{
				GuildID:   addFlags.guildID,
				ChannelID: addFlags.channelID,
				RoleID:    addFlags.roleID,
			},
			Platform:        platform,
			Identity:        args[1],
			MessageTemplate: addFlags.message,
			CheckIntervals: domain.CheckIntervals{
				Live:    addFlags.liveInterval,
				Offline: addFlags.offlineInterval,
				Night:   addFlags.nightInterval,
			},
			NightMode: domain.NightMode{
				Enabled:   addFlags.nightMode,
				StartHour: addFlags.nightStartHour,
				EndHour:   addFlags.nightEndHour,
			},
		}
		// Partial interval overrides fall back to the defaults
		if entry.CheckIntervals != (domain.CheckIntervals{}) {
			defaults := domain.DefaultCheckIntervals()
			if entry.CheckIntervals.Live == 0 {
				entry.CheckIntervals.Live = defaults.Live
			}
			if entry.CheckIntervals.Offline == 0 {
				entry.CheckIntervals.Offline = defaults.Offline
			}
			if entry.CheckIntervals.Night == 0 {
				entry.CheckIntervals.Night = defaults.Night
			}
		}

		id, err := s.registry.Add(cmd.Context(), entry)
		if err != nil {
			return err
		}

		fmt.Printf("Added watch %s: %s on %s -> channel %s\n",
			id, entry.Identity, entry.Platform, entry.ChannelID)
		return nil
	},
}
