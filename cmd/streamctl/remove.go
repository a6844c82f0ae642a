package main

import (
	"fmt"

	"streamwatch/internal/domain"

	"github.com/spf13/cobra"
)

var removeGuildID string

func init() {
	rootCmd.AddCommand(removeCmd)

	removeCmd.Flags().StringVar(&removeGuildID, "guild", "", "Discord server ID the watch belongs to")
	removeCmd.MarkFlagRequired("guild")
}

var removeCmd = &cobra.Command{
	Use:   "remove <platform> <identity-or-url>",
	Short: "Stop watching a streamer",
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

		removed, err := s.registry.Remove(cmd.Context(), domain.WatchKey{
			GuildID:  removeGuildID,
			Platform: platform,
			Identity: args[1],
		})
		if err != nil {
			return err
		}
		if !removed {
			fmt.Println("No matching watch found")
			return nil
		}
		fmt.Println("Watch removed")
		return nil
	},
}
