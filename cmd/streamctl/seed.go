package main

import (
	"fmt"

	"streamwatch/internal/domain"
	"streamwatch/internal/seed"

	"github.com/spf13/cobra"
)

var seedFlags struct {
	guildID   string
	channelID string
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().StringVar(&seedFlags.guildID, "guild", "", "Discord server ID the demo watches belong to")
	seedCmd.Flags().StringVar(&seedFlags.channelID, "channel", "", "Discord channel ID that receives notifications")
	seedCmd.MarkFlagRequired("guild")
	seedCmd.MarkFlagRequired("channel")
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Populate the registry with demo watches for local development",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		seeder := seed.NewSeeder(s.registry, domain.Destination{
			GuildID:   seedFlags.guildID,
			ChannelID: seedFlags.channelID,
		})
		result, err := seeder.SeedDemoWatches(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("Seeded %d watches (%d skipped, %d failed)\n",
			len(result.Created), len(result.Skipped), len(result.Failed))
		for _, err := range result.Errors {
			fmt.Println(" -", err)
		}
		return nil
	},
}
