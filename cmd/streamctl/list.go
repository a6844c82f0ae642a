package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"streamwatch/internal/domain"

	"github.com/spf13/cobra"
)

var listGuildID string

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVar(&listGuildID, "guild", "", "Only show watches for this Discord server")
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered watches",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		var entries []*domain.WatchEntry
		if listGuildID != "" {
			entries, err = s.registry.ListForGuild(cmd.Context(), listGuildID)
		} else {
			entries, err = s.watches.ListAll(cmd.Context())
		}
		if err != nil {
			return err
		}

		if len(entries) == 0 {
			fmt.Println("No watches registered")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "GUILD\tPLATFORM\tIDENTITY\tCHANNEL\tACTIVE\tERROR")
		for _, e := range entries {
			active := "yes"
			if !e.IsActive {
				active = "no"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				e.GuildID, e.Platform, e.Identity, e.ChannelID, active, e.ErrorMessage)
		}
		return w.Flush()
	},
}
