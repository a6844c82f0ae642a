package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the last observed state of every watch",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		entries, err := s.watches.ListAll(cmd.Context())
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No watches registered")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "PLATFORM\tIDENTITY\tLIVE\tLAST CHECK\tERRORS\tSTATUS\tLAST ERROR")
		for _, e := range entries {
			state, err := s.states.Get(cmd.Context(), e.Key())
			if err != nil {
				return err
			}

			if state == nil {
				fmt.Fprintf(w, "%s\t%s\t-\tnever\t-\t-\t%s\n", e.Platform, e.Identity, e.ErrorMessage)
				continue
			}

			live := "no"
			if state.IsLive {
				live = "yes"
			}
			lastError := state.LastError
			if !e.IsActive && e.ErrorMessage != "" {
				lastError = e.ErrorMessage
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d/%d\t%s\t%s\n",
				e.Platform, e.Identity, live,
				formatAge(state.LastCheckAt),
				state.ConsecutiveErrors, state.TotalErrors,
				state.Status, lastError)
		}
		return w.Flush()
	},
}

func formatAge(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return fmt.Sprintf("%s ago", time.Since(t).Round(time.Second))
}
