package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List stored events",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		events, err := repos.Event.FindAll(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list events: %w", err)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tDATE\tCLASSES\tRESULTS")
		for _, e := range events {
			date := "-"
			if e.StartDate != nil {
				date = e.StartDate.Format("2006-01-02")
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\n", e.ID, e.Name, date, len(e.ClassResults), e.ResultCount())
		}
		return w.Flush()
	},
}
