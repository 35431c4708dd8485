package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yourusername/ol-results/internal/ordering"
	"github.com/yourusername/ol-results/internal/service"
)

var rankingMode string

func init() {
	rankingCmd.Flags().StringVarP(&rankingMode, "mode", "m", ordering.RankingSequential.String(), "Ranking mode: sequential or fair")
}

var rankingCmd = &cobra.Command{
	Use:   "ranking <event-id> [class]",
	Short: "Print the ranked results of an event or one of its classes",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, ok := ordering.ParseRankingMode(rankingMode)
		if !ok {
			return fmt.Errorf("unknown ranking mode %q", rankingMode)
		}
		id, err := validator.ParseEventID(args[0])
		if err != nil {
			return err
		}

		var tables []*service.ClassRanking
		if len(args) == 2 {
			table, err := ranking.ClassRanking(cmd.Context(), int64(id), args[1], mode)
			if err != nil {
				return err
			}
			tables = append(tables, table)
		} else {
			tables, err = ranking.EventRanking(cmd.Context(), int64(id), mode)
			if err != nil {
				return err
			}
		}

		for _, table := range tables {
			if err := printRanking(cmd.OutOrStdout(), table); err != nil {
				return err
			}
		}
		return nil
	},
}

func printRanking(out io.Writer, table *service.ClassRanking) error {
	title := table.ClassName
	if table.RaceNumber > 0 {
		title = fmt.Sprintf("%s (race %d)", title, table.RaceNumber)
	}
	fmt.Fprintln(out, title)

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, rr := range table.Results {
		rank := "-"
		if rr.Rank > 0 {
			rank = fmt.Sprintf("%d", rr.Rank)
		}
		elapsed := "-"
		if rr.Result.Time != nil {
			elapsed = rr.Result.Time.StringFixed(0)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", rank, rr.Result.Person.Name(), rr.Result.Organisation, elapsed, rr.Result.Status)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(out)
	return nil
}
