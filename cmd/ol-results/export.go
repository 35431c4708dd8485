package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yourusername/ol-results/internal/iof"
)

var exportOutput string

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write to file instead of stdout")
}

var exportCmd = &cobra.Command{
	Use:   "export <event-id>",
	Short: "Write a stored event as an IOF result list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := validator.ParseEventID(args[0])
		if err != nil {
			return err
		}
		event, found, err := repos.Event.FindByID(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("failed to load event %d: %w", id, err)
		}
		if !found {
			return fmt.Errorf("event %d not found", id)
		}

		if exportOutput == "" {
			return iof.Write(cmd.OutOrStdout(), event)
		}

		f, err := os.Create(exportOutput)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", exportOutput, err)
		}
		if err := iof.Write(f, event); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	},
}
