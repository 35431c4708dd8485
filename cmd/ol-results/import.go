package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yourusername/ol-results/internal/models"
)

var importCmd = &cobra.Command{
	Use:   "import <file|url>...",
	Short: "Import one or more IOF result lists",
	Long: `Imports IOF XML 3.0 result lists from files or http(s) URLs. Reimporting a
list for an existing event replaces its class results.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		failed := 0
		for _, src := range args {
			event, err := importSource(cmd, src)
			if err != nil {
				failed++
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", src, err)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: event %d %q, %d classes, %d results\n",
				src, event.ID, event.Name, len(event.ClassResults), event.ResultCount())
		}

		appLog.WithField("metrics", importer.Metrics().String()).Debug("Import finished")

		if failed > 0 {
			return fmt.Errorf("%d of %d imports failed", failed, len(args))
		}
		return nil
	},
}

func importSource(cmd *cobra.Command, src string) (*models.Event, error) {
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		return importer.ImportURL(cmd.Context(), src)
	}
	return importer.ImportPath(cmd.Context(), src)
}
