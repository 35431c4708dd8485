package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/ol-results/internal/health"
	"github.com/yourusername/ol-results/internal/metrics"
	"github.com/yourusername/ol-results/internal/scheduler"
)

var pollURLs []string

func init() {
	serveCmd.Flags().StringSliceVar(&pollURLs, "poll-url", nil, "Result list URL to re-import on the import schedule (repeatable)")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Watch for result lists and expose health and metrics endpoints",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		events, err := repos.Event.FindAll(ctx)
		if err != nil {
			return fmt.Errorf("failed to list stored events: %w", err)
		}
		metrics.UpdateEventsStored(float64(len(events)))

		healthCfg := health.Config{
			ServiceName: cfg.App.Name,
			Version:     Version,
			Commit:      GitCommit,
			Port:        cfg.Metrics.Port,
			Logger:      appLog,
			Events:      repos.Event,
			Imports:     importer.Metrics(),
		}
		if db != nil {
			healthCfg.DB = db
		}
		if cfg.Metrics.Enabled {
			healthCfg.MetricsPath = cfg.Metrics.Path
		}

		sched := scheduler.NewScheduler(importer, appLog)
		if cfg.Import.WatchDir != "" {
			if err := sched.ScheduleDirectoryScan(cfg.Import.Schedule, cfg.Import.WatchDir); err != nil {
				return err
			}
			if _, err := sched.ScanDirectory(ctx, cfg.Import.WatchDir); err != nil {
				appLog.WithError(err).Warn("Initial directory scan failed")
			}
		}
		for _, url := range pollURLs {
			if err := sched.ScheduleURLImport(cfg.Import.Schedule, url); err != nil {
				return err
			}
		}
		if cfg.Import.WatchDir != "" || len(pollURLs) > 0 {
			if err := sched.Start(); err != nil {
				return err
			}
			defer sched.Stop()
			healthCfg.Scheduler = sched
		}

		srv, err := health.NewServer(healthCfg)
		if err != nil {
			return err
		}
		if err := srv.Start(ctx); err != nil {
			return fmt.Errorf("failed to start health server: %w", err)
		}

		srv.SetReady(true)
		appLog.WithFields(logrus.Fields{
			"port":      cfg.Metrics.Port,
			"watch_dir": cfg.Import.WatchDir,
			"urls":      len(pollURLs),
		}).Info("ol-results serving")

		<-ctx.Done()
		srv.SetReady(false)
		appLog.Info("Shutting down")

		return srv.Shutdown()
	},
}
