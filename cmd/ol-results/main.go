// Package main provides the ol-results command line tool.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/ol-results/internal/config"
	"github.com/yourusername/ol-results/internal/database"
	"github.com/yourusername/ol-results/internal/datasource"
	"github.com/yourusername/ol-results/internal/logger"
	"github.com/yourusername/ol-results/internal/metrics"
	"github.com/yourusername/ol-results/internal/repository"
	"github.com/yourusername/ol-results/internal/service"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

const setupTimeout = 30 * time.Second

var (
	configFile string
	appLog     *logrus.Logger
	cfg        *config.Config
	db         *database.DB
	repos      *repository.Repositories
	validator  *service.DataValidator
	importer   *service.ImportService
	ranking    *service.RankingService
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "config/config.yaml", "Path to configuration file")

	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(rankingCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

var rootCmd = &cobra.Command{
	Use:           "ol-results",
	Short:         "Import and query IOF orienteering result lists",
	Long:          `Imports IOF XML 3.0 result lists into an event store and answers ranking queries over them.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd == versionCmd {
			return nil
		}
		if err := loadConfig(cmd.Context()); err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if err := setupDependencies(cmd.Context()); err != nil {
			return fmt.Errorf("failed to setup dependencies: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if db != nil {
			db.Close()
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ol-results %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
	},
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func loadConfig(ctx context.Context) error {
	var err error
	cfg, err = config.LoadWithDefaults(configFile)
	if err != nil {
		return err
	}

	if cfg.Secrets.SecretName != "" {
		ctx, cancel := context.WithTimeout(ctx, setupTimeout)
		defer cancel()
		if err := config.LoadSecretsFromAWS(ctx, cfg, cfg.Secrets.Region, cfg.Secrets.SecretName); err != nil {
			return err
		}
	}

	return config.Validate(cfg)
}

func setupDependencies(ctx context.Context) error {
	appLog = logger.NewLoggerForEnvironment(cfg.App.LogLevel, cfg.App.Environment)
	appLog.SetOutput(os.Stderr)
	appLog.WithFields(logrus.Fields{
		"environment": cfg.App.Environment,
		"storage":     cfg.Storage.Backend,
	}).Debug("Configuration loaded")

	metrics.InitRegistry()

	if cfg.UsesPostgres() {
		ctx, cancel := context.WithTimeout(ctx, setupTimeout)
		defer cancel()

		var err error
		db, err = database.NewDB(ctx, &cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := database.Initialize(ctx, db); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
		repos, err = repository.NewRepositories(db, cfg.CacheTTL(), nil)
		if err != nil {
			return fmt.Errorf("failed to initialize repositories: %w", err)
		}
	} else {
		repos = repository.NewMemoryRepositories()
	}

	validator = service.NewDataValidator(appLog)
	importer = service.NewImportService(repos.Event, validator, service.NewDataNormalizer(appLog), appLog, cfg.Import.BatchSize).
		WithFetcher(datasource.NewFetcherFromConfig(cfg, appLog))
	ranking = service.NewRankingService(repos.Event, validator)

	return nil
}
