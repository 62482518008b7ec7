package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/ct-tools/cloudscope/pkg/artifact"
	"github.com/ct-tools/cloudscope/pkg/models/domain"
	"github.com/ct-tools/cloudscope/pkg/server"
	"github.com/ct-tools/cloudscope/pkg/services/account"
	awsaccount "github.com/ct-tools/cloudscope/pkg/services/account/aws"
	azureaccount "github.com/ct-tools/cloudscope/pkg/services/account/azure"
	"github.com/ct-tools/cloudscope/pkg/services/billing"
	awsbilling "github.com/ct-tools/cloudscope/pkg/services/billing/aws"
	azurebilling "github.com/ct-tools/cloudscope/pkg/services/billing/azure"
	"github.com/ct-tools/cloudscope/pkg/services/config"
	"github.com/ct-tools/cloudscope/pkg/services/delivery"
	"github.com/ct-tools/cloudscope/pkg/services/lifecycle"
	"github.com/ct-tools/cloudscope/pkg/services/registry"
	"github.com/ct-tools/cloudscope/pkg/services/report"
	"github.com/ct-tools/cloudscope/pkg/services/report/render"
	"github.com/ct-tools/cloudscope/pkg/services/schedule"
	"github.com/ct-tools/cloudscope/pkg/services/usage"
	awsusage "github.com/ct-tools/cloudscope/pkg/services/usage/aws"
	azureusage "github.com/ct-tools/cloudscope/pkg/services/usage/azure"
	"github.com/ct-tools/cloudscope/pkg/services/wizard"
	"github.com/ct-tools/cloudscope/pkg/store/duckdb"
	reportstore "github.com/ct-tools/cloudscope/pkg/store/duckdb/report"
	"github.com/ct-tools/cloudscope/pkg/store/duckdb/reportcfg"
	"github.com/ct-tools/cloudscope/pkg/store/specs"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var cfgPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "web",
		Short: "Start the CloudScope web server",
		RunE:  runServer,
	}

	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", "",
		"Path to the config file (defaults plus CLOUDSCOPE_* env vars apply without one)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("No .env file loaded: %v\n", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	ctx := logger.WithContext(cmd.Context())

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	profiles := loadProfiles(ctx, cfg.Profiles.Path, logger)

	db, err := duckdb.NewDB(duckdb.Settings{DbPath: cfg.Store.Path})
	if err != nil {
		return fmt.Errorf("failed to open the report store: %w", err)
	}
	reports, err := reportstore.NewStore(db)
	if err != nil {
		return fmt.Errorf("failed to create the report store: %w", err)
	}
	configs, err := reportcfg.NewStore(db)
	if err != nil {
		return fmt.Errorf("failed to create the report config store: %w", err)
	}

	accounts := account.NewRegistry()
	if err := accounts.Register(domain.ProviderAWS, awsaccount.NewExplorer()); err != nil {
		return err
	}
	if err := accounts.Register(domain.ProviderAzure, azureaccount.NewExplorer()); err != nil {
		return err
	}

	specsStore := specs.NewStore()
	generator := report.NewGenerator(
		map[domain.Provider]usage.Factory{
			domain.ProviderAWS:   awsusage.Factory(specsStore),
			domain.ProviderAzure: azureusage.Factory(),
		},
		map[domain.Provider]billing.Factory{
			domain.ProviderAWS:   awsbilling.Factory(),
			domain.ProviderAzure: azurebilling.Factory(),
		},
	)

	artifacts, filesDir, err := newArtifactStore(ctx, cfg)
	if err != nil {
		return err
	}

	sender := delivery.NewNoop()
	if cfg.Email.Enabled {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return fmt.Errorf("failed to load AWS config for email delivery: %w", err)
		}
		sender = delivery.NewSES(awsCfg, cfg.Email.From)
	}

	reportService := report.NewService(db, reports, configs, generator, render.Registry(), artifacts, sender,
		report.Config{
			Workers:   cfg.Reports.Workers,
			QueueSize: cfg.Reports.QueueSize,
		})
	reportService.Start(ctx)

	scheduler := schedule.NewScheduler(configs, profiles, reportService, logger)
	if err := scheduler.Start(ctx); err != nil {
		return fmt.Errorf("failed to start the report scheduler: %w", err)
	}
	defer scheduler.Stop()

	controller := lifecycle.NewController(reportService, lifecycle.NewClock(), lifecycle.Config{
		PollInterval: time.Duration(cfg.Reports.PollSeconds) * time.Second,
		MaxAttempts:  cfg.Reports.MaxAttempts,
	})

	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	api := server.NewWebAPI(logger, server.Config{
		Addr: addr,
		Dependencies: server.Dependencies{
			Logger:    logger,
			Sessions:  wizard.NewManager(),
			Accounts:  accounts,
			Generator: controller,
			Profiles:  profiles,
			Reports:   reportService,
			FilesDir:  filesDir,
		},
	})

	return api.Start()
}

// loadProfiles is tolerant of a missing profiles file: the wizard still
// works with inline credentials, only profile lookups and scheduled
// runs need the registry.
func loadProfiles(ctx context.Context, path string, logger zerolog.Logger) registry.Registry {
	if _, err := os.Stat(path); err != nil {
		logger.Warn().Str("path", path).Msg("profiles file not found, profile lookups disabled")
		return registry.NewEmptyRegistry()
	}

	profiles, err := registry.NewFileRegistry(path)
	if err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("failed to load profiles, profile lookups disabled")
		return registry.NewEmptyRegistry()
	}

	stored, _ := profiles.GetProfiles(ctx)
	logger.Info().Msgf("Profiles found at `%s`:", path)
	for _, p := range stored {
		logger.Info().Msgf("Name: `%s`, Provider: `%s`", p.Name, p.Provider)
	}
	return profiles
}

// newArtifactStore picks the artifact backend. The second return is the
// local directory the server should expose for downloads, empty when
// artifacts live in object storage.
func newArtifactStore(ctx context.Context, cfg *config.Config) (artifact.Store, string, error) {
	switch cfg.Artifacts.Backend {
	case "s3":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load AWS config for the artifact store: %w", err)
		}
		ttl := time.Duration(cfg.Artifacts.LinkTTLHours) * time.Hour
		return artifact.NewS3(awsCfg, cfg.Artifacts.Bucket, cfg.Artifacts.Prefix, ttl), "", nil
	case "fs", "":
		fs, err := artifact.NewFS(cfg.Artifacts.Dir, "/api/v1/reports/files")
		if err != nil {
			return nil, "", fmt.Errorf("failed to prepare the artifact directory: %w", err)
		}
		return fs, fs.Dir(), nil
	default:
		return nil, "", fmt.Errorf("unknown artifact backend %q", cfg.Artifacts.Backend)
	}
}
