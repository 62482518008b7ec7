package schedule

import (
	"context"
	"fmt"

	"github.com/ct-tools/cloudscope/pkg/models/domain"
	"github.com/ct-tools/cloudscope/pkg/models/store"
	"github.com/ct-tools/cloudscope/pkg/services/registry"
	"github.com/ct-tools/cloudscope/pkg/store/duckdb/reportcfg"
	"github.com/robfig/cron"
	"github.com/rs/zerolog"
)

// Submitter is the slice of the report service a scheduled run needs.
type Submitter interface {
	Submit(ctx context.Context, req domain.ReportRequest) (domain.Submission, error)
}

// Scheduler replays saved recurring report configs on a cron cadence.
// Secrets are never stored with the schedule, so each run resolves
// credentials from the profile registry by account name.
type Scheduler struct {
	cron     *cron.Cron
	configs  reportcfg.Store
	registry registry.Registry
	backend  Submitter
	logger   zerolog.Logger
}

func NewScheduler(
	configs reportcfg.Store,
	reg registry.Registry,
	backend Submitter,
	logger zerolog.Logger,
) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		configs:  configs,
		registry: reg,
		backend:  backend,
		logger:   logger,
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	configs, err := s.configs.ListRecurring(ctx)
	if err != nil {
		return fmt.Errorf("failed to load recurring report configs: %w", err)
	}

	for _, cfg := range configs {
		if err := s.add(cfg); err != nil {
			s.logger.Warn().Err(err).Str("config_id", cfg.ID).Msg("skipping schedule")
		}
	}

	s.cron.Start()
	s.logger.Info().Int("schedules", len(s.cron.Entries())).Msg("report scheduler started")
	return nil
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
}

// Entries returns the number of active schedules.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) add(cfg store.ReportConfig) error {
	spec, err := cronSpec(cfg.Frequency)
	if err != nil {
		return err
	}

	return s.cron.AddJob(spec, &reportJob{
		cfg:      cfg,
		registry: s.registry,
		backend:  s.backend,
		logger:   s.logger.With().Str("config_id", cfg.ID).Logger(),
	})
}

// Reports run at 06:00 so they are waiting when the workday starts.
func cronSpec(frequency string) (string, error) {
	switch domain.Frequency(frequency) {
	case domain.FrequencyDaily:
		return "0 0 6 * * *", nil
	case domain.FrequencyWeekly:
		return "0 0 6 * * 1", nil
	default:
		return "", fmt.Errorf("frequency %q is not schedulable", frequency)
	}
}
