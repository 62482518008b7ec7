package schedule

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ct-tools/cloudscope/pkg/models/domain"
	"github.com/ct-tools/cloudscope/pkg/models/store"
	"github.com/ct-tools/cloudscope/pkg/services/registry"
	"github.com/rs/zerolog"
)

type reportJob struct {
	cfg      store.ReportConfig
	registry registry.Registry
	backend  Submitter
	logger   zerolog.Logger
}

func (j *reportJob) Run() {
	ctx := j.logger.WithContext(context.Background())
	if err := j.run(ctx); err != nil {
		j.logger.Error().Err(err).Msg("scheduled report run failed")
	}
}

func (j *reportJob) run(ctx context.Context) error {
	req, err := buildRequest(ctx, j.cfg, j.registry)
	if err != nil {
		return err
	}

	sub, err := j.backend.Submit(ctx, req)
	if err != nil {
		return err
	}

	j.logger.Info().
		Str("report_id", sub.ReportID).
		Str("download_url", sub.DownloadURL).
		Msg("scheduled report submitted")
	return nil
}

// buildRequest rehydrates a report request from the stored schedule.
// The profile registry must hold a profile named after the account.
func buildRequest(ctx context.Context, cfg store.ReportConfig, reg registry.Registry) (domain.ReportRequest, error) {
	creds, err := reg.GetCredentials(ctx, cfg.Account)
	if err != nil {
		return domain.ReportRequest{}, fmt.Errorf("failed to resolve credentials for %s: %w", cfg.Account, err)
	}

	var resources []string
	if cfg.Resources != "" {
		if err := json.Unmarshal([]byte(cfg.Resources), &resources); err != nil {
			return domain.ReportRequest{}, fmt.Errorf("failed to decode resource refs: %w", err)
		}
	}

	req := domain.ReportRequest{
		Account:     cfg.Account,
		Provider:    domain.Provider(cfg.Provider),
		ReportType:  domain.ReportType(cfg.Type),
		ResourceIDs: resources,
		Frequency:   domain.Frequency(cfg.Frequency),
		Format:      domain.ReportFormat(cfg.Format),
		Credentials: creds,
	}
	if cfg.Email != nil && *cfg.Email != "" {
		req.Delivery = domain.Delivery{EmailEnabled: true, EmailAddress: *cfg.Email}
	}
	return req, nil
}
