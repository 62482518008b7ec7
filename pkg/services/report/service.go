package report

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ct-tools/cloudscope/pkg/adapters"
	"github.com/ct-tools/cloudscope/pkg/artifact"
	"github.com/ct-tools/cloudscope/pkg/models/domain"
	"github.com/ct-tools/cloudscope/pkg/models/store"
	"github.com/ct-tools/cloudscope/pkg/services/delivery"
	"github.com/ct-tools/cloudscope/pkg/services/report/render"
	"github.com/ct-tools/cloudscope/pkg/store/duckdb"
	reportstore "github.com/ct-tools/cloudscope/pkg/store/duckdb/report"
	"github.com/ct-tools/cloudscope/pkg/store/duckdb/reportcfg"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Config sizes the background generation pool.
type Config struct {
	Workers   int
	QueueSize int
}

func DefaultConfig() Config {
	return Config{Workers: 2, QueueSize: 16}
}

type job struct {
	id  string
	req domain.ReportRequest
}

// Service runs the report lifecycle behind the submission API. Billing
// reports are produced synchronously and answered with a download URL;
// utilization reports are queued and answered with a report id the
// caller polls.
type Service struct {
	db        *sql.DB
	reports   reportstore.Store
	configs   reportcfg.Store
	generator Generator
	renderers map[domain.ReportFormat]render.Renderer
	artifacts artifact.Store
	sender    delivery.Sender
	queue     chan job
	workers   int
	now       func() time.Time
}

func NewService(
	db *sql.DB,
	reports reportstore.Store,
	configs reportcfg.Store,
	generator Generator,
	renderers map[domain.ReportFormat]render.Renderer,
	artifacts artifact.Store,
	sender delivery.Sender,
	cfg Config,
) *Service {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultConfig().Workers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultConfig().QueueSize
	}
	return &Service{
		db:        db,
		reports:   reports,
		configs:   configs,
		generator: generator,
		renderers: renderers,
		artifacts: artifacts,
		sender:    sender,
		queue:     make(chan job, cfg.QueueSize),
		workers:   cfg.Workers,
		now:       time.Now,
	}
}

// Start launches the background workers. They exit when ctx is
// cancelled.
func (s *Service) Start(ctx context.Context) {
	for i := 0; i < s.workers; i++ {
		go s.worker(ctx, i)
	}
}

func (s *Service) Submit(ctx context.Context, req domain.ReportRequest) (domain.Submission, error) {
	req = normalizeRequest(req)
	if err := validateRequest(req); err != nil {
		return domain.Submission{}, err
	}

	id := uuid.NewString()
	now := s.now().UTC()
	record := store.Report{
		ID:          id,
		Account:     req.Account,
		Provider:    string(req.Provider),
		ReportType:  string(req.ReportType),
		Format:      string(req.Format),
		Status:      string(domain.ReportStatusPending),
		RequestedAt: now,
		UpdatedAt:   now,
	}

	if err := s.persistSubmission(ctx, record, req); err != nil {
		return domain.Submission{}, fmt.Errorf("failed to record submission: %w", err)
	}

	if req.ReportType == domain.ReportTypeBilling {
		url, err := s.produce(ctx, id, req)
		if err != nil {
			s.markFailed(ctx, id, err)
			return domain.Submission{}, err
		}
		s.notify(ctx, req, url)
		return domain.Submission{DownloadURL: url}, nil
	}

	select {
	case s.queue <- job{id: id, req: req}:
		return domain.Submission{ReportID: id}, nil
	default:
		err := fmt.Errorf("report queue is full")
		s.markFailed(ctx, id, err)
		return domain.Submission{}, err
	}
}

func (s *Service) Status(ctx context.Context, reportID string) (domain.ReportRecord, error) {
	record, err := s.reports.Get(ctx, reportID)
	if err != nil {
		return domain.ReportRecord{}, err
	}
	return adapters.MapStoreReportToDomainRecord(*record), nil
}

func (s *Service) History(ctx context.Context, account string, limit int) ([]domain.ReportRecord, error) {
	reports, err := s.reports.List(ctx, account, limit)
	if err != nil {
		return nil, err
	}

	records := make([]domain.ReportRecord, 0, len(reports))
	for _, r := range reports {
		records = append(records, adapters.MapStoreReportToDomainRecord(r))
	}
	return records, nil
}

func (s *Service) Stats(ctx context.Context) (*store.ReportStats, error) {
	return s.reports.Stats(ctx)
}

// persistSubmission writes the pending record and, for recurring
// requests, the schedule config in one transaction.
func (s *Service) persistSubmission(ctx context.Context, record store.Report, req domain.ReportRequest) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	txCtx := duckdb.WithTransaction(ctx, tx)

	if err := s.reports.Create(txCtx, record); err != nil {
		_ = tx.Rollback()
		return err
	}

	if req.Frequency == domain.FrequencyDaily || req.Frequency == domain.FrequencyWeekly {
		cfg, err := scheduleConfig(req, record.RequestedAt)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
		if err := s.configs.Save(txCtx, cfg); err != nil {
			_ = tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}

// scheduleConfig derives the stored schedule from a recurring request.
// The id is deterministic per account and report type so resubmitting
// updates the schedule instead of stacking duplicates. Credentials are
// never persisted; scheduled runs resolve them from the profile
// registry by account name.
func scheduleConfig(req domain.ReportRequest, at time.Time) (store.ReportConfig, error) {
	resources, err := json.Marshal(req.ResourceIDs)
	if err != nil {
		return store.ReportConfig{}, fmt.Errorf("failed to encode resource refs: %w", err)
	}

	cfg := store.ReportConfig{
		ID:        fmt.Sprintf("%s:%s:%s", req.Provider, req.Account, req.ReportType),
		Account:   req.Account,
		Provider:  string(req.Provider),
		Type:      string(req.ReportType),
		Resources: string(resources),
		Frequency: string(req.Frequency),
		Format:    string(req.Format),
		CreatedAt: at,
		UpdatedAt: at,
	}
	if req.Delivery.EmailEnabled && req.Delivery.EmailAddress != "" {
		cfg.Email = &req.Delivery.EmailAddress
	}
	return cfg, nil
}

// produce generates, renders and stores the report, then marks the
// record completed. The returned URL points at the stored artifact.
func (s *Service) produce(ctx context.Context, id string, req domain.ReportRequest) (string, error) {
	report, err := s.generator.Generate(ctx, req)
	if err != nil {
		return "", err
	}

	renderer, ok := s.renderers[req.Format]
	if !ok {
		return "", fmt.Errorf("no renderer for format %s", req.Format)
	}
	data, err := renderer.Render(report)
	if err != nil {
		return "", err
	}

	name := render.FileName(req.Account, s.now().UTC(), req.Format)
	url, err := s.artifacts.Put(ctx, name, data)
	if err != nil {
		return "", err
	}

	completed := string(domain.ReportStatusCompleted)
	if err := s.reports.UpdateStatus(ctx, id, completed, &url, nil); err != nil {
		return "", err
	}
	return url, nil
}

func (s *Service) markFailed(ctx context.Context, id string, cause error) {
	failed := string(domain.ReportStatusFailed)
	msg := cause.Error()
	if err := s.reports.UpdateStatus(ctx, id, failed, nil, &msg); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("report_id", id).Msg("failed to mark report failed")
	}
}

func (s *Service) worker(ctx context.Context, n int) {
	logger := zerolog.Ctx(ctx).With().Int("worker", n).Logger()
	ctx = logger.WithContext(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			s.process(ctx, j)
		}
	}
}

func (s *Service) process(ctx context.Context, j job) {
	logger := zerolog.Ctx(ctx)

	processing := string(domain.ReportStatusProcessing)
	if err := s.reports.UpdateStatus(ctx, j.id, processing, nil, nil); err != nil {
		logger.Error().Err(err).Str("report_id", j.id).Msg("failed to mark report processing")
	}

	url, err := s.produce(ctx, j.id, j.req)
	if err != nil {
		logger.Error().Err(err).Str("report_id", j.id).Msg("report generation failed")
		s.markFailed(ctx, j.id, err)
		return
	}

	logger.Info().Str("report_id", j.id).Str("url", url).Msg("report generated")
	s.notify(ctx, j.req, url)
}

func (s *Service) notify(ctx context.Context, req domain.ReportRequest, url string) {
	if !req.Delivery.EmailEnabled || req.Delivery.EmailAddress == "" {
		return
	}

	msg := delivery.Message{
		To:          req.Delivery.EmailAddress,
		Account:     req.Account,
		ReportType:  string(req.ReportType),
		DownloadURL: url,
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("to", msg.To).Msg("failed to send report notification")
	}
}

// normalizeRequest fills the defaults the wizard guarantees but direct
// API submissions may omit. Billing is always a one-off regardless of
// the requested frequency.
func normalizeRequest(req domain.ReportRequest) domain.ReportRequest {
	if req.Format == "" {
		req.Format = domain.FormatPDF
	}
	if req.Frequency == "" || req.ReportType == domain.ReportTypeBilling {
		req.Frequency = domain.FrequencyOnce
	}
	return req
}

func validateRequest(req domain.ReportRequest) error {
	switch {
	case req.Account == "":
		return &domain.ValidationError{Message: "account name is required"}
	case req.Provider != domain.ProviderAWS && req.Provider != domain.ProviderAzure:
		return &domain.ValidationError{Message: fmt.Sprintf("unsupported provider %q", req.Provider)}
	case len(req.Credentials.Secrets) == 0:
		return &domain.ValidationError{Message: "credentials are required"}
	}

	switch req.ReportType {
	case domain.ReportTypeUtilization:
		if len(req.ResourceIDs) == 0 {
			return &domain.ValidationError{Message: "select at least one resource"}
		}
	case domain.ReportTypeBilling:
		if req.Timeframe == nil || !req.Timeframe.Valid() {
			return &domain.ValidationError{Message: "billing report requires a year and month"}
		}
	default:
		return &domain.ValidationError{Message: fmt.Sprintf("unsupported report type %q", req.ReportType)}
	}

	switch req.Format {
	case domain.FormatPDF, domain.FormatCSV, domain.FormatJSON:
	default:
		return &domain.ValidationError{Message: fmt.Sprintf("unsupported format %q", req.Format)}
	}

	return nil
}
