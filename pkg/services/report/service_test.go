package report

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ct-tools/cloudscope/pkg/models/domain"
	"github.com/ct-tools/cloudscope/pkg/services/delivery"
	"github.com/ct-tools/cloudscope/pkg/services/report/render"
	"github.com/ct-tools/cloudscope/pkg/store/duckdb"
	reportstore "github.com/ct-tools/cloudscope/pkg/store/duckdb/report"
	"github.com/ct-tools/cloudscope/pkg/store/duckdb/reportcfg"
	_ "github.com/marcboeker/go-duckdb/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGenerator struct {
	err error
}

func (s stubGenerator) Generate(_ context.Context, req domain.ReportRequest) (*domain.Report, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Report{Title: "stub", Account: req.Account}, nil
}

type stubRenderer struct {
	format domain.ReportFormat
}

func (s stubRenderer) Format() domain.ReportFormat { return s.format }

func (s stubRenderer) Render(*domain.Report) ([]byte, error) {
	return []byte("rendered"), nil
}

type memArtifacts struct {
	mu    sync.Mutex
	files map[string][]byte
}

func (m *memArtifacts) Put(_ context.Context, name string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.files == nil {
		m.files = make(map[string][]byte)
	}
	m.files[name] = data
	return "/reports/files/" + name, nil
}

type captureSender struct {
	mu       sync.Mutex
	messages []delivery.Message
}

func (c *captureSender) Send(_ context.Context, msg delivery.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, msg)
	return nil
}

func (c *captureSender) sent() []delivery.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]delivery.Message(nil), c.messages...)
}

type serviceFixture struct {
	db        *sql.DB
	svc       *Service
	reports   reportstore.Store
	configs   reportcfg.Store
	artifacts *memArtifacts
	sender    *captureSender
}

func setupService(t *testing.T, gen Generator, cfg Config) *serviceFixture {
	db, err := duckdb.NewDB(duckdb.Settings{DbPath: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	reports, err := reportstore.NewStore(db)
	require.NoError(t, err)
	configs, err := reportcfg.NewStore(db)
	require.NoError(t, err)

	artifacts := &memArtifacts{}
	sender := &captureSender{}

	renderers := map[domain.ReportFormat]render.Renderer{
		domain.FormatPDF: stubRenderer{format: domain.FormatPDF},
		domain.FormatCSV: stubRenderer{format: domain.FormatCSV},
	}

	svc := NewService(db, reports, configs, gen, renderers, artifacts, sender, cfg)
	return &serviceFixture{
		db:        db,
		svc:       svc,
		reports:   reports,
		configs:   configs,
		artifacts: artifacts,
		sender:    sender,
	}
}

func utilizationReq() domain.ReportRequest {
	return domain.ReportRequest{
		Account:     "prod",
		Provider:    domain.ProviderAWS,
		ReportType:  domain.ReportTypeUtilization,
		ResourceIDs: []string{"ec2|i-1|us-east-1"},
		Frequency:   domain.FrequencyOnce,
		Format:      domain.FormatPDF,
		Credentials: domain.Credentials{AccountName: "prod", Secrets: map[string]string{"access_key_id": "AKIA"}},
	}
}

func billingReq() domain.ReportRequest {
	return domain.ReportRequest{
		Account:     "prod",
		Provider:    domain.ProviderAWS,
		ReportType:  domain.ReportTypeBilling,
		Timeframe:   &domain.Timeframe{Year: 2026, Month: 7},
		Format:      domain.FormatPDF,
		Credentials: domain.Credentials{AccountName: "prod", Secrets: map[string]string{"access_key_id": "AKIA"}},
	}
}

func TestService_SubmitBillingIsSynchronous(t *testing.T) {
	f := setupService(t, stubGenerator{}, DefaultConfig())
	ctx := context.Background()

	sub, err := f.svc.Submit(ctx, billingReq())
	require.NoError(t, err)

	assert.Empty(t, sub.ReportID)
	require.NotEmpty(t, sub.DownloadURL)
	assert.Contains(t, sub.DownloadURL, "/reports/files/prod-")
	assert.Contains(t, sub.DownloadURL, ".pdf")

	records, err := f.svc.History(ctx, "prod", 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, domain.ReportStatusCompleted, records[0].Status)
	assert.Equal(t, sub.DownloadURL, records[0].DownloadURL)
}

func TestService_SubmitUtilizationIsQueued(t *testing.T) {
	f := setupService(t, stubGenerator{}, DefaultConfig())
	ctx := context.Background()

	sub, err := f.svc.Submit(ctx, utilizationReq())
	require.NoError(t, err)

	assert.Empty(t, sub.DownloadURL)
	require.NotEmpty(t, sub.ReportID)

	record, err := f.svc.Status(ctx, sub.ReportID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReportStatusPending, record.Status)

	j := <-f.svc.queue
	f.svc.process(ctx, j)

	record, err = f.svc.Status(ctx, sub.ReportID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReportStatusCompleted, record.Status)
	assert.NotEmpty(t, record.DownloadURL)
}

func TestService_WorkersDrainTheQueue(t *testing.T) {
	f := setupService(t, stubGenerator{}, Config{Workers: 1, QueueSize: 4})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f.svc.Start(ctx)

	sub, err := f.svc.Submit(ctx, utilizationReq())
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		record, err := f.svc.Status(context.Background(), sub.ReportID)
		return err == nil && record.Status == domain.ReportStatusCompleted
	}, 2*time.Second, 10*time.Millisecond)
}

func TestService_RecurringRequestSavesSchedule(t *testing.T) {
	f := setupService(t, stubGenerator{}, DefaultConfig())
	ctx := context.Background()

	req := utilizationReq()
	req.Frequency = domain.FrequencyDaily
	req.Delivery = domain.Delivery{EmailEnabled: true, EmailAddress: "ops@example.com"}

	_, err := f.svc.Submit(ctx, req)
	require.NoError(t, err)

	cfg, err := f.configs.Get(ctx, "aws:prod:utilization")
	require.NoError(t, err)
	assert.Equal(t, "daily", cfg.Frequency)
	assert.JSONEq(t, `["ec2|i-1|us-east-1"]`, cfg.Resources)
	require.NotNil(t, cfg.Email)
	assert.Equal(t, "ops@example.com", *cfg.Email)
}

func TestService_BillingIsAlwaysOneOff(t *testing.T) {
	f := setupService(t, stubGenerator{}, DefaultConfig())
	ctx := context.Background()

	req := billingReq()
	req.Frequency = domain.FrequencyDaily

	_, err := f.svc.Submit(ctx, req)
	require.NoError(t, err)

	_, err = f.configs.Get(ctx, "aws:prod:billing")
	assert.ErrorIs(t, err, reportcfg.ErrNotFound)
}

func TestService_SubmitValidation(t *testing.T) {
	f := setupService(t, stubGenerator{}, DefaultConfig())
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*domain.ReportRequest)
	}{
		{"missing account", func(r *domain.ReportRequest) { r.Account = "" }},
		{"unknown provider", func(r *domain.ReportRequest) { r.Provider = "gcp" }},
		{"missing credentials", func(r *domain.ReportRequest) { r.Credentials.Secrets = nil }},
		{"no resources", func(r *domain.ReportRequest) { r.ResourceIDs = nil }},
		{"bad format", func(r *domain.ReportRequest) { r.Format = "xlsx" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := utilizationReq()
			tt.mutate(&req)

			_, err := f.svc.Submit(ctx, req)
			var verr *domain.ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}

	t.Run("rejected requests leave no record", func(t *testing.T) {
		stats, err := f.svc.Stats(ctx)
		require.NoError(t, err)
		assert.Zero(t, stats.Total)
	})
}

func TestService_BillingGenerationFailureMarksRecordFailed(t *testing.T) {
	f := setupService(t, stubGenerator{err: errors.New("throttled")}, DefaultConfig())
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, billingReq())
	require.Error(t, err)

	records, err := f.svc.History(ctx, "prod", 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, domain.ReportStatusFailed, records[0].Status)
	assert.Contains(t, records[0].Error, "throttled")
}

func TestService_FullQueueRejectsSubmission(t *testing.T) {
	f := setupService(t, stubGenerator{}, Config{Workers: 1, QueueSize: 1})
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, utilizationReq())
	require.NoError(t, err)

	_, err = f.svc.Submit(ctx, utilizationReq())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "queue is full")
}

func TestService_StatusUnknownReport(t *testing.T) {
	f := setupService(t, stubGenerator{}, DefaultConfig())

	_, err := f.svc.Status(context.Background(), "ghost")
	assert.ErrorIs(t, err, reportstore.ErrNotFound)
}

func TestService_NotifiesWhenDeliveryEnabled(t *testing.T) {
	f := setupService(t, stubGenerator{}, DefaultConfig())
	ctx := context.Background()

	req := billingReq()
	req.Delivery = domain.Delivery{EmailEnabled: true, EmailAddress: "ops@example.com"}

	sub, err := f.svc.Submit(ctx, req)
	require.NoError(t, err)

	messages := f.sender.sent()
	require.Len(t, messages, 1)
	assert.Equal(t, "ops@example.com", messages[0].To)
	assert.Equal(t, sub.DownloadURL, messages[0].DownloadURL)
	assert.Equal(t, "billing", messages[0].ReportType)
}

func TestNormalizeRequest(t *testing.T) {
	t.Run("defaults format and frequency", func(t *testing.T) {
		req := normalizeRequest(domain.ReportRequest{})
		assert.Equal(t, domain.FormatPDF, req.Format)
		assert.Equal(t, domain.FrequencyOnce, req.Frequency)
	})

	t.Run("billing overrides frequency", func(t *testing.T) {
		req := normalizeRequest(domain.ReportRequest{
			ReportType: domain.ReportTypeBilling,
			Frequency:  domain.FrequencyWeekly,
		})
		assert.Equal(t, domain.FrequencyOnce, req.Frequency)
	})

	t.Run("utilization keeps the chosen frequency", func(t *testing.T) {
		req := normalizeRequest(domain.ReportRequest{
			ReportType: domain.ReportTypeUtilization,
			Frequency:  domain.FrequencyWeekly,
		})
		assert.Equal(t, domain.FrequencyWeekly, req.Frequency)
	})
}
