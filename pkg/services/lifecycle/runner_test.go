package lifecycle

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ct-tools/cloudscope/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) Submit(ctx context.Context, req domain.ReportRequest) (domain.Submission, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(domain.Submission), args.Error(1)
}

func (m *mockBackend) Status(ctx context.Context, reportID string) (domain.ReportRecord, error) {
	args := m.Called(ctx, reportID)
	return args.Get(0).(domain.ReportRecord), args.Error(1)
}

// manualClock returns immediately and counts how often the runner
// slept, one sleep per poll attempt.
type manualClock struct {
	mu     sync.Mutex
	sleeps int
}

func (c *manualClock) Sleep(ctx context.Context, _ time.Duration) error {
	c.mu.Lock()
	c.sleeps++
	c.mu.Unlock()
	return ctx.Err()
}

func (c *manualClock) Sleeps() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sleeps
}

// blockingClock parks the runner inside Sleep until the context is
// cancelled, signalling once the first sleep is entered.
type blockingClock struct {
	entered chan struct{}
	once    sync.Once
}

func newBlockingClock() *blockingClock {
	return &blockingClock{entered: make(chan struct{})}
}

func (c *blockingClock) Sleep(ctx context.Context, _ time.Duration) error {
	c.once.Do(func() { close(c.entered) })
	<-ctx.Done()
	return ctx.Err()
}

func testConfig() Config {
	return Config{
		PollInterval:    time.Millisecond,
		MaxAttempts:     10,
		ProgressFloor:   10,
		ProgressCeiling: 95,
	}
}

func utilizationRequest() domain.ReportRequest {
	return domain.ReportRequest{
		Account:     "prod",
		Provider:    domain.ProviderAWS,
		ReportType:  domain.ReportTypeUtilization,
		ResourceIDs: []string{"ec2|i-1|us-east-1", "rds|db-1|us-east-1"},
		Frequency:   domain.FrequencyDaily,
		Format:      domain.FormatPDF,
	}
}

func drainUpdates(r *Runner) []domain.GenerationStatus {
	var out []domain.GenerationStatus
	for s := range r.Updates() {
		out = append(out, s)
	}
	return out
}

func TestRunner_SynchronousDownloadSkipsPolling(t *testing.T) {
	backend := &mockBackend{}
	backend.On("Submit", mock.Anything, mock.Anything).
		Return(domain.Submission{DownloadURL: "/reports/prod-01-06-2024.pdf"}, nil).Once()
	clock := &manualClock{}

	r := NewRunner(backend, clock, testConfig())
	r.Run(context.Background(), utilizationRequest())

	status := r.Status()
	assert.Equal(t, domain.GenerationCompleted, status.State)
	assert.Equal(t, 100, status.Progress)
	assert.Equal(t, "/reports/prod-01-06-2024.pdf", status.DownloadURL)
	assert.Equal(t, "prod-01-06-2024.pdf", status.Filename)
	assert.NoError(t, r.Err())

	backend.AssertNumberOfCalls(t, "Status", 0)
	assert.Equal(t, 0, clock.Sleeps())
}

func TestRunner_PollsUntilCompleted(t *testing.T) {
	backend := &mockBackend{}
	backend.On("Submit", mock.Anything, mock.Anything).
		Return(domain.Submission{ReportID: "42"}, nil).Once()
	backend.On("Status", mock.Anything, "42").
		Return(domain.ReportRecord{ID: "42", Status: domain.ReportStatusProcessing}, nil).Times(3)
	backend.On("Status", mock.Anything, "42").
		Return(domain.ReportRecord{
			ID:          "42",
			Status:      domain.ReportStatusCompleted,
			DownloadURL: "/reports/x.pdf",
		}, nil).Once()
	clock := &manualClock{}

	r := NewRunner(backend, clock, testConfig())
	r.Run(context.Background(), utilizationRequest())

	status := r.Status()
	assert.Equal(t, domain.GenerationCompleted, status.State)
	assert.Equal(t, 100, status.Progress)
	assert.Equal(t, "/reports/x.pdf", status.DownloadURL)
	assert.Equal(t, "x.pdf", status.Filename)
	assert.Equal(t, 4, status.Attempt)
	assert.NoError(t, r.Err())

	backend.AssertNumberOfCalls(t, "Status", 4)
	assert.Equal(t, 4, clock.Sleeps())
}

func TestRunner_StopsOnBackendFailure(t *testing.T) {
	backend := &mockBackend{}
	backend.On("Submit", mock.Anything, mock.Anything).
		Return(domain.Submission{ReportID: "42"}, nil).Once()
	backend.On("Status", mock.Anything, "42").
		Return(domain.ReportRecord{ID: "42", Status: domain.ReportStatusFailed, Error: "no data"}, nil).Once()
	clock := &manualClock{}

	r := NewRunner(backend, clock, testConfig())
	r.Run(context.Background(), utilizationRequest())

	status := r.Status()
	assert.Equal(t, domain.GenerationFailed, status.State)
	assert.Less(t, status.Progress, 100)

	var failure *domain.BackendFailure
	require.ErrorAs(t, r.Err(), &failure)
	assert.Equal(t, "42", failure.ReportID)
	assert.Equal(t, "no data", failure.Message)

	backend.AssertNumberOfCalls(t, "Status", 1)
}

func TestRunner_TimesOutAfterMaxAttempts(t *testing.T) {
	backend := &mockBackend{}
	backend.On("Submit", mock.Anything, mock.Anything).
		Return(domain.Submission{ReportID: "42"}, nil).Once()
	backend.On("Status", mock.Anything, "42").
		Return(domain.ReportRecord{ID: "42", Status: domain.ReportStatusProcessing}, nil)
	clock := &manualClock{}

	r := NewRunner(backend, clock, testConfig())
	r.Run(context.Background(), utilizationRequest())

	status := r.Status()
	assert.Equal(t, domain.GenerationTimedOut, status.State)
	assert.Equal(t, 10, status.Attempt)
	assert.Less(t, status.Progress, 100)
	assert.NotEmpty(t, status.Message)

	var exhausted *domain.PollExhausted
	require.ErrorAs(t, r.Err(), &exhausted)
	assert.Equal(t, 10, exhausted.Attempts)

	backend.AssertNumberOfCalls(t, "Status", 10)
	assert.Equal(t, 10, clock.Sleeps())
}

func TestRunner_SwallowsPollTransportErrors(t *testing.T) {
	backend := &mockBackend{}
	backend.On("Submit", mock.Anything, mock.Anything).
		Return(domain.Submission{ReportID: "42"}, nil).Once()
	backend.On("Status", mock.Anything, "42").
		Return(domain.ReportRecord{}, errors.New("connection reset")).Times(2)
	backend.On("Status", mock.Anything, "42").
		Return(domain.ReportRecord{
			ID:          "42",
			Status:      domain.ReportStatusCompleted,
			DownloadURL: "/reports/x.pdf",
		}, nil).Once()
	clock := &manualClock{}

	r := NewRunner(backend, clock, testConfig())
	r.Run(context.Background(), utilizationRequest())

	// Two failed polls burn two attempts but never end the run.
	status := r.Status()
	assert.Equal(t, domain.GenerationCompleted, status.State)
	assert.Equal(t, 3, status.Attempt)
	assert.NoError(t, r.Err())
	backend.AssertNumberOfCalls(t, "Status", 3)
}

func TestRunner_FailsWhenSubmitFails(t *testing.T) {
	backend := &mockBackend{}
	backend.On("Submit", mock.Anything, mock.Anything).
		Return(domain.Submission{}, errors.New("dial tcp: connection refused")).Once()
	clock := &manualClock{}

	r := NewRunner(backend, clock, testConfig())
	r.Run(context.Background(), utilizationRequest())

	status := r.Status()
	assert.Equal(t, domain.GenerationFailed, status.State)

	var transport *domain.TransportError
	require.ErrorAs(t, r.Err(), &transport)

	backend.AssertNumberOfCalls(t, "Status", 0)
	assert.Equal(t, 0, clock.Sleeps())
}

func TestRunner_FailsOnEmptySubmission(t *testing.T) {
	backend := &mockBackend{}
	backend.On("Submit", mock.Anything, mock.Anything).
		Return(domain.Submission{}, nil).Once()
	clock := &manualClock{}

	r := NewRunner(backend, clock, testConfig())
	r.Run(context.Background(), utilizationRequest())

	assert.Equal(t, domain.GenerationFailed, r.Status().State)
	backend.AssertNumberOfCalls(t, "Status", 0)
}

func TestRunner_ProgressIsMonotone(t *testing.T) {
	backend := &mockBackend{}
	backend.On("Submit", mock.Anything, mock.Anything).
		Return(domain.Submission{ReportID: "42"}, nil).Once()
	backend.On("Status", mock.Anything, "42").
		Return(domain.ReportRecord{ID: "42", Status: domain.ReportStatusProcessing}, nil).Times(6)
	backend.On("Status", mock.Anything, "42").
		Return(domain.ReportRecord{
			ID:          "42",
			Status:      domain.ReportStatusCompleted,
			DownloadURL: "/reports/x.pdf",
		}, nil).Once()
	clock := &manualClock{}

	r := NewRunner(backend, clock, testConfig())
	r.Run(context.Background(), utilizationRequest())
	updates := drainUpdates(r)

	require.NotEmpty(t, updates)
	last := 0
	for _, s := range updates {
		assert.GreaterOrEqual(t, s.Progress, last)
		last = s.Progress
		if s.Progress == 100 {
			assert.Equal(t, domain.GenerationCompleted, s.State)
		}
	}
	assert.Equal(t, 100, updates[len(updates)-1].Progress)
}

func TestRunner_CancellationLeavesNoTerminalOutcome(t *testing.T) {
	backend := &mockBackend{}
	backend.On("Submit", mock.Anything, mock.Anything).
		Return(domain.Submission{ReportID: "42"}, nil).Once()
	clock := newBlockingClock()

	ctx, cancel := context.WithCancel(context.Background())
	r := NewRunner(backend, clock, testConfig())
	go r.Run(ctx, utilizationRequest())

	<-clock.entered
	cancel()

	select {
	case <-r.Done():
	case <-time.After(time.Second):
		t.Fatal("runner did not stop after cancellation")
	}

	assert.Equal(t, domain.GenerationPolling, r.Status().State)
	assert.False(t, r.Status().State.Terminal())
	assert.NoError(t, r.Err())
	backend.AssertNumberOfCalls(t, "Status", 0)
}

func TestFilenameFromURL(t *testing.T) {
	assert.Equal(t, "x.pdf", filenameFromURL("/reports/x.pdf"))
	assert.Equal(t, "a.csv", filenameFromURL("https://example.com/reports/a.csv?sig=abc"))
	assert.Equal(t, "plain.json", filenameFromURL("plain.json"))
}
