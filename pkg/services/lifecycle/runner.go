package lifecycle

import (
	"context"
	"errors"
	"net/url"
	"path"
	"sync"
	"time"

	"github.com/ct-tools/cloudscope/pkg/models/domain"
	"github.com/rs/zerolog"
)

// Backend is the slice of the report service the runner drives: one
// submission, then status lookups by report id.
type Backend interface {
	Submit(ctx context.Context, req domain.ReportRequest) (domain.Submission, error)
	Status(ctx context.Context, reportID string) (domain.ReportRecord, error)
}

type Config struct {
	PollInterval    time.Duration
	MaxAttempts     int
	ProgressFloor   int
	ProgressCeiling int
}

func DefaultConfig() Config {
	return Config{
		PollInterval:    time.Second,
		MaxAttempts:     10,
		ProgressFloor:   10,
		ProgressCeiling: 95,
	}
}

// Runner walks a single submission through its lifecycle: submit, then
// either finish right away on a synchronous download URL or poll the
// backend until the report completes, fails or the attempt budget runs
// out. A runner is good for exactly one submission; the controller
// creates a fresh one per generation.
type Runner struct {
	backend Backend
	clock   Clock
	config  Config

	done    chan struct{}
	updates chan domain.GenerationStatus

	mu     sync.Mutex
	status domain.GenerationStatus
	err    error
}

func NewRunner(backend Backend, clock Clock, config Config) *Runner {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultConfig().PollInterval
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = DefaultConfig().MaxAttempts
	}
	if config.ProgressCeiling <= config.ProgressFloor || config.ProgressCeiling >= 100 {
		def := DefaultConfig()
		config.ProgressFloor = def.ProgressFloor
		config.ProgressCeiling = def.ProgressCeiling
	}

	return &Runner{
		backend: backend,
		clock:   clock,
		config:  config,
		done:    make(chan struct{}),
		updates: make(chan domain.GenerationStatus, 100),
		status:  domain.GenerationStatus{State: domain.GenerationIdle},
	}
}

func (r *Runner) Done() <-chan struct{} {
	return r.done
}

// Updates streams status snapshots and is closed when the run ends.
func (r *Runner) Updates() <-chan domain.GenerationStatus {
	return r.updates
}

// Status returns the latest snapshot.
func (r *Runner) Status() domain.GenerationStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Err returns the terminal error of the run, nil while it is live and
// after a successful completion.
func (r *Runner) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Run drives the lifecycle to a terminal state. Cancelling ctx stops
// the run without recording a terminal outcome.
func (r *Runner) Run(ctx context.Context, req domain.ReportRequest) {
	logger := zerolog.Ctx(ctx).With().
		Str("account", req.Account).
		Str("report_type", string(req.ReportType)).
		Logger()
	defer close(r.done)
	defer close(r.updates)

	r.publish(domain.GenerationStatus{State: domain.GenerationSubmitting})

	sub, err := r.backend.Submit(ctx, req)
	if err != nil {
		logger.Error().Err(err).Msg("report submission failed")
		r.finish(domain.GenerationStatus{
			State:   domain.GenerationFailed,
			Message: "report submission failed",
		}, &domain.TransportError{Op: "submit report", Err: err})
		return
	}

	if sub.DownloadURL != "" {
		logger.Info().Str("download_url", sub.DownloadURL).Msg("report ready on submission")
		r.finish(domain.GenerationStatus{
			State:       domain.GenerationCompleted,
			Progress:    100,
			DownloadURL: sub.DownloadURL,
			Filename:    filenameFromURL(sub.DownloadURL),
		}, nil)
		return
	}

	if sub.ReportID == "" {
		err := errors.New("backend returned neither a download url nor a report id")
		logger.Error().Err(err).Msg("report submission failed")
		r.finish(domain.GenerationStatus{
			State:   domain.GenerationFailed,
			Message: "report submission failed",
		}, &domain.TransportError{Op: "submit report", Err: err})
		return
	}

	logger = logger.With().Str("report_id", sub.ReportID).Logger()
	logger.Info().Msg("report queued, polling for completion")
	r.publish(domain.GenerationStatus{
		State:    domain.GenerationPolling,
		Progress: r.config.ProgressFloor,
	})

	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		if err := r.clock.Sleep(ctx, r.config.PollInterval); err != nil {
			logger.Info().Int("attempt", attempt).Msg("report polling cancelled")
			return
		}

		record, err := r.backend.Status(ctx, sub.ReportID)
		if err != nil {
			// Transient: the attempt is spent but the loop keeps going.
			pollErr := &domain.PollTransportError{Attempt: attempt, Err: err}
			logger.Warn().Err(pollErr).Msg("status poll failed")
			r.publish(r.pollingStatus(attempt))
			continue
		}

		switch record.Status {
		case domain.ReportStatusCompleted:
			logger.Info().Int("attempt", attempt).Str("download_url", record.DownloadURL).Msg("report completed")
			r.finish(domain.GenerationStatus{
				State:       domain.GenerationCompleted,
				Progress:    100,
				Attempt:     attempt,
				DownloadURL: record.DownloadURL,
				Filename:    filenameFromURL(record.DownloadURL),
			}, nil)
			return
		case domain.ReportStatusFailed:
			logger.Error().Int("attempt", attempt).Str("reason", record.Error).Msg("report failed")
			r.finish(domain.GenerationStatus{
				State:   domain.GenerationFailed,
				Attempt: attempt,
				Message: "report generation failed",
			}, &domain.BackendFailure{ReportID: sub.ReportID, Message: record.Error})
			return
		default:
			r.publish(r.pollingStatus(attempt))
		}
	}

	logger.Warn().Int("attempts", r.config.MaxAttempts).Msg("report still processing, giving up")
	r.finish(domain.GenerationStatus{
		State:   domain.GenerationTimedOut,
		Attempt: r.config.MaxAttempts,
		Message: "the report is taking longer than expected, check back later",
	}, &domain.PollExhausted{ReportID: sub.ReportID, Attempts: r.config.MaxAttempts})
}

// pollingStatus spreads progress evenly between the floor and the
// ceiling so it creeps toward, but never reaches, 100 while polling.
func (r *Runner) pollingStatus(attempt int) domain.GenerationStatus {
	span := r.config.ProgressCeiling - r.config.ProgressFloor
	return domain.GenerationStatus{
		State:    domain.GenerationPolling,
		Progress: r.config.ProgressFloor + span*attempt/r.config.MaxAttempts,
		Attempt:  attempt,
	}
}

func (r *Runner) publish(s domain.GenerationStatus) {
	r.mu.Lock()
	// Progress never moves backwards.
	if s.Progress < r.status.Progress {
		s.Progress = r.status.Progress
	}
	r.status = s
	r.mu.Unlock()

	r.updates <- s
}

func (r *Runner) finish(s domain.GenerationStatus, err error) {
	r.mu.Lock()
	r.err = err
	r.mu.Unlock()

	r.publish(s)
}

func filenameFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return path.Base(raw)
	}
	return path.Base(u.Path)
}
