package lifecycle

import (
	"context"
	"fmt"
	"sync"

	"github.com/ct-tools/cloudscope/pkg/models/domain"
)

// Controller tracks at most one generation run per wizard session.
type Controller interface {
	Start(ctx context.Context, sessionID string, req domain.ReportRequest) error
	Cancel(ctx context.Context, sessionID string) error
	Status(sessionID string) (domain.GenerationStatus, bool)
}

type runDescriptor struct {
	cancelFunc context.CancelFunc
	runner     *Runner
}

type DefaultController struct {
	backend Backend
	clock   Clock
	config  Config

	mu   sync.Mutex
	runs map[string]runDescriptor
}

func NewController(backend Backend, clock Clock, config Config) *DefaultController {
	return &DefaultController{
		backend: backend,
		clock:   clock,
		config:  config,
		runs:    make(map[string]runDescriptor),
	}
}

// Start launches a fresh runner for the session. A generation still in
// flight is rejected; a finished one is replaced. The run is detached
// from the caller's cancellation so it outlives the HTTP request that
// triggered it.
func (ctrl *DefaultController) Start(ctx context.Context, sessionID string, req domain.ReportRequest) error {
	ctrl.mu.Lock()
	defer ctrl.mu.Unlock()

	if desc, ok := ctrl.runs[sessionID]; ok {
		select {
		case <-desc.runner.Done():
		default:
			return fmt.Errorf("a report generation is already running for session %s", sessionID)
		}
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	runner := NewRunner(ctrl.backend, ctrl.clock, ctrl.config)
	ctrl.runs[sessionID] = runDescriptor{
		cancelFunc: cancel,
		runner:     runner,
	}

	go runner.Run(runCtx, req)
	return nil
}

// Cancel stops the session's run and waits for the runner to wind
// down, so its poll timer is gone when Cancel returns.
func (ctrl *DefaultController) Cancel(_ context.Context, sessionID string) error {
	ctrl.mu.Lock()
	defer ctrl.mu.Unlock()

	desc, ok := ctrl.runs[sessionID]
	if !ok {
		return fmt.Errorf("no report generation running for session %s", sessionID)
	}
	desc.cancelFunc()
	<-desc.runner.Done()

	delete(ctrl.runs, sessionID)
	return nil
}

// Status reports the latest snapshot of the session's run. The second
// return is false when the session never started a generation.
func (ctrl *DefaultController) Status(sessionID string) (domain.GenerationStatus, bool) {
	ctrl.mu.Lock()
	defer ctrl.mu.Unlock()

	desc, ok := ctrl.runs[sessionID]
	if !ok {
		return domain.GenerationStatus{}, false
	}
	return desc.runner.Status(), true
}
