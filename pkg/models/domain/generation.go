package domain

type GenerationState string

const (
	GenerationIdle       GenerationState = "idle"
	GenerationSubmitting GenerationState = "submitting"
	GenerationPolling    GenerationState = "polling"
	GenerationCompleted  GenerationState = "completed"
	GenerationFailed     GenerationState = "failed"
	GenerationTimedOut   GenerationState = "timed_out"
)

// Terminal reports whether the generation run has finished for this submission.
// TimedOut is terminal locally even though the backend may still complete the
// report out-of-band.
func (s GenerationState) Terminal() bool {
	return s == GenerationCompleted || s == GenerationFailed || s == GenerationTimedOut
}

// GenerationStatus is a point-in-time view of one report generation run.
// Progress grows monotonically while polling and reaches 100 only on
// completion. DownloadURL and Filename are populated in the completed state;
// Message carries the user-facing text for failed and timed-out runs.
type GenerationStatus struct {
	State       GenerationState
	Progress    int
	Attempt     int
	DownloadURL string
	Filename    string
	Message     string
}
