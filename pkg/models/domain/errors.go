package domain

import "fmt"

// ValidationError signals rejected credentials or a missing required field.
// The wizard stays on its current step when one is surfaced.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// TransportError wraps a network failure while talking to the report backend
// during submission. The submission is considered not started.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// PollTransportError is a transient failure on one status poll. It is logged
// and swallowed by the polling loop; only the attempt cap stops retrying.
type PollTransportError struct {
	Attempt int
	Err     error
}

func (e *PollTransportError) Error() string {
	return fmt.Sprintf("status poll %d failed: %v", e.Attempt, e.Err)
}

func (e *PollTransportError) Unwrap() error {
	return e.Err
}

// BackendFailure means the backend reported status=failed for the report.
type BackendFailure struct {
	ReportID string
	Message  string
}

func (e *BackendFailure) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("report %s failed", e.ReportID)
	}
	return fmt.Sprintf("report %s failed: %s", e.ReportID, e.Message)
}

// PollExhausted means the attempt cap was reached without a terminal status.
// It is informational, not a failure: the report may still complete later.
type PollExhausted struct {
	ReportID string
	Attempts int
}

func (e *PollExhausted) Error() string {
	return fmt.Sprintf("report %s still processing after %d polls", e.ReportID, e.Attempts)
}
