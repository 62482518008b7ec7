package domain

import "time"

// ReportRequest is the immutable snapshot handed to the report backend when a
// generation is submitted. ResourceIDs carry composite references (see Resource.Ref).
type ReportRequest struct {
	Account     string
	Provider    Provider
	ReportType  ReportType
	ResourceIDs []string
	Timeframe   *Timeframe
	Frequency   Frequency
	Format      ReportFormat
	Delivery    Delivery
	Credentials Credentials
}

type ReportStatus string

const (
	ReportStatusPending    ReportStatus = "pending"
	ReportStatusProcessing ReportStatus = "processing"
	ReportStatusCompleted  ReportStatus = "completed"
	ReportStatusFailed     ReportStatus = "failed"
)

// Terminal reports whether no further status transitions can occur.
func (s ReportStatus) Terminal() bool {
	return s == ReportStatusCompleted || s == ReportStatusFailed
}

// ReportRecord is the backend's view of one submitted report. DownloadURL is
// set only once the status is completed.
type ReportRecord struct {
	ID          string
	Account     string
	Provider    Provider
	ReportType  ReportType
	Format      ReportFormat
	Status      ReportStatus
	DownloadURL string
	Error       string
	RequestedAt time.Time
	UpdatedAt   time.Time
}

// Submission is the immediate result of submitting a report request. Exactly
// one of DownloadURL (synchronous completion) or ReportID (poll for status)
// is populated.
type Submission struct {
	ReportID    string
	DownloadURL string
}

// Report represents a complete generated report body.
type Report struct {
	Title       string
	Account     string
	Period      TimePeriod
	Sections    []ReportSection
	TotalAmount float64
	Currency    string
}

// TimePeriod represents a time range for the report
type TimePeriod struct {
	Start    time.Time
	End      time.Time
	Duration int // in days
}

// ReportSection represents a logical section in the report
type ReportSection struct {
	Title    string
	Summary  map[string]interface{}
	Details  []ReportDetail
	Metadata map[string]interface{}
}

// ReportDetail represents detailed information within a section
type ReportDetail struct {
	Name        string
	Value       interface{}
	Unit        string
	Description string
}

// MetricStat is an aggregated utilization metric over a report period.
type MetricStat struct {
	Name    string
	Unit    string
	Average float64
	Peak    float64
	Samples int
}
