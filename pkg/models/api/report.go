package api

import "time"

// GenerateReportRequest is the payload accepted by the generation endpoints.
// Secrets are forwarded to the provider and never persisted.
type GenerateReportRequest struct {
	AccountName string            `json:"accountName"`
	Provider    string            `json:"provider"`
	Credentials map[string]string `json:"credentials"`
	ResourceIDs []string          `json:"resourceIds,omitempty"`
	Timeframe   *Timeframe        `json:"timeframe,omitempty"`
	Frequency   string            `json:"frequency,omitempty"`
	Format      string            `json:"format,omitempty"`
	Delivery    *Delivery         `json:"delivery,omitempty"`
}

// GenerateReportResponse carries exactly one of DownloadURL or ReportID.
type GenerateReportResponse struct {
	Success     bool   `json:"success"`
	DownloadURL string `json:"downloadUrl,omitempty"`
	ReportID    string `json:"reportId,omitempty"`
}

type ReportStatus struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	DownloadURL string `json:"downloadUrl,omitempty"`
	Error       string `json:"error,omitempty"`
}

type ReportSummary struct {
	ID          string    `json:"id"`
	AccountName string    `json:"accountName"`
	Provider    string    `json:"provider"`
	ReportType  string    `json:"reportType"`
	Format      string    `json:"format"`
	Status      string    `json:"status"`
	DownloadURL string    `json:"downloadUrl,omitempty"`
	RequestedAt time.Time `json:"requestedAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type ReportStats struct {
	Total    int64            `json:"total"`
	ByStatus map[string]int64 `json:"byStatus"`
}

// Report is the serialized report body used by the JSON renderer.
type Report struct {
	Title       string          `json:"title"`
	AccountName string          `json:"accountName,omitempty"`
	Period      TimePeriod      `json:"period"`
	Sections    []ReportSection `json:"sections"`
	TotalAmount float64         `json:"totalAmount,omitempty"`
	Currency    string          `json:"currency,omitempty"`
}

type TimePeriod struct {
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Duration int       `json:"durationDays"`
}

type ReportSection struct {
	Title    string                 `json:"title"`
	Summary  map[string]interface{} `json:"summary,omitempty"`
	Details  []ReportDetail         `json:"details,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

type ReportDetail struct {
	Name        string      `json:"name"`
	Value       interface{} `json:"value"`
	Unit        string      `json:"unit,omitempty"`
	Description string      `json:"description,omitempty"`
}
