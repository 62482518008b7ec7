package store

import "time"

type Report struct {
	ID          string
	Account     string
	Provider    string
	ReportType  string
	Format      string
	Status      string
	DownloadURL *string
	Error       *string
	RequestedAt time.Time
	UpdatedAt   time.Time
}

type ReportStats struct {
	Total    int64
	ByStatus map[string]int64
}

// ReportConfig is a saved monitoring configuration. Resources holds the
// JSON-encoded list of composite resource references.
type ReportConfig struct {
	ID        string
	Account   string
	Provider  string
	Type      string
	Resources string
	Frequency string
	Format    string
	Email     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}
