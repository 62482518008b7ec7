package domain

type ReportType string

const (
	ReportTypeUtilization ReportType = "utilization"
	ReportTypeBilling     ReportType = "billing"
)

type Provider string

const (
	ProviderAWS   Provider = "aws"
	ProviderAzure Provider = "azure"
)

type ReportFormat string

const (
	FormatPDF  ReportFormat = "pdf"
	FormatCSV  ReportFormat = "csv"
	FormatJSON ReportFormat = "json"
)

type Frequency string

const (
	FrequencyOnce   Frequency = "once"
	FrequencyDaily  Frequency = "daily"
	FrequencyWeekly Frequency = "weekly"
)

// Credentials holds the account display name plus whatever secret material the
// provider needs (access keys for AWS, tenant/client/secret for Azure). The
// secret keys are opaque to the wizard; only the provider explorers interpret them.
type Credentials struct {
	AccountName string
	Secrets     map[string]string
}

type Timeframe struct {
	Year  int
	Month int
}

// Valid reports whether the timeframe denotes a real calendar month.
func (t Timeframe) Valid() bool {
	return t.Year > 0 && t.Month >= 1 && t.Month <= 12
}

type Delivery struct {
	EmailEnabled bool
	EmailAddress string
}

// Session is the state of one report-creation attempt. It is owned by a single
// wizard instance and mutated only through the wizard's operations; a nil
// Credentials/Timeframe means "not provided yet".
type Session struct {
	ID                string
	CurrentStep       int // 1-based
	ReportType        ReportType
	Provider          Provider
	Credentials       *Credentials
	SelectedResources []Resource // unique by resource id
	Timeframe         *Timeframe
	Frequency         Frequency // empty until the user picks one; submitted as "once" when empty
	Format            ReportFormat
	Delivery          Delivery
}
