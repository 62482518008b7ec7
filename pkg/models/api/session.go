package api

type Step struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Title string `json:"title"`
}

type Timeframe struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

type Delivery struct {
	EmailEnabled bool   `json:"emailEnabled"`
	EmailAddress string `json:"emailAddress,omitempty"`
}

type Resource struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type,omitempty"`
	Service  string `json:"service"`
	Region   string `json:"region"`
	Status   string `json:"status,omitempty"`
	Provider string `json:"provider,omitempty"`
}

type Session struct {
	ID          string     `json:"id"`
	CurrentStep int        `json:"currentStep"`
	StepCount   int        `json:"stepCount"`
	Step        Step       `json:"step"`
	Steps       []Step     `json:"steps"`
	CanProceed  bool       `json:"canProceed"`
	ReportType  string     `json:"reportType,omitempty"`
	Provider    string     `json:"provider,omitempty"`
	AccountName string     `json:"accountName,omitempty"`
	Resources   []Resource `json:"resources,omitempty"`
	Timeframe   *Timeframe `json:"timeframe,omitempty"`
	Frequency   string     `json:"frequency,omitempty"`
	Format      string     `json:"format"`
	Delivery    Delivery   `json:"delivery"`
}

type SetReportTypeRequest struct {
	ReportType string `json:"reportType"`
}

type SetProviderRequest struct {
	Provider string `json:"provider"`
}

// CredentialsRequest carries either a stored profile name or inline secrets.
type CredentialsRequest struct {
	AccountName string            `json:"accountName"`
	Profile     string            `json:"profile,omitempty"`
	Secrets     map[string]string `json:"secrets,omitempty"`
}

type CredentialCheck struct {
	Valid     bool       `json:"valid"`
	Message   string     `json:"message,omitempty"`
	Resources []Resource `json:"resources,omitempty"`
}

type SelectResourcesRequest struct {
	ResourceIDs []string `json:"resourceIds"`
}

type SetTimeframeRequest struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

type SetFrequencyRequest struct {
	Frequency string `json:"frequency"`
}

type SetFormatRequest struct {
	Format string `json:"format"`
}

type SetDeliveryRequest struct {
	EmailEnabled bool   `json:"emailEnabled"`
	EmailAddress string `json:"emailAddress,omitempty"`
}

type GenerationStatus struct {
	State       string `json:"state"`
	Progress    int    `json:"progress"`
	Attempt     int    `json:"attempt,omitempty"`
	DownloadURL string `json:"downloadUrl,omitempty"`
	Filename    string `json:"filename,omitempty"`
	Message     string `json:"message,omitempty"`
}
