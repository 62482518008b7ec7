package adapters

import (
	"github.com/ct-tools/cloudscope/pkg/models/api"
	"github.com/ct-tools/cloudscope/pkg/models/domain"
)

// MapDomainSessionToApi flattens a wizard session for the wire. Step
// metadata and the proceed verdict come from the flow table, which the
// caller resolves; the adapter only shapes data.
func MapDomainSessionToApi(s domain.Session, steps []api.Step, canProceed bool) api.Session {
	out := api.Session{
		ID:          s.ID,
		CurrentStep: s.CurrentStep,
		StepCount:   len(steps),
		Steps:       steps,
		CanProceed:  canProceed,
		ReportType:  string(s.ReportType),
		Provider:    string(s.Provider),
		Resources:   MapDomainResourcesToApi(s.SelectedResources),
		Timeframe:   MapDomainTimeframeToApi(s.Timeframe),
		Frequency:   string(s.Frequency),
		Format:      string(s.Format),
		Delivery: api.Delivery{
			EmailEnabled: s.Delivery.EmailEnabled,
			EmailAddress: s.Delivery.EmailAddress,
		},
	}
	if s.Credentials != nil {
		out.AccountName = s.Credentials.AccountName
	}
	if s.CurrentStep >= 1 && s.CurrentStep <= len(steps) {
		out.Step = steps[s.CurrentStep-1]
	}
	return out
}

func MapDomainResourceToApi(r domain.Resource) api.Resource {
	return api.Resource{
		ID:       r.ID,
		Name:     r.Name,
		Type:     r.Type,
		Service:  r.Service,
		Region:   r.Region,
		Status:   r.Status,
		Provider: string(r.Provider),
	}
}

func MapDomainResourcesToApi(rs []domain.Resource) []api.Resource {
	out := make([]api.Resource, 0, len(rs))
	for _, r := range rs {
		out = append(out, MapDomainResourceToApi(r))
	}
	return out
}

func MapDomainCredentialCheckToApi(c domain.CredentialCheck) api.CredentialCheck {
	return api.CredentialCheck{
		Valid:     c.Valid,
		Message:   c.Message,
		Resources: MapDomainResourcesToApi(c.Resources),
	}
}

func MapDomainTimeframeToApi(t *domain.Timeframe) *api.Timeframe {
	if t == nil {
		return nil
	}
	return &api.Timeframe{Year: t.Year, Month: t.Month}
}

func MapDomainGenerationStatusToApi(s domain.GenerationStatus) api.GenerationStatus {
	return api.GenerationStatus{
		State:       string(s.State),
		Progress:    s.Progress,
		Attempt:     s.Attempt,
		DownloadURL: s.DownloadURL,
		Filename:    s.Filename,
		Message:     s.Message,
	}
}
