package adapters

import (
	"github.com/ct-tools/cloudscope/pkg/models/api"
	"github.com/ct-tools/cloudscope/pkg/models/domain"
	"github.com/ct-tools/cloudscope/pkg/models/store"
)

func MapDomainRecordToStoreReport(r domain.ReportRecord) store.Report {
	out := store.Report{
		ID:          r.ID,
		Account:     r.Account,
		Provider:    string(r.Provider),
		ReportType:  string(r.ReportType),
		Format:      string(r.Format),
		Status:      string(r.Status),
		RequestedAt: r.RequestedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if r.DownloadURL != "" {
		out.DownloadURL = &r.DownloadURL
	}
	if r.Error != "" {
		out.Error = &r.Error
	}
	return out
}

func MapStoreReportToDomainRecord(r store.Report) domain.ReportRecord {
	out := domain.ReportRecord{
		ID:          r.ID,
		Account:     r.Account,
		Provider:    domain.Provider(r.Provider),
		ReportType:  domain.ReportType(r.ReportType),
		Format:      domain.ReportFormat(r.Format),
		Status:      domain.ReportStatus(r.Status),
		RequestedAt: r.RequestedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if r.DownloadURL != nil {
		out.DownloadURL = *r.DownloadURL
	}
	if r.Error != nil {
		out.Error = *r.Error
	}
	return out
}

func MapDomainRecordToApiSummary(r domain.ReportRecord) api.ReportSummary {
	return api.ReportSummary{
		ID:          r.ID,
		AccountName: r.Account,
		Provider:    string(r.Provider),
		ReportType:  string(r.ReportType),
		Format:      string(r.Format),
		Status:      string(r.Status),
		DownloadURL: r.DownloadURL,
		RequestedAt: r.RequestedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func MapStoreStatsToApi(s *store.ReportStats) api.ReportStats {
	out := api.ReportStats{Total: s.Total, ByStatus: make(map[string]int64, len(s.ByStatus))}
	for status, count := range s.ByStatus {
		out.ByStatus[status] = count
	}
	return out
}

func MapDomainRecordToApiStatus(r domain.ReportRecord) api.ReportStatus {
	return api.ReportStatus{
		ID:          r.ID,
		Status:      string(r.Status),
		DownloadURL: r.DownloadURL,
		Error:       r.Error,
	}
}

// MapDomainReportToApi shapes a generated report body for the JSON
// renderer and keeps wire field names stable across formats.
func MapDomainReportToApi(r *domain.Report) api.Report {
	out := api.Report{
		Title:       r.Title,
		AccountName: r.Account,
		TotalAmount: r.TotalAmount,
		Currency:    r.Currency,
		Period: api.TimePeriod{
			Start:    r.Period.Start,
			End:      r.Period.End,
			Duration: r.Period.Duration,
		},
	}
	for _, s := range r.Sections {
		section := api.ReportSection{
			Title:    s.Title,
			Summary:  s.Summary,
			Metadata: s.Metadata,
		}
		for _, d := range s.Details {
			section.Details = append(section.Details, api.ReportDetail{
				Name:        d.Name,
				Value:       d.Value,
				Unit:        d.Unit,
				Description: d.Description,
			})
		}
		out.Sections = append(out.Sections, section)
	}
	return out
}
