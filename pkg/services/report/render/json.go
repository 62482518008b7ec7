package render

import (
	"encoding/json"
	"fmt"

	"github.com/ct-tools/cloudscope/pkg/adapters"
	"github.com/ct-tools/cloudscope/pkg/models/domain"
)

type jsonRenderer struct{}

func NewJSON() Renderer {
	return jsonRenderer{}
}

func (jsonRenderer) Format() domain.ReportFormat {
	return domain.FormatJSON
}

func (jsonRenderer) Render(report *domain.Report) ([]byte, error) {
	data, err := json.MarshalIndent(adapters.MapDomainReportToApi(report), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}
	return data, nil
}
