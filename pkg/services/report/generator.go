package report

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/ct-tools/cloudscope/pkg/models/domain"
	"github.com/ct-tools/cloudscope/pkg/services/billing"
	"github.com/ct-tools/cloudscope/pkg/services/usage"
	"github.com/rs/zerolog"
)

// Generator builds a full report body for a validated request.
type Generator interface {
	Generate(ctx context.Context, req domain.ReportRequest) (*domain.Report, error)
}

type generator struct {
	usageFactories   map[domain.Provider]usage.Factory
	billingFactories map[domain.Provider]billing.Factory
	now              func() time.Time
}

func NewGenerator(
	usageFactories map[domain.Provider]usage.Factory,
	billingFactories map[domain.Provider]billing.Factory,
) Generator {
	return &generator{
		usageFactories:   usageFactories,
		billingFactories: billingFactories,
		now:              time.Now,
	}
}

func (g *generator) Generate(ctx context.Context, req domain.ReportRequest) (*domain.Report, error) {
	switch req.ReportType {
	case domain.ReportTypeUtilization:
		return g.generateUtilization(ctx, req)
	case domain.ReportTypeBilling:
		return g.generateBilling(ctx, req)
	default:
		return nil, fmt.Errorf("unsupported report type: %s", req.ReportType)
	}
}

// utilizationWindow is the sampling range of a utilization report. A
// weekly schedule covers the week since the previous run, everything
// else covers the last day.
func utilizationWindow(frequency domain.Frequency, now time.Time) domain.TimePeriod {
	days := 1
	if frequency == domain.FrequencyWeekly {
		days = 7
	}
	return domain.TimePeriod{
		Start:    now.AddDate(0, 0, -days),
		End:      now,
		Duration: days,
	}
}

func (g *generator) generateUtilization(ctx context.Context, req domain.ReportRequest) (*domain.Report, error) {
	factory, ok := g.usageFactories[req.Provider]
	if !ok {
		return nil, fmt.Errorf("no usage collector for provider %s", req.Provider)
	}
	collector, err := factory(ctx, req.Credentials)
	if err != nil {
		return nil, err
	}

	period := utilizationWindow(req.Frequency, g.now().UTC())
	report := &domain.Report{
		Title:    "Resource Utilization Report",
		Account:  req.Account,
		Period:   period,
		Sections: make([]domain.ReportSection, 0, len(req.ResourceIDs)),
	}

	for _, id := range req.ResourceIDs {
		ref, err := domain.ParseResourceRef(id)
		if err != nil {
			return nil, err
		}

		stats, err := collector.Collect(ctx, ref, period)
		if err != nil {
			// One unreadable resource should not sink the whole
			// report; the section records what went wrong.
			zerolog.Ctx(ctx).Warn().Err(err).Str("resource", ref.ID).
				Msg("failed to collect resource metrics")
			report.Sections = append(report.Sections, errorSection(ref, err))
			continue
		}
		report.Sections = append(report.Sections, utilizationSection(ref, stats))
	}

	return report, nil
}

func utilizationSection(ref domain.ResourceRef, stats []domain.MetricStat) domain.ReportSection {
	section := domain.ReportSection{
		Title: fmt.Sprintf("%s %s (%s)", strings.ToUpper(ref.Service), ref.ID, ref.Region),
		Summary: map[string]interface{}{
			"service": ref.Service,
			"region":  ref.Region,
			"metrics": len(stats),
		},
		Details: make([]domain.ReportDetail, 0, len(stats)),
		Metadata: map[string]interface{}{
			"resource_id": ref.ID,
		},
	}

	for _, stat := range stats {
		section.Details = append(section.Details, domain.ReportDetail{
			Name:        stat.Name,
			Value:       round2(stat.Average),
			Unit:        stat.Unit,
			Description: fmt.Sprintf("peak %.1f over %d samples", stat.Peak, stat.Samples),
		})
	}
	return section
}

func errorSection(ref domain.ResourceRef, err error) domain.ReportSection {
	return domain.ReportSection{
		Title: fmt.Sprintf("%s %s (%s)", strings.ToUpper(ref.Service), ref.ID, ref.Region),
		Summary: map[string]interface{}{
			"error": err.Error(),
		},
		Metadata: map[string]interface{}{
			"resource_id": ref.ID,
		},
	}
}

func (g *generator) generateBilling(ctx context.Context, req domain.ReportRequest) (*domain.Report, error) {
	factory, ok := g.billingFactories[req.Provider]
	if !ok {
		return nil, fmt.Errorf("no billing collector for provider %s", req.Provider)
	}
	if req.Timeframe == nil || !req.Timeframe.Valid() {
		return nil, &domain.ValidationError{Message: "billing report requires a year and month"}
	}

	collector, err := factory(ctx, req.Credentials)
	if err != nil {
		return nil, err
	}

	period := billing.MonthPeriod(*req.Timeframe)
	costs, err := collector.Collect(ctx, period)
	if err != nil {
		return nil, err
	}

	report := &domain.Report{
		Title:    fmt.Sprintf("Billing Report %04d-%02d", req.Timeframe.Year, req.Timeframe.Month),
		Account:  req.Account,
		Period:   period,
		Sections: make([]domain.ReportSection, 0),
	}

	regions := make([]string, 0)
	regionCosts := make(map[string][]domain.ResourceCost)
	for _, cost := range costs {
		region := cost.Resource.Region
		if region == "" {
			region = "global"
		}
		if _, seen := regionCosts[region]; !seen {
			regions = append(regions, region)
		}
		regionCosts[region] = append(regionCosts[region], cost)

		for _, component := range cost.Costs {
			report.TotalAmount += component.TotalAmount
			if report.Currency == "" {
				report.Currency = component.Currency
			}
		}
	}

	for _, region := range regions {
		report.Sections = append(report.Sections, regionalSection(region, regionCosts[region]))
	}

	report.TotalAmount = round2(report.TotalAmount)
	return report, nil
}

func regionalSection(region string, costs []domain.ResourceCost) domain.ReportSection {
	section := domain.ReportSection{
		Title:    fmt.Sprintf("Costs in %s", region),
		Summary:  make(map[string]interface{}),
		Details:  make([]domain.ReportDetail, 0, len(costs)),
		Metadata: map[string]interface{}{"region": region},
	}

	var regionTotal float64
	for _, cost := range costs {
		var serviceTotal float64
		currency := ""
		for _, component := range cost.Costs {
			serviceTotal += component.TotalAmount
			if currency == "" {
				currency = component.Currency
			}
		}
		regionTotal += serviceTotal

		section.Details = append(section.Details, domain.ReportDetail{
			Name:        cost.Resource.Service,
			Value:       round2(serviceTotal),
			Unit:        currency,
			Description: fmt.Sprintf("%s charges", cost.Resource.Service),
		})
	}

	section.Summary["total_cost"] = round2(regionTotal)
	section.Summary["services"] = len(costs)
	return section
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
