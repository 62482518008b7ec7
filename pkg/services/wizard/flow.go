package wizard

import (
	"github.com/ct-tools/cloudscope/pkg/models/domain"
)

// StepKind identifies what a wizard step asks the user for. Two steps
// of the utilization flow resolve their kind from session state, so a
// step's kind is a function of the session rather than a constant.
type StepKind string

const (
	StepProvider    StepKind = "provider"
	StepReportType  StepKind = "reportType"
	StepCredentials StepKind = "credentials"
	StepResources   StepKind = "resources"
	StepPeriod      StepKind = "period"
	StepFrequency   StepKind = "frequency"
	StepGenerate    StepKind = "generate"
)

var stepTitles = map[StepKind]string{
	StepProvider:    "Choose a cloud provider",
	StepReportType:  "Choose a report type",
	StepCredentials: "Connect your account",
	StepResources:   "Select resources",
	StepPeriod:      "Choose a billing period",
	StepFrequency:   "Choose a schedule",
	StepGenerate:    "Review and generate",
}

func (k StepKind) Title() string {
	return stepTitles[k]
}

// Step is one entry of a flow table. CanProceed is a pure predicate
// over the session and never mutates it.
type Step struct {
	Kind       func(s *domain.Session) StepKind
	CanProceed func(s *domain.Session) bool
}

func staticKind(k StepKind) func(*domain.Session) StepKind {
	return func(*domain.Session) StepKind { return k }
}

// Utilization step three collects credentials until an account is
// connected, then turns into resource selection.
func credentialsOrResources(s *domain.Session) StepKind {
	if s.Credentials == nil {
		return StepCredentials
	}
	return StepResources
}

// Utilization step four keeps offering resource selection until at
// least one resource is picked, then asks for a schedule.
func resourcesOrFrequency(s *domain.Session) StepKind {
	if len(s.SelectedResources) == 0 {
		return StepResources
	}
	return StepFrequency
}

func providerChosen(s *domain.Session) bool {
	return s.Provider != ""
}

func reportTypeChosen(s *domain.Session) bool {
	return s.ReportType != ""
}

// Either a connected account or an existing selection unblocks the
// third utilization step. The fourth step demands a selection no
// matter what, so connecting an account alone never reaches generate.
func credentialsOrResourcesReady(s *domain.Session) bool {
	return s.Credentials != nil || len(s.SelectedResources) > 0
}

func resourcesPicked(s *domain.Session) bool {
	return len(s.SelectedResources) > 0
}

func timeframeChosen(s *domain.Session) bool {
	return s.Timeframe != nil && s.Timeframe.Valid()
}

func credentialsWithAccount(s *domain.Session) bool {
	return s.Credentials != nil && s.Credentials.AccountName != ""
}

func always(*domain.Session) bool {
	return true
}

var utilizationFlow = []Step{
	{Kind: staticKind(StepProvider), CanProceed: providerChosen},
	{Kind: staticKind(StepReportType), CanProceed: reportTypeChosen},
	{Kind: credentialsOrResources, CanProceed: credentialsOrResourcesReady},
	{Kind: resourcesOrFrequency, CanProceed: resourcesPicked},
	{Kind: staticKind(StepGenerate), CanProceed: always},
}

var billingFlow = []Step{
	{Kind: staticKind(StepProvider), CanProceed: providerChosen},
	{Kind: staticKind(StepReportType), CanProceed: reportTypeChosen},
	{Kind: staticKind(StepPeriod), CanProceed: timeframeChosen},
	{Kind: staticKind(StepCredentials), CanProceed: credentialsWithAccount},
	{Kind: staticKind(StepGenerate), CanProceed: always},
}

// Flow returns the step table for a report type. Sessions that have
// not picked a type yet walk the utilization flow.
func Flow(rt domain.ReportType) []Step {
	if rt == domain.ReportTypeBilling {
		return billingFlow
	}
	return utilizationFlow
}

// StepInfo is a step of the active flow resolved against a session.
type StepInfo struct {
	Kind  StepKind
	Title string
}

// ResolveSteps materializes the flow for a session, resolving the
// dynamic steps to their current kind.
func ResolveSteps(s *domain.Session) []StepInfo {
	flow := Flow(s.ReportType)
	out := make([]StepInfo, 0, len(flow))
	for _, step := range flow {
		kind := step.Kind(s)
		out = append(out, StepInfo{Kind: kind, Title: kind.Title()})
	}
	return out
}

// CanProceed reports whether the session satisfies the predicate of
// the step it is currently on. Out of range indexes never proceed.
func CanProceed(s *domain.Session) bool {
	flow := Flow(s.ReportType)
	if s.CurrentStep < 1 || s.CurrentStep > len(flow) {
		return false
	}
	return flow[s.CurrentStep-1].CanProceed(s)
}
