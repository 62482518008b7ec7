package wizard

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/ct-tools/cloudscope/pkg/models/domain"
)

// Wizard owns a single report configuration session. All state lives
// behind the mutex and leaves only as copies, so handlers can read a
// snapshot without racing concurrent mutations.
type Wizard struct {
	mu        sync.Mutex
	session   domain.Session
	available []domain.Resource
}

func New(id string) *Wizard {
	return &Wizard{session: initialSession(id)}
}

func initialSession(id string) domain.Session {
	return domain.Session{
		ID:          id,
		CurrentStep: 1,
		Format:      domain.FormatPDF,
	}
}

// Session returns a deep copy of the current state.
func (w *Wizard) Session() domain.Session {
	w.mu.Lock()
	defer w.mu.Unlock()
	return cloneSession(w.session)
}

func cloneSession(s domain.Session) domain.Session {
	out := s
	if s.Credentials != nil {
		c := *s.Credentials
		c.Secrets = maps.Clone(s.Credentials.Secrets)
		out.Credentials = &c
	}
	if s.Timeframe != nil {
		t := *s.Timeframe
		out.Timeframe = &t
	}
	out.SelectedResources = slices.Clone(s.SelectedResources)
	return out
}

// SetReportType switches the active flow. The step index is kept as
// is, so a session on step two stays on step two of the other flow.
func (w *Wizard) SetReportType(rt domain.ReportType) error {
	switch rt {
	case domain.ReportTypeUtilization, domain.ReportTypeBilling:
	default:
		return &domain.ValidationError{Message: fmt.Sprintf("unknown report type %q", rt)}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.session.ReportType = rt
	return nil
}

func (w *Wizard) SetProvider(p domain.Provider) error {
	switch p {
	case domain.ProviderAWS, domain.ProviderAzure:
	default:
		return &domain.ValidationError{Message: fmt.Sprintf("unknown provider %q", p)}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.session.Provider = p
	return nil
}

// SetCredentials stores a validated account and the resources that
// were discovered with it. Any previous selection referred to the old
// account and is dropped.
func (w *Wizard) SetCredentials(c domain.Credentials, discovered []domain.Resource) error {
	if c.AccountName == "" {
		return &domain.ValidationError{Message: "account name is required"}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	cc := c
	cc.Secrets = maps.Clone(c.Secrets)
	w.session.Credentials = &cc
	w.available = slices.Clone(discovered)
	w.session.SelectedResources = nil
	return nil
}

// AvailableResources lists what the last credential check discovered.
func (w *Wizard) AvailableResources() []domain.Resource {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.available)
}

// SelectResources replaces the selection with the referenced
// resources. Duplicate ids collapse to one entry and ids that were
// never discovered are rejected.
func (w *Wizard) SelectResources(ids []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	seen := make(map[string]bool, len(ids))
	selected := make([]domain.Resource, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		idx := slices.IndexFunc(w.available, func(r domain.Resource) bool { return r.ID == id })
		if idx < 0 {
			return &domain.ValidationError{Message: fmt.Sprintf("unknown resource %q", id)}
		}
		selected = append(selected, w.available[idx])
	}
	w.session.SelectedResources = selected
	return nil
}

func (w *Wizard) SetTimeframe(year, month int) error {
	tf := domain.Timeframe{Year: year, Month: month}
	if !tf.Valid() {
		return &domain.ValidationError{Message: fmt.Sprintf("invalid billing period %d-%02d", year, month)}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.session.Timeframe = &tf
	return nil
}

func (w *Wizard) SetFrequency(f domain.Frequency) error {
	switch f {
	case domain.FrequencyOnce, domain.FrequencyDaily, domain.FrequencyWeekly:
	default:
		return &domain.ValidationError{Message: fmt.Sprintf("unknown frequency %q", f)}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.session.Frequency = f
	return nil
}

func (w *Wizard) SetFormat(f domain.ReportFormat) error {
	switch f {
	case domain.FormatPDF, domain.FormatCSV, domain.FormatJSON:
	default:
		return &domain.ValidationError{Message: fmt.Sprintf("unknown format %q", f)}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.session.Format = f
	return nil
}

func (w *Wizard) SetDelivery(d domain.Delivery) error {
	if d.EmailEnabled && !strings.Contains(d.EmailAddress, "@") {
		return &domain.ValidationError{Message: "a valid email address is required for delivery"}
	}
	if !d.EmailEnabled {
		d.EmailAddress = ""
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.session.Delivery = d
	return nil
}

// NextStep advances the session by one step and clamps at the last
// step of the active flow. Advancing past the end is a no-op.
func (w *Wizard) NextStep() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.session.CurrentStep < len(Flow(w.session.ReportType)) {
		w.session.CurrentStep++
	}
}

// PrevStep moves the session back one step and clamps at the first.
func (w *Wizard) PrevStep() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.session.CurrentStep > 1 {
		w.session.CurrentStep--
	}
}

func (w *Wizard) CanProceed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return CanProceed(&w.session)
}

func (w *Wizard) CurrentStep() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.session.CurrentStep
}

func (w *Wizard) StepCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(Flow(w.session.ReportType))
}

// Reset restores the session to its initial state in one assignment.
// The session id survives, everything else goes back to defaults.
func (w *Wizard) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.session = initialSession(w.session.ID)
	w.available = nil
}

// BuildRequest projects the session into a report request. Sessions
// missing a connected account, a selection (utilization) or a billing
// period (billing) are rejected. An unset frequency submits as a one
// shot report, recurring schedules have to be picked explicitly.
func (w *Wizard) BuildRequest() (domain.ReportRequest, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	s := &w.session

	if s.Provider == "" {
		return domain.ReportRequest{}, &domain.ValidationError{Message: "choose a cloud provider first"}
	}
	if s.ReportType == "" {
		return domain.ReportRequest{}, &domain.ValidationError{Message: "choose a report type first"}
	}
	if s.Credentials == nil || s.Credentials.AccountName == "" {
		return domain.ReportRequest{}, &domain.ValidationError{Message: "connect an account before generating"}
	}

	req := domain.ReportRequest{
		Account:    s.Credentials.AccountName,
		Provider:   s.Provider,
		ReportType: s.ReportType,
		Format:     s.Format,
		Delivery:   s.Delivery,
		Frequency:  domain.FrequencyOnce,
	}
	req.Credentials = *s.Credentials
	req.Credentials.Secrets = maps.Clone(s.Credentials.Secrets)

	switch s.ReportType {
	case domain.ReportTypeBilling:
		if s.Timeframe == nil || !s.Timeframe.Valid() {
			return domain.ReportRequest{}, &domain.ValidationError{Message: "choose a billing period before generating"}
		}
		tf := *s.Timeframe
		req.Timeframe = &tf
	default:
		if len(s.SelectedResources) == 0 {
			return domain.ReportRequest{}, &domain.ValidationError{Message: "select at least one resource"}
		}
		for _, r := range s.SelectedResources {
			req.ResourceIDs = append(req.ResourceIDs, r.Ref())
		}
		if s.Frequency != "" {
			req.Frequency = s.Frequency
		}
	}

	return req, nil
}
