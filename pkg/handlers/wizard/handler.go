package wizard

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ct-tools/cloudscope/pkg/adapters"
	"github.com/ct-tools/cloudscope/pkg/models/api"
	"github.com/ct-tools/cloudscope/pkg/models/domain"
	"github.com/ct-tools/cloudscope/pkg/services/account"
	"github.com/ct-tools/cloudscope/pkg/services/lifecycle"
	"github.com/ct-tools/cloudscope/pkg/services/registry"
	"github.com/ct-tools/cloudscope/pkg/services/wizard"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

type Handler struct {
	sessions  *wizard.Manager
	accounts  *account.Registry
	generator lifecycle.Controller
	profiles  registry.Registry
}

func NewHandler(
	sessions *wizard.Manager,
	accounts *account.Registry,
	generator lifecycle.Controller,
	profiles registry.Registry,
) *Handler {
	return &Handler{
		sessions:  sessions,
		accounts:  accounts,
		generator: generator,
		profiles:  profiles,
	}
}

func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	wz := h.sessions.Create()
	h.respondSession(w, r, wz, http.StatusCreated)
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	wz, ok := h.session(w, r)
	if !ok {
		return
	}
	h.respondSession(w, r, wz, http.StatusOK)
}

func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "session")
	if _, ok := h.sessions.Get(id); !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	// A running generation dies with its session.
	_ = h.generator.Cancel(r.Context(), id)
	h.sessions.Delete(id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) SetReportType(w http.ResponseWriter, r *http.Request) {
	wz, ok := h.session(w, r)
	if !ok {
		return
	}

	var body api.SetReportTypeRequest
	if !decodeBody(w, r, &body) {
		return
	}
	if err := wz.SetReportType(domain.ReportType(body.ReportType)); err != nil {
		handleError(w, err)
		return
	}
	h.respondSession(w, r, wz, http.StatusOK)
}

func (h *Handler) SetProvider(w http.ResponseWriter, r *http.Request) {
	wz, ok := h.session(w, r)
	if !ok {
		return
	}

	var body api.SetProviderRequest
	if !decodeBody(w, r, &body) {
		return
	}
	if err := wz.SetProvider(domain.Provider(body.Provider)); err != nil {
		handleError(w, err)
		return
	}
	h.respondSession(w, r, wz, http.StatusOK)
}

// SubmitCredentials validates credentials against the provider and, on
// success, connects the account and discovers its resources. Rejected
// credentials are a 200 with valid=false, not an error.
func (h *Handler) SubmitCredentials(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	wz, ok := h.session(w, r)
	if !ok {
		return
	}

	var body api.CredentialsRequest
	if !decodeBody(w, r, &body) {
		return
	}

	creds := domain.Credentials{AccountName: body.AccountName, Secrets: body.Secrets}
	if body.Profile != "" {
		stored, err := h.profiles.GetCredentials(ctx, body.Profile)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		creds = stored
		if body.AccountName != "" {
			creds.AccountName = body.AccountName
		}
	}

	session := wz.Session()
	if session.Provider == "" {
		http.Error(w, "choose a provider first", http.StatusBadRequest)
		return
	}
	explorer, err := h.accounts.Get(session.Provider)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	check, err := explorer.Validate(ctx, creds)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("credential validation failed")
		http.Error(w, "failed to validate credentials", http.StatusBadGateway)
		return
	}

	if check.Valid {
		if err := wz.SetCredentials(creds, check.Resources); err != nil {
			handleError(w, err)
			return
		}
	}
	writeJSON(w, r, http.StatusOK, adapters.MapDomainCredentialCheckToApi(check))
}

func (h *Handler) ListResources(w http.ResponseWriter, r *http.Request) {
	wz, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, r, http.StatusOK, adapters.MapDomainResourcesToApi(wz.AvailableResources()))
}

func (h *Handler) SelectResources(w http.ResponseWriter, r *http.Request) {
	wz, ok := h.session(w, r)
	if !ok {
		return
	}

	var body api.SelectResourcesRequest
	if !decodeBody(w, r, &body) {
		return
	}
	if err := wz.SelectResources(body.ResourceIDs); err != nil {
		handleError(w, err)
		return
	}
	h.respondSession(w, r, wz, http.StatusOK)
}

func (h *Handler) SetTimeframe(w http.ResponseWriter, r *http.Request) {
	wz, ok := h.session(w, r)
	if !ok {
		return
	}

	var body api.SetTimeframeRequest
	if !decodeBody(w, r, &body) {
		return
	}
	if err := wz.SetTimeframe(body.Year, body.Month); err != nil {
		handleError(w, err)
		return
	}
	h.respondSession(w, r, wz, http.StatusOK)
}

func (h *Handler) SetFrequency(w http.ResponseWriter, r *http.Request) {
	wz, ok := h.session(w, r)
	if !ok {
		return
	}

	var body api.SetFrequencyRequest
	if !decodeBody(w, r, &body) {
		return
	}
	if err := wz.SetFrequency(domain.Frequency(body.Frequency)); err != nil {
		handleError(w, err)
		return
	}
	h.respondSession(w, r, wz, http.StatusOK)
}

func (h *Handler) SetFormat(w http.ResponseWriter, r *http.Request) {
	wz, ok := h.session(w, r)
	if !ok {
		return
	}

	var body api.SetFormatRequest
	if !decodeBody(w, r, &body) {
		return
	}
	if err := wz.SetFormat(domain.ReportFormat(body.Format)); err != nil {
		handleError(w, err)
		return
	}
	h.respondSession(w, r, wz, http.StatusOK)
}

func (h *Handler) SetDelivery(w http.ResponseWriter, r *http.Request) {
	wz, ok := h.session(w, r)
	if !ok {
		return
	}

	var body api.SetDeliveryRequest
	if !decodeBody(w, r, &body) {
		return
	}
	if err := wz.SetDelivery(domain.Delivery{
		EmailEnabled: body.EmailEnabled,
		EmailAddress: body.EmailAddress,
	}); err != nil {
		handleError(w, err)
		return
	}
	h.respondSession(w, r, wz, http.StatusOK)
}

func (h *Handler) NextStep(w http.ResponseWriter, r *http.Request) {
	wz, ok := h.session(w, r)
	if !ok {
		return
	}
	wz.NextStep()
	h.respondSession(w, r, wz, http.StatusOK)
}

func (h *Handler) PrevStep(w http.ResponseWriter, r *http.Request) {
	wz, ok := h.session(w, r)
	if !ok {
		return
	}
	wz.PrevStep()
	h.respondSession(w, r, wz, http.StatusOK)
}

func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	wz, ok := h.session(w, r)
	if !ok {
		return
	}
	wz.Reset()
	h.respondSession(w, r, wz, http.StatusOK)
}

// Generate builds the report request from the session and starts one
// generation cycle. A second start while one is running is a conflict.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	wz, ok := h.session(w, r)
	if !ok {
		return
	}

	req, err := wz.BuildRequest()
	if err != nil {
		handleError(w, err)
		return
	}

	id := chi.URLParam(r, "session")
	if err := h.generator.Start(ctx, id, req); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	status, _ := h.generator.Status(id)
	writeJSON(w, r, http.StatusAccepted, adapters.MapDomainGenerationStatusToApi(status))
}

func (h *Handler) GenerationStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "session")

	status, ok := h.generator.Status(id)
	if !ok {
		http.Error(w, "no generation for session", http.StatusNotFound)
		return
	}
	writeJSON(w, r, http.StatusOK, adapters.MapDomainGenerationStatusToApi(status))
}

func (h *Handler) CancelGeneration(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "session")

	if err := h.generator.Cancel(r.Context(), id); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*wizard.Wizard, bool) {
	id := chi.URLParam(r, "session")
	wz, ok := h.sessions.Get(id)
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return nil, false
	}
	return wz, true
}

func (h *Handler) respondSession(w http.ResponseWriter, r *http.Request, wz *wizard.Wizard, status int) {
	session := wz.Session()
	steps := stepsToApi(wizard.ResolveSteps(&session))
	writeJSON(w, r, status, adapters.MapDomainSessionToApi(session, steps, wizard.CanProceed(&session)))
}

func stepsToApi(infos []wizard.StepInfo) []api.Step {
	steps := make([]api.Step, 0, len(infos))
	for i, info := range infos {
		steps = append(steps, api.Step{
			Index: i + 1,
			Name:  string(info.Kind),
			Title: info.Title,
		})
	}
	return steps
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func handleError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		http.Error(w, verr.Message, http.StatusBadRequest)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to encode response")
	}
}
