package report

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ct-tools/cloudscope/pkg/adapters"
	"github.com/ct-tools/cloudscope/pkg/models/api"
	"github.com/ct-tools/cloudscope/pkg/models/domain"
	"github.com/ct-tools/cloudscope/pkg/models/store"
	reportstore "github.com/ct-tools/cloudscope/pkg/store/duckdb/report"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Service is the slice of the report service the HTTP layer uses.
type Service interface {
	Submit(ctx context.Context, req domain.ReportRequest) (domain.Submission, error)
	Status(ctx context.Context, reportID string) (domain.ReportRecord, error)
	History(ctx context.Context, account string, limit int) ([]domain.ReportRecord, error)
	Stats(ctx context.Context) (*store.ReportStats, error)
}

type Handler struct {
	reports  Service
	filesDir string
}

// NewHandler builds the report endpoints. filesDir is the local
// artifact directory served by Download; empty when artifacts live in
// object storage and carry absolute URLs.
func NewHandler(reports Service, filesDir string) *Handler {
	return &Handler{
		reports:  reports,
		filesDir: filesDir,
	}
}

func (h *Handler) GenerateUtilization(w http.ResponseWriter, r *http.Request) {
	h.generate(w, r, domain.ReportTypeUtilization)
}

func (h *Handler) GenerateBilling(w http.ResponseWriter, r *http.Request) {
	h.generate(w, r, domain.ReportTypeBilling)
}

func (h *Handler) generate(w http.ResponseWriter, r *http.Request, reportType domain.ReportType) {
	ctx := r.Context()

	var body api.GenerateReportRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	sub, err := h.reports.Submit(ctx, requestFromApi(body, reportType))
	if err != nil {
		handleError(w, err)
		return
	}

	// A download URL means the report was produced inline; a report id
	// means the caller polls for completion.
	status := http.StatusOK
	if sub.ReportID != "" {
		status = http.StatusAccepted
	}
	writeJSON(w, r, status, api.GenerateReportResponse{
		Success:     true,
		DownloadURL: sub.DownloadURL,
		ReportID:    sub.ReportID,
	})
}

func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "report")

	record, err := h.reports.Status(ctx, id)
	if err != nil {
		if errors.Is(err, reportstore.ErrNotFound) {
			http.Error(w, "report not found", http.StatusNotFound)
			return
		}
		handleError(w, err)
		return
	}
	writeJSON(w, r, http.StatusOK, adapters.MapDomainRecordToApiStatus(record))
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	account := r.URL.Query().Get("account")
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	records, err := h.reports.History(ctx, account, limit)
	if err != nil {
		handleError(w, err)
		return
	}

	response := make([]api.ReportSummary, 0, len(records))
	for _, record := range records {
		response = append(response, adapters.MapDomainRecordToApiSummary(record))
	}
	writeJSON(w, r, http.StatusOK, response)
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.reports.Stats(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, r, http.StatusOK, adapters.MapStoreStatsToApi(stats))
}

// Download serves locally stored report files.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	if h.filesDir == "" {
		http.Error(w, "file downloads are not served by this instance", http.StatusNotFound)
		return
	}

	name := chi.URLParam(r, "file")
	if name == "" || name != filepath.Base(name) {
		http.Error(w, "invalid file name", http.StatusBadRequest)
		return
	}

	path := filepath.Join(h.filesDir, name)
	if _, err := os.Stat(path); err != nil {
		http.Error(w, "file not found", http.StatusNotFound)
		return
	}
	http.ServeFile(w, r, path)
}

func requestFromApi(body api.GenerateReportRequest, reportType domain.ReportType) domain.ReportRequest {
	req := domain.ReportRequest{
		Account:     body.AccountName,
		Provider:    domain.Provider(body.Provider),
		ReportType:  reportType,
		ResourceIDs: body.ResourceIDs,
		Frequency:   domain.Frequency(body.Frequency),
		Format:      domain.ReportFormat(body.Format),
		Credentials: domain.Credentials{
			AccountName: body.AccountName,
			Secrets:     body.Credentials,
		},
	}
	if body.Timeframe != nil {
		req.Timeframe = &domain.Timeframe{Year: body.Timeframe.Year, Month: body.Timeframe.Month}
	}
	if body.Delivery != nil {
		req.Delivery = domain.Delivery{
			EmailEnabled: body.Delivery.EmailEnabled,
			EmailAddress: body.Delivery.EmailAddress,
		}
	}
	return req
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
