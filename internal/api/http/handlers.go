package apihttp

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"market-reports/internal/auth"
	"market-reports/internal/observability/metrics"
	reports "market-reports/internal/reports/domain"
	series "market-reports/internal/series/domain"
	seriesexport "market-reports/internal/series/interfaces"
	"market-reports/internal/table"
)

const (
	reportsPrefix = "/api/v1/reports/"

	// CacheHeader reports whether a canonical report was served from cache.
	CacheHeader = "X-Report-Cache"
)

// SeriesAssembler assembles multi-day series.
type SeriesAssembler interface {
	Assemble(ctx context.Context, req series.Request) (*table.Frame, error)
}

// ReportSource serves and evicts canonical daily reports.
type ReportSource interface {
	Fetch(ctx context.Context, datasetID string, day time.Time) (string, error)
	Cached(ctx context.Context, datasetID string, day time.Time) (bool, error)
	Evict(ctx context.Context, datasetID string, day time.Time) error
}

// SeriesHandler serves assembled series.
type SeriesHandler struct {
	assembler SeriesAssembler
	catalog   reports.Catalog
	logger    *log.Logger
}

// NewSeriesHandler constructs a SeriesHandler.
func NewSeriesHandler(assembler SeriesAssembler, catalog reports.Catalog, logger *log.Logger) *SeriesHandler {
	return &SeriesHandler{assembler: assembler, catalog: catalog, logger: logger}
}

// ServeHTTP handles GET /api/v1/series.
func (h *SeriesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.assembler == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	query := r.URL.Query()
	dataset := query.Get("dataset")
	if dataset == "" {
		http.Error(w, "dataset is required", http.StatusBadRequest)
		return
	}
	start := query.Get("start")
	if start == "" {
		http.Error(w, "start is required", http.StatusBadRequest)
		return
	}
	stop := query.Get("stop")
	if stop == "" {
		stop = start
	}
	stack, err := parseBoolQuery(r, "stack", false)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	dropMissing, err := parseBoolQuery(r, "dropna", true)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	format, err := seriesexport.ParseFormat(query.Get("format"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	req := series.Request{
		Start:       start,
		Stop:        stop,
		Dataset:     dataset,
		Stack:       stack,
		Category:    query.Get("category"),
		Value:       query.Get("value"),
		Entity:      entityQuery(query.Get("entity")),
		DropMissing: dropMissing,
	}
	frame, err := h.assembler.Assemble(r.Context(), req)
	if err != nil {
		h.writeError(w, "assemble series", err)
		return
	}

	summary := seriesexport.Summary{Dataset: dataset, Start: start, Stop: stop, Stacked: stack}
	if ds, err := h.catalog.Lookup(dataset); err == nil {
		summary.Variant = ds.Variant
	}
	body, err := seriesexport.Build(format, summary, frame)
	if err != nil {
		metrics.ObserveExport(string(format), metrics.ResultError)
		h.writeError(w, "export series", err)
		return
	}
	metrics.ObserveExport(string(format), metrics.ResultSuccess)

	w.Header().Set("Content-Type", format.ContentType())
	if format == seriesexport.FormatXLSX || format == seriesexport.FormatPDF {
		w.Header().Set("Content-Disposition", "attachment; filename=\""+dataset+"_"+start+"_"+stop+"."+string(format)+"\"")
	}
	_, _ = w.Write(body)
}

func (h *SeriesHandler) writeError(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError && h.logger != nil {
		h.logger.Printf("%s error: %v", op, err)
	}
	http.Error(w, err.Error(), status)
}

// entityQuery maps an absent or blank entity parameter to the wildcard.
func entityQuery(value string) string {
	if strings.TrimSpace(value) == "" {
		return series.Wildcard
	}
	return value
}

// ReportsHandler serves canonical daily reports.
type ReportsHandler struct {
	source ReportSource
	logger *log.Logger
}

// NewReportsHandler constructs a ReportsHandler.
func NewReportsHandler(source ReportSource, logger *log.Logger) *ReportsHandler {
	return &ReportsHandler{source: source, logger: logger}
}

// ServeHTTP handles GET and DELETE /api/v1/reports/{dataset}/{YYYY-MM-DD}.
func (h *ReportsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodDelete {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.source == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, reportsPrefix), "/"), "/")
	if len(parts) != 2 || parts[0] == "" {
		http.NotFound(w, r)
		return
	}
	day, err := reports.ParseDay(parts[1])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if r.Method == http.MethodDelete {
		if err := h.source.Evict(r.Context(), parts[0], day); err != nil {
			h.writeError(w, "evict report", err)
			return
		}
		if h.logger != nil {
			identity := auth.IdentityFromContext(r.Context())
			h.logger.Printf("report evicted: dataset=%s day=%s subject=%s role=%s", parts[0], parts[1], identity.Subject, identity.Role)
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	cached, err := h.source.Cached(r.Context(), parts[0], day)
	if err != nil {
		h.writeError(w, "check report cache", err)
		return
	}
	content, err := h.source.Fetch(r.Context(), parts[0], day)
	if err != nil {
		h.writeError(w, "fetch report", err)
		return
	}
	cacheStatus := "miss"
	if cached {
		cacheStatus = "hit"
	}
	w.Header().Set(CacheHeader, cacheStatus)
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	_, _ = w.Write([]byte(content))
}

func (h *ReportsHandler) writeError(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError && h.logger != nil {
		h.logger.Printf("%s error: %v", op, err)
	}
	http.Error(w, err.Error(), status)
}

// DatasetsHandler lists the configured datasets.
type DatasetsHandler struct {
	catalog reports.Catalog
}

// NewDatasetsHandler constructs a DatasetsHandler.
func NewDatasetsHandler(catalog reports.Catalog) *DatasetsHandler {
	return &DatasetsHandler{catalog: catalog}
}

type datasetView struct {
	ID        string `json:"id"`
	Kind      string `json:"kind"`
	SourceExt string `json:"ext"`
	Variant   string `json:"variant"`
}

// ServeHTTP handles GET /api/v1/datasets.
func (h *DatasetsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	views := make([]datasetView, 0, len(h.catalog))
	for _, id := range h.catalog.IDs() {
		ds := h.catalog[id]
		views = append(views, datasetView{ID: ds.ID, Kind: string(ds.Kind), SourceExt: ds.SourceExt, Variant: ds.Variant})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(views)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, series.ErrInvalidCategory),
		errors.Is(err, series.ErrInvalidValue),
		errors.Is(err, reports.ErrInvalidDay),
		errors.Is(err, reports.ErrEmptyDatasetID),
		errors.Is(err, seriesexport.ErrUnknownFormat):
		return http.StatusBadRequest
	case errors.Is(err, reports.ErrUnknownDataset),
		errors.Is(err, series.ErrEmptyResult):
		return http.StatusNotFound
	case errors.Is(err, reports.ErrUnsupportedConverter):
		return http.StatusNotImplemented
	case errors.Is(err, reports.ErrRetrieval),
		errors.Is(err, reports.ErrMalformedReport):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func parseBoolQuery(r *http.Request, key string, fallback bool) (bool, error) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, errors.New(key + " must be a boolean")
	}
	return parsed, nil
}
