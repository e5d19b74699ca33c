package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"eco2mix-insights/internal/audit"
	"eco2mix-insights/internal/auth"
	"eco2mix-insights/internal/energy/application"
	"eco2mix-insights/internal/energy/domain/dataset"
	"eco2mix-insights/internal/energy/interfaces/export"
	"eco2mix-insights/internal/observability/metrics"
)

// Handler serves the energy API.
type Handler struct {
	queries   *application.QueryService
	reloader  *application.Reloader
	snapshots *application.SnapshotService
	clock     application.Clock
	logger    logrus.FieldLogger
	audit     audit.Logger
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithAuditLogger records admin actions.
func WithAuditLogger(logger audit.Logger) HandlerOption {
	return func(h *Handler) {
		h.audit = logger
	}
}

// NewHandler constructs a Handler. reloader and snapshots may be nil; their
// routes then answer 503.
func NewHandler(queries *application.QueryService, reloader *application.Reloader, snapshots *application.SnapshotService, logger logrus.FieldLogger, opts ...HandlerOption) (*Handler, error) {
	if queries == nil {
		return nil, errors.New("energy handler: nil query service")
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	h := &Handler{
		queries:   queries,
		reloader:  reloader,
		snapshots: snapshots,
		clock:     application.SystemClock{},
		logger:    logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Register mounts every route on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", h.get(h.handleHealth))
	mux.HandleFunc("/api/v1/dataset", h.get(h.handleDataset))
	mux.HandleFunc("/api/v1/regions", h.get(h.handleRegions))
	mux.HandleFunc("/api/v1/summary", h.get(h.handleSummary))
	mux.HandleFunc("/api/v1/consumption", h.get(h.handleConsumption))
	mux.HandleFunc("/api/v1/production/timeline", h.get(h.handleProductionTimeline))
	mux.HandleFunc("/api/v1/production/sources", h.get(h.handleProductionSources))
	mux.HandleFunc("/api/v1/production/buckets", h.get(h.handleProductionBuckets))
	mux.HandleFunc("/api/v1/production/mix", h.get(h.handleMix))
	mux.HandleFunc("/api/v1/production/regions", h.get(h.handleHeatmap))
	mux.HandleFunc("/api/v1/exchanges", h.get(h.handleExchanges))
	mux.HandleFunc("/api/v1/map", h.get(h.handleMap))
	mux.HandleFunc("/api/v1/exports/records.csv", h.get(h.handleRecordsCSV))
	mux.HandleFunc("/api/v1/exports/records.xlsx", h.get(h.handleRecordsXLSX))
	mux.HandleFunc("/api/v1/exports/records.parquet", h.get(h.handleRecordsParquet))
	mux.HandleFunc("/api/v1/exports/report.pdf", h.get(h.handleReportPDF))
	mux.HandleFunc("/api/v1/snapshots/daily", h.get(h.handleSnapshots))
	mux.HandleFunc("/api/v1/admin/reload", h.post(h.handleReload))
	mux.HandleFunc("/api/v1/admin/snapshot", h.post(h.handlePublishSnapshot))
}

func (h *Handler) get(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		next(w, r)
	}
}

func (h *Handler) post(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		next(w, r)
	}
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if _, err := h.queries.Info(r.Context()); err != nil {
		http.Error(w, "dataset not loaded", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) handleDataset(w http.ResponseWriter, r *http.Request) {
	info, err := h.queries.Info(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	resp := newDatasetResponse(info)
	if h.snapshots.Enabled() {
		run, ok, err := h.snapshots.LatestRun(r.Context())
		switch {
		case err != nil:
			h.logger.Printf("latest snapshot error: %v", err)
		case ok:
			last := newRun(run)
			resp.LastSnapshot = &last
		}
	}
	h.writeJSON(w, r, resp)
}

func (h *Handler) handleRegions(w http.ResponseWriter, r *http.Request) {
	regions, err := h.queries.Regions(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, r, regions)
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.queries.Summary(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, r, newSummaryResponse(summary))
}

func (h *Handler) handleConsumption(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	points, err := h.queries.Consumption(r.Context(), q)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, r, newPoints(points))
}

func (h *Handler) handleProductionTimeline(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	points, err := h.queries.ProductionTimeline(r.Context(), q)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, r, newPoints(points))
}

func (h *Handler) handleProductionSources(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	totals, err := h.queries.ProductionSources(r.Context(), q)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, r, newSourceTotals(totals))
}

func (h *Handler) handleProductionBuckets(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	points, err := h.queries.ProductionBuckets(r.Context(), q)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, r, newSourcePoints(points))
}

func (h *Handler) handleMix(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	mix, err := h.queries.Mix(r.Context(), q)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, r, newCategories(mix))
}

func (h *Handler) handleHeatmap(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	exclude, err := parseExclude(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	digits, err := parseRoundQuery(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	heatmap, err := h.queries.Heatmap(r.Context(), q, exclude, digits)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, r, newHeatmap(heatmap))
}

func (h *Handler) handleExchanges(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	points, err := h.queries.Exchanges(r.Context(), q)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, r, newPoints(points))
}

func (h *Handler) handleMap(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	dynamic, err := parseBoolQuery(r, "dynamic")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	view, err := h.queries.Map(r.Context(), q.Period, dynamic)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, r, newMap(view))
}

func (h *Handler) handleRecordsCSV(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	q, err := parseQuery(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	slice, err := h.queries.Records(r.Context(), q)
	if err != nil {
		metrics.ObserveExport("csv", metrics.ResultError, time.Since(start))
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", attachment("records", q, "csv"))
	err = export.WriteRecordsCSV(w, slice)
	metrics.ObserveExport("csv", metrics.Result(err), time.Since(start))
	if err != nil {
		h.logger.Printf("csv export error: %v", err)
	}
}

func (h *Handler) handleRecordsXLSX(w http.ResponseWriter, r *http.Request) {
	h.serveRecordsFile(w, r, "xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", export.BuildRecordsXLSX)
}

func (h *Handler) handleRecordsParquet(w http.ResponseWriter, r *http.Request) {
	h.serveRecordsFile(w, r, "parquet", "application/vnd.apache.parquet", export.BuildRecordsParquet)
}

func (h *Handler) serveRecordsFile(w http.ResponseWriter, r *http.Request, format, contentType string, build func(dataset.Slice) ([]byte, error)) {
	start := time.Now()
	q, err := parseQuery(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	slice, err := h.queries.Records(r.Context(), q)
	if err != nil {
		metrics.ObserveExport(format, metrics.ResultError, time.Since(start))
		h.fail(w, r, err)
		return
	}
	data, err := build(slice)
	metrics.ObserveExport(format, metrics.Result(err), time.Since(start))
	if err != nil {
		h.logger.Printf("%s export error: %v", format, err)
		http.Error(w, "export error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", attachment("records", q, format))
	_, _ = w.Write(data)
}

func (h *Handler) handleReportPDF(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	q, err := parseQuery(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	summary, err := h.queries.Summary(r.Context())
	if err != nil {
		metrics.ObserveExport("pdf", metrics.ResultError, time.Since(start))
		h.fail(w, r, err)
		return
	}
	sources, err := h.queries.ProductionSources(r.Context(), q)
	if err != nil {
		metrics.ObserveExport("pdf", metrics.ResultError, time.Since(start))
		h.fail(w, r, err)
		return
	}
	mix, err := h.queries.Mix(r.Context(), q)
	if err != nil {
		metrics.ObserveExport("pdf", metrics.ResultError, time.Since(start))
		h.fail(w, r, err)
		return
	}
	data, err := export.BuildReportPDF(export.Report{
		Period:      q.Period,
		Region:      q.Region,
		Summary:     summary,
		Sources:     sources,
		Mix:         mix,
		GeneratedAt: h.clock.Now(),
	})
	metrics.ObserveExport("pdf", metrics.Result(err), time.Since(start))
	if err != nil {
		h.logger.Printf("pdf export error: %v", err)
		http.Error(w, "export error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", attachment("report", q, "pdf"))
	_, _ = w.Write(data)
}

func (h *Handler) handleSnapshots(w http.ResponseWriter, r *http.Request) {
	q, err := parseSnapshotQuery(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	rows, err := h.snapshots.List(r.Context(), q)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, r, newDailyRows(rows))
}

func (h *Handler) handleReload(w http.ResponseWriter, r *http.Request) {
	if h.reloader == nil {
		http.Error(w, "reload not configured", http.StatusServiceUnavailable)
		return
	}
	loaded, err := h.reloader.Reload(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.logAudit(r, "dataset.reload", "dataset", strconv.FormatUint(loaded.Version, 10), map[string]any{
		"source":      loaded.Source,
		"hourly_rows": loaded.Dataset.HourlyLen(),
	})
	h.writeJSON(w, r, newReload(loaded))
}

func (h *Handler) handlePublishSnapshot(w http.ResponseWriter, r *http.Request) {
	run, err := h.snapshots.Publish(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.logAudit(r, "snapshot.publish", "snapshot", run.ID, map[string]any{"rows": run.Rows})
	h.writeJSON(w, r, newRun(run))
}

func (h *Handler) logAudit(r *http.Request, action, resourceType, resourceID string, meta map[string]any) {
	if h.audit == nil {
		return
	}
	payload, _ := json.Marshal(meta)
	if err := h.audit.Log(r.Context(), audit.Entry{
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Metadata:     payload,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	}); err != nil {
		h.logger.Printf("audit log error: action=%s err=%v", action, err)
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Printf("%s %s error: %v", r.Method, r.URL.Path, err)
		http.Error(w, "internal error", status)
		return
	}
	http.Error(w, err.Error(), status)
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		h.logger.Printf("%s %s encode error: %v", r.Method, r.URL.Path, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(buf.Bytes())
}

func attachment(name string, q application.Query, ext string) string {
	period := strings.ReplaceAll(q.Period.String(), ":", "-")
	return fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("%s-%s.%s", name, period, ext))
}
