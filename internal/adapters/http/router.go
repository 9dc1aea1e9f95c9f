package httpadapter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/samakshmehra/document-processing-system/internal/config"
	"github.com/samakshmehra/document-processing-system/internal/core/domain"
	"github.com/samakshmehra/document-processing-system/internal/core/ports"
	"github.com/samakshmehra/document-processing-system/internal/observability/metrics"
)

const (
	serviceName = "api"

	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// HistoryExporter renders records into a downloadable workbook.
type HistoryExporter interface {
	WriteXLSX(w io.Writer, records []domain.MemoryRecord) error
}

type Router struct {
	cfg       config.Config
	documents ports.DocumentRouter
	history   ports.HistoryReader
	submitter ports.SubmissionIngestor
	exporter  HistoryExporter
	metrics   *metrics.HTTPServerMetrics
}

type RouterOption func(*Router)

func WithMetrics(m *metrics.HTTPServerMetrics) RouterOption {
	return func(rt *Router) { rt.metrics = m }
}

func WithExporter(e HistoryExporter) RouterOption {
	return func(rt *Router) { rt.exporter = e }
}

// NewRouter wires the HTTP surface. submitter may be nil when the
// submission queue is disabled.
func NewRouter(
	cfg config.Config,
	documents ports.DocumentRouter,
	history ports.HistoryReader,
	submitter ports.SubmissionIngestor,
	opts ...RouterOption,
) *Router {
	rt := &Router{
		cfg:       cfg,
		documents: documents,
		history:   history,
		submitter: submitter,
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	mux.HandleFunc("POST /v1/documents", rt.processDocument)
	mux.HandleFunc("POST /v1/submissions", rt.submitDocument)
	mux.HandleFunc("GET /v1/history", rt.listHistory)
	mux.HandleFunc("GET /v1/history/export.xlsx", rt.exportHistory)
	mux.HandleFunc("GET /v1/threads/{thread_id}", rt.getThread)
	mux.HandleFunc("GET /v1/records/{record_id}", rt.getRecord)

	var api http.Handler = mux
	if validator, err := newRequestValidator(); err != nil {
		slog.Error("openapi_validator_disabled", "error", err)
	} else {
		api = validator.middleware(api)
	}
	api = backpressureMiddleware(
		api,
		rt.cfg.APIMaxInFlight,
		time.Duration(rt.cfg.APIBackpressureWaitMS)*time.Millisecond,
		rt.recordRejected,
	)
	api = rateLimitMiddleware(api, newLimiter(rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst), rt.recordRejected)

	root := http.NewServeMux()
	if rt.metrics != nil {
		root.Handle("GET /metrics", rt.metrics.Handler())
		api = rt.metrics.Middleware(serviceName, api)
	}
	root.Handle("/", api)

	return requestIDMiddleware(accessLogMiddleware(root))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type documentRequest struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

func (rt *Router) processDocument(w http.ResponseWriter, r *http.Request) {
	name, content, err := rt.readUpload(w, r, true)
	if err != nil {
		writeError(w, err)
		return
	}

	start := time.Now()
	outcome, err := rt.documents.Route(r.Context(), domain.NewDocument(name, content))
	if err != nil {
		writeError(w, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordRoute(serviceName, outcome, time.Since(start))
	}
	w.Header().Set(threadIDHeader, outcome.ThreadID)
	writeJSON(w, http.StatusOK, outcome)
}

func (rt *Router) submitDocument(w http.ResponseWriter, r *http.Request) {
	if rt.submitter == nil {
		writeError(w, domain.ErrQueueDisabled)
		return
	}
	name, content, err := rt.readUpload(w, r, false)
	if err != nil {
		writeError(w, err)
		return
	}

	sub, err := rt.submitter.Enqueue(r.Context(), name, bytes.NewReader(content))
	if err != nil {
		writeError(w, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordSubmissionQueued(serviceName)
	}
	writeJSON(w, http.StatusAccepted, sub)
}

// readUpload accepts a multipart "file" field and, when allowJSON is set, a
// JSON body {name, content}.
func (rt *Router) readUpload(w http.ResponseWriter, r *http.Request, allowJSON bool) (string, []byte, error) {
	if rt.cfg.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, rt.cfg.MaxUploadBytes)
	}

	if allowJSON && !isMultipart(r) {
		var req documentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return "", nil, domain.WrapError(domain.ErrInvalidInput, "decode document request", err)
		}
		return req.Name, []byte(req.Content), nil
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return "", nil, domain.WrapError(domain.ErrInvalidInput, "read upload", errors.New("multipart field 'file' is required"))
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return "", nil, domain.WrapError(domain.ErrInvalidInput, "read upload", err)
	}
	return header.Filename, content, nil
}

func (rt *Router) listHistory(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var views []domain.RecordView
	if filter.onlyThread() {
		rt.recordHistoryRead("history")
		views, err = rt.history.FetchHistory(r.Context(), filter.ThreadID)
	} else {
		rt.recordHistoryRead("search")
		var records []domain.MemoryRecord
		records, err = rt.history.Search(r.Context(), filter.RecordFilter)
		views = toViews(records)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": views, "count": len(views)})
}

func (rt *Router) exportHistory(w http.ResponseWriter, r *http.Request) {
	if rt.exporter == nil {
		writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "export is not configured"})
		return
	}
	filter, err := parseFilter(r)
	if err != nil {
		writeError(w, err)
		return
	}
	rt.recordHistoryRead("export")
	records, err := rt.history.Search(r.Context(), filter.RecordFilter)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="history.xlsx"`)
	if err := rt.exporter.WriteXLSX(w, records); err != nil {
		slog.Error("history_export_failed", "request_id", requestIDFromContext(r.Context()), "error", err)
	}
}

func (rt *Router) getThread(w http.ResponseWriter, r *http.Request) {
	threadID := strings.TrimSpace(r.PathValue("thread_id"))
	if threadID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "thread id is required"})
		return
	}
	rt.recordHistoryRead("thread")
	records, err := rt.history.Search(r.Context(), domain.RecordFilter{ThreadID: threadID})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"thread_id": threadID, "records": records})
}

func (rt *Router) getRecord(w http.ResponseWriter, r *http.Request) {
	recordID := strings.TrimSpace(r.PathValue("record_id"))
	if recordID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "record id is required"})
		return
	}
	rt.recordHistoryRead("record")
	record, err := rt.history.GetRecord(r.Context(), recordID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (rt *Router) recordRejected(reason string) {
	if rt.metrics != nil {
		rt.metrics.RecordRejected(serviceName, reason)
	}
}

func (rt *Router) recordHistoryRead(kind string) {
	if rt.metrics != nil {
		rt.metrics.RecordHistoryRead(serviceName, kind)
	}
}

type historyFilter struct {
	domain.RecordFilter
}

func (f historyFilter) onlyThread() bool {
	rest := f.RecordFilter
	rest.ThreadID = ""
	return rest == (domain.RecordFilter{})
}

func parseFilter(r *http.Request) (historyFilter, error) {
	q := r.URL.Query()
	filter := domain.RecordFilter{
		ThreadID:      strings.TrimSpace(q.Get("thread_id")),
		SourceAgent:   strings.TrimSpace(q.Get("source_agent")),
		StepType:      domain.StepType(strings.ToUpper(strings.TrimSpace(q.Get("step_type")))),
		CorrelationID: strings.TrimSpace(q.Get("correlation_id")),
	}
	switch filter.StepType {
	case "", domain.StepClassify, domain.StepExtract, domain.StepError:
	default:
		return historyFilter{}, domain.WrapError(domain.ErrInvalidInput, "parse filter", fmt.Errorf("unknown step_type %q", filter.StepType))
	}

	var err error
	if filter.Since, err = parseTime(q.Get("since")); err != nil {
		return historyFilter{}, err
	}
	if filter.Until, err = parseTime(q.Get("until")); err != nil {
		return historyFilter{}, err
	}
	return historyFilter{RecordFilter: filter}, nil
}

func parseTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, domain.WrapError(domain.ErrInvalidInput, "parse filter", fmt.Errorf("invalid timestamp %q", raw))
	}
	return ts, nil
}

func toViews(records []domain.MemoryRecord) []domain.RecordView {
	views := make([]domain.RecordView, 0, len(records))
	for _, r := range records {
		views = append(views, domain.NewRecordView(r))
	}
	return views
}

func newLimiter(rps, burst int) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = rps
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

func writeError(w http.ResponseWriter, err error) {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
