package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/dvloznov/rfm-insights/internal/api/middleware"
	"github.com/dvloznov/rfm-insights/internal/domain"
	"github.com/dvloznov/rfm-insights/internal/jobs"
	"github.com/dvloznov/rfm-insights/internal/reports"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// SnapshotReader serves the latest segmentation snapshot to read endpoints.
type SnapshotReader interface {
	LatestRFMRecords(ctx context.Context) ([]domain.CustomerRFMRecord, error)
}

// RunsHandler handles segmentation run endpoints.
type RunsHandler struct {
	store     jobs.JobStore
	publisher jobs.Publisher
	log       zerolog.Logger
}

// NewRunsHandler creates a new runs handler.
func NewRunsHandler(store jobs.JobStore, publisher jobs.Publisher, log zerolog.Logger) *RunsHandler {
	return &RunsHandler{store: store, publisher: publisher, log: log}
}

// CreateRun handles POST /api/runs: enqueue a recomputation job.
func (h *RunsHandler) CreateRun(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AsOfDate string `json:"as_of_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.AsOfDate == "" {
		middleware.WriteError(w, http.StatusBadRequest, "as_of_date is required")
		return
	}
	if _, err := time.Parse("2006-01-02", req.AsOfDate); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "as_of_date must be formatted YYYY-MM-DD")
		return
	}

	job := &jobs.SegmentationJob{AsOfDate: req.AsOfDate}
	if err := h.publisher.PublishSegmentation(r.Context(), job); err != nil {
		h.log.Error().Err(err).Msg("Failed to enqueue segmentation job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue job")
		return
	}

	middleware.WriteJSON(w, http.StatusAccepted, job)
}

// GetRun handles GET /api/runs/{id}.
func (h *RunsHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["id"]

	job, err := h.store.GetJob(r.Context(), jobID)
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, "Run not found")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListRuns handles GET /api/runs.
func (h *RunsHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	filter := jobs.JobFilter{Limit: 50}
	if s := r.URL.Query().Get("status"); s != "" {
		filter.Status = jobs.JobStatus(s)
	}

	runs, err := h.store.ListJobs(r.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list runs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list runs")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
	})
}

// SegmentsHandler serves the snapshot and its derived reports.
type SegmentsHandler struct {
	reader SnapshotReader
	log    zerolog.Logger
}

// NewSegmentsHandler creates a new segments handler.
func NewSegmentsHandler(reader SnapshotReader, log zerolog.Logger) *SegmentsHandler {
	return &SegmentsHandler{reader: reader, log: log}
}

func (h *SegmentsHandler) latest(w http.ResponseWriter, r *http.Request) ([]domain.CustomerRFMRecord, bool) {
	records, err := h.reader.LatestRFMRecords(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load snapshot")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to load snapshot")
		return nil, false
	}
	return records, true
}

// ListSegments handles GET /api/segments, optionally filtered by ?segment=.
func (h *SegmentsHandler) ListSegments(w http.ResponseWriter, r *http.Request) {
	records, ok := h.latest(w, r)
	if !ok {
		return
	}

	if seg := r.URL.Query().Get("segment"); seg != "" {
		filtered := records[:0:0]
		for _, rec := range records {
			if string(rec.Segment) == seg {
				filtered = append(filtered, rec)
			}
		}
		records = filtered
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"records": records,
		"count":   len(records),
	})
}

// Distribution handles GET /api/reports/distribution.
func (h *SegmentsHandler) Distribution(w http.ResponseWriter, r *http.Request) {
	records, ok := h.latest(w, r)
	if !ok {
		return
	}
	middleware.WriteJSON(w, http.StatusOK, reports.SegmentDistribution(records))
}

// Averages handles GET /api/reports/averages.
func (h *SegmentsHandler) Averages(w http.ResponseWriter, r *http.Request) {
	records, ok := h.latest(w, r)
	if !ok {
		return
	}
	middleware.WriteJSON(w, http.StatusOK, reports.SegmentAverages(records))
}

// Histograms handles GET /api/reports/histograms.
func (h *SegmentsHandler) Histograms(w http.ResponseWriter, r *http.Request) {
	records, ok := h.latest(w, r)
	if !ok {
		return
	}
	middleware.WriteJSON(w, http.StatusOK, reports.ScoreHistograms(records))
}

// Top handles GET /api/reports/top?segment=Premium&n=10.
func (h *SegmentsHandler) Top(w http.ResponseWriter, r *http.Request) {
	seg := r.URL.Query().Get("segment")
	if seg == "" {
		middleware.WriteError(w, http.StatusBadRequest, "segment query parameter is required")
		return
	}

	n := 10
	if raw := r.URL.Query().Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			middleware.WriteError(w, http.StatusBadRequest, "n must be a positive integer")
			return
		}
		n = parsed
	}

	records, ok := h.latest(w, r)
	if !ok {
		return
	}
	top := reports.TopByMonetary(records, domain.Segment(seg), n)
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"segment": seg,
		"records": top,
		"count":   len(top),
	})
}

// Router assembles the full API route table.
func Router(runs *RunsHandler, segments *SegmentsHandler, log zerolog.Logger) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))
	r.Use(middleware.CORS)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/runs", runs.CreateRun).Methods(http.MethodPost)
	api.HandleFunc("/runs", runs.ListRuns).Methods(http.MethodGet)
	api.HandleFunc("/runs/{id}", runs.GetRun).Methods(http.MethodGet)

	api.HandleFunc("/segments", segments.ListSegments).Methods(http.MethodGet)
	api.HandleFunc("/reports/distribution", segments.Distribution).Methods(http.MethodGet)
	api.HandleFunc("/reports/averages", segments.Averages).Methods(http.MethodGet)
	api.HandleFunc("/reports/histograms", segments.Histograms).Methods(http.MethodGet)
	api.HandleFunc("/reports/top", segments.Top).Methods(http.MethodGet)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	return r
}
