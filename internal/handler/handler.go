package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/Dan9191/stress-service/internal/middleware"
	"github.com/Dan9191/stress-service/internal/models"
	"github.com/Dan9191/stress-service/internal/service"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

const maxBodySize = 1 << 20

type Handler struct {
	svc   *service.Service
	rates service.RateProvider
	log   *logrus.Logger
}

func NewHandler(svc *service.Service, rates service.RateProvider, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, rates: rates, log: log}
}

// Register mounts the public routes on r and the identity-required routes
// on a subrouter guarded by auth.
func (h *Handler) Register(r *mux.Router, authMiddleware mux.MiddlewareFunc) {
	// Public routes
	r.HandleFunc("/health", h.Health).Methods("GET")
	r.HandleFunc("/scenarios", h.ListScenarios).Methods("GET")
	r.HandleFunc("/key-rate", h.KeyRate).Methods("GET")

	// Protected routes
	auth := r.PathPrefix("/").Subrouter()
	auth.Use(authMiddleware)

	auth.HandleFunc("/datasets", h.ListDatasets).Methods("GET")
	auth.HandleFunc("/datasets", h.CreateDataset).Methods("POST")
	auth.HandleFunc("/datasets/sample", h.CreateSampleDataset).Methods("POST")
	auth.HandleFunc("/datasets/{id}", h.GetDataset).Methods("GET")
	auth.HandleFunc("/stress", h.RunStress).Methods("POST")
	auth.HandleFunc("/stress/preview", h.PreviewStress).Methods("POST")
	auth.HandleFunc("/stress-runs", h.ListStressRuns).Methods("GET")
	auth.HandleFunc("/stress-runs/{id}", h.GetStressRun).Methods("GET")
	auth.HandleFunc("/disclosure-analyses", h.ListDisclosureAnalyses).Methods("GET")
	auth.HandleFunc("/disclosure-analyses", h.RecordDisclosureAnalysis).Methods("POST")
	auth.HandleFunc("/counts", h.Counts).Methods("GET")
	auth.HandleFunc("/report", h.Report).Methods("POST")
}

// Health reports liveness
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListScenarios returns the scenario catalog
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Scenarios())
}

// KeyRate returns the central bank key rate including the lending margin
func (h *Handler) KeyRate(w http.ResponseWriter, r *http.Request) {
	if h.rates == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "key rate source is not configured"})
		return
	}
	rate, err := h.rates.GetKeyRate(r.Context())
	if err != nil {
		h.log.Errorf("Failed to get key rate: %v", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": fmt.Sprintf("Failed to get key rate: %v", err)})
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"key_rate": rate})
}

func (h *Handler) ListDatasets(w http.ResponseWriter, r *http.Request) {
	datasets, err := h.svc.ListDatasets(r.Context(), userID(r))
	h.respond(w, http.StatusOK, datasets, err)
}

func (h *Handler) CreateDataset(w http.ResponseWriter, r *http.Request) {
	var in service.DatasetInput
	if !h.decode(w, r, &in) {
		return
	}
	ds, err := h.svc.CreateDataset(r.Context(), userID(r), in)
	h.respond(w, http.StatusCreated, ds, err)
}

func (h *Handler) CreateSampleDataset(w http.ResponseWriter, r *http.Request) {
	ds, err := h.svc.CreateSampleDataset(r.Context(), userID(r))
	h.respond(w, http.StatusCreated, ds, err)
}

func (h *Handler) GetDataset(w http.ResponseWriter, r *http.Request) {
	ds, err := h.svc.GetDataset(r.Context(), userID(r), mux.Vars(r)["id"])
	h.respond(w, http.StatusOK, ds, err)
}

// RunStress runs a scenario against a stored dataset
func (h *Handler) RunStress(w http.ResponseWriter, r *http.Request) {
	var req service.StressRequest
	if !h.decode(w, r, &req) {
		return
	}
	run, err := h.svc.RunStress(r.Context(), userID(r), req)
	h.respond(w, http.StatusCreated, run, err)
}

// PreviewStress runs a scenario against inline inputs without storing it
func (h *Handler) PreviewStress(w http.ResponseWriter, r *http.Request) {
	var req service.PreviewRequest
	if !h.decode(w, r, &req) {
		return
	}
	result, err := h.svc.PreviewStress(r.Context(), req)
	h.respond(w, http.StatusOK, result, err)
}

func (h *Handler) ListStressRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.svc.ListStressRuns(r.Context(), userID(r))
	h.respond(w, http.StatusOK, runs, err)
}

func (h *Handler) GetStressRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.svc.GetStressRun(r.Context(), userID(r), mux.Vars(r)["id"])
	h.respond(w, http.StatusOK, run, err)
}

type disclosureRequest struct {
	UploadID *string                  `json:"upload_id"`
	FileName *string                  `json:"file_name"`
	Results  models.DisclosureResults `json:"results"`
}

func (h *Handler) ListDisclosureAnalyses(w http.ResponseWriter, r *http.Request) {
	analyses, err := h.svc.ListDisclosureAnalyses(r.Context(), userID(r))
	h.respond(w, http.StatusOK, analyses, err)
}

// RecordDisclosureAnalysis stores the output of a filing analysis
func (h *Handler) RecordDisclosureAnalysis(w http.ResponseWriter, r *http.Request) {
	var req disclosureRequest
	if !h.decode(w, r, &req) {
		return
	}
	a, err := h.svc.RecordDisclosureAnalysis(r.Context(), userID(r), req.UploadID, req.FileName, req.Results)
	h.respond(w, http.StatusCreated, a, err)
}

func (h *Handler) Counts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.svc.Counts(r.Context(), userID(r))
	h.respond(w, http.StatusOK, counts, err)
}

// Report returns the executive risk brief. The brief is rendered to PDF
// when a renderer is configured, unless format=json is requested.
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	var req service.ReportRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("invalid request body: %v", err)})
		return
	}

	if !h.svc.CanRender() || r.URL.Query().Get("format") == "json" {
		payload, err := h.svc.BuildReport(r.Context(), userID(r), req)
		h.respond(w, http.StatusOK, payload, err)
		return
	}

	doc, filename, err := h.svc.RenderReport(r.Context(), userID(r), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc)))
	w.WriteHeader(http.StatusOK)
	w.Write(doc)
}

func userID(r *http.Request) string {
	id, _ := middleware.UserIDFromContext(r.Context())
	return id
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("invalid request body: %v", err)})
		return false
	}
	return true
}

func (h *Handler) respond(w http.ResponseWriter, status int, v interface{}, err error) {
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, status, v)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": verr.Message})
	case errors.Is(err, service.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, context.DeadlineExceeded):
		h.log.Warnf("Request timed out: %v", err)
		writeJSON(w, http.StatusGatewayTimeout, map[string]string{"error": "stress run timed out"})
	default:
		h.log.Errorf("Request failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
