package httpapi

import (
	"net/http"
	"strings"

	"iheartcare/internal/domain"
	"iheartcare/internal/service"

	"go.uber.org/zap"
)

const monitoringPrefix = "/monitoring/api/v1/"

// MonitoringHandler monitoring sessions, dashboards and clinical analysis.
type MonitoringHandler struct {
	monitoring   service.MonitoringService
	measurements service.MeasurementService
	exports      service.ExportService
	guard        *Guard
	logger       *zap.Logger
}

func NewMonitoringHandler(
	monitoring service.MonitoringService,
	measurements service.MeasurementService,
	exports service.ExportService,
	guard *Guard,
	logger *zap.Logger,
) *MonitoringHandler {
	return &MonitoringHandler{
		monitoring:   monitoring,
		measurements: measurements,
		exports:      exports,
		guard:        guard,
		logger:       logger,
	}
}

func (h *MonitoringHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	session, ok := h.guard.Session(w, r, domain.RoleAdministrator, domain.RoleClinician)
	if !ok {
		return
	}

	path := r.URL.Path
	switch {
	case path == monitoringPrefix+"candidates" && r.Method == http.MethodGet:
		h.ListCandidates(w, r)
	case path == monitoringPrefix+"active" && r.Method == http.MethodGet:
		h.ListActive(w, r)
	case path == monitoringPrefix+"sessions" && r.Method == http.MethodGet:
		h.History(w, r)
	case path == monitoringPrefix+"sessions" && r.Method == http.MethodPost:
		h.Start(w, r)
	case path == monitoringPrefix+"history/export" && r.Method == http.MethodGet:
		h.ExportHistory(w, r)
	case strings.HasPrefix(path, monitoringPrefix+"sessions/") && strings.HasSuffix(path, "/stop") && r.Method == http.MethodPost:
		h.Stop(w, r)
	case strings.HasPrefix(path, monitoringPrefix+"sessions/") && strings.HasSuffix(path, "/dashboard") && r.Method == http.MethodGet:
		h.Dashboard(w, r, session)
	case strings.HasPrefix(path, monitoringPrefix+"patients/") && strings.HasSuffix(path, "/analysis") && r.Method == http.MethodGet:
		h.Analysis(w, r, session)
	case strings.HasPrefix(path, monitoringPrefix+"patients/") && strings.HasSuffix(path, "/measurements/export") && r.Method == http.MethodGet:
		h.ExportMeasurements(w, r, session)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *MonitoringHandler) ListCandidates(w http.ResponseWriter, r *http.Request) {
	out, err := h.monitoring.ListCandidates(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(out))
}

func (h *MonitoringHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	out, err := h.monitoring.ListActive(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(out))
}

func (h *MonitoringHandler) History(w http.ResponseWriter, r *http.Request) {
	out, err := h.monitoring.History(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(out))
}

type startMonitoringRequest struct {
	PatientID int64  `json:"paciente_id"`
	Reason    string `json:"motivo"`
}

func (h *MonitoringHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req startMonitoringRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	session, err := h.monitoring.Start(r.Context(), req.PatientID, req.Reason)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(session))
}

func (h *MonitoringHandler) Stop(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r.URL.Path, monitoringPrefix+"sessions/", "/stop")
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if err := h.monitoring.Stop(r.Context(), id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}

func (h *MonitoringHandler) Dashboard(w http.ResponseWriter, r *http.Request, viewer *domain.Session) {
	id, ok := pathID(r.URL.Path, monitoringPrefix+"sessions/", "/dashboard")
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	out, err := h.monitoring.Dashboard(r.Context(), viewer, id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(out))
}

func (h *MonitoringHandler) Analysis(w http.ResponseWriter, r *http.Request, viewer *domain.Session) {
	patientID, ok := pathID(r.URL.Path, monitoringPrefix+"patients/", "/analysis")
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	window := domain.Window(r.URL.Query().Get("window"))
	out, err := h.measurements.Analysis(r.Context(), viewer, patientID, window)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(out))
}

func (h *MonitoringHandler) ExportHistory(w http.ResponseWriter, r *http.Request) {
	out, err := h.exports.ExportHistory(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeExport(w, out)
}

func (h *MonitoringHandler) ExportMeasurements(w http.ResponseWriter, r *http.Request, viewer *domain.Session) {
	patientID, ok := pathID(r.URL.Path, monitoringPrefix+"patients/", "/measurements/export")
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	out, err := h.exports.ExportMeasurements(r.Context(), viewer, patientID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeExport(w, out)
}
