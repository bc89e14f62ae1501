package httpapi

import (
	"net/http"

	"iheartcare/internal/domain"
	"iheartcare/internal/service"

	"go.uber.org/zap"
)

const mePrefix = "/me/api/v1/"

// PatientHandler self-service endpoints of a logged-in patient.
type PatientHandler struct {
	profiles     service.ProfileService
	measurements service.MeasurementService
	alerts       service.AlertService
	exports      service.ExportService
	guard        *Guard
	logger       *zap.Logger
}

func NewPatientHandler(
	profiles service.ProfileService,
	measurements service.MeasurementService,
	alerts service.AlertService,
	exports service.ExportService,
	guard *Guard,
	logger *zap.Logger,
) *PatientHandler {
	return &PatientHandler{
		profiles:     profiles,
		measurements: measurements,
		alerts:       alerts,
		exports:      exports,
		guard:        guard,
		logger:       logger,
	}
}

func (h *PatientHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	session, ok := h.guard.Session(w, r, domain.RolePatient)
	if !ok {
		return
	}
	// a patient user without a linked record has nothing to see
	if session.PatientID == nil {
		writeError(w, h.logger, service.ErrForbidden)
		return
	}
	patientID := *session.PatientID

	path := r.URL.Path
	switch {
	case path == mePrefix+"profile" && r.Method == http.MethodGet:
		h.Profile(w, r, patientID)
	case path == mePrefix+"measurements" && r.Method == http.MethodGet:
		h.Measurements(w, r, session, patientID)
	case path == mePrefix+"measurements/export" && r.Method == http.MethodGet:
		h.ExportMeasurements(w, r, session, patientID)
	case path == mePrefix+"alerts" && r.Method == http.MethodGet:
		h.Alerts(w, r, patientID)
	case path == mePrefix+"alerts/read-all" && r.Method == http.MethodPost:
		h.MarkAllRead(w, r, patientID)
	case r.Method == http.MethodPost:
		if id, ok := pathID(path, mePrefix+"alerts/", "/read"); ok {
			h.MarkRead(w, r, session, id)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *PatientHandler) Profile(w http.ResponseWriter, r *http.Request, patientID int64) {
	out, err := h.profiles.Profile(r.Context(), patientID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(out))
}

func (h *PatientHandler) Measurements(w http.ResponseWriter, r *http.Request, session *domain.Session, patientID int64) {
	out, err := h.measurements.PatientMeasurements(r.Context(), session, patientID, r.URL.Query().Get("tipo"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(out))
}

func (h *PatientHandler) ExportMeasurements(w http.ResponseWriter, r *http.Request, session *domain.Session, patientID int64) {
	out, err := h.exports.ExportMeasurements(r.Context(), session, patientID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeExport(w, out)
}

func (h *PatientHandler) Alerts(w http.ResponseWriter, r *http.Request, patientID int64) {
	q := r.URL.Query()
	filter := domain.AlertFilter{
		Status: domain.AlertStatus(q.Get("status")),
		Type:   q.Get("tipo"),
		Limit:  parseInt(q.Get("limit"), 0),
	}
	out, err := h.alerts.ListForPatient(r.Context(), patientID, filter)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(out))
}

func (h *PatientHandler) MarkRead(w http.ResponseWriter, r *http.Request, session *domain.Session, alertID int64) {
	if err := h.alerts.MarkReadAs(r.Context(), session, alertID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}

func (h *PatientHandler) MarkAllRead(w http.ResponseWriter, r *http.Request, patientID int64) {
	n, err := h.alerts.MarkAllReadForPatient(r.Context(), patientID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]int64{"updated": n}))
}
