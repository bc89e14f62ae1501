package httpapi

import (
	"net/http"

	"iheartcare/internal/domain"
	"iheartcare/internal/service"

	"go.uber.org/zap"
)

const clinicianPrefix = "/clinician/api/v1/"

// ClinicianHandler a clinician's assigned patients and their alerts.
type ClinicianHandler struct {
	clinicians service.ClinicianService
	alerts     service.AlertService
	guard      *Guard
	logger     *zap.Logger
}

func NewClinicianHandler(clinicians service.ClinicianService, alerts service.AlertService, guard *Guard, logger *zap.Logger) *ClinicianHandler {
	return &ClinicianHandler{clinicians: clinicians, alerts: alerts, guard: guard, logger: logger}
}

func (h *ClinicianHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	session, ok := h.guard.Session(w, r, domain.RoleClinician)
	if !ok {
		return
	}
	if session.ClinicianID == nil {
		writeError(w, h.logger, service.ErrForbidden)
		return
	}
	clinicianID := *session.ClinicianID

	switch {
	case r.URL.Path == clinicianPrefix+"patients" && r.Method == http.MethodGet:
		h.Patients(w, r, clinicianID)
	case r.URL.Path == clinicianPrefix+"alerts" && r.Method == http.MethodGet:
		h.Alerts(w, r, clinicianID)
	case r.Method == http.MethodPost:
		if id, ok := pathID(r.URL.Path, clinicianPrefix+"alerts/", "/read"); ok {
			h.MarkRead(w, r, session, id)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *ClinicianHandler) Patients(w http.ResponseWriter, r *http.Request, clinicianID int64) {
	out, err := h.clinicians.MyPatients(r.Context(), clinicianID, r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(out))
}

func (h *ClinicianHandler) Alerts(w http.ResponseWriter, r *http.Request, clinicianID int64) {
	out, err := h.alerts.ListForClinicianPatients(r.Context(), clinicianID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(out))
}

func (h *ClinicianHandler) MarkRead(w http.ResponseWriter, r *http.Request, session *domain.Session, alertID int64) {
	if err := h.alerts.MarkReadAs(r.Context(), session, alertID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}
