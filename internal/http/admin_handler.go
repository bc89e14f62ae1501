package httpapi

import (
	"net/http"
	"strings"

	"iheartcare/internal/domain"
	"iheartcare/internal/service"

	"go.uber.org/zap"
)

const adminPrefix = "/admin/api/v1/"

// AdminHandler patient/clinician directory, user linking and devices. Administrators only.
type AdminHandler struct {
	registration service.RegistrationService
	devices      service.DeviceService
	guard        *Guard
	logger       *zap.Logger
}

func NewAdminHandler(registration service.RegistrationService, devices service.DeviceService, guard *Guard, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		registration: registration,
		devices:      devices,
		guard:        guard,
		logger:       logger,
	}
}

func (h *AdminHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.guard.Session(w, r, domain.RoleAdministrator); !ok {
		return
	}

	path := r.URL.Path
	switch {
	case path == adminPrefix+"patients" && r.Method == http.MethodGet:
		h.ListPatients(w, r)
	case path == adminPrefix+"patients" && r.Method == http.MethodPost:
		h.CreatePatient(w, r)
	case strings.HasSuffix(path, "/user") && strings.HasPrefix(path, adminPrefix+"patients/") && r.Method == http.MethodPost:
		h.CreatePatientUser(w, r)
	case strings.HasSuffix(path, "/clinicians") && strings.HasPrefix(path, adminPrefix+"patients/") && r.Method == http.MethodPost:
		h.AssignClinician(w, r)
	case path == adminPrefix+"clinicians" && r.Method == http.MethodGet:
		h.ListClinicians(w, r)
	case path == adminPrefix+"clinicians" && r.Method == http.MethodPost:
		h.CreateClinician(w, r)
	case strings.HasSuffix(path, "/user") && strings.HasPrefix(path, adminPrefix+"clinicians/") && r.Method == http.MethodPost:
		h.CreateClinicianUser(w, r)
	case path == adminPrefix+"devices" && r.Method == http.MethodGet:
		h.ListDevices(w, r)
	case path == adminPrefix+"devices" && r.Method == http.MethodPost:
		h.AssignDevice(w, r)
	case strings.HasSuffix(path, "/sync") && strings.HasPrefix(path, adminPrefix+"devices/") && r.Method == http.MethodPost:
		h.SyncDevice(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *AdminHandler) ListPatients(w http.ResponseWriter, r *http.Request) {
	out, err := h.registration.ListPatients(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(out))
}

func (h *AdminHandler) CreatePatient(w http.ResponseWriter, r *http.Request) {
	var in service.PatientInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}
	p, err := h.registration.RegisterPatient(r.Context(), in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(p))
}

func (h *AdminHandler) CreatePatientUser(w http.ResponseWriter, r *http.Request) {
	patientID, ok := pathID(r.URL.Path, adminPrefix+"patients/", "/user")
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	var in service.CredentialsInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}
	userID, err := h.registration.CreatePatientUser(r.Context(), patientID, in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]int64{"user_id": userID}))
}

func (h *AdminHandler) AssignClinician(w http.ResponseWriter, r *http.Request) {
	patientID, ok := pathID(r.URL.Path, adminPrefix+"patients/", "/clinicians")
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	var in struct {
		ClinicianID int64 `json:"medico_id"`
	}
	if err := decodeBody(r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if in.ClinicianID <= 0 {
		writeError(w, h.logger, &service.ValidationError{Field: "medico_id", Message: "is required"})
		return
	}
	if err := h.registration.AssignClinician(r.Context(), patientID, in.ClinicianID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}

func (h *AdminHandler) ListClinicians(w http.ResponseWriter, r *http.Request) {
	out, err := h.registration.ListClinicians(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(out))
}

func (h *AdminHandler) CreateClinician(w http.ResponseWriter, r *http.Request) {
	var in service.ClinicianInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}
	c, err := h.registration.RegisterClinician(r.Context(), in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(c))
}

func (h *AdminHandler) CreateClinicianUser(w http.ResponseWriter, r *http.Request) {
	clinicianID, ok := pathID(r.URL.Path, adminPrefix+"clinicians/", "/user")
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	var in service.CredentialsInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}
	userID, err := h.registration.CreateClinicianUser(r.Context(), clinicianID, in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]int64{"user_id": userID}))
}

func (h *AdminHandler) ListDevices(w http.ResponseWriter, r *http.Request) {
	out, err := h.devices.ListDevices(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(out))
}

func (h *AdminHandler) AssignDevice(w http.ResponseWriter, r *http.Request) {
	var in service.DeviceInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}
	d, err := h.devices.AssignDevice(r.Context(), in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(d))
}

func (h *AdminHandler) SyncDevice(w http.ResponseWriter, r *http.Request) {
	deviceID, ok := pathID(r.URL.Path, adminPrefix+"devices/", "/sync")
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	res, err := h.devices.SyncDevice(r.Context(), deviceID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(res))
}
