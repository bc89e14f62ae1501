package httpapi

import (
	"net/http"

	"iheartcare/internal/domain"
	"iheartcare/internal/service"

	"go.uber.org/zap"
)

// AuthHandler login, logout, session and public self-registration.
type AuthHandler struct {
	auth         service.AuthService
	registration service.RegistrationService
	guard        *Guard
	logger       *zap.Logger
}

func NewAuthHandler(auth service.AuthService, registration service.RegistrationService, guard *Guard, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		auth:         auth,
		registration: registration,
		guard:        guard,
		logger:       logger,
	}
}

func (h *AuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/auth/api/v1/login":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Login(w, r)
	case "/auth/api/v1/register":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Register(w, r)
	case "/auth/api/v1/logout":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Logout(w, r)
	case "/auth/api/v1/session":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.CurrentSession(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func sessionView(s *domain.Session, withToken bool) map[string]any {
	out := map[string]any{
		"user_id":      s.UserID,
		"username":     s.Username,
		"role":         s.Role,
		"patient_id":   s.PatientID,
		"clinician_id": s.ClinicianID,
		"created_at":   s.CreatedAt,
	}
	if withToken {
		out["token"] = s.Token
	}
	return out
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	session, err := h.auth.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(sessionView(session, true)))
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req service.SelfRegistrationInput
	if err := decodeBody(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	reg, err := h.registration.SelfRegisterPatient(r.Context(), req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(reg))
}

// Logout succeeds for unknown or already revoked tokens.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context(), h.guard.Token(r)); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}

func (h *AuthHandler) CurrentSession(w http.ResponseWriter, r *http.Request) {
	session, ok := h.guard.Session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, Ok(sessionView(session, false)))
}
