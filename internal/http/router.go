package httpapi

import (
	"net/http"

	"go.uber.org/zap"
)

// Router standard library http.ServeMux with panic recovery.
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) HandleHandler(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("Handler panicked",
				zap.String("method", req.Method),
				zap.String("path", req.URL.Path),
				zap.Any("panic", rec),
			)
			writeJSON(w, http.StatusInternalServerError, Fail("internal error"))
		}
	}()
	r.mux.ServeHTTP(w, req)
}

func (r *Router) RegisterHealthRoutes() {
	r.Handle("/health", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, Ok(map[string]string{"status": "ok"}))
	})
}

func (r *Router) RegisterAuthRoutes(h *AuthHandler) {
	r.HandleHandler("/auth/api/v1/login", h)
	r.HandleHandler("/auth/api/v1/register", h)
	r.HandleHandler("/auth/api/v1/logout", h)
	r.HandleHandler("/auth/api/v1/session", h)
}

func (r *Router) RegisterAdminRoutes(h *AdminHandler) {
	r.HandleHandler("/admin/api/v1/patients", h)
	r.HandleHandler("/admin/api/v1/patients/", h)
	r.HandleHandler("/admin/api/v1/clinicians", h)
	r.HandleHandler("/admin/api/v1/clinicians/", h)
	r.HandleHandler("/admin/api/v1/devices", h)
	r.HandleHandler("/admin/api/v1/devices/", h)
}

func (r *Router) RegisterMonitoringRoutes(h *MonitoringHandler) {
	r.HandleHandler("/monitoring/api/v1/", h)
}

func (r *Router) RegisterPatientRoutes(h *PatientHandler) {
	r.HandleHandler("/me/api/v1/", h)
}

func (r *Router) RegisterClinicianRoutes(h *ClinicianHandler) {
	r.HandleHandler("/clinician/api/v1/", h)
}
