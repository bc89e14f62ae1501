package httpapi

import (
	"iheartcare/internal/service"

	"go.uber.org/zap"
)

// NewAPI builds every handler over s and registers its routes.
func NewAPI(s *service.Services, logger *zap.Logger) *Router {
	guard := NewGuard(s.Auth, logger)

	r := NewRouter(logger)
	r.RegisterHealthRoutes()
	r.RegisterAuthRoutes(NewAuthHandler(s.Auth, s.Registration, guard, logger))
	r.RegisterAdminRoutes(NewAdminHandler(s.Registration, s.Devices, guard, logger))
	r.RegisterMonitoringRoutes(NewMonitoringHandler(s.Monitoring, s.Measurements, s.Exports, guard, logger))
	r.RegisterPatientRoutes(NewPatientHandler(s.Profiles, s.Measurements, s.Alerts, s.Exports, guard, logger))
	r.RegisterClinicianRoutes(NewClinicianHandler(s.Clinicians, s.Alerts, guard, logger))
	return r
}
