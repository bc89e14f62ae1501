package service

import (
	"iheartcare/internal/repository"
	"iheartcare/internal/store"

	"go.uber.org/zap"
)

// Dependencies everything the services are built from.
type Dependencies struct {
	Repos    repository.Repositories
	Sessions store.SessionStore
	Hasher   *PasswordHasher
	Events   EventPublisher
	Fetcher  ReadingFetcher
	Recorder ReadingRecorder
	Logger   *zap.Logger
}

type Services struct {
	Auth         AuthService
	Registration RegistrationService
	Monitoring   MonitoringService
	Alerts       AlertService
	Measurements MeasurementService
	Devices      DeviceService
	Clinicians   ClinicianService
	Profiles     ProfileService
	Exports      ExportService
}

func NewServices(d Dependencies) *Services {
	access := NewPatientAccess(d.Repos.Patients, d.Logger)
	return &Services{
		Auth:         NewAuthService(d.Repos.Users, d.Sessions, d.Hasher, d.Logger),
		Registration: NewRegistrationService(d.Repos.Users, d.Repos.Patients, d.Repos.Clinicians, d.Hasher, d.Logger),
		Monitoring:   NewMonitoringService(d.Repos, access, d.Events, d.Logger),
		Alerts:       NewAlertService(d.Repos.Alerts, access, d.Logger),
		Measurements: NewMeasurementService(d.Repos.Measurements, d.Repos.Patients, access, d.Logger),
		Devices:      NewDeviceService(d.Repos.Devices, d.Fetcher, d.Recorder, d.Logger),
		Clinicians:   NewClinicianService(d.Repos.Patients, d.Logger),
		Profiles:     NewProfileService(d.Repos.Patients, d.Repos.Devices, d.Logger),
		Exports:      NewExportService(d.Repos, access, d.Logger),
	}
}
