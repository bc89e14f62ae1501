package service

import (
	"context"
	"testing"
	"time"

	"iheartcare/internal/domain"
	"iheartcare/internal/repository"
	"iheartcare/internal/store"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type fixture struct {
	repos  repository.Repositories
	hasher *PasswordHasher
	access *PatientAccess
	logger *zap.Logger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zap.NewNop()
	repos := repository.NewMemoryRepositories()
	return &fixture{
		repos:  repos,
		hasher: NewPasswordHasher(bcrypt.MinCost),
		access: NewPatientAccess(repos.Patients, logger),
		logger: logger,
	}
}

func (f *fixture) authService() AuthService {
	return NewAuthService(f.repos.Users, store.NewKVSessionStore(store.NewMemoryKV(), time.Hour), f.hasher, f.logger)
}

func (f *fixture) registrationService() RegistrationService {
	return NewRegistrationService(f.repos.Users, f.repos.Patients, f.repos.Clinicians, f.hasher, f.logger)
}

func (f *fixture) patient(t *testing.T, first, paternal, curp string) int64 {
	t.Helper()
	id, err := f.repos.Patients.CreatePatient(context.Background(), &domain.Patient{
		FirstName:       first,
		PaternalSurname: paternal,
		BirthDate:       time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC),
		CURP:            curp,
		Sex:             domain.SexFemale,
		Email:           first + "@example.com",
	})
	require.NoError(t, err)
	return id
}

func (f *fixture) clinician(t *testing.T, first string) int64 {
	t.Helper()
	id, err := f.repos.Clinicians.CreateClinician(context.Background(), &domain.Clinician{
		FirstName:           first,
		PaternalSurname:     "Medina",
		Specialty:           "Cardiología",
		ProfessionalLicense: "CP-" + first,
		Email:               first + "@hospital.mx",
	})
	require.NoError(t, err)
	return id
}

func (f *fixture) device(t *testing.T, patientID int64) int64 {
	t.Helper()
	id, err := f.repos.Devices.CreateDevice(context.Background(), &domain.Device{
		PatientID:  patientID,
		Model:      "Pulse X1",
		AssignedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	return id
}

// measurement stores a measurement and, when level is not normal, its alert.
func (f *fixture) measurement(t *testing.T, deviceID int64, kind string, value float64, ts time.Time) (int64, int64) {
	t.Helper()
	r, _ := domain.RangeFor(kind)
	m := &domain.Measurement{DeviceID: deviceID, Timestamp: ts, Kind: kind, Value: value, Unit: r.Unit}
	var alert *domain.Alert
	switch domain.Classify(kind, value) {
	case domain.LevelWarning:
		alert = &domain.Alert{Timestamp: ts, Type: domain.AlertWarning, Message: kind}
	case domain.LevelCritical:
		alert = &domain.Alert{Timestamp: ts, Type: domain.AlertCritical, Message: kind}
	}
	mID, aID, err := f.repos.Measurements.InsertMeasurement(context.Background(), m, alert)
	require.NoError(t, err)
	return mID, aID
}

func adminSession() *domain.Session {
	return &domain.Session{UserID: 1, Username: "admin", Role: domain.RoleAdministrator}
}

func patientSession(patientID int64) *domain.Session {
	return &domain.Session{UserID: 100 + patientID, Role: domain.RolePatient, PatientID: &patientID}
}

func clinicianSession(clinicianID int64) *domain.Session {
	return &domain.Session{UserID: 200 + clinicianID, Role: domain.RoleClinician, ClinicianID: &clinicianID}
}

type recordedEvent struct {
	eventType string
	payload   any
}

type recordingPublisher struct {
	events []recordedEvent
}

func (p *recordingPublisher) Publish(_ context.Context, eventType string, payload any) {
	p.events = append(p.events, recordedEvent{eventType: eventType, payload: payload})
}

func strPtr(s string) *string { return &s }
