package service

import (
	"context"
	"strings"
	"time"

	"iheartcare/internal/domain"
	"iheartcare/internal/repository"

	"go.uber.org/zap"
)

const maxReasonLength = 1000

// MonitoringService monitoring session lifecycle: NoActive -> Active -> NoActive, per patient.
type MonitoringService interface {
	// Start ErrMonitoringActive if the patient already has an active session, ErrNotFound for an unknown patient.
	Start(ctx context.Context, patientID int64, reason string) (*domain.MonitoringSession, error)
	// Stop is a no-op for an inactive session; ErrNotFound for an unknown id.
	Stop(ctx context.Context, sessionID int64) error
	ListActive(ctx context.Context) ([]domain.ActiveMonitoring, error)
	History(ctx context.Context) ([]domain.MonitoringRecord, error)
	// ListCandidates patients that can start a session now.
	ListCandidates(ctx context.Context) ([]domain.PatientRef, error)
	// Dashboard measurements (ascending, grouped by kind) and unread alerts of the session's patient.
	Dashboard(ctx context.Context, viewer *domain.Session, sessionID int64) (*domain.Dashboard, error)
}

type monitoringService struct {
	monitoring   repository.MonitoringRepository
	patients     repository.PatientsRepository
	measurements repository.MeasurementsRepository
	alerts       repository.AlertsRepository
	access       *PatientAccess
	events       EventPublisher
	logger       *zap.Logger
	now          func() time.Time
}

func NewMonitoringService(repos repository.Repositories, access *PatientAccess, events EventPublisher, logger *zap.Logger) MonitoringService {
	return &monitoringService{
		monitoring:   repos.Monitoring,
		patients:     repos.Patients,
		measurements: repos.Measurements,
		alerts:       repos.Alerts,
		access:       access,
		events:       events,
		logger:       logger,
		now:          time.Now,
	}
}

type monitoringEvent struct {
	SessionID int64     `json:"session_id"`
	PatientID int64     `json:"patient_id"`
	At        time.Time `json:"at"`
	Reason    string    `json:"reason,omitempty"`
}

func (s *monitoringService) Start(ctx context.Context, patientID int64, reason string) (*domain.MonitoringSession, error) {
	if patientID <= 0 {
		return nil, invalid("paciente_id", "is required")
	}
	reason = strings.TrimSpace(reason)
	if err := maxLen("motivo", reason, maxReasonLength); err != nil {
		return nil, err
	}

	session, err := s.monitoring.StartMonitoring(ctx, patientID, reason, s.now().UTC())
	if err != nil {
		err = storeError(s.logger, "start monitoring", err)
		if err == ErrMonitoringActive {
			s.logger.Warn("Monitoring start rejected",
				zap.Int64("patient_id", patientID),
				zap.String("reason", "already_active"),
			)
		}
		return nil, err
	}

	s.logger.Info("Monitoring started",
		zap.Int64("session_id", session.ID),
		zap.Int64("patient_id", patientID),
	)
	s.events.Publish(ctx, EventMonitoringStarted, monitoringEvent{
		SessionID: session.ID, PatientID: patientID, At: session.StartedAt, Reason: reason,
	})
	return session, nil
}

func (s *monitoringService) Stop(ctx context.Context, sessionID int64) error {
	now := s.now().UTC()
	stopped, err := s.monitoring.StopMonitoring(ctx, sessionID, now)
	if err != nil {
		return storeError(s.logger, "stop monitoring", err)
	}
	if !stopped {
		s.logger.Debug("Monitoring already stopped", zap.Int64("session_id", sessionID))
		return nil
	}

	s.logger.Info("Monitoring stopped", zap.Int64("session_id", sessionID))
	var patientID int64
	if session, err := s.monitoring.GetMonitoring(ctx, sessionID); err == nil {
		patientID = session.PatientID
	}
	s.events.Publish(ctx, EventMonitoringStopped, monitoringEvent{SessionID: sessionID, PatientID: patientID, At: now})
	return nil
}

func (s *monitoringService) ListActive(ctx context.Context) ([]domain.ActiveMonitoring, error) {
	out, err := s.monitoring.ListActiveMonitoring(ctx)
	if err != nil {
		return nil, storeError(s.logger, "list active monitoring", err)
	}
	return out, nil
}

func (s *monitoringService) History(ctx context.Context) ([]domain.MonitoringRecord, error) {
	out, err := s.monitoring.ListMonitoringHistory(ctx)
	if err != nil {
		return nil, storeError(s.logger, "list monitoring history", err)
	}
	return out, nil
}

func (s *monitoringService) ListCandidates(ctx context.Context) ([]domain.PatientRef, error) {
	out, err := s.monitoring.ListPatientsWithoutMonitoring(ctx)
	if err != nil {
		return nil, storeError(s.logger, "list monitoring candidates", err)
	}
	return out, nil
}

func (s *monitoringService) Dashboard(ctx context.Context, viewer *domain.Session, sessionID int64) (*domain.Dashboard, error) {
	session, err := s.monitoring.GetMonitoring(ctx, sessionID)
	if err != nil {
		return nil, storeError(s.logger, "get monitoring", err)
	}
	if err := s.access.Check(ctx, viewer, session.PatientID); err != nil {
		return nil, err
	}
	patient, err := s.patients.GetPatient(ctx, session.PatientID)
	if err != nil {
		return nil, storeError(s.logger, "get patient", err)
	}

	measurements, err := s.measurements.ListMeasurements(ctx, domain.MeasurementQuery{
		PatientID: session.PatientID,
		Ascending: true,
	})
	if err != nil {
		return nil, storeError(s.logger, "list measurements", err)
	}
	byKind := map[string][]domain.Measurement{}
	for _, m := range measurements {
		byKind[m.Kind] = append(byKind[m.Kind], m)
	}

	unread, err := s.alerts.ListAlertsForPatient(ctx, session.PatientID, domain.AlertFilter{Status: domain.AlertStatusUnread})
	if err != nil {
		return nil, storeError(s.logger, "list unread alerts", err)
	}

	return &domain.Dashboard{
		Session:      *session,
		Patient:      domain.PatientRef{ID: patient.ID, Name: patient.FullName(), CURP: patient.CURP},
		Measurements: byKind,
		UnreadAlerts: unread,
	}, nil
}
