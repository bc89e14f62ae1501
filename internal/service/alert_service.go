package service

import (
	"context"

	"iheartcare/internal/domain"
	"iheartcare/internal/repository"

	"go.uber.org/zap"
)

const defaultAlertListLimit = 100

// AlertService alert acknowledgement. The read flag only ever goes from false to true.
type AlertService interface {
	// MarkRead is idempotent; ErrNotFound for an unknown id.
	MarkRead(ctx context.Context, alertID int64) error
	// MarkReadAs marks an alert read on behalf of viewer, who must own or be assigned to its patient.
	MarkReadAs(ctx context.Context, viewer *domain.Session, alertID int64) error
	// MarkAllReadForPatient returns how many alerts changed; 0 is valid.
	MarkAllReadForPatient(ctx context.Context, patientID int64) (int64, error)
	ListUnread(ctx context.Context, patientID int64) ([]domain.AlertDetail, error)
	ListForClinicianPatients(ctx context.Context, clinicianID int64) ([]domain.AlertDetail, error)
	ListForPatient(ctx context.Context, patientID int64, f domain.AlertFilter) ([]domain.AlertDetail, error)
}

type alertService struct {
	alerts repository.AlertsRepository
	access *PatientAccess
	logger *zap.Logger
}

func NewAlertService(alerts repository.AlertsRepository, access *PatientAccess, logger *zap.Logger) AlertService {
	return &alertService{alerts: alerts, access: access, logger: logger}
}

func (s *alertService) MarkRead(ctx context.Context, alertID int64) error {
	changed, err := s.alerts.MarkAlertRead(ctx, alertID)
	if err != nil {
		return storeError(s.logger, "mark alert read", err)
	}
	if changed {
		s.logger.Info("Alert marked read", zap.Int64("alert_id", alertID))
	}
	return nil
}

func (s *alertService) MarkReadAs(ctx context.Context, viewer *domain.Session, alertID int64) error {
	patientID, err := s.alerts.GetAlertPatientID(ctx, alertID)
	if err != nil {
		return storeError(s.logger, "get alert owner", err)
	}
	if err := s.access.Check(ctx, viewer, patientID); err != nil {
		return err
	}
	return s.MarkRead(ctx, alertID)
}

func (s *alertService) MarkAllReadForPatient(ctx context.Context, patientID int64) (int64, error) {
	n, err := s.alerts.MarkAllAlertsReadForPatient(ctx, patientID)
	if err != nil {
		return 0, storeError(s.logger, "mark patient alerts read", err)
	}
	if n > 0 {
		s.logger.Info("Patient alerts marked read", zap.Int64("patient_id", patientID), zap.Int64("count", n))
	}
	return n, nil
}

func (s *alertService) ListUnread(ctx context.Context, patientID int64) ([]domain.AlertDetail, error) {
	out, err := s.alerts.ListAlertsForPatient(ctx, patientID, domain.AlertFilter{Status: domain.AlertStatusUnread})
	if err != nil {
		return nil, storeError(s.logger, "list unread alerts", err)
	}
	return out, nil
}

func (s *alertService) ListForClinicianPatients(ctx context.Context, clinicianID int64) ([]domain.AlertDetail, error) {
	out, err := s.alerts.ListUnreadAlertsForClinician(ctx, clinicianID)
	if err != nil {
		return nil, storeError(s.logger, "list clinician alerts", err)
	}
	return out, nil
}

func (s *alertService) ListForPatient(ctx context.Context, patientID int64, f domain.AlertFilter) ([]domain.AlertDetail, error) {
	switch f.Status {
	case "":
		f.Status = domain.AlertStatusAll
	case domain.AlertStatusAll, domain.AlertStatusUnread, domain.AlertStatusRead:
	default:
		return nil, invalid("status", "must be all, unread or read")
	}
	if f.Limit <= 0 || f.Limit > defaultAlertListLimit {
		f.Limit = defaultAlertListLimit
	}
	out, err := s.alerts.ListAlertsForPatient(ctx, patientID, f)
	if err != nil {
		return nil, storeError(s.logger, "list patient alerts", err)
	}
	return out, nil
}
