package repository

import (
	"context"

	"iheartcare/internal/domain"
)

// AlertsRepository alertas. No method ever sets leida back to false.
type AlertsRepository interface {
	// MarkAlertRead returns false when the alert was already read; ErrNotFound for an unknown id.
	MarkAlertRead(ctx context.Context, alertID int64) (bool, error)
	// MarkAllAlertsReadForPatient returns the number of alerts flipped.
	MarkAllAlertsReadForPatient(ctx context.Context, patientID int64) (int64, error)
	// ListAlertsForPatient newest first.
	ListAlertsForPatient(ctx context.Context, patientID int64, f domain.AlertFilter) ([]domain.AlertDetail, error)
	// ListUnreadAlertsForClinician unread alerts of assigned patients only, newest first.
	ListUnreadAlertsForClinician(ctx context.Context, clinicianID int64) ([]domain.AlertDetail, error)
	// GetAlertPatientID owner of the alert through measurement and device.
	GetAlertPatientID(ctx context.Context, alertID int64) (int64, error)
}
