package repository

import (
	"context"
	"time"

	"iheartcare/internal/domain"
)

// MonitoringRepository monitoreos.
type MonitoringRepository interface {
	// StartMonitoring atomically checks for an active session and inserts a new one.
	// ErrNotFound for an unknown patient, ErrActiveMonitoringExists when one is active.
	StartMonitoring(ctx context.Context, patientID int64, reason string, now time.Time) (*domain.MonitoringSession, error)
	// StopMonitoring returns false without touching the row when it is already inactive.
	// ErrNotFound for an unknown id.
	StopMonitoring(ctx context.Context, sessionID int64, now time.Time) (bool, error)
	GetMonitoring(ctx context.Context, sessionID int64) (*domain.MonitoringSession, error)
	// ListActiveMonitoring ordered by patient name.
	ListActiveMonitoring(ctx context.Context) ([]domain.ActiveMonitoring, error)
	// ListMonitoringHistory ordered by start, newest first.
	ListMonitoringHistory(ctx context.Context) ([]domain.MonitoringRecord, error)
	// ListPatientsWithoutMonitoring patients with no active session, ordered by surnames then name.
	ListPatientsWithoutMonitoring(ctx context.Context) ([]domain.PatientRef, error)
}
