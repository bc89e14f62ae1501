package repository

import (
	"context"

	"iheartcare/internal/domain"
)

// MeasurementsRepository mediciones (append-only).
type MeasurementsRepository interface {
	// InsertMeasurement stores m and, when alert is not nil, its alert in one transaction.
	// alertID is 0 when no alert was written.
	InsertMeasurement(ctx context.Context, m *domain.Measurement, alert *domain.Alert) (measurementID, alertID int64, err error)
	ListMeasurements(ctx context.Context, q domain.MeasurementQuery) ([]domain.Measurement, error)
	ListMeasurementKinds(ctx context.Context, patientID int64) ([]string, error)
}
