package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"iheartcare/internal/domain"
	"iheartcare/internal/repository"
	"iheartcare/internal/service"

	"go.uber.org/zap"
)

const (
	maxKindLength = 50
	maxUnitLength = 20
	// readings stamped further ahead than this are rejected
	maxClockSkew = 5 * time.Minute
)

type alertCreatedEvent struct {
	AlertID       int64     `json:"alert_id"`
	MeasurementID int64     `json:"measurement_id"`
	DeviceID      int64     `json:"device_id"`
	PatientID     int64     `json:"patient_id"`
	Type          string    `json:"tipo_alerta"`
	Kind          string    `json:"tipo_medicion"`
	Value         float64   `json:"valor"`
	Unit          string    `json:"unidad_medida"`
	Timestamp     time.Time `json:"timestamp"`
}

// Recorder stores device readings and the alerts they raise.
type Recorder struct {
	devices      repository.DevicesRepository
	measurements repository.MeasurementsRepository
	evaluator    *Evaluator
	events       service.EventPublisher
	logger       *zap.Logger
	now          func() time.Time
}

var _ service.ReadingRecorder = (*Recorder)(nil)

func NewRecorder(
	devices repository.DevicesRepository,
	measurements repository.MeasurementsRepository,
	evaluator *Evaluator,
	events service.EventPublisher,
	logger *zap.Logger,
) *Recorder {
	return &Recorder{
		devices:      devices,
		measurements: measurements,
		evaluator:    evaluator,
		events:       events,
		logger:       logger,
		now:          time.Now,
	}
}

// Record validates r, then writes the measurement and its alert (if any) together.
func (r *Recorder) Record(ctx context.Context, deviceID int64, reading domain.Reading) (*domain.Alert, error) {
	m, err := r.normalize(deviceID, reading)
	if err != nil {
		return nil, err
	}

	device, err := r.devices.GetDevice(ctx, deviceID)
	if err != nil {
		return nil, r.storeError("get device", err)
	}

	alert := r.evaluator.Evaluate(*m)
	measurementID, alertID, err := r.measurements.InsertMeasurement(ctx, m, alert)
	if err != nil {
		return nil, r.storeError("insert measurement", err)
	}
	m.ID = measurementID

	if alert == nil {
		r.logger.Debug("Measurement recorded",
			zap.Int64("device_id", deviceID),
			zap.Int64("measurement_id", measurementID),
			zap.String("kind", m.Kind),
		)
		return nil, nil
	}

	alert.ID = alertID
	alert.MeasurementID = measurementID
	r.logger.Info("Alert raised",
		zap.Int64("alert_id", alertID),
		zap.Int64("patient_id", device.PatientID),
		zap.String("type", alert.Type),
		zap.String("kind", m.Kind),
		zap.Float64("value", m.Value),
	)
	r.events.Publish(ctx, service.EventAlertCreated, alertCreatedEvent{
		AlertID:       alertID,
		MeasurementID: measurementID,
		DeviceID:      deviceID,
		PatientID:     device.PatientID,
		Type:          alert.Type,
		Kind:          m.Kind,
		Value:         m.Value,
		Unit:          m.Unit,
		Timestamp:     m.Timestamp,
	})
	return alert, nil
}

func (r *Recorder) normalize(deviceID int64, reading domain.Reading) (*domain.Measurement, error) {
	kind := strings.TrimSpace(reading.Kind)
	unit := strings.TrimSpace(reading.Unit)
	now := r.now().UTC()

	switch {
	case deviceID <= 0:
		return nil, &service.ValidationError{Field: "dispositivo_id", Message: "is required"}
	case kind == "":
		return nil, &service.ValidationError{Field: "tipo_medicion", Message: "is required"}
	case len(kind) > maxKindLength:
		return nil, &service.ValidationError{Field: "tipo_medicion", Message: "is too long"}
	case len(unit) > maxUnitLength:
		return nil, &service.ValidationError{Field: "unidad_medida", Message: "is too long"}
	case reading.Timestamp.After(now.Add(maxClockSkew)):
		return nil, &service.ValidationError{Field: "timestamp", Message: "is in the future"}
	}
	if unit == "" {
		if cr, ok := domain.RangeFor(kind); ok {
			unit = cr.Unit
		}
	}
	ts := reading.Timestamp
	if ts.IsZero() {
		ts = now
	}
	return &domain.Measurement{
		DeviceID:  deviceID,
		Timestamp: ts.UTC(),
		Kind:      kind,
		Value:     reading.Value,
		Unit:      unit,
	}, nil
}

func (r *Recorder) storeError(op string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return service.ErrNotFound
	}
	r.logger.Error("Store operation failed", zap.String("operation", op), zap.Error(err))
	return fmt.Errorf("%w: %s: %w", service.ErrStoreUnavailable, op, err)
}
