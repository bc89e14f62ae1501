package repository

import (
	"context"

	"iheartcare/internal/domain"
)

// DevicesRepository dispositivos.
type DevicesRepository interface {
	// CreateDevice ErrNotFound when the patient does not exist.
	CreateDevice(ctx context.Context, d *domain.Device) (int64, error)
	GetDevice(ctx context.Context, id int64) (*domain.Device, error)
	// ListDevices joined with patient name, newest assignment first.
	ListDevices(ctx context.Context) ([]domain.Device, error)
	ListDevicesForPatient(ctx context.Context, patientID int64) ([]domain.Device, error)
}
