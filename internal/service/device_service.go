package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"iheartcare/internal/domain"
	"iheartcare/internal/repository"

	"go.uber.org/zap"
)

// DeviceInput admin device assignment form.
type DeviceInput struct {
	PatientID  int64   `json:"paciente_id"`
	Model      string  `json:"modelo"`
	MACAddress *string `json:"mac_address"`
	URL        *string `json:"direccion_url"`
}

// ReadingFetcher pulls pending readings from a device endpoint.
type ReadingFetcher interface {
	FetchReadings(ctx context.Context, url string) ([]domain.Reading, error)
}

// ReadingRecorder stores one reading of a device, raising its alert if any.
type ReadingRecorder interface {
	Record(ctx context.Context, deviceID int64, r domain.Reading) (*domain.Alert, error)
}

// SyncResult outcome of a device pull.
type SyncResult struct {
	DeviceID int64 `json:"device_id"`
	Fetched  int   `json:"fetched"`
	Recorded int   `json:"recorded"`
	Alerts   int   `json:"alerts"`
}

type DeviceService interface {
	AssignDevice(ctx context.Context, in DeviceInput) (*domain.Device, error)
	ListDevices(ctx context.Context) ([]domain.Device, error)
	// SyncDevice pulls readings from the device URL and records them.
	SyncDevice(ctx context.Context, deviceID int64) (*SyncResult, error)
}

type deviceService struct {
	devices  repository.DevicesRepository
	fetcher  ReadingFetcher
	recorder ReadingRecorder
	logger   *zap.Logger
	now      func() time.Time
}

func NewDeviceService(devices repository.DevicesRepository, fetcher ReadingFetcher, recorder ReadingRecorder, logger *zap.Logger) DeviceService {
	return &deviceService{
		devices:  devices,
		fetcher:  fetcher,
		recorder: recorder,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *deviceService) AssignDevice(ctx context.Context, in DeviceInput) (*domain.Device, error) {
	model := strings.TrimSpace(in.Model)
	mac := optional(in.MACAddress)
	url := optional(in.URL)

	var patientErr error
	if in.PatientID <= 0 {
		patientErr = invalid("paciente_id", "is required")
	}
	if err := firstError(
		patientErr,
		required("modelo", model),
		maxLen("modelo", model, 100),
	); err != nil {
		return nil, err
	}
	if mac != nil {
		if err := maxLen("mac_address", *mac, 17); err != nil {
			return nil, err
		}
		if !macPattern.MatchString(*mac) {
			return nil, invalid("mac_address", "must have the form XX:XX:XX:XX:XX:XX")
		}
		upper := strings.ToUpper(*mac)
		mac = &upper
	}
	if url != nil {
		if err := validURL("direccion_url", *url); err != nil {
			return nil, err
		}
	}

	d := &domain.Device{
		PatientID:  in.PatientID,
		Model:      model,
		MACAddress: mac,
		URL:        url,
		AssignedAt: s.now().UTC(),
	}
	id, err := s.devices.CreateDevice(ctx, d)
	if err != nil {
		return nil, storeError(s.logger, "create device", err)
	}
	d.ID = id

	s.logger.Info("Device assigned",
		zap.Int64("device_id", id),
		zap.Int64("patient_id", in.PatientID),
		zap.String("model", model),
	)
	return d, nil
}

func (s *deviceService) ListDevices(ctx context.Context) ([]domain.Device, error) {
	out, err := s.devices.ListDevices(ctx)
	if err != nil {
		return nil, storeError(s.logger, "list devices", err)
	}
	return out, nil
}

func (s *deviceService) SyncDevice(ctx context.Context, deviceID int64) (*SyncResult, error) {
	d, err := s.devices.GetDevice(ctx, deviceID)
	if err != nil {
		return nil, storeError(s.logger, "get device", err)
	}
	if d.URL == nil || *d.URL == "" {
		return nil, invalid("direccion_url", "device has no URL to sync from")
	}

	readings, err := s.fetcher.FetchReadings(ctx, *d.URL)
	if err != nil {
		s.logger.Warn("Device sync failed",
			zap.Int64("device_id", deviceID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %w", ErrDeviceUnavailable, err)
	}

	res := &SyncResult{DeviceID: deviceID, Fetched: len(readings)}
	for _, r := range readings {
		alert, err := s.recorder.Record(ctx, deviceID, r)
		if err != nil {
			if IsValidation(err) {
				s.logger.Warn("Skipping invalid reading",
					zap.Int64("device_id", deviceID),
					zap.Error(err),
				)
				continue
			}
			return res, err
		}
		res.Recorded++
		if alert != nil {
			res.Alerts++
		}
	}

	s.logger.Info("Device synced",
		zap.Int64("device_id", deviceID),
		zap.Int("fetched", res.Fetched),
		zap.Int("recorded", res.Recorded),
		zap.Int("alerts", res.Alerts),
	)
	return res, nil
}
