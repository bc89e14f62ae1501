package service

import (
	"context"

	"iheartcare/internal/domain"
	"iheartcare/internal/repository"

	"go.uber.org/zap"
)

// ProfileService patient self-service profile.
type ProfileService interface {
	Profile(ctx context.Context, patientID int64) (*domain.PatientProfile, error)
}

type profileService struct {
	patients repository.PatientsRepository
	devices  repository.DevicesRepository
	logger   *zap.Logger
}

func NewProfileService(patients repository.PatientsRepository, devices repository.DevicesRepository, logger *zap.Logger) ProfileService {
	return &profileService{patients: patients, devices: devices, logger: logger}
}

func (s *profileService) Profile(ctx context.Context, patientID int64) (*domain.PatientProfile, error) {
	p, err := s.patients.GetPatient(ctx, patientID)
	if err != nil {
		return nil, storeError(s.logger, "get patient", err)
	}
	devices, err := s.devices.ListDevicesForPatient(ctx, patientID)
	if err != nil {
		return nil, storeError(s.logger, "list patient devices", err)
	}
	clinicians, err := s.patients.ListPatientClinicianNames(ctx, patientID)
	if err != nil {
		return nil, storeError(s.logger, "list patient clinicians", err)
	}
	if devices == nil {
		devices = []domain.Device{}
	}
	if clinicians == nil {
		clinicians = []string{}
	}
	return &domain.PatientProfile{Patient: *p, Devices: devices, Clinicians: clinicians}, nil
}
