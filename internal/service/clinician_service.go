package service

import (
	"context"
	"strings"

	"iheartcare/internal/domain"
	"iheartcare/internal/repository"

	"go.uber.org/zap"
)

// ClinicianService clinician self-service views.
type ClinicianService interface {
	// MyPatients assigned patients, optionally filtered by name or CURP.
	MyPatients(ctx context.Context, clinicianID int64, query string) ([]domain.AssignedPatient, error)
}

type clinicianService struct {
	patients repository.PatientsRepository
	logger   *zap.Logger
}

func NewClinicianService(patients repository.PatientsRepository, logger *zap.Logger) ClinicianService {
	return &clinicianService{patients: patients, logger: logger}
}

func (s *clinicianService) MyPatients(ctx context.Context, clinicianID int64, query string) ([]domain.AssignedPatient, error) {
	query = strings.TrimSpace(query)
	if err := maxLen("q", query, 200); err != nil {
		return nil, err
	}
	out, err := s.patients.ListAssignedPatients(ctx, clinicianID, query)
	if err != nil {
		return nil, storeError(s.logger, "list assigned patients", err)
	}
	return out, nil
}
