package repository

import (
	"context"

	"iheartcare/internal/domain"
)

// PatientsRepository pacientes and the pacientes_medicos assignment table.
type PatientsRepository interface {
	CreatePatient(ctx context.Context, p *domain.Patient) (int64, error)
	// RegisterPatientWithUser writes patient, user and link in one transaction.
	RegisterPatientWithUser(ctx context.Context, p *domain.Patient, u domain.NewUser) (patientID, userID int64, err error)
	GetPatient(ctx context.Context, id int64) (*domain.Patient, error)
	// ListPatients ordered by id.
	ListPatients(ctx context.Context) ([]domain.Patient, error)

	// AssignClinician is idempotent; ErrNotFound when either side does not exist.
	AssignClinician(ctx context.Context, patientID, clinicianID int64) error
	IsClinicianAssigned(ctx context.Context, patientID, clinicianID int64) (bool, error)
	// ListAssignedPatients clinician's patients, optional case-insensitive name/CURP search,
	// ordered by surnames then name.
	ListAssignedPatients(ctx context.Context, clinicianID int64, search string) ([]domain.AssignedPatient, error)
	ListPatientClinicianNames(ctx context.Context, patientID int64) ([]string, error)
}
