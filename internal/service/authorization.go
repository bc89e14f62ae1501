package service

import (
	"context"

	"iheartcare/internal/domain"
	"iheartcare/internal/repository"

	"go.uber.org/zap"
)

// Require fails closed: no session is ErrUnauthenticated, a role outside allowed is ErrForbidden.
func Require(session *domain.Session, allowed ...domain.Role) error {
	if session == nil {
		return ErrUnauthenticated
	}
	for _, r := range allowed {
		if session.Role == r {
			return nil
		}
	}
	return ErrForbidden
}

// PatientAccess decides whether a session may see one patient's clinical data:
// administrators see everyone, clinicians their assigned patients, patients themselves.
type PatientAccess struct {
	patients repository.PatientsRepository
	logger   *zap.Logger
}

func NewPatientAccess(patients repository.PatientsRepository, logger *zap.Logger) *PatientAccess {
	return &PatientAccess{patients: patients, logger: logger}
}

func (a *PatientAccess) Check(ctx context.Context, session *domain.Session, patientID int64) error {
	if session == nil {
		return ErrUnauthenticated
	}
	switch session.Role {
	case domain.RoleAdministrator:
		return nil
	case domain.RolePatient:
		if session.PatientID != nil && *session.PatientID == patientID {
			return nil
		}
	case domain.RoleClinician:
		if session.ClinicianID != nil {
			ok, err := a.patients.IsClinicianAssigned(ctx, patientID, *session.ClinicianID)
			if err != nil {
				return storeError(a.logger, "check clinician assignment", err)
			}
			if ok {
				return nil
			}
		}
	}
	a.logger.Warn("Patient access denied",
		zap.Int64("user_id", session.UserID),
		zap.String("role", session.Role.String()),
		zap.Int64("patient_id", patientID),
		zap.String("reason", "not_owner_or_assigned"),
	)
	return ErrForbidden
}
