package repository

import (
	"context"

	"iheartcare/internal/domain"
)

// UsersRepository credential store.
type UsersRepository interface {
	// GetUserForLogin returns the user with its patient/clinician link; ErrNotFound if unknown.
	GetUserForLogin(ctx context.Context, username string) (*domain.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)

	// CreateUser creates an unlinked user (administrators).
	CreateUser(ctx context.Context, u domain.NewUser) (int64, error)
	// CreatePatientUser creates a user and links it to the patient in one transaction.
	// ErrNotFound if the patient does not exist, ErrDuplicate if it already has a user.
	CreatePatientUser(ctx context.Context, patientID int64, u domain.NewUser) (int64, error)
	// CreateClinicianUser same as CreatePatientUser for personal_medico.
	CreateClinicianUser(ctx context.Context, clinicianID int64, u domain.NewUser) (int64, error)
}
