package repository

import (
	"context"

	"iheartcare/internal/domain"
)

// CliniciansRepository personal_medico.
type CliniciansRepository interface {
	CreateClinician(ctx context.Context, c *domain.Clinician) (int64, error)
	GetClinician(ctx context.Context, id int64) (*domain.Clinician, error)
	// ListClinicians ordered by id.
	ListClinicians(ctx context.Context) ([]domain.Clinician, error)
}
