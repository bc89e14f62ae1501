package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"iheartcare/internal/domain"
)

const clinicianColumns = `id, nombre, apellido_paterno, apellido_materno, especialidad, cedula_profesional,
	cedula_especialidad, universidad, email, usuario_id`

// PostgresCliniciansRepository personal_medico.
type PostgresCliniciansRepository struct {
	db *sql.DB
}

func NewPostgresCliniciansRepository(db *sql.DB) *PostgresCliniciansRepository {
	return &PostgresCliniciansRepository{db: db}
}

var _ CliniciansRepository = (*PostgresCliniciansRepository)(nil)

func (r *PostgresCliniciansRepository) CreateClinician(ctx context.Context, c *domain.Clinician) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO personal_medico (
			nombre, apellido_paterno, apellido_materno, especialidad, cedula_profesional,
			cedula_especialidad, universidad, email
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`,
		c.FirstName, c.PaternalSurname, nullString(c.MaternalSurname), c.Specialty, c.ProfessionalLicense,
		nullString(c.SpecialtyLicense), nullString(c.University), c.Email,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert clinician: %w", err)
	}
	return id, nil
}

func scanClinician(s rowScanner) (*domain.Clinician, error) {
	var (
		c                          domain.Clinician
		materno, cedulaEsp, univer sql.NullString
		userID                     sql.NullInt64
	)
	if err := s.Scan(
		&c.ID, &c.FirstName, &c.PaternalSurname, &materno, &c.Specialty, &c.ProfessionalLicense,
		&cedulaEsp, &univer, &c.Email, &userID,
	); err != nil {
		return nil, err
	}
	c.MaternalSurname = stringPtr(materno)
	c.SpecialtyLicense = stringPtr(cedulaEsp)
	c.University = stringPtr(univer)
	c.UserID = int64Ptr(userID)
	return &c, nil
}

func (r *PostgresCliniciansRepository) GetClinician(ctx context.Context, id int64) (*domain.Clinician, error) {
	c, err := scanClinician(r.db.QueryRowContext(ctx, `SELECT `+clinicianColumns+` FROM personal_medico WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get clinician: %w", err)
	}
	return c, nil
}

func (r *PostgresCliniciansRepository) ListClinicians(ctx context.Context) ([]domain.Clinician, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+clinicianColumns+` FROM personal_medico ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list clinicians: %w", err)
	}
	defer rows.Close()

	out := []domain.Clinician{}
	for rows.Next() {
		c, err := scanClinician(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan clinician: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}
