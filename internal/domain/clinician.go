package domain

import "strings"

// Clinician personal_medico row.
type Clinician struct {
	ID                  int64   `json:"id" db:"id"`
	FirstName           string  `json:"nombre" db:"nombre"`
	PaternalSurname     string  `json:"apellido_paterno" db:"apellido_paterno"`
	MaternalSurname     *string `json:"apellido_materno,omitempty" db:"apellido_materno"`
	Specialty           string  `json:"especialidad" db:"especialidad"`
	ProfessionalLicense string  `json:"cedula_profesional" db:"cedula_profesional"`
	SpecialtyLicense    *string `json:"cedula_especialidad,omitempty" db:"cedula_especialidad"`
	University          *string `json:"universidad,omitempty" db:"universidad"`
	Email               string  `json:"email" db:"email"`
	UserID              *int64  `json:"usuario_id,omitempty" db:"usuario_id"`
}

func (c *Clinician) FullName() string {
	parts := []string{c.FirstName, c.PaternalSurname}
	if c.MaternalSurname != nil && *c.MaternalSurname != "" {
		parts = append(parts, *c.MaternalSurname)
	}
	return strings.Join(parts, " ")
}
