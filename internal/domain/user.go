package domain

// User credential record (users table) with the role link resolved from
// pacientes.usuario_id / personal_medico.usuario_id.
type User struct {
	ID           int64  `db:"id"`
	Username     string `db:"username"`
	PasswordHash string `db:"password_hash"`
	Role         Role   `db:"role"`
	Active       bool   `db:"activo"`
	PatientID    *int64
	ClinicianID  *int64
}

// NewUser fields needed to create a user linked to a patient or clinician.
type NewUser struct {
	Username     string
	PasswordHash string
	Role         Role
}
