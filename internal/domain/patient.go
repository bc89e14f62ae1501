package domain

import (
	"strings"
	"time"
)

const (
	SexMale   = "Masculino"
	SexFemale = "Femenino"
)

// Patient pacientes row.
type Patient struct {
	ID              int64     `json:"id" db:"id"`
	FirstName       string    `json:"nombre" db:"nombre"`
	PaternalSurname string    `json:"apellido_paterno" db:"apellido_paterno"`
	MaternalSurname *string   `json:"apellido_materno,omitempty" db:"apellido_materno"`
	BirthDate       time.Time `json:"fecha_nacimiento" db:"fecha_nacimiento"`
	CURP            string    `json:"curp" db:"curp"`
	NSS             *string   `json:"nss,omitempty" db:"nss"`
	Sex             string    `json:"sexo" db:"sexo"`
	MaritalStatus   *string   `json:"estado_civil,omitempty" db:"estado_civil"`
	Address         *string   `json:"domicilio,omitempty" db:"domicilio"`
	Email           string    `json:"email" db:"email"`
	Phone           *string   `json:"telefono,omitempty" db:"telefono"`
	UserID          *int64    `json:"usuario_id,omitempty" db:"usuario_id"`
}

// FullName nombre + apellidos.
func (p *Patient) FullName() string {
	parts := []string{p.FirstName, p.PaternalSurname}
	if p.MaternalSurname != nil && *p.MaternalSurname != "" {
		parts = append(parts, *p.MaternalSurname)
	}
	return strings.Join(parts, " ")
}

// PatientRef id/name pair used by selectors and listings.
type PatientRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	CURP string `json:"curp,omitempty"`
}

// PatientProfile patient self-service view.
type PatientProfile struct {
	Patient    Patient  `json:"patient"`
	Devices    []Device `json:"devices"`
	Clinicians []string `json:"clinicians"`
}

// AssignedPatient row of a clinician's patient list.
type AssignedPatient struct {
	PatientID        int64   `json:"patient_id"`
	Name             string  `json:"name"`
	CURP             string  `json:"curp"`
	Email            string  `json:"email"`
	Phone            *string `json:"telefono,omitempty"`
	DeviceModel      *string `json:"device_model,omitempty"`
	ActiveMonitoring bool    `json:"active_monitoring"`
}
