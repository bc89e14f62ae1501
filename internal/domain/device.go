package domain

import "time"

// Device dispositivos row; PatientName is filled by listing joins.
type Device struct {
	ID          int64     `json:"id" db:"id"`
	PatientID   int64     `json:"paciente_id" db:"paciente_id"`
	PatientName string    `json:"paciente,omitempty"`
	Model       string    `json:"modelo" db:"modelo"`
	MACAddress  *string   `json:"mac_address,omitempty" db:"mac_address"`
	URL         *string   `json:"direccion_url,omitempty" db:"direccion_url"`
	AssignedAt  time.Time `json:"fecha_asignacion" db:"fecha_asignacion"`
}
