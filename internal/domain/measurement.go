package domain

import "time"

// Measurement kinds as stored in mediciones.tipo_medicion.
const (
	KindHeartRate = "Ritmo Cardíaco"
	KindOxygen    = "Saturación Oxígeno"
	KindSystolic  = "Presión Sistólica"
	KindDiastolic = "Presión Diastólica"
	KindActivity  = "Actividad"
)

// Measurement mediciones row. Append-only.
type Measurement struct {
	ID        int64     `json:"id" db:"id"`
	DeviceID  int64     `json:"dispositivo_id" db:"dispositivo_id"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
	Kind      string    `json:"tipo_medicion" db:"tipo_medicion"`
	Value     float64   `json:"valor" db:"valor"`
	Unit      string    `json:"unidad_medida" db:"unidad_medida"`
}

// Reading measurement as reported by a device, before it is stored.
type Reading struct {
	Timestamp time.Time `json:"timestamp"`
	Kind      string    `json:"tipo_medicion"`
	Value     float64   `json:"valor"`
	Unit      string    `json:"unidad_medida"`
}

// MeasurementQuery filters for a patient's measurement list.
type MeasurementQuery struct {
	PatientID int64
	Kind      string
	Since     *time.Time
	Ascending bool
	Limit     int
}
