package domain

import "time"

const (
	AlertWarning  = "Advertencia"
	AlertCritical = "Crítico"
)

// Alert alertas row. Read only ever flips false -> true.
type Alert struct {
	ID            int64     `json:"id" db:"id"`
	MeasurementID int64     `json:"medicion_id" db:"medicion_id"`
	Timestamp     time.Time `json:"timestamp" db:"timestamp"`
	Type          string    `json:"tipo_alerta" db:"tipo_alerta"`
	Message       string    `json:"mensaje" db:"mensaje"`
	Read          bool      `json:"leida" db:"leida"`
}

// AlertDetail alert joined back to its measurement and patient.
type AlertDetail struct {
	Alert
	PatientID   int64   `json:"patient_id"`
	PatientName string  `json:"patient_name"`
	Kind        string  `json:"tipo_medicion"`
	Value       float64 `json:"valor"`
	Unit        string  `json:"unidad_medida"`
}

// AlertStatus read-state filter.
type AlertStatus string

const (
	AlertStatusAll    AlertStatus = "all"
	AlertStatusUnread AlertStatus = "unread"
	AlertStatusRead   AlertStatus = "read"
)

// AlertFilter options for listing a patient's alerts.
type AlertFilter struct {
	Status AlertStatus
	Type   string
	Limit  int
}
