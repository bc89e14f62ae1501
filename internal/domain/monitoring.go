package domain

import "time"

// MonitoringSession monitoreos row. At most one active row per patient.
type MonitoringSession struct {
	ID        int64      `json:"id" db:"id"`
	PatientID int64      `json:"paciente_id" db:"paciente_id"`
	StartedAt time.Time  `json:"fecha_inicio" db:"fecha_inicio"`
	EndedAt   *time.Time `json:"fecha_fin,omitempty" db:"fecha_fin"`
	Active    bool       `json:"activo" db:"activo"`
	Reason    string     `json:"motivo" db:"motivo"`
}

// ActiveMonitoring entry of the active-session list.
type ActiveMonitoring struct {
	SessionID   int64     `json:"session_id"`
	PatientID   int64     `json:"patient_id"`
	PatientName string    `json:"patient_name"`
	StartedAt   time.Time `json:"fecha_inicio"`
}

// MonitoringRecord history row: session joined with its patient.
type MonitoringRecord struct {
	MonitoringSession
	PatientName string `json:"patient_name"`
}

// Dashboard monitoring screen payload for one session.
type Dashboard struct {
	Session      MonitoringSession        `json:"session"`
	Patient      PatientRef               `json:"patient"`
	Measurements map[string][]Measurement `json:"measurements"`
	UnreadAlerts []AlertDetail            `json:"unread_alerts"`
}
