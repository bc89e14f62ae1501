package domain

import "time"

// Session authenticated user state, keyed by an opaque token.
// Holds identifiers only; never a password or hash.
type Session struct {
	Token       string    `json:"-"`
	UserID      int64     `json:"user_id"`
	Username    string    `json:"username"`
	Role        Role      `json:"role"`
	PatientID   *int64    `json:"patient_id,omitempty"`
	ClinicianID *int64    `json:"clinician_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
