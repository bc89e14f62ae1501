package domain

import "time"

// Window analysis time window, measured back from the newest measurement.
type Window string

const (
	WindowDay   Window = "day"
	WindowWeek  Window = "week"
	WindowMonth Window = "month"
	WindowAll   Window = "all"
)

// Duration zero for WindowAll.
func (w Window) Duration() time.Duration {
	switch w {
	case WindowDay:
		return 24 * time.Hour
	case WindowWeek:
		return 7 * 24 * time.Hour
	case WindowMonth:
		return 30 * 24 * time.Hour
	}
	return 0
}

// ParseWindow empty string means WindowAll.
func ParseWindow(s string) (Window, bool) {
	switch Window(s) {
	case "":
		return WindowAll, true
	case WindowDay, WindowWeek, WindowMonth, WindowAll:
		return Window(s), true
	}
	return "", false
}

// PivotRow one timestamp with the value of each kind measured at it.
type PivotRow struct {
	Timestamp time.Time          `json:"timestamp"`
	Values    map[string]float64 `json:"values"`
}

// KindSummary count/min/max/mean of one kind in the window.
type KindSummary struct {
	Kind  string  `json:"kind"`
	Unit  string  `json:"unit"`
	Count int     `json:"count"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Mean  float64 `json:"mean"`
}

// KPI latest value of one kind with its classification.
type KPI struct {
	Kind      string         `json:"kind"`
	Value     float64        `json:"value"`
	Unit      string         `json:"unit"`
	Timestamp time.Time      `json:"timestamp"`
	Level     Level          `json:"level"`
	Range     *ClinicalRange `json:"range,omitempty"`
}

// Analysis clinical analysis panel for one patient.
type Analysis struct {
	PatientID int64         `json:"patient_id"`
	Window    Window        `json:"window"`
	From      *time.Time    `json:"from,omitempty"`
	To        *time.Time    `json:"to,omitempty"`
	Rows      []PivotRow    `json:"rows"`
	Summary   []KindSummary `json:"summary"`
	KPIs      []KPI         `json:"kpis"`
}
