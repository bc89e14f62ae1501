package ingest

import (
	"fmt"
	"strconv"

	"iheartcare/internal/domain"
)

// Evaluator rule engine: turns an out-of-range measurement into an alert.
type Evaluator struct{}

func NewEvaluator() *Evaluator { return &Evaluator{} }

// Evaluate returns nil for normal values and for kinds without a clinical range.
func (e *Evaluator) Evaluate(m domain.Measurement) *domain.Alert {
	var alertType string
	switch domain.Classify(m.Kind, m.Value) {
	case domain.LevelWarning:
		alertType = domain.AlertWarning
	case domain.LevelCritical:
		alertType = domain.AlertCritical
	default:
		return nil
	}
	r, _ := domain.RangeFor(m.Kind)
	unit := m.Unit
	if unit == "" {
		unit = r.Unit
	}
	return &domain.Alert{
		MeasurementID: m.ID,
		Timestamp:     m.Timestamp,
		Type:          alertType,
		Message: fmt.Sprintf("%s fuera de rango: %s %s (normal %s-%s %s)",
			m.Kind, formatValue(m.Value), unit,
			formatValue(r.NormalMin), formatValue(r.NormalMax), r.Unit),
	}
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
