package service

import (
	"context"
	"sort"
	"strings"

	"iheartcare/internal/domain"
	"iheartcare/internal/repository"

	"go.uber.org/zap"
)

const maxMeasurementListLimit = 1000

// MeasurementList a patient's measurements, newest first, plus every kind the patient has.
type MeasurementList struct {
	Kinds        []string             `json:"kinds"`
	Measurements []domain.Measurement `json:"measurements"`
}

// MeasurementService read side of mediciones: listings and the clinical analysis panel.
type MeasurementService interface {
	PatientMeasurements(ctx context.Context, viewer *domain.Session, patientID int64, kind string) (*MeasurementList, error)
	Analysis(ctx context.Context, viewer *domain.Session, patientID int64, window domain.Window) (*domain.Analysis, error)
}

type measurementService struct {
	measurements repository.MeasurementsRepository
	patients     repository.PatientsRepository
	access       *PatientAccess
	logger       *zap.Logger
}

func NewMeasurementService(measurements repository.MeasurementsRepository, patients repository.PatientsRepository, access *PatientAccess, logger *zap.Logger) MeasurementService {
	return &measurementService{
		measurements: measurements,
		patients:     patients,
		access:       access,
		logger:       logger,
	}
}

func (s *measurementService) PatientMeasurements(ctx context.Context, viewer *domain.Session, patientID int64, kind string) (*MeasurementList, error) {
	if err := s.access.Check(ctx, viewer, patientID); err != nil {
		return nil, err
	}
	kinds, err := s.measurements.ListMeasurementKinds(ctx, patientID)
	if err != nil {
		return nil, storeError(s.logger, "list measurement kinds", err)
	}
	list, err := s.measurements.ListMeasurements(ctx, domain.MeasurementQuery{
		PatientID: patientID,
		Kind:      strings.TrimSpace(kind),
		Limit:     maxMeasurementListLimit,
	})
	if err != nil {
		return nil, storeError(s.logger, "list measurements", err)
	}
	return &MeasurementList{Kinds: kinds, Measurements: list}, nil
}

func (s *measurementService) Analysis(ctx context.Context, viewer *domain.Session, patientID int64, window domain.Window) (*domain.Analysis, error) {
	if _, ok := domain.ParseWindow(string(window)); !ok {
		return nil, invalid("window", "must be day, week, month or all")
	}
	if window == "" {
		window = domain.WindowAll
	}
	if err := s.access.Check(ctx, viewer, patientID); err != nil {
		return nil, err
	}
	if _, err := s.patients.GetPatient(ctx, patientID); err != nil {
		return nil, storeError(s.logger, "get patient", err)
	}

	out := &domain.Analysis{
		PatientID: patientID,
		Window:    window,
		Rows:      []domain.PivotRow{},
		Summary:   []domain.KindSummary{},
		KPIs:      []domain.KPI{},
	}

	latest, err := s.measurements.ListMeasurements(ctx, domain.MeasurementQuery{PatientID: patientID, Limit: 1})
	if err != nil {
		return nil, storeError(s.logger, "get latest measurement", err)
	}
	if len(latest) == 0 {
		return out, nil
	}

	q := domain.MeasurementQuery{PatientID: patientID, Ascending: true}
	to := latest[0].Timestamp
	if d := window.Duration(); d > 0 {
		from := to.Add(-d)
		q.Since = &from
	}
	list, err := s.measurements.ListMeasurements(ctx, q)
	if err != nil {
		return nil, storeError(s.logger, "list measurements", err)
	}
	if len(list) == 0 {
		return out, nil
	}

	from := list[0].Timestamp
	out.From, out.To = &from, &to
	out.Rows = pivot(list)
	out.Summary, out.KPIs = summarize(list)
	return out, nil
}

// pivot groups ascending measurements by timestamp. Several values of one kind
// at the same timestamp are averaged.
func pivot(list []domain.Measurement) []domain.PivotRow {
	rows := []domain.PivotRow{}
	var counts []map[string]int
	for _, m := range list {
		if n := len(rows); n > 0 && rows[n-1].Timestamp.Equal(m.Timestamp) {
			row, seen := rows[n-1], counts[n-1]
			c := seen[m.Kind]
			row.Values[m.Kind] = (row.Values[m.Kind]*float64(c) + m.Value) / float64(c+1)
			seen[m.Kind] = c + 1
			continue
		}
		rows = append(rows, domain.PivotRow{
			Timestamp: m.Timestamp,
			Values:    map[string]float64{m.Kind: m.Value},
		})
		counts = append(counts, map[string]int{m.Kind: 1})
	}
	return rows
}

func summarize(list []domain.Measurement) ([]domain.KindSummary, []domain.KPI) {
	type acc struct {
		summary domain.KindSummary
		sum     float64
		last    domain.Measurement
	}
	byKind := map[string]*acc{}
	for _, m := range list {
		a, ok := byKind[m.Kind]
		if !ok {
			a = &acc{summary: domain.KindSummary{Kind: m.Kind, Unit: m.Unit, Min: m.Value, Max: m.Value}}
			byKind[m.Kind] = a
		}
		a.summary.Count++
		a.sum += m.Value
		if m.Value < a.summary.Min {
			a.summary.Min = m.Value
		}
		if m.Value > a.summary.Max {
			a.summary.Max = m.Value
		}
		a.last = m
	}

	kinds := make([]string, 0, len(byKind))
	for k := range byKind {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)

	summary := make([]domain.KindSummary, 0, len(kinds))
	kpis := make([]domain.KPI, 0, len(kinds))
	for _, k := range kinds {
		a := byKind[k]
		a.summary.Mean = a.sum / float64(a.summary.Count)
		summary = append(summary, a.summary)

		kpi := domain.KPI{
			Kind:      k,
			Value:     a.last.Value,
			Unit:      a.last.Unit,
			Timestamp: a.last.Timestamp,
			Level:     domain.Classify(k, a.last.Value),
		}
		if r, ok := domain.RangeFor(k); ok {
			kpi.Range = &r
		}
		kpis = append(kpis, kpi)
	}
	return summary, kpis
}
