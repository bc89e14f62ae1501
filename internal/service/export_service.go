package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"iheartcare/internal/domain"
	"iheartcare/internal/repository"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const (
	measurementsSheet = "Mediciones"
	historySheet      = "Historial"
	exportTimeLayout  = "2006-01-02 15:04:05"
)

// Export an .xlsx workbook ready to be sent as a download.
type Export struct {
	Filename string
	Content  []byte
}

// ExportService spreadsheet exports of measurements and monitoring history.
type ExportService interface {
	ExportMeasurements(ctx context.Context, viewer *domain.Session, patientID int64) (*Export, error)
	ExportHistory(ctx context.Context) (*Export, error)
}

type exportService struct {
	measurements repository.MeasurementsRepository
	monitoring   repository.MonitoringRepository
	patients     repository.PatientsRepository
	access       *PatientAccess
	logger       *zap.Logger
	now          func() time.Time
}

func NewExportService(repos repository.Repositories, access *PatientAccess, logger *zap.Logger) ExportService {
	return &exportService{
		measurements: repos.Measurements,
		monitoring:   repos.Monitoring,
		patients:     repos.Patients,
		access:       access,
		logger:       logger,
		now:          time.Now,
	}
}

type column struct {
	title string
	width float64
}

func (s *exportService) ExportMeasurements(ctx context.Context, viewer *domain.Session, patientID int64) (*Export, error) {
	if err := s.access.Check(ctx, viewer, patientID); err != nil {
		return nil, err
	}
	p, err := s.patients.GetPatient(ctx, patientID)
	if err != nil {
		return nil, storeError(s.logger, "get patient", err)
	}
	list, err := s.measurements.ListMeasurements(ctx, domain.MeasurementQuery{PatientID: patientID})
	if err != nil {
		return nil, storeError(s.logger, "list measurements", err)
	}

	columns := []column{
		{"Fecha/Hora", 22}, {"Tipo de Medición", 22}, {"Valor", 10}, {"Unidad", 10}, {"Nivel", 12},
	}
	rows := make([][]any, 0, len(list))
	for _, m := range list {
		rows = append(rows, []any{
			m.Timestamp.UTC().Format(exportTimeLayout),
			m.Kind,
			m.Value,
			m.Unit,
			string(domain.Classify(m.Kind, m.Value)),
		})
	}

	content, err := buildWorkbook(measurementsSheet, columns, rows)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Measurements exported",
		zap.Int64("patient_id", patientID),
		zap.Int("rows", len(rows)),
	)
	return &Export{
		Filename: fmt.Sprintf("mediciones_%s_%s.xlsx", p.CURP, s.now().Format("20060102")),
		Content:  content,
	}, nil
}

func (s *exportService) ExportHistory(ctx context.Context) (*Export, error) {
	history, err := s.monitoring.ListMonitoringHistory(ctx)
	if err != nil {
		return nil, storeError(s.logger, "list monitoring history", err)
	}

	columns := []column{
		{"ID", 8}, {"Paciente", 30}, {"Inicio", 22}, {"Fin", 22}, {"Estado", 12}, {"Motivo", 40},
	}
	rows := make([][]any, 0, len(history))
	for _, h := range history {
		end := ""
		if h.EndedAt != nil {
			end = h.EndedAt.UTC().Format(exportTimeLayout)
		}
		state := "Finalizado"
		if h.Active {
			state = "Activo"
		}
		rows = append(rows, []any{
			h.ID,
			h.PatientName,
			h.StartedAt.UTC().Format(exportTimeLayout),
			end,
			state,
			h.Reason,
		})
	}

	content, err := buildWorkbook(historySheet, columns, rows)
	if err != nil {
		return nil, err
	}
	return &Export{
		Filename: fmt.Sprintf("historial_monitoreo_%s.xlsx", s.now().Format("20060102")),
		Content:  content,
	}, nil
}

// buildWorkbook one sheet with a styled, frozen header row followed by rows.
func buildWorkbook(sheet string, columns []column, rows [][]any) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to delete default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#FDE2E4"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for col, c := range columns {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, c.title); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, headerStyle); err != nil {
			return nil, fmt.Errorf("failed to style header: %w", err)
		}
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(sheet, name, name, c.width); err != nil {
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for i, row := range rows {
		for col, v := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
			}
		}
	}

	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("failed to freeze header: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
