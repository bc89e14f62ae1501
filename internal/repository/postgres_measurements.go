package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"iheartcare/common/database"
	"iheartcare/internal/domain"
)

// PostgresMeasurementsRepository mediciones (+ the alert derived from each one).
type PostgresMeasurementsRepository struct {
	db *sql.DB
}

func NewPostgresMeasurementsRepository(db *sql.DB) *PostgresMeasurementsRepository {
	return &PostgresMeasurementsRepository{db: db}
}

var _ MeasurementsRepository = (*PostgresMeasurementsRepository)(nil)

func (r *PostgresMeasurementsRepository) InsertMeasurement(ctx context.Context, m *domain.Measurement, alert *domain.Alert) (int64, int64, error) {
	var measurementID, alertID int64
	err := database.WithTx(ctx, r.db, nil, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO mediciones (dispositivo_id, "timestamp", tipo_medicion, valor, unidad_medida)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`, m.DeviceID, m.Timestamp, m.Kind, m.Value, m.Unit).Scan(&measurementID)
		if err != nil {
			if isForeignKeyViolation(err) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to insert measurement: %w", err)
		}
		if alert == nil {
			return nil
		}

		err = tx.QueryRowContext(ctx, `
			INSERT INTO alertas (medicion_id, "timestamp", tipo_alerta, mensaje, leida)
			VALUES ($1, $2, $3, $4, FALSE)
			RETURNING id
		`, measurementID, alert.Timestamp, alert.Type, alert.Message).Scan(&alertID)
		if err != nil {
			return fmt.Errorf("failed to insert alert: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return measurementID, alertID, nil
}

func (r *PostgresMeasurementsRepository) ListMeasurements(ctx context.Context, q domain.MeasurementQuery) ([]domain.Measurement, error) {
	where := []string{"d.paciente_id = $1"}
	args := []any{q.PatientID}
	if q.Kind != "" {
		args = append(args, q.Kind)
		where = append(where, fmt.Sprintf("m.tipo_medicion = $%d", len(args)))
	}
	if q.Since != nil {
		args = append(args, *q.Since)
		where = append(where, fmt.Sprintf(`m."timestamp" >= $%d`, len(args)))
	}

	order := "DESC"
	if q.Ascending {
		order = "ASC"
	}
	query := fmt.Sprintf(`
		SELECT m.id, m.dispositivo_id, m."timestamp", m.tipo_medicion, m.valor, m.unidad_medida
		FROM mediciones m
		JOIN dispositivos d ON d.id = m.dispositivo_id
		WHERE %s
		ORDER BY m."timestamp" %s, m.id %s
	`, strings.Join(where, " AND "), order, order)
	if q.Limit > 0 {
		args = append(args, q.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list measurements: %w", err)
	}
	defer rows.Close()

	out := []domain.Measurement{}
	for rows.Next() {
		var m domain.Measurement
		if err := rows.Scan(&m.ID, &m.DeviceID, &m.Timestamp, &m.Kind, &m.Value, &m.Unit); err != nil {
			return nil, fmt.Errorf("failed to scan measurement: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *PostgresMeasurementsRepository) ListMeasurementKinds(ctx context.Context, patientID int64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT m.tipo_medicion
		FROM mediciones m
		JOIN dispositivos d ON d.id = m.dispositivo_id
		WHERE d.paciente_id = $1
		ORDER BY m.tipo_medicion
	`, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list measurement kinds: %w", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var kind string
		if err := rows.Scan(&kind); err != nil {
			return nil, fmt.Errorf("failed to scan measurement kind: %w", err)
		}
		out = append(out, kind)
	}
	return out, rows.Err()
}
