package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"iheartcare/internal/domain"
)

// PostgresAlertsRepository alertas.
type PostgresAlertsRepository struct {
	db *sql.DB
}

func NewPostgresAlertsRepository(db *sql.DB) *PostgresAlertsRepository {
	return &PostgresAlertsRepository{db: db}
}

var _ AlertsRepository = (*PostgresAlertsRepository)(nil)

const alertDetailSelect = `
	SELECT a.id, a.medicion_id, a."timestamp", a.tipo_alerta, a.mensaje, a.leida,
	       p.id, concat_ws(' ', p.nombre, p.apellido_paterno, p.apellido_materno),
	       m.tipo_medicion, m.valor, m.unidad_medida
	FROM alertas a
	JOIN mediciones m ON m.id = a.medicion_id
	JOIN dispositivos d ON d.id = m.dispositivo_id
	JOIN pacientes p ON p.id = d.paciente_id
`

func (r *PostgresAlertsRepository) MarkAlertRead(ctx context.Context, alertID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE alertas SET leida = TRUE WHERE id = $1 AND leida = FALSE`, alertID)
	if err != nil {
		return false, fmt.Errorf("failed to mark alert read: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to mark alert read: %w", err)
	}
	if n > 0 {
		return true, nil
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM alertas WHERE id = $1)`, alertID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check alert: %w", err)
	}
	if !exists {
		return false, ErrNotFound
	}
	return false, nil
}

func (r *PostgresAlertsRepository) MarkAllAlertsReadForPatient(ctx context.Context, patientID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE alertas a SET leida = TRUE
		FROM mediciones m
		JOIN dispositivos d ON d.id = m.dispositivo_id
		WHERE a.medicion_id = m.id AND d.paciente_id = $1 AND a.leida = FALSE
	`, patientID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark patient alerts read: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to mark patient alerts read: %w", err)
	}
	return n, nil
}

func (r *PostgresAlertsRepository) ListAlertsForPatient(ctx context.Context, patientID int64, f domain.AlertFilter) ([]domain.AlertDetail, error) {
	where := []string{"p.id = $1"}
	args := []any{patientID}
	switch f.Status {
	case domain.AlertStatusUnread:
		where = append(where, "a.leida = FALSE")
	case domain.AlertStatusRead:
		where = append(where, "a.leida = TRUE")
	}
	if f.Type != "" {
		args = append(args, f.Type)
		where = append(where, fmt.Sprintf("a.tipo_alerta = $%d", len(args)))
	}
	query := alertDetailSelect + ` WHERE ` + strings.Join(where, " AND ") + ` ORDER BY a."timestamp" DESC, a.id DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	return r.list(ctx, query, args...)
}

func (r *PostgresAlertsRepository) ListUnreadAlertsForClinician(ctx context.Context, clinicianID int64) ([]domain.AlertDetail, error) {
	query := alertDetailSelect + `
		JOIN pacientes_medicos pm ON pm.paciente_id = p.id
		WHERE pm.medico_id = $1 AND a.leida = FALSE
		ORDER BY a."timestamp" DESC, a.id DESC
	`
	return r.list(ctx, query, clinicianID)
}

func (r *PostgresAlertsRepository) GetAlertPatientID(ctx context.Context, alertID int64) (int64, error) {
	var patientID int64
	err := r.db.QueryRowContext(ctx, `
		SELECT d.paciente_id
		FROM alertas a
		JOIN mediciones m ON m.id = a.medicion_id
		JOIN dispositivos d ON d.id = m.dispositivo_id
		WHERE a.id = $1
	`, alertID).Scan(&patientID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("failed to get alert owner: %w", err)
	}
	return patientID, nil
}

func (r *PostgresAlertsRepository) list(ctx context.Context, query string, args ...any) ([]domain.AlertDetail, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer rows.Close()

	out := []domain.AlertDetail{}
	for rows.Next() {
		var a domain.AlertDetail
		if err := rows.Scan(
			&a.ID, &a.MeasurementID, &a.Timestamp, &a.Type, &a.Message, &a.Read,
			&a.PatientID, &a.PatientName, &a.Kind, &a.Value, &a.Unit,
		); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
