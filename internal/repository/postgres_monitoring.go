package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"iheartcare/common/database"
	"iheartcare/internal/domain"
)

// PostgresMonitoringRepository monitoreos.
// One active session per patient is guarded twice: the patient row is locked
// while the check-then-insert runs, and monitoreos_un_activo rejects whatever slips past.
type PostgresMonitoringRepository struct {
	db *sql.DB
}

func NewPostgresMonitoringRepository(db *sql.DB) *PostgresMonitoringRepository {
	return &PostgresMonitoringRepository{db: db}
}

var _ MonitoringRepository = (*PostgresMonitoringRepository)(nil)

func (r *PostgresMonitoringRepository) StartMonitoring(ctx context.Context, patientID int64, reason string, now time.Time) (*domain.MonitoringSession, error) {
	session := &domain.MonitoringSession{
		PatientID: patientID,
		StartedAt: now,
		Active:    true,
		Reason:    reason,
	}

	err := database.WithTx(ctx, r.db, nil, func(tx *sql.Tx) error {
		var locked int64
		err := tx.QueryRowContext(ctx, `SELECT id FROM pacientes WHERE id = $1 FOR UPDATE`, patientID).Scan(&locked)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to lock patient: %w", err)
		}

		var active bool
		err = tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM monitoreos WHERE paciente_id = $1 AND activo)`, patientID,
		).Scan(&active)
		if err != nil {
			return fmt.Errorf("failed to check active monitoring: %w", err)
		}
		if active {
			return ErrActiveMonitoringExists
		}

		err = tx.QueryRowContext(ctx, `
			INSERT INTO monitoreos (paciente_id, fecha_inicio, fecha_fin, activo, motivo)
			VALUES ($1, $2, NULL, TRUE, $3)
			RETURNING id
		`, patientID, now, reason).Scan(&session.ID)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrActiveMonitoringExists
			}
			return fmt.Errorf("failed to insert monitoring: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (r *PostgresMonitoringRepository) StopMonitoring(ctx context.Context, sessionID int64, now time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE monitoreos SET activo = FALSE, fecha_fin = $2 WHERE id = $1 AND activo`,
		sessionID, now,
	)
	if err != nil {
		return false, fmt.Errorf("failed to stop monitoring: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to stop monitoring: %w", err)
	}
	if n > 0 {
		return true, nil
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM monitoreos WHERE id = $1)`, sessionID,
	).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check monitoring: %w", err)
	}
	if !exists {
		return false, ErrNotFound
	}
	return false, nil
}

func (r *PostgresMonitoringRepository) GetMonitoring(ctx context.Context, sessionID int64) (*domain.MonitoringSession, error) {
	var (
		s   domain.MonitoringSession
		end sql.NullTime
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, paciente_id, fecha_inicio, fecha_fin, activo, motivo FROM monitoreos WHERE id = $1`, sessionID,
	).Scan(&s.ID, &s.PatientID, &s.StartedAt, &end, &s.Active, &s.Reason)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get monitoring: %w", err)
	}
	s.EndedAt = timePtr(end)
	return &s, nil
}

func (r *PostgresMonitoringRepository) ListActiveMonitoring(ctx context.Context) ([]domain.ActiveMonitoring, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT mo.id, p.id, concat_ws(' ', p.nombre, p.apellido_paterno, p.apellido_materno) AS nombre_completo, mo.fecha_inicio
		FROM monitoreos mo
		JOIN pacientes p ON p.id = mo.paciente_id
		WHERE mo.activo
		ORDER BY nombre_completo, mo.id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list active monitoring: %w", err)
	}
	defer rows.Close()

	out := []domain.ActiveMonitoring{}
	for rows.Next() {
		var a domain.ActiveMonitoring
		if err := rows.Scan(&a.SessionID, &a.PatientID, &a.PatientName, &a.StartedAt); err != nil {
			return nil, fmt.Errorf("failed to scan active monitoring: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *PostgresMonitoringRepository) ListMonitoringHistory(ctx context.Context) ([]domain.MonitoringRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT mo.id, mo.paciente_id, mo.fecha_inicio, mo.fecha_fin, mo.activo, mo.motivo,
		       concat_ws(' ', p.nombre, p.apellido_paterno, p.apellido_materno)
		FROM monitoreos mo
		JOIN pacientes p ON p.id = mo.paciente_id
		ORDER BY mo.fecha_inicio DESC, mo.id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list monitoring history: %w", err)
	}
	defer rows.Close()

	out := []domain.MonitoringRecord{}
	for rows.Next() {
		var (
			rec domain.MonitoringRecord
			end sql.NullTime
		)
		if err := rows.Scan(&rec.ID, &rec.PatientID, &rec.StartedAt, &end, &rec.Active, &rec.Reason, &rec.PatientName); err != nil {
			return nil, fmt.Errorf("failed to scan monitoring record: %w", err)
		}
		rec.EndedAt = timePtr(end)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *PostgresMonitoringRepository) ListPatientsWithoutMonitoring(ctx context.Context) ([]domain.PatientRef, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT p.id, concat_ws(' ', p.nombre, p.apellido_paterno, p.apellido_materno), p.curp
		FROM pacientes p
		WHERE NOT EXISTS (SELECT 1 FROM monitoreos mo WHERE mo.paciente_id = p.id AND mo.activo)
		ORDER BY p.apellido_paterno, p.apellido_materno, p.nombre
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list monitoring candidates: %w", err)
	}
	defer rows.Close()

	out := []domain.PatientRef{}
	for rows.Next() {
		var ref domain.PatientRef
		if err := rows.Scan(&ref.ID, &ref.Name, &ref.CURP); err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		out = append(out, ref)
	}
	return out, rows.Err()
}
