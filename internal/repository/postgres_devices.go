package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"iheartcare/internal/domain"
)

// PostgresDevicesRepository dispositivos.
type PostgresDevicesRepository struct {
	db *sql.DB
}

func NewPostgresDevicesRepository(db *sql.DB) *PostgresDevicesRepository {
	return &PostgresDevicesRepository{db: db}
}

var _ DevicesRepository = (*PostgresDevicesRepository)(nil)

func (r *PostgresDevicesRepository) CreateDevice(ctx context.Context, d *domain.Device) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO dispositivos (paciente_id, modelo, mac_address, direccion_url, fecha_asignacion)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, d.PatientID, d.Model, nullString(d.MACAddress), nullString(d.URL), d.AssignedAt).Scan(&id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("failed to insert device: %w", err)
	}
	return id, nil
}

const deviceSelect = `
	SELECT d.id, d.paciente_id, concat_ws(' ', p.nombre, p.apellido_paterno, p.apellido_materno),
	       d.modelo, d.mac_address, d.direccion_url, d.fecha_asignacion
	FROM dispositivos d
	JOIN pacientes p ON p.id = d.paciente_id
`

func scanDevice(s rowScanner) (*domain.Device, error) {
	var (
		d        domain.Device
		mac, url sql.NullString
	)
	if err := s.Scan(&d.ID, &d.PatientID, &d.PatientName, &d.Model, &mac, &url, &d.AssignedAt); err != nil {
		return nil, err
	}
	d.MACAddress = stringPtr(mac)
	d.URL = stringPtr(url)
	return &d, nil
}

func (r *PostgresDevicesRepository) GetDevice(ctx context.Context, id int64) (*domain.Device, error) {
	d, err := scanDevice(r.db.QueryRowContext(ctx, deviceSelect+` WHERE d.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get device: %w", err)
	}
	return d, nil
}

func (r *PostgresDevicesRepository) ListDevices(ctx context.Context) ([]domain.Device, error) {
	return r.list(ctx, deviceSelect+` ORDER BY d.fecha_asignacion DESC, d.id DESC`)
}

func (r *PostgresDevicesRepository) ListDevicesForPatient(ctx context.Context, patientID int64) ([]domain.Device, error) {
	return r.list(ctx, deviceSelect+` WHERE d.paciente_id = $1 ORDER BY d.fecha_asignacion DESC, d.id DESC`, patientID)
}

func (r *PostgresDevicesRepository) list(ctx context.Context, query string, args ...any) ([]domain.Device, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	defer rows.Close()

	out := []domain.Device{}
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan device: %w", err)
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}
