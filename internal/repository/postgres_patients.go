package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"iheartcare/common/database"
	"iheartcare/internal/domain"
)

const patientColumns = `id, nombre, apellido_paterno, apellido_materno, fecha_nacimiento, curp, nss, sexo,
	estado_civil, domicilio, email, telefono, usuario_id`

// PostgresPatientsRepository pacientes + pacientes_medicos.
type PostgresPatientsRepository struct {
	db *sql.DB
}

func NewPostgresPatientsRepository(db *sql.DB) *PostgresPatientsRepository {
	return &PostgresPatientsRepository{db: db}
}

var _ PatientsRepository = (*PostgresPatientsRepository)(nil)

func (r *PostgresPatientsRepository) CreatePatient(ctx context.Context, p *domain.Patient) (int64, error) {
	return insertPatient(ctx, r.db, p)
}

func (r *PostgresPatientsRepository) RegisterPatientWithUser(ctx context.Context, p *domain.Patient, u domain.NewUser) (int64, int64, error) {
	var patientID, userID int64
	err := database.WithTx(ctx, r.db, nil, func(tx *sql.Tx) error {
		var err error
		userID, err = insertUser(ctx, tx, u)
		if err != nil {
			return err
		}
		linked := *p
		linked.UserID = &userID
		patientID, err = insertPatient(ctx, tx, &linked)
		return err
	})
	if err != nil {
		return 0, 0, err
	}
	return patientID, userID, nil
}

func insertPatient(ctx context.Context, q queryer, p *domain.Patient) (int64, error) {
	query := `
		INSERT INTO pacientes (
			nombre, apellido_paterno, apellido_materno, fecha_nacimiento, curp, nss, sexo,
			estado_civil, domicilio, email, telefono, usuario_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`
	var id int64
	err := q.QueryRowContext(ctx, query,
		p.FirstName, p.PaternalSurname, nullString(p.MaternalSurname), p.BirthDate, p.CURP,
		nullString(p.NSS), p.Sex, nullString(p.MaritalStatus), nullString(p.Address), p.Email,
		nullString(p.Phone), nullInt64(p.UserID),
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%w: curp %s", ErrDuplicate, p.CURP)
		}
		return 0, fmt.Errorf("failed to insert patient: %w", err)
	}
	return id, nil
}

func scanPatient(s rowScanner) (*domain.Patient, error) {
	var (
		p                                      domain.Patient
		materno, nss, estado, domicilio, phone sql.NullString
		userID                                 sql.NullInt64
	)
	if err := s.Scan(
		&p.ID, &p.FirstName, &p.PaternalSurname, &materno, &p.BirthDate, &p.CURP, &nss, &p.Sex,
		&estado, &domicilio, &p.Email, &phone, &userID,
	); err != nil {
		return nil, err
	}
	p.MaternalSurname = stringPtr(materno)
	p.NSS = stringPtr(nss)
	p.MaritalStatus = stringPtr(estado)
	p.Address = stringPtr(domicilio)
	p.Phone = stringPtr(phone)
	p.UserID = int64Ptr(userID)
	return &p, nil
}

func (r *PostgresPatientsRepository) GetPatient(ctx context.Context, id int64) (*domain.Patient, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+patientColumns+` FROM pacientes WHERE id = $1`, id)
	p, err := scanPatient(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return p, nil
}

func (r *PostgresPatientsRepository) ListPatients(ctx context.Context) ([]domain.Patient, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+patientColumns+` FROM pacientes ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	defer rows.Close()

	out := []domain.Patient{}
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan patient: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *PostgresPatientsRepository) AssignClinician(ctx context.Context, patientID, clinicianID int64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO pacientes_medicos (paciente_id, medico_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		patientID, clinicianID,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to assign clinician: %w", err)
	}
	return nil
}

func (r *PostgresPatientsRepository) IsClinicianAssigned(ctx context.Context, patientID, clinicianID int64) (bool, error) {
	var ok bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM pacientes_medicos WHERE paciente_id = $1 AND medico_id = $2)`,
		patientID, clinicianID,
	).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("failed to check assignment: %w", err)
	}
	return ok, nil
}

func (r *PostgresPatientsRepository) ListAssignedPatients(ctx context.Context, clinicianID int64, search string) ([]domain.AssignedPatient, error) {
	where := []string{"pm.medico_id = $1"}
	args := []any{clinicianID}
	if s := strings.TrimSpace(search); s != "" {
		where = append(where, "(concat_ws(' ', p.nombre, p.apellido_paterno, p.apellido_materno) ILIKE $2 OR p.curp ILIKE $2)")
		args = append(args, "%"+s+"%")
	}

	query := fmt.Sprintf(`
		SELECT
			p.id,
			concat_ws(' ', p.nombre, p.apellido_paterno, p.apellido_materno),
			p.curp,
			p.email,
			p.telefono,
			(SELECT d.modelo FROM dispositivos d WHERE d.paciente_id = p.id ORDER BY d.fecha_asignacion DESC LIMIT 1),
			EXISTS(SELECT 1 FROM monitoreos mo WHERE mo.paciente_id = p.id AND mo.activo)
		FROM pacientes p
		JOIN pacientes_medicos pm ON pm.paciente_id = p.id
		WHERE %s
		ORDER BY p.apellido_paterno, p.apellido_materno, p.nombre
	`, strings.Join(where, " AND "))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list assigned patients: %w", err)
	}
	defer rows.Close()

	out := []domain.AssignedPatient{}
	for rows.Next() {
		var (
			ap           domain.AssignedPatient
			phone, model sql.NullString
		)
		if err := rows.Scan(&ap.PatientID, &ap.Name, &ap.CURP, &ap.Email, &phone, &model, &ap.ActiveMonitoring); err != nil {
			return nil, fmt.Errorf("failed to scan assigned patient: %w", err)
		}
		ap.Phone = stringPtr(phone)
		ap.DeviceModel = stringPtr(model)
		out = append(out, ap)
	}
	return out, rows.Err()
}

func (r *PostgresPatientsRepository) ListPatientClinicianNames(ctx context.Context, patientID int64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT concat_ws(' ', m.nombre, m.apellido_paterno, m.apellido_materno)
		FROM personal_medico m
		JOIN pacientes_medicos pm ON pm.medico_id = m.id
		WHERE pm.paciente_id = $1
		ORDER BY m.apellido_paterno, m.nombre
	`, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list patient clinicians: %w", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan clinician name: %w", err)
		}
		out = append(out, name)
	}
	return out, rows.Err()
}
