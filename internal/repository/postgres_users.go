package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"iheartcare/common/database"
	"iheartcare/internal/domain"
)

// PostgresUsersRepository users table.
type PostgresUsersRepository struct {
	db *sql.DB
}

func NewPostgresUsersRepository(db *sql.DB) *PostgresUsersRepository {
	return &PostgresUsersRepository{db: db}
}

var _ UsersRepository = (*PostgresUsersRepository)(nil)

func (r *PostgresUsersRepository) GetUserForLogin(ctx context.Context, username string) (*domain.User, error) {
	query := `
		SELECT u.id, u.username, u.password_hash, u.role, u.activo, p.id, pm.id
		FROM users u
		LEFT JOIN pacientes p ON p.usuario_id = u.id
		LEFT JOIN personal_medico pm ON pm.usuario_id = u.id
		WHERE u.username = $1
	`
	var (
		u           domain.User
		role        string
		patientID   sql.NullInt64
		clinicianID sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx, query, username).Scan(
		&u.ID, &u.Username, &u.PasswordHash, &role, &u.Active, &patientID, &clinicianID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	u.Role = domain.Role(role)
	u.PatientID = int64Ptr(patientID)
	u.ClinicianID = int64Ptr(clinicianID)
	return &u, nil
}

func (r *PostgresUsersRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`, username).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	return exists, nil
}

func (r *PostgresUsersRepository) CreateUser(ctx context.Context, u domain.NewUser) (int64, error) {
	return insertUser(ctx, r.db, u)
}

func (r *PostgresUsersRepository) CreatePatientUser(ctx context.Context, patientID int64, u domain.NewUser) (int64, error) {
	return r.createLinkedUser(ctx, "pacientes", patientID, u)
}

func (r *PostgresUsersRepository) CreateClinicianUser(ctx context.Context, clinicianID int64, u domain.NewUser) (int64, error) {
	return r.createLinkedUser(ctx, "personal_medico", clinicianID, u)
}

// createLinkedUser table is one of the two fixed link tables, never user input.
func (r *PostgresUsersRepository) createLinkedUser(ctx context.Context, table string, id int64, u domain.NewUser) (int64, error) {
	var userID int64
	err := database.WithTx(ctx, r.db, nil, func(tx *sql.Tx) error {
		var linked sql.NullInt64
		err := tx.QueryRowContext(ctx,
			fmt.Sprintf(`SELECT usuario_id FROM %s WHERE id = $1 FOR UPDATE`, table), id,
		).Scan(&linked)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to lock %s row: %w", table, err)
		}
		if linked.Valid {
			return fmt.Errorf("%w: %s %d already has a user", ErrDuplicate, table, id)
		}

		userID, err = insertUser(ctx, tx, u)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf(`UPDATE %s SET usuario_id = $1 WHERE id = $2`, table), userID, id,
		); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: user link", ErrDuplicate)
			}
			return fmt.Errorf("failed to link user: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return userID, nil
}

func insertUser(ctx context.Context, q queryer, u domain.NewUser) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx,
		`INSERT INTO users (username, password_hash, role, activo) VALUES ($1, $2, $3, TRUE) RETURNING id`,
		u.Username, u.PasswordHash, string(u.Role),
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%w: username %s", ErrDuplicate, u.Username)
		}
		return 0, fmt.Errorf("failed to insert user: %w", err)
	}
	return id, nil
}
