package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
)

var (
	// ErrNotFound row (or a referenced row) does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate unique constraint hit: username, CURP, or an existing user link.
	ErrDuplicate = errors.New("duplicate")
	// ErrActiveMonitoringExists patient already has an active monitoring session.
	ErrActiveMonitoringExists = errors.New("active monitoring session already exists")
)

// Repositories bundles every repository the services depend on.
type Repositories struct {
	Users        UsersRepository
	Patients     PatientsRepository
	Clinicians   CliniciansRepository
	Devices      DevicesRepository
	Monitoring   MonitoringRepository
	Measurements MeasurementsRepository
	Alerts       AlertsRepository
}

// NewPostgresRepositories PostgreSQL-backed repositories sharing db.
func NewPostgresRepositories(db *sql.DB) Repositories {
	return Repositories{
		Users:        NewPostgresUsersRepository(db),
		Patients:     NewPostgresPatientsRepository(db),
		Clinicians:   NewPostgresCliniciansRepository(db),
		Devices:      NewPostgresDevicesRepository(db),
		Monitoring:   NewPostgresMonitoringRepository(db),
		Measurements: NewPostgresMeasurementsRepository(db),
		Alerts:       NewPostgresAlertsRepository(db),
	}
}

// NewMemoryRepositories in-memory repositories sharing one MemoryStore (dev fallback, tests).
func NewMemoryRepositories() Repositories {
	return NewMemoryStore().Repositories()
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23503"
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func int64Ptr(ni sql.NullInt64) *int64 {
	if !ni.Valid {
		return nil
	}
	v := ni.Int64
	return &v
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}
