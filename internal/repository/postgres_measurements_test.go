package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"iheartcare/internal/domain"
)

func TestInsertMeasurement_WithAlert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresMeasurementsRepository(db)

	ts := time.Date(2025, 3, 2, 8, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO mediciones`).
		WithArgs(int64(3), ts, domain.KindHeartRate, 150.0, "lpm").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(40)))
	mock.ExpectQuery(`INSERT INTO alertas`).
		WithArgs(int64(40), ts, domain.AlertCritical, "msg").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(8)))
	mock.ExpectCommit()

	mID, aID, err := repo.InsertMeasurement(context.Background(),
		&domain.Measurement{DeviceID: 3, Timestamp: ts, Kind: domain.KindHeartRate, Value: 150, Unit: "lpm"},
		&domain.Alert{Timestamp: ts, Type: domain.AlertCritical, Message: "msg"})
	require.NoError(t, err)
	assert.Equal(t, int64(40), mID)
	assert.Equal(t, int64(8), aID)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertMeasurement_UnknownDevice(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresMeasurementsRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO mediciones`).WillReturnError(&pq.Error{Code: "23503"})
	mock.ExpectRollback()

	_, _, err = repo.InsertMeasurement(context.Background(), &domain.Measurement{DeviceID: 99}, nil)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListMeasurements_KindAndLimit(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresMeasurementsRepository(db)

	ts := time.Date(2025, 3, 2, 8, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`WHERE d.paciente_id = \$1 AND m.tipo_medicion = \$2\s+ORDER BY m."timestamp" DESC, m.id DESC\s+LIMIT \$3`).
		WithArgs(int64(1), domain.KindOxygen, int64(1000)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "dispositivo_id", "timestamp", "tipo_medicion", "valor", "unidad_medida"}).
			AddRow(int64(2), int64(3), ts, domain.KindOxygen, 97.0, "%"))

	ms, err := repo.ListMeasurements(context.Background(), domain.MeasurementQuery{PatientID: 1, Kind: domain.KindOxygen, Limit: 1000})
	require.NoError(t, err)
	require.Len(t, ms, 1)
	assert.Equal(t, 97.0, ms[0].Value)

	require.NoError(t, mock.ExpectationsWereMet())
}
