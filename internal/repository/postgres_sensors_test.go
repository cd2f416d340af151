package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rickhiram/Sensor-Dashboard/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return db, mock
}

func sensorFixture(name, typ, unit string, min, max *float64) domain.Sensor {
	return domain.Sensor{Name: name, Type: typ, Unit: unit, Enabled: true, Min: min, Max: max}
}

func TestListSensors(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewPostgresSensorsRepo(db)

	created := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "name", "type", "unit", "enabled", "min_value", "max_value", "created_at"}).
		AddRow(1, "Greenhouse Temp", "temperature", "°C", true, 10.0, 20.0, created).
		AddRow(2, "Soil Probe", "soil_moisture", "%", false, nil, nil, created)

	mock.ExpectQuery(`SELECT .+ FROM sensors ORDER BY name, id`).
		WillReturnRows(rows)

	sensors, err := repo.ListSensors(context.Background())
	require.NoError(t, err)
	require.Len(t, sensors, 2)

	assert.Equal(t, "Greenhouse Temp", sensors[0].Name)
	require.NotNil(t, sensors[0].Min)
	assert.Equal(t, 10.0, *sensors[0].Min)

	assert.False(t, sensors[1].Enabled)
	assert.Nil(t, sensors[1].Min)
	assert.Nil(t, sensors[1].Max)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetSensor_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewPostgresSensorsRepo(db)

	mock.ExpectQuery(`SELECT .+ FROM sensors WHERE id = \$1`).
		WithArgs(int64(42)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetSensor(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSensor(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewPostgresSensorsRepo(db)

	created := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "name", "type", "unit", "enabled", "min_value", "max_value", "created_at"}).
		AddRow(7, "CO2 Sensor", "co2", "ppm", true, 400.0, 5000.0, created)

	min, max := 400.0, 5000.0
	mock.ExpectQuery(`INSERT INTO sensors`).
		WithArgs("CO2 Sensor", "co2", "ppm", true, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(rows)

	s, err := repo.CreateSensor(context.Background(), sensorFixture("CO2 Sensor", "co2", "ppm", &min, &max))
	require.NoError(t, err)
	assert.Equal(t, int64(7), s.ID)
	assert.Equal(t, "co2", s.Type)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetEnabled_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewPostgresSensorsRepo(db)

	mock.ExpectExec(`UPDATE sensors SET enabled`).
		WithArgs(false, int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetEnabled(context.Background(), 9, false)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetRange(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewPostgresSensorsRepo(db)

	mock.ExpectExec(`UPDATE sensors SET min_value`).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	min, max := 5.0, 30.0
	err := repo.SetRange(context.Background(), 3, &min, &max)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
