package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rickhiram/Sensor-Dashboard/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertReading(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewPostgresReadingsRepo(db)

	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectExec(`INSERT INTO readings`).
		WithArgs(int64(1), ts, 21.5).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.InsertReading(context.Background(), domain.Reading{SensorID: 1, Timestamp: ts, Value: 21.5})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertReading_DBError(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewPostgresReadingsRepo(db)

	mock.ExpectExec(`INSERT INTO readings`).
		WillReturnError(errors.New("connection refused"))

	err := repo.InsertReading(context.Background(), domain.Reading{SensorID: 1, Timestamp: time.Now(), Value: 1})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHistory(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewPostgresReadingsRepo(db)

	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(time.Hour)

	rows := sqlmock.NewRows([]string{"sensor_id", "ts", "value"}).
		AddRow(1, from.Add(time.Minute), 20.0).
		AddRow(1, from.Add(2*time.Minute), 21.0)

	mock.ExpectQuery(`SELECT sensor_id, ts, value`).
		WithArgs(int64(1), from, to, 100).
		WillReturnRows(rows)

	got, err := repo.History(context.Background(), 1, from, to, 100)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 20.0, got[0].Value)
	assert.True(t, got[0].Timestamp.Before(got[1].Timestamp), "history is ordered oldest first")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHistory_Empty(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewPostgresReadingsRepo(db)

	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(time.Hour)

	mock.ExpectQuery(`SELECT sensor_id, ts, value`).
		WithArgs(int64(9), from, to, 10000).
		WillReturnRows(sqlmock.NewRows([]string{"sensor_id", "ts", "value"}))

	got, err := repo.History(context.Background(), 9, from, to, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}
