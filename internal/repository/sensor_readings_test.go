package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"homehub-data/internal/domain"
	"homehub-data/internal/timefilter"
)

func setupSensorReadingsRepo(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *SensorReadingsRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := NewSensorReadingsRepository(db, zap.NewNop())
	return db, mock, repo
}

func TestSensorReadingsInsert_AssignsID(t *testing.T) {
	db, mock, repo := setupSensorReadingsRepo(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO sensor_readings`).
		WithArgs(27.5, 61.2, 50, int64(3600), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(101)))

	reading := &domain.SensorReading{
		Temperature:   27.5,
		Humidity:      61.2,
		LightLevel:    50,
		UptimeSeconds: 3600,
	}
	err := repo.Insert(context.Background(), reading)

	require.NoError(t, err)
	assert.Equal(t, int64(101), reading.ID)
	assert.False(t, reading.CreatedAt.IsZero())

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSensorReadingsSearch_DayRange(t *testing.T) {
	db, mock, repo := setupSensorReadingsRepo(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM sensor_readings WHERE created_at::date BETWEEN \$1::date AND \$2::date`).
		WithArgs("2025-09-06", "2025-09-08").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(`BETWEEN \$1::date AND \$2::date ORDER BY created_at DESC, id DESC LIMIT \$3 OFFSET \$4`).
		WithArgs("2025-09-06", "2025-09-08", 10, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "temperature", "humidity", "light_level", "uptime_seconds", "created_at"}).
			AddRow(int64(2), 21.0, 55.0, 80, int64(60), time.Date(2025, 9, 8, 9, 0, 0, 0, time.UTC)).
			AddRow(int64(1), 20.0, 50.0, 70, int64(30), time.Date(2025, 9, 6, 9, 0, 0, 0, time.UTC)))

	tf, err := timefilter.Parse("6/9/2025-8/9/2025")
	require.NoError(t, err)

	readings, total, err := repo.Search(context.Background(), SensorReadingFilter{Time: &tf}, 0, 10)

	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, readings, 2)
	assert.Equal(t, int64(2), readings[0].ID)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSensorReadingsSearch_FieldRestrictedText(t *testing.T) {
	db, mock, repo := setupSensorReadingsRepo(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM sensor_readings WHERE CAST\(temperature AS TEXT\) LIKE`).
		WithArgs("27").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`CAST\(temperature AS TEXT\) LIKE .* ORDER BY`).
		WithArgs("27", 10, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "temperature", "humidity", "light_level", "uptime_seconds", "created_at"}).
			AddRow(int64(5), 27.1, 60.0, 40, int64(0), time.Now()))

	readings, total, err := repo.Search(context.Background(),
		SensorReadingFilter{Search: "27", SearchField: SensorFieldTemperature}, 0, 10)

	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, readings, 1)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSensorReadingsSearch_MultiFieldText(t *testing.T) {
	db, mock, repo := setupSensorReadingsRepo(t)
	defer db.Close()

	mock.ExpectQuery(`CAST\(id AS TEXT\) LIKE .* OR CAST\(temperature AS TEXT\) LIKE .* OR CAST\(humidity AS TEXT\) LIKE .* OR CAST\(light_level AS TEXT\) LIKE`).
		WithArgs("5").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`ORDER BY created_at DESC, id DESC`).
		WithArgs("5", 10, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "temperature", "humidity", "light_level", "uptime_seconds", "created_at"}))

	readings, total, err := repo.Search(context.Background(), SensorReadingFilter{Search: "5"}, 0, 10)

	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.Empty(t, readings)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSensorReadingsSearch_EscapesLikeMetachars(t *testing.T) {
	db, mock, repo := setupSensorReadingsRepo(t)
	defer db.Close()

	// 单独的 "%" 不能匹配全表
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM sensor_readings`).
		WithArgs(`\%`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`ORDER BY created_at DESC, id DESC`).
		WithArgs(`\%`, 10, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "temperature", "humidity", "light_level", "uptime_seconds", "created_at"}))

	readings, total, err := repo.Search(context.Background(), SensorReadingFilter{Search: "%"}, 0, 10)

	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.Empty(t, readings)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSensorReadingsGetByID_NotFound(t *testing.T) {
	db, mock, repo := setupSensorReadingsRepo(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT id, temperature, humidity, light_level, uptime_seconds, created_at`).
		WithArgs(int64(404)).
		WillReturnError(sql.ErrNoRows)

	reading, err := repo.GetByID(context.Background(), 404)

	require.Error(t, err)
	assert.Nil(t, reading)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}
