package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"homehub-data/internal/domain"
	"homehub-data/internal/timefilter"

	"go.uber.org/zap"
)

// SensorSearchField 限定子串匹配的字段，空值或未知值表示多字段 OR 匹配
type SensorSearchField string

const (
	SensorFieldAuto        SensorSearchField = ""
	SensorFieldID          SensorSearchField = "id"
	SensorFieldTemperature SensorSearchField = "temperature"
	SensorFieldHumidity    SensorSearchField = "humidity"
	SensorFieldLight       SensorSearchField = "light"
)

// SensorReadingFilter sensor_readings 组合查询条件
type SensorReadingFilter struct {
	Search      string
	SearchField SensorSearchField
	Time        *timefilter.Filter
}

// SensorReadingsRepository 传感器读数仓库
type SensorReadingsRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSensorReadingsRepository 创建传感器读数仓库
func NewSensorReadingsRepository(db *sql.DB, logger *zap.Logger) *SensorReadingsRepository {
	return &SensorReadingsRepository{
		db:     db,
		logger: logger,
	}
}

// Insert 追加一条传感器读数，ID 由 BIGSERIAL 分配
func (r *SensorReadingsRepository) Insert(ctx context.Context, reading *domain.SensorReading) error {
	if reading.CreatedAt.IsZero() {
		reading.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO sensor_readings (temperature, humidity, light_level, uptime_seconds, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query,
		reading.Temperature,
		reading.Humidity,
		reading.LightLevel,
		reading.UptimeSeconds,
		reading.CreatedAt,
	).Scan(&reading.ID)
	if err != nil {
		return fmt.Errorf("failed to insert sensor_reading: %w", err)
	}

	return nil
}

// Search 按组合条件扫描，返回 (items, totalMatching)，排序同 led_events
func (r *SensorReadingsRepository) Search(ctx context.Context, filter SensorReadingFilter, offset, limit int) ([]domain.SensorReading, int, error) {
	where, args := buildSensorReadingWhere(filter)

	countQuery := "SELECT COUNT(*) FROM sensor_readings" + where
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count sensor_readings: %w", err)
	}

	query := fmt.Sprintf(
		"SELECT id, temperature, humidity, light_level, uptime_seconds, created_at FROM sensor_readings%s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d",
		where, len(args)+1, len(args)+2,
	)
	rows, err := r.db.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query sensor_readings: %w", err)
	}
	defer rows.Close()

	readings := []domain.SensorReading{}
	for rows.Next() {
		var s domain.SensorReading
		if err := rows.Scan(&s.ID, &s.Temperature, &s.Humidity, &s.LightLevel, &s.UptimeSeconds, &s.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan sensor_reading: %w", err)
		}
		readings = append(readings, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate sensor_readings: %w", err)
	}

	return readings, total, nil
}

// Recent 最近 limit 条读数，新的在前
func (r *SensorReadingsRepository) Recent(ctx context.Context, limit int) ([]domain.SensorReading, error) {
	query := `
		SELECT id, temperature, humidity, light_level, uptime_seconds, created_at
		FROM sensor_readings
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent sensor_readings: %w", err)
	}
	defer rows.Close()

	readings := []domain.SensorReading{}
	for rows.Next() {
		var s domain.SensorReading
		if err := rows.Scan(&s.ID, &s.Temperature, &s.Humidity, &s.LightLevel, &s.UptimeSeconds, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan sensor_reading: %w", err)
		}
		readings = append(readings, s)
	}
	return readings, rows.Err()
}

// Count 全表条数
func (r *SensorReadingsRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sensor_readings").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count sensor_readings: %w", err)
	}
	return count, nil
}

// GetByID 按ID查询单条读数
func (r *SensorReadingsRepository) GetByID(ctx context.Context, id int64) (*domain.SensorReading, error) {
	query := `
		SELECT id, temperature, humidity, light_level, uptime_seconds, created_at
		FROM sensor_readings
		WHERE id = $1
	`

	var s domain.SensorReading
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&s.ID, &s.Temperature, &s.Humidity, &s.LightLevel, &s.UptimeSeconds, &s.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: sensor_reading %d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to query sensor_reading: %w", err)
	}
	return &s, nil
}

func buildSensorReadingWhere(filter SensorReadingFilter) (string, []interface{}) {
	clauses := []string{}
	args := []interface{}{}

	if filter.Time != nil {
		clause, timeArgs := timeCondition(filter.Time, len(args))
		clauses = append(clauses, clause)
		args = append(args, timeArgs...)
	} else if filter.Search != "" {
		n := len(args) + 1
		switch filter.SearchField {
		case SensorFieldID:
			clauses = append(clauses, fmt.Sprintf("CAST(id AS TEXT) LIKE '%%' || $%d || '%%'", n))
		case SensorFieldTemperature:
			clauses = append(clauses, fmt.Sprintf("CAST(temperature AS TEXT) LIKE '%%' || $%d || '%%'", n))
		case SensorFieldHumidity:
			clauses = append(clauses, fmt.Sprintf("CAST(humidity AS TEXT) LIKE '%%' || $%d || '%%'", n))
		case SensorFieldLight:
			clauses = append(clauses, fmt.Sprintf("CAST(light_level AS TEXT) LIKE '%%' || $%d || '%%'", n))
		default:
			clauses = append(clauses, fmt.Sprintf(
				"(CAST(id AS TEXT) LIKE '%%' || $%d || '%%' OR CAST(temperature AS TEXT) LIKE '%%' || $%d || '%%' OR CAST(humidity AS TEXT) LIKE '%%' || $%d || '%%' OR CAST(light_level AS TEXT) LIKE '%%' || $%d || '%%')",
				n, n, n, n))
		}
		args = append(args, escapeLike(filter.Search))
	}

	return joinWhere(clauses), args
}
