package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"homehub-data/internal/domain"
	"homehub-data/internal/timefilter"

	"go.uber.org/zap"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("record not found")

// LedEventFilter led_events 组合查询条件
// Time 与 Search 互斥（由查询引擎保证），Channel 可与两者任意组合
type LedEventFilter struct {
	Search  string             // 多字段子串匹配（id、channel 的字符串形式）
	Channel *int               // 通道号等值过滤
	Time    *timefilter.Filter // 时间过滤
}

// LedEventsRepository LED事件仓库（追加 + 扫描，无更新/删除）
type LedEventsRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewLedEventsRepository 创建LED事件仓库
func NewLedEventsRepository(db *sql.DB, logger *zap.Logger) *LedEventsRepository {
	return &LedEventsRepository{
		db:     db,
		logger: logger,
	}
}

// Insert 追加一条LED事件，ID 由数据库 BIGSERIAL 分配（并发安全、单调递增、不复用）
// CreatedAt 为零值时由这里补当前时间，写入后不可变
func (r *LedEventsRepository) Insert(ctx context.Context, event *domain.LedEvent) error {
	if event.Channel <= 0 {
		return fmt.Errorf("channel must be positive, got %d", event.Channel)
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO led_events (channel, state_on, created_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query, event.Channel, event.StateOn, event.CreatedAt).Scan(&event.ID)
	if err != nil {
		return fmt.Errorf("failed to insert led_event: %w", err)
	}

	return nil
}

// Search 按组合条件扫描，返回 (items, totalMatching)
// 排序固定 created_at DESC, id DESC，保证分页遍历稳定
func (r *LedEventsRepository) Search(ctx context.Context, filter LedEventFilter, offset, limit int) ([]domain.LedEvent, int, error) {
	where, args := buildLedEventWhere(filter)

	countQuery := "SELECT COUNT(*) FROM led_events" + where
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count led_events: %w", err)
	}

	query := fmt.Sprintf(
		"SELECT id, channel, state_on, created_at FROM led_events%s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d",
		where, len(args)+1, len(args)+2,
	)
	rows, err := r.db.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query led_events: %w", err)
	}
	defer rows.Close()

	events := []domain.LedEvent{}
	for rows.Next() {
		var e domain.LedEvent
		if err := rows.Scan(&e.ID, &e.Channel, &e.StateOn, &e.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan led_event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate led_events: %w", err)
	}

	return events, total, nil
}

// Recent 最近 limit 条事件，新的在前
func (r *LedEventsRepository) Recent(ctx context.Context, limit int) ([]domain.LedEvent, error) {
	query := `
		SELECT id, channel, state_on, created_at
		FROM led_events
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent led_events: %w", err)
	}
	defer rows.Close()

	events := []domain.LedEvent{}
	for rows.Next() {
		var e domain.LedEvent
		if err := rows.Scan(&e.ID, &e.Channel, &e.StateOn, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan led_event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// Count 全表条数
func (r *LedEventsRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM led_events").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count led_events: %w", err)
	}
	return count, nil
}

// LatestState 某通道最近一次记录的状态
func (r *LedEventsRepository) LatestState(ctx context.Context, channel int) (bool, error) {
	query := `
		SELECT state_on
		FROM led_events
		WHERE channel = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`

	var stateOn bool
	err := r.db.QueryRowContext(ctx, query, channel).Scan(&stateOn)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, fmt.Errorf("%w: channel %d", ErrNotFound, channel)
		}
		return false, fmt.Errorf("failed to query latest state: %w", err)
	}
	return stateOn, nil
}

// LatestStates 每个通道最近一次记录的状态
func (r *LedEventsRepository) LatestStates(ctx context.Context) (map[int]bool, error) {
	query := `
		SELECT DISTINCT ON (channel) channel, state_on
		FROM led_events
		ORDER BY channel, created_at DESC, id DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest states: %w", err)
	}
	defer rows.Close()

	states := map[int]bool{}
	for rows.Next() {
		var channel int
		var stateOn bool
		if err := rows.Scan(&channel, &stateOn); err != nil {
			return nil, fmt.Errorf("failed to scan latest state: %w", err)
		}
		states[channel] = stateOn
	}
	return states, rows.Err()
}

func buildLedEventWhere(filter LedEventFilter) (string, []interface{}) {
	clauses := []string{}
	args := []interface{}{}

	if filter.Time != nil {
		clause, timeArgs := timeCondition(filter.Time, len(args))
		clauses = append(clauses, clause)
		args = append(args, timeArgs...)
	} else if filter.Search != "" {
		n := len(args) + 1
		clauses = append(clauses, fmt.Sprintf(
			"(CAST(id AS TEXT) LIKE '%%' || $%d || '%%' OR CAST(channel AS TEXT) LIKE '%%' || $%d || '%%')", n, n))
		args = append(args, escapeLike(filter.Search))
	}

	if filter.Channel != nil {
		clauses = append(clauses, fmt.Sprintf("channel = $%d", len(args)+1))
		args = append(args, *filter.Channel)
	}

	return joinWhere(clauses), args
}
