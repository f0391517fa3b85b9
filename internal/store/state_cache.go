package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"homehub-data/internal/domain"
)

// 快照键格式与TTL
// LED 状态不设过期（状态在下一次事件前一直有效），传感器快照 24h 兜底过期
const (
	ledStateKeyFmt    = "homehub:led:%d:state"
	sensorLatestKey   = "homehub:sensor:latest"
	sensorSnapshotTTL = 24 * time.Hour
)

// StateCache 最新状态快照缓存
// 接入管道在每次成功落库后写入；读路径（设备状态接口）优先查缓存，未命中回退数据库
type StateCache struct {
	kv KV
}

// NewStateCache 创建快照缓存
func NewStateCache(kv KV) *StateCache {
	return &StateCache{kv: kv}
}

// SetLedState 写入某通道最新状态
func (c *StateCache) SetLedState(ctx context.Context, channel int, stateOn bool) error {
	value := "0"
	if stateOn {
		value = "1"
	}
	return c.kv.Set(ctx, fmt.Sprintf(ledStateKeyFmt, channel), value, 0)
}

// GetLedState 读取某通道最新状态，未命中返回 ErrMiss
func (c *StateCache) GetLedState(ctx context.Context, channel int) (bool, error) {
	val, err := c.kv.Get(ctx, fmt.Sprintf(ledStateKeyFmt, channel))
	if err != nil {
		return false, err
	}
	return val == "1", nil
}

// SetLatestReading 写入最新传感器读数快照
func (c *StateCache) SetLatestReading(ctx context.Context, reading *domain.SensorReading) error {
	data, err := json.Marshal(reading)
	if err != nil {
		return fmt.Errorf("failed to marshal sensor reading: %w", err)
	}
	return c.kv.Set(ctx, sensorLatestKey, string(data), sensorSnapshotTTL)
}

// GetLatestReading 读取最新传感器读数快照，未命中返回 ErrMiss
func (c *StateCache) GetLatestReading(ctx context.Context) (*domain.SensorReading, error) {
	val, err := c.kv.Get(ctx, sensorLatestKey)
	if err != nil {
		return nil, err
	}
	var reading domain.SensorReading
	if err := json.Unmarshal([]byte(val), &reading); err != nil {
		return nil, fmt.Errorf("failed to unmarshal sensor reading: %w", err)
	}
	return &reading, nil
}
