package domain

import "time"

// LedEvent LED事件领域模型（对应 led_events 表）
// 追加式日志：一条记录对应一次观测到或下发的输出通道状态变化，写入后不再修改
type LedEvent struct {
	// 主键，由数据库 BIGSERIAL 自增分配，永不复用
	ID int64 `db:"id" json:"id"`

	// 输出通道号（正整数，如 LED/继电器编号）
	Channel int `db:"channel" json:"ledNumber"`

	// 通道状态
	StateOn bool `db:"state_on" json:"stateOn"`

	// 入库时间
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
