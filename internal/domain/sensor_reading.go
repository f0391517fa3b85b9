package domain

import "time"

// SensorReading 传感器读数领域模型（对应 sensor_readings 表）
// 追加式日志，同 LedEvent
type SensorReading struct {
	// 主键，BIGSERIAL 自增
	ID int64 `db:"id" json:"id"`

	// 温度（摄氏度）
	Temperature float64 `db:"temperature" json:"temperature"`

	// 湿度（百分比）
	Humidity float64 `db:"humidity" json:"humidity"`

	// 光照百分比，由原始 ADC 值换算：round((1 - raw/4095) * 100)
	// 原始值超出 [0,4095] 时结果也会超出 [0,100]，不做截断（保留源系统行为）
	LightLevel int `db:"light_level" json:"lightLevel"`

	// 设备上报的运行时长（秒），可选
	UptimeSeconds int64 `db:"uptime_seconds" json:"uptimeSeconds"`

	// 入库时间
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
