package httpapi

import "time"

// ErrorResponse 错误响应体
type ErrorResponse struct {
	Error string `json:"error"`
}

// EventStatsResponse LED 事件总量统计
type EventStatsResponse struct {
	TotalEvents int64  `json:"totalEvents"`
	Status      string `json:"status"`
}

// CountResponse 计数响应
type CountResponse struct {
	Count int64 `json:"count"`
}

// LedStateResponse 单个通道的当前状态
// Source 标明取值来源（cache / database）
type LedStateResponse struct {
	Channel int    `json:"ledNumber"`
	StateOn bool   `json:"stateOn"`
	Source  string `json:"source"`
}

// ControlResponse 控制命令下发结果
type ControlResponse struct {
	Channel int    `json:"ledNumber"`
	StateOn bool   `json:"stateOn"`
	Status  string `json:"status"`
}

// DeviceStatsResponse 设备面板统计
type DeviceStatsResponse struct {
	Active      int       `json:"active"`
	Total       int       `json:"total"`
	Percentage  float64   `json:"percentage"`
	LastUpdated time.Time `json:"lastUpdated"`
}

func fail(message string) ErrorResponse {
	return ErrorResponse{Error: message}
}
