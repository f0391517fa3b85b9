package httpapi

import (
	"net/http"

	"go.uber.org/zap"
)

// Router 使用标准库 http.ServeMux（避免引入第三方路由依赖）
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// RegisterLedEventRoutes LED 事件查询与导出
func (r *Router) RegisterLedEventRoutes(h *LedEventHandler) {
	r.mux.Handle("/api/led-events/", h)
}

// RegisterSensorDataRoutes 传感器读数查询
func (r *Router) RegisterSensorDataRoutes(h *SensorDataHandler) {
	r.mux.Handle("/api/sensor-data/", h)
}

// RegisterDeviceRoutes 设备状态与控制
func (r *Router) RegisterDeviceRoutes(h *DeviceHandler) {
	r.mux.Handle("/api/leds/", h)
}

// RegisterWSRoutes 实时推送
func (r *Router) RegisterWSRoutes(h *WSHandler) {
	r.mux.Handle("/ws", h)
}
