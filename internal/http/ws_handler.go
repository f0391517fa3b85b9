package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"homehub-data/internal/livefeed"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsPingInterval = 30 * time.Second
)

// WSHandler 实时推送的 WebSocket 适配层
// 每个连接对应一个 LiveFeed 订阅者；事件以 {topic, data} JSON 信封下发，
// 慢连接按 Hub 的有界队列策略丢事件，不拖慢其他连接
type WSHandler struct {
	hub      *livefeed.Hub
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewWSHandler 创建 WebSocket Handler
func NewWSHandler(hub *livefeed.Hub, logger *zap.Logger) *WSHandler {
	return &WSHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// 浏览器前端跨端口访问，放开同源限制
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// ServeHTTP 实现 http.Handler 接口
func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	sub := h.hub.Subscribe()
	h.logger.Info("WebSocket client connected",
		zap.String("subscriber_id", sub.ID()),
		zap.String("remote_addr", r.RemoteAddr),
	)

	go h.readLoop(conn, sub)
	h.writeLoop(conn, sub)
}

// readLoop 只为感知客户端断开，收到的消息一律丢弃
func (h *WSHandler) readLoop(conn *websocket.Conn, sub *livefeed.Subscriber) {
	defer h.hub.Unsubscribe(sub)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *WSHandler) writeLoop(conn *websocket.Conn, sub *livefeed.Subscriber) {
	ticker := time.NewTicker(wsPingInterval)
	defer func() {
		ticker.Stop()
		h.hub.Unsubscribe(sub)
		conn.Close()
		h.logger.Info("WebSocket client disconnected", zap.String("subscriber_id", sub.ID()))
	}()

	for {
		select {
		case event, ok := <-sub.C():
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(wsWriteTimeout))
				return
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(event); err != nil {
				h.logger.Debug("WebSocket write failed",
					zap.String("subscriber_id", sub.ID()),
					zap.Error(err),
				)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
