package httpapi

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"homehub-data/internal/domain"
	"homehub-data/internal/repository"
	"homehub-data/internal/store"
)

// StateSource 状态快照缓存读取接口
type StateSource interface {
	GetLedState(ctx context.Context, channel int) (bool, error)
}

// LedStateReader 仓库中按事件日志回放出的最新状态
type LedStateReader interface {
	LatestState(ctx context.Context, channel int) (bool, error)
	LatestStates(ctx context.Context) (map[int]bool, error)
}

// CommandPublisher 控制命令下发接口（MQTT）
type CommandPublisher interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
}

// LedEventAppender 控制路径落一条意图事件
type LedEventAppender interface {
	Insert(ctx context.Context, event *domain.LedEvent) error
}

// DeviceHandler 设备状态与控制 Handler
type DeviceHandler struct {
	cache     StateSource
	states    LedStateReader
	publisher CommandPublisher
	appender  LedEventAppender
	logger    *zap.Logger
}

// NewDeviceHandler 创建设备状态与控制 Handler
// cache 可为 nil（快照缓存关闭，直接回放数据库）
func NewDeviceHandler(cache StateSource, states LedStateReader, publisher CommandPublisher, appender LedEventAppender, logger *zap.Logger) *DeviceHandler {
	return &DeviceHandler{
		cache:     cache,
		states:    states,
		publisher: publisher,
		appender:  appender,
		logger:    logger,
	}
}

// ServeHTTP 实现 http.Handler 接口
func (h *DeviceHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// 路由分发
	path := r.URL.Path
	switch {
	case path == "/api/leds/stats" && r.Method == http.MethodGet:
		h.Stats(w, r)
	case strings.HasPrefix(path, "/api/leds/") && strings.HasSuffix(path, "/state") && r.Method == http.MethodGet:
		channelStr := strings.TrimSuffix(strings.TrimPrefix(path, "/api/leds/"), "/state")
		h.State(w, r, channelStr)
	case strings.HasPrefix(path, "/api/leds/") && strings.HasSuffix(path, "/control") && r.Method == http.MethodPost:
		channelStr := strings.TrimSuffix(strings.TrimPrefix(path, "/api/leds/"), "/control")
		h.Control(w, r, channelStr)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// State 某通道的当前状态：快照缓存优先，未命中回放事件日志
func (h *DeviceHandler) State(w http.ResponseWriter, r *http.Request, channelStr string) {
	ctx := r.Context()

	channel, ok := parseChannelParam(w, channelStr)
	if !ok {
		return
	}

	if h.cache != nil {
		stateOn, err := h.cache.GetLedState(ctx, channel)
		if err == nil {
			writeJSON(w, http.StatusOK, LedStateResponse{Channel: channel, StateOn: stateOn, Source: "cache"})
			return
		}
		if !errors.Is(err, store.ErrMiss) {
			h.logger.Warn("LED state cache lookup failed, falling back to database",
				zap.Int("channel", channel),
				zap.Error(err),
			)
		}
	}

	stateOn, err := h.states.LatestState(ctx, channel)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, fail(fmt.Sprintf("no state recorded for led %d", channel)))
			return
		}
		h.logger.Error("LatestState failed", zap.Int("channel", channel), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, fail("failed to read led state"))
		return
	}
	writeJSON(w, http.StatusOK, LedStateResponse{Channel: channel, StateOn: stateOn, Source: "database"})
}

// Control 下发控制命令：发布到 home/lamps/{n} 并落一条意图事件
// state 参数恰好为 "1" 表示开，其他值表示关
func (h *DeviceHandler) Control(w http.ResponseWriter, r *http.Request, channelStr string) {
	ctx := r.Context()

	channel, ok := parseChannelParam(w, channelStr)
	if !ok {
		return
	}

	stateOn := r.URL.Query().Get("state") == "1"
	payload := "0"
	if stateOn {
		payload = "1"
	}

	topic := fmt.Sprintf("home/lamps/%d", channel)
	if err := h.publisher.Publish(topic, 1, false, []byte(payload)); err != nil {
		h.logger.Error("Failed to publish control command",
			zap.String("topic", topic),
			zap.Error(err),
		)
		writeJSON(w, http.StatusBadGateway, fail("failed to publish control command"))
		return
	}

	event := &domain.LedEvent{Channel: channel, StateOn: stateOn}
	if err := h.appender.Insert(ctx, event); err != nil {
		// 命令已发出，落库失败只记日志，不让调用方误以为命令未下发
		h.logger.Error("Failed to append commanded event",
			zap.Int("channel", channel),
			zap.Error(err),
		)
	}

	h.logger.Info("Control command published",
		zap.Int("channel", channel),
		zap.Bool("state_on", stateOn),
	)
	writeJSON(w, http.StatusOK, ControlResponse{Channel: channel, StateOn: stateOn, Status: "sent"})
}

// Stats 设备面板统计：活跃通道数与占比
func (h *DeviceHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	states, err := h.states.LatestStates(ctx)
	if err != nil {
		h.logger.Error("LatestStates failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, fail("failed to read led states"))
		return
	}

	active := 0
	for _, on := range states {
		if on {
			active++
		}
	}

	percentage := 0.0
	if len(states) > 0 {
		percentage = math.Round(float64(active)/float64(len(states))*10000) / 100
	}

	writeJSON(w, http.StatusOK, DeviceStatsResponse{
		Active:      active,
		Total:       len(states),
		Percentage:  percentage,
		LastUpdated: time.Now(),
	})
}

func parseChannelParam(w http.ResponseWriter, channelStr string) (int, bool) {
	channel, err := strconv.Atoi(channelStr)
	if err != nil || channel <= 0 {
		writeJSON(w, http.StatusBadRequest, fail("invalid led number"))
		return 0, false
	}
	return channel, true
}
