package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"homehub-data/internal/domain"
	"homehub-data/internal/query"
)

const recentLimit = 50

// LedEventQueries 查询引擎中 LED 事件相关的能力
type LedEventQueries interface {
	SearchLedEvents(ctx context.Context, params query.Params) (domain.Page[domain.LedEvent], error)
	LedEventHistory(ctx context.Context, params query.Params) ([]domain.LedEvent, error)
}

// LedEventReader 仓库的直读能力（最近事件、总量）
type LedEventReader interface {
	Recent(ctx context.Context, limit int) ([]domain.LedEvent, error)
	Count(ctx context.Context) (int64, error)
}

// LedEventHandler LED 事件查询 Handler
type LedEventHandler struct {
	queries LedEventQueries
	reader  LedEventReader
	logger  *zap.Logger
}

// NewLedEventHandler 创建 LED 事件查询 Handler
func NewLedEventHandler(queries LedEventQueries, reader LedEventReader, logger *zap.Logger) *LedEventHandler {
	return &LedEventHandler{
		queries: queries,
		reader:  reader,
		logger:  logger,
	}
}

// ServeHTTP 实现 http.Handler 接口
func (h *LedEventHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// 路由分发
	path := r.URL.Path
	switch {
	case path == "/api/led-events/paginated" && r.Method == http.MethodGet:
		h.Paginated(w, r)
	case path == "/api/led-events/recent" && r.Method == http.MethodGet:
		h.Recent(w, r)
	case path == "/api/led-events/stats" && r.Method == http.MethodGet:
		h.Stats(w, r)
	case path == "/api/led-events/export" && r.Method == http.MethodGet:
		h.Export(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// Paginated 分页查询 LED 事件
func (h *LedEventHandler) Paginated(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	params := ledEventParams(r)

	page, err := h.queries.SearchLedEvents(ctx, params)
	if err != nil {
		h.logger.Error("SearchLedEvents failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, fail("failed to query led events"))
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// Recent 最近 50 条 LED 事件
func (h *LedEventHandler) Recent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	events, err := h.reader.Recent(ctx, recentLimit)
	if err != nil {
		h.logger.Error("Recent led events failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, fail("failed to query led events"))
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// Stats LED 事件总量统计
func (h *LedEventHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	total, err := h.reader.Count(ctx)
	if err != nil {
		h.logger.Error("Count led events failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, fail("failed to count led events"))
		return
	}
	writeJSON(w, http.StatusOK, EventStatsResponse{TotalEvents: total, Status: "ok"})
}

// Export 导出过滤后的历史为 xlsx，过滤参数与 /paginated 一致
func (h *LedEventHandler) Export(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	events, err := h.queries.LedEventHistory(ctx, ledEventParams(r))
	if err != nil {
		h.logger.Error("LedEventHistory failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, fail("failed to export led events"))
		return
	}

	filename := fmt.Sprintf("led-events-%s.xlsx", time.Now().Format("20060102-150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))

	if err := writeLedEventsXLSX(w, events); err != nil {
		h.logger.Error("Write xlsx failed", zap.Error(err))
	}
}

func ledEventParams(r *http.Request) query.Params {
	q := r.URL.Query()
	return query.Params{
		Page:         parseInt(q.Get("page"), 0),
		Size:         parseInt(q.Get("size"), query.DefaultPageSize),
		Search:       q.Get("search"),
		DeviceFilter: q.Get("deviceFilter"),
		TimeFilter:   q.Get("timeFilter"),
	}
}
