package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"homehub-data/internal/domain"
	"homehub-data/internal/query"
	"homehub-data/internal/repository"
)

// SensorQueries 查询引擎中传感器读数相关的能力
type SensorQueries interface {
	SearchSensorReadings(ctx context.Context, params query.Params) (domain.Page[domain.SensorReading], error)
}

// SensorReader 仓库的直读能力
type SensorReader interface {
	Recent(ctx context.Context, limit int) ([]domain.SensorReading, error)
	Count(ctx context.Context) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.SensorReading, error)
}

// SensorDataHandler 传感器读数查询 Handler
type SensorDataHandler struct {
	queries SensorQueries
	reader  SensorReader
	logger  *zap.Logger
}

// NewSensorDataHandler 创建传感器读数查询 Handler
func NewSensorDataHandler(queries SensorQueries, reader SensorReader, logger *zap.Logger) *SensorDataHandler {
	return &SensorDataHandler{
		queries: queries,
		reader:  reader,
		logger:  logger,
	}
}

// ServeHTTP 实现 http.Handler 接口
func (h *SensorDataHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// 路由分发
	path := r.URL.Path
	switch {
	case path == "/api/sensor-data/paginated" && r.Method == http.MethodGet:
		h.Paginated(w, r)
	case path == "/api/sensor-data/recent" && r.Method == http.MethodGet:
		h.Recent(w, r)
	case path == "/api/sensor-data/count" && r.Method == http.MethodGet:
		h.Count(w, r)
	case strings.HasPrefix(path, "/api/sensor-data/") && r.Method == http.MethodGet:
		idStr := strings.TrimPrefix(path, "/api/sensor-data/")
		if idStr != "" && !strings.Contains(idStr, "/") {
			h.GetByID(w, r, idStr)
		} else {
			w.WriteHeader(http.StatusNotFound)
		}
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// Paginated 分页查询传感器读数
func (h *SensorDataHandler) Paginated(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	params := query.Params{
		Page:       parseInt(q.Get("page"), 0),
		Size:       parseInt(q.Get("size"), query.DefaultPageSize),
		Search:     q.Get("search"),
		SearchType: q.Get("searchType"),
		TimeFilter: q.Get("timeFilter"),
	}

	page, err := h.queries.SearchSensorReadings(ctx, params)
	if err != nil {
		h.logger.Error("SearchSensorReadings failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, fail("failed to query sensor data"))
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// Recent 最近 50 条传感器读数
func (h *SensorDataHandler) Recent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	readings, err := h.reader.Recent(ctx, recentLimit)
	if err != nil {
		h.logger.Error("Recent sensor readings failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, fail("failed to query sensor data"))
		return
	}
	writeJSON(w, http.StatusOK, readings)
}

// Count 传感器读数总量
func (h *SensorDataHandler) Count(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	total, err := h.reader.Count(ctx)
	if err != nil {
		h.logger.Error("Count sensor readings failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, fail("failed to count sensor data"))
		return
	}
	writeJSON(w, http.StatusOK, CountResponse{Count: total})
}

// GetByID 按 ID 查询单条读数
func (h *SensorDataHandler) GetByID(w http.ResponseWriter, r *http.Request, idStr string) {
	ctx := r.Context()

	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, fail("invalid sensor reading id"))
		return
	}

	reading, err := h.reader.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, fail("sensor reading not found"))
			return
		}
		h.logger.Error("GetByID sensor reading failed", zap.Int64("id", id), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, fail("failed to query sensor data"))
		return
	}
	writeJSON(w, http.StatusOK, reading)
}
