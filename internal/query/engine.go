package query

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"homehub-data/internal/domain"
	"homehub-data/internal/repository"
	"homehub-data/internal/timefilter"
)

// 分页参数缺省值与上限
const (
	DefaultPageSize = 20
	MaxPageSize     = 200
)

// DeviceFilterAll 设备过滤器通配值（不区分大小写）
const DeviceFilterAll = "all"

// Params 分页查询参数，对应查询接口的 query string
type Params struct {
	Page         int    // 从 0 起
	Size         int
	Search       string // 文本子串过滤
	SearchType   string // 传感器查询的字段限定
	DeviceFilter string // "all" 或通道号字符串
	TimeFilter   string // 时间模式，见 timefilter 包
}

// LedEventSearcher LED 事件扫描接口
type LedEventSearcher interface {
	Search(ctx context.Context, filter repository.LedEventFilter, offset, limit int) ([]domain.LedEvent, int, error)
}

// SensorReadingSearcher 传感器读数扫描接口
type SensorReadingSearcher interface {
	Search(ctx context.Context, filter repository.SensorReadingFilter, offset, limit int) ([]domain.SensorReading, int, error)
}

// Engine 分页查询引擎
// 把宽松的请求参数规整为仓库过滤条件：时间过滤优先于文本过滤，
// 无法解析的时间模式与非整数设备过滤返回空页而不报错
type Engine struct {
	ledEvents LedEventSearcher
	readings  SensorReadingSearcher
	logger    *zap.Logger
}

// NewEngine 创建查询引擎
func NewEngine(ledEvents LedEventSearcher, readings SensorReadingSearcher, logger *zap.Logger) *Engine {
	return &Engine{
		ledEvents: ledEvents,
		readings:  readings,
		logger:    logger,
	}
}

// ExportMaxRows 历史导出的行数上限
const ExportMaxRows = 10000

// SearchLedEvents LED 事件分页查询
func (e *Engine) SearchLedEvents(ctx context.Context, params Params) (domain.Page[domain.LedEvent], error) {
	params = normalize(params)

	filter, usable := e.buildLedEventFilter(params)
	if !usable {
		return domain.EmptyPage[domain.LedEvent](params.Page, params.Size), nil
	}

	items, total, err := e.ledEvents.Search(ctx, filter, params.Page*params.Size, params.Size)
	if err != nil {
		return domain.Page[domain.LedEvent]{}, err
	}
	return domain.NewPage(items, params.Page, params.Size, total), nil
}

// LedEventHistory 导出用：返回过滤后的事件全集，上限 ExportMaxRows
// 过滤条件不可用时与分页查询一致，返回空集而不报错
func (e *Engine) LedEventHistory(ctx context.Context, params Params) ([]domain.LedEvent, error) {
	filter, usable := e.buildLedEventFilter(params)
	if !usable {
		return []domain.LedEvent{}, nil
	}

	items, _, err := e.ledEvents.Search(ctx, filter, 0, ExportMaxRows)
	if err != nil {
		return nil, err
	}
	return items, nil
}

// buildLedEventFilter 把请求参数规整为仓库过滤条件
// 第二个返回值为 false 时调用方应返回空结果
func (e *Engine) buildLedEventFilter(params Params) (repository.LedEventFilter, bool) {
	filter := repository.LedEventFilter{}

	if channel, ok, valid := parseDeviceFilter(params.DeviceFilter); !valid {
		e.logger.Debug("Non-numeric device filter, returning empty page",
			zap.String("device_filter", params.DeviceFilter),
		)
		return filter, false
	} else if ok {
		filter.Channel = &channel
	}

	timeF, ok, valid := parseTimeFilter(e.logger, params.TimeFilter)
	if !valid {
		return filter, false
	}
	if ok {
		// 时间过滤在场时文本过滤被忽略
		filter.Time = timeF
	} else {
		filter.Search = strings.TrimSpace(params.Search)
	}
	return filter, true
}

// SearchSensorReadings 传感器读数分页查询
func (e *Engine) SearchSensorReadings(ctx context.Context, params Params) (domain.Page[domain.SensorReading], error) {
	params = normalize(params)

	filter := repository.SensorReadingFilter{}

	timeF, ok, valid := parseTimeFilter(e.logger, params.TimeFilter)
	if !valid {
		return domain.EmptyPage[domain.SensorReading](params.Page, params.Size), nil
	}
	if ok {
		filter.Time = timeF
	} else {
		filter.Search = strings.TrimSpace(params.Search)
		filter.SearchField = sensorSearchField(params.SearchType)
	}

	items, total, err := e.readings.Search(ctx, filter, params.Page*params.Size, params.Size)
	if err != nil {
		return domain.Page[domain.SensorReading]{}, err
	}
	return domain.NewPage(items, params.Page, params.Size, total), nil
}

// normalize 页码与页长收敛到合法区间
func normalize(params Params) Params {
	if params.Page < 0 {
		params.Page = 0
	}
	if params.Size <= 0 {
		params.Size = DefaultPageSize
	}
	if params.Size > MaxPageSize {
		params.Size = MaxPageSize
	}
	return params
}

// parseDeviceFilter 返回 (channel, 是否启用过滤, 是否合法)
// 空值或 "all" 表示不过滤；非整数为不合法（调用方返回空页）
func parseDeviceFilter(raw string) (int, bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, DeviceFilterAll) {
		return 0, false, true
	}
	channel, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, false
	}
	return channel, true, true
}

// parseTimeFilter 返回 (filter, 是否启用, 是否合法)
// 无法识别或分量越界的模式视为不合法，调用方返回空页而不是错误
func parseTimeFilter(logger *zap.Logger, raw string) (*timefilter.Filter, bool, bool) {
	if strings.TrimSpace(raw) == "" {
		return nil, false, true
	}
	f, err := timefilter.Parse(raw)
	if err != nil {
		if errors.Is(err, timefilter.ErrUnrecognizedPattern) || errors.Is(err, timefilter.ErrInvalidTimeComponent) {
			logger.Debug("Unusable time filter, returning empty page",
				zap.String("time_filter", raw),
				zap.Error(err),
			)
			return nil, false, false
		}
		return nil, false, false
	}
	return &f, true, true
}

func sensorSearchField(searchType string) repository.SensorSearchField {
	switch strings.ToLower(strings.TrimSpace(searchType)) {
	case "id":
		return repository.SensorFieldID
	case "temperature":
		return repository.SensorFieldTemperature
	case "humidity":
		return repository.SensorFieldHumidity
	case "light":
		return repository.SensorFieldLight
	default:
		return repository.SensorFieldAuto
	}
}
