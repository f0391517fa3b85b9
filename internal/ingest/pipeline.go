package ingest

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"homehub-data/internal/domain"
	"homehub-data/internal/livefeed"
	"homehub-data/internal/router"
)

// 单条消息处理的落库超时
const appendTimeout = 5 * time.Second

// LedEventStore LED 事件追加接口
type LedEventStore interface {
	Insert(ctx context.Context, event *domain.LedEvent) error
}

// SensorReadingStore 传感器读数追加接口
type SensorReadingStore interface {
	Insert(ctx context.Context, reading *domain.SensorReading) error
}

// SnapshotCache 最新状态快照写入接口
type SnapshotCache interface {
	SetLedState(ctx context.Context, channel int, stateOn bool) error
	SetLatestReading(ctx context.Context, reading *domain.SensorReading) error
}

// StreamMirror 事件镜像到 Redis Stream，供下游消费
type StreamMirror interface {
	PublishJSON(ctx context.Context, stream string, data interface{}) (string, error)
}

// Broadcaster 实时推送接口
type Broadcaster interface {
	Broadcast(event livefeed.Event)
}

// CommandAck 灯控命令的推送回执（命令不落库）
type CommandAck struct {
	Channel int  `json:"ledNumber"`
	StateOn bool `json:"stateOn"`
}

// Pipeline MQTT 消息接入管道
// 分类 → 追加事件日志 → 更新快照缓存 → 镜像到 Stream → 实时推送
// 缓存与镜像为尽力而为：失败只记日志，不影响已落库的消息
type Pipeline struct {
	ledEvents LedEventStore
	readings  SensorReadingStore
	cache     SnapshotCache
	mirror    StreamMirror
	hub       Broadcaster
	stream    string
	logger    *zap.Logger
}

// NewPipeline 创建接入管道
// cache 与 mirror 可为 nil（对应功能关闭）
func NewPipeline(
	ledEvents LedEventStore,
	readings SensorReadingStore,
	cache SnapshotCache,
	mirror StreamMirror,
	hub Broadcaster,
	stream string,
	logger *zap.Logger,
) *Pipeline {
	return &Pipeline{
		ledEvents: ledEvents,
		readings:  readings,
		cache:     cache,
		mirror:    mirror,
		hub:       hub,
		stream:    stream,
		logger:    logger,
	}
}

// HandleMessage 处理一条入站 MQTT 消息，可并发调用
// 分类失败只记日志并吞掉（设备数据质量问题不应打断订阅）；
// 落库失败返回错误，由传输层记录
func (p *Pipeline) HandleMessage(topic string, payload []byte) error {
	inbound, err := router.Classify(topic, payload)
	if err != nil {
		if errors.Is(err, router.ErrInvalidChannelNumber) {
			p.logger.Warn("Dropping message with invalid channel number",
				zap.String("topic", topic),
				zap.Error(err),
			)
		} else {
			p.logger.Error("Dropping malformed message",
				zap.String("topic", topic),
				zap.Error(err),
			)
		}
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), appendTimeout)
	defer cancel()

	switch inbound.Kind {
	case router.KindActuatorFeedback:
		return p.handleFeedback(ctx, inbound)
	case router.KindSensorReading:
		return p.handleSensorReading(ctx, inbound)
	case router.KindActuatorCommand:
		p.handleCommand(inbound)
		return nil
	default:
		p.logger.Debug("Ignoring unrecognized topic", zap.String("topic", topic))
		return nil
	}
}

func (p *Pipeline) handleFeedback(ctx context.Context, inbound router.Inbound) error {
	event := &domain.LedEvent{
		Channel: inbound.Channel,
		StateOn: inbound.StateOn,
	}
	if err := p.ledEvents.Insert(ctx, event); err != nil {
		p.logger.Error("Failed to append LED event",
			zap.Int("channel", event.Channel),
			zap.Error(err),
		)
		return err
	}

	p.logger.Debug("LED event appended",
		zap.Int64("id", event.ID),
		zap.Int("channel", event.Channel),
		zap.Bool("state_on", event.StateOn),
	)

	if p.cache != nil {
		if err := p.cache.SetLedState(ctx, event.Channel, event.StateOn); err != nil {
			p.logger.Warn("Failed to update LED state snapshot",
				zap.Int("channel", event.Channel),
				zap.Error(err),
			)
		}
	}
	p.mirrorEvent(ctx, livefeed.TopicLedEvents, event)
	p.hub.Broadcast(livefeed.Event{Topic: livefeed.TopicLedEvents, Data: event})
	return nil
}

func (p *Pipeline) handleSensorReading(ctx context.Context, inbound router.Inbound) error {
	reading := &domain.SensorReading{
		Temperature:   inbound.Sensor.Temperature,
		Humidity:      inbound.Sensor.Humidity,
		LightLevel:    inbound.Sensor.LightLevel,
		UptimeSeconds: inbound.Sensor.UptimeSeconds,
	}
	if err := p.readings.Insert(ctx, reading); err != nil {
		p.logger.Error("Failed to append sensor reading", zap.Error(err))
		return err
	}

	p.logger.Debug("Sensor reading appended",
		zap.Int64("id", reading.ID),
		zap.Float64("temperature", reading.Temperature),
		zap.Float64("humidity", reading.Humidity),
		zap.Int("light_level", reading.LightLevel),
	)

	if p.cache != nil {
		if err := p.cache.SetLatestReading(ctx, reading); err != nil {
			p.logger.Warn("Failed to update sensor snapshot", zap.Error(err))
		}
	}
	p.mirrorEvent(ctx, livefeed.TopicSensorData, reading)
	p.hub.Broadcast(livefeed.Event{Topic: livefeed.TopicSensorData, Data: reading})
	return nil
}

// handleCommand 灯控命令只做实时回显，不进事件日志
func (p *Pipeline) handleCommand(inbound router.Inbound) {
	ack := CommandAck{Channel: inbound.Channel, StateOn: inbound.StateOn}
	p.hub.Broadcast(livefeed.Event{Topic: livefeed.TopicLedCommands, Data: ack})
}

func (p *Pipeline) mirrorEvent(ctx context.Context, topic string, data interface{}) {
	if p.mirror == nil {
		return
	}
	if _, err := p.mirror.PublishJSON(ctx, p.stream, livefeed.Event{Topic: topic, Data: data}); err != nil {
		p.logger.Warn("Failed to mirror event to stream",
			zap.String("stream", p.stream),
			zap.String("topic", topic),
			zap.Error(err),
		)
	}
}
