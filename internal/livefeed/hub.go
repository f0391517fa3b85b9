package livefeed

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// 推送通道名，与前端订阅的 destination 对应
const (
	TopicLedEvents   = "led-events"
	TopicSensorData  = "sensor-data"
	TopicLedCommands = "led-commands"
)

// Event 实时推送事件
type Event struct {
	Topic string      `json:"topic"`
	Data  interface{} `json:"data"`
}

// Subscriber 订阅者句柄，持有一个有界队列
// 队列写满时该订阅者丢弃最新事件，不影响其他订阅者，也不阻塞广播方
type Subscriber struct {
	id string
	ch chan Event

	mu     sync.Mutex
	closed bool
}

// ID 订阅者标识
func (s *Subscriber) ID() string {
	return s.id
}

// C 接收通道，订阅者被注销时关闭
func (s *Subscriber) C() <-chan Event {
	return s.ch
}

// Hub 进程内实时分发中心
// Broadcast 与 Subscribe/Unsubscribe 可并发调用；广播遍历期间
// 订阅者要么完整在场要么完整不在场，不会观察到中间状态
type Hub struct {
	mu          sync.Mutex
	subscribers map[string]*Subscriber
	buffer      int
	logger      *zap.Logger
}

// NewHub 创建分发中心
// buffer 为每个订阅者的队列长度，非正值回退为 16
func NewHub(buffer int, logger *zap.Logger) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	return &Hub{
		subscribers: make(map[string]*Subscriber),
		buffer:      buffer,
		logger:      logger,
	}
}

// Subscribe 注册一个新订阅者
func (h *Hub) Subscribe() *Subscriber {
	sub := &Subscriber{
		id: uuid.New().String(),
		ch: make(chan Event, h.buffer),
	}

	h.mu.Lock()
	h.subscribers[sub.id] = sub
	count := len(h.subscribers)
	h.mu.Unlock()

	h.logger.Debug("Live feed subscriber registered",
		zap.String("subscriber_id", sub.id),
		zap.Int("subscribers", count),
	)
	return sub
}

// Unsubscribe 注销订阅者并关闭其通道
// 幂等：重复注销无副作用，与进行中的 Broadcast 并发安全
func (h *Hub) Unsubscribe(sub *Subscriber) {
	if sub == nil {
		return
	}

	h.mu.Lock()
	delete(h.subscribers, sub.id)
	h.mu.Unlock()

	sub.mu.Lock()
	if !sub.closed {
		sub.closed = true
		close(sub.ch)
	}
	sub.mu.Unlock()
}

// Broadcast 将事件入队到所有当前订阅者
// 非阻塞：某订阅者队列已满时只对该订阅者丢弃本条事件，不重试
func (h *Hub) Broadcast(event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, sub := range h.subscribers {
		select {
		case sub.ch <- event:
		default:
			h.logger.Debug("Live feed subscriber queue full, dropping event",
				zap.String("subscriber_id", sub.id),
				zap.String("topic", event.Topic),
			)
		}
	}
}

// SubscriberCount 当前订阅者数量
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}
