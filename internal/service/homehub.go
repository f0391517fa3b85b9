package service

import (
	"context"
	"database/sql"
	"fmt"

	goredis "github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"homehub-data/internal/config"
	httpapi "homehub-data/internal/http"
	"homehub-data/internal/ingest"
	"homehub-data/internal/livefeed"
	"homehub-data/internal/query"
	"homehub-data/internal/repository"
	"homehub-data/internal/store"
	"homehub-data/pkg/database"
	"homehub-data/pkg/mqtt"
	"homehub-data/pkg/redis"
)

// HomeHub 服务装配：数据库、Redis、MQTT、接入管道、查询引擎与 HTTP 层
type HomeHub struct {
	cfg    *config.Config
	logger *zap.Logger

	db          *sql.DB
	redisClient *goredis.Client
	mqttClient  *mqtt.Client

	hub    *livefeed.Hub
	server *Server
}

// NewHomeHub 装配全部组件并建立外部连接
// 失败时负责清理已建立的连接
func NewHomeHub(cfg *config.Config, logger *zap.Logger) (*HomeHub, error) {
	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect postgres: %w", err)
	}

	redisClient := redis.NewRedisClient(&cfg.Redis)
	if err := redis.Ping(context.Background(), redisClient); err != nil {
		// Redis 只承载快照缓存与流镜像，不可用时降级运行
		logger.Warn("Redis unreachable, snapshot cache and stream mirror disabled", zap.Error(err))
		_ = redis.Close(redisClient)
		redisClient = nil
	}

	mqttClient, err := mqtt.NewClient(&cfg.MQTT, logger)
	if err != nil {
		_ = database.Close(db)
		if redisClient != nil {
			_ = redis.Close(redisClient)
		}
		return nil, fmt.Errorf("failed to connect mqtt broker: %w", err)
	}

	ledEvents := repository.NewLedEventsRepository(db, logger)
	readings := repository.NewSensorReadingsRepository(db, logger)

	hub := livefeed.NewHub(cfg.LiveFeed.SubscriberBuffer, logger)
	engine := query.NewEngine(ledEvents, readings, logger)

	var cache *store.StateCache
	var mirror *ingest.RedisStreamMirror
	if redisClient != nil {
		cache = store.NewStateCache(store.NewRedisKV(redisClient))
		if cfg.Ingest.Stream != "" {
			mirror = ingest.NewRedisStreamMirror(redisClient)
		}
	}

	pipeline := newPipeline(ledEvents, readings, cache, mirror, hub, cfg.Ingest.Stream, logger)
	if err := subscribeIngest(mqttClient, cfg, pipeline); err != nil {
		mqttClient.Disconnect()
		_ = database.Close(db)
		if redisClient != nil {
			_ = redis.Close(redisClient)
		}
		return nil, err
	}

	router := httpapi.NewRouter(logger)
	router.RegisterLedEventRoutes(httpapi.NewLedEventHandler(engine, ledEvents, logger))
	router.RegisterSensorDataRoutes(httpapi.NewSensorDataHandler(engine, readings, logger))
	router.RegisterDeviceRoutes(httpapi.NewDeviceHandler(stateSource(cache), ledEvents, mqttClient, ledEvents, logger))
	router.RegisterWSRoutes(httpapi.NewWSHandler(hub, logger))

	return &HomeHub{
		cfg:         cfg,
		logger:      logger,
		db:          db,
		redisClient: redisClient,
		mqttClient:  mqttClient,
		hub:         hub,
		server:      NewServer(cfg.HTTP.Addr, router, logger),
	}, nil
}

// Start 启动 HTTP 服务，阻塞直到服务退出
func (h *HomeHub) Start() error {
	return h.server.Start()
}

// Stop 按依赖倒序关停：先断上游订阅，再停 HTTP，最后断存储连接
func (h *HomeHub) Stop(ctx context.Context) error {
	h.mqttClient.Disconnect()

	err := h.server.Stop(ctx)

	if h.redisClient != nil {
		_ = redis.Close(h.redisClient)
	}
	_ = database.Close(h.db)
	return err
}

// newPipeline nil 接口适配：具体类型的 nil 指针不能直接塞进接口参数
func newPipeline(
	ledEvents *repository.LedEventsRepository,
	readings *repository.SensorReadingsRepository,
	cache *store.StateCache,
	mirror *ingest.RedisStreamMirror,
	hub *livefeed.Hub,
	stream string,
	logger *zap.Logger,
) *ingest.Pipeline {
	var snapshotCache ingest.SnapshotCache
	if cache != nil {
		snapshotCache = cache
	}
	var streamMirror ingest.StreamMirror
	if mirror != nil {
		streamMirror = mirror
	}
	return ingest.NewPipeline(ledEvents, readings, snapshotCache, streamMirror, hub, stream, logger)
}

func stateSource(cache *store.StateCache) httpapi.StateSource {
	if cache == nil {
		return nil
	}
	return cache
}

func subscribeIngest(client *mqtt.Client, cfg *config.Config, pipeline *ingest.Pipeline) error {
	topics := []string{
		cfg.Ingest.SensorTopic,
		cfg.Ingest.LedStateTopic,
		cfg.Ingest.LampTopic,
	}
	for _, topic := range topics {
		if err := client.Subscribe(topic, cfg.MQTT.QoS, pipeline.HandleMessage); err != nil {
			return fmt.Errorf("failed to subscribe %s: %w", topic, err)
		}
	}
	return nil
}
