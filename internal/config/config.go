package config

import (
	"os"
	"strconv"

	commoncfg "homehub-data/pkg/config"
)

// Config homehub-data 服务配置
type Config struct {
	HTTP struct {
		Addr string
	}
	Database commoncfg.DatabaseConfig
	Redis    commoncfg.RedisConfig
	MQTT     commoncfg.MQTTConfig

	// Ingest 接入管道配置
	Ingest struct {
		SensorTopic   string // 传感器数据主题
		LedStateTopic string // LED 状态反馈主题（含通配符）
		LampTopic     string // LED 控制命令主题（含通配符）
		Stream        string // Redis Streams 输出流，为空则不镜像
	}

	// LiveFeed 实时推送配置
	LiveFeed struct {
		SubscriberBuffer int // 每个订阅者的队列长度，写满则丢弃最新事件
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load 加载配置：先填默认值，再让共享配置结构从环境变量覆盖
func Load() *Config {
	cfg := &Config{}

	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")

	cfg.Database = commoncfg.DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "postgres",
		Database: "homehub",
		SSLMode:  "disable",
	}
	cfg.Database.LoadFromEnv("DB")
	// 连接池参数是本服务关心的，不在共享结构的环境变量集里
	cfg.Database.MaxConns = parseInt(getEnv("DB_MAX_CONNS", "10"), 10)
	cfg.Database.MaxIdle = parseInt(getEnv("DB_MAX_IDLE", "5"), 5)

	cfg.Redis = commoncfg.RedisConfig{Addr: "localhost:6379"}
	cfg.Redis.LoadFromEnv("REDIS")

	cfg.MQTT = commoncfg.MQTTConfig{
		Broker:   "tcp://localhost:1883",
		ClientID: "homehub-data",
		QoS:      1,
	}
	cfg.MQTT.LoadFromEnv("MQTT")

	cfg.Ingest.SensorTopic = getEnv("INGEST_SENSOR_TOPIC", "home/sensors")
	cfg.Ingest.LedStateTopic = getEnv("INGEST_LED_STATE_TOPIC", "home/devices/+/led/+/state")
	cfg.Ingest.LampTopic = getEnv("INGEST_LAMP_TOPIC", "home/lamps/+")
	cfg.Ingest.Stream = getEnv("INGEST_STREAM", "homehub:events:stream")

	cfg.LiveFeed.SubscriberBuffer = parseInt(getEnv("LIVEFEED_SUBSCRIBER_BUFFER", "16"), 16)

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}
