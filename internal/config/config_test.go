package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, "homehub", cfg.Database.Database)
	assert.Equal(t, 10, cfg.Database.MaxConns)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "tcp://localhost:1883", cfg.MQTT.Broker)
	assert.Equal(t, byte(1), cfg.MQTT.QoS)
	assert.Equal(t, "home/sensors", cfg.Ingest.SensorTopic)
	assert.Equal(t, "homehub:events:stream", cfg.Ingest.Stream)
	assert.Equal(t, 16, cfg.LiveFeed.SubscriberBuffer)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "5433")
	t.Setenv("DB_DATABASE", "homehub_test")
	t.Setenv("DB_MAX_CONNS", "25")
	t.Setenv("REDIS_ADDR", "redis.internal:6380")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("MQTT_BROKER", "tcp://broker.internal:1883")
	t.Setenv("MQTT_CLIENT_ID", "homehub-test")

	cfg := Load()

	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 5433, cfg.Database.Port)
	assert.Equal(t, "homehub_test", cfg.Database.Database)
	assert.Equal(t, 25, cfg.Database.MaxConns)
	assert.Equal(t, "redis.internal:6380", cfg.Redis.Addr)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, "tcp://broker.internal:1883", cfg.MQTT.Broker)
	assert.Equal(t, "homehub-test", cfg.MQTT.ClientID)
}
