package ingest

import (
	"context"

	goredis "github.com/go-redis/redis/v8"

	"homehub-data/pkg/redis"
)

// RedisStreamMirror 基于 Redis Stream 的事件镜像实现
type RedisStreamMirror struct {
	client *goredis.Client
}

// NewRedisStreamMirror 创建 Stream 镜像
func NewRedisStreamMirror(client *goredis.Client) *RedisStreamMirror {
	return &RedisStreamMirror{client: client}
}

// PublishJSON 将事件以 JSON 形式写入指定 Stream
func (m *RedisStreamMirror) PublishJSON(ctx context.Context, stream string, data interface{}) (string, error) {
	return redis.PublishJSONToStream(ctx, m.client, stream, data)
}
