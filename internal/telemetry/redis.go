package telemetry

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/mj1618/locator-cli/internal/config"
	"github.com/mj1618/locator-cli/internal/model"
)

// RedisLog keeps events as JSON entries of a Redis list. RPUSH is atomic, so
// several processes can share one log.
type RedisLog struct {
	client *redis.Client
	key    string
}

// NewRedisLog connects to Redis and verifies the connection.
func NewRedisLog(ctx context.Context, cfg config.Redis) (*RedisLog, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", cfg.Addr, err)
	}
	key := cfg.Key
	if key == "" {
		key = "locator:healing_events"
	}
	return &RedisLog{client: client, key: key}, nil
}

func (r *RedisLog) Append(ctx context.Context, ev model.HealingEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := r.client.RPush(ctx, r.key, data).Err(); err != nil {
		return fmt.Errorf("append healing event: %w", err)
	}
	return nil
}

func (r *RedisLog) Events(ctx context.Context) ([]model.HealingEvent, error) {
	entries, err := r.client.LRange(ctx, r.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read healing events: %w", err)
	}
	out := make([]model.HealingEvent, 0, len(entries))
	for i, entry := range entries {
		var ev model.HealingEvent
		if err := json.Unmarshal([]byte(entry), &ev); err != nil {
			return nil, fmt.Errorf("decode healing event %d: %w", i, err)
		}
		out = append(out, ev)
	}
	return out, nil
}

func (r *RedisLog) Close() error {
	return r.client.Close()
}
