package sensorconfig

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"audittrail/internal/sensor"
	"audittrail/pkg/platform/audit"

	"github.com/redis/go-redis/v9"
)

const (
	defaultKeyPrefix = "audittrail:active:"
	defaultTTL       = time.Minute
)

// RedisCache keeps each group's active set in a Redis hash (sensor id to
// "1" or "0") so that many processes share one lookup per TTL. Any Redis
// error falls through to the wrapped provider.
type RedisCache struct {
	client *redis.Client
	next   sensor.ActiveSensors
	ttl    time.Duration
	prefix string
	logger *slog.Logger
}

type CacheOption func(*RedisCache)

func WithTTL(ttl time.Duration) CacheOption {
	return func(c *RedisCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func WithKeyPrefix(prefix string) CacheOption {
	return func(c *RedisCache) {
		if prefix != "" {
			c.prefix = prefix
		}
	}
}

func WithCacheLogger(logger *slog.Logger) CacheOption {
	return func(c *RedisCache) {
		c.logger = logger
	}
}

func NewRedisCache(client *redis.Client, next sensor.ActiveSensors, opts ...CacheOption) *RedisCache {
	c := &RedisCache{
		client: client,
		next:   next,
		ttl:    defaultTTL,
		prefix: defaultKeyPrefix,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c
}

func (c *RedisCache) key(group audit.Group) string {
	return c.prefix + string(group)
}

func (c *RedisCache) ActiveSensors(ctx context.Context, group audit.Group) (map[audit.SensorID]struct{}, error) {
	fields, err := c.client.HGetAll(ctx, c.key(group)).Result()
	if err != nil {
		c.logger.WarnContext(ctx, "active sensor cache read failed", "sensor_group", string(group), "error", err)
		return c.next.ActiveSensors(ctx, group)
	}
	if len(fields) > 0 {
		return decodeSet(fields), nil
	}

	active, err := c.next.ActiveSensors(ctx, group)
	if err != nil {
		return nil, err
	}
	if err := c.store(ctx, group, active); err != nil {
		c.logger.WarnContext(ctx, "active sensor cache write failed", "sensor_group", string(group), "error", err)
	}
	return active, nil
}

// Invalidate drops the cached sets of groups, or of every known group when
// none are given.
func (c *RedisCache) Invalidate(ctx context.Context, groups ...audit.Group) error {
	if len(groups) == 0 {
		seen := make(map[audit.Group]struct{})
		for _, reg := range audit.Registrations() {
			if _, ok := seen[reg.Group]; ok {
				continue
			}
			seen[reg.Group] = struct{}{}
			groups = append(groups, reg.Group)
		}
	}
	keys := make([]string, len(groups))
	for i, g := range groups {
		keys[i] = c.key(g)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("invalidate active sensor cache: %w", err)
	}
	return nil
}

func (c *RedisCache) store(ctx context.Context, group audit.Group, active map[audit.SensorID]struct{}) error {
	regs := audit.SensorsOfGroup(group)
	if len(regs) == 0 {
		return nil
	}
	values := make(map[string]any, len(regs))
	for _, reg := range regs {
		v := "0"
		if _, ok := active[reg.ID]; ok {
			v = "1"
		}
		values[strconv.Itoa(int(reg.ID))] = v
	}
	key := c.key(group)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, values)
		pipe.Expire(ctx, key, c.ttl)
		return nil
	})
	return err
}

func decodeSet(fields map[string]string) map[audit.SensorID]struct{} {
	out := make(map[audit.SensorID]struct{}, len(fields))
	for k, v := range fields {
		if v != "1" {
			continue
		}
		id, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		out[audit.SensorID(id)] = struct{}{}
	}
	return out
}
