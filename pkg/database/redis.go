package database

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"statecraft/pkg/config"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type Redis struct {
	Client *redis.Client
	tracer trace.Tracer
}

func NewRedis(ctx context.Context, cfg *config.Config) (*Redis, error) {
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	// Test connection
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	slog.Info("Connected to Redis", "addr", opt.Addr)

	r := &Redis{
		Client: client,
	}

	// Only initialize tracer if telemetry is enabled
	if cfg.EnableTelemetry {
		r.tracer = otel.Tracer("redis-client")
	}

	return r, nil
}

func (r *Redis) Close() error {
	return r.Client.Close()
}

// startSpan opens a span for one command when tracing is on. The returned
// finish func records err on the span.
func (r *Redis) startSpan(ctx context.Context, name, operation string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	if r.tracer == nil {
		return ctx, func(error) {}
	}
	attrs = append(attrs, attribute.String("redis.operation", operation))
	ctx, span := r.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
	return ctx, func(err error) {
		if err != nil && err != redis.Nil {
			span.RecordError(err)
		}
		span.End()
	}
}

func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	ctx, finish := r.startSpan(ctx, "redis.get", "GET", attribute.String("redis.key", key))
	result, err := r.Client.Get(ctx, key).Result()
	finish(err)
	return result, err
}

func (r *Redis) Delete(ctx context.Context, keys ...string) error {
	ctx, finish := r.startSpan(ctx, "redis.delete", "DEL", attribute.StringSlice("redis.keys", keys))
	err := r.Client.Del(ctx, keys...).Err()
	finish(err)
	return err
}

func (r *Redis) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return r.Client.Ping(ctx).Err()
}

// SetJSON stores a JSON-serializable object in Redis with expiration
func (r *Redis) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	jsonData, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	ctx, finish := r.startSpan(ctx, "redis.set_json", "SET", attribute.String("redis.key", key))
	err = r.Client.Set(ctx, key, jsonData, expiration).Err()
	finish(err)
	return err
}

// GetJSON retrieves and unmarshals a JSON object from Redis. A missing key
// is reported as redis.Nil.
func (r *Redis) GetJSON(ctx context.Context, key string, dest interface{}) error {
	data, err := r.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(data), dest); err != nil {
		return fmt.Errorf("failed to unmarshal JSON: %w", err)
	}
	return nil
}
