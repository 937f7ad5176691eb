package storage

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"

	"resume-triage/internal/config"
	"resume-triage/internal/constants"
	"resume-triage/internal/tracing"
)

// ErrNotFound is returned when a key is not found in Redis.
var ErrNotFound = redis.Nil

// 为Redis操作定义专用tracer
var redisTracer = otel.Tracer("resume-triage/storage/redis")

// Redis wraps the Redis client
type Redis struct {
	Client      *redis.Client
	config      *config.RedisConfig
	keywordsTTL time.Duration
}

// NewRedisAdapter creates a new Redis client connection
func NewRedisAdapter(cfg *config.RedisConfig) (*Redis, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	opt := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,

		// 连接池设置
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,

		// 超时设置
		DialTimeout:  time.Duration(cfg.DialTimeoutSeconds) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,
	}

	client := redis.NewClient(opt)

	// 添加OpenTelemetry钩子, 记录所有Redis操作
	if err := redisotel.InstrumentTracing(client); err != nil {
		return nil, fmt.Errorf("failed to instrument Redis with OpenTelemetry: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}

	return &Redis{
		Client:      client,
		config:      cfg,
		keywordsTTL: config.GetDuration(cfg.KeywordCacheTTL, constants.JDKeywordsCacheDuration),
	}, nil
}

// Close closes the Redis client connection
func (r *Redis) Close() error {
	if r.Client != nil {
		return r.Client.Close()
	}
	return nil
}

// JobKeywordsKey JD 关键词缓存键，按去除首尾空白后的描述计算MD5
func JobKeywordsKey(description string) string {
	sum := md5.Sum([]byte(strings.TrimSpace(description)))
	return fmt.Sprintf(constants.KeyJobDescriptionKeywords, hex.EncodeToString(sum[:]))
}

// GetJobKeywords 读取缓存的 JD 关键词，未命中时 found 为 false
func (r *Redis) GetJobKeywords(ctx context.Context, description string) (keywords []string, found bool, err error) {
	if r.Client == nil {
		return nil, false, fmt.Errorf("redis client is not initialized")
	}
	key := JobKeywordsKey(description)

	ctx, span := redisTracer.Start(ctx, "Redis.GetJobKeywords",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			semconv.DBSystemRedis,
			attribute.String("db.operation", "GET"),
			attribute.String("db.redis.key", tracing.SafeRedisKey(key)),
		))
	defer span.End()

	val, err := r.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		// key 不存在不算错误
		span.SetStatus(codes.Ok, "key not found")
		span.SetAttributes(attribute.Bool("db.redis.key_exists", false))
		return nil, false, nil
	}
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeRedis)
		return nil, false, err
	}

	if err := json.Unmarshal([]byte(val), &keywords); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeRedis)
		return nil, false, fmt.Errorf("解析缓存的JD关键词失败: %w", err)
	}
	span.SetAttributes(
		attribute.Bool("db.redis.key_exists", true),
		attribute.Int("keywords.count", len(keywords)),
	)
	return keywords, true, nil
}

// SetJobKeywords 缓存 JD 关键词
func (r *Redis) SetJobKeywords(ctx context.Context, description string, keywords []string) error {
	if r.Client == nil {
		return fmt.Errorf("redis client is not initialized")
	}
	key := JobKeywordsKey(description)
	data, err := json.Marshal(keywords)
	if err != nil {
		return fmt.Errorf("序列化JD关键词失败: %w", err)
	}

	ctx, span := redisTracer.Start(ctx, "Redis.SetJobKeywords",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			semconv.DBSystemRedis,
			attribute.String("db.operation", "SET"),
			attribute.String("db.redis.key", tracing.SafeRedisKey(key)),
			attribute.Int64("db.redis.expiration_ms", r.keywordsTTL.Milliseconds()),
		))
	defer span.End()

	if err := r.Client.Set(ctx, key, data, r.keywordsTTL).Err(); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeRedis)
		return err
	}
	return nil
}
