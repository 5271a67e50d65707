package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"EternalJukebox/config"
	"EternalJukebox/logger"

	"github.com/redis/go-redis/v9"
)

// Message is the payload published on the alert channel.
type Message struct {
	Title string    `json:"title"`
	Body  string    `json:"body"`
	Time  time.Time `json:"time"`
}

// RedisNotifier publishes alerts as JSON on a pub/sub channel.
type RedisNotifier struct {
	client  *redis.Client
	channel string
}

// NewRedisNotifier 使用配置中的 Redis 参数创建告警发布器
func NewRedisNotifier(cfg *config.Config) *RedisNotifier {
	return &RedisNotifier{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr(),
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}),
		channel: cfg.AlertRedisChannel,
	}
}

// NewRedisNotifierWithClient wraps an existing client.
func NewRedisNotifierWithClient(client *redis.Client, channel string) *RedisNotifier {
	return &RedisNotifier{client: client, channel: channel}
}

// Alert 发布告警，失败只记录日志
func (r *RedisNotifier) Alert(ctx context.Context, title, body string) {
	if err := r.Publish(ctx, title, body); err != nil {
		logger.Warn("[Alert] Redis 告警发送失败",
			logger.String("channel", r.channel),
			logger.String("title", title),
			logger.ErrorField(err))
	}
}

// Publish sends one alert and reports the number of receivers.
func (r *RedisNotifier) Publish(ctx context.Context, title, body string) error {
	payload, err := json.Marshal(Message{Title: title, Body: body, Time: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	receivers, err := r.client.Publish(ctx, r.channel, payload).Result()
	if err != nil {
		return fmt.Errorf("publish to %s: %w", r.channel, err)
	}
	logger.Debug("[Alert] Redis 告警已发布",
		logger.String("channel", r.channel),
		logger.Int64("receivers", receivers))
	return nil
}

// Ping checks the connection.
func (r *RedisNotifier) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	return r.client.Ping(ctx).Err()
}

// Close 关闭 Redis 连接
func (r *RedisNotifier) Close() error {
	return r.client.Close()
}
