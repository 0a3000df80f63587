package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonesrussell/north-cloud/newswatch/internal/domain"
)

// ErrEmptyRedisAddress is returned when the Redis address is not configured.
var ErrEmptyRedisAddress = errors.New("redis address is required")

const redisPingTimeout = 5 * time.Second

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

// NewRedisClient connects and pings Redis.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	if cfg.Address == "" {
		return nil, ErrEmptyRedisAddress
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return client, nil
}

// ArticleEvent is the JSON payload published for each new article.
type ArticleEvent struct {
	Title        string    `json:"title"`
	Link         string    `json:"link"`
	Source       string    `json:"source"`
	DiscoveredAt time.Time `json:"discovered_at"`
}

// RedisNotifier publishes new articles on a pub/sub channel.
type RedisNotifier struct {
	client  *redis.Client
	channel string
}

// NewRedisNotifier creates a Redis sink publishing on channel.
func NewRedisNotifier(client *redis.Client, channel string) *RedisNotifier {
	return &RedisNotifier{client: client, channel: channel}
}

func (n *RedisNotifier) Name() string { return "redis" }

func (n *RedisNotifier) Notify(ctx context.Context, article domain.Article) error {
	payload, err := json.Marshal(ArticleEvent{
		Title:        article.Title,
		Link:         article.Link,
		Source:       article.Source,
		DiscoveredAt: article.DiscoveredAt,
	})
	if err != nil {
		return fmt.Errorf("marshal article event: %w", err)
	}

	if err = n.client.Publish(ctx, n.channel, payload).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", n.channel, err)
	}
	return nil
}
