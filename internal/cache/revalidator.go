package cache

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/DevinHarlan/lotboard/internal/config"
	"github.com/redis/go-redis/v9"
)

// Revalidator invalidates rendered page caches when listing visibility changes.
type Revalidator interface {
	InvalidateProperty(ctx context.Context, slug string) error
	InvalidateSitemap(ctx context.Context) error
}

// RedisRevalidator drops cached page entries from Redis. Page renderers key
// property pages by slug under a shared prefix and tag sitemap entries under
// a single set key.
type RedisRevalidator struct {
	client     *redis.Client
	pagePrefix string
	sitemapTag string
	logger     *slog.Logger
}

func NewRedisRevalidator(cfg config.CacheConfig, logger *slog.Logger) (*RedisRevalidator, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisRevalidator{
		client:     client,
		pagePrefix: cfg.PagePrefix,
		sitemapTag: cfg.SitemapTag,
		logger:     logger,
	}, nil
}

func (r *RedisRevalidator) InvalidateProperty(ctx context.Context, slug string) error {
	key := r.pagePrefix + slug

	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to invalidate property page %s: %w", slug, err)
	}

	r.logger.Debug("property page cache invalidated", slog.String("slug", slug))
	return nil
}

func (r *RedisRevalidator) InvalidateSitemap(ctx context.Context) error {
	keys, err := r.client.SMembers(ctx, r.sitemapTag).Result()
	if err != nil {
		return fmt.Errorf("failed to read sitemap tag set: %w", err)
	}

	if len(keys) > 0 {
		if err := r.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("failed to invalidate sitemap pages: %w", err)
		}
	}

	if err := r.client.Del(ctx, r.sitemapTag).Err(); err != nil {
		return fmt.Errorf("failed to clear sitemap tag set: %w", err)
	}

	r.logger.Debug("sitemap cache invalidated", slog.Int("pages", len(keys)))
	return nil
}

func (r *RedisRevalidator) Close() error {
	return r.client.Close()
}
