package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const viewsKey = "image:views"

type Client struct {
	*redis.Client
}

func NewClient(addr, password string, db, poolSize int) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
		PoolSize: poolSize,
	})
	_, err := client.Ping(context.Background()).Result()
	if err != nil {
		return nil, err
	}
	slog.Info("Connected to Redis", "addr", addr)
	return &Client{client}, nil
}

func revokedKey(jti string) string {
	return fmt.Sprintf("token:revoked:%s", jti)
}

// RevokeToken marks jti as revoked until the token would have expired anyway.
func (c *Client) RevokeToken(ctx context.Context, jti string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	return c.Set(ctx, revokedKey(jti), 1, ttl).Err()
}

func (c *Client) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := c.Exists(ctx, revokedKey(jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (c *Client) IncrementView(ctx context.Context, imageID uint) error {
	return c.ZIncrBy(ctx, viewsKey, 1, member(imageID)).Err()
}

// Views returns the view count of an image, zero when it was never viewed.
func (c *Client) Views(ctx context.Context, imageID uint) (int64, error) {
	score, err := c.ZScore(ctx, viewsKey, member(imageID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return int64(score), nil
}

// TopViewed returns up to n image ids ordered by descending view count.
func (c *Client) TopViewed(ctx context.Context, n int64) ([]uint, error) {
	if n <= 0 {
		return nil, nil
	}
	members, err := c.ZRevRange(ctx, viewsKey, 0, n-1).Result()
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseUint(m, 10, 64)
		if err != nil {
			slog.Warn("Skipping malformed view counter member", "member", m)
			continue
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}

// ForgetImage drops the view counter of a deleted image.
func (c *Client) ForgetImage(ctx context.Context, imageID uint) error {
	return c.ZRem(ctx, viewsKey, member(imageID)).Err()
}

func member(imageID uint) string {
	return strconv.FormatUint(uint64(imageID), 10)
}
