package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client and checks the connection.
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func idempotencyKey(collection, key string) string {
	return fmt.Sprintf("idempotency:%s:%s", collection, key)
}

// RememberInsert reserves an idempotency key for the id about to be created.
// It returns false when the key was already taken by an earlier create.
func (c *Client) RememberInsert(ctx context.Context, collection, key, id string, ttl time.Duration) (bool, error) {
	ok, err := c.rdb.SetNX(ctx, idempotencyKey(collection, key), id, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("remember insert failed: %w", err)
	}
	return ok, nil
}

// LookupInsert returns the id stored for an idempotency key, or "" when the
// key is unknown.
func (c *Client) LookupInsert(ctx context.Context, collection, key string) (string, error) {
	id, err := c.rdb.Get(ctx, idempotencyKey(collection, key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("lookup insert failed: %w", err)
	}
	return id, nil
}

// ForgetInsert releases a reserved key after the create it guarded failed.
func (c *Client) ForgetInsert(ctx context.Context, collection, key string) error {
	return c.rdb.Del(ctx, idempotencyKey(collection, key)).Err()
}
