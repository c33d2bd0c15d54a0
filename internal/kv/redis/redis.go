// Package redis implements kv.Client on top of go-redis.
package redis

import (
	"context"
	"errors"

	lowimpl "github.com/redis/go-redis/v9"

	"github.com/gogpu/journal/internal/kv"
)

// Conf holds the connection parameters.
type Conf struct {
	Addr string
	PW   string
	DB   int
}

// Client is a redis-backed kv.Client.
type Client struct {
	internal *lowimpl.Client
}

var _ kv.Client = (*Client)(nil)

// New connects lazily; the first command dials the server.
func New(conf Conf) *Client {
	return &Client{internal: lowimpl.NewClient(&lowimpl.Options{
		Addr:     conf.Addr,
		Password: conf.PW,
		DB:       conf.DB,
	})}
}

// Ping checks connectivity.
func (c *Client) Ping(ctx context.Context) error {
	return c.internal.Ping(ctx).Err()
}

func (c *Client) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.internal.Get(ctx, key).Bytes()
	if errors.Is(err, lowimpl.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (c *Client) Set(ctx context.Context, key string, value []byte) error {
	return c.internal.Set(ctx, key, value, 0).Err()
}

func (c *Client) Delete(ctx context.Context, keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	return c.internal.Del(ctx, keys...).Result()
}

func (c *Client) Close() error {
	if c.internal == nil {
		return nil
	}
	return c.internal.Close()
}
