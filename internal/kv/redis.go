package kv

import (
	"context"
	"errors"
	"time"

	"github.com/gomodule/redigo/redis"
)

// Redis is a Store backed by a Redis server.
type Redis struct {
	pool   *redis.Pool
	prefix string
}

// NewRedis creates a pooled Redis store. Keys are namespaced with prefix.
func NewRedis(addr, prefix string) (*Redis, error) {
	pool := &redis.Pool{
		MaxIdle:     4,
		IdleTimeout: 5 * time.Minute,
		DialContext: func(ctx context.Context) (redis.Conn, error) {
			return redis.DialContext(ctx, "tcp", addr,
				redis.DialConnectTimeout(2*time.Second),
				redis.DialReadTimeout(2*time.Second),
				redis.DialWriteTimeout(2*time.Second),
			)
		},
		TestOnBorrow: func(c redis.Conn, t time.Time) error {
			if time.Since(t) < time.Minute {
				return nil
			}
			_, err := c.Do("PING")
			return err
		},
	}

	conn := pool.Get()
	defer conn.Close()
	if _, err := conn.Do("PING"); err != nil {
		_ = pool.Close()
		return nil, err
	}
	return &Redis{pool: pool, prefix: prefix}, nil
}

func (r *Redis) key(k string) string {
	return r.prefix + k
}

// Get returns the value stored under key.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	conn, err := r.pool.GetContext(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	v, err := redis.Bytes(conn.Do("GET", r.key(key)))
	if errors.Is(err, redis.ErrNil) {
		return nil, ErrNotFound
	}
	return v, err
}

// Set stores value under key. A single SET is atomic.
func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	conn, err := r.pool.GetContext(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	_, err = conn.Do("SET", r.key(key), value)
	return err
}

// Remove deletes key.
func (r *Redis) Remove(ctx context.Context, key string) error {
	conn, err := r.pool.GetContext(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	_, err = conn.Do("DEL", r.key(key))
	return err
}

// Close closes the connection pool.
func (r *Redis) Close() error {
	return r.pool.Close()
}
