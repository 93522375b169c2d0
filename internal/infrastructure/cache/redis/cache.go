package redis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kirillkom/document-catalog/internal/core/domain"
	"github.com/kirillkom/document-catalog/internal/infrastructure/resilience"
)

type Options struct {
	Addr     string
	Password string
	DB       int
	// Prefix namespaces every key, e.g. "catalog:".
	Prefix             string
	DialTimeout        time.Duration
	ResilienceExecutor *resilience.Executor
}

// Cache is the shared stats cache. Every call goes through the resilience
// executor when one is configured, so a dead server trips the breaker and
// callers fall back to recomputing.
type Cache struct {
	client   goredis.Cmdable
	closer   io.Closer
	prefix   string
	executor *resilience.Executor
}

func New(ctx context.Context, options Options) (*Cache, error) {
	dialTimeout := options.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = 2 * time.Second
	}
	client := goredis.NewClient(&goredis.Options{
		Addr:         options.Addr,
		Password:     options.Password,
		DB:           options.DB,
		DialTimeout:  dialTimeout,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	c := NewWithClient(client, options.Prefix, options.ResilienceExecutor)
	c.closer = client
	return c, nil
}

func NewWithClient(client goredis.Cmdable, prefix string, executor *resilience.Executor) *Cache {
	return &Cache{
		client:   client,
		prefix:   prefix,
		executor: executor,
	}
}

func (c *Cache) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer.Close()
}

type lookup struct {
	value []byte
	found bool
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	res, err := run(ctx, c, "redis.get", func(ctx context.Context) (lookup, error) {
		raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
		if errors.Is(err, goredis.Nil) {
			return lookup{}, nil
		}
		if err != nil {
			return lookup{}, err
		}
		return lookup{value: raw, found: true}, nil
	})
	if err != nil {
		return nil, false, wrapCacheError("redis get", err)
	}
	return res.value, res.found, nil
}

func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_, err := run(ctx, c, "redis.set", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.client.Set(ctx, c.prefix+key, value, ttl).Err()
	})
	if err != nil {
		return wrapCacheError("redis set", err)
	}
	return nil
}

func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	prefixed := make([]string, 0, len(keys))
	for _, k := range keys {
		prefixed = append(prefixed, c.prefix+k)
	}
	_, err := run(ctx, c, "redis.del", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.client.Del(ctx, prefixed...).Err()
	})
	if err != nil {
		return wrapCacheError("redis del", err)
	}
	return nil
}

func run[T any](ctx context.Context, c *Cache, operation string, fn func(context.Context) (T, error)) (T, error) {
	if c.executor == nil {
		return fn(ctx)
	}
	return resilience.Do(ctx, c.executor, operation, fn, cacheErrors.Classify)
}

// cacheErrors treats connection-level failures as transient. Server replies
// such as WRONGTYPE are neither retried nor temporary.
var cacheErrors = resilience.ErrorKinds{
	Transient: func(err error) bool {
		var netErr net.Error
		return errors.As(err, &netErr) ||
			errors.Is(err, io.EOF) ||
			errors.Is(err, goredis.ErrClosed) ||
			errors.Is(err, goredis.ErrPoolTimeout)
	},
}

func wrapCacheError(operation string, err error) error {
	if wrapped := cacheErrors.WrapTemporary(operation, err); domain.IsKind(wrapped, domain.ErrTemporary) {
		return wrapped
	}
	return fmt.Errorf("%s: %w", operation, err)
}
