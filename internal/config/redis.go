package config

// Redis backs the optional response cache.  Connection parameters come from
// the environment; when the server cannot be reached the caller gets a nil
// client and runs without a cache.

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions builds client options from the environment:
//
//   - REDIS_ADDR: host:port of the server (default localhost:6379)
//   - REDIS_HOST and REDIS_PORT: override REDIS_ADDR when both are set
//   - REDIS_PASSWORD: optional password
//   - REDIS_DB: database number (default 0)
//   - REDIS_TLS: enable TLS, verifying the server certificate
//   - REDIS_TLS_INSECURE: with REDIS_TLS, skip certificate verification
func RedisOptions() *redis.Options {
	addr := envStr("REDIS_ADDR", "localhost:6379")
	if host, port := envStr("REDIS_HOST", ""), envStr("REDIS_PORT", ""); host != "" && port != "" {
		addr = net.JoinHostPort(host, port)
	}
	opts := &redis.Options{
		Addr:     addr,
		Password: envStr("REDIS_PASSWORD", ""),
		DB:       envInt("REDIS_DB", 0),
	}
	if envBool("REDIS_TLS", false) {
		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			host = addr
		}
		opts.TLSConfig = &tls.Config{
			ServerName:         host,
			InsecureSkipVerify: envBool("REDIS_TLS_INSECURE", false),
		}
	}
	return opts
}

// NewRedisClient connects with opts and pings the server with a short
// timeout.  On failure the client is closed and the error returned.
func NewRedisClient(ctx context.Context, opts *redis.Options) (*redis.Client, error) {
	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}
	return client, nil
}
