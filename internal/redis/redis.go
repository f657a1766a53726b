package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"dva-report-service-golang/internal/logging"
)

var Client *redis.Client

// ClientOptions are the options every client in this service uses. The
// cache sits on the request path, so socket timeouts are short, a failed
// command is retried once, and context deadlines reach the socket.
func ClientOptions(addr string) *redis.Options {
	return &redis.Options{
		Addr:                  addr,
		Password:              "",
		DB:                    0,
		DialTimeout:           time.Second,
		ReadTimeout:           200 * time.Millisecond,
		WriteTimeout:          200 * time.Millisecond,
		MaxRetries:            1,
		ContextTimeoutEnabled: true,
	}
}

// InitRedis connects the shared client. On failure Client stays nil and
// callers run without a cache.
func InitRedis(addr string) error {
	c := redis.NewClient(ClientOptions(addr))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return fmt.Errorf("redis ping %s: %w", addr, err)
	}

	Client = c
	logging.Logger.Infof("[REDIS] Connected successfully to %s", addr)
	return nil
}

func CloseRedis() {
	if Client != nil {
		if err := Client.Close(); err != nil {
			logging.Logger.Warnf("[REDIS] Error closing connection: %v", err)
		} else {
			logging.Logger.Info("[REDIS] Connection closed")
		}
	}
}
