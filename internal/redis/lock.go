package redis

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var errNoClient = errors.New("redis client not initialized")

// deletes the key only while it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// Locker is a best-effort cross-replica lock on a single key. Each
// acquisition stores a fresh token, so a holder whose TTL lapsed cannot
// release a lock another replica has since taken.
type Locker struct {
	Key string
	TTL time.Duration

	mu    sync.Mutex
	token string
}

// Acquire sets the lock key if it is absent.
func (l *Locker) Acquire(ctx context.Context) (bool, error) {
	if Client == nil {
		return false, errNoClient
	}
	token := uuid.NewString()
	ok, err := Client.SetNX(ctx, l.Key, token, l.TTL).Result()
	if err != nil || !ok {
		return false, err
	}
	l.mu.Lock()
	l.token = token
	l.mu.Unlock()
	return true, nil
}

// Release drops the lock if this Locker still owns it.
func (l *Locker) Release(ctx context.Context) {
	l.mu.Lock()
	token := l.token
	l.token = ""
	l.mu.Unlock()

	if Client == nil || token == "" {
		return
	}
	// on failure the key still expires after TTL
	_ = releaseScript.Run(ctx, Client, []string{l.Key}, token).Err()
}
