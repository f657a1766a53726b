package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"dva-report-service-golang/internal/cvss"
	"dva-report-service-golang/internal/logging"
	"dva-report-service-golang/internal/telemetry"
)

const (
	keyPrefix = "cvss:score:"

	// per redis call; scoring itself takes microseconds
	defaultOpTimeout = 100 * time.Millisecond
	// how long the cache is bypassed after a redis failure
	defaultCooldown = 30 * time.Second
)

// ScoreCache memoizes results by canonical vector. A nil *ScoreCache, or
// one built without a client, computes every score directly.
//
// Every redis call is bounded by opTimeout. After a failure the cache is
// bypassed for cooldown so a stalled server costs one timeout, not one
// per request.
type ScoreCache struct {
	client    redis.Cmdable
	ttl       time.Duration
	opTimeout time.Duration
	cooldown  time.Duration
	downUntil atomic.Int64 // unix nanos
}

// New builds a cache over client. The per-call bound only reaches the
// socket when the client has ContextTimeoutEnabled set.
func New(client redis.Cmdable, ttl time.Duration) *ScoreCache {
	return &ScoreCache{
		client:    client,
		ttl:       ttl,
		opTimeout: defaultOpTimeout,
		cooldown:  defaultCooldown,
	}
}

func (c *ScoreCache) enabled() bool {
	if c == nil || c.client == nil {
		return false
	}
	return time.Now().UnixNano() >= c.downUntil.Load()
}

// Degraded reports whether the cache is currently bypassed after a
// redis failure.
func (c *ScoreCache) Degraded() bool {
	return c != nil && c.client != nil && !c.enabled()
}

func (c *ScoreCache) trip(op string, err error) {
	c.downUntil.Store(time.Now().Add(c.cooldown).UnixNano())
	logging.Logger.Warnf("[Cache] %s failed, bypassing cache for %s: %v", op, c.cooldown, err)
}

func scoreKey(vector string) string {
	return keyPrefix + vector
}

// Score returns the result for sel, consulting the cache first. Redis
// failures are logged and never change the answer.
func (c *ScoreCache) Score(ctx context.Context, sel cvss.Selection) (cvss.Result, bool) {
	v, ok := cvss.Resolve(sel)
	if !ok {
		return cvss.Result{}, false
	}
	return c.ScoreVector(ctx, v), true
}

// ScoreVector is Score for an already resolved vector.
func (c *ScoreCache) ScoreVector(ctx context.Context, v cvss.Vector) cvss.Result {
	if res, hit := c.get(ctx, v.String()); hit {
		telemetry.RecordCacheHit(ctx)
		return res
	}
	res := v.Score()
	_ = c.Set(ctx, res)
	return res
}

func (c *ScoreCache) get(ctx context.Context, vector string) (cvss.Result, bool) {
	if !c.enabled() {
		return cvss.Result{}, false
	}
	opCtx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()

	raw, err := c.client.Get(opCtx, scoreKey(vector)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.trip("get", err)
		}
		return cvss.Result{}, false
	}
	var res cvss.Result
	if err := json.Unmarshal(raw, &res); err != nil || res.Vector != vector {
		logging.Logger.Debugf("[Cache] discarding stale entry for %s", vector)
		return cvss.Result{}, false
	}
	return res, true
}

// Set stores one result.
func (c *ScoreCache) Set(ctx context.Context, res cvss.Result) error {
	if !c.enabled() {
		return nil
	}
	data, err := json.Marshal(res)
	if err != nil {
		return err
	}
	opCtx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()

	if err := c.client.Set(opCtx, scoreKey(res.Vector), data, c.ttl).Err(); err != nil {
		c.trip("set", err)
		return err
	}
	return nil
}

// SetMany stores results in a single pipeline. Bulk writes come from the
// warmer, not the request path, so they get a longer bound.
func (c *ScoreCache) SetMany(ctx context.Context, results []cvss.Result) error {
	if c == nil || c.client == nil || len(results) == 0 {
		return nil
	}
	opCtx, cancel := context.WithTimeout(ctx, c.opTimeout*time.Duration(10+len(results)/100))
	defer cancel()

	_, err := c.client.Pipelined(opCtx, func(pipe redis.Pipeliner) error {
		for _, res := range results {
			data, err := json.Marshal(res)
			if err != nil {
				return err
			}
			pipe.Set(opCtx, scoreKey(res.Vector), data, c.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("pipeline %d scores: %w", len(results), err)
	}
	return nil
}
