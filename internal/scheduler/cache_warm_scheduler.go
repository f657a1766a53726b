package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"dva-report-service-golang/internal/cvss"
	"dva-report-service-golang/internal/logging"
	"dva-report-service-golang/internal/telemetry"
)

const defaultWarmBatch = 256

type scoreStore interface {
	SetMany(ctx context.Context, results []cvss.Result) error
}

type runLock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context)
}

// StartCacheWarmScheduler registers the warm job on spec and starts the
// cron runner. With a non-nil lock only one replica warms per run. The
// caller stops it with the returned *cron.Cron.
func StartCacheWarmScheduler(spec string, batch int, store scoreStore, lock runLock) (*cron.Cron, error) {
	if spec == "" {
		spec = "@daily"
	}
	c := cron.New(cron.WithSeconds())

	_, err := c.AddFunc(spec, func() {
		runWarm(context.Background(), store, batch, lock)
	})
	if err != nil {
		return nil, err
	}

	c.Start()
	logging.Logger.Infof("[Scheduler] cache warm scheduler initialized - runs at '%s'", spec)
	return c, nil
}

// runWarm is one scheduled run. It reports false when the lock was held
// elsewhere and nothing ran.
func runWarm(ctx context.Context, store scoreStore, batch int, lock runLock) bool {
	if lock != nil {
		ok, err := lock.Acquire(ctx)
		if err != nil || !ok {
			logging.Logger.Infof("[Scheduler] cache warm skipped, lock held elsewhere (err=%v)", err)
			return false
		}
		defer lock.Release(ctx)
	}

	start := time.Now()
	logging.Logger.Info("[Scheduler] Starting score cache warm")

	count, err := warmOnce(ctx, store, batch)
	if err != nil {
		logging.Logger.Errorf("[Scheduler] error: %v", err)
	}
	telemetry.RecordSchedulerRun(ctx, "cache_warm", count)
	logging.Logger.Infof("[Scheduler] Completed cache warm in %s - stored=%d", time.Since(start), count)
	return true
}

// warmOnce scores every base vector and stores the results in batches.
// It stops at the first failed batch and reports how many were stored.
func warmOnce(ctx context.Context, store scoreStore, batch int) (int, error) {
	if batch <= 0 {
		batch = defaultWarmBatch
	}

	all := cvss.All()
	stored := 0
	buf := make([]cvss.Result, 0, batch)
	for i, sel := range all {
		res, _ := cvss.Score(sel)
		buf = append(buf, res)
		if len(buf) < batch && i < len(all)-1 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return stored, err
		}
		if err := store.SetMany(ctx, buf); err != nil {
			return stored, err
		}
		stored += len(buf)
		buf = buf[:0]
	}
	return stored, nil
}
