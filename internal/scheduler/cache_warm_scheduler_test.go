package scheduler

import (
	"context"
	"errors"
	"testing"

	"dva-report-service-golang/internal/cvss"
)

type recordingStore struct {
	batches [][]cvss.Result
	failAt  int
}

func (r *recordingStore) SetMany(_ context.Context, results []cvss.Result) error {
	if r.failAt > 0 && len(r.batches)+1 == r.failAt {
		return errors.New("redis unavailable")
	}
	cp := make([]cvss.Result, len(results))
	copy(cp, results)
	r.batches = append(r.batches, cp)
	return nil
}

func TestWarmOnceStoresEveryVector(t *testing.T) {
	store := &recordingStore{}
	count, err := warmOnce(context.Background(), store, 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 2592 {
		t.Fatalf("expected 2592 stored, got %d", count)
	}
	if len(store.batches) != 3 {
		t.Fatalf("expected 3 batches, got %d", len(store.batches))
	}
	if n := len(store.batches[2]); n != 592 {
		t.Fatalf("expected final batch of 592, got %d", n)
	}

	seen := make(map[string]bool)
	for _, b := range store.batches {
		for _, res := range b {
			if seen[res.Vector] {
				t.Fatalf("vector stored twice: %s", res.Vector)
			}
			seen[res.Vector] = true
		}
	}
	if !seen["CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H"] {
		t.Fatalf("expected canonical critical vector to be warmed")
	}
}

func TestWarmOnceStopsOnStoreError(t *testing.T) {
	store := &recordingStore{failAt: 2}
	count, err := warmOnce(context.Background(), store, 1000)
	if err == nil {
		t.Fatalf("expected error from failing batch")
	}
	if count != 1000 {
		t.Fatalf("expected first batch counted, got %d", count)
	}
}

func TestWarmOnceHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	count, err := warmOnce(ctx, &recordingStore{}, 0)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if count != 0 {
		t.Fatalf("expected nothing stored, got %d", count)
	}
}

func TestStartCacheWarmSchedulerRejectsBadSpec(t *testing.T) {
	if _, err := StartCacheWarmScheduler("not a cron spec", 10, &recordingStore{}, nil); err == nil {
		t.Fatalf("expected invalid spec error")
	}
}

type fakeLock struct {
	held     bool
	released bool
}

func (f *fakeLock) Acquire(context.Context) (bool, error) { return !f.held, nil }
func (f *fakeLock) Release(context.Context)                { f.released = true }

func TestRunWarmRespectsLock(t *testing.T) {
	store := &recordingStore{}
	if runWarm(context.Background(), store, 0, &fakeLock{held: true}) {
		t.Fatalf("expected run to be skipped while lock is held")
	}
	if len(store.batches) != 0 {
		t.Fatalf("expected no writes while lock is held")
	}

	lock := &fakeLock{}
	if !runWarm(context.Background(), store, 0, lock) {
		t.Fatalf("expected run with free lock")
	}
	if !lock.released {
		t.Fatalf("expected lock released after run")
	}
	if len(store.batches) != 11 {
		t.Fatalf("expected 11 batches of default size, got %d", len(store.batches))
	}
}
