package grantref

import (
	"context"
	"errors"
	"testing"
	"time"

	"grant-allocator/allocator/grantref/domain"
	"grant-allocator/allocator/grantref/infra"
)

func TestNew_CapacityQueryFailureIsFatal(t *testing.T) {
	boom := errors.New("grant table unavailable")
	drv := infra.NewMemDriver(10, 3, infra.WithCapacityErr(boom))

	pool, err := New(drv, Options{})
	if pool != nil {
		t.Fatalf("expected no partial pool on capacity failure")
	}
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped driver error, got %v", err)
	}
	if drv.InitCount() != 0 {
		t.Fatalf("expected driver init not to run after failed query, got %d", drv.InitCount())
	}
}

func TestNew_RejectsInconsistentDriverReport(t *testing.T) {
	drv := infra.NewMemDriver(3, 10) // reserved > total

	if _, err := New(drv, Options{}); err == nil {
		t.Fatalf("expected error for reserved > total")
	}
}

func TestNew_InitsDriverExactlyOnceAndPopulatesQueue(t *testing.T) {
	drv := infra.NewMemDriver(10, 3)

	pool, err := New(drv, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if drv.InitCount() != 1 {
		t.Fatalf("expected driver init exactly once, got %d", drv.InitCount())
	}
	if pool.Free() != 7 || pool.Held() != 0 {
		t.Fatalf("expected free=7 held=0, got free=%d held=%d", pool.Free(), pool.Held())
	}
	if pool.Capacity() != 10 || pool.Reserved() != 3 {
		t.Fatalf("expected capacity=10 reserved=3, got %d/%d", pool.Capacity(), pool.Reserved())
	}
}

func TestPool_AcquireReleaseRoundTrip(t *testing.T) {
	drv := infra.NewMemDriver(10, 3)
	stats := infra.NewMemoryStatsStore()

	pool, err := New(drv, Options{Stats: stats})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	h, err := pool.Acquire(context.Background())
	if err != nil {
		t.Fatalf("unexpected acquire error: %v", err)
	}
	if h != 3 {
		t.Fatalf("expected first handle 3, got %d", h)
	}
	if held, known := pool.Holds(h); !known || !held {
		t.Fatalf("expected pool to report handle %d held", h)
	}

	pool.Release(h)
	if pool.Free() != 7 {
		t.Fatalf("expected 7 free after release, got %d", pool.Free())
	}

	total := stats.Total()
	if total.Acquired != 1 || total.Released != 1 {
		t.Fatalf("expected stats acquired=1 released=1, got %+v", total)
	}
}

func TestPool_AcquireTimeoutRecordsTimeoutEvent(t *testing.T) {
	drv := infra.NewMemDriver(5, 5) // degenerado: tudo reservado
	stats := infra.NewMemoryStatsStore()

	pool, err := New(drv, Options{Stats: stats, AcquireTimeout: 20 * time.Millisecond})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = pool.Acquire(context.Background())
	if !errors.Is(err, domain.ErrAcquireTimeout) {
		t.Fatalf("expected ErrAcquireTimeout, got %v", err)
	}
	if stats.Total().TimedOut != 1 {
		t.Fatalf("expected 1 timeout event, got %d", stats.Total().TimedOut)
	}
}

func TestPool_ChanQueueOption(t *testing.T) {
	drv := infra.NewMemDriver(10, 3)

	pool, err := New(drv, Options{
		Queue: func(total, reserved int) domain.HandleQueue {
			return infra.NewChanQueue(total, reserved)
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	h, err := pool.Acquire(context.Background())
	if err != nil {
		t.Fatalf("unexpected acquire error: %v", err)
	}
	if h != 3 {
		t.Fatalf("expected first handle 3, got %d", h)
	}
	if _, known := pool.Holds(h); known {
		t.Fatalf("expected ChanQueue not to track ownership")
	}
	pool.Release(h)
}
