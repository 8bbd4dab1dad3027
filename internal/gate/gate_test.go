package gate_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"taggerd/internal/gate"
)

func TestGateSerializesHolders(t *testing.T) {
	g := gate.New()
	var active, maxActive int32
	var wg sync.WaitGroup

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := g.Acquire(context.Background()); err != nil {
				t.Errorf("Acquire: %v", err)
				return
			}
			current := atomic.AddInt32(&active, 1)
			if current > atomic.LoadInt32(&maxActive) {
				atomic.StoreInt32(&maxActive, current)
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&active, -1)
			g.Release()
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt32(&maxActive); got != 1 {
		t.Fatalf("expected at most one concurrent holder, saw %d", got)
	}
}

func TestAcquireHonorsContext(t *testing.T) {
	g := gate.New()
	if err := g.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer g.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := g.Acquire(ctx); err == nil {
		t.Fatal("expected context error while gate is held")
	}
}

func TestTryAcquire(t *testing.T) {
	g := gate.New()
	if !g.TryAcquire() {
		t.Fatal("expected TryAcquire to succeed on a free gate")
	}
	if g.TryAcquire() {
		t.Fatal("expected TryAcquire to fail on a held gate")
	}
	g.Release()
	if !g.TryAcquire() {
		t.Fatal("expected TryAcquire to succeed after release")
	}
}

func TestReleaseWithoutAcquirePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on stray release")
		}
	}()
	gate.New().Release()
}
