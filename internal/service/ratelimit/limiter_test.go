package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"
)

func newTestStore(now *time.Time) *MemoryStore {
	s := NewMemoryStore()
	s.now = func() time.Time { return *now }
	return s
}

func TestCheckAndConsumeWithinLimit(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewLimiter(newTestStore(&now))
	policy := Policy{Window: 60 * time.Second, MaxEvents: 30}

	for i := 0; i < 30; i++ {
		d := limiter.CheckAndConsume(context.Background(), "u:alice", policy)
		if !d.Allowed {
			t.Fatalf("第 %d 次请求被拒，应在配额内", i+1)
		}
	}

	d := limiter.CheckAndConsume(context.Background(), "u:alice", policy)
	if d.Allowed {
		t.Fatal("超出配额的第 31 次请求应被拒绝")
	}
	if d.RetryAfter <= 0 || d.RetryAfter > 60*time.Second {
		t.Fatalf("RetryAfter 超出窗口范围: %v", d.RetryAfter)
	}
}

func TestWindowReset(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewLimiter(newTestStore(&now))
	policy := Policy{Window: 10 * time.Second, MaxEvents: 1}

	if d := limiter.CheckAndConsume(context.Background(), "k", policy); !d.Allowed {
		t.Fatal("首次请求应通过")
	}
	if d := limiter.CheckAndConsume(context.Background(), "k", policy); d.Allowed {
		t.Fatal("窗口内第二次请求应被拒绝")
	}

	now = now.Add(11 * time.Second)
	if d := limiter.CheckAndConsume(context.Background(), "k", policy); !d.Allowed {
		t.Fatal("窗口过期后请求应重新通过")
	}
}

func TestKeysAreIndependent(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewLimiter(newTestStore(&now))
	policy := Policy{Window: 60 * time.Second, MaxEvents: 1}

	limiter.CheckAndConsume(context.Background(), "u:a", policy)
	if d := limiter.CheckAndConsume(context.Background(), "u:b", policy); !d.Allowed {
		t.Fatal("不同 key 的配额应相互独立")
	}
}

func TestRetryAfterRoundsUpToSecond(t *testing.T) {
	if got := ceilToSecond(1500 * time.Millisecond); got != 2*time.Second {
		t.Fatalf("1.5s 应取整为 2s，得到 %v", got)
	}
	if got := ceilToSecond(2 * time.Second); got != 2*time.Second {
		t.Fatalf("整秒值不应改变，得到 %v", got)
	}
	if got := ceilToSecond(0); got != time.Second {
		t.Fatalf("非正值应兜底为 1s，得到 %v", got)
	}
}

func TestConcurrentConsume(t *testing.T) {
	store := NewMemoryStore()
	limiter := NewLimiter(store)
	policy := Policy{Window: time.Minute, MaxEvents: 50}

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if d := limiter.CheckAndConsume(context.Background(), "shared", policy); d.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowed != 50 {
		t.Fatalf("并发下应恰好放行 50 次，实际 %d", allowed)
	}
}
