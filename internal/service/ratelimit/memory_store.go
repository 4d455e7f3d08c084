package ratelimit

import (
	"context"
	"sync"
	"time"
)

// entry 单个 key 的窗口状态
type entry struct {
	count   int64
	resetAt time.Time
}

// MemoryStore 进程内的窗口计数器，适用于单实例部署与测试
// 过期窗口在下次访问时重建，另有惰性清扫避免 key 无限增长
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*entry

	lastSweep time.Time
	sweepGap  time.Duration

	// now 可注入，测试时用于拨动时钟
	now func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries:   make(map[string]*entry),
		lastSweep: time.Now(),
		sweepGap:  time.Minute,
		now:       time.Now,
	}
}

// Incr 见 CounterStore
func (s *MemoryStore) Incr(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweepLocked(now)

	e, ok := s.entries[key]
	if !ok || !now.Before(e.resetAt) {
		e = &entry{resetAt: now.Add(window)}
		s.entries[key] = e
	}
	e.count++
	return e.count, e.resetAt.Sub(now), nil
}

// sweepLocked 清理过期窗口，调用方需持有锁
func (s *MemoryStore) sweepLocked(now time.Time) {
	if now.Sub(s.lastSweep) < s.sweepGap {
		return
	}
	for key, e := range s.entries {
		if !now.Before(e.resetAt) {
			delete(s.entries, key)
		}
	}
	s.lastSweep = now
}
