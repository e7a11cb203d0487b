package ratelimit

import (
	"context"
	"sync"
	"time"
)

type bucket struct {
	mu          sync.Mutex
	count       int
	windowStart time.Time
	window      time.Duration
	dead        bool
}

// MemoryStore keeps buckets in process. Expired buckets are swept by a
// background goroutine until Close.
type MemoryStore struct {
	buckets sync.Map
	stop    chan struct{}
	once    sync.Once
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore(sweepEvery time.Duration) *MemoryStore {
	s := &MemoryStore{stop: make(chan struct{})}
	if sweepEvery > 0 {
		go s.sweep(sweepEvery)
	}
	return s
}

func (s *MemoryStore) Hit(ctx context.Context, key string, window time.Duration, now time.Time) (Result, error) {
	for {
		v, _ := s.buckets.LoadOrStore(key, &bucket{windowStart: now, window: window})
		b := v.(*bucket)

		b.mu.Lock()
		if b.dead {
			// swept between load and lock
			b.mu.Unlock()
			continue
		}
		if b.count == 0 || expired(b.windowStart, now, window) {
			b.count = 0
			b.windowStart = now
			b.window = window
		}
		b.count++
		res := Result{Count: b.count, ResetAt: b.windowStart.Add(window)}
		b.mu.Unlock()
		return res, nil
	}
}

func (s *MemoryStore) sweep(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case now := <-ticker.C:
			s.buckets.Range(func(key, value interface{}) bool {
				b := value.(*bucket)
				b.mu.Lock()
				if expired(b.windowStart, now, b.window) {
					b.dead = true
					s.buckets.Delete(key)
				}
				b.mu.Unlock()
				return true
			})
		}
	}
}

func (s *MemoryStore) Close() error {
	s.once.Do(func() { close(s.stop) })
	return nil
}
