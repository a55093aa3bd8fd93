package logsampler

import (
	"sync/atomic"
	"time"
)

// RateSampler writes one entry out of every rate, counted across all keys,
// and restarts the count each window. It keeps no per-key state.
type RateSampler struct {
	rate   int64
	window int64
	clock  Clock

	count      atomic.Int64
	suppressed atomic.Int64
	last       atomic.Int64
}

// NewRateSampler returns a sampler passing 1 of every rate entries. A rate
// below 2 passes everything.
func NewRateSampler(rate int, window time.Duration) *RateSampler {
	s := &RateSampler{
		rate:   max(int64(rate), 1),
		window: int64(window),
		clock:  systemClock{},
	}
	s.last.Store(s.clock.Now().UnixNano())
	return s
}

// SetClock replaces the time source. It is not safe to call concurrently
// with ShouldLog.
func (s *RateSampler) SetClock(c Clock) {
	s.clock = c
	s.last.Store(c.Now().UnixNano())
}

func (s *RateSampler) ShouldLog(key string, err error) (bool, int64) {
	now := s.clock.Now().UnixNano()
	if last := s.last.Load(); s.window > 0 && now-last > s.window {
		if s.last.CompareAndSwap(last, now) {
			s.count.Store(0)
		}
	}
	if (s.count.Add(1)-1)%s.rate == 0 {
		return true, s.suppressed.Swap(0)
	}
	s.suppressed.Add(1)
	return false, 0
}

func (s *RateSampler) Flush() {}

func (s *RateSampler) Close() {}
