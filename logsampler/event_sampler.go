package logsampler

import (
	"sync"
	"sync/atomic"
)

// Stale keys are swept once every cleanupInterval calls. Must be a power of two.
const cleanupInterval = 64

// keyState is the sampling state of one key and its node in the LRU list.
type keyState struct {
	key        string
	suppressed int64
	lastLog    int64 // unix nanos of the last emitted entry
	lastSeen   int64 // unix nanos of the last call, emitted or not
	window     int64

	prev, next *keyState
}

// EventDrivenSampler applies exponential backoff per key without background
// goroutines. Idle keys are reported and evicted from ShouldLog itself.
type EventDrivenSampler struct {
	config   BackoffConfig
	reporter SummaryReporter
	clock    Clock

	ops atomic.Uint64

	mu   sync.Mutex
	keys map[string]*keyState
	// head is the most recently used key, tail the least.
	head, tail *keyState
}

// NewEventDrivenSampler returns a sampler reporting idle keys to reporter,
// which may be nil.
func NewEventDrivenSampler(config BackoffConfig, reporter SummaryReporter) *EventDrivenSampler {
	if config.Factor < 1 {
		config.Factor = 1
	}
	if config.MaxInterval < config.InitialInterval {
		config.MaxInterval = config.InitialInterval
	}
	return &EventDrivenSampler{
		config:   config,
		reporter: reporter,
		clock:    systemClock{},
		keys:     make(map[string]*keyState, 64),
	}
}

// SetClock replaces the time source.
func (s *EventDrivenSampler) SetClock(c Clock) {
	s.mu.Lock()
	s.clock = c
	s.mu.Unlock()
}

// Len returns the number of tracked keys.
func (s *EventDrivenSampler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.keys)
}

func (s *EventDrivenSampler) ShouldLog(key string, err error) (bool, int64) {
	sweep := s.config.ResetInterval > 0 && s.ops.Add(1)&(cleanupInterval-1) == 0

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now().UnixNano()
	if sweep {
		s.evictIdle(now)
	}

	st, ok := s.keys[key]
	if !ok {
		if s.config.MaxKeys > 0 && len(s.keys) >= s.config.MaxKeys {
			s.evict(s.tail)
		}
		st = &keyState{key: key, lastLog: now, lastSeen: now, window: int64(s.config.InitialInterval)}
		s.keys[key] = st
		s.pushFront(st)
		return true, 0
	}
	s.moveFront(st)
	st.lastSeen = now

	elapsed := now - st.lastLog
	switch {
	case s.config.ResetInterval > 0 && elapsed > int64(s.config.ResetInterval):
		st.window = int64(s.config.InitialInterval)
	case elapsed > st.window:
		st.window = min(int64(float64(st.window)*s.config.Factor), int64(s.config.MaxInterval))
	default:
		st.suppressed++
		return false, 0
	}
	n := st.suppressed
	st.suppressed = 0
	st.lastLog = now
	return true, n
}

// evictIdle reports and drops keys not seen for ResetInterval. Caller holds mu.
func (s *EventDrivenSampler) evictIdle(now int64) {
	threshold := now - int64(s.config.ResetInterval)
	for s.tail != nil && s.tail.lastSeen < threshold {
		s.evict(s.tail)
	}
}

func (s *EventDrivenSampler) evict(st *keyState) {
	if st == nil {
		return
	}
	s.report(st)
	delete(s.keys, st.key)
	s.unlink(st)
}

func (s *EventDrivenSampler) report(st *keyState) {
	if st.suppressed > 0 && s.reporter != nil {
		s.reporter.LogSummary(st.key, st.suppressed)
	}
	st.suppressed = 0
}

func (s *EventDrivenSampler) unlink(st *keyState) {
	if st.prev != nil {
		st.prev.next = st.next
	} else {
		s.head = st.next
	}
	if st.next != nil {
		st.next.prev = st.prev
	} else {
		s.tail = st.prev
	}
	st.prev, st.next = nil, nil
}

func (s *EventDrivenSampler) pushFront(st *keyState) {
	st.prev = nil
	st.next = s.head
	if s.head != nil {
		s.head.prev = st
	}
	s.head = st
	if s.tail == nil {
		s.tail = st
	}
}

func (s *EventDrivenSampler) moveFront(st *keyState) {
	if s.head == st {
		return
	}
	s.unlink(st)
	s.pushFront(st)
}

// Flush reports every pending suppressed count and forgets all keys.
func (s *EventDrivenSampler) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for st := s.tail; st != nil; st = st.prev {
		s.report(st)
	}
	clear(s.keys)
	s.head, s.tail = nil, nil
	s.ops.Store(0)
}

func (s *EventDrivenSampler) Close() { s.Flush() }
