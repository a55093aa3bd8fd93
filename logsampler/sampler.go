/*
Package logsampler decides which log entries on a hot path are written.

Samplers are keyed: each distinct key (usually a call site plus an error
signature) gets its own quiet window. Entries arriving inside the window are
counted and the count is reported with the next entry that passes, or through
a SummaryReporter when the key goes idle.
*/
package logsampler

import (
	"time"
)

// BackoffConfig defines the parameters for the exponential backoff strategy.
type BackoffConfig struct {
	InitialInterval time.Duration // quiet window after the first entry for a key
	MaxInterval     time.Duration // upper bound for the window
	Factor          float64       // window growth per emitted entry (e.g. 2.0)
	// ResetInterval is the inactivity after which a key starts over at
	// InitialInterval. Zero never resets.
	ResetInterval time.Duration
	// MaxKeys bounds the number of tracked keys. When full, the least
	// recently used key is reported and dropped. Zero means unbounded.
	MaxKeys int
}

// DefaultBackoff is the configuration used by the decoder loggers.
var DefaultBackoff = BackoffConfig{
	InitialInterval: 1 * time.Second,
	MaxInterval:     1 * time.Hour,
	Factor:          1.2,
	ResetInterval:   10 * time.Minute,
	MaxKeys:         4096,
}

// SummaryReporter receives the suppressed count of keys that leave the
// sampler without another entry passing.
type SummaryReporter interface {
	LogSummary(key string, suppressedCount int64)
}

// Clock returns the current time. Tests replace it to control time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Sampler decides if a log entry should be written.
type Sampler interface {
	// ShouldLog reports whether an entry for key should be written and, if
	// so, how many entries for key were suppressed since the last one.
	ShouldLog(key string, err error) (bool, int64)
	// Flush reports every pending suppressed count.
	Flush()
	// Close flushes one last time. The sampler must not be used afterwards.
	Close()
}
