// Package phusluadapter connects logsampler to phuslu/log loggers.
package phusluadapter

import (
	"hash/maphash"
	"strconv"
	"sync/atomic"

	"github.com/tekert/etwschema/logsampler"

	plog "github.com/phuslu/log"
)

var hashSeed = maphash.MakeSeed()

type Sampler = logsampler.Sampler

// SummaryReporter writes sampler summaries as Info entries.
type SummaryReporter struct {
	Logger *plog.Logger
}

func (r *SummaryReporter) LogSummary(key string, suppressedCount int64) {
	r.Logger.Info().
		Str("samplerKey", key).
		Int64("suppressedCount", suppressedCount).
		Msg("suppressed log entries")
}

// SampledLogger is a phuslu logger whose Sampled* methods consult a Sampler.
// They return nil when the entry is dropped; phuslu entry methods accept a
// nil receiver, so call chains need no check.
type SampledLogger struct {
	*plog.Logger
	Sampler Sampler
}

func NewSampledLogger(baseLogger *plog.Logger, sampler Sampler) *SampledLogger {
	return &SampledLogger{
		Logger:  baseLogger,
		Sampler: sampler,
	}
}

// SampleKey returns the key used for key and err when the error signature
// is part of the key.
func SampleKey(key string, err error) string {
	if err == nil {
		return key
	}
	var h maphash.Hash
	h.SetSeed(hashSeed)
	h.WriteString(err.Error())

	var buf [128]byte
	b := append(buf[:0], key...)
	b = append(b, ':')
	b = strconv.AppendUint(b, h.Sum64(), 16)
	return string(b)
}

// Sampled starts an entry at level if both the logger level and the sampler
// allow it. With useErrSig, entries with different error texts are sampled
// independently.
func (l *SampledLogger) Sampled(level plog.Level, key string, useErrSig bool, err ...error) *plog.Entry {
	if plog.Level(atomic.LoadUint32((*uint32)(&l.Logger.Level))) > level {
		return nil
	}

	var e error
	if len(err) > 0 {
		e = err[0]
	}
	if useErrSig {
		key = SampleKey(key, e)
	}

	var suppressed int64
	if l.Sampler != nil {
		var ok bool
		if ok, suppressed = l.Sampler.ShouldLog(key, e); !ok {
			return nil
		}
	}
	entry := l.Logger.WithLevel(level)
	if suppressed > 0 {
		entry = entry.Int64("suppressedCount", suppressed)
	}
	if e != nil {
		entry = entry.Err(e)
	}
	return entry
}

func (l *SampledLogger) SampledError(key string) *plog.Entry {
	return l.Sampled(plog.ErrorLevel, key, false)
}

func (l *SampledLogger) SampledErrorWithErrSig(key string, err ...error) *plog.Entry {
	return l.Sampled(plog.ErrorLevel, key, true, err...)
}

func (l *SampledLogger) SampledWarn(key string) *plog.Entry {
	return l.Sampled(plog.WarnLevel, key, false)
}

func (l *SampledLogger) SampledWarnWithErrSig(key string, err ...error) *plog.Entry {
	return l.Sampled(plog.WarnLevel, key, true, err...)
}

func (l *SampledLogger) SampledDebug(key string) *plog.Entry {
	return l.Sampled(plog.DebugLevel, key, false)
}

func (l *SampledLogger) SampledTrace(key string) *plog.Entry {
	return l.Sampled(plog.TraceLevel, key, false)
}

func (l *SampledLogger) SampledTraceWithErrSig(key string, err ...error) *plog.Entry {
	return l.Sampled(plog.TraceLevel, key, true, err...)
}
