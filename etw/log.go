package etw

import (
	"os"
	"strings"

	"github.com/tekert/etwschema/logsampler"
	"github.com/tekert/etwschema/logsampler/adapters/phusluadapter"

	plog "github.com/phuslu/log"
)

// LoggerName identifies one of the package loggers.
type LoggerName string

const (
	DecoderLogger LoggerName = "decoder" // per-record decode path, sampled
	SchemaLogger  LoggerName = "schema"  // registration and YAML loading
	DefaultLogger LoggerName = "default"
)

// LogLevelEnv names the environment variable read at init for the initial level.
const LogLevelEnv = "ETWDECODE_LOG_LEVEL"

type SampledLogger = phusluadapter.SampledLogger

// LoggerManager owns the package loggers and the sampler of the decode path.
type LoggerManager struct {
	writer  plog.Writer
	sampler logsampler.Sampler
	loggers map[LoggerName]*plog.Logger

	declog *SampledLogger
}

// Built at package initialization so init functions that register schemas
// can log.
var loggerManager = NewLoggerManager()

func init() {
	if lvl := os.Getenv(LogLevelEnv); lvl != "" {
		loggerManager.SetLevelsAll(plog.ParseLevel(strings.ToLower(lvl)))
	}
}

func decoderLog() *SampledLogger { return loggerManager.declog }
func schemaLog() *plog.Logger    { return loggerManager.loggers[SchemaLogger] }

// NewLoggerManager returns a manager writing to stderr at Warn level.
func NewLoggerManager() *LoggerManager {
	writer := &plog.IOWriter{Writer: os.Stderr}

	lm := &LoggerManager{
		writer:  writer,
		loggers: make(map[LoggerName]*plog.Logger, 3),
	}
	for _, name := range []LoggerName{DecoderLogger, SchemaLogger, DefaultLogger} {
		lm.loggers[name] = &plog.Logger{
			Level:   plog.WarnLevel,
			Writer:  writer,
			Context: plog.NewContext(nil).Str("component", string(name)).Value(),
		}
	}

	reporter := &phusluadapter.SummaryReporter{Logger: lm.loggers[DefaultLogger]}
	lm.sampler = logsampler.NewEventDrivenSampler(logsampler.DefaultBackoff, reporter)
	lm.declog = phusluadapter.NewSampledLogger(lm.loggers[DecoderLogger], lm.sampler)
	return lm
}

// SetBaseContext replaces the context fields of every logger. The component
// field is kept.
func (lm *LoggerManager) SetBaseContext(ctx []byte) {
	for name, logger := range lm.loggers {
		logger.Context = plog.NewContext(ctx).Str("component", string(name)).Value()
	}
}

// SetSampler replaces the decode path sampler, closing the previous one.
func (lm *LoggerManager) SetSampler(sampler logsampler.Sampler) {
	if lm.sampler != nil {
		lm.sampler.Close()
	}
	lm.sampler = sampler
	lm.declog.Sampler = sampler
}

func (lm *LoggerManager) Sampler() logsampler.Sampler { return lm.sampler }

func (lm *LoggerManager) SetWriter(writer plog.Writer) {
	lm.writer = writer
	for _, logger := range lm.loggers {
		logger.Writer = writer
	}
}

// SetLogLevels sets the level of the named loggers. Unknown names are ignored.
func (lm *LoggerManager) SetLogLevels(levels map[LoggerName]plog.Level) {
	for name, level := range levels {
		if logger, ok := lm.loggers[name]; ok {
			logger.SetLevel(level)
		}
	}
}

func (lm *LoggerManager) SetLevelsAll(level plog.Level) {
	for _, logger := range lm.loggers {
		logger.SetLevel(level)
	}
}

// Logger returns the named logger, or nil.
func (lm *LoggerManager) Logger(name LoggerName) *plog.Logger { return lm.loggers[name] }

// Flush reports pending sampler summaries.
func (lm *LoggerManager) Flush() {
	if lm.sampler != nil {
		lm.sampler.Flush()
	}
}

func SetSampler(s logsampler.Sampler) { loggerManager.SetSampler(s) }

func SetLogLevels(levels map[LoggerName]plog.Level) { loggerManager.SetLogLevels(levels) }

func SetLogLevelsAll(level plog.Level) { loggerManager.SetLevelsAll(level) }

func SetLogTraceLevel() { SetLogLevelsAll(plog.TraceLevel) }
func SetLogDebugLevel() { SetLogLevelsAll(plog.DebugLevel) }
func SetLogInfoLevel()  { SetLogLevelsAll(plog.InfoLevel) }
func SetLogWarnLevel()  { SetLogLevelsAll(plog.WarnLevel) }
func SetLogErrorLevel() { SetLogLevelsAll(plog.ErrorLevel) }

// DisableLogging silences every logger.
func DisableLogging() { SetLogLevelsAll(99) }

func SetLogWriter(writer plog.Writer) { loggerManager.SetWriter(writer) }

func SetLogBaseContext(ctx []byte) { loggerManager.SetBaseContext(ctx) }

func GetLogManager() *LoggerManager { return loggerManager }
