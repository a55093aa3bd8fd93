package etw

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/tekert/etwschema/internal/hexf"
)

// EventDescriptor identifies and classifies an event within its provider.
type EventDescriptor struct {
	Id      uint16
	Version uint8
	Channel uint8
	Level   uint8
	Opcode  uint8
	Task    uint16
	Keyword uint64
}

// EventHeader is the fixed part of an event record.
type EventHeader struct {
	Flags           uint16
	ProcessId       uint32
	ThreadId        uint32
	TimeStamp       int64 // FILETIME
	ProviderId      GUID
	EventDescriptor EventDescriptor
	// KernelTime and UserTime are set for kernel sessions and private sessions
	// without the NO_CPUTIME flag. ProcessorTime is set otherwise.
	KernelTime    uint32
	UserTime      uint32
	ProcessorTime uint64
	ActivityId    GUID

	ProcessorNumber uint16
}

const (
	EVENT_HEADER_FLAG_EXTENDED_INFO   = 0x0001
	EVENT_HEADER_FLAG_PRIVATE_SESSION = 0x0002
	EVENT_HEADER_FLAG_STRING_ONLY     = 0x0004
	EVENT_HEADER_FLAG_TRACE_MESSAGE   = 0x0008
	EVENT_HEADER_FLAG_NO_CPUTIME      = 0x0010
	EVENT_HEADER_FLAG_32_BIT_HEADER   = 0x0020
	EVENT_HEADER_FLAG_64_BIT_HEADER   = 0x0040
	EVENT_HEADER_FLAG_DECODE_GUID     = 0x0080
	EVENT_HEADER_FLAG_CLASSIC_HEADER  = 0x0100
	EVENT_HEADER_FLAG_PROCESSOR_INDEX = 0x0200
)

// PointerSize returns the pointer width announced by the header flags.
// Headers without a bitness flag are 64-bit.
func (h *EventHeader) PointerSize() int {
	if h.Flags&EVENT_HEADER_FLAG_32_BIT_HEADER != 0 {
		return 4
	}
	return 8
}

// RawEvent is an undecoded event: its header and the user data payload.
type RawEvent struct {
	EventHeader
	// PointerWidth overrides the header flags when non zero.
	PointerWidth uint8
	UserData     []byte
}

// PointerSize returns the pointer width to decode UserData with.
func (e *RawEvent) PointerSize() int {
	if e.PointerWidth != 0 {
		return int(e.PointerWidth)
	}
	return e.EventHeader.PointerSize()
}

// NewActivityID returns a random activity id, for producers of synthetic events.
func NewActivityID() GUID {
	return GUIDFromUUID(uuid.New())
}

// Name and value pairs used in SystemMetadata.
type MarshalKeywords struct {
	Mask uint64
	Name []string
}

type MarshalValue[T any] struct {
	Value T
	Name  string
}

// SystemMetadata holds the header fields of an event resolved against the
// schema catalog.
type SystemMetadata struct {
	Channel   uint8
	EventID   uint16
	Version   uint8
	EventType string // schema name
	EventGuid GUID

	Correlation struct {
		ActivityID string
	}

	Execution struct {
		ProcessID     uint32
		ThreadID      uint32
		ProcessorTime uint64
		ProcessorID   uint16
		KernelTime    uint32
		UserTime      uint32
	}

	Keywords MarshalKeywords
	Level    MarshalValue[uint8]
	Opcode   MarshalValue[uint8]
	Task     MarshalValue[uint16]

	Provider struct {
		Guid GUID
		Name string
	}

	TimeCreated struct {
		SystemTime time.Time
	}
}

// newSystemMetadata fills a SystemMetadata from h. schema and provider may be nil.
func newSystemMetadata(h *EventHeader, schema *EventSchema, provider *ProviderInfo) SystemMetadata {
	var s SystemMetadata
	d := &h.EventDescriptor

	s.Channel = d.Channel
	s.EventID = d.Id
	s.Version = d.Version
	s.EventGuid = h.ProviderId
	if !h.ActivityId.IsZero() {
		s.Correlation.ActivityID = h.ActivityId.StringU()
	}

	s.Execution.ProcessID = h.ProcessId
	s.Execution.ThreadID = h.ThreadId
	s.Execution.ProcessorID = h.ProcessorNumber
	if h.Flags&EVENT_HEADER_FLAG_PRIVATE_SESSION != 0 {
		s.Execution.ProcessorTime = h.ProcessorTime
	} else {
		s.Execution.KernelTime = h.KernelTime
		s.Execution.UserTime = h.UserTime
	}

	s.Keywords.Mask = d.Keyword
	s.Level = MarshalValue[uint8]{d.Level, standardLevelName(d.Level)}
	s.Opcode.Value = d.Opcode
	s.Task.Value = d.Task
	s.Provider.Guid = h.ProviderId
	s.TimeCreated.SystemTime = FromFiletimeUTC(h.TimeStamp)

	if schema != nil {
		s.EventType = schema.Name
		s.Opcode.Name = schema.OpcodeNameOf(d.Opcode)
		s.Task.Name = schema.TaskName
		if s.Task.Name == "" {
			s.Task.Name = schema.Name
		}
		if s.Provider.Name == "" {
			s.Provider.Name = schema.Provider
		}
	} else {
		s.Opcode.Name = standardOpcodeName(d.Opcode)
	}
	if provider != nil {
		s.Provider.Name = provider.Name
		s.Keywords.Name = provider.KeywordNames(d.Keyword)
	}
	return s
}

// AppendText appends the keywords as a JSON object.
func (k *MarshalKeywords) AppendText(buf []byte) []byte {
	buf = append(buf, `{"Mask":"0x`...)
	buf = hexf.AppendUint64PaddedU(buf, k.Mask)
	buf = append(buf, `","Name":[`...)
	for i, name := range k.Name {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = appendJSONString(buf, name)
	}
	return append(buf, "]}"...)
}

// AppendText appends the metadata as a JSON object. Field order is fixed.
func (s *SystemMetadata) AppendText(buf []byte) []byte {
	buf = append(buf, `{"Channel":`...)
	buf = strconv.AppendUint(buf, uint64(s.Channel), 10)

	buf = append(buf, `,"EventID":`...)
	buf = strconv.AppendUint(buf, uint64(s.EventID), 10)

	buf = append(buf, `,"Version":`...)
	buf = strconv.AppendUint(buf, uint64(s.Version), 10)

	buf = append(buf, `,"EventType":`...)
	buf = appendJSONString(buf, s.EventType)

	buf = append(buf, `,"EventGuid":"`...)
	buf = s.EventGuid.AppendText(buf)

	buf = append(buf, `","Correlation":{"ActivityID":`...)
	buf = appendJSONString(buf, s.Correlation.ActivityID)

	buf = append(buf, `},"Execution":{"ProcessID":`...)
	buf = strconv.AppendUint(buf, uint64(s.Execution.ProcessID), 10)
	buf = append(buf, `,"ThreadID":`...)
	buf = strconv.AppendUint(buf, uint64(s.Execution.ThreadID), 10)
	buf = append(buf, `,"ProcessorTime":`...)
	buf = strconv.AppendUint(buf, s.Execution.ProcessorTime, 10)
	buf = append(buf, `,"ProcessorID":`...)
	buf = strconv.AppendUint(buf, uint64(s.Execution.ProcessorID), 10)
	buf = append(buf, `,"KernelTime":`...)
	buf = strconv.AppendUint(buf, uint64(s.Execution.KernelTime), 10)
	buf = append(buf, `,"UserTime":`...)
	buf = strconv.AppendUint(buf, uint64(s.Execution.UserTime), 10)

	buf = append(buf, `},"Keywords":`...)
	buf = s.Keywords.AppendText(buf)

	buf = append(buf, `,"Level":{"Value":`...)
	buf = strconv.AppendUint(buf, uint64(s.Level.Value), 10)
	buf = append(buf, `,"Name":`...)
	buf = appendJSONString(buf, s.Level.Name)

	buf = append(buf, `},"Opcode":{"Value":`...)
	buf = strconv.AppendUint(buf, uint64(s.Opcode.Value), 10)
	buf = append(buf, `,"Name":`...)
	buf = appendJSONString(buf, s.Opcode.Name)

	buf = append(buf, `},"Task":{"Value":`...)
	buf = strconv.AppendUint(buf, uint64(s.Task.Value), 10)
	buf = append(buf, `,"Name":`...)
	buf = appendJSONString(buf, s.Task.Name)

	buf = append(buf, `},"Provider":{"Guid":"`...)
	buf = s.Provider.Guid.AppendText(buf)
	buf = append(buf, `","Name":`...)
	buf = appendJSONString(buf, s.Provider.Name)

	buf = append(buf, `},"TimeCreated":{"SystemTime":"`...)
	buf = s.TimeCreated.SystemTime.AppendFormat(buf, time.RFC3339Nano)
	return append(buf, `"}}`...)
}

// Event is a fully decoded event.
type Event struct {
	System    SystemMetadata
	EventData []*Property
	// ExtraData holds payload bytes past the last schema property, which
	// newer event versions append.
	ExtraData []byte
	Schema    *EventSchema
}

// MarshalJSON implements json.Marshaler.
func (e *Event) MarshalJSON() ([]byte, error) {
	return e.AppendText(make([]byte, 0, 512)), nil
}

// AppendText appends the event as
// {"EventData":{...},"ExtraData":"0x..","System":{...}}.
// Properties keep their schema order.
func (e *Event) AppendText(buf []byte) []byte {
	buf = append(buf, `{"EventData":{`...)
	for i, p := range e.EventData {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = appendJSONString(buf, p.Name)
		buf = append(buf, ':')
		buf = p.AppendJSON(buf)
	}
	buf = append(buf, '}')
	if len(e.ExtraData) > 0 {
		buf = append(buf, `,"ExtraData":"`...)
		buf = hexf.AppendEncodeUPrefix(buf, e.ExtraData)
		buf = append(buf, '"')
	}
	buf = append(buf, `,"System":`...)
	buf = e.System.AppendText(buf)
	return append(buf, '}')
}

// GetProperty returns the named property, or nil.
func (e *Event) GetProperty(name string) *Property {
	for _, p := range e.EventData {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// GetPropertyString returns the formatted value of the named property.
func (e *Event) GetPropertyString(name string) (string, error) {
	if p := e.GetProperty(name); p != nil {
		return p.FormatToString(), nil
	}
	return "", unknownPropertyName(name)
}

var levelNames = [...]string{"LogAlways", "Critical", "Error", "Warning", "Information", "Verbose"}

func standardLevelName(level uint8) string {
	if int(level) < len(levelNames) {
		return levelNames[level]
	}
	return "Level(" + strconv.Itoa(int(level)) + ")"
}

var opcodeNames = [...]string{
	0: "Info",
	1: "Start",
	2: "Stop",
	3: "DCStart",
	4: "DCStop",
	5: "Extension",
	6: "Reply",
	7: "Resume",
	8: "Suspend",
	9: "Send",
}

func standardOpcodeName(opcode uint8) string {
	if int(opcode) < len(opcodeNames) {
		return opcodeNames[opcode]
	}
	if opcode == 240 {
		return "Receive"
	}
	return "Opcode(" + strconv.Itoa(int(opcode)) + ")"
}
