package main

import (
	"bufio"
	"io"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/goccy/go-json"
	"github.com/klauspost/compress/zstd"

	"github.com/tekert/etwschema/etw"
)

type eventWriter interface {
	Write(e *etw.Event) error
	Close() error
}

// newEventWriter returns a writer of JSON Lines or a CBOR sequence, optionally
// zstd compressed. Close flushes but does not close w.
func newEventWriter(w io.Writer, format string, compress bool) (eventWriter, error) {
	var zw *zstd.Encoder
	if compress {
		var err error
		if zw, err = zstd.NewWriter(w); err != nil {
			return nil, err
		}
		w = zw
	}
	bw := bufio.NewWriterSize(w, 64<<10)
	out := &writer{bw: bw, zw: zw}

	switch format {
	case formatCBOR:
		opts := cbor.CoreDetEncOptions()
		opts.Time = cbor.TimeRFC3339Nano
		em, err := opts.EncMode()
		if err != nil {
			return nil, err
		}
		out.cbor = em.NewEncoder(bw)
	default:
		enc := json.NewEncoder(bw)
		enc.SetEscapeHTML(false)
		out.json = enc
	}
	return out, nil
}

type writer struct {
	bw   *bufio.Writer
	zw   *zstd.Encoder
	json *json.Encoder
	cbor *cbor.Encoder
}

func (w *writer) Write(e *etw.Event) error {
	if w.cbor != nil {
		return w.cbor.Encode(newCBOREvent(e))
	}
	return w.json.Encode(e)
}

func (w *writer) Close() error {
	if err := w.bw.Flush(); err != nil {
		return err
	}
	if w.zw != nil {
		return w.zw.Close()
	}
	return nil
}

// cborEvent mirrors the JSON event layout with native CBOR values.
type cborEvent struct {
	EventData map[string]any `cbor:"EventData"`
	ExtraData []byte         `cbor:"ExtraData,omitempty"`
	System    cborSystem     `cbor:"System"`
}

type cborSystem struct {
	EventID     uint16    `cbor:"EventID"`
	Version     uint8     `cbor:"Version"`
	EventType   string    `cbor:"EventType"`
	Provider    string    `cbor:"Provider"`
	ProviderID  string    `cbor:"ProviderGuid"`
	ActivityID  string    `cbor:"ActivityID,omitempty"`
	ProcessID   uint32    `cbor:"ProcessID"`
	ThreadID    uint32    `cbor:"ThreadID"`
	ProcessorID uint16    `cbor:"ProcessorID"`
	Keywords    uint64    `cbor:"Keywords"`
	Level       uint8     `cbor:"Level"`
	Opcode      string    `cbor:"Opcode"`
	Task        string    `cbor:"Task"`
	TimeCreated time.Time `cbor:"TimeCreated"`
}

func newCBOREvent(e *etw.Event) *cborEvent {
	s := &e.System
	out := &cborEvent{
		EventData: make(map[string]any, len(e.EventData)),
		ExtraData: e.ExtraData,
		System: cborSystem{
			EventID:     s.EventID,
			Version:     s.Version,
			EventType:   s.EventType,
			Provider:    s.Provider.Name,
			ProviderID:  s.Provider.Guid.StringU(),
			ActivityID:  s.Correlation.ActivityID,
			ProcessID:   s.Execution.ProcessID,
			ThreadID:    s.Execution.ThreadID,
			ProcessorID: s.Execution.ProcessorID,
			Keywords:    s.Keywords.Mask,
			Level:       s.Level.Value,
			Opcode:      s.Opcode.Name,
			Task:        s.Task.Name,
			TimeCreated: s.TimeCreated.SystemTime,
		},
	}
	for _, p := range e.EventData {
		switch v := p.Value().(type) {
		case etw.GUID:
			out.EventData[p.Name] = v.StringU()
		case uint64, int64:
			// hex, status, port and address out-types keep their text form
			if p.IsDecimal() && p.OutType != etw.TDH_OUTTYPE_PORT {
				out.EventData[p.Name] = v
			} else {
				out.EventData[p.Name] = p.FormatToString()
			}
		default:
			out.EventData[p.Name] = v
		}
	}
	return out
}
