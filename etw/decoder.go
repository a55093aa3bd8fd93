package etw

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync"
	"sync/atomic"

	plog "github.com/phuslu/log"
)

// StringOnlySchema decodes events with the STRING_ONLY header flag, whose
// payload is a single nul-terminated UTF-16 string.
var StringOnlySchema = &EventSchema{
	Name:       "StringOnly",
	Properties: []PropertyDef{{Name: "Message", InType: TDH_INTYPE_UNICODESTRING, OutType: TDH_OUTTYPE_STRING}},
}

// SchemaStats counts the outcome of decoding events of one schema.
type SchemaStats struct {
	Name    string
	Decoded atomic.Uint64
	Failed  atomic.Uint64
}

// Decoder turns raw events into Records and Events using a SchemaRegistry.
// It is safe for concurrent use.
type Decoder struct {
	Registry *SchemaRegistry

	Decoded atomic.Uint64
	Failed  atomic.Uint64
	Unknown atomic.Uint64

	stats sync.Map // *EventSchema -> *SchemaStats
	pool  sync.Pool
}

// NewDecoder returns a decoder over reg, or over DefaultRegistry if reg is nil.
func NewDecoder(reg *SchemaRegistry) *Decoder {
	if reg == nil {
		reg = DefaultRegistry
	}
	d := &Decoder{Registry: reg}
	d.pool.New = func() any { return &Record{} }
	return d
}

// Schema returns the schema for raw, or an error wrapping ErrUnknownSchema.
func (d *Decoder) Schema(raw *RawEvent) (*EventSchema, error) {
	if raw.Flags&EVENT_HEADER_FLAG_STRING_ONLY != 0 {
		return StringOnlySchema, nil
	}
	if s := d.Registry.Lookup(&raw.EventHeader); s != nil {
		return s, nil
	}
	h := &raw.EventHeader
	return nil, fmt.Errorf("%w: provider %s id %d version %d opcode %d", ErrUnknownSchema,
		h.ProviderId.StringU(), h.EventDescriptor.Id, h.EventDescriptor.Version, h.EventDescriptor.Opcode)
}

// DecodeRecord returns a lazy Record over raw. Property values that are byte
// slices alias raw.UserData.
func (d *Decoder) DecodeRecord(raw *RawEvent) (*Record, error) {
	s, err := d.Schema(raw)
	if err != nil {
		d.Unknown.Add(1)
		return nil, err
	}
	r := &Record{}
	if err := r.reset(&raw.EventHeader, s, raw.UserData, raw.PointerSize()); err != nil {
		d.fail(raw, s, err)
		return nil, err
	}
	return r, nil
}

// Decode decodes every property of raw. Failures are counted and logged;
// the returned Event does not reference raw.UserData.
func (d *Decoder) Decode(raw *RawEvent) (*Event, error) {
	s, err := d.Schema(raw)
	if err != nil {
		d.Unknown.Add(1)
		decoderLog().Sampled(plog.DebugLevel, "unknown-schema", true, err).Msg("no schema for event")
		return nil, err
	}

	r := d.pool.Get().(*Record)
	defer func() {
		r.Header, r.Schema = nil, nil
		r.reader.data = nil
		d.pool.Put(r)
	}()

	if err := r.reset(&raw.EventHeader, s, raw.UserData, raw.PointerSize()); err != nil {
		d.fail(raw, s, err)
		return nil, err
	}
	props, err := r.Properties()
	if err != nil {
		d.fail(raw, s, err)
		return nil, err
	}

	e := &Event{
		System:    newSystemMetadata(&raw.EventHeader, s, d.Registry.Provider(&raw.ProviderId)),
		EventData: make([]*Property, len(props)),
		Schema:    s,
	}
	values := make([]Property, len(props))
	for i, p := range props {
		values[i] = *p
		values[i].detach()
		e.EventData[i] = &values[i]
	}
	if extra, _ := r.ExtraData(); len(extra) > 0 {
		e.ExtraData = append([]byte(nil), extra...)
	}

	d.Decoded.Add(1)
	d.schemaStats(s).Decoded.Add(1)
	return e, nil
}

// DecodeAll decodes every event from events and passes it to fn. Events that
// fail to decode are counted, logged and skipped. It stops at the first error
// from events or fn, or when ctx is done.
func (d *Decoder) DecodeAll(ctx context.Context, events iter.Seq2[*RawEvent, error], fn func(*Event) error) error {
	for raw, err := range events {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		e, err := d.Decode(raw)
		if err != nil {
			continue
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	return nil
}

func (d *Decoder) fail(raw *RawEvent, s *EventSchema, err error) {
	d.Failed.Add(1)
	d.schemaStats(s).Failed.Add(1)

	entry := decoderLog().SampledWarnWithErrSig("decode:"+s.Name, err).
		Str("schema", s.Name).
		Uint16("id", raw.EventDescriptor.Id).
		Uint8("version", raw.EventDescriptor.Version).
		Int("pointerSize", raw.PointerSize()).
		Int("len", len(raw.UserData))
	var perr *PropertyError
	if errors.As(err, &perr) {
		entry = entry.Str("property", perr.Name).Int("offset", perr.Offset)
	}
	entry.Msg("failed to decode event")
}

func (d *Decoder) schemaStats(s *EventSchema) *SchemaStats {
	if v, ok := d.stats.Load(s); ok {
		return v.(*SchemaStats)
	}
	v, _ := d.stats.LoadOrStore(s, &SchemaStats{Name: s.Name})
	return v.(*SchemaStats)
}

// Stats returns the per-schema counters collected so far.
func (d *Decoder) Stats() []*SchemaStats {
	var out []*SchemaStats
	d.stats.Range(func(_, v any) bool {
		out = append(out, v.(*SchemaStats))
		return true
	})
	return out
}
