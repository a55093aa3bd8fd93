package etw

import (
	"time"
)

// Record exposes the payload of one event as named, typed properties.
//
// Properties are decoded on first access and cached. Offsets are shared with
// the underlying RecordReader, so reading the last property first still scans
// the payload once. A Record is not safe for concurrent use.
type Record struct {
	Header *EventHeader // may be nil
	Schema *EventSchema

	reader  RecordReader
	props   []Property
	decoded []bool
}

// NewRecord returns a record over data decoded with schema.
func NewRecord(schema *EventSchema, data []byte, pointerSize int) (*Record, error) {
	r := &Record{}
	if err := r.reset(nil, schema, data, pointerSize); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Record) reset(h *EventHeader, schema *EventSchema, data []byte, pointerSize int) error {
	if err := r.reader.Reset(data, pointerSize, schema.Properties); err != nil {
		return err
	}
	r.Header = h
	r.Schema = schema
	n := len(schema.Properties)
	if cap(r.props) < n {
		r.props = make([]Property, n)
		r.decoded = make([]bool, n)
	} else {
		r.props = r.props[:n]
		r.decoded = r.decoded[:n]
		clear(r.props)
		clear(r.decoded)
	}
	return nil
}

// Reader returns the underlying reader, for callers that want raw access.
func (r *Record) Reader() *RecordReader { return &r.reader }

// Len returns the number of properties in the schema.
func (r *Record) Len() int { return len(r.props) }

// PropertyAt returns property i. The result is owned by the record.
func (r *Record) PropertyAt(i int) (*Property, error) {
	if i < 0 || i >= len(r.props) {
		return nil, r.reader.indexError(i)
	}
	if !r.decoded[i] {
		if err := decodeProperty(&r.reader, i, &r.props[i]); err != nil {
			return nil, err
		}
		r.decoded[i] = true
	}
	return &r.props[i], nil
}

// Property returns the named property.
func (r *Record) Property(name string) (*Property, error) {
	i, ok := r.Schema.PropertyIndex(name)
	if !ok {
		return nil, unknownPropertyName(name)
	}
	return r.PropertyAt(i)
}

// Properties decodes every property in schema order. It stops at the first
// property that cannot be read.
func (r *Record) Properties() ([]*Property, error) {
	out := make([]*Property, 0, len(r.props))
	for i := range r.props {
		p, err := r.PropertyAt(i)
		if err != nil {
			return out, err
		}
		out = append(out, p)
	}
	return out, nil
}

// ExtraData returns the payload bytes after the last schema property.
func (r *Record) ExtraData() ([]byte, error) {
	end, err := r.reader.End()
	if err != nil {
		return nil, err
	}
	return r.reader.data[end:], nil
}

// GetPropertyString returns the named property formatted as text.
func (r *Record) GetPropertyString(name string) (string, error) {
	p, err := r.Property(name)
	if err != nil {
		return "", err
	}
	return p.FormatToString(), nil
}

func (r *Record) GetPropertyInt(name string) (int64, error) {
	p, err := r.Property(name)
	if err != nil {
		return 0, err
	}
	return p.GetInt()
}

func (r *Record) GetPropertyUint(name string) (uint64, error) {
	p, err := r.Property(name)
	if err != nil {
		return 0, err
	}
	return p.GetUInt()
}

func (r *Record) GetPropertyBool(name string) (bool, error) {
	p, err := r.Property(name)
	if err != nil {
		return false, err
	}
	return p.GetBool()
}

func (r *Record) GetPropertyFloat(name string) (float64, error) {
	p, err := r.Property(name)
	if err != nil {
		return 0, err
	}
	return p.GetFloat()
}

func (r *Record) GetPropertyGUID(name string) (GUID, error) {
	p, err := r.Property(name)
	if err != nil {
		return GUID{}, err
	}
	return p.GetGUID()
}

func (r *Record) GetPropertyTime(name string) (time.Time, error) {
	p, err := r.Property(name)
	if err != nil {
		return time.Time{}, err
	}
	return p.GetTime()
}

func (r *Record) GetPropertyBytes(name string) ([]byte, error) {
	p, err := r.Property(name)
	if err != nil {
		return nil, err
	}
	return p.GetBytes()
}

// AppendJSON appends the properties as a JSON object in schema order.
func (r *Record) AppendJSON(buf []byte) ([]byte, error) {
	buf = append(buf, '{')
	for i := range r.props {
		p, err := r.PropertyAt(i)
		if err != nil {
			return buf, err
		}
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = appendJSONString(buf, p.Name)
		buf = append(buf, ':')
		buf = p.AppendJSON(buf)
	}
	return append(buf, '}'), nil
}
