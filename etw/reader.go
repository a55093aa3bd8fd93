package etw

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/tekert/etwschema/internal/utf16f"
)

// RecordReader reads the properties of one event payload according to an
// ordered list of property definitions.
//
// Property offsets are not part of the schema: the start of property i is
// the end of property i-1, and strings are only sized by scanning them. The
// reader resolves offsets forward on first use and memoizes them, so reading
// every property of a record costs one pass over the payload whatever the
// access order.
//
// A RecordReader is not safe for concurrent use. Independent readers share
// nothing and may run on different goroutines.
type RecordReader struct {
	data        []byte
	pointerSize int
	props       []PropertyDef

	// offsets[i] is valid for i <= resolved. offsets[len(props)] is the
	// end of the last property.
	offsets  []int
	resolved int
	err      error // first resolution failure, returned for every later index
}

// NewRecordReader returns a reader over data. pointerSize is the width of
// POINTER and SIZET properties for this event and must be 4 or 8.
func NewRecordReader(data []byte, pointerSize int, props []PropertyDef) (*RecordReader, error) {
	r := &RecordReader{}
	if err := r.Reset(data, pointerSize, props); err != nil {
		return nil, err
	}
	return r, nil
}

// Reset points r at a new payload, keeping its offset storage.
func (r *RecordReader) Reset(data []byte, pointerSize int, props []PropertyDef) error {
	if pointerSize != 4 && pointerSize != 8 {
		return fmt.Errorf("%w: %d", ErrPointerSize, pointerSize)
	}
	r.data = data
	r.pointerSize = pointerSize
	r.props = props
	if n := len(props) + 1; cap(r.offsets) < n {
		r.offsets = make([]int, n)
	} else {
		r.offsets = r.offsets[:n]
	}
	r.offsets[0] = 0
	r.resolved = 0
	r.err = nil
	return nil
}

func (r *RecordReader) PointerSize() int { return r.pointerSize }

func (r *RecordReader) PropertyCount() int { return len(r.props) }

func (r *RecordReader) Data() []byte { return r.data }

// OffsetOf returns the start offset of property i. i may be PropertyCount(),
// in which case the result is the end of the last property.
func (r *RecordReader) OffsetOf(i int) (int, error) {
	if i < 0 || i > len(r.props) {
		return 0, r.indexError(i)
	}
	for r.resolved < i {
		if r.err != nil {
			return 0, r.err
		}
		j := r.resolved
		off := r.offsets[j]
		size, err := r.propertySize(j, off)
		if err != nil {
			r.err = err
			return 0, err
		}
		assert(off+size <= len(r.data), "property %d ends at %d past %d", j, off+size, len(r.data))
		r.offsets[j+1] = off + size
		r.resolved++
	}
	return r.offsets[i], nil
}

// SizeOf returns the payload size of property i.
func (r *RecordReader) SizeOf(i int) (int, error) {
	off, end, err := r.bounds(i)
	return end - off, err
}

// End returns the offset just past the last property. Bytes after it are
// not described by the schema.
func (r *RecordReader) End() (int, error) {
	return r.OffsetOf(len(r.props))
}

// ReadFixedInt reads width (1, 2, 4 or 8) little-endian bytes at the start
// of property i. The value is sign-extended when signed is set; callers
// convert the result to int64 in that case.
func (r *RecordReader) ReadFixedInt(i, width int, signed bool) (uint64, error) {
	if i < 0 || i >= len(r.props) {
		return 0, r.indexError(i)
	}
	if width != 1 && width != 2 && width != 4 && width != 8 {
		return 0, r.typeError(i, fmt.Errorf("%w: integer width %d", ErrPropertyType, width))
	}
	off, err := r.OffsetOf(i)
	if err != nil {
		return 0, err
	}
	if _, err := r.need(i, off, width); err != nil {
		return 0, err
	}
	b := r.data[off:]
	switch width {
	case 1:
		if signed {
			return uint64(int64(int8(b[0]))), nil
		}
		return uint64(b[0]), nil
	case 2:
		v := binary.LittleEndian.Uint16(b)
		if signed {
			return uint64(int64(int16(v))), nil
		}
		return uint64(v), nil
	case 4:
		v := binary.LittleEndian.Uint32(b)
		if signed {
			return uint64(int64(int32(v))), nil
		}
		return uint64(v), nil
	}
	return binary.LittleEndian.Uint64(b), nil
}

// ReadPointer reads a pointer-sized property, zero-extended to 64 bits.
func (r *RecordReader) ReadPointer(i int) (uint64, error) {
	return r.ReadFixedInt(i, r.pointerSize, false)
}

// ReadUint reads any integer property using the width of its in-type.
// Signed in-types are sign-extended.
func (r *RecordReader) ReadUint(i int) (uint64, error) {
	p, err := r.prop(i)
	if err != nil {
		return 0, err
	}
	if !p.InType.isInteger() {
		return 0, r.typeError(i, fmt.Errorf("%w: %s is not an integer", ErrPropertyType, p.InType))
	}
	return r.ReadFixedInt(i, p.InType.FixedSize(r.pointerSize), p.InType.isSigned())
}

// ReadInt is like ReadUint but fails if an unsigned value does not fit in int64.
func (r *RecordReader) ReadInt(i int) (int64, error) {
	v, err := r.ReadUint(i)
	if err != nil {
		return 0, err
	}
	if !r.props[i].InType.isSigned() && v > math.MaxInt64 {
		return 0, r.typeError(i, fmt.Errorf("%w: %d overflows int64", ErrPropertyType, v))
	}
	return int64(v), nil
}

func (r *RecordReader) ReadBool(i int) (bool, error) {
	v, err := r.ReadUint(i)
	return v != 0, err
}

func (r *RecordReader) ReadFloat(i int) (float64, error) {
	p, err := r.prop(i)
	if err != nil {
		return 0, err
	}
	switch p.InType {
	case TDH_INTYPE_FLOAT:
		v, err := r.ReadFixedInt(i, 4, false)
		return float64(math.Float32frombits(uint32(v))), err
	case TDH_INTYPE_DOUBLE:
		v, err := r.ReadFixedInt(i, 8, false)
		return math.Float64frombits(v), err
	}
	return 0, r.typeError(i, fmt.Errorf("%w: %s is not a float", ErrPropertyType, p.InType))
}

// ReadString decodes a string property. UTF-16 text is returned as WTF-8 and
// stops at the first zero unit. A nul-terminated string missing its
// terminator covers the rest of the payload.
func (r *RecordReader) ReadString(i int) (string, error) {
	p, err := r.prop(i)
	if err != nil {
		return "", err
	}
	if !p.InType.isString() {
		return "", r.typeError(i, fmt.Errorf("%w: %s is not a string", ErrPropertyType, p.InType))
	}
	off, end, err := r.bounds(i)
	if err != nil {
		return "", err
	}
	b := r.data[off:end]
	switch p.InType {
	case TDH_INTYPE_UNICODESTRING, TDH_INTYPE_NONNULLTERMINATEDSTRING:
		return utf16f.DecodeBytes(b), nil
	case TDH_INTYPE_COUNTEDSTRING, TDH_INTYPE_MANIFEST_COUNTEDSTRING, TDH_INTYPE_REVERSEDCOUNTEDSTRING:
		return utf16f.DecodeBytes(b[2:]), nil
	case TDH_INTYPE_COUNTEDANSISTRING, TDH_INTYPE_MANIFEST_COUNTEDANSISTRING, TDH_INTYPE_REVERSEDCOUNTEDANSISTRING:
		b = b[2:]
	}
	if k := bytes.IndexByte(b, 0); k >= 0 {
		b = b[:k]
	}
	return string(b), nil
}

// ReadGUID reads a GUID property.
func (r *RecordReader) ReadGUID(i int) (GUID, error) {
	p, err := r.prop(i)
	if err != nil {
		return GUID{}, err
	}
	if p.InType != TDH_INTYPE_GUID {
		return GUID{}, r.typeError(i, fmt.Errorf("%w: %s is not a GUID", ErrPropertyType, p.InType))
	}
	off, end, err := r.bounds(i)
	if err != nil {
		return GUID{}, err
	}
	return guidFromBytes(r.data[off:end]), nil
}

// ReadTime reads FILETIME, SYSTEMTIME and 64-bit integers formatted as
// date-times. The result is in UTC.
func (r *RecordReader) ReadTime(i int) (time.Time, error) {
	p, err := r.prop(i)
	if err != nil {
		return time.Time{}, err
	}
	switch {
	case p.InType == TDH_INTYPE_FILETIME,
		(p.InType == TDH_INTYPE_UINT64 || p.InType == TDH_INTYPE_INT64) &&
			(p.OutType == TDH_OUTTYPE_DATETIME || p.OutType == TDH_OUTTYPE_DATETIME_UTC):
		v, err := r.ReadFixedInt(i, 8, false)
		if err != nil {
			return time.Time{}, err
		}
		return FromFiletimeUTC(int64(v)), nil
	case p.InType == TDH_INTYPE_SYSTEMTIME:
		off, end, err := r.bounds(i)
		if err != nil {
			return time.Time{}, err
		}
		return fromSystemTime(r.data[off:end]), nil
	}
	return time.Time{}, r.typeError(i, fmt.Errorf("%w: %s is not a time", ErrPropertyType, p.InType))
}

// ReadSID formats a SID or WBEMSID property as "S-1-...". An absent WBEMSID
// reads as "".
func (r *RecordReader) ReadSID(i int) (string, error) {
	p, err := r.prop(i)
	if err != nil {
		return "", err
	}
	off, end, err := r.bounds(i)
	if err != nil {
		return "", err
	}
	b := r.data[off:end]
	switch p.InType {
	case TDH_INTYPE_SID:
	case TDH_INTYPE_WBEMSID:
		if len(b) == 4 {
			return "", nil
		}
		b = b[2*r.pointerSize:]
	default:
		return "", r.typeError(i, fmt.Errorf("%w: %s is not a SID", ErrPropertyType, p.InType))
	}
	s, err := appendSID(make([]byte, 0, 64), b)
	if err != nil {
		return "", r.typeError(i, err)
	}
	return string(s), nil
}

// ReadBytes returns the data bytes of a binary property, without any count
// prefix. The slice aliases the payload.
func (r *RecordReader) ReadBytes(i int) ([]byte, error) {
	p, err := r.prop(i)
	if err != nil {
		return nil, err
	}
	off, end, err := r.bounds(i)
	if err != nil {
		return nil, err
	}
	switch p.InType {
	case TDH_INTYPE_BINARY:
		return r.data[off:end], nil
	case TDH_INTYPE_MANIFEST_COUNTEDBINARY:
		return r.data[off+2 : end], nil
	case TDH_INTYPE_HEXDUMP:
		return r.data[off+4 : end], nil
	}
	return nil, r.typeError(i, fmt.Errorf("%w: %s is not binary", ErrPropertyType, p.InType))
}

// RawBytes returns the payload bytes of property i whatever its type.
func (r *RecordReader) RawBytes(i int) ([]byte, error) {
	off, end, err := r.bounds(i)
	if err != nil {
		return nil, err
	}
	return r.data[off:end], nil
}

func (r *RecordReader) prop(i int) (*PropertyDef, error) {
	if i < 0 || i >= len(r.props) {
		return nil, r.indexError(i)
	}
	return &r.props[i], nil
}

// bounds returns the start and end of property i.
func (r *RecordReader) bounds(i int) (off, end int, err error) {
	if i < 0 || i >= len(r.props) {
		return 0, 0, r.indexError(i)
	}
	if end, err = r.OffsetOf(i + 1); err != nil {
		return 0, 0, err
	}
	return r.offsets[i], end, nil
}

// propertySize computes the size of property i starting at off.
func (r *RecordReader) propertySize(i, off int) (int, error) {
	p := &r.props[i]
	rem := len(r.data) - off

	if n := p.InType.FixedSize(r.pointerSize); n > 0 {
		return r.need(i, off, n)
	}

	switch p.InType {
	case TDH_INTYPE_UNICODESTRING:
		if p.Length > 0 {
			return r.need(i, off, 2*int(p.Length))
		}
		if n, terminated := utf16f.Scan(r.data[off:]); terminated {
			return 2 * (n + 1), nil
		}
		return rem, nil

	case TDH_INTYPE_ANSISTRING:
		if p.Length > 0 {
			return r.need(i, off, int(p.Length))
		}
		if k := bytes.IndexByte(r.data[off:], 0); k >= 0 {
			return k + 1, nil
		}
		return rem, nil

	case TDH_INTYPE_NONNULLTERMINATEDSTRING, TDH_INTYPE_NONNULLTERMINATEDANSISTRING:
		return rem, nil

	case TDH_INTYPE_COUNTEDSTRING, TDH_INTYPE_MANIFEST_COUNTEDSTRING,
		TDH_INTYPE_COUNTEDANSISTRING, TDH_INTYPE_MANIFEST_COUNTEDANSISTRING,
		TDH_INTYPE_MANIFEST_COUNTEDBINARY:
		if _, err := r.need(i, off, 2); err != nil {
			return 0, err
		}
		return r.need(i, off, 2+int(binary.LittleEndian.Uint16(r.data[off:])))

	case TDH_INTYPE_REVERSEDCOUNTEDSTRING, TDH_INTYPE_REVERSEDCOUNTEDANSISTRING:
		if _, err := r.need(i, off, 2); err != nil {
			return 0, err
		}
		return r.need(i, off, 2+int(binary.BigEndian.Uint16(r.data[off:])))

	case TDH_INTYPE_HEXDUMP:
		if _, err := r.need(i, off, 4); err != nil {
			return 0, err
		}
		n := uint64(binary.LittleEndian.Uint32(r.data[off:]))
		if 4+n > uint64(rem) {
			return 0, r.outOfRange(i, off, int(min(4+n, math.MaxInt32)))
		}
		return 4 + int(n), nil

	case TDH_INTYPE_SID:
		if _, err := r.need(i, off, 8); err != nil {
			return 0, err
		}
		return r.need(i, off, 8+4*int(r.data[off+1]))

	case TDH_INTYPE_WBEMSID:
		// TOKEN_USER {PSID; DWORD} followed by the SID, or a zero DWORD when absent.
		if _, err := r.need(i, off, 4); err != nil {
			return 0, err
		}
		if binary.LittleEndian.Uint32(r.data[off:]) == 0 {
			return 4, nil
		}
		hdr := 2 * r.pointerSize
		if _, err := r.need(i, off, hdr+8); err != nil {
			return 0, err
		}
		return r.need(i, off, hdr+8+4*int(r.data[off+hdr+1]))

	case TDH_INTYPE_BINARY:
		if p.Length > 0 {
			return r.need(i, off, int(p.Length))
		}
		if p.OutType == TDH_OUTTYPE_IPV6 {
			return r.need(i, off, 16)
		}
		return rem, nil
	}

	return 0, r.typeError(i, fmt.Errorf("%w: unsupported in-type %s", ErrPropertyType, p.InType))
}

// need checks that n bytes are available at off and returns n.
func (r *RecordReader) need(i, off, n int) (int, error) {
	if n > len(r.data)-off {
		return 0, r.outOfRange(i, off, n)
	}
	return n, nil
}

func (r *RecordReader) outOfRange(i, off, n int) error {
	return &PropertyError{
		Index:  i,
		Name:   r.props[i].Name,
		Offset: off,
		Need:   n,
		Len:    len(r.data),
		Err:    ErrOutOfRange,
	}
}

func (r *RecordReader) indexError(i int) error {
	return &PropertyError{Index: i, Err: fmt.Errorf("%w: index %d of %d", ErrUnknownProperty, i, len(r.props))}
}

func (r *RecordReader) typeError(i int, err error) error {
	e := &PropertyError{Index: i, Name: r.props[i].Name, Err: err}
	if i <= r.resolved {
		e.Offset = r.offsets[i]
	}
	return e
}
