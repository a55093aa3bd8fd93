package etw

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/bits"
	"net/netip"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/tekert/etwschema/internal/hexf"
	"github.com/tekert/etwschema/internal/utf16f"
)

type valueKind uint8

const (
	kindNone valueKind = iota
	kindUint
	kindInt
	kindBool
	kindChar
	kindFloat
	kindString
	kindSID
	kindGUID
	kindTime
	kindBytes
)

// Property is one decoded event property.
type Property struct {
	Name    string
	InType  TdhInType
	OutType TdhOutType
	Offset  int // start in the event payload
	Size    int // bytes in the event payload

	kind  valueKind
	num   uint64 // integers, booleans, chars and float bits
	str   string
	guid  GUID
	time  time.Time
	bytes []byte
}

// decodeProperty reads property i of r into p.
func decodeProperty(r *RecordReader, i int, p *Property) error {
	def, err := r.prop(i)
	if err != nil {
		return err
	}
	off, end, err := r.bounds(i)
	if err != nil {
		return err
	}
	*p = Property{
		Name:    def.Name,
		InType:  def.InType,
		OutType: def.OutType,
		Offset:  off,
		Size:    end - off,
	}

	in := def.InType
	switch {
	case in == TDH_INTYPE_BOOLEAN:
		p.kind = kindBool
		p.num, err = r.ReadUint(i)
	case in == TDH_INTYPE_UNICODECHAR || in == TDH_INTYPE_ANSICHAR:
		p.kind = kindChar
		p.num, err = r.ReadUint(i)
	case in == TDH_INTYPE_FILETIME || in == TDH_INTYPE_SYSTEMTIME,
		(in == TDH_INTYPE_INT64 || in == TDH_INTYPE_UINT64) &&
			(def.OutType == TDH_OUTTYPE_DATETIME || def.OutType == TDH_OUTTYPE_DATETIME_UTC):
		p.kind = kindTime
		p.time, err = r.ReadTime(i)
	case in.isInteger():
		p.kind = kindUint
		if in.isSigned() {
			p.kind = kindInt
		}
		p.num, err = r.ReadUint(i)
	case in == TDH_INTYPE_FLOAT || in == TDH_INTYPE_DOUBLE:
		var f float64
		f, err = r.ReadFloat(i)
		p.kind = kindFloat
		p.num = math.Float64bits(f)
	case in.isString():
		p.kind = kindString
		p.str, err = r.ReadString(i)
	case in == TDH_INTYPE_SID || in == TDH_INTYPE_WBEMSID:
		p.kind = kindSID
		p.str, err = r.ReadSID(i)
	case in == TDH_INTYPE_GUID:
		p.kind = kindGUID
		p.guid, err = r.ReadGUID(i)
	default:
		p.kind = kindBytes
		p.bytes, err = r.ReadBytes(i)
	}
	return err
}

func (p *Property) typeError(want string) error {
	return fmt.Errorf("%w: %s is %s, not %s", ErrPropertyType, p.Name, p.InType, want)
}

// GetInt returns an integer property as int64. Unsigned values above
// math.MaxInt64 are an error.
func (p *Property) GetInt() (int64, error) {
	switch p.kind {
	case kindInt:
		return int64(p.num), nil
	case kindUint, kindBool, kindChar:
		if p.num > math.MaxInt64 {
			return 0, fmt.Errorf("%w: %s value %d overflows int64", ErrPropertyType, p.Name, p.num)
		}
		return int64(p.num), nil
	}
	return 0, p.typeError("an integer")
}

// GetUInt returns an integer property as uint64. Negative values are an error.
func (p *Property) GetUInt() (uint64, error) {
	switch p.kind {
	case kindUint, kindBool, kindChar:
		return p.num, nil
	case kindInt:
		if int64(p.num) < 0 {
			return 0, fmt.Errorf("%w: %s value %d is negative", ErrPropertyType, p.Name, int64(p.num))
		}
		return p.num, nil
	}
	return 0, p.typeError("an integer")
}

func (p *Property) GetFloat() (float64, error) {
	switch p.kind {
	case kindFloat:
		return math.Float64frombits(p.num), nil
	case kindInt:
		return float64(int64(p.num)), nil
	case kindUint:
		return float64(p.num), nil
	}
	return 0, p.typeError("a number")
}

func (p *Property) GetBool() (bool, error) {
	switch p.kind {
	case kindBool, kindUint, kindInt:
		return p.num != 0, nil
	}
	return false, p.typeError("a boolean")
}

// GetString returns the text of a string or SID property.
func (p *Property) GetString() (string, error) {
	switch p.kind {
	case kindString, kindSID:
		return p.str, nil
	case kindChar:
		return p.charString(), nil
	}
	return "", p.typeError("a string")
}

func (p *Property) GetGUID() (GUID, error) {
	if p.kind != kindGUID {
		return GUID{}, p.typeError("a GUID")
	}
	return p.guid, nil
}

// GetTime returns a FILETIME, SYSTEMTIME or DATETIME property in UTC.
func (p *Property) GetTime() (time.Time, error) {
	if p.kind != kindTime {
		return time.Time{}, p.typeError("a time")
	}
	return p.time, nil
}

// GetBytes returns the data of a binary property. The slice may alias the
// event payload.
func (p *Property) GetBytes() ([]byte, error) {
	if p.kind != kindBytes {
		return nil, p.typeError("binary")
	}
	return p.bytes, nil
}

// Value returns the decoded value as uint64, int64, bool, float64, string,
// GUID, time.Time or []byte.
func (p *Property) Value() any {
	switch p.kind {
	case kindUint:
		return p.num
	case kindInt:
		return int64(p.num)
	case kindBool:
		return p.num != 0
	case kindChar:
		return p.charString()
	case kindFloat:
		return math.Float64frombits(p.num)
	case kindString, kindSID:
		return p.str
	case kindGUID:
		return p.guid
	case kindTime:
		return p.time
	case kindBytes:
		return p.bytes
	}
	return nil
}

// detach copies byte values so p no longer references the payload.
func (p *Property) detach() {
	if p.bytes != nil {
		p.bytes = append([]byte(nil), p.bytes...)
	}
}

func (p *Property) charString() string {
	return string(p.appendChar(nil))
}

func (p *Property) appendChar(buf []byte) []byte {
	if p.InType == TDH_INTYPE_ANSICHAR {
		return utf8.AppendRune(buf, rune(byte(p.num)))
	}
	// Unpaired surrogates stay WTF-8, as in strings.
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], uint16(p.num))
	return utf16f.AppendBytes(buf, b[:])
}

// FormatToString returns the value formatted according to its out-type.
func (p *Property) FormatToString() string {
	if p.kind == kindString || p.kind == kindSID {
		return p.str
	}
	return string(p.AppendText(make([]byte, 0, 32)))
}

// AppendText appends the value formatted according to its out-type.
func (p *Property) AppendText(buf []byte) []byte {
	switch p.kind {
	case kindUint, kindInt:
		return p.appendInteger(buf)
	case kindBool:
		return strconv.AppendBool(buf, p.num != 0)
	case kindChar:
		return p.appendChar(buf)
	case kindFloat:
		bitSize := 64
		if p.InType == TDH_INTYPE_FLOAT {
			bitSize = 32
		}
		return strconv.AppendFloat(buf, math.Float64frombits(p.num), 'g', -1, bitSize)
	case kindString, kindSID:
		return append(buf, p.str...)
	case kindGUID:
		return p.guid.AppendText(buf)
	case kindTime:
		return p.time.AppendFormat(buf, time.RFC3339Nano)
	case kindBytes:
		return p.appendBinary(buf)
	}
	return buf
}

// AppendJSON appends the value as a JSON value. Decimal numbers and booleans
// are bare, everything else is a string.
func (p *Property) AppendJSON(buf []byte) []byte {
	switch p.kind {
	case kindBool:
		return strconv.AppendBool(buf, p.num != 0)
	case kindUint, kindInt:
		if p.IsDecimal() {
			return p.appendInteger(buf)
		}
	case kindFloat:
		if f := math.Float64frombits(p.num); !math.IsNaN(f) && !math.IsInf(f, 0) {
			return p.AppendText(buf)
		}
	case kindString, kindSID:
		return appendJSONString(buf, p.str)
	case kindChar:
		return appendJSONString(buf, p.charString())
	}
	buf = append(buf, '"')
	buf = p.AppendText(buf)
	return append(buf, '"')
}

// IsDecimal reports whether an integer value is formatted as a decimal number.
func (p *Property) IsDecimal() bool {
	switch p.OutType {
	case TDH_OUTTYPE_HEXINT8, TDH_OUTTYPE_HEXINT16, TDH_OUTTYPE_HEXINT32, TDH_OUTTYPE_HEXINT64,
		TDH_OUTTYPE_ERRORCODE, TDH_OUTTYPE_WIN32ERROR, TDH_OUTTYPE_NTSTATUS, TDH_OUTTYPE_HRESULT,
		TDH_OUTTYPE_IPV4:
		return false
	case TDH_OUTTYPE_NULL:
		switch p.InType {
		case TDH_INTYPE_HEXINT32, TDH_INTYPE_HEXINT64, TDH_INTYPE_POINTER:
			return false
		}
	}
	return true
}

func (p *Property) appendInteger(buf []byte) []byte {
	switch p.OutType {
	case TDH_OUTTYPE_ERRORCODE, TDH_OUTTYPE_WIN32ERROR, TDH_OUTTYPE_NTSTATUS, TDH_OUTTYPE_HRESULT:
		return hexf.AppendUint32PaddedU(append(buf, '0', 'x'), uint32(p.num))
	case TDH_OUTTYPE_PORT:
		return strconv.AppendUint(buf, uint64(bits.ReverseBytes16(uint16(p.num))), 10)
	case TDH_OUTTYPE_IPV4:
		v := uint32(p.num)
		return netip.AddrFrom4([4]byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}).AppendTo(buf)
	}
	if !p.IsDecimal() {
		v := p.num
		if p.Size < 8 {
			v &= 1<<(8*p.Size) - 1
		}
		return hexf.AppendNUm64p(buf, v, true)
	}
	if p.kind == kindInt {
		return strconv.AppendInt(buf, int64(p.num), 10)
	}
	return strconv.AppendUint(buf, p.num, 10)
}

const (
	afInet  = 2
	afInet6 = 23
)

func (p *Property) appendBinary(buf []byte) []byte {
	b := p.bytes
	switch p.OutType {
	case TDH_OUTTYPE_IPV6:
		if len(b) == 16 {
			return netip.AddrFrom16([16]byte(b)).AppendTo(buf)
		}
	case TDH_OUTTYPE_SOCKETADDRESS:
		if ap, ok := parseSockaddr(b); ok {
			return ap.AppendTo(buf)
		}
	}
	return hexf.AppendEncodeUPrefix(buf, b)
}

// parseSockaddr decodes a SOCKADDR_IN or SOCKADDR_IN6.
func parseSockaddr(b []byte) (netip.AddrPort, bool) {
	if len(b) < 8 {
		return netip.AddrPort{}, false
	}
	port := binary.BigEndian.Uint16(b[2:])
	switch binary.LittleEndian.Uint16(b) {
	case afInet:
		return netip.AddrPortFrom(netip.AddrFrom4([4]byte(b[4:8])), port), true
	case afInet6:
		if len(b) < 24 {
			break
		}
		return netip.AddrPortFrom(netip.AddrFrom16([16]byte(b[8:24])), port), true
	}
	return netip.AddrPort{}, false
}
