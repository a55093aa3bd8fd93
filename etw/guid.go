package etw

import (
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"

	"github.com/tekert/etwschema/internal/hexf"
)

// GUID is the Windows GUID layout. On the wire Data1..Data3 are little-endian
// and Data4 is 8 raw bytes.
type GUID struct {
	Data1 uint32
	Data2 uint16
	Data3 uint16
	Data4 [8]byte
}

// ErrInvalidGUID is returned by ParseGUID.
var ErrInvalidGUID = fmt.Errorf("invalid GUID")

// ParseGUID parses "xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx" with or without
// surrounding braces.
func ParseGUID(s string) (*GUID, error) {
	in := s
	if len(s) > 0 && s[0] == '{' {
		if s[len(s)-1] != '}' {
			return nil, fmt.Errorf("%w %q: missing closing brace", ErrInvalidGUID, in)
		}
		s = s[1 : len(s)-1]
	} else if len(s) > 0 && s[len(s)-1] == '}' {
		return nil, fmt.Errorf("%w %q: missing opening brace", ErrInvalidGUID, in)
	}
	// uuid.Parse also takes the 32 digit and urn forms, ETW tooling never emits those.
	if len(s) != 36 {
		return nil, fmt.Errorf("%w %q: bad length", ErrInvalidGUID, in)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidGUID, in, err)
	}
	g := GUIDFromUUID(u)
	return &g, nil
}

// MustParseGUID is like ParseGUID but panics on error.
func MustParseGUID(s string) *GUID {
	g, err := ParseGUID(s)
	if err != nil {
		panic(err)
	}
	return g
}

// GUIDFromUUID converts the RFC 4122 (big-endian) byte order.
func GUIDFromUUID(u uuid.UUID) GUID {
	var g GUID
	g.Data1 = binary.BigEndian.Uint32(u[0:4])
	g.Data2 = binary.BigEndian.Uint16(u[4:6])
	g.Data3 = binary.BigEndian.Uint16(u[6:8])
	copy(g.Data4[:], u[8:16])
	return g
}

// UUID returns g in RFC 4122 byte order.
func (g *GUID) UUID() uuid.UUID {
	var u uuid.UUID
	binary.BigEndian.PutUint32(u[0:4], g.Data1)
	binary.BigEndian.PutUint16(u[4:6], g.Data2)
	binary.BigEndian.PutUint16(u[6:8], g.Data3)
	copy(u[8:16], g.Data4[:])
	return u
}

// guidFromBytes reads the in-memory (little-endian) layout. b must hold 16 bytes.
func guidFromBytes(b []byte) GUID {
	var g GUID
	g.Data1 = binary.LittleEndian.Uint32(b[0:4])
	g.Data2 = binary.LittleEndian.Uint16(b[4:6])
	g.Data3 = binary.LittleEndian.Uint16(b[6:8])
	copy(g.Data4[:], b[8:16])
	return g
}

// PutBytes writes the in-memory (little-endian) layout into b[:16].
func (g *GUID) PutBytes(b []byte) {
	binary.LittleEndian.PutUint32(b[0:4], g.Data1)
	binary.LittleEndian.PutUint16(b[4:6], g.Data2)
	binary.LittleEndian.PutUint16(b[6:8], g.Data3)
	copy(b[8:16], g.Data4[:])
}

func (g *GUID) IsZero() bool {
	return *g == GUID{}
}

func (g *GUID) Equals(other *GUID) bool {
	return *g == *other
}

// AppendText appends the braced uppercase form.
func (g *GUID) AppendText(b []byte) []byte {
	b = append(b, '{')
	b = hexf.AppendUint32PaddedU(b, g.Data1)
	b = append(b, '-')
	b = hexf.AppendUint16PaddedU(b, g.Data2)
	b = append(b, '-')
	b = hexf.AppendUint16PaddedU(b, g.Data3)
	b = append(b, '-')
	b = hexf.AppendEncodeU(b, g.Data4[:2])
	b = append(b, '-')
	b = hexf.AppendEncodeU(b, g.Data4[2:])
	return append(b, '}')
}

// StringU returns the braced uppercase form, as used by Windows tooling.
func (g *GUID) StringU() string {
	var b [38]byte
	return string(g.AppendText(b[:0]))
}

// String returns the braced lowercase form.
func (g GUID) String() string {
	return "{" + g.UUID().String() + "}"
}

func (g GUID) MarshalText() ([]byte, error) {
	return g.AppendText(make([]byte, 0, 38)), nil
}

func (g *GUID) UnmarshalText(text []byte) error {
	p, err := ParseGUID(string(text))
	if err != nil {
		return err
	}
	*g = *p
	return nil
}
