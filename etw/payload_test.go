package etw

import (
	"encoding/binary"
	"unicode/utf16"
)

// payload builds little-endian event user data.
type payload []byte

func (b payload) u8(v uint8) payload   { return append(b, v) }
func (b payload) u16(v uint16) payload { return binary.LittleEndian.AppendUint16(b, v) }
func (b payload) u32(v uint32) payload { return binary.LittleEndian.AppendUint32(b, v) }
func (b payload) u64(v uint64) payload { return binary.LittleEndian.AppendUint64(b, v) }

// ptr appends v with the given pointer size.
func (b payload) ptr(v uint64, size int) payload {
	if size == 4 {
		return b.u32(uint32(v))
	}
	return b.u64(v)
}

// wstr appends s as UTF-16LE followed by a zero unit.
func (b payload) wstr(s string) payload {
	return b.wstrN(s).u16(0)
}

// wstrN appends s as UTF-16LE without a terminator.
func (b payload) wstrN(s string) payload {
	for _, u := range utf16.Encode([]rune(s)) {
		b = b.u16(u)
	}
	return b
}

func (b payload) astr(s string) payload {
	return append(append(b, s...), 0)
}

func (b payload) raw(p ...byte) payload { return append(b, p...) }

func (b payload) guid(g *GUID) payload {
	var tmp [16]byte
	g.PutBytes(tmp[:])
	return append(b, tmp[:]...)
}

// sid appends a binary SID with authority 5 (NT AUTHORITY).
func (b payload) sid(subs ...uint32) payload {
	b = append(b, 1, byte(len(subs)), 0, 0, 0, 0, 0, 5)
	for _, s := range subs {
		b = b.u32(s)
	}
	return b
}

func defs(in ...TdhInType) []PropertyDef {
	out := make([]PropertyDef, len(in))
	for i, t := range in {
		out[i] = PropertyDef{Name: "f" + string(rune('0'+i)), InType: t}
	}
	return out
}
