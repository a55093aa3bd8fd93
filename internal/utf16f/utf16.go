// Package utf16f converts UTF-16 text to WTF-8 without going through []rune.
//
// Event payloads carry UTF-16LE as raw bytes at arbitrary (often odd) offsets,
// so the byte-oriented functions here never reinterpret the input as []uint16.
// Unpaired surrogates are kept as 3-byte WTF-8 sequences instead of being
// replaced with U+FFFD, so file names round-trip exactly.
package utf16f

import (
	"encoding/binary"
	"unsafe"
)

const rune1Max = 1<<7 - 1
const rune2Max = 1<<11 - 1

// Scan counts the UTF-16LE code units in b before the first zero unit.
// terminated reports whether a zero unit was found; when it is false n is
// len(b)/2 and a trailing odd byte is ignored.
func Scan(b []byte) (n int, terminated bool) {
	units := len(b) / 2
	for i := range units {
		if b[2*i] == 0 && b[2*i+1] == 0 {
			return i, true
		}
	}
	return units, false
}

// maxLen returns an upper bound of the WTF-8 size of the first n units of b.
func maxLen(b []byte, n int) (size int) {
	for i := range n {
		switch v := binary.LittleEndian.Uint16(b[2*i:]); {
		case v <= rune1Max:
			size += 1
		case v <= rune2Max:
			size += 2
		default:
			// Either half of a pair counts 3, overestimating a pair by 2.
			size += 3
		}
	}
	return size
}

// DecodeBytes decodes UTF-16LE bytes up to the first zero unit (or the end of
// b) into a WTF-8 string.
func DecodeBytes(b []byte) string {
	n, _ := Scan(b)
	if n == 0 {
		return ""
	}
	buf := make([]byte, maxLen(b, n))
	written := convert(buf, b[:2*n])
	return unsafe.String(unsafe.SliceData(buf), written)
}

// AppendBytes is like DecodeBytes but appends the result to dst.
func AppendBytes(dst, b []byte) []byte {
	n, _ := Scan(b)
	if n == 0 {
		return dst
	}
	start := len(dst)
	need := maxLen(b, n)
	if cap(dst)-start < need {
		grown := make([]byte, start, start+need)
		copy(grown, dst)
		dst = grown
	}
	written := convert(dst[start:start+need], b[:2*n])
	return dst[:start+written]
}

// isASCII checks four packed little-endian UTF-16 units at once.
func isASCII(w uint64) bool {
	return (w & 0xFF80FF80FF80FF80) == 0
}

// convert writes the WTF-8 form of the UTF-16LE units in src into dst and
// returns the number of bytes written. dst must hold maxLen bytes.
func convert(dst, src []byte) int {
	var i, j int
	srcLen := len(src) / 2

	// Fast path: 8 units per iteration while the text is pure ASCII.
	for i+8 <= srcLen {
		w0 := binary.LittleEndian.Uint64(src[2*i:])
		w1 := binary.LittleEndian.Uint64(src[2*i+8:])
		if !isASCII(w0) || !isASCII(w1) {
			break
		}
		for k := range 8 {
			dst[j+k] = src[2*(i+k)]
		}
		i += 8
		j += 8
	}

	for i < srcLen {
		word := binary.LittleEndian.Uint16(src[2*i:])

		switch {
		case word < 0x80:
			dst[j] = byte(word)
			j++
			i++

		case word < 0x800:
			dst[j] = byte((word >> 6) | 0xC0)
			dst[j+1] = byte((word & 0x3F) | 0x80)
			j += 2
			i++

		case word >= 0xD800 && word <= 0xDFFF:
			if word <= 0xDBFF && i+1 < srcLen {
				next := binary.LittleEndian.Uint16(src[2*i+2:])
				if next >= 0xDC00 && next <= 0xDFFF {
					r := (uint32(word-0xD800)<<10 | uint32(next-0xDC00)) + 0x10000
					dst[j] = byte((r >> 18) | 0xF0)
					dst[j+1] = byte(((r >> 12) & 0x3F) | 0x80)
					dst[j+2] = byte(((r >> 6) & 0x3F) | 0x80)
					dst[j+3] = byte((r & 0x3F) | 0x80)
					j += 4
					i += 2
					continue
				}
			}
			// Unpaired surrogate. High (0xD800) maps to 0xA0, low (0xDC00) to 0xB0.
			dst[j] = 0xED
			dst[j+1] = 0xA0 | byte((word-0xD800)>>6)
			dst[j+2] = 0x80 | byte(word&0x3F)
			j += 3
			i++

		default:
			dst[j] = byte((word >> 12) | 0xE0)
			dst[j+1] = byte(((word >> 6) & 0x3F) | 0x80)
			dst[j+2] = byte((word & 0x3F) | 0x80)
			j += 3
			i++
		}
	}
	return j
}
