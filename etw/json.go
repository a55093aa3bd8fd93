package etw

import (
	"unicode/utf8"

	"github.com/tekert/etwschema/internal/hexf"
)

// appendJSONString appends s as a quoted JSON string.
//
// Decoded UTF-16 text may hold unpaired surrogates encoded as WTF-8. Those
// are written as \uXXXX escapes so the original code unit survives a round
// trip. Other invalid bytes become U+FFFD.
func appendJSONString(buf []byte, s string) []byte {
	buf = append(buf, '"')
	start := 0
	for i := 0; i < len(s); {
		c := s[i]
		if c < utf8.RuneSelf {
			if c >= 0x20 && c != '"' && c != '\\' {
				i++
				continue
			}
			buf = append(buf, s[start:i]...)
			switch c {
			case '"', '\\':
				buf = append(buf, '\\', c)
			case '\n':
				buf = append(buf, '\\', 'n')
			case '\r':
				buf = append(buf, '\\', 'r')
			case '\t':
				buf = append(buf, '\\', 't')
			default:
				buf = appendUnicodeEscape(buf, uint16(c))
			}
			i++
			start = i
			continue
		}

		r, size := utf8.DecodeRuneInString(s[i:])
		if r != utf8.RuneError || size != 1 {
			// U+2028 and U+2029 break JavaScript string literals.
			if r == '\u2028' || r == '\u2029' {
				buf = append(buf, s[start:i]...)
				buf = appendUnicodeEscape(buf, uint16(r))
				start = i + size
			}
			i += size
			continue
		}

		buf = append(buf, s[start:i]...)
		if c == 0xED && i+2 < len(s) && s[i+1]&0xE0 == 0xA0 && s[i+2]&0xC0 == 0x80 {
			// WTF-8 surrogate: 1110_1101 101x_xxxx 10xx_xxxx
			u := uint16(0xD000) | uint16(s[i+1]&0x3F)<<6 | uint16(s[i+2]&0x3F)
			buf = appendUnicodeEscape(buf, u)
			i += 3
		} else {
			buf = append(buf, "\uFFFD"...)
			i++
		}
		start = i
	}
	buf = append(buf, s[start:]...)
	return append(buf, '"')
}

func appendUnicodeEscape(buf []byte, u uint16) []byte {
	buf = append(buf, '\\', 'u')
	return hexf.AppendUint16PaddedU(buf, u)
}
