package utf16f

import (
	"encoding/binary"
	"strings"
	"testing"
	"unicode/utf16"
)

func le(units ...uint16) []byte {
	b := make([]byte, 2*len(units))
	for i, u := range units {
		binary.LittleEndian.PutUint16(b[2*i:], u)
	}
	return b
}

func encode(s string) []byte {
	return le(utf16.Encode([]rune(s))...)
}

func TestScan(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		in         []byte
		n          int
		terminated bool
	}{
		{"Empty", nil, 0, false},
		{"OnlyTerminator", le(0), 0, true},
		{"Terminated", append(encode("abc"), 0, 0, 'x', 0), 3, true},
		{"Unterminated", encode("abcd"), 4, false},
		{"OddTrailingByte", append(encode("ab"), 'c'), 2, false},
		// A zero byte inside a unit is not a terminator.
		{"HighByteZero", le(0x0100, 0x0041, 0), 2, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			n, term := Scan(tt.in)
			if n != tt.n || term != tt.terminated {
				t.Fatalf("Scan() = (%d, %v), want (%d, %v)", n, term, tt.n, tt.terminated)
			}
		})
	}
}

func TestDecodeBytes(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("C:\\Windows\\System32\\", 4)
	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{"Empty", nil, ""},
		{"ASCII", encode("C:\\foo.txt"), "C:\\foo.txt"},
		{"LongASCII", encode(long), long},
		{"StopsAtZero", append(encode("abc"), 0, 0, 'd', 0), "abc"},
		{"TwoByte", encode("héllo"), "héllo"},
		{"ThreeByte", encode("日本語のファイル名.txt"), "日本語のファイル名.txt"},
		{"SurrogatePair", encode("file😀.log"), "file😀.log"},
		{"MixedAfterASCIIBlock", encode("abcdefgh€"), "abcdefgh€"},
		{"UnpairedHigh", le('a', 0xD800, 'b'), "a\xed\xa0\x80b"},
		{"UnpairedLow", le(0xDC00), "\xed\xb0\x80"},
		{"HighAtEnd", le('x', 0xDBFF), "x\xed\xaf\xbf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := DecodeBytes(tt.in); got != tt.want {
				t.Fatalf("DecodeBytes() = %q, want %q", got, tt.want)
			}
			if got := string(AppendBytes([]byte("pre:"), tt.in)); got != "pre:"+tt.want {
				t.Fatalf("AppendBytes() = %q, want %q", got, "pre:"+tt.want)
			}
		})
	}
}

func BenchmarkDecodeBytes(b *testing.B) {
	in := encode("\\Device\\HarddiskVolume3\\Windows\\System32\\kernel32.dll")
	b.ReportAllocs()
	for b.Loop() {
		_ = DecodeBytes(in)
	}
}
