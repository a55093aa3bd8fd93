package hexf

import (
	"encoding/hex"
	"fmt"
	"strings"
	"testing"
)

func TestEncodeU(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input []byte
	}{
		{"Empty", []byte{}},
		{"Nil", nil},
		{"SingleZero", []byte{0}},
		{"NoZeros", []byte{0xde, 0xad, 0xbe, 0xef}},
		{"MixedZeros", []byte{0, 0xab, 0, 0xcd}},
		{"SingleNibbles", []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 0xa, 0xb, 0xc, 0xd, 0xe, 0xf}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			want := strings.ToUpper(hex.EncodeToString(tt.input))

			dst := make([]byte, len(tt.input)*2)
			if n := EncodeU(dst, tt.input); n != len(want) || string(dst) != want {
				t.Errorf("EncodeU() = %q (%d), want %q", dst, n, want)
			}
			if got := string(AppendEncodeU([]byte("x"), tt.input)); got != "x"+want {
				t.Errorf("AppendEncodeU() = %q, want %q", got, "x"+want)
			}
			if got := EncodeToStringUPrefix(tt.input); got != "0x"+want {
				t.Errorf("EncodeToStringUPrefix() = %q, want %q", got, "0x"+want)
			}
		})
	}
}

func TestNumbers(t *testing.T) {
	t.Parallel()

	values := []uint64{0, 1, 0xF, 0x10, 0xABC, 0xFFFF, 0x12345678, 0xFFFFF80012345678, ^uint64(0)}
	for _, v := range values {
		t.Run(fmt.Sprintf("%#x", v), func(t *testing.T) {
			t.Parallel()
			if got, want := NUm64p(v, true), fmt.Sprintf("0x%X", v); got != want {
				t.Errorf("NUm64p(trim) = %q, want %q", got, want)
			}
			if got, want := NUm64p(v, false), fmt.Sprintf("0x%016X", v); got != want {
				t.Errorf("NUm64p() = %q, want %q", got, want)
			}
			v32 := uint32(v)
			if got, want := NUm32p(v32, true), fmt.Sprintf("0x%X", v32); got != want {
				t.Errorf("NUm32p(trim) = %q, want %q", got, want)
			}
			if got, want := string(AppendNUm16p(nil, uint16(v), false)), fmt.Sprintf("0x%04X", uint16(v)); got != want {
				t.Errorf("AppendNUm16p() = %q, want %q", got, want)
			}
			if got, want := string(AppendUint64PaddedU(nil, v)), fmt.Sprintf("%016X", v); got != want {
				t.Errorf("AppendUint64PaddedU() = %q, want %q", got, want)
			}
			if got, want := string(AppendUint32PaddedU(nil, v32)), fmt.Sprintf("%08X", v32); got != want {
				t.Errorf("AppendUint32PaddedU() = %q, want %q", got, want)
			}
			if got, want := string(AppendUint16PaddedU(nil, uint16(v))), fmt.Sprintf("%04X", uint16(v)); got != want {
				t.Errorf("AppendUint16PaddedU() = %q, want %q", got, want)
			}
			if got, want := string(AppendUint8PaddedU(nil, uint8(v))), fmt.Sprintf("%02X", uint8(v)); got != want {
				t.Errorf("AppendUint8PaddedU() = %q, want %q", got, want)
			}
		})
	}
}

func TestSignedInput(t *testing.T) {
	t.Parallel()

	if got := NUm64p(int64(-1), true); got != "0xFFFFFFFFFFFFFFFF" {
		t.Errorf("NUm64p(-1) = %q", got)
	}
	if got := NUm32p(int32(-2), true); got != "0xFFFFFFFE" {
		t.Errorf("NUm32p(-2) = %q", got)
	}
}
