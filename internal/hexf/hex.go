// Package hexf formats integers and byte strings as uppercase hex on hot
// paths, with optional "0x" prefixes and leading-zero trimming.
package hexf

var hextableUpper = [16]byte{'0', '1', '2', '3', '4', '5', '6', '7', '8', '9', 'A', 'B', 'C', 'D', 'E', 'F'}

type Uint64Like interface{ ~uint64 | ~int64 }
type Uint32Like interface{ ~uint32 | ~int32 }
type Uint16Like interface{ ~uint16 | ~int16 }

// EncodeU writes the uppercase hex of src into dst and returns len(src)*2.
func EncodeU(dst, src []byte) int {
	j := 0
	for _, v := range src {
		dst[j] = hextableUpper[v>>4]
		dst[j+1] = hextableUpper[v&0x0f]
		j += 2
	}
	return len(src) * 2
}

// AppendEncodeU appends the uppercase hex of src to dst.
func AppendEncodeU(dst, src []byte) []byte {
	for _, v := range src {
		dst = append(dst, hextableUpper[v>>4], hextableUpper[v&0x0f])
	}
	return dst
}

// AppendEncodeUPrefix appends "0x" followed by the uppercase hex of src.
func AppendEncodeUPrefix(dst, src []byte) []byte {
	return AppendEncodeU(append(dst, '0', 'x'), src)
}

// EncodeToStringUPrefix returns "0x" followed by the uppercase hex of src.
func EncodeToStringUPrefix(src []byte) string {
	return string(AppendEncodeUPrefix(make([]byte, 0, 2+len(src)*2), src))
}

// appendUint appends the low size*2 nibbles of n, trimming leading zeros
// (keeping at least one digit) when trim is set.
func appendUint(dst []byte, n uint64, size int, trim bool) []byte {
	var b [16]byte
	digits := size * 2
	for i := digits - 1; i >= 0; i-- {
		b[i] = hextableUpper[n&0xF]
		n >>= 4
	}
	out := b[:digits]
	if trim {
		for len(out) > 1 && out[0] == '0' {
			out = out[1:]
		}
	}
	return append(dst, out...)
}

// AppendNUm64p appends n as "0x" prefixed uppercase hex.
func AppendNUm64p[T Uint64Like](dst []byte, n T, trim bool) []byte {
	return appendUint(append(dst, '0', 'x'), uint64(n), 8, trim)
}

// AppendNUm32p appends n as "0x" prefixed uppercase hex.
func AppendNUm32p[T Uint32Like](dst []byte, n T, trim bool) []byte {
	return appendUint(append(dst, '0', 'x'), uint64(uint32(n)), 4, trim)
}

// AppendNUm16p appends n as "0x" prefixed uppercase hex.
func AppendNUm16p[T Uint16Like](dst []byte, n T, trim bool) []byte {
	return appendUint(append(dst, '0', 'x'), uint64(uint16(n)), 2, trim)
}

func NUm64p[T Uint64Like](n T, trim bool) string {
	var b [18]byte
	return string(AppendNUm64p(b[:0], n, trim))
}

func NUm32p[T Uint32Like](n T, trim bool) string {
	var b [10]byte
	return string(AppendNUm32p(b[:0], n, trim))
}

// AppendUint64PaddedU appends n as 16 uppercase hex digits.
func AppendUint64PaddedU(dst []byte, n uint64) []byte {
	return appendUint(dst, n, 8, false)
}

// AppendUint32PaddedU appends n as 8 uppercase hex digits.
func AppendUint32PaddedU(dst []byte, n uint32) []byte {
	return appendUint(dst, uint64(n), 4, false)
}

// AppendUint16PaddedU appends n as 4 uppercase hex digits.
func AppendUint16PaddedU(dst []byte, n uint16) []byte {
	return appendUint(dst, uint64(n), 2, false)
}

// AppendUint8PaddedU appends n as 2 uppercase hex digits.
func AppendUint8PaddedU(dst []byte, n uint8) []byte {
	return append(dst, hextableUpper[n>>4], hextableUpper[n&0x0F])
}
