package etw

import (
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/tekert/etwschema/internal/test"
)

func TestReaderFixedWidthOffsets(t *testing.T) {
	t.Parallel()

	types := []TdhInType{
		TDH_INTYPE_UINT8, TDH_INTYPE_INT16, TDH_INTYPE_UINT32, TDH_INTYPE_UINT64,
		TDH_INTYPE_POINTER, TDH_INTYPE_GUID, TDH_INTYPE_BOOLEAN, TDH_INTYPE_FILETIME,
		TDH_INTYPE_SIZET, TDH_INTYPE_INT8,
	}
	props := defs(types...)

	for _, ps := range []int{4, 8} {
		total := 0
		for _, typ := range types {
			total += typ.FixedSize(ps)
		}
		for seed := range uint64(4) {
			rng := rand.New(rand.NewPCG(seed, uint64(ps)))
			data := make([]byte, total)
			for i := range data {
				data[i] = byte(rng.Uint32())
			}

			tt := test.FromT(t)
			r, err := NewRecordReader(data, ps, props)
			tt.CheckErr(err)

			want := 0
			for i, typ := range types {
				off, err := r.OffsetOf(i)
				tt.CheckErr(err)
				tt.Equal(off, want)
				want += typ.FixedSize(ps)
			}
			end, err := r.End()
			tt.CheckErr(err)
			tt.Equal(end, total)
		}
	}
}

func TestReaderStringThenInt(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"", "a", "abc", "C:\\Windows\\System32", "ñandú", "😀"} {
		t.Run(s, func(t *testing.T) {
			t.Parallel()
			tt := test.FromT(t)

			data := payload{}.wstr(s).u32(7)
			r, err := NewRecordReader(data, 8, defs(TDH_INTYPE_UNICODESTRING, TDH_INTYPE_UINT32))
			tt.CheckErr(err)

			units := len([]rune(s))
			for _, c := range s {
				if c > 0xFFFF {
					units++ // surrogate pair
				}
			}
			off, err := r.OffsetOf(1)
			tt.CheckErr(err)
			tt.Equal(off, 2*(units+1))

			v, err := r.ReadUint(1)
			tt.CheckErr(err)
			tt.Equal(v, uint64(7))
		})
	}
}

func TestReaderRoundTrip(t *testing.T) {
	t.Parallel()
	tt := test.FromT(t)

	data := payload{}.wstr(`C:\foo.txt`).u32(42)
	r, err := NewRecordReader(data, 8, defs(TDH_INTYPE_UNICODESTRING, TDH_INTYPE_INT32))
	tt.CheckErr(err)

	s, err := r.ReadString(0)
	tt.CheckErr(err)
	tt.Equal(s, `C:\foo.txt`)

	v, err := r.ReadInt(1)
	tt.CheckErr(err)
	tt.Equal(v, int64(42))
}

func TestReaderPointerWidth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ps   int
		data []byte
		want uint64
	}{
		{"32-bit", 4, payload{}.u32(0x11223344), 0x11223344},
		{"32-bit high bit", 4, payload{}.u32(0xFFFFFFF0), 0xFFFFFFF0},
		{"64-bit", 8, payload{}.u64(0x1122334455667788), 0x1122334455667788},
		{"64-bit high bit", 8, payload{}.u64(0xFFFF800012345678), 0xFFFF800012345678},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			tt := test.FromT(t)

			r, err := NewRecordReader(tc.data, tc.ps, defs(TDH_INTYPE_POINTER, TDH_INTYPE_UINT8))
			tt.CheckErr(err)
			v, err := r.ReadPointer(0)
			tt.CheckErr(err)
			tt.Equal(v, tc.want)

			// The next property starts right after the pointer.
			off, err := r.OffsetOf(1)
			tt.CheckErr(err)
			tt.Equal(off, tc.ps)
		})
	}
}

func TestReaderPointerSizeRejected(t *testing.T) {
	t.Parallel()
	tt := test.FromT(t)

	for _, ps := range []int{0, 1, 2, 6, 16} {
		_, err := NewRecordReader(nil, ps, nil)
		tt.ExpectErr(err, ErrPointerSize)
	}
}

func TestReaderIdempotentString(t *testing.T) {
	t.Parallel()
	tt := test.FromT(t)

	data := payload{}.wstr("first").wstr("second").u16(9)
	r, err := NewRecordReader(data, 8, defs(TDH_INTYPE_UNICODESTRING, TDH_INTYPE_UNICODESTRING, TDH_INTYPE_UINT16))
	tt.CheckErr(err)

	// Last property first, then the strings in reverse and again.
	v, err := r.ReadUint(2)
	tt.CheckErr(err)
	tt.Equal(v, uint64(9))

	for range 2 {
		s, err := r.ReadString(1)
		tt.CheckErr(err)
		tt.Equal(s, "second")
		s, err = r.ReadString(0)
		tt.CheckErr(err)
		tt.Equal(s, "first")
	}

	off, err := r.OffsetOf(1)
	tt.CheckErr(err)
	tt.Equal(off, 12)
	off, err = r.OffsetOf(2)
	tt.CheckErr(err)
	tt.Equal(off, 26)
}

func TestReaderTruncated(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		props []PropertyDef
		data  []byte
		index int
	}{
		{"uint32", defs(TDH_INTYPE_UINT32), payload{}.raw(1, 2, 3), 0},
		{"uint64 after string", defs(TDH_INTYPE_UNICODESTRING, TDH_INTYPE_UINT64),
			payload{}.wstr("x").raw(1, 2, 3, 4, 5, 6, 7), 1},
		{"pointer", defs(TDH_INTYPE_UINT16, TDH_INTYPE_POINTER), payload{}.u16(1).raw(1, 2, 3, 4, 5, 6, 7), 1},
		{"guid", defs(TDH_INTYPE_GUID), make([]byte, 15), 0},
		{"counted string", defs(TDH_INTYPE_COUNTEDSTRING), payload{}.u16(10).raw(1, 2), 0},
		{"hexdump", defs(TDH_INTYPE_HEXDUMP), payload{}.u32(1 << 30).raw(1), 0},
		{"sid", defs(TDH_INTYPE_SID), payload{}.sid(21, 1, 2)[:15], 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			tt := test.FromT(t)

			r, err := NewRecordReader(tc.data, 8, tc.props)
			tt.CheckErr(err)
			_, err = r.RawBytes(tc.index)
			tt.ExpectErr(err, ErrOutOfRange)

			var perr *PropertyError
			tt.Assert(errors.As(err, &perr))
			tt.Equal(perr.Index, tc.index)
			tt.Equal(perr.Len, len(tc.data))
			tt.Assert(perr.Offset+perr.Need > perr.Len)

			// The failure sticks to every later property.
			_, err = r.End()
			tt.ExpectErr(err, ErrOutOfRange)
		})
	}
}

func TestReaderTruncatedDoesNotAffectEarlier(t *testing.T) {
	t.Parallel()
	tt := test.FromT(t)

	data := payload{}.u32(5).raw(1, 2)
	r, err := NewRecordReader(data, 8, defs(TDH_INTYPE_UINT32, TDH_INTYPE_UINT32))
	tt.CheckErr(err)

	v, err := r.ReadUint(0)
	tt.CheckErr(err)
	tt.Equal(v, uint64(5))
	_, err = r.ReadUint(1)
	tt.ExpectErr(err, ErrOutOfRange)
}

func TestReaderUnterminatedString(t *testing.T) {
	t.Parallel()
	tt := test.FromT(t)

	data := payload{}.u32(1).wstrN("remainder")
	r, err := NewRecordReader(data, 8, defs(TDH_INTYPE_UINT32, TDH_INTYPE_UNICODESTRING))
	tt.CheckErr(err)

	s, err := r.ReadString(1)
	tt.CheckErr(err)
	tt.Equal(s, "remainder")
	end, err := r.End()
	tt.CheckErr(err)
	tt.Equal(end, len(data))

	// A trailing odd byte belongs to the string but is not decoded.
	data = payload{}.wstrN("ab").raw('x')
	r, err = NewRecordReader(data, 8, defs(TDH_INTYPE_UNICODESTRING))
	tt.CheckErr(err)
	s, err = r.ReadString(0)
	tt.CheckErr(err)
	tt.Equal(s, "ab")
	size, err := r.SizeOf(0)
	tt.CheckErr(err)
	tt.Equal(size, len(data))

	// Same for ANSI.
	data = payload{}.raw('a', 'n', 's', 'i')
	r, err = NewRecordReader(data, 8, defs(TDH_INTYPE_ANSISTRING))
	tt.CheckErr(err)
	s, err = r.ReadString(0)
	tt.CheckErr(err)
	tt.Equal(s, "ansi")
}

func TestReaderStringAtEnd(t *testing.T) {
	t.Parallel()
	tt := test.FromT(t)

	// Older event versions stop before the trailing strings.
	data := payload{}.u32(1)
	r, err := NewRecordReader(data, 8, defs(TDH_INTYPE_UINT32, TDH_INTYPE_UNICODESTRING, TDH_INTYPE_ANSISTRING))
	tt.CheckErr(err)

	for i := 1; i <= 2; i++ {
		s, err := r.ReadString(i)
		tt.CheckErr(err)
		tt.Equal(s, "")
		n, err := r.SizeOf(i)
		tt.CheckErr(err)
		tt.Equal(n, 0)
	}
}

func TestReaderExampleScenario(t *testing.T) {
	t.Parallel()
	tt := test.FromT(t)

	data := []byte{'a', 0, 'b', 0, 'c', 0, 0, 0, 0x2A, 0, 0, 0}
	props := []PropertyDef{
		{Name: "field0", InType: TDH_INTYPE_UNICODESTRING},
		{Name: "field1", InType: TDH_INTYPE_INT32},
	}
	for _, ps := range []int{4, 8} {
		rec, err := NewRecord(&EventSchema{Name: "Example", Properties: props}, data, ps)
		tt.CheckErr(err)

		s, err := rec.GetPropertyString("field0")
		tt.CheckErr(err)
		tt.Equal(s, "abc")
		v, err := rec.GetPropertyInt("field1")
		tt.CheckErr(err)
		tt.Equal(v, int64(42))
	}
}

func TestReaderSignExtension(t *testing.T) {
	t.Parallel()
	tt := test.FromT(t)

	data := payload{}.u8(0xFF).u16(0xFFFE).u32(0xFFFFFFFD).u64(0xFFFFFFFFFFFFFFFC).u8(0xFF)
	r, err := NewRecordReader(data, 8, defs(TDH_INTYPE_INT8, TDH_INTYPE_INT16, TDH_INTYPE_INT32, TDH_INTYPE_INT64, TDH_INTYPE_UINT8))
	tt.CheckErr(err)

	for i, want := range []int64{-1, -2, -3, -4} {
		v, err := r.ReadInt(i)
		tt.CheckErr(err)
		tt.Equal(v, want)
	}
	v, err := r.ReadInt(4)
	tt.CheckErr(err)
	tt.Equal(v, int64(255))
}

func TestReaderIntOverflow(t *testing.T) {
	t.Parallel()
	tt := test.FromT(t)

	r, err := NewRecordReader(payload{}.u64(1<<63), 8, defs(TDH_INTYPE_UINT64))
	tt.CheckErr(err)
	_, err = r.ReadInt(0)
	tt.ExpectErr(err, ErrPropertyType)
	v, err := r.ReadUint(0)
	tt.CheckErr(err)
	tt.Equal(v, uint64(1<<63))
}

func TestReaderErrors(t *testing.T) {
	t.Parallel()
	tt := test.FromT(t)

	r, err := NewRecordReader(payload{}.u32(1).wstr("s"), 8, defs(TDH_INTYPE_UINT32, TDH_INTYPE_UNICODESTRING))
	tt.CheckErr(err)

	_, err = r.ReadUint(2)
	tt.ExpectErr(err, ErrUnknownProperty)
	_, err = r.OffsetOf(-1)
	tt.ExpectErr(err, ErrUnknownProperty)
	_, err = r.ReadString(0)
	tt.ExpectErr(err, ErrPropertyType)
	_, err = r.ReadUint(1)
	tt.ExpectErr(err, ErrPropertyType)
	_, err = r.ReadGUID(0)
	tt.ExpectErr(err, ErrPropertyType)
	_, err = r.ReadFixedInt(0, 3, false)
	tt.ExpectErr(err, ErrPropertyType)
}

func TestReaderVariableTypes(t *testing.T) {
	t.Parallel()

	guid := MustParseGUID("{45d8cccd-539f-4b72-a8b7-5c683142609a}")

	t.Run("counted strings", func(t *testing.T) {
		t.Parallel()
		tt := test.FromT(t)

		data := payload{}.u16(6).wstrN("abc").raw(0, 4, 'w', 'x', 'y', 'z').u16(2).raw('h', 'i').u8(1)
		r, err := NewRecordReader(data, 8, defs(
			TDH_INTYPE_COUNTEDSTRING, TDH_INTYPE_REVERSEDCOUNTEDANSISTRING,
			TDH_INTYPE_MANIFEST_COUNTEDANSISTRING, TDH_INTYPE_UINT8))
		tt.CheckErr(err)

		for i, want := range []string{"abc", "wxyz", "hi"} {
			s, err := r.ReadString(i)
			tt.CheckErr(err)
			tt.Equal(s, want)
		}
		v, err := r.ReadUint(3)
		tt.CheckErr(err)
		tt.Equal(v, uint64(1))
	})

	t.Run("fixed length strings", func(t *testing.T) {
		t.Parallel()
		tt := test.FromT(t)

		data := payload{}.wstrN("ab").u16(0).u16(0).raw('x', 'y', 0, 0).u8(3)
		props := []PropertyDef{
			{Name: "w", InType: TDH_INTYPE_UNICODESTRING, Length: 4},
			{Name: "a", InType: TDH_INTYPE_ANSISTRING, Length: 4},
			{Name: "n", InType: TDH_INTYPE_UINT8},
		}
		r, err := NewRecordReader(data, 8, props)
		tt.CheckErr(err)
		s, err := r.ReadString(0)
		tt.CheckErr(err)
		tt.Equal(s, "ab")
		s, err = r.ReadString(1)
		tt.CheckErr(err)
		tt.Equal(s, "xy")
		off, err := r.OffsetOf(2)
		tt.CheckErr(err)
		tt.Equal(off, 12)
	})

	t.Run("non null terminated", func(t *testing.T) {
		t.Parallel()
		tt := test.FromT(t)

		data := payload{}.u8(1).wstrN("tail")
		r, err := NewRecordReader(data, 8, defs(TDH_INTYPE_UINT8, TDH_INTYPE_NONNULLTERMINATEDSTRING))
		tt.CheckErr(err)
		s, err := r.ReadString(1)
		tt.CheckErr(err)
		tt.Equal(s, "tail")
	})

	t.Run("sid", func(t *testing.T) {
		t.Parallel()
		tt := test.FromT(t)

		data := payload{}.sid(21, 1, 2, 3, 1001).u32(9)
		r, err := NewRecordReader(data, 8, defs(TDH_INTYPE_SID, TDH_INTYPE_UINT32))
		tt.CheckErr(err)
		s, err := r.ReadSID(0)
		tt.CheckErr(err)
		tt.Equal(s, "S-1-5-21-1-2-3-1001")
		v, err := r.ReadUint(1)
		tt.CheckErr(err)
		tt.Equal(v, uint64(9))
	})

	t.Run("wbemsid", func(t *testing.T) {
		t.Parallel()
		tt := test.FromT(t)

		for _, ps := range []int{4, 8} {
			data := payload{}.ptr(0x1234, ps).ptr(0, ps).sid(18).u32(9)
			r, err := NewRecordReader(data, ps, defs(TDH_INTYPE_WBEMSID, TDH_INTYPE_UINT32))
			tt.CheckErr(err)
			s, err := r.ReadSID(0)
			tt.CheckErr(err)
			tt.Equal(s, "S-1-5-18")
			v, err := r.ReadUint(1)
			tt.CheckErr(err)
			tt.Equal(v, uint64(9))
		}

		// Absent SID.
		r, err := NewRecordReader(payload{}.u32(0).u32(9), 8, defs(TDH_INTYPE_WBEMSID, TDH_INTYPE_UINT32))
		tt.CheckErr(err)
		s, err := r.ReadSID(0)
		tt.CheckErr(err)
		tt.Equal(s, "")
		v, err := r.ReadUint(1)
		tt.CheckErr(err)
		tt.Equal(v, uint64(9))
	})

	t.Run("guid and time", func(t *testing.T) {
		t.Parallel()
		tt := test.FromT(t)

		ts := time.Date(2024, 3, 1, 12, 30, 0, 500, time.UTC).Truncate(100 * time.Nanosecond)
		sys := payload{}.u16(2024).u16(3).u16(5).u16(1).u16(12).u16(30).u16(15).u16(250)
		data := payload{}.guid(guid).u64(uint64(ToFiletime(ts))).raw(sys...)
		r, err := NewRecordReader(data, 8, defs(TDH_INTYPE_GUID, TDH_INTYPE_FILETIME, TDH_INTYPE_SYSTEMTIME))
		tt.CheckErr(err)

		g, err := r.ReadGUID(0)
		tt.CheckErr(err)
		tt.Assert(g.Equals(guid))
		got, err := r.ReadTime(1)
		tt.CheckErr(err)
		tt.Assert(got.Equal(ts), got, ts)
		got, err = r.ReadTime(2)
		tt.CheckErr(err)
		tt.Assert(got.Equal(time.Date(2024, 3, 1, 12, 30, 15, 250*int(time.Millisecond), time.UTC)), got)
	})

	t.Run("binary", func(t *testing.T) {
		t.Parallel()
		tt := test.FromT(t)

		data := payload{}.u32(2).raw(0xAA, 0xBB).raw(1, 2, 3)
		props := []PropertyDef{
			{Name: "dump", InType: TDH_INTYPE_HEXDUMP},
			{Name: "rest", InType: TDH_INTYPE_BINARY},
		}
		r, err := NewRecordReader(data, 8, props)
		tt.CheckErr(err)
		b, err := r.ReadBytes(0)
		tt.CheckErr(err)
		tt.Equal(b, []byte{0xAA, 0xBB})
		b, err = r.ReadBytes(1)
		tt.CheckErr(err)
		tt.Equal(b, []byte{1, 2, 3})
	})

	t.Run("float", func(t *testing.T) {
		t.Parallel()
		tt := test.FromT(t)

		data := payload{}.u32(0x3FC00000).u64(0x4004000000000000)
		r, err := NewRecordReader(data, 8, defs(TDH_INTYPE_FLOAT, TDH_INTYPE_DOUBLE))
		tt.CheckErr(err)
		f, err := r.ReadFloat(0)
		tt.CheckErr(err)
		tt.Equal(f, 1.5)
		f, err = r.ReadFloat(1)
		tt.CheckErr(err)
		tt.Equal(f, 2.5)
	})
}

func TestReaderReset(t *testing.T) {
	t.Parallel()
	tt := test.FromT(t)

	props := defs(TDH_INTYPE_UNICODESTRING, TDH_INTYPE_UINT32)
	var r RecordReader
	for _, s := range []string{"long first string", "b"} {
		tt.CheckErr(r.Reset(payload{}.wstr(s).u32(uint32(len(s))), 8, props))
		v, err := r.ReadUint(1)
		tt.CheckErr(err)
		tt.Equal(v, uint64(len(s)))
	}
}

func BenchmarkReaderReadAll(b *testing.B) {
	props := defs(TDH_INTYPE_POINTER, TDH_INTYPE_UNICODESTRING, TDH_INTYPE_UINT32, TDH_INTYPE_UNICODESTRING, TDH_INTYPE_UINT64)
	data := payload{}.u64(0xFFFF8000).wstr(`\Device\HarddiskVolume3\Windows\System32\ntdll.dll`).
		u32(12).wstr("second").u64(99)
	var r RecordReader
	b.ReportAllocs()
	for b.Loop() {
		_ = r.Reset(data, 8, props)
		for i := range props {
			_, _ = r.RawBytes(i)
		}
	}
}
