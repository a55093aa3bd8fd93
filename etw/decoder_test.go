package etw

import (
	"context"
	"encoding/json"
	"errors"
	"iter"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tekert/etwschema/internal/test"
)

func kernelFileCreateEvent(ps int) *RawEvent {
	flags := uint16(EVENT_HEADER_FLAG_64_BIT_HEADER)
	if ps == 4 {
		flags = EVENT_HEADER_FLAG_32_BIT_HEADER
	}
	return &RawEvent{
		EventHeader: EventHeader{
			Flags:      flags,
			ProcessId:  4,
			ThreadId:   1234,
			TimeStamp:  ToFiletime(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)),
			ProviderId: *KernelFileGuid,
			EventDescriptor: EventDescriptor{
				Id: 12, Version: 1, Level: 4, Task: 12,
				Keyword: 0x8000000000000080,
			},
			ProcessorNumber: 3,
		},
		UserData: payload{}.ptr(0x1000, ps).ptr(0x2000, ps).u32(1234).
			u32(0x20).u32(0x80).u32(7).wstr(`C:\foo.txt`),
	}
}

func TestDecoderDecode(t *testing.T) {
	t.Parallel()
	tt := test.FromT(t)

	d := NewDecoder(nil)
	e, err := d.Decode(kernelFileCreateEvent(8))
	tt.CheckErr(err)

	tt.Assert(e.Schema == KernelFileCreate)
	tt.Equal(len(e.EventData), 7)
	name, err := e.GetPropertyString("FileName")
	tt.CheckErr(err)
	tt.Equal(name, `C:\foo.txt`)
	_, err = e.GetPropertyString("Nope")
	tt.ExpectErr(err, ErrUnknownProperty)

	tt.Equal(e.System.Provider.Name, "Microsoft-Windows-Kernel-File")
	tt.Equal(e.System.EventType, "Create")
	tt.Equal(e.System.Task.Name, "Create")
	tt.Equal(e.System.Level.Name, "Information")
	tt.Equal(e.System.Opcode.Name, "Info")
	tt.Equal(e.System.Keywords.Name, []string{"KERNEL_FILE_KEYWORD_CREATE", "Microsoft-Windows-Kernel-File/Analytic"})
	tt.Equal(e.System.Execution.ProcessorID, uint16(3))

	tt.Equal(d.Decoded.Load(), uint64(1))
	tt.Equal(d.Failed.Load(), uint64(0))
}

func TestDecoderZeroTimestamp(t *testing.T) {
	t.Parallel()
	tt := test.FromT(t)

	raw := kernelFileCreateEvent(8)
	raw.TimeStamp = 0
	e, err := NewDecoder(nil).Decode(raw)
	tt.CheckErr(err)
	tt.Assert(e.System.TimeCreated.SystemTime.Equal(time.Date(1601, 1, 1, 0, 0, 0, 0, time.UTC)),
		e.System.TimeCreated.SystemTime)

	b, err := e.MarshalJSON()
	tt.CheckErr(err)
	tt.Assert(strings.Contains(string(b), `"TimeCreated":{"SystemTime":"1601-01-01T00:00:00Z"}`), string(b))
}

func TestDecoderPointerWidthFromHeader(t *testing.T) {
	t.Parallel()

	for _, ps := range []int{4, 8} {
		tt := test.FromT(t)

		raw := kernelFileCreateEvent(ps)
		e, err := NewDecoder(nil).Decode(raw)
		tt.CheckErr(err)
		fo := e.GetProperty("FileObject")
		tt.Assert(fo != nil)
		tt.Equal(fo.Size, ps)
		v, err := fo.GetUInt()
		tt.CheckErr(err)
		tt.Equal(v, uint64(0x2000))
	}
}

func TestDecoderPointerWidthOverride(t *testing.T) {
	t.Parallel()
	tt := test.FromT(t)

	raw := kernelFileCreateEvent(4)
	raw.Flags = 0
	raw.PointerWidth = 4
	e, err := NewDecoder(nil).Decode(raw)
	tt.CheckErr(err)
	name, _ := e.GetPropertyString("FileName")
	tt.Equal(name, `C:\foo.txt`)

	raw.PointerWidth = 3
	_, err = NewDecoder(nil).Decode(raw)
	tt.ExpectErr(err, ErrPointerSize)
}

func TestDecoderEventIsDetached(t *testing.T) {
	t.Parallel()
	tt := test.FromT(t)

	schema := &EventSchema{
		Name: "Blob", Provider: "Test-Detach",
		GUID:       *MustParseGUID("{6a2dd1b3-8f5e-4a4c-9b0d-3f1e2d4c5b6a}"),
		Id:         1,
		Properties: []PropertyDef{{Name: "Data", InType: TDH_INTYPE_BINARY, Length: 2}},
	}
	reg := NewSchemaRegistry()
	tt.CheckErr(reg.Register(schema))

	raw := &RawEvent{
		EventHeader: EventHeader{ProviderId: schema.GUID, EventDescriptor: EventDescriptor{Id: 1}},
		UserData:    []byte{1, 2, 3},
	}
	e, err := NewDecoder(reg).Decode(raw)
	tt.CheckErr(err)
	raw.UserData[0], raw.UserData[2] = 0xFF, 0xFF

	b, err := e.EventData[0].GetBytes()
	tt.CheckErr(err)
	tt.Equal(b, []byte{1, 2})
	tt.Equal(e.ExtraData, []byte{3})
}

func TestDecoderUnknownSchema(t *testing.T) {
	t.Parallel()
	tt := test.FromT(t)

	d := NewDecoder(NewSchemaRegistry())
	raw := kernelFileCreateEvent(8)
	_, err := d.Decode(raw)
	tt.ExpectErr(err, ErrUnknownSchema)
	_, err = d.DecodeRecord(raw)
	tt.ExpectErr(err, ErrUnknownSchema)
	tt.Equal(d.Unknown.Load(), uint64(2))
}

func TestDecoderFailureIsPerRecord(t *testing.T) {
	t.Parallel()
	tt := test.FromT(t)

	d := NewDecoder(nil)
	bad := kernelFileCreateEvent(8)
	bad.UserData = bad.UserData[:10]

	_, err := d.Decode(bad)
	tt.ExpectErr(err, ErrOutOfRange)
	var perr *PropertyError
	tt.Assert(errors.As(err, &perr))
	tt.Equal(perr.Name, "FileObject")

	_, err = d.Decode(kernelFileCreateEvent(8))
	tt.CheckErr(err)

	tt.Equal(d.Failed.Load(), uint64(1))
	tt.Equal(d.Decoded.Load(), uint64(1))

	var stats *SchemaStats
	for _, s := range d.Stats() {
		if s.Name == "Create" {
			stats = s
		}
	}
	tt.Assert(stats != nil)
	tt.Equal(stats.Failed.Load(), uint64(1))
	tt.Equal(stats.Decoded.Load(), uint64(1))
}

func TestDecoderStringOnly(t *testing.T) {
	t.Parallel()
	tt := test.FromT(t)

	raw := &RawEvent{
		EventHeader: EventHeader{
			Flags:      EVENT_HEADER_FLAG_STRING_ONLY,
			ProviderId: *MustParseGUID("{b3a7698a-0c45-44da-b73d-e181c9b5c8e6}"),
		},
		UserData: payload{}.wstr("hello"),
	}
	e, err := NewDecoder(NewSchemaRegistry()).Decode(raw)
	tt.CheckErr(err)
	msg, err := e.GetPropertyString("Message")
	tt.CheckErr(err)
	tt.Equal(msg, "hello")
}

func TestDecoderClassicLookup(t *testing.T) {
	t.Parallel()
	tt := test.FromT(t)

	raw := &RawEvent{
		EventHeader: EventHeader{
			Flags:           EVENT_HEADER_FLAG_CLASSIC_HEADER | EVENT_HEADER_FLAG_64_BIT_HEADER,
			ProviderId:      *TcpIpKernelGuid,
			EventDescriptor: EventDescriptor{Version: 2, Opcode: 10},
		},
		UserData: payload{}.u32(321).u32(1500).raw(10, 0, 0, 1).raw(10, 0, 0, 2).
			raw(0x01, 0xBB).raw(0xC3, 0x50).u64(0xFFFF800000001000).u32(77),
	}
	d := NewDecoder(nil)
	e, err := d.Decode(raw)
	tt.CheckErr(err)
	tt.Assert(e.Schema == TcpIp_V2_TypeGroup1)
	tt.Equal(e.System.Opcode.Name, "SendIPV4")
	tt.Equal(e.System.Provider.Name, "TcpIp")

	for name, want := range map[string]string{
		"PID": "321", "daddr": "10.0.0.1", "saddr": "10.0.0.2",
		"dport": "443", "sport": "50000", "seqnum": "77",
	} {
		got, err := e.GetPropertyString(name)
		tt.CheckErr(err)
		tt.Equal(got, want)
	}
}

func TestDecoderDecodeAll(t *testing.T) {
	t.Parallel()
	tt := test.FromT(t)

	bad := kernelFileCreateEvent(8)
	bad.UserData = bad.UserData[:3]
	events := []*RawEvent{kernelFileCreateEvent(8), bad, kernelFileCreateEvent(4)}

	seq := func(yield func(*RawEvent, error) bool) {
		for _, e := range events {
			if !yield(e, nil) {
				return
			}
		}
	}

	d := NewDecoder(nil)
	var got []*Event
	err := d.DecodeAll(context.Background(), seq, func(e *Event) error {
		got = append(got, e)
		return nil
	})
	tt.CheckErr(err)
	tt.Equal(len(got), 2)
	tt.Equal(d.Failed.Load(), uint64(1))

	// Errors from the source and from fn stop the loop.
	srcErr := errors.New("read failed")
	var failing iter.Seq2[*RawEvent, error] = func(yield func(*RawEvent, error) bool) {
		yield(nil, srcErr)
	}
	tt.ExpectErr(d.DecodeAll(context.Background(), failing, func(*Event) error { return nil }), srcErr)

	stop := errors.New("stop")
	calls := 0
	err = d.DecodeAll(context.Background(), seq, func(*Event) error {
		calls++
		return stop
	})
	tt.ExpectErr(err, stop)
	tt.Equal(calls, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = d.DecodeAll(ctx, seq, func(*Event) error { return nil })
	tt.ExpectErr(err, context.Canceled)
}

func TestDecoderConcurrent(t *testing.T) {
	t.Parallel()

	d := NewDecoder(nil)
	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 200 {
				e, err := d.Decode(kernelFileCreateEvent(4 + 4*(g%2)))
				if err != nil {
					t.Error(err)
					return
				}
				if name, _ := e.GetPropertyString("FileName"); name != `C:\foo.txt` {
					t.Errorf("got %q", name)
					return
				}
			}
		}()
	}
	wg.Wait()
	test.FromT(t).Equal(d.Decoded.Load(), uint64(8*200))
}

func TestDecoderRecordIsLazy(t *testing.T) {
	t.Parallel()
	tt := test.FromT(t)

	raw := kernelFileCreateEvent(8)
	rec, err := NewDecoder(nil).DecodeRecord(raw)
	tt.CheckErr(err)
	tt.Assert(rec.Header == &raw.EventHeader)
	v, err := rec.GetPropertyUint("CreateAttributes")
	tt.CheckErr(err)
	tt.Equal(v, uint64(0x80))
}

func TestEventJSON(t *testing.T) {
	t.Parallel()
	tt := test.FromT(t)

	raw := kernelFileCreateEvent(8)
	raw.ActivityId = *MustParseGUID("{00000000-0000-0000-0000-000000000001}")
	raw.UserData = append(raw.UserData, 0xAB)
	e, err := NewDecoder(nil).Decode(raw)
	tt.CheckErr(err)

	out, err := e.MarshalJSON()
	tt.CheckErr(err)
	tt.Assert(json.Valid(out), string(out))

	s := string(out)
	tt.Assert(strings.HasPrefix(s, `{"EventData":{"Irp":"0x1000","FileObject":"0x2000","IssuingThreadId":1234,`), s)
	tt.Assert(strings.Contains(s, `"FileName":"C:\\foo.txt"},"ExtraData":"0xAB","System":{"Channel":0,"EventID":12,`), s)
	tt.Assert(strings.Contains(s, `"Keywords":{"Mask":"0x8000000000000080","Name":["KERNEL_FILE_KEYWORD_CREATE","Microsoft-Windows-Kernel-File/Analytic"]}`), s)
	tt.Assert(strings.Contains(s, `"Correlation":{"ActivityID":"{00000000-0000-0000-0000-000000000001}"}`), s)
	tt.Assert(strings.Contains(s, `"TimeCreated":{"SystemTime":"2024-01-02T03:04:05Z"}`), s)

	var generic map[string]any
	tt.CheckErr(json.Unmarshal(out, &generic))
	sys := generic["System"].(map[string]any)
	tt.Equal(sys["Provider"].(map[string]any)["Name"], any("Microsoft-Windows-Kernel-File"))
}

func TestStandardNames(t *testing.T) {
	t.Parallel()
	tt := test.FromT(t)

	tt.Equal(standardLevelName(2), "Error")
	tt.Equal(standardLevelName(9), "Level(9)")
	tt.Equal(standardOpcodeName(1), "Start")
	tt.Equal(standardOpcodeName(240), "Receive")
	tt.Equal(standardOpcodeName(200), "Opcode(200)")
}

func BenchmarkDecode(b *testing.B) {
	d := NewDecoder(nil)
	raw := kernelFileCreateEvent(8)
	buf := make([]byte, 0, 1024)
	b.ReportAllocs()
	for b.Loop() {
		e, err := d.Decode(raw)
		if err != nil {
			b.Fatal(err)
		}
		buf = e.AppendText(buf[:0])
	}
}
