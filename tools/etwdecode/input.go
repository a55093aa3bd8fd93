package main

import (
	"bufio"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/goccy/go-json"
	"github.com/klauspost/compress/zstd"

	"github.com/tekert/etwschema/etw"
	"github.com/tekert/etwschema/internal/hexf"
)

// dumpRecord is one captured event as written by capture tools: the event
// header fields plus the raw user data.
type dumpRecord struct {
	Provider    string    `json:"provider" cbor:"provider"` // name or GUID
	ID          uint16    `json:"id" cbor:"id"`
	Version     uint8     `json:"version" cbor:"version"`
	Opcode      uint8     `json:"opcode" cbor:"opcode"`
	Level       uint8     `json:"level" cbor:"level"`
	Task        uint16    `json:"task" cbor:"task"`
	Keyword     hexUint64 `json:"keyword" cbor:"keyword"`
	PID         uint32    `json:"pid" cbor:"pid"`
	TID         uint32    `json:"tid" cbor:"tid"`
	Timestamp   int64     `json:"timestamp" cbor:"timestamp"` // FILETIME
	CPU         uint16    `json:"cpu" cbor:"cpu"`
	Flags       uint16    `json:"flags" cbor:"flags"`
	PointerSize uint8     `json:"pointerSize,omitempty" cbor:"pointerSize,omitempty"`
	ActivityID  string    `json:"activityId,omitempty" cbor:"activityId,omitempty"`
	UserData    hexBytes  `json:"userData" cbor:"userData"`
}

// hexUint64 is a number in JSON or a "0x" prefixed string.
type hexUint64 uint64

func (h hexUint64) MarshalJSON() ([]byte, error) {
	b := append(make([]byte, 0, 20), `"0x`...)
	b = strconv.AppendUint(b, uint64(h), 16)
	return append(b, '"'), nil
}

func (h *hexUint64) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return fmt.Errorf("keyword %s: %w", b, err)
	}
	*h = hexUint64(v)
	return nil
}

// hexBytes is a hex string in JSON and a byte string in CBOR.
type hexBytes []byte

func (h hexBytes) MarshalText() ([]byte, error) {
	return hexf.AppendEncodeU(make([]byte, 0, 2*len(h)), h), nil
}

func (h *hexBytes) UnmarshalText(text []byte) error {
	s := strings.TrimPrefix(strings.TrimPrefix(string(text), "0x"), "0X")
	b, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("userData: %w", err)
	}
	*h = b
	return nil
}

func (d *dumpRecord) rawEvent() (*etw.RawEvent, error) {
	var guid etw.GUID
	if g, err := etw.ParseGUID(d.Provider); err == nil {
		guid = *g
	} else {
		p := etw.ResolveProvider(d.Provider)
		if p.IsZero() {
			return nil, fmt.Errorf("%w %q", etw.ErrUnknownProvider, d.Provider)
		}
		guid = p.GUID
	}

	raw := &etw.RawEvent{
		EventHeader: etw.EventHeader{
			Flags:           d.Flags,
			ProcessId:       d.PID,
			ThreadId:        d.TID,
			TimeStamp:       d.Timestamp,
			ProviderId:      guid,
			ProcessorNumber: d.CPU,
			EventDescriptor: etw.EventDescriptor{
				Id:      d.ID,
				Version: d.Version,
				Level:   d.Level,
				Opcode:  d.Opcode,
				Task:    d.Task,
				Keyword: uint64(d.Keyword),
			},
		},
		PointerWidth: d.PointerSize,
		UserData:     d.UserData,
	}
	if d.ActivityID != "" {
		g, err := etw.ParseGUID(d.ActivityID)
		if err != nil {
			return nil, err
		}
		raw.ActivityId = *g
	}
	return raw, nil
}

const (
	formatAuto = "auto"
	formatJSON = "json"
	formatCBOR = "cbor"
)

// inputFormat resolves "auto" from the file name. A trailing .zst is ignored.
func inputFormat(name, format string) string {
	if format != formatAuto {
		return format
	}
	ext := filepath.Ext(strings.TrimSuffix(name, ".zst"))
	if strings.EqualFold(ext, ".cbor") {
		return formatCBOR
	}
	return formatJSON
}

type recordDecoder interface {
	Decode(v any) error
}

// readDump yields the records of a JSON Lines or CBOR sequence stream.
func readDump(r io.Reader, format string) iter.Seq2[*dumpRecord, error] {
	return func(yield func(*dumpRecord, error) bool) {
		var dec recordDecoder
		switch format {
		case formatJSON:
			dec = json.NewDecoder(r)
		case formatCBOR:
			dec = cbor.NewDecoder(r)
		default:
			yield(nil, fmt.Errorf("unknown input format %q", format))
			return
		}
		for {
			rec := &dumpRecord{}
			err := dec.Decode(rec)
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(rec, nil) {
				return
			}
		}
	}
}

// openDump opens a dump file, decompressing .zst files on the fly.
func openDump(name string) (io.ReadCloser, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(name, ".zst") {
		return f, nil
	}
	zr, err := zstd.NewReader(bufio.NewReader(f))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &zstdFile{Decoder: zr, f: f}, nil
}

type zstdFile struct {
	*zstd.Decoder
	f *os.File
}

func (z *zstdFile) Close() error {
	z.Decoder.Close()
	return z.f.Close()
}
