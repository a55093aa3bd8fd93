package etw

import (
	"fmt"
	"strconv"
)

var (
	// A property read would go past the end of the event payload.
	ErrOutOfRange = fmt.Errorf("out of range")
	// Property index or name not present in the schema.
	ErrUnknownProperty = fmt.Errorf("unknown property")
	// Accessor does not match the property in-type.
	ErrPropertyType = fmt.Errorf("wrong property type")
	// Pointer size other than 4 or 8.
	ErrPointerSize = fmt.Errorf("invalid pointer size")
	// No schema registered for the event.
	ErrUnknownSchema = fmt.Errorf("unknown event schema")
	// Schema rejected by Register or by the YAML loader.
	ErrInvalidSchema = fmt.Errorf("invalid event schema")
	// Provider name or GUID is not known.
	ErrUnknownProvider = fmt.Errorf("unknown provider")

	// Deprecated: misspelled name kept for older callers, use ErrUnknownProvider.
	ErrUnkownProvider = ErrUnknownProvider
)

// PropertyError describes a property that could not be located or read.
type PropertyError struct {
	Index  int    // property position in the schema
	Name   string // property name
	Offset int    // start of the property in the payload
	Need   int    // bytes the read required
	Len    int    // payload length
	Err    error
}

func (e *PropertyError) Error() string {
	b := make([]byte, 0, 96)
	b = append(b, "property "...)
	b = strconv.AppendQuote(b, e.Name)
	b = append(b, " (#"...)
	b = strconv.AppendInt(b, int64(e.Index), 10)
	b = append(b, "): "...)
	if e.Need > 0 {
		b = append(b, "need "...)
		b = strconv.AppendInt(b, int64(e.Need), 10)
		b = append(b, " bytes at offset "...)
		b = strconv.AppendInt(b, int64(e.Offset), 10)
		b = append(b, " of "...)
		b = strconv.AppendInt(b, int64(e.Len), 10)
		b = append(b, ": "...)
	}
	b = append(b, e.Err.Error()...)
	return string(b)
}

func (e *PropertyError) Unwrap() error { return e.Err }

func unknownPropertyName(name string) error {
	return &PropertyError{Index: -1, Name: name, Err: ErrUnknownProperty}
}
