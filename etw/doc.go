// Package etw decodes the payload of Windows Event Tracing (ETW) events
// without calling TDH.
//
// Event layouts are described by an EventSchema: an ordered list of
// PropertyDefs using the TDH in-types and out-types. Schemas for the
// Microsoft-Windows-Kernel-File and Microsoft-Windows-Kernel-Process
// manifest providers and for the classic NT Kernel Logger classes are
// registered in DefaultRegistry at init. More can be loaded from YAML with
// (*SchemaRegistry).LoadYAML.
//
// A RecordReader reads single properties of a payload. Property offsets
// depend on the sizes of the properties before them, so they are computed
// lazily and memoized: reading property 5 decodes the sizes of 0 to 4 once,
// and later reads reuse them. Pointer-sized properties take the pointer width
// of the traced process (4 or 8), which is passed to the reader rather than
// taken from the schema.
//
// Basic usage:
//
//	d := etw.NewDecoder(nil)
//	e, err := d.Decode(&etw.RawEvent{EventHeader: header, UserData: payload})
//	if err != nil {
//	    return err
//	}
//	name, _ := e.GetPropertyString("FileName")
//
// Decoder.DecodeRecord returns a lazy Record instead, for callers that only
// need a few properties.
package etw
