package etw

import "strconv"

// TdhInType is the encoding of a property in the event payload.
// Values match the TDH_INTYPE enumeration in tdh.h.
type TdhInType uint16

const (
	TDH_INTYPE_NULL                        TdhInType = 0
	TDH_INTYPE_UNICODESTRING               TdhInType = 1
	TDH_INTYPE_ANSISTRING                  TdhInType = 2
	TDH_INTYPE_INT8                        TdhInType = 3
	TDH_INTYPE_UINT8                       TdhInType = 4
	TDH_INTYPE_INT16                       TdhInType = 5
	TDH_INTYPE_UINT16                      TdhInType = 6
	TDH_INTYPE_INT32                       TdhInType = 7
	TDH_INTYPE_UINT32                      TdhInType = 8
	TDH_INTYPE_INT64                       TdhInType = 9
	TDH_INTYPE_UINT64                      TdhInType = 10
	TDH_INTYPE_FLOAT                       TdhInType = 11
	TDH_INTYPE_DOUBLE                      TdhInType = 12
	TDH_INTYPE_BOOLEAN                     TdhInType = 13
	TDH_INTYPE_BINARY                      TdhInType = 14
	TDH_INTYPE_GUID                        TdhInType = 15
	TDH_INTYPE_POINTER                     TdhInType = 16
	TDH_INTYPE_FILETIME                    TdhInType = 17
	TDH_INTYPE_SYSTEMTIME                  TdhInType = 18
	TDH_INTYPE_SID                         TdhInType = 19
	TDH_INTYPE_HEXINT32                    TdhInType = 20
	TDH_INTYPE_HEXINT64                    TdhInType = 21
	TDH_INTYPE_MANIFEST_COUNTEDSTRING      TdhInType = 22
	TDH_INTYPE_MANIFEST_COUNTEDANSISTRING  TdhInType = 23
	TDH_INTYPE_MANIFEST_COUNTEDBINARY      TdhInType = 25
	TDH_INTYPE_COUNTEDSTRING               TdhInType = 300
	TDH_INTYPE_COUNTEDANSISTRING           TdhInType = 301
	TDH_INTYPE_REVERSEDCOUNTEDSTRING       TdhInType = 302
	TDH_INTYPE_REVERSEDCOUNTEDANSISTRING   TdhInType = 303
	TDH_INTYPE_NONNULLTERMINATEDSTRING     TdhInType = 304
	TDH_INTYPE_NONNULLTERMINATEDANSISTRING TdhInType = 305
	TDH_INTYPE_UNICODECHAR                 TdhInType = 306
	TDH_INTYPE_ANSICHAR                    TdhInType = 307
	TDH_INTYPE_SIZET                       TdhInType = 308
	TDH_INTYPE_HEXDUMP                     TdhInType = 309
	TDH_INTYPE_WBEMSID                     TdhInType = 310
)

// TdhOutType is the formatting hint of a property.
// Values match the TDH_OUTTYPE enumeration in tdh.h.
type TdhOutType uint16

const (
	TDH_OUTTYPE_NULL          TdhOutType = 0
	TDH_OUTTYPE_STRING        TdhOutType = 1
	TDH_OUTTYPE_DATETIME      TdhOutType = 2
	TDH_OUTTYPE_BYTE          TdhOutType = 3
	TDH_OUTTYPE_UNSIGNEDBYTE  TdhOutType = 4
	TDH_OUTTYPE_SHORT         TdhOutType = 5
	TDH_OUTTYPE_UNSIGNEDSHORT TdhOutType = 6
	TDH_OUTTYPE_INT           TdhOutType = 7
	TDH_OUTTYPE_UNSIGNEDINT   TdhOutType = 8
	TDH_OUTTYPE_LONG          TdhOutType = 9
	TDH_OUTTYPE_UNSIGNEDLONG  TdhOutType = 10
	TDH_OUTTYPE_FLOAT         TdhOutType = 11
	TDH_OUTTYPE_DOUBLE        TdhOutType = 12
	TDH_OUTTYPE_BOOLEAN       TdhOutType = 13
	TDH_OUTTYPE_GUID          TdhOutType = 14
	TDH_OUTTYPE_HEXBINARY     TdhOutType = 15
	TDH_OUTTYPE_HEXINT8       TdhOutType = 16
	TDH_OUTTYPE_HEXINT16      TdhOutType = 17
	TDH_OUTTYPE_HEXINT32      TdhOutType = 18
	TDH_OUTTYPE_HEXINT64      TdhOutType = 19
	TDH_OUTTYPE_PID           TdhOutType = 20
	TDH_OUTTYPE_TID           TdhOutType = 21
	TDH_OUTTYPE_PORT          TdhOutType = 22
	TDH_OUTTYPE_IPV4          TdhOutType = 23
	TDH_OUTTYPE_IPV6          TdhOutType = 24
	TDH_OUTTYPE_SOCKETADDRESS TdhOutType = 25
	TDH_OUTTYPE_CIMDATETIME   TdhOutType = 26
	TDH_OUTTYPE_ETWTIME       TdhOutType = 27
	TDH_OUTTYPE_XML           TdhOutType = 28
	TDH_OUTTYPE_ERRORCODE     TdhOutType = 29
	TDH_OUTTYPE_WIN32ERROR    TdhOutType = 30
	TDH_OUTTYPE_NTSTATUS      TdhOutType = 31
	TDH_OUTTYPE_HRESULT       TdhOutType = 32
	TDH_OUTTYPE_DATETIME_UTC  TdhOutType = 38
)

var inTypeNames = map[TdhInType]string{
	TDH_INTYPE_NULL:                        "NULL",
	TDH_INTYPE_UNICODESTRING:               "UNICODESTRING",
	TDH_INTYPE_ANSISTRING:                  "ANSISTRING",
	TDH_INTYPE_INT8:                        "INT8",
	TDH_INTYPE_UINT8:                       "UINT8",
	TDH_INTYPE_INT16:                       "INT16",
	TDH_INTYPE_UINT16:                      "UINT16",
	TDH_INTYPE_INT32:                       "INT32",
	TDH_INTYPE_UINT32:                      "UINT32",
	TDH_INTYPE_INT64:                       "INT64",
	TDH_INTYPE_UINT64:                      "UINT64",
	TDH_INTYPE_FLOAT:                       "FLOAT",
	TDH_INTYPE_DOUBLE:                      "DOUBLE",
	TDH_INTYPE_BOOLEAN:                     "BOOLEAN",
	TDH_INTYPE_BINARY:                      "BINARY",
	TDH_INTYPE_GUID:                        "GUID",
	TDH_INTYPE_POINTER:                     "POINTER",
	TDH_INTYPE_FILETIME:                    "FILETIME",
	TDH_INTYPE_SYSTEMTIME:                  "SYSTEMTIME",
	TDH_INTYPE_SID:                         "SID",
	TDH_INTYPE_HEXINT32:                    "HEXINT32",
	TDH_INTYPE_HEXINT64:                    "HEXINT64",
	TDH_INTYPE_MANIFEST_COUNTEDSTRING:      "MANIFEST_COUNTEDSTRING",
	TDH_INTYPE_MANIFEST_COUNTEDANSISTRING:  "MANIFEST_COUNTEDANSISTRING",
	TDH_INTYPE_MANIFEST_COUNTEDBINARY:      "MANIFEST_COUNTEDBINARY",
	TDH_INTYPE_COUNTEDSTRING:               "COUNTEDSTRING",
	TDH_INTYPE_COUNTEDANSISTRING:           "COUNTEDANSISTRING",
	TDH_INTYPE_REVERSEDCOUNTEDSTRING:       "REVERSEDCOUNTEDSTRING",
	TDH_INTYPE_REVERSEDCOUNTEDANSISTRING:   "REVERSEDCOUNTEDANSISTRING",
	TDH_INTYPE_NONNULLTERMINATEDSTRING:     "NONNULLTERMINATEDSTRING",
	TDH_INTYPE_NONNULLTERMINATEDANSISTRING: "NONNULLTERMINATEDANSISTRING",
	TDH_INTYPE_UNICODECHAR:                 "UNICODECHAR",
	TDH_INTYPE_ANSICHAR:                    "ANSICHAR",
	TDH_INTYPE_SIZET:                       "SIZET",
	TDH_INTYPE_HEXDUMP:                     "HEXDUMP",
	TDH_INTYPE_WBEMSID:                     "WBEMSID",
}

var outTypeNames = map[TdhOutType]string{
	TDH_OUTTYPE_NULL:          "NULL",
	TDH_OUTTYPE_STRING:        "STRING",
	TDH_OUTTYPE_DATETIME:      "DATETIME",
	TDH_OUTTYPE_BYTE:          "BYTE",
	TDH_OUTTYPE_UNSIGNEDBYTE:  "UNSIGNEDBYTE",
	TDH_OUTTYPE_SHORT:         "SHORT",
	TDH_OUTTYPE_UNSIGNEDSHORT: "UNSIGNEDSHORT",
	TDH_OUTTYPE_INT:           "INT",
	TDH_OUTTYPE_UNSIGNEDINT:   "UNSIGNEDINT",
	TDH_OUTTYPE_LONG:          "LONG",
	TDH_OUTTYPE_UNSIGNEDLONG:  "UNSIGNEDLONG",
	TDH_OUTTYPE_FLOAT:         "FLOAT",
	TDH_OUTTYPE_DOUBLE:        "DOUBLE",
	TDH_OUTTYPE_BOOLEAN:       "BOOLEAN",
	TDH_OUTTYPE_GUID:          "GUID",
	TDH_OUTTYPE_HEXBINARY:     "HEXBINARY",
	TDH_OUTTYPE_HEXINT8:       "HEXINT8",
	TDH_OUTTYPE_HEXINT16:      "HEXINT16",
	TDH_OUTTYPE_HEXINT32:      "HEXINT32",
	TDH_OUTTYPE_HEXINT64:      "HEXINT64",
	TDH_OUTTYPE_PID:           "PID",
	TDH_OUTTYPE_TID:           "TID",
	TDH_OUTTYPE_PORT:          "PORT",
	TDH_OUTTYPE_IPV4:          "IPV4",
	TDH_OUTTYPE_IPV6:          "IPV6",
	TDH_OUTTYPE_SOCKETADDRESS: "SOCKETADDRESS",
	TDH_OUTTYPE_CIMDATETIME:   "CIMDATETIME",
	TDH_OUTTYPE_ETWTIME:       "ETWTIME",
	TDH_OUTTYPE_XML:           "XML",
	TDH_OUTTYPE_ERRORCODE:     "ERRORCODE",
	TDH_OUTTYPE_WIN32ERROR:    "WIN32ERROR",
	TDH_OUTTYPE_NTSTATUS:      "NTSTATUS",
	TDH_OUTTYPE_HRESULT:       "HRESULT",
	TDH_OUTTYPE_DATETIME_UTC:  "DATETIME_UTC",
}

var (
	inTypeByName  = make(map[string]TdhInType, len(inTypeNames))
	outTypeByName = make(map[string]TdhOutType, len(outTypeNames))
)

func init() {
	for t, n := range inTypeNames {
		inTypeByName["TDH_INTYPE_"+n] = t
	}
	for t, n := range outTypeNames {
		outTypeByName["TDH_OUTTYPE_"+n] = t
	}
}

func (t TdhInType) String() string {
	if n, ok := inTypeNames[t]; ok {
		return n
	}
	return "INTYPE(" + strconv.Itoa(int(t)) + ")"
}

func (t TdhOutType) String() string {
	if n, ok := outTypeNames[t]; ok {
		return n
	}
	return "OUTTYPE(" + strconv.Itoa(int(t)) + ")"
}

// Known reports whether t is a TDH in-type this package can decode.
func (t TdhInType) Known() bool {
	_, ok := inTypeNames[t]
	return ok && t != TDH_INTYPE_NULL
}

// FixedSize returns the payload size of t, or 0 if the size depends on the data.
func (t TdhInType) FixedSize(pointerSize int) int {
	switch t {
	case TDH_INTYPE_INT8, TDH_INTYPE_UINT8, TDH_INTYPE_ANSICHAR:
		return 1
	case TDH_INTYPE_INT16, TDH_INTYPE_UINT16, TDH_INTYPE_UNICODECHAR:
		return 2
	case TDH_INTYPE_INT32, TDH_INTYPE_UINT32, TDH_INTYPE_HEXINT32, TDH_INTYPE_FLOAT, TDH_INTYPE_BOOLEAN:
		return 4
	case TDH_INTYPE_INT64, TDH_INTYPE_UINT64, TDH_INTYPE_HEXINT64, TDH_INTYPE_DOUBLE, TDH_INTYPE_FILETIME:
		return 8
	case TDH_INTYPE_GUID, TDH_INTYPE_SYSTEMTIME:
		return 16
	case TDH_INTYPE_POINTER, TDH_INTYPE_SIZET:
		return pointerSize
	default:
		return 0
	}
}

// isSigned reports whether integer in-type t is sign-extended.
func (t TdhInType) isSigned() bool {
	switch t {
	case TDH_INTYPE_INT8, TDH_INTYPE_INT16, TDH_INTYPE_INT32, TDH_INTYPE_INT64:
		return true
	}
	return false
}

// isInteger reports whether t decodes to an integer value.
func (t TdhInType) isInteger() bool {
	switch t {
	case TDH_INTYPE_INT8, TDH_INTYPE_UINT8, TDH_INTYPE_INT16, TDH_INTYPE_UINT16,
		TDH_INTYPE_INT32, TDH_INTYPE_UINT32, TDH_INTYPE_INT64, TDH_INTYPE_UINT64,
		TDH_INTYPE_HEXINT32, TDH_INTYPE_HEXINT64, TDH_INTYPE_POINTER, TDH_INTYPE_SIZET,
		TDH_INTYPE_BOOLEAN, TDH_INTYPE_UNICODECHAR, TDH_INTYPE_ANSICHAR:
		return true
	}
	return false
}

// isString reports whether t decodes to text.
func (t TdhInType) isString() bool {
	switch t {
	case TDH_INTYPE_UNICODESTRING, TDH_INTYPE_ANSISTRING,
		TDH_INTYPE_MANIFEST_COUNTEDSTRING, TDH_INTYPE_MANIFEST_COUNTEDANSISTRING,
		TDH_INTYPE_COUNTEDSTRING, TDH_INTYPE_COUNTEDANSISTRING,
		TDH_INTYPE_REVERSEDCOUNTEDSTRING, TDH_INTYPE_REVERSEDCOUNTEDANSISTRING,
		TDH_INTYPE_NONNULLTERMINATEDSTRING, TDH_INTYPE_NONNULLTERMINATEDANSISTRING:
		return true
	}
	return false
}

// isRemainder reports whether t always extends to the end of the payload.
func (t TdhInType) isRemainder() bool {
	return t == TDH_INTYPE_NONNULLTERMINATEDSTRING || t == TDH_INTYPE_NONNULLTERMINATEDANSISTRING
}
