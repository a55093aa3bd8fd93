package etw

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tekert/etwschema/internal/test"
)

const storageSchemas = `
providers:
  - name: Contoso-Storage
    guid: "{c7a5e0a4-2d51-4b9e-9f4a-0d8c1e6b7a10}"
    keywords:
      - {name: Io, mask: 0x10}
      - {name: Analytic, mask: 0x8000000000000000}
    events:
      - name: Open
        id: 1
        version: 0
        level: 4
        task: 1
        keyword: 0x8000000000000010
        properties:
          - {name: Irp, type: pointer}
          - {name: Flags, type: uint32, format: x}
          - {name: Remote, type: uint32, extension: IPAddrV4}
          - {name: Port, type: uint16, extension: Port}
          - {name: Owner, type: object, extension: Sid}
          - {name: Path, type: string}
      - name: Tag
        id: 2
        properties:
          - {name: Label, type: string, format: s}
          - {name: Blob, type: TDH_INTYPE_BINARY, length: 2, outType: hexbinary}
          - {name: Note, type: string, termination: Counted}
          - {name: Tail, type: string, termination: NotCounted}
  - name: Contoso-Legacy
    guid: 5c1a1f2e-79b1-4d43-9d1f-7b3a4a0e8c11
    events:
      - name: Legacy_V2_Op
        version: 2
        classic: true
        eventTypes: [{opcode: 10, name: Start}, {opcode: 11, name: Stop}]
        properties:
          - {name: Size, type: pointer, extension: SizeT}
          - {name: Count, type: sint16}
`

func TestLoadSchemasYAML(t *testing.T) {
	t.Parallel()
	tt := test.FromT(t)

	schemas, err := LoadSchemasYAML(strings.NewReader(storageSchemas))
	tt.CheckErr(err)
	tt.Equal(len(schemas), 3)

	open := schemas[0]
	tt.Equal(open.Name, "Open")
	tt.Equal(open.TaskName, "Open")
	tt.Equal(open.Provider, "Contoso-Storage")
	tt.Equal(open.Keyword, uint64(0x8000000000000010))
	tt.Equal(open.Properties, []PropertyDef{
		{Name: "Irp", InType: TDH_INTYPE_POINTER},
		{Name: "Flags", InType: TDH_INTYPE_UINT32, OutType: TDH_OUTTYPE_HEXINT32},
		{Name: "Remote", InType: TDH_INTYPE_UINT32, OutType: TDH_OUTTYPE_IPV4},
		{Name: "Port", InType: TDH_INTYPE_UINT16, OutType: TDH_OUTTYPE_PORT},
		{Name: "Owner", InType: TDH_INTYPE_WBEMSID, OutType: TDH_OUTTYPE_STRING},
		{Name: "Path", InType: TDH_INTYPE_UNICODESTRING},
	})

	tag := schemas[1]
	tt.Equal(tag.Properties, []PropertyDef{
		{Name: "Label", InType: TDH_INTYPE_ANSISTRING, OutType: TDH_OUTTYPE_STRING},
		{Name: "Blob", InType: TDH_INTYPE_BINARY, OutType: TDH_OUTTYPE_HEXBINARY, Length: 2},
		{Name: "Note", InType: TDH_INTYPE_COUNTEDSTRING},
		{Name: "Tail", InType: TDH_INTYPE_NONNULLTERMINATEDSTRING},
	})

	legacy := schemas[2]
	tt.Assert(legacy.Classic)
	tt.Equal(legacy.EventTypes, []EventType{{10, "Start"}, {11, "Stop"}})
	tt.Equal(legacy.Properties[0].InType, TDH_INTYPE_POINTER)
	tt.Equal(legacy.Properties[1].InType, TDH_INTYPE_INT16)
}

func TestLoadYAMLRegisters(t *testing.T) {
	t.Parallel()
	tt := test.FromT(t)

	reg := NewSchemaRegistry()
	n, err := reg.LoadYAML(strings.NewReader(storageSchemas))
	tt.CheckErr(err)
	tt.Equal(n, 3)

	info := reg.ProviderByName("Contoso-Storage")
	tt.Assert(info != nil)
	tt.Equal(info.KeywordNames(0x8000000000000010), []string{"Io", "Analytic"})

	legacyGuid := MustParseGUID("{5c1a1f2e-79b1-4d43-9d1f-7b3a4a0e8c11}")
	tt.Assert(reg.LookupClassic(legacyGuid, 11, 2) != nil)

	// Decode an event with the loaded schema.
	raw := &RawEvent{
		EventHeader: EventHeader{
			ProviderId:      info.GUID,
			EventDescriptor: EventDescriptor{Id: 1, Level: 4, Keyword: 0x8000000000000010},
		},
		PointerWidth: 4,
		UserData: payload{}.u32(0xAB).u32(0x11).raw(127, 0, 0, 1).raw(0x1F, 0x90).
			u32(0).wstr(`\\server\share`),
	}
	e, err := NewDecoder(reg).Decode(raw)
	tt.CheckErr(err)
	for name, want := range map[string]string{
		"Irp": "0xAB", "Flags": "0x11", "Remote": "127.0.0.1", "Port": "8080",
		"Owner": "", "Path": `\\server\share`,
	} {
		got, err := e.GetPropertyString(name)
		tt.CheckErr(err)
		tt.Equal(got, want)
	}
	tt.Equal(e.System.Keywords.Name, []string{"Io", "Analytic"})
}

func TestLoadYAMLFile(t *testing.T) {
	t.Parallel()
	tt := test.FromT(t)

	path := filepath.Join(t.TempDir(), "schemas.yaml")
	tt.CheckErr(os.WriteFile(path, []byte(storageSchemas), 0o600))

	reg := NewSchemaRegistry()
	n, err := reg.LoadYAMLFile(path)
	tt.CheckErr(err)
	tt.Equal(n, 3)

	_, err = reg.LoadYAMLFile(filepath.Join(t.TempDir(), "missing.yaml"))
	tt.Assert(os.IsNotExist(err), err)
}

func TestLoadSchemasYAMLEmpty(t *testing.T) {
	t.Parallel()
	tt := test.FromT(t)

	schemas, err := LoadSchemasYAML(strings.NewReader(""))
	tt.CheckErr(err)
	tt.Equal(len(schemas), 0)
}

func TestLoadSchemasYAMLErrors(t *testing.T) {
	t.Parallel()

	const head = "providers:\n  - name: P\n    guid: \"{c7a5e0a4-2d51-4b9e-9f4a-0d8c1e6b7a10}\"\n    events:\n      - name: E\n        properties:\n"

	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"syntax", "providers: [", ""},
		{"unknown field", "providers:\n  - name: P\n    colour: red\n", "colour"},
		{"bad guid", "providers:\n  - name: P\n    guid: nope\n", `"P"`},
		{"bad keyword", "providers:\n  - name: P\n    guid: \"{c7a5e0a4-2d51-4b9e-9f4a-0d8c1e6b7a10}\"\n    keywords: [{name: K, mask: zz}]\n", ""},
		{"unknown type", head + "          - {name: X, type: uint128}\n", `property "X"`},
		{"unknown tdh type", head + "          - {name: X, type: TDH_INTYPE_NOPE}\n", `property "X"`},
		{"unknown format", head + "          - {name: X, type: uint32, format: q}\n", "format"},
		{"unknown extension", head + "          - {name: X, type: uint32, extension: Magic}\n", "extension"},
		{"termination on int", head + "          - {name: X, type: uint32, termination: Counted}\n", "termination"},
		{"unknown outtype", head + "          - {name: X, type: uint32, outType: fancy}\n", "out-type"},
		{"remainder not last", head + "          - {name: X, type: string, termination: NotCounted}\n          - {name: Y, type: uint8}\n", "last"},
		{"classic without types", "providers:\n  - name: P\n    guid: \"{c7a5e0a4-2d51-4b9e-9f4a-0d8c1e6b7a10}\"\n    events:\n      - {name: E, classic: true}\n", "classic"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			tt := test.FromT(t)

			reg := NewSchemaRegistry()
			_, err := reg.LoadYAML(strings.NewReader(tc.doc))
			tt.ExpectErr(err, ErrInvalidSchema)
			tt.Assert(strings.Contains(err.Error(), tc.want), err)
			tt.Equal(len(reg.Schemas()), 0)
		})
	}
}
