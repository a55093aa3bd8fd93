package etw

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Schema files describe providers and their events with MOF property types:
//
//	providers:
//	  - name: Contoso-Storage
//	    guid: "{c7a5e0a4-2d51-4b9e-9f4a-0d8c1e6b7a10}"
//	    keywords: [{name: Io, mask: 0x10}]
//	    events:
//	      - name: Open
//	        id: 1
//	        keyword: 0x10
//	        properties:
//	          - {name: Irp, type: pointer}
//	          - {name: Path, type: string}
//
// Classic events set classic: true and list their opcodes under eventTypes.

type yamlSchemaFile struct {
	Providers []yamlProvider `yaml:"providers"`
}

type yamlProvider struct {
	Name     string        `yaml:"name"`
	GUID     string        `yaml:"guid"`
	Keywords []yamlKeyword `yaml:"keywords"`
	Events   []yamlEvent   `yaml:"events"`
}

type yamlKeyword struct {
	Name string     `yaml:"name"`
	Mask yamlUint64 `yaml:"mask"`
}

type yamlEvent struct {
	Name       string          `yaml:"name"`
	Id         uint16          `yaml:"id"`
	Version    uint8           `yaml:"version"`
	Opcode     uint8           `yaml:"opcode"`
	OpcodeName string          `yaml:"opcodeName"`
	Level      uint8           `yaml:"level"`
	Task       uint16          `yaml:"task"`
	TaskName   string          `yaml:"taskName"`
	Keyword    yamlUint64      `yaml:"keyword"`
	Classic    bool            `yaml:"classic"`
	EventTypes []yamlEventType `yaml:"eventTypes"`
	Properties []yamlProperty  `yaml:"properties"`
}

type yamlEventType struct {
	Opcode uint8  `yaml:"opcode"`
	Name   string `yaml:"name"`
}

type yamlProperty struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type"`
	OutType     string `yaml:"outType"`
	Format      string `yaml:"format"`
	Extension   string `yaml:"extension"`
	Termination string `yaml:"termination"`
	Length      uint16 `yaml:"length"`
}

// yamlUint64 accepts decimal, 0x hex and quoted values up to the full 64 bits.
type yamlUint64 uint64

func (u *yamlUint64) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected an integer", n.Line)
	}
	v, err := strconv.ParseUint(strings.ReplaceAll(n.Value, "_", ""), 0, 64)
	if err != nil {
		return fmt.Errorf("line %d: %w", n.Line, err)
	}
	*u = yamlUint64(v)
	return nil
}

// MOF property types.
var mofTypes = map[string]TdhInType{
	"uint8":   TDH_INTYPE_UINT8,
	"uint16":  TDH_INTYPE_UINT16,
	"uint32":  TDH_INTYPE_UINT32,
	"uint64":  TDH_INTYPE_UINT64,
	"sint8":   TDH_INTYPE_INT8,
	"sint16":  TDH_INTYPE_INT16,
	"sint32":  TDH_INTYPE_INT32,
	"sint64":  TDH_INTYPE_INT64,
	"pointer": TDH_INTYPE_POINTER,
	"object":  TDH_INTYPE_POINTER,
	"string":  TDH_INTYPE_UNICODESTRING,
	"char16":  TDH_INTYPE_UNICODECHAR,
	"boolean": TDH_INTYPE_BOOLEAN,
	"real32":  TDH_INTYPE_FLOAT,
	"real64":  TDH_INTYPE_DOUBLE,

	"guid":     TDH_INTYPE_GUID,
	"filetime": TDH_INTYPE_FILETIME,
	"sid":      TDH_INTYPE_SID,
	"wbemsid":  TDH_INTYPE_WBEMSID,
	"binary":   TDH_INTYPE_BINARY,
}

// MOF extension qualifiers. They replace both the in-type and the out-type.
// https://learn.microsoft.com/en-us/windows/win32/etw/event-tracing-mof-qualifiers
var mofExtensions = map[string]struct {
	in  TdhInType
	out TdhOutType
}{
	"Port":     {TDH_INTYPE_UINT16, TDH_OUTTYPE_PORT},
	"IPAddrV6": {TDH_INTYPE_BINARY, TDH_OUTTYPE_IPV6},
	"IPAddrV4": {TDH_INTYPE_UINT32, TDH_OUTTYPE_IPV4},
	"IPAddr":   {TDH_INTYPE_UINT32, TDH_OUTTYPE_IPV4},
	"SizeT":    {TDH_INTYPE_POINTER, TDH_OUTTYPE_NULL},
	"Sid":      {TDH_INTYPE_WBEMSID, TDH_OUTTYPE_STRING},
	"GUID":     {TDH_INTYPE_GUID, TDH_OUTTYPE_GUID},
	"WmiTime":  {TDH_INTYPE_UINT64, TDH_OUTTYPE_DATETIME},
	"NoPrint":  {TDH_INTYPE_BINARY, TDH_OUTTYPE_NULL},
	"RString":  {TDH_INTYPE_ANSISTRING, TDH_OUTTYPE_STRING},
	"RWString": {TDH_INTYPE_UNICODESTRING, TDH_OUTTYPE_STRING},
	"Variant":  {TDH_INTYPE_BINARY, TDH_OUTTYPE_NULL},
}

// LoadSchemasYAML parses a schema file and returns its validated schemas
// without registering them.
func LoadSchemasYAML(r io.Reader) ([]*EventSchema, error) {
	_, schemas, err := decodeSchemaFile(r)
	return schemas, err
}

// LoadYAML parses a schema file and registers its providers and schemas.
// Nothing is registered if any schema is invalid. It returns the number of
// schemas registered.
func (r *SchemaRegistry) LoadYAML(rd io.Reader) (int, error) {
	providers, schemas, err := decodeSchemaFile(rd)
	if err != nil {
		return 0, err
	}
	for _, p := range providers {
		r.RegisterProvider(p)
	}
	for _, s := range schemas {
		if err := r.Register(s); err != nil {
			return 0, err
		}
	}
	return len(schemas), nil
}

// LoadYAMLFile is LoadYAML on the file at path.
func (r *SchemaRegistry) LoadYAMLFile(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	n, err := r.LoadYAML(f)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	schemaLog().Debug().Str("file", path).Int("schemas", n).Msg("loaded schema file")
	return n, nil
}

func decodeSchemaFile(r io.Reader) ([]*ProviderInfo, []*EventSchema, error) {
	var file yamlSchemaFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidSchema, err)
	}

	var (
		providers []*ProviderInfo
		schemas   []*EventSchema
	)
	for pi := range file.Providers {
		yp := &file.Providers[pi]
		guid, err := ParseGUID(yp.GUID)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: provider %q: %w", ErrInvalidSchema, yp.Name, err)
		}
		info := &ProviderInfo{Name: yp.Name, GUID: *guid}
		for _, kw := range yp.Keywords {
			info.Keywords = append(info.Keywords, Keyword{Mask: uint64(kw.Mask), Name: kw.Name})
		}
		providers = append(providers, info)

		for ei := range yp.Events {
			s, err := yp.Events[ei].schema(info)
			if err != nil {
				return nil, nil, err
			}
			schemas = append(schemas, s)
		}
	}
	return providers, schemas, nil
}

func (ye *yamlEvent) schema(info *ProviderInfo) (*EventSchema, error) {
	s := &EventSchema{
		Name:       ye.Name,
		Provider:   info.Name,
		GUID:       info.GUID,
		Version:    ye.Version,
		Id:         ye.Id,
		Opcode:     ye.Opcode,
		OpcodeName: ye.OpcodeName,
		Level:      ye.Level,
		Task:       ye.Task,
		TaskName:   ye.TaskName,
		Keyword:    uint64(ye.Keyword),
		Classic:    ye.Classic,
	}
	if s.TaskName == "" {
		s.TaskName = s.Name
	}
	for _, et := range ye.EventTypes {
		s.EventTypes = append(s.EventTypes, EventType{Opcode: et.Opcode, Name: et.Name})
	}
	s.Properties = make([]PropertyDef, 0, len(ye.Properties))
	for i := range ye.Properties {
		p, err := ye.Properties[i].def()
		if err != nil {
			return nil, fmt.Errorf("%w: provider %q event %q property %q: %w",
				ErrInvalidSchema, info.Name, ye.Name, ye.Properties[i].Name, err)
		}
		s.Properties = append(s.Properties, p)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("provider %q: %w", info.Name, err)
	}
	return s, nil
}

func (yp *yamlProperty) def() (PropertyDef, error) {
	p := PropertyDef{Name: yp.Name, Length: yp.Length}

	switch t := yp.Type; {
	case strings.HasPrefix(t, "TDH_INTYPE_"):
		in, ok := inTypeByName[t]
		if !ok {
			return p, fmt.Errorf("unknown type %q", t)
		}
		p.InType = in
	default:
		in, ok := mofTypes[strings.ToLower(t)]
		if !ok {
			return p, fmt.Errorf("unknown type %q", t)
		}
		p.InType = in
	}

	switch yp.Format {
	case "":
	case "x":
		switch p.InType.FixedSize(8) {
		case 1:
			p.OutType = TDH_OUTTYPE_HEXINT8
		case 2:
			p.OutType = TDH_OUTTYPE_HEXINT16
		case 8:
			p.OutType = TDH_OUTTYPE_HEXINT64
		default:
			p.OutType = TDH_OUTTYPE_HEXINT32
		}
	case "w":
		p.OutType = TDH_OUTTYPE_STRING
	case "s":
		if p.InType == TDH_INTYPE_UNICODESTRING {
			p.InType = TDH_INTYPE_ANSISTRING
		}
		p.OutType = TDH_OUTTYPE_STRING
	case "c":
		if p.InType == TDH_INTYPE_UINT8 || p.InType == TDH_INTYPE_INT8 {
			p.InType = TDH_INTYPE_ANSICHAR
		}
		p.OutType = TDH_OUTTYPE_STRING
	default:
		return p, fmt.Errorf("unknown format %q", yp.Format)
	}

	if yp.Extension != "" {
		ext, ok := mofExtensions[yp.Extension]
		if !ok {
			return p, fmt.Errorf("unknown extension %q", yp.Extension)
		}
		p.InType, p.OutType = ext.in, ext.out
	}

	if yp.Termination != "" {
		ansi := p.InType == TDH_INTYPE_ANSISTRING
		if !ansi && p.InType != TDH_INTYPE_UNICODESTRING {
			return p, fmt.Errorf("termination %q on non-string type %s", yp.Termination, p.InType)
		}
		switch yp.Termination {
		case "NullTerminated":
		case "Counted":
			p.InType = pick(ansi, TDH_INTYPE_COUNTEDANSISTRING, TDH_INTYPE_COUNTEDSTRING)
		case "ReverseCounted":
			p.InType = pick(ansi, TDH_INTYPE_REVERSEDCOUNTEDANSISTRING, TDH_INTYPE_REVERSEDCOUNTEDSTRING)
		case "NotCounted":
			p.InType = pick(ansi, TDH_INTYPE_NONNULLTERMINATEDANSISTRING, TDH_INTYPE_NONNULLTERMINATEDSTRING)
		default:
			return p, fmt.Errorf("unknown termination %q", yp.Termination)
		}
	}

	if yp.OutType != "" {
		out, ok := outTypeByName[yp.OutType]
		if !ok {
			out, ok = outTypeByName["TDH_OUTTYPE_"+strings.ToUpper(yp.OutType)]
		}
		if !ok {
			return p, fmt.Errorf("unknown out-type %q", yp.OutType)
		}
		p.OutType = out
	}
	return p, nil
}

func pick[T any](cond bool, a, b T) T {
	if cond {
		return a
	}
	return b
}
