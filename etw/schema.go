package etw

import (
	"cmp"
	"fmt"
	"slices"
	"sync"
)

// PropertyDef describes one property of an event payload.
type PropertyDef struct {
	Name    string
	InType  TdhInType  // How to read the raw data
	OutType TdhOutType // How to format the value
	// Length is a fixed element count: UTF-16 units for UNICODESTRING, bytes
	// for ANSISTRING and BINARY. Zero means the size comes from the data.
	Length uint16
}

// EventType names one opcode of a classic event schema.
type EventType struct {
	Opcode uint8
	Name   string
}

// EventSchema is the layout of one event shape.
//
// Manifest events are identified by provider GUID, Id and Version. Classic
// (MOF) events are identified by provider GUID, opcode and Version instead,
// and one layout usually serves several opcodes listed in EventTypes.
type EventSchema struct {
	Name     string // Task name for manifest events, class name for classic ones
	Provider string
	GUID     GUID
	Version  uint8

	Id         uint16
	Opcode     uint8
	OpcodeName string
	Level      uint8
	Task       uint16
	TaskName   string
	Keyword    uint64

	Classic    bool
	EventTypes []EventType

	Properties []PropertyDef

	indexOnce sync.Once
	index     map[string]int
}

// PropertyIndex returns the position of the named property.
func (s *EventSchema) PropertyIndex(name string) (int, bool) {
	s.indexOnce.Do(func() {
		s.index = make(map[string]int, len(s.Properties))
		for i := range s.Properties {
			s.index[s.Properties[i].Name] = i
		}
	})
	i, ok := s.index[name]
	return i, ok
}

// OpcodeNameOf returns the opcode name for an event of this schema.
func (s *EventSchema) OpcodeNameOf(opcode uint8) string {
	for _, et := range s.EventTypes {
		if et.Opcode == opcode {
			return et.Name
		}
	}
	if s.OpcodeName != "" && s.Opcode == opcode {
		return s.OpcodeName
	}
	return standardOpcodeName(opcode)
}

// Validate checks the schema for problems Register would reject.
func (s *EventSchema) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("%w: schema without name", ErrInvalidSchema)
	}
	if s.GUID.IsZero() {
		return fmt.Errorf("%w: %s: zero provider GUID", ErrInvalidSchema, s.Name)
	}
	if s.Classic && len(s.EventTypes) == 0 {
		return fmt.Errorf("%w: %s: classic schema without event types", ErrInvalidSchema, s.Name)
	}
	seen := make(map[string]struct{}, len(s.Properties))
	last := len(s.Properties) - 1
	for i := range s.Properties {
		p := &s.Properties[i]
		if p.Name == "" {
			return fmt.Errorf("%w: %s: property #%d without name", ErrInvalidSchema, s.Name, i)
		}
		if _, dup := seen[p.Name]; dup {
			return fmt.Errorf("%w: %s: duplicate property %q", ErrInvalidSchema, s.Name, p.Name)
		}
		seen[p.Name] = struct{}{}
		if !p.InType.Known() {
			return fmt.Errorf("%w: %s.%s: unknown in-type %s", ErrInvalidSchema, s.Name, p.Name, p.InType)
		}
		if i != last && consumesRemainder(p) {
			return fmt.Errorf("%w: %s.%s: %s without length must be the last property",
				ErrInvalidSchema, s.Name, p.Name, p.InType)
		}
	}
	return nil
}

// consumesRemainder reports whether p always extends to the end of the payload.
func consumesRemainder(p *PropertyDef) bool {
	if p.InType.isRemainder() {
		return true
	}
	return p.InType == TDH_INTYPE_BINARY && p.Length == 0 && p.OutType != TDH_OUTTYPE_IPV6
}

type schemaKey struct {
	guid    GUID
	id      uint16 // event id, or opcode for classic events
	version uint8
	classic bool
}

// ProviderInfo is the catalog entry of a provider.
type ProviderInfo struct {
	Name     string
	GUID     GUID
	Keywords []Keyword
}

// Keyword names one bit (or group of bits) of a provider keyword mask.
type Keyword struct {
	Mask uint64
	Name string
}

// KeywordNames returns the names of the keywords set in mask, in catalog order.
func (p *ProviderInfo) KeywordNames(mask uint64) []string {
	var names []string
	for _, kw := range p.Keywords {
		if kw.Mask != 0 && mask&kw.Mask == kw.Mask {
			names = append(names, kw.Name)
		}
	}
	return names
}

// SchemaRegistry indexes event schemas and providers. It is safe for
// concurrent use.
type SchemaRegistry struct {
	mu        sync.RWMutex
	schemas   map[schemaKey]*EventSchema
	byName    map[string][]*EventSchema
	providers map[GUID]*ProviderInfo
	provNames map[string]*ProviderInfo
}

func NewSchemaRegistry() *SchemaRegistry {
	return &SchemaRegistry{
		schemas:   make(map[schemaKey]*EventSchema),
		byName:    make(map[string][]*EventSchema),
		providers: make(map[GUID]*ProviderInfo),
		provNames: make(map[string]*ProviderInfo),
	}
}

// DefaultRegistry holds the built-in schemas.
var DefaultRegistry = NewSchemaRegistry()

// Register validates s and indexes it. A schema with the same key replaces
// the previous one, so user schemas can override built-in ones.
func (r *SchemaRegistry) Register(s *EventSchema) error {
	if err := s.Validate(); err != nil {
		return err
	}
	s.PropertyIndex("") // build the name index before publishing

	r.mu.Lock()
	defer r.mu.Unlock()

	var replaced []*EventSchema
	for _, k := range s.keys() {
		if old, ok := r.schemas[k]; ok && old != s && !slices.Contains(replaced, old) {
			replaced = append(replaced, old)
		}
		r.schemas[k] = s
	}
	if !slices.Contains(r.byName[s.Name], s) {
		r.byName[s.Name] = append(r.byName[s.Name], s)
	}
	// A schema shadowed under all of its keys is no longer listed.
	for _, old := range replaced {
		if !r.active(old) {
			r.unlist(old)
		}
	}
	if _, ok := r.providers[s.GUID]; !ok && s.Provider != "" {
		r.addProvider(&ProviderInfo{Name: s.Provider, GUID: s.GUID})
	}
	schemaLog().Trace().Str("schema", s.Name).Str("provider", s.Provider).
		Uint16("id", s.Id).Uint8("version", s.Version).Bool("classic", s.Classic).Msg("registered schema")
	return nil
}

func (s *EventSchema) keys() []schemaKey {
	if !s.Classic {
		return []schemaKey{{s.GUID, s.Id, s.Version, false}}
	}
	keys := make([]schemaKey, len(s.EventTypes))
	for i, et := range s.EventTypes {
		keys[i] = schemaKey{s.GUID, uint16(et.Opcode), s.Version, true}
	}
	return keys
}

// active reports whether s still serves at least one key. r.mu must be held.
func (r *SchemaRegistry) active(s *EventSchema) bool {
	for _, k := range s.keys() {
		if r.schemas[k] == s {
			return true
		}
	}
	return false
}

func (r *SchemaRegistry) unlist(s *EventSchema) {
	list := slices.DeleteFunc(slices.Clone(r.byName[s.Name]), func(x *EventSchema) bool { return x == s })
	if len(list) == 0 {
		delete(r.byName, s.Name)
		return
	}
	r.byName[s.Name] = list
}

// MustRegister is like Register but panics on error.
func (r *SchemaRegistry) MustRegister(schemas ...*EventSchema) {
	for _, s := range schemas {
		if err := r.Register(s); err != nil {
			panic(err)
		}
	}
}

// RegisterProvider adds or replaces a provider catalog entry.
func (r *SchemaRegistry) RegisterProvider(p *ProviderInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.addProvider(p)
}

func (r *SchemaRegistry) addProvider(p *ProviderInfo) {
	r.providers[p.GUID] = p
	if p.Name != "" {
		r.provNames[p.Name] = p
	}
}

// Provider returns the catalog entry for guid, or nil.
func (r *SchemaRegistry) Provider(guid *GUID) *ProviderInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.providers[*guid]
}

// ProviderByName returns the catalog entry named name, or nil.
func (r *SchemaRegistry) ProviderByName(name string) *ProviderInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.provNames[name]
}

// Lookup returns the schema for an event header, or nil.
//
// Events with the classic header flag are looked up by opcode first. Other
// events are looked up by id first and fall back to the opcode key, since
// some kernel sessions deliver MOF events without the flag.
func (r *SchemaRegistry) Lookup(h *EventHeader) *EventSchema {
	manifest := schemaKey{h.ProviderId, h.EventDescriptor.Id, h.EventDescriptor.Version, false}
	classic := schemaKey{h.ProviderId, uint16(h.EventDescriptor.Opcode), h.EventDescriptor.Version, true}
	if h.Flags&EVENT_HEADER_FLAG_CLASSIC_HEADER != 0 {
		manifest, classic = classic, manifest
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if s, ok := r.schemas[manifest]; ok {
		return s
	}
	return r.schemas[classic]
}

// LookupEvent finds a manifest schema by provider, id and version.
func (r *SchemaRegistry) LookupEvent(guid *GUID, id uint16, version uint8) *EventSchema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.schemas[schemaKey{*guid, id, version, false}]
}

// LookupClassic finds a classic schema by provider, opcode and version.
func (r *SchemaRegistry) LookupClassic(guid *GUID, opcode uint8, version uint8) *EventSchema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.schemas[schemaKey{*guid, uint16(opcode), version, true}]
}

// LookupName returns every schema registered under name that still serves
// at least one lookup key.
func (r *SchemaRegistry) LookupName(name string) []*EventSchema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.byName[name])
}

// Schemas returns all active schemas sorted by provider, name and version.
func (r *SchemaRegistry) Schemas() []*EventSchema {
	r.mu.RLock()
	out := make([]*EventSchema, 0, len(r.byName))
	for _, list := range r.byName {
		out = append(out, list...)
	}
	r.mu.RUnlock()

	slices.SortFunc(out, func(a, b *EventSchema) int {
		switch {
		case a.Provider != b.Provider:
			return cmp.Compare(a.Provider, b.Provider)
		case a.Name != b.Name:
			return cmp.Compare(a.Name, b.Name)
		case a.Id != b.Id:
			return cmp.Compare(a.Id, b.Id)
		}
		return cmp.Compare(a.Version, b.Version)
	})
	return out
}
