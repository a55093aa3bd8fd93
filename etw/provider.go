package etw

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

var defaultProvider = Provider{
	EnableLevel:     0xff,
	MatchAnyKeyword: 0xffffffffffffffff,
	MatchAllKeyword: 0,
}

// Provider selects events of one provider, the way a trace session enables
// it: by level, keywords and optionally event ids.
type Provider struct {
	GUID GUID
	Name string

	// Events with a level above EnableLevel are rejected. Level 0 events
	// always pass.
	EnableLevel uint8

	// An event with keyword bits set must match at least one bit of
	// MatchAnyKeyword (unless it is zero) and all bits of MatchAllKeyword.
	// Events without keywords always pass.
	MatchAnyKeyword uint64
	MatchAllKeyword uint64

	// EventIDs, when set, restricts manifest events to these ids.
	EventIDs []uint16
}

func (p *Provider) IsZero() bool {
	return p.GUID.IsZero()
}

// Match reports whether an event with header h is selected by p.
func (p *Provider) Match(h *EventHeader) bool {
	if !p.GUID.Equals(&h.ProviderId) {
		return false
	}
	d := &h.EventDescriptor
	if d.Level != 0 && d.Level > p.EnableLevel {
		return false
	}
	if d.Keyword != 0 {
		if p.MatchAnyKeyword != 0 && d.Keyword&p.MatchAnyKeyword == 0 {
			return false
		}
		if d.Keyword&p.MatchAllKeyword != p.MatchAllKeyword {
			return false
		}
	}
	if len(p.EventIDs) > 0 && h.Flags&EVENT_HEADER_FLAG_CLASSIC_HEADER == 0 {
		return slices.Contains(p.EventIDs, d.Id)
	}
	return true
}

// Providers is a set of provider selections. An empty set matches everything.
type Providers []Provider

func (ps Providers) Match(h *EventHeader) bool {
	if len(ps) == 0 {
		return true
	}
	for i := range ps {
		if ps[i].Match(h) {
			return true
		}
	}
	return false
}

func MustParseProvider(s string) Provider {
	p, err := ParseProvider(s)
	if err != nil {
		panic(err)
	}
	return p
}

// IsKnownProvider reports whether s names a provider of DefaultRegistry.
func IsKnownProvider(s string) bool {
	prov := ResolveProvider(s)
	return !prov.IsZero()
}

// ParseProvider parses a provider selection.
//
// The format is strictly positional:
// (Name|GUID)[:Level[:EventIDs[:MatchAnyKeyword[:MatchAllKeyword]]]]
//
// To skip a parameter, leave it empty. For example, to specify only a
// keyword: "ProviderName:::0x10".
//
// Example: "Microsoft-Windows-Kernel-File:0xff:12,13,14"
//
// Names are resolved through DefaultRegistry. A GUID is accepted even if no
// provider is registered for it.
func ParseProvider(s string) (p Provider, err error) {
	var u uint64

	p = defaultProvider

	parts := strings.Split(s, ":")

	for i, chunk := range parts {
		if chunk == "" && i > 0 {
			continue
		}

		switch i {
		case 0:
			if g, gerr := ParseGUID(chunk); gerr == nil {
				p.GUID = *g
				if info := DefaultRegistry.Provider(g); info != nil {
					p.Name = info.Name
				}
				continue
			}
			resolved := ResolveProvider(chunk)
			if resolved.IsZero() {
				err = fmt.Errorf("%w %s", ErrUnknownProvider, chunk)
				return
			}
			p.GUID = resolved.GUID
			p.Name = resolved.Name
		case 1:
			if u, err = strconv.ParseUint(chunk, 0, 8); err != nil {
				err = fmt.Errorf("failed to parse EnableLevel '%s': %w", chunk, err)
				return
			}
			p.EnableLevel = uint8(u)
		case 2:
			idStrings := strings.Split(chunk, ",")
			p.EventIDs = make([]uint16, 0, len(idStrings))
			for _, idStr := range idStrings {
				if u, err = strconv.ParseUint(idStr, 0, 16); err != nil {
					err = fmt.Errorf("failed to parse EventID '%s': %w", idStr, err)
					return
				}
				p.EventIDs = append(p.EventIDs, uint16(u))
			}
		case 3:
			if u, err = strconv.ParseUint(chunk, 0, 64); err != nil {
				err = fmt.Errorf("failed to parse MatchAnyKeyword '%s': %w", chunk, err)
				return
			}
			p.MatchAnyKeyword = u
		case 4:
			if u, err = strconv.ParseUint(chunk, 0, 64); err != nil {
				err = fmt.Errorf("failed to parse MatchAllKeyword '%s': %w", chunk, err)
				return
			}
			p.MatchAllKeyword = u
		default:
			err = fmt.Errorf("too many fields in provider %q", s)
			return
		}
	}
	return
}

// ResolveProvider returns the DefaultRegistry provider named s or with GUID
// s, or a zero Provider.
func ResolveProvider(s string) (p Provider) {
	var info *ProviderInfo
	if g, err := ParseGUID(s); err == nil {
		info = DefaultRegistry.Provider(g)
	} else {
		info = DefaultRegistry.ProviderByName(s)
	}
	if info != nil {
		p.GUID = info.GUID
		p.Name = info.Name
	}
	return
}
