package media

import (
	"sort"
	"strings"
)

// CapsAny matches every media type.
const CapsAny = "ANY"

// Structure is one media type with its fields, e.g.
// "video/x-h264,stream-format=avc".
type Structure struct {
	Name   string
	Fields map[string]string
}

// Caps is a capability descriptor. Only the first structure is used when
// deciding what a pad carries.
type Caps struct {
	Structures []Structure
}

// NewCapsFromString parses "type,key=value,...;type2,..." into Caps.
// Whitespace around names, keys and values is ignored.
func NewCapsFromString(s string) *Caps {
	caps := &Caps{}
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		fields := strings.Split(part, ",")
		st := Structure{Name: strings.TrimSpace(fields[0]), Fields: map[string]string{}}
		for _, f := range fields[1:] {
			k, v, ok := strings.Cut(f, "=")
			if !ok {
				continue
			}
			st.Fields[strings.TrimSpace(k)] = strings.TrimSpace(v)
		}
		caps.Structures = append(caps.Structures, st)
	}
	return caps
}

// NewAnyCaps returns caps that intersect with everything.
func NewAnyCaps() *Caps {
	return &Caps{Structures: []Structure{{Name: CapsAny}}}
}

// Name returns the media type of the first structure, or "" for empty caps.
func (c *Caps) Name() string {
	if c == nil || len(c.Structures) == 0 {
		return ""
	}
	return c.Structures[0].Name
}

// IsAny reports whether the caps accept every media type.
func (c *Caps) IsAny() bool {
	return c.Name() == CapsAny
}

// CanIntersect reports whether some structure of c shares a media type with
// some structure of other. ANY intersects with any non-empty caps.
func (c *Caps) CanIntersect(other *Caps) bool {
	if c == nil || other == nil || len(c.Structures) == 0 || len(other.Structures) == 0 {
		return false
	}
	if c.IsAny() || other.IsAny() {
		return true
	}
	for _, a := range c.Structures {
		for _, b := range other.Structures {
			if a.Name == b.Name {
				return true
			}
		}
	}
	return false
}

// String renders the caps back in the parseable form with sorted fields.
func (c *Caps) String() string {
	if c == nil {
		return ""
	}
	parts := make([]string, 0, len(c.Structures))
	for _, st := range c.Structures {
		keys := make([]string, 0, len(st.Fields))
		for k := range st.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var b strings.Builder
		b.WriteString(st.Name)
		for _, k := range keys {
			b.WriteString(",")
			b.WriteString(k)
			b.WriteString("=")
			b.WriteString(st.Fields[k])
		}
		parts = append(parts, b.String())
	}
	return strings.Join(parts, ";")
}
