package formstate

import "sort"

// FieldMeta holds UI flags for one field.
type FieldMeta struct {
	Touched  bool `json:"touched"`
	Dirty    bool `json:"dirty"`
	Disabled bool `json:"disabled"`
	Visible  bool `json:"visible"`
	Loading  bool `json:"loading"`
	Required bool `json:"required"`
}

// MetaPatch is a partial FieldMeta. Nil fields keep their current value.
type MetaPatch struct {
	Touched  *bool
	Dirty    *bool
	Disabled *bool
	Visible  *bool
	Loading  *bool
	Required *bool
}

// Flag returns a pointer to v for use in a MetaPatch.
func Flag(v bool) *bool {
	return &v
}

// Apply returns m with the patch's non-nil fields set.
func (p MetaPatch) Apply(m FieldMeta) FieldMeta {
	assign(&m.Touched, p.Touched)
	assign(&m.Dirty, p.Dirty)
	assign(&m.Disabled, p.Disabled)
	assign(&m.Visible, p.Visible)
	assign(&m.Loading, p.Loading)
	assign(&m.Required, p.Required)
	return m
}

func assign(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

// MetaMap maps a joined field path to its meta record. A missing key means no
// meta was ever recorded for the field, which is distinct from an all-false
// record.
type MetaMap map[string]FieldMeta

// Clone returns an independent copy.
func (m MetaMap) Clone() MetaMap {
	out := make(MetaMap, len(m))
	for key, meta := range m {
		out[key] = meta
	}
	return out
}

// Touched returns the sorted keys whose Touched flag is set.
func (m MetaMap) Touched() []string {
	out := []string{}
	for key, meta := range m {
		if meta.Touched {
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out
}
