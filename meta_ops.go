package formstate

import (
	"github.com/goliatone/go-formstate/pkg/path"
)

// Meta returns a copy of every recorded field meta.
func (f *Form) Meta() MetaMap {
	return f.meta.State().Clone()
}

// SubscribeMeta registers fn to receive a copy of the meta map after every
// meta change.
func (f *Form) SubscribeMeta(fn func(MetaMap)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	return f.meta.Subscribe(func(m MetaMap) {
		fn(m.Clone())
	})
}

// FieldMeta returns the meta recorded for p and whether any was recorded.
func (f *Form) FieldMeta(p path.Path) (FieldMeta, bool) {
	meta, ok := f.meta.State()[p.String()]
	return meta, ok
}

// SetMeta merges patch into the meta for p. When the merged record equals the
// existing one the meta store is left alone and SetMeta reports false.
func (f *Form) SetMeta(p path.Path, patch MetaPatch) bool {
	key := p.String()
	current := f.meta.State()
	prev, ok := current[key]
	merged := patch.Apply(prev)
	if ok && merged == prev {
		return false
	}
	next := current.Clone()
	next[key] = merged
	f.meta.SetState(next)
	return true
}

// ClearMeta removes the meta record for p. It reports false when none existed.
func (f *Form) ClearMeta(p path.Path) bool {
	key := p.String()
	current := f.meta.State()
	if _, ok := current[key]; !ok {
		return false
	}
	next := current.Clone()
	delete(next, key)
	f.meta.SetState(next)
	return true
}

// TouchedFields returns the sorted joined paths of touched fields.
func (f *Form) TouchedFields() []string {
	return f.meta.State().Touched()
}

// SetTouchedFields marks exactly the given paths as touched. Fields not listed
// lose their Touched flag but keep the rest of their meta.
func (f *Form) SetTouchedFields(paths ...path.Path) {
	want := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		want[p.String()] = struct{}{}
	}

	current := f.meta.State()
	next := current.Clone()
	changed := false
	for key, meta := range current {
		if _, ok := want[key]; !ok && meta.Touched {
			meta.Touched = false
			next[key] = meta
			changed = true
		}
	}
	for key := range want {
		meta, ok := next[key]
		if ok && meta.Touched {
			continue
		}
		meta.Touched = true
		next[key] = meta
		changed = true
	}
	if changed {
		f.meta.SetState(next)
	}
}
