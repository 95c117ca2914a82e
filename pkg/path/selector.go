package path

// Builder records key and index accesses in traversal order. Each call returns
// a new Builder, so a Builder can be branched without aliasing.
type Builder struct {
	path Path
}

// Selector is a static access chain applied to a placeholder root. Selectors
// must only chain Key/Index/Field calls; a selector that branches on runtime
// data or returns an unrelated Builder yields whatever path that Builder holds.
type Selector func(Builder) Builder

// Root returns the placeholder root Builder.
func Root() Builder {
	return Builder{}
}

// Key records an object key access.
func (b Builder) Key(name string) Builder {
	return Builder{path: b.path.Key(name)}
}

// Field records a dotted sub-path, so Root().Field("a.b") equals
// Root().Key("a").Key("b"). Malformed input panics like MustParse.
func (b Builder) Field(dotted string) Builder {
	return Builder{path: b.path.Concat(MustParse(dotted))}
}

// Index records a sequence index access.
func (b Builder) Index(i int) Builder {
	return Builder{path: b.path.Index(i)}
}

// Path returns the recorded path.
func (b Builder) Path() Path {
	return b.path
}

// Resolve runs sel against a fresh placeholder root and returns the recorded
// path. The result depends only on the access chain, never on prior calls.
func Resolve(sel Selector) Path {
	if sel == nil {
		return Path{}
	}
	return sel(Root()).path
}
