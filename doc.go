// Package formstate is a reactive, path-addressable state container for
// deeply nested form data.
//
// A Form owns three observable stores: the state tree, per-field metadata and
// the submitting flag. Every state mutation re-runs the configured validator
// over the whole tree, writes the tree to storage when a storage key is
// configured, and then notifies subscribers. The stores are not linked
// transactionally, so a listener on one may briefly observe another in its
// previous state.
//
// Fields are addressed by path:
//
//	form.Field(path.MustParse("a.b.c"))
//	form.Select(func(b path.Builder) path.Builder { return b.Key("numbers").Index(0) })
//
// Writes auto-create missing intermediate maps and sequences. Writing past the
// end of a sequence pads it with null. Writing through a scalar fails with an
// error wrapping tree.ErrPathConflict and leaves the state untouched.
//
// Forms assume a single logical writer. Store access is mutex guarded for
// memory safety, but interleaved writers from several goroutines may observe
// each other's intermediate states.
package formstate
