package formstate

import (
	"slices"
	"sync"

	"github.com/goliatone/go-formstate/pkg/path"
	"github.com/goliatone/go-formstate/pkg/tree"
)

// FieldState is the derived view of one field.
type FieldState struct {
	Path    string
	Value   *tree.Node
	Errors  []string
	Meta    FieldMeta
	HasMeta bool
}

// Equal reports whether two field states would render the same.
func (s FieldState) Equal(other FieldState) bool {
	return s.Path == other.Path &&
		tree.Equal(s.Value, other.Value) &&
		slices.Equal(s.Errors, other.Errors) &&
		s.Meta == other.Meta &&
		s.HasMeta == other.HasMeta
}

// Field binds a form to one path. It is cheap to create; bindings for the
// same path are interchangeable except for the focus callback registered
// through OnFocus, which Close removes.
type Field struct {
	form *Form
	path path.Path
	key  string

	mu         sync.Mutex
	unregister func()
}

// Field returns a binding for p.
func (f *Form) Field(p path.Path) *Field {
	return &Field{form: f, path: p, key: p.String()}
}

// FieldAt returns a binding for a dotted path.
func (f *Form) FieldAt(dotted string) (*Field, error) {
	p, err := path.Parse(dotted)
	if err != nil {
		return nil, err
	}
	return f.Field(p), nil
}

// Select returns a binding for the path recorded by sel.
func (f *Form) Select(sel path.Selector) *Field {
	return f.Field(path.Resolve(sel))
}

// WatchField registers fn to run whenever the derived state of the field at p
// changes.
func (f *Form) WatchField(p path.Path, fn func(FieldState)) (unsubscribe func()) {
	return f.Field(p).Watch(fn)
}

// Path returns the bound path.
func (b *Field) Path() path.Path {
	return b.path
}

// Key returns the joined path used for meta and focus lookups.
func (b *Field) Key() string {
	return b.key
}

// Value returns the node at the field's path, or nil when absent.
func (b *Field) Value() *tree.Node {
	return tree.Get(b.form.State(), b.path)
}

// Interface returns the field's value as plain Go data.
func (b *Field) Interface() any {
	return b.Value().Interface()
}

// SetValue writes value at the field's path.
func (b *Field) SetValue(value any) error {
	return b.form.SetFieldValue(b.path, value)
}

// Update applies fn to the field's current value.
func (b *Field) Update(fn tree.Updater) error {
	return b.form.UpdateFieldValue(b.path, fn)
}

// Errors returns the messages at or below the field's path.
func (b *Field) Errors() []string {
	return b.form.ErrorsFor(b.path)
}

// Meta returns the field's meta and whether any is recorded.
func (b *Field) Meta() (FieldMeta, bool) {
	return b.form.FieldMeta(b.path)
}

// SetMeta merges patch into the field's meta.
func (b *Field) SetMeta(patch MetaPatch) bool {
	return b.form.SetMeta(b.path, patch)
}

// IsTouched reports the field's Touched flag.
func (b *Field) IsTouched() bool {
	meta, _ := b.Meta()
	return meta.Touched
}

// SetTouched sets the field's Touched flag.
func (b *Field) SetTouched(touched bool) bool {
	return b.SetMeta(MetaPatch{Touched: Flag(touched)})
}

// ClearMeta removes the field's meta record.
func (b *Field) ClearMeta() bool {
	return b.form.ClearMeta(b.path)
}

// OnFocus registers fn as the field's focus callback, replacing any callback
// this binding registered before.
func (b *Field) OnFocus(fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.unregister != nil {
		b.unregister()
		b.unregister = nil
	}
	if fn != nil {
		b.unregister = b.form.RegisterFocus(b.path, fn)
	}
}

// Focus invokes the focus callback registered for the field's path.
func (b *Field) Focus() bool {
	return b.form.Focus(b.path)
}

// Close removes the focus callback registered through this binding. A
// callback registered for the same path by another binding stays in place.
func (b *Field) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.unregister != nil {
		b.unregister()
		b.unregister = nil
	}
}

// State returns the field's current derived state.
func (b *Field) State() FieldState {
	meta, ok := b.Meta()
	return FieldState{
		Path:    b.key,
		Value:   b.Value(),
		Errors:  b.Errors(),
		Meta:    meta,
		HasMeta: ok,
	}
}

// Watch registers fn to run when the field's derived state changes. Changes
// elsewhere in the tree or to other fields' meta do not trigger fn.
func (b *Field) Watch(fn func(FieldState)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}

	var mu sync.Mutex
	last := b.State()
	check := func() {
		current := b.State()
		mu.Lock()
		if current.Equal(last) {
			mu.Unlock()
			return
		}
		last = current
		mu.Unlock()
		fn(current)
	}

	stopState := b.form.state.Subscribe(func(*tree.Node) { check() })
	stopMeta := b.form.meta.Subscribe(func(MetaMap) { check() })
	var once sync.Once
	return func() {
		once.Do(func() {
			stopState()
			stopMeta()
		})
	}
}
