package formstate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-formstate/layering"
	"github.com/goliatone/go-formstate/pkg/activity"
	"github.com/goliatone/go-formstate/pkg/observability"
	"github.com/goliatone/go-formstate/pkg/path"
	"github.com/goliatone/go-formstate/pkg/store"
	"github.com/goliatone/go-formstate/pkg/tree"
	"github.com/goliatone/go-formstate/pkg/validation"
)

// Status is the lifecycle state of a form.
type Status int

const (
	// StatusReady means the form is seeded and validated.
	StatusReady Status = iota
	// StatusSubmitting means a submit handler is running.
	StatusSubmitting
)

func (s Status) String() string {
	switch s {
	case StatusReady:
		return "ready"
	case StatusSubmitting:
		return "submitting"
	default:
		return "unknown"
	}
}

// Form is a reactive state container for one nested form value.
type Form struct {
	id       string
	cfg      formConfig
	observer observability.Observer
	activity *activity.Emitter
	engine   *validation.Engine

	state      *store.Store[*tree.Node]
	meta       *store.Store[MetaMap]
	submitting *store.Store[bool]
	focus      focusRegistry

	mu         sync.RWMutex
	initial    *tree.Node
	storageKey string
}

// New builds a form seeded with initial, which may be a *tree.Node or any
// value tree.From accepts. When storage is configured and holds a snapshot,
// the snapshot seeds the state instead; initial is still retained for Reset
// and WasModified. The seeded state is validated before New returns.
func New(initial any, opts ...Option) (*Form, error) {
	cfg := applyOptions(opts)

	root, err := tree.From(initial)
	if err != nil {
		return nil, fmt.Errorf("formstate: initial value: %w", err)
	}

	storageKey := cfg.storageKey
	if len(cfg.layers) > 0 {
		seed, strongest := layering.Compose(cfg.layers...)
		if seed != nil {
			root = tree.Merge(seed, root)
		}
		if storageKey == "" && strongest.Level != layering.ScopeLevelUnknown {
			storageKey = strongest.Identifier()
		}
	}

	id := cfg.id
	if id == "" {
		id = uuid.NewString()
	}

	f := &Form{
		id:         id,
		cfg:        cfg,
		observer:   cfg.observerOrDefault(),
		activity:   cfg.activityEmitter(),
		initial:    root,
		storageKey: storageKey,
	}
	f.engine = validation.NewEngine(cfg.validator(), validation.WithErrorHandler(f.onValidatorError))

	current := root
	if restored, ok := f.restore(context.Background()); ok {
		current = restored
	}

	f.state = store.New(current)
	f.meta = store.New(MetaMap{})
	f.submitting = store.New(false)
	f.validate(current)
	return f, nil
}

// MustNew is like New but panics on error.
func MustNew(initial any, opts ...Option) *Form {
	f, err := New(initial, opts...)
	if err != nil {
		panic(err)
	}
	return f
}

// ID returns the form identifier.
func (f *Form) ID() string {
	return f.id
}

// StorageKey returns the key snapshots are persisted under, or "" when
// persistence is disabled.
func (f *Form) StorageKey() string {
	if !f.persistenceEnabled() {
		return ""
	}
	return f.storageKey
}

// Status reports whether the form is idle or submitting.
func (f *Form) Status() Status {
	if f.submitting.State() {
		return StatusSubmitting
	}
	return StatusReady
}

// State returns the current root.
func (f *Form) State() *tree.Node {
	return f.state.State()
}

// SetState replaces the whole tree.
func (f *Form) SetState(value any) error {
	next, err := tree.From(value)
	if err != nil {
		return fmt.Errorf("formstate: set state: %w", err)
	}
	f.apply(next)
	f.emitActivity(activity.BuildStateReplacedEvent(f.eventInput()))
	return nil
}

// UpdateState computes the next tree from the current one.
func (f *Form) UpdateState(fn func(prev *tree.Node) (*tree.Node, error)) error {
	if fn == nil {
		return ErrNilUpdater
	}
	next, err := fn(f.state.State())
	if err != nil {
		return fmt.Errorf("formstate: update state: %w", err)
	}
	f.apply(next)
	f.emitActivity(activity.BuildStateReplacedEvent(f.eventInput()))
	return nil
}

// Subscribe registers fn to receive a snapshot after every state change.
func (f *Form) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	return f.state.Subscribe(func(root *tree.Node) {
		fn(f.snapshotOf(root))
	})
}

// Snapshot returns the current state, errors and touched fields.
func (f *Form) Snapshot() Snapshot {
	return f.snapshotOf(f.state.State())
}

func (f *Form) snapshotOf(root *tree.Node) Snapshot {
	return Snapshot{
		State:         root,
		Errors:        f.engine.Result(),
		TouchedFields: f.TouchedFields(),
	}
}

// Errors returns a copy of the latest validation result.
func (f *Form) Errors() validation.Result {
	return f.engine.Result()
}

// ErrorsFor returns the messages at or below p.
func (f *Form) ErrorsFor(p path.Path) []string {
	return f.engine.ErrorsForPath(p)
}

// SetFieldValue writes value at p.
func (f *Form) SetFieldValue(p path.Path, value any) error {
	node, err := tree.From(value)
	if err != nil {
		return fmt.Errorf("formstate: set %q: %w", p.String(), err)
	}
	return f.UpdateFieldValue(p, tree.Replace(node))
}

// UpdateFieldValue applies fn to the value at p. Conflicting paths leave the
// state untouched and return an error wrapping tree.ErrPathConflict. An update
// that returns the current value unchanged does not notify subscribers.
func (f *Form) UpdateFieldValue(p path.Path, fn tree.Updater) error {
	if fn == nil {
		return ErrNilUpdater
	}
	prev := f.state.State()
	next, err := tree.Update(prev, p, fn)
	if err != nil {
		return fmt.Errorf("formstate: update %q: %w", p.String(), err)
	}
	if next == prev {
		return nil
	}
	result := f.apply(next)

	input := f.eventInput()
	input.Path = p.String()
	input.OldValue = tree.Get(prev, p).Interface()
	input.NewValue = tree.Get(next, p).Interface()
	input.Violations = len(result)
	f.emitActivity(activity.BuildFieldUpdatedEvent(input))
	return nil
}

// Reset restores the retained initial value and clears all field meta.
func (f *Form) Reset() {
	f.mu.RLock()
	initial := f.initial
	f.mu.RUnlock()

	f.meta.SetState(MetaMap{})
	f.apply(initial)
	f.emit(context.Background(), observability.EventReset, observability.LevelInfo, nil)
	f.emitActivity(activity.BuildResetEvent(f.eventInput()))
}

// Reinitialize replaces both the retained initial value and the current state
// with value, and clears all field meta. Afterwards WasModified reports false.
func (f *Form) Reinitialize(value any) error {
	next, err := tree.From(value)
	if err != nil {
		return fmt.Errorf("formstate: reinitialize: %w", err)
	}
	f.mu.Lock()
	f.initial = next
	f.mu.Unlock()

	f.meta.SetState(MetaMap{})
	f.apply(next)
	f.emitActivity(activity.BuildReinitializedEvent(f.eventInput()))
	return nil
}

// WasModified reports whether the state differs from the retained initial
// value.
func (f *Form) WasModified() bool {
	f.mu.RLock()
	initial := f.initial
	f.mu.RUnlock()
	return !tree.Equal(f.state.State(), initial)
}

// Initial returns the retained initial value.
func (f *Form) Initial() *tree.Node {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.initial
}

// Fields returns a binding for every leaf in the current state, in key order.
func (f *Form) Fields() []*Field {
	leaves := tree.Leaves(f.state.State())
	out := make([]*Field, 0, len(leaves))
	for _, leaf := range leaves {
		out = append(out, f.Field(leaf.Path))
	}
	return out
}

// apply validates next, writes it to storage and then publishes it.
func (f *Form) apply(next *tree.Node) validation.Result {
	result := f.validate(next)
	f.save(context.Background(), next)
	f.state.SetState(next)
	f.emit(context.Background(), observability.EventStateChanged, observability.LevelVerbose, map[string]any{
		observability.KeyViolations: len(result),
	})
	return result
}

func (f *Form) validate(root *tree.Node) validation.Result {
	start := time.Now()
	result := f.engine.Run(root)
	f.emit(context.Background(), observability.EventValidated, observability.LevelVerbose, map[string]any{
		observability.KeyViolations: len(result),
		observability.KeyDuration:   time.Since(start),
	})
	return result
}

func (f *Form) onValidatorError(err error) {
	f.emit(context.Background(), observability.EventValidatorFailed, observability.LevelError, map[string]any{
		observability.KeyError: err,
	})
}
