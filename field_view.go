package formstate

import (
	"reflect"
	"sync"
)

// RenderFunc renders a field from its derived state.
type RenderFunc[R any] func(field *Field, state FieldState) R

// FieldView memoises a field render. Render skips calling the render func
// when the path, the render func and the field state all equal the previous
// call. Render funcs are compared by code pointer, so two closures built from
// the same function literal count as the same render func even when their
// captured variables differ; call Invalidate when captures change.
type FieldView[R any] struct {
	mu      sync.Mutex
	valid   bool
	key     string
	render  uintptr
	state   FieldState
	value   R
	renders int
}

// NewFieldView returns an empty view.
func NewFieldView[R any]() *FieldView[R] {
	return &FieldView[R]{}
}

// Render returns the cached output or calls render when any input changed.
func (v *FieldView[R]) Render(field *Field, render RenderFunc[R]) R {
	state := field.State()
	identity := reflect.ValueOf(render).Pointer()

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.valid && v.key == field.Key() && v.render == identity && v.state.Equal(state) {
		return v.value
	}
	v.value = render(field, state)
	v.key = field.Key()
	v.render = identity
	v.state = state
	v.valid = true
	v.renders++
	return v.value
}

// Invalidate drops the cached output so the next Render calls the render func.
func (v *FieldView[R]) Invalidate() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.valid = false
}

// Renders returns how many times the render func actually ran.
func (v *FieldView[R]) Renders() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.renders
}
