package validation

import (
	"sync"

	"github.com/goliatone/go-formstate/pkg/path"
	"github.com/goliatone/go-formstate/pkg/tree"
)

// ErrorHandler is called when a validator returns an error.
type ErrorHandler func(err error)

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithErrorHandler registers a callback for validator failures.
func WithErrorHandler(fn ErrorHandler) EngineOption {
	return func(e *Engine) {
		e.onError = fn
	}
}

// Engine runs a Validator on demand and keeps the latest result.
type Engine struct {
	mu        sync.RWMutex
	validator Validator
	onError   ErrorHandler
	result    Result
}

// NewEngine builds an engine around v. A nil validator accepts everything.
func NewEngine(v Validator, opts ...EngineOption) *Engine {
	if v == nil {
		v = Nop
	}
	e := &Engine{validator: v}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Run validates root, replaces the stored result and returns a copy of it.
// A validator error is recorded as a single root-level violation.
func (e *Engine) Run(root *tree.Node) Result {
	result, err := e.validator.Validate(root)
	if err != nil {
		result = Result{{Path: path.Path{}, Message: err.Error()}}
		if e.onError != nil {
			e.onError(err)
		}
	}
	stored := result.Clone()

	e.mu.Lock()
	e.result = stored
	e.mu.Unlock()
	return stored.Clone()
}

// Result returns a copy of the latest result.
func (e *Engine) Result() Result {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.result.Clone()
}

// ErrorsForPath returns the messages at or below p from the latest result.
func (e *Engine) ErrorsForPath(p path.Path) []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.result.ForPath(p)
}
