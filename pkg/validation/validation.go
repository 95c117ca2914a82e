// Package validation recomputes structured errors for a state tree. A Validator
// maps a whole tree to an ordered list of violations; the Engine keeps only the
// latest result and answers path-scoped queries against it.
package validation

import (
	"github.com/goliatone/go-formstate/pkg/path"
	"github.com/goliatone/go-formstate/pkg/tree"
)

// Violation is one validation failure at a path.
type Violation struct {
	Path    path.Path `json:"path"`
	Message string    `json:"message"`
}

// Result is an ordered list of violations. An empty result is valid.
type Result []Violation

// Valid reports whether the result holds no violations.
func (r Result) Valid() bool {
	return len(r) == 0
}

// Messages returns every message in order.
func (r Result) Messages() []string {
	out := make([]string, 0, len(r))
	for _, v := range r {
		out = append(out, v.Message)
	}
	return out
}

// ForPath returns the messages whose path starts with p, in result order.
// The root path matches every violation.
func (r Result) ForPath(p path.Path) []string {
	out := []string{}
	for _, v := range r {
		if v.Path.HasPrefix(p) {
			out = append(out, v.Message)
		}
	}
	return out
}

// Clone returns a copy that shares no backing array with r.
func (r Result) Clone() Result {
	if r == nil {
		return nil
	}
	return append(Result(nil), r...)
}

// Validator computes violations for a whole tree. A non-nil error means the
// validator itself failed, not that the tree is invalid.
type Validator interface {
	Validate(root *tree.Node) (Result, error)
}

// Func adapts a plain function into a Validator.
type Func func(root *tree.Node) (Result, error)

// Validate implements Validator.
func (f Func) Validate(root *tree.Node) (Result, error) {
	if f == nil {
		return nil, nil
	}
	return f(root)
}

// Nop accepts every tree.
var Nop Validator = Func(func(*tree.Node) (Result, error) { return nil, nil })

// All runs validators in order and concatenates their results. The first
// validator error aborts the run.
func All(validators ...Validator) Validator {
	list := make([]Validator, 0, len(validators))
	for _, v := range validators {
		if v != nil {
			list = append(list, v)
		}
	}
	return Func(func(root *tree.Node) (Result, error) {
		var out Result
		for _, v := range list {
			result, err := v.Validate(root)
			if err != nil {
				return nil, err
			}
			out = append(out, result...)
		}
		return out, nil
	})
}
