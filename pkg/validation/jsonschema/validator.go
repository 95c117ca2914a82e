// Package jsonschema validates state trees against a JSON Schema document and
// reports every failing leaf as a path-scoped violation.
package jsonschema

import (
	"errors"
	"fmt"
	"strings"

	schema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/goliatone/go-formstate/pkg/path"
	"github.com/goliatone/go-formstate/pkg/tree"
	"github.com/goliatone/go-formstate/pkg/validation"
)

const defaultResource = "formstate://schema.json"

// Validator adapts a compiled schema to validation.Validator.
type Validator struct {
	schema   *schema.Schema
	messages map[string]string
}

// Option configures a Validator.
type Option func(*Validator)

// WithMessage overrides the message reported for violations at the dotted
// path, so forms can show friendly text instead of the schema keyword output.
func WithMessage(dotted, message string) Option {
	return func(v *Validator) {
		if v.messages == nil {
			v.messages = map[string]string{}
		}
		v.messages[dotted] = message
	}
}

// Compile builds a Validator from a JSON Schema document.
func Compile(document string, opts ...Option) (*Validator, error) {
	compiler := schema.NewCompiler()
	compiler.Draft = schema.Draft2020
	if err := compiler.AddResource(defaultResource, strings.NewReader(document)); err != nil {
		return nil, fmt.Errorf("validation: add schema resource: %w", err)
	}
	compiled, err := compiler.Compile(defaultResource)
	if err != nil {
		return nil, fmt.Errorf("validation: compile schema: %w", err)
	}
	v := &Validator{schema: compiled}
	for _, opt := range opts {
		if opt != nil {
			opt(v)
		}
	}
	return v, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(document string, opts ...Option) *Validator {
	v, err := Compile(document, opts...)
	if err != nil {
		panic(err)
	}
	return v
}

// Validate implements validation.Validator.
func (v *Validator) Validate(root *tree.Node) (validation.Result, error) {
	err := v.schema.Validate(root.Interface())
	if err == nil {
		return nil, nil
	}
	var verr *schema.ValidationError
	if !errors.As(err, &verr) {
		return nil, fmt.Errorf("validation: schema: %w", err)
	}

	var result validation.Result
	for _, leaf := range leafCauses(verr) {
		p, perr := path.FromPointer(leaf.InstanceLocation)
		if perr != nil {
			return nil, fmt.Errorf("validation: instance location %q: %w", leaf.InstanceLocation, perr)
		}
		message := leaf.Message
		if custom, ok := v.messages[p.String()]; ok {
			message = custom
		}
		result = append(result, validation.Violation{Path: p, Message: message})
	}
	return result, nil
}

func leafCauses(err *schema.ValidationError) []*schema.ValidationError {
	if len(err.Causes) == 0 {
		return []*schema.ValidationError{err}
	}
	var out []*schema.ValidationError
	for _, cause := range err.Causes {
		out = append(out, leafCauses(cause)...)
	}
	return out
}

var _ validation.Validator = (*Validator)(nil)
