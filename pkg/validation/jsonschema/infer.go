package jsonschema

import (
	"fmt"

	formschema "github.com/goliatone/go-formstate/schema"
)

// Infer compiles a Validator from the schema inferred for value. Struct
// fields tagged `form:"required"` must be present, and required strings must
// be non-empty.
func Infer(value any, opts ...Option) (*Validator, error) {
	document, err := formschema.Document(value)
	if err != nil {
		return nil, fmt.Errorf("validation: infer schema: %w", err)
	}
	return Compile(document, opts...)
}
