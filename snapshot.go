package formstate

import (
	"github.com/goliatone/go-formstate/internal/hydrate"
	"github.com/goliatone/go-formstate/pkg/tree"
	"github.com/goliatone/go-formstate/pkg/validation"
)

// Snapshot is a read-only view of a form at one point in time.
type Snapshot struct {
	State         *tree.Node
	Errors        validation.Result
	TouchedFields []string
}

// Valid reports whether the snapshot carries no violations.
func (s Snapshot) Valid() bool {
	return s.Errors.Valid()
}

// DecodeContext identifies the form and path being decoded. Hooks receive it
// and decode errors are labelled with it.
type DecodeContext = hydrate.Context

// DecodeOption configures Decode, DecodeStrict and DecodeField.
type DecodeOption[T any] struct {
	apply hydrate.DecoderOption[T]
}

// WithPreDecode rewrites the tree before decoding. Returning nil keeps the
// current tree; the form's own state is never affected.
func WithPreDecode[T any](hook func(DecodeContext, *tree.Node) (*tree.Node, error)) DecodeOption[T] {
	return DecodeOption[T]{apply: hydrate.WithPreHook[T](hydrate.PreHook(hook))}
}

// WithPostDecode adjusts or checks the decoded value.
func WithPostDecode[T any](hook func(DecodeContext, *T) error) DecodeOption[T] {
	return DecodeOption[T]{apply: hydrate.WithPostHook[T](hydrate.PostHook[T](hook))}
}

// WithDecodeNumbers keeps numbers as json.Number when T holds them in
// interface values.
func WithDecodeNumbers[T any]() DecodeOption[T] {
	return DecodeOption[T]{apply: hydrate.WithUseNumber[T]()}
}

// WithDecoder replaces the JSON round trip with fn. Hooks still run.
func WithDecoder[T any](fn func(DecodeContext, *tree.Node) (T, error)) DecodeOption[T] {
	return DecodeOption[T]{apply: hydrate.WithCustomDecoder[T](hydrate.CustomDecoder[T](fn))}
}

// Decode converts a state tree into T through its JSON encoding.
func Decode[T any](root *tree.Node, opts ...DecodeOption[T]) (T, error) {
	return decode(hydrate.Context{}, root, opts)
}

// DecodeStrict is like Decode but fails on fields T does not declare.
func DecodeStrict[T any](root *tree.Node, opts ...DecodeOption[T]) (T, error) {
	strict := append([]DecodeOption[T]{{apply: hydrate.WithDisallowUnknownFields[T]()}}, opts...)
	return decode(hydrate.Context{}, root, strict)
}

// DecodeField decodes the value at f's path, labelling errors with the form
// id and path.
func DecodeField[T any](f *Field, opts ...DecodeOption[T]) (T, error) {
	return decode(hydrate.Context{FormID: f.form.id, Path: f.key}, f.Value(), opts)
}

func decode[T any](ctx hydrate.Context, root *tree.Node, opts []DecodeOption[T]) (T, error) {
	decoderOpts := make([]hydrate.DecoderOption[T], 0, len(opts))
	for _, opt := range opts {
		decoderOpts = append(decoderOpts, opt.apply)
	}
	return hydrate.Decode[T](ctx, root, decoderOpts...)
}
