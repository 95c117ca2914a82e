package validation

import (
	"errors"
	"reflect"
	"testing"

	"github.com/goliatone/go-formstate/pkg/path"
	"github.com/goliatone/go-formstate/pkg/tree"
)

func requireNonEmpty(p path.Path, message string) Validator {
	return Func(func(root *tree.Node) (Result, error) {
		value, _ := tree.Get(root, p).StringValue()
		if value == "" {
			return Result{{Path: p, Message: message}}, nil
		}
		return nil, nil
	})
}

func TestEngineRecomputesWithoutStaleErrors(t *testing.T) {
	target := path.MustParse("a.b.c")
	engine := NewEngine(requireNonEmpty(target, "required"))

	empty := tree.MustFrom(map[string]any{"a": map[string]any{"b": map[string]any{"c": ""}}})
	result := engine.Run(empty)
	if result.Valid() {
		t.Fatalf("expected violation for empty value")
	}
	if got := engine.ErrorsForPath(target); !reflect.DeepEqual(got, []string{"required"}) {
		t.Fatalf("expected [required], got %v", got)
	}

	filled, err := tree.Set(empty, target, tree.String("x"))
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	engine.Run(filled)
	if got := engine.ErrorsForPath(target); len(got) != 0 {
		t.Fatalf("expected errors to clear, got %v", got)
	}
	if !engine.Result().Valid() {
		t.Fatalf("expected valid result after fix")
	}
}

func TestErrorsForPathPrefixMatching(t *testing.T) {
	engine := NewEngine(Func(func(*tree.Node) (Result, error) {
		return Result{
			{Path: path.MustParse("user.name"), Message: "name"},
			{Path: path.MustParse("user.address.city"), Message: "city"},
			{Path: path.MustParse("users"), Message: "users"},
			{Path: path.MustParse("user.address.city"), Message: "city"},
		}, nil
	}))
	engine.Run(nil)

	cases := []struct {
		name  string
		query string
		want  []string
	}{
		{name: "ancestor collects descendants in order", query: "user", want: []string{"name", "city", "city"}},
		{name: "exact path", query: "user.name", want: []string{"name"}},
		{name: "descendant query does not match ancestor", query: "user.name.first", want: []string{}},
		{name: "segment prefix is not string prefix", query: "use", want: []string{}},
		{name: "root returns everything", query: "", want: []string{"name", "city", "users", "city"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := engine.ErrorsForPath(path.MustParse(tc.query))
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("query %q: want %v got %v", tc.query, tc.want, got)
			}
		})
	}
}

func TestValidatorErrorBecomesRootViolation(t *testing.T) {
	boom := errors.New("schema unavailable")
	var handled error
	engine := NewEngine(Func(func(*tree.Node) (Result, error) { return nil, boom }), WithErrorHandler(func(err error) {
		handled = err
	}))

	result := engine.Run(tree.Null())
	if len(result) != 1 || !result[0].Path.IsRoot() || result[0].Message != boom.Error() {
		t.Fatalf("expected single root violation, got %+v", result)
	}
	if !errors.Is(handled, boom) {
		t.Fatalf("expected error handler to receive validator error, got %v", handled)
	}
}

func TestAllConcatenatesInOrder(t *testing.T) {
	root := tree.MustFrom(map[string]any{"a": "", "b": ""})
	v := All(
		requireNonEmpty(path.MustParse("a"), "a required"),
		nil,
		requireNonEmpty(path.MustParse("b"), "b required"),
	)
	result, err := v.Validate(root)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if got := result.Messages(); !reflect.DeepEqual(got, []string{"a required", "b required"}) {
		t.Fatalf("unexpected messages %v", got)
	}
}

func TestResultCopiesAreIndependent(t *testing.T) {
	engine := NewEngine(requireNonEmpty(path.MustParse("a"), "required"))
	engine.Run(tree.MustFrom(map[string]any{"a": ""}))

	first := engine.Result()
	first[0].Message = "mutated"
	if engine.Result()[0].Message != "required" {
		t.Fatalf("expected engine result to be isolated from caller mutation")
	}
}

func TestNilValidatorAcceptsEverything(t *testing.T) {
	engine := NewEngine(nil)
	if !engine.Run(tree.String("anything")).Valid() {
		t.Fatalf("expected nil validator to accept")
	}
}
