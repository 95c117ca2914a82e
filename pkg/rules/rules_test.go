package rules

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-formstate/pkg/observability"
	"github.com/goliatone/go-formstate/pkg/path"
	"github.com/goliatone/go-formstate/pkg/tree"
)

var evaluatorFactories = []struct {
	name string
	new  func(cache ProgramCache, registry *FunctionRegistry) Evaluator
}{
	{
		name: "expr",
		new: func(cache ProgramCache, registry *FunctionRegistry) Evaluator {
			opts := []ExprEvaluatorOption{}
			if cache != nil {
				opts = append(opts, ExprWithProgramCache(cache))
			}
			if registry != nil {
				opts = append(opts, ExprWithFunctionRegistry(registry))
			}
			return NewExprEvaluator(opts...)
		},
	},
	{
		name: "cel",
		new: func(cache ProgramCache, registry *FunctionRegistry) Evaluator {
			opts := []CELEvaluatorOption{}
			if cache != nil {
				opts = append(opts, CELWithProgramCache(cache))
			}
			if registry != nil {
				opts = append(opts, CELWithFunctionRegistry(registry))
			}
			return NewCELEvaluator(opts...)
		},
	},
	{
		name: "js",
		new: func(cache ProgramCache, registry *FunctionRegistry) Evaluator {
			opts := []JSEvaluatorOption{}
			if cache != nil {
				opts = append(opts, JSWithProgramCache(cache))
			}
			if registry != nil {
				opts = append(opts, JSWithFunctionRegistry(registry))
			}
			return NewJSEvaluator(opts...)
		},
	},
}

type violationExpect struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

type ruleCase struct {
	Name   string            `json:"name"`
	Rules  []Rule            `json:"rules"`
	Input  json.RawMessage   `json:"input"`
	Expect []violationExpect `json:"expect"`
}

type ruleFixture struct {
	Description string     `json:"description"`
	Cases       []ruleCase `json:"cases"`
}

func TestRuleCasesAcrossEvaluators(t *testing.T) {
	fx := loadFixture[ruleFixture](t, "rule_cases.json")

	for _, factory := range evaluatorFactories {
		factory := factory
		t.Run(factory.name, func(t *testing.T) {
			evaluator := factory.new(NewMapCache(), nil)
			if evaluator == nil {
				t.Skipf("%s evaluator not available in this build", factory.name)
			}
			for _, tc := range fx.Cases {
				tc := tc
				t.Run(tc.Name, func(t *testing.T) {
					root, err := tree.Decode(tc.Input)
					if err != nil {
						t.Fatalf("decode input: %v", err)
					}
					validator, err := NewValidator(tc.Rules, WithEvaluator(evaluator))
					if err != nil {
						t.Fatalf("new validator: %v", err)
					}
					result, err := validator.Validate(root)
					if err != nil {
						t.Fatalf("validate: %v", err)
					}
					if len(result) != len(tc.Expect) {
						t.Fatalf("expected %d violations, got %+v", len(tc.Expect), result)
					}
					for i, want := range tc.Expect {
						if got := result[i].Path.String(); got != want.Path {
							t.Fatalf("violation %d path: want %q got %q", i, want.Path, got)
						}
						if result[i].Message != want.Message {
							t.Fatalf("violation %d message: want %q got %q", i, want.Message, result[i].Message)
						}
					}
				})
			}
		})
	}
}

func TestEvaluationErrorUsesRuleMessage(t *testing.T) {
	var events []EvaluatorLogEvent
	validator, err := NewValidator(
		[]Rule{{Path: "age", Expr: `value > limit`, Message: "too young"}},
		WithEvaluatorLogger(EvaluatorLoggerFunc(func(event EvaluatorLogEvent) {
			events = append(events, event)
		})),
	)
	if err != nil {
		t.Fatalf("new validator: %v", err)
	}

	root := tree.MustFrom(map[string]any{"age": "ten"})
	result, err := validator.Validate(root)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if len(result) != 1 || result[0].Message != "too young" {
		t.Fatalf("expected rule message on evaluation failure, got %+v", result)
	}
	if len(events) != 1 || events[0].Err == nil {
		t.Fatalf("expected logged evaluation error, got %+v", events)
	}
	var evalErr *EvaluationError
	if !errors.As(events[0].Err, &evalErr) {
		t.Fatalf("expected EvaluationError, got %T", events[0].Err)
	}
	if evalErr.Engine != "expr" || evalErr.Path != "age" {
		t.Fatalf("unexpected metadata %+v", evalErr)
	}
}

func TestNonBooleanResultIsFailure(t *testing.T) {
	validator, err := NewValidator([]Rule{{Path: "count", Expr: "value + 1"}})
	if err != nil {
		t.Fatalf("new validator: %v", err)
	}
	result, err := validator.Validate(tree.MustFrom(map[string]any{"count": 1}))
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if len(result) != 1 || result[0].Message != DefaultMessage {
		t.Fatalf("expected default message, got %+v", result)
	}
}

func TestNewValidatorRejectsBadRules(t *testing.T) {
	if _, err := NewValidator([]Rule{{Path: "a"}}); !errors.Is(err, ErrEmptyExpression) {
		t.Fatalf("expected ErrEmptyExpression, got %v", err)
	}
	if _, err := NewValidator([]Rule{{Path: "a..b", Expr: "true"}}); !errors.Is(err, path.ErrEmptySegment) {
		t.Fatalf("expected ErrEmptySegment, got %v", err)
	}
	_, err := NewValidator([]Rule{{Path: "a", Expr: "value >"}}, WithEvaluator(NewCELEvaluator()))
	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) {
		t.Fatalf("expected EvaluationError for syntax error, got %v", err)
	}
	if evalErr.Engine != "cel" {
		t.Fatalf("expected cel engine, got %q", evalErr.Engine)
	}
}

func TestProgramCacheIsShared(t *testing.T) {
	cache := NewMapCache()
	rules := []Rule{
		{Path: "a", Expr: `value != ""`},
		{Path: "b", Expr: `value != ""`},
		{Path: "c", Expr: `value > 0`},
	}
	if _, err := NewValidator(rules, WithProgramCache(cache)); err != nil {
		t.Fatalf("new validator: %v", err)
	}
	if _, err := NewValidator(rules, WithProgramCache(cache)); err != nil {
		t.Fatalf("new validator: %v", err)
	}
	if cache.Len() != 2 {
		t.Fatalf("expected two distinct programs cached, got %d", cache.Len())
	}
}

func TestCustomFunctions(t *testing.T) {
	isEmail := func(args ...any) (any, error) {
		if len(args) != 1 {
			return nil, errors.New("isEmail expects 1 arg")
		}
		s, _ := args[0].(string)
		return strings.Contains(s, "@"), nil
	}
	root := tree.MustFrom(map[string]any{"email": "nope"})

	t.Run("expr direct call", func(t *testing.T) {
		validator, err := NewValidator(
			[]Rule{{Path: "email", Expr: "isEmail(value)", Message: "invalid email"}},
			WithCustomFunction("isEmail", isEmail),
		)
		if err != nil {
			t.Fatalf("new validator: %v", err)
		}
		result, _ := validator.Validate(root)
		if len(result) != 1 || result[0].Message != "invalid email" {
			t.Fatalf("unexpected result %+v", result)
		}
	})

	for _, factory := range evaluatorFactories {
		factory := factory
		t.Run(factory.name+" call helper", func(t *testing.T) {
			registry := NewFunctionRegistry()
			if err := registry.Register("isEmail", isEmail); err != nil {
				t.Fatalf("register: %v", err)
			}
			evaluator := factory.new(nil, registry)
			if evaluator == nil {
				t.Skipf("%s evaluator not available in this build", factory.name)
			}
			validator, err := NewValidator(
				[]Rule{{Path: "email", Expr: `call("isEmail", value)`, Message: "invalid email"}},
				WithEvaluator(evaluator),
			)
			if err != nil {
				t.Fatalf("new validator: %v", err)
			}
			result, _ := validator.Validate(root)
			if len(result) != 1 || result[0].Message != "invalid email" {
				t.Fatalf("unexpected result %+v", result)
			}
		})
	}
}

func TestFunctionRegistry(t *testing.T) {
	registry := NewFunctionRegistry()
	fn := func(...any) (any, error) { return true, nil }
	if err := registry.Register("Trim", fn); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := registry.Register("trim", fn); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}
	if err := registry.Register("", fn); err == nil {
		t.Fatalf("expected empty name to fail")
	}
	if names := registry.Names(); len(names) != 1 || names[0] != "Trim" {
		t.Fatalf("expected registered spelling, got %v", names)
	}
	if _, err := registry.Call("TRIM"); err != nil {
		t.Fatalf("expected case-insensitive lookup, got %v", err)
	}
	if _, err := registry.Call("missing"); err == nil {
		t.Fatalf("expected missing function error")
	}
}

func TestCustomFunctionRegistrationErrors(t *testing.T) {
	fn := func(...any) (any, error) { return true, nil }
	rules := []Rule{{Path: "email", Expr: "true"}}

	_, err := NewValidator(rules,
		WithCustomFunction("isEmail", fn),
		WithCustomFunction("ISEMAIL", fn),
	)
	if err == nil || !strings.Contains(err.Error(), "already registered") {
		t.Fatalf("expected duplicate function error, got %v", err)
	}

	_, err = NewValidator(rules,
		WithCustomFunction("broken", nil),
		WithCustomFunction("", fn),
	)
	if err == nil || !strings.Contains(err.Error(), `function "broken" is nil`) {
		t.Fatalf("expected first registration error to win, got %v", err)
	}
}

func TestObserverLoggerForwardsEvents(t *testing.T) {
	var events []observability.Event
	logger := ObserverLogger(observability.ObserverFunc(func(_ context.Context, event observability.Event) {
		events = append(events, event)
	}))

	validator, err := NewValidator(
		[]Rule{{Path: "name", Expr: `value != ""`}},
		WithEvaluatorLogger(logger),
	)
	if err != nil {
		t.Fatalf("new validator: %v", err)
	}
	if _, err := validator.Validate(tree.MustFrom(map[string]any{"name": "ok"})); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected one event, got %d", len(events))
	}
	if events[0].Type != observability.EventRuleEvaluated || events[0].Data["path"] != "name" {
		t.Fatalf("unexpected event %+v", events[0])
	}
	if events[0].Level != observability.LevelVerbose {
		t.Fatalf("expected verbose level for success, got %v", events[0].Level)
	}
}

func TestLoadRules(t *testing.T) {
	doc := `
rules:
  - path: a.b.c
    expr: value != ""
    message: required
  - path: numbers.*
    expr: value >= 0
`
	rules, err := LoadRules(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(rules) != 2 || rules[0].Message != "required" || rules[1].Path != "numbers.*" {
		t.Fatalf("unexpected rules %+v", rules)
	}

	list, err := LoadRules(strings.NewReader(`[{"path": "a", "expr": "true"}]`))
	if err != nil {
		t.Fatalf("load list: %v", err)
	}
	if len(list) != 1 || list[0].Expr != "true" {
		t.Fatalf("unexpected list %+v", list)
	}
}

func TestExpand(t *testing.T) {
	root := tree.MustFrom(map[string]any{
		"rows": []any{
			map[string]any{"cells": []any{1, 2}},
			map[string]any{"cells": []any{3}},
		},
	})

	got := Expand(root, path.MustParse("rows.*.cells.*"))
	want := []string{"rows.0.cells.0", "rows.0.cells.1", "rows.1.cells.0"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i].String() != want[i] {
			t.Fatalf("path %d: want %s got %s", i, want[i], got[i])
		}
	}

	if paths := Expand(root, path.MustParse("missing.*")); len(paths) != 0 {
		t.Fatalf("expected no expansion over absent node, got %v", paths)
	}
	if paths := Expand(root, path.MustParse("missing.leaf")); len(paths) != 1 {
		t.Fatalf("expected concrete path to be kept, got %v", paths)
	}
}

func TestWrapEvaluationErrorAugmentsExisting(t *testing.T) {
	base := errors.New("compile failure")
	existing := &EvaluationError{
		Engine: "expr",
		Err:    base,
	}

	err := wrapEvaluationError("cel", "rule", "a.b", existing)
	if !errors.Is(err, base) {
		t.Fatalf("expected base error to unwrap")
	}
	if existing.Engine != "expr" {
		t.Fatalf("existing engine should not be overwritten, got %q", existing.Engine)
	}
	if existing.Expr != "rule" || existing.Path != "a.b" {
		t.Fatalf("expression and path should be filled, got %+v", existing)
	}
	if !strings.HasPrefix(err.Error(), "rules: expr evaluator") {
		t.Fatalf("unexpected error text %q", err.Error())
	}
}

func loadFixture[T any](t *testing.T, name string) T {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("failed to read fixture %q: %v", name, err)
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("failed to unmarshal fixture %q: %v", name, err)
	}
	return out
}
