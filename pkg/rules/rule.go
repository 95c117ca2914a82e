package rules

import (
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formstate/pkg/path"
	"github.com/goliatone/go-formstate/pkg/tree"
	"github.com/goliatone/go-formstate/pkg/validation"
)

// Wildcard matches every child of a map or sequence in a rule path.
const Wildcard = "*"

// DefaultMessage is reported when a rule without a message fails.
const DefaultMessage = "invalid value"

// Rule binds an expression to a path. The expression must yield true (valid),
// false (violation carrying Message), or a string (empty means valid,
// anything else is the violation message).
type Rule struct {
	Path    string `json:"path" yaml:"path"`
	Expr    string `json:"expr" yaml:"expr"`
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
}

// LoadRules decodes a YAML (or JSON) list of rules.
func LoadRules(r io.Reader) ([]Rule, error) {
	var doc struct {
		Rules []Rule `yaml:"rules"`
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("rules: read: %w", err)
	}
	if err := yaml.Unmarshal(raw, &doc); err == nil && doc.Rules != nil {
		return doc.Rules, nil
	}
	var list []Rule
	if err := yaml.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("rules: decode: %w", err)
	}
	return list, nil
}

// Option configures a Validator.
type Option func(*validatorConfig)

type validatorConfig struct {
	evaluator Evaluator
	cache     ProgramCache
	functions *FunctionRegistry
	logger    EvaluatorLogger
	now       func() time.Time
	args      map[string]any
	metadata  map[string]any
	err       error
}

// WithEvaluator selects the expression engine. Defaults to expr.
func WithEvaluator(evaluator Evaluator) Option {
	return func(cfg *validatorConfig) {
		cfg.evaluator = evaluator
	}
}

// WithProgramCache shares a program cache with the default expr evaluator.
func WithProgramCache(cache ProgramCache) Option {
	return func(cfg *validatorConfig) {
		cfg.cache = cache
	}
}

// WithFunctionRegistry exposes registry functions to the default evaluator.
func WithFunctionRegistry(registry *FunctionRegistry) Option {
	return func(cfg *validatorConfig) {
		if registry == nil {
			return
		}
		cfg.functions = registry.Clone()
	}
}

// WithCustomFunction registers fn under name for the default evaluator. A nil
// function or a duplicate name makes NewValidator fail.
func WithCustomFunction(name string, fn Function) Option {
	return func(cfg *validatorConfig) {
		if cfg.functions == nil {
			cfg.functions = NewFunctionRegistry()
		}
		if err := cfg.functions.Register(name, fn); err != nil && cfg.err == nil {
			cfg.err = err
		}
	}
}

// WithEvaluatorLogger records every evaluation.
func WithEvaluatorLogger(logger EvaluatorLogger) Option {
	return func(cfg *validatorConfig) {
		if logger == nil {
			cfg.logger = noopEvaluatorLogger{}
			return
		}
		cfg.logger = logger
	}
}

// WithClock overrides the time bound to "now".
func WithClock(now func() time.Time) Option {
	return func(cfg *validatorConfig) {
		cfg.now = now
	}
}

// WithArgs binds static values to "args".
func WithArgs(args map[string]any) Option {
	return func(cfg *validatorConfig) {
		cfg.args = args
	}
}

// WithMetadata binds static values to "metadata".
func WithMetadata(metadata map[string]any) Option {
	return func(cfg *validatorConfig) {
		cfg.metadata = metadata
	}
}

func applyOptions(opts []Option) validatorConfig {
	cfg := validatorConfig{logger: noopEvaluatorLogger{}, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.evaluator == nil {
		var exprOpts []ExprEvaluatorOption
		if cfg.cache != nil {
			exprOpts = append(exprOpts, ExprWithProgramCache(cfg.cache))
		}
		if cfg.functions != nil {
			exprOpts = append(exprOpts, ExprWithFunctionRegistry(cfg.functions))
		}
		cfg.evaluator = NewExprEvaluator(exprOpts...)
	}
	if cfg.now == nil {
		cfg.now = time.Now
	}
	return cfg
}

type compiledRule struct {
	rule    Rule
	path    path.Path
	program CompiledRule
}

// Validator evaluates rules against a tree and implements
// validation.Validator.
type Validator struct {
	cfg    validatorConfig
	engine string
	rules  []compiledRule
}

// NewValidator compiles every rule up front so syntax errors surface early.
func NewValidator(rules []Rule, opts ...Option) (*Validator, error) {
	cfg := applyOptions(opts)
	if cfg.err != nil {
		return nil, cfg.err
	}
	v := &Validator{cfg: cfg, engine: evaluatorEngineName(cfg.evaluator)}
	for i, rule := range rules {
		if rule.Expr == "" {
			return nil, fmt.Errorf("rules: rule %d (%q): %w", i, rule.Path, ErrEmptyExpression)
		}
		p, err := path.Parse(rule.Path)
		if err != nil {
			return nil, fmt.Errorf("rules: rule %d: %w", i, err)
		}
		program, err := cfg.evaluator.Compile(rule.Expr)
		if err != nil {
			return nil, wrapEvaluationError(v.engine, rule.Expr, rule.Path, err)
		}
		v.rules = append(v.rules, compiledRule{rule: rule, path: p, program: program})
	}
	return v, nil
}

// Validate implements validation.Validator. Evaluation failures become
// violations carrying the rule message; they never abort the run.
func (v *Validator) Validate(root *tree.Node) (validation.Result, error) {
	plain := root.Interface()
	var result validation.Result
	for _, compiled := range v.rules {
		for _, concrete := range Expand(root, compiled.path) {
			if message, failed := v.evaluate(compiled, root, plain, concrete); failed {
				result = append(result, validation.Violation{Path: concrete, Message: message})
			}
		}
	}
	return result, nil
}

func (v *Validator) evaluate(compiled compiledRule, root *tree.Node, plain any, concrete path.Path) (string, bool) {
	now := v.cfg.now()
	ctx := Context{
		Value:    tree.Get(root, concrete).Interface(),
		Root:     plain,
		Path:     concrete.String(),
		Now:      &now,
		Args:     v.cfg.args,
		Metadata: v.cfg.metadata,
	}
	start := time.Now()
	out, err := compiled.program.Evaluate(ctx)
	if err == nil {
		out, err = normalizeOutcome(out)
	}
	err = wrapEvaluationError(v.engine, compiled.rule.Expr, ctx.Path, err)
	v.cfg.logger.LogEvaluation(EvaluatorLogEvent{
		Engine:   v.engine,
		Expr:     compiled.rule.Expr,
		Path:     ctx.Path,
		Duration: time.Since(start),
		Err:      err,
	})

	message := compiled.rule.Message
	if message == "" {
		message = DefaultMessage
	}
	if err != nil {
		return message, true
	}
	switch typed := out.(type) {
	case bool:
		return message, !typed
	case string:
		return typed, typed != ""
	default:
		return "", false
	}
}

func normalizeOutcome(out any) (any, error) {
	switch out.(type) {
	case nil:
		return true, nil
	case bool, string:
		return out, nil
	default:
		return nil, fmt.Errorf("rules: expression must yield bool or string, got %T", out)
	}
}

// Expand resolves wildcard segments of p against root. Paths without
// wildcards are returned as-is even when nothing exists there, so presence
// rules can fire. A wildcard over an absent or scalar node yields nothing.
func Expand(root *tree.Node, p path.Path) []path.Path {
	out := []path.Path{}
	expand(root, p.Segments(), path.Path{}, &out)
	return out
}

func expand(node *tree.Node, rest []path.Segment, prefix path.Path, out *[]path.Path) {
	if len(rest) == 0 {
		*out = append(*out, prefix)
		return
	}
	segment := rest[0]
	if segment.IsIndex() || segment.Name() != Wildcard {
		next := prefix.Append(segment)
		expand(tree.Get(node, path.New(segment)), rest[1:], next, out)
		return
	}
	switch node.Kind() {
	case tree.KindMap:
		for _, key := range node.Keys() {
			expand(node.Field(key), rest[1:], prefix.Key(key), out)
		}
	case tree.KindSeq:
		for i := 0; i < node.Len(); i++ {
			expand(node.At(i), rest[1:], prefix.Index(i), out)
		}
	}
}

func evaluatorEngineName(e Evaluator) string {
	if e == nil {
		return "unknown"
	}
	switch fmt.Sprintf("%T", e) {
	case "*rules.exprEvaluator":
		return "expr"
	case "*rules.celEvaluator":
		return "cel"
	case "*rules.jsEvaluator":
		return "js"
	default:
		return "custom"
	}
}

var _ validation.Validator = (*Validator)(nil)
