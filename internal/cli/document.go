package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	formstate "github.com/goliatone/go-formstate"
	"github.com/goliatone/go-formstate/pkg/persist"
	"github.com/goliatone/go-formstate/pkg/rules"
	"github.com/goliatone/go-formstate/pkg/tree"
	"github.com/goliatone/go-formstate/pkg/validation"
	"github.com/goliatone/go-formstate/pkg/validation/jsonschema"
)

// document is a state file opened as a form.
type document struct {
	filename string
	codec    persist.Codec
	form     *formstate.Form
}

func codecFor(filename string) persist.Codec {
	codec, err := persist.CodecByName(strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), "."))
	if err != nil {
		return persist.JSONCodec{}
	}
	return codec
}

func (a *app) open(filename string) (*document, error) {
	raw, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}
	codec := codecFor(filename)
	root, err := codec.Decode(string(raw))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filename, err)
	}

	opts := []formstate.Option{
		formstate.WithID(filepath.Base(filename)),
		formstate.WithObserver(a.observer()),
	}
	validators, err := a.validators()
	if err != nil {
		return nil, err
	}
	for _, v := range validators {
		opts = append(opts, formstate.WithValidator(v))
	}
	if a.cfg.Drafts != "" {
		kv, err := persist.NewFileKV(a.cfg.Drafts)
		if err != nil {
			return nil, err
		}
		opts = append(opts, formstate.WithStorage(kv, filepath.Base(filename)), formstate.WithCodec(codec))
	}

	form, err := formstate.New(root, opts...)
	if err != nil {
		return nil, err
	}
	a.logger.Debug().Str("file", filename).Str("codec", codec.Name()).Msg("document opened")
	return &document{filename: filename, codec: codec, form: form}, nil
}

// save writes the form state back to the document. With drafts enabled the
// form has already persisted the edit, so the document stays untouched.
func (a *app) save(doc *document) error {
	if a.cfg.Drafts != "" {
		return nil
	}
	encoded, err := doc.codec.Encode(doc.form.State())
	if err != nil {
		return fmt.Errorf("encode %s: %w", doc.filename, err)
	}
	info, err := os.Stat(doc.filename)
	if err != nil {
		return fmt.Errorf("stat %s: %w", doc.filename, err)
	}
	if err := os.WriteFile(doc.filename, []byte(encoded), info.Mode().Perm()); err != nil {
		return fmt.Errorf("write %s: %w", doc.filename, err)
	}
	return nil
}

func (a *app) validators() ([]validation.Validator, error) {
	var out []validation.Validator

	if a.cfg.Schema != "" {
		raw, err := os.ReadFile(a.cfg.Schema)
		if err != nil {
			return nil, fmt.Errorf("read schema: %w", err)
		}
		var opts []jsonschema.Option
		for dotted, message := range a.cfg.Messages {
			opts = append(opts, jsonschema.WithMessage(dotted, message))
		}
		v, err := jsonschema.Compile(string(raw), opts...)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}

	if a.cfg.Rules != "" {
		file, err := os.Open(a.cfg.Rules)
		if err != nil {
			return nil, fmt.Errorf("open rules: %w", err)
		}
		defer file.Close()
		list, err := rules.LoadRules(file)
		if err != nil {
			return nil, err
		}
		evaluator, err := evaluatorFor(a.cfg.Engine)
		if err != nil {
			return nil, err
		}
		v, err := rules.NewValidator(list,
			rules.WithEvaluator(evaluator),
			rules.WithEvaluatorLogger(rules.ObserverLogger(a.observer())),
		)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func evaluatorFor(engine string) (rules.Evaluator, error) {
	switch engine {
	case "", "expr":
		return rules.NewExprEvaluator(), nil
	case "cel":
		return rules.NewCELEvaluator(), nil
	case "js":
		if !rules.JSEvaluatorAvailable() {
			return nil, fmt.Errorf("js engine not available; rebuild with -tags js_eval")
		}
		return rules.NewJSEvaluator(), nil
	default:
		return nil, fmt.Errorf("unknown rule engine %q", engine)
	}
}

// parseValue reads value as JSON, falling back to a plain string.
func parseValue(value string, forceString bool) *tree.Node {
	if forceString {
		return tree.String(value)
	}
	node, err := tree.Decode([]byte(value))
	if err != nil {
		return tree.String(value)
	}
	return node
}
