package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formstate/pkg/path"
	"github.com/goliatone/go-formstate/pkg/tree"
	"github.com/goliatone/go-formstate/schema"
)

func (a *app) getCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <file> [path]",
		Short: "Print the value at a dotted path",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := a.open(args[0])
			if err != nil {
				return err
			}
			p, err := pathArg(args, 1)
			if err != nil {
				return err
			}
			node := tree.Get(doc.form.State(), p)
			if node == nil {
				return fmt.Errorf("no value at %q", p.String())
			}
			return a.render(node.Interface())
		},
	}
}

func (a *app) setCommand() *cobra.Command {
	var asString bool
	cmd := &cobra.Command{
		Use:   "set <file> <path> <value>",
		Short: "Write a value at a dotted path",
		Long: `Set parses value as JSON (numbers, booleans, null, objects, arrays) and
falls back to a plain string. Missing maps and sequences along the path are
created; writing through a scalar fails.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := a.open(args[0])
			if err != nil {
				return err
			}
			p, err := path.Parse(args[1])
			if err != nil {
				return err
			}
			if err := doc.form.SetFieldValue(p, parseValue(args[2], asString)); err != nil {
				return err
			}
			if err := a.save(doc); err != nil {
				return err
			}
			for _, message := range doc.form.ErrorsFor(p) {
				a.logger.Warn().Str("path", p.String()).Msg(message)
			}
			return a.render(tree.Get(doc.form.State(), p).Interface())
		},
	}
	cmd.Flags().BoolVar(&asString, "string", false, "Store value as a string without JSON parsing")
	return cmd
}

type violationView struct {
	Path    string `json:"path" yaml:"path"`
	Message string `json:"message" yaml:"message"`
}

func (a *app) validateCommand() *cobra.Command {
	var prefix string
	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate a document against the configured schema and rules",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := a.open(args[0])
			if err != nil {
				return err
			}
			scope, err := path.Parse(prefix)
			if err != nil {
				return err
			}
			views := []violationView{}
			for _, violation := range doc.form.Errors() {
				if !violation.Path.HasPrefix(scope) {
					continue
				}
				label := violation.Path.String()
				if violation.Path.IsRoot() {
					label = "(root)"
				}
				views = append(views, violationView{Path: label, Message: violation.Message})
			}
			if err := a.render(views); err != nil {
				return err
			}
			if len(views) > 0 {
				return ErrInvalid
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&prefix, "path", "", "Only report violations at or below this path")
	return cmd
}

func (a *app) fieldsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "fields <file>",
		Short: "List every leaf path and its kind",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := a.open(args[0])
			if err != nil {
				return err
			}
			return a.render(tree.Describe(doc.form.State()))
		},
	}
}

func (a *app) schemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema <file>",
		Short: "Infer a JSON Schema from a document's current shape",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := a.open(args[0])
			if err != nil {
				return err
			}
			inferred, err := schema.Infer(doc.form.State())
			if err != nil {
				return err
			}
			inferred["$schema"] = schema.Draft
			return a.render(inferred)
		},
	}
}

func pathArg(args []string, i int) (path.Path, error) {
	if len(args) <= i {
		return path.Path{}, nil
	}
	return path.Parse(args[i])
}

func (a *app) render(value any) error {
	if a.dump {
		spew.Fdump(a.out, value)
		return nil
	}
	switch a.cfg.Format {
	case "yaml":
		raw, err := yaml.Marshal(value)
		if err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		_, err = fmt.Fprint(a.out, string(raw))
		return err
	default:
		raw, err := json.MarshalIndent(value, "", "  ")
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		_, err = fmt.Fprintln(a.out, strings.TrimRight(string(raw), "\n"))
		return err
	}
}
