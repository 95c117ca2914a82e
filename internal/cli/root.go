// Package cli implements the formful command line tool: inspect, edit and
// validate JSON or YAML state documents with the same machinery forms use.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-formstate/pkg/metrics"
	"github.com/goliatone/go-formstate/pkg/observability"
)

// ErrInvalid is returned by validate when the document has violations.
var ErrInvalid = errors.New("formful: document is invalid")

type app struct {
	out    io.Writer
	errOut io.Writer

	configFile string
	flags      Config
	dump       bool
	withStats  bool

	cfg      Config
	logger   zerolog.Logger
	registry *prometheus.Registry
	obs      observability.Observer
}

// NewRootCommand builds the formful command tree writing to out and errOut.
func NewRootCommand(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut}

	root := &cobra.Command{
		Use:           "formful",
		Short:         "Inspect, edit and validate form state documents",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.writeMetrics()
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configFile, "config", "c", "", "Config file (YAML or JSON)")
	flags.StringVarP(&a.flags.Format, "format", "f", "", "Output format: json or yaml")
	flags.StringVar(&a.flags.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flags.StringVar(&a.flags.Schema, "schema", "", "JSON Schema file to validate against")
	flags.StringVar(&a.flags.Rules, "rules", "", "Rules file (YAML or JSON)")
	flags.StringVar(&a.flags.Engine, "engine", "", "Rule engine: expr, cel or js")
	flags.StringVar(&a.flags.Drafts, "drafts", "", "Directory for drafts; when set, edits go to a draft instead of the document")
	flags.BoolVar(&a.dump, "dump", false, "Dump results with spew instead of encoding them")
	flags.BoolVar(&a.withStats, "metrics", false, "Print Prometheus metrics to stderr on exit")

	root.AddCommand(
		a.getCommand(),
		a.setCommand(),
		a.validateCommand(),
		a.fieldsCommand(),
		a.schemaCommand(),
	)
	return root
}

// Execute runs the CLI against the process arguments and returns the exit code.
func Execute() int {
	cmd := NewRootCommand(os.Stdout, os.Stderr)
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, ErrInvalid) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		return 1
	}
	return 0
}

func (a *app) setup() error {
	cfg := DefaultConfig()
	if a.configFile != "" {
		loaded, err := LoadConfig(a.configFile)
		if err != nil {
			return err
		}
		cfg = *loaded
	}
	cfg.Merge(&a.flags)
	switch cfg.Format {
	case "json", "yaml":
	default:
		return fmt.Errorf("unsupported format %q", cfg.Format)
	}
	a.cfg = cfg

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.WarnLevel
	}
	a.logger = zerolog.New(zerolog.ConsoleWriter{Out: a.errOut, NoColor: true}).
		Level(level).
		With().
		Timestamp().
		Logger()

	if a.withStats {
		a.registry = prometheus.NewRegistry()
	}
	return nil
}

func (a *app) observer() observability.Observer {
	if a.obs != nil {
		return a.obs
	}
	observers := []observability.Observer{observability.NewZerologObserver(a.logger)}
	if a.registry != nil {
		observers = append(observers, metrics.NewObserver(a.registry, "formful"))
	}
	a.obs = observability.NewMultiObserver(observers...)
	return a.obs
}

func (a *app) writeMetrics() error {
	if a.registry == nil {
		return nil
	}
	families, err := a.registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, family := range families {
		if _, err := expfmt.MetricFamilyToText(a.errOut, family); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}
