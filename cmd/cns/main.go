// Command cns converts CNS input files annotated with structured comments.
//
// It turns a run.cns template into a parameter model for web form front
// ends, and writes filled-in form data back into a run.cns file.
//
// # Usage
//
//	cns json [INPUT] [-o MODEL] [-l LEVELS] [-t]
//	cns yaml [INPUT] [-o OUTPUT] [-c]
//	cns schema [INPUT] [-o OUTPUT] [--title T] [--id ID] [--strict]
//	cns render [JOB_DIR] [-t TEMPLATE] [-i FORM_DATA] [-o OUTPUT]
//	cns dump [MODEL] [-v]
//
// INPUT defaults to stdin. Outputs default to stdout; pass "-" explicitly
// to select it.
//
// # Global flags
//
//	-w, --warnings         show warnings for unrecognized input
//	-W, --fatal-warnings   make unrecognized input a fatal error
//	--values-format        form data format: auto, json, yaml or toml
//	--log-level            error, warn, info or debug
//	--log-format           json, logfmt or text
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"go.jacobcolvin.com/cnsform/cns"
	"go.jacobcolvin.com/cnsform/log"
	"go.jacobcolvin.com/cnsform/version"
)

func main() {
	cmd := newRootCmd(os.Stdin, os.Stdout, os.Stderr)

	err := cmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// app holds the state shared by all subcommands.
type app struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer
	logCfg *log.Config
	cnsCfg *cns.Config
	logger *slog.Logger
}

func newRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	a := &app{
		in:     in,
		out:    out,
		errOut: errOut,
		logCfg: log.NewConfig(),
		cnsCfg: cns.NewConfig(),
		logger: slog.New(slog.DiscardHandler),
	}

	rootCmd := &cobra.Command{
		Use:   "cns",
		Short: "Convert CNS input files to form models and back",
		Long: `cns reads CNS input files whose comments describe a user-facing form:
access levels, sections, labeled parameters, choices and repeatable blocks.
It emits the form model as JSON or YAML, describes the expected form data as
JSON Schema, and renders a template back into a CNS file from form data.`,
		Version:       version.String(),
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := a.logCfg.NewLogger(a.errOut, cmd.Name())
			if err != nil {
				return err
			}

			a.logger = logger

			return nil
		},
	}

	rootCmd.SetIn(in)
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	a.logCfg.RegisterFlags(rootCmd.PersistentFlags())
	a.cnsCfg.RegisterFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(
		a.newJSONCmd(),
		a.newYAMLCmd(),
		a.newSchemaCmd(),
		a.newRenderCmd(),
		a.newDumpCmd(),
	)

	for _, register := range []func(*cobra.Command) error{
		a.logCfg.RegisterCompletions,
		a.cnsCfg.RegisterCompletions,
	} {
		err := register(rootCmd)
		if err != nil {
			fmt.Fprintf(errOut, "register completions: %v\n", err)
		}
	}

	return rootCmd
}

// readInput reads the named file, or stdin for "" and "-".
func (a *app) readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(a.in)
		if err != nil {
			return nil, fmt.Errorf("%w: stdin: %w", cns.ErrReadInput, err)
		}

		return data, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", cns.ErrReadInput, err)
	}

	return data, nil
}

// writeOutput writes data to the named file, or stdout for "" and "-".
func (a *app) writeOutput(path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := a.out.Write(data)
		if err != nil {
			return fmt.Errorf("%w: %w", cns.ErrWriteOutput, err)
		}

		return nil
	}

	err := os.WriteFile(path, data, 0o644)
	if err != nil {
		return fmt.Errorf("%w: %w", cns.ErrWriteOutput, err)
	}

	return nil
}

// parse reads and parses a CNS file, reporting its warnings.
func (a *app) parse(path string) (*cns.Model, error) {
	data, err := a.readInput(path)
	if err != nil {
		return nil, err
	}

	m, err := a.cnsCfg.NewParser(a.logger).Parse(data)
	if err != nil {
		return nil, err
	}

	a.report(m.Warnings)

	return m, nil
}

// report logs warnings when they were asked for.
func (a *app) report(warnings []cns.Warning) {
	if !a.cnsCfg.ShowWarnings() {
		return
	}

	for _, w := range warnings {
		a.logger.Warn(w.Message,
			slog.String("kind", string(w.Kind)),
			slog.Int("line", w.Line),
			slog.String("path", w.Path),
		)
	}
}

func optionalArg(args []string) string {
	if len(args) == 0 {
		return ""
	}

	return args[0]
}
