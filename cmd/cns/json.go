package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"go.jacobcolvin.com/cnsform/cns"
)

func (a *app) newJSONCmd() *cobra.Command {
	var (
		modelOut string
		levelOut string
		tidy     bool
	)

	cmd := &cobra.Command{
		Use:   "json [INPUT]",
		Short: "Convert a CNS file to a JSON form model",
		Long: `json parses INPUT (stdin by default) and writes the access levels and the
component tree as JSON. When both go to the same destination they are written
as one array: [accesslevels, components].`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.parse(optionalArg(args))
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("tidy") {
				tidy = isTerminal(a.out)
			}

			if modelOut == levelOut {
				return a.writeJSON(modelOut, []any{m.AccessLevels, m.Components}, tidy)
			}

			err = a.writeJSON(levelOut, m.AccessLevels, tidy)
			if err != nil {
				return err
			}

			return a.writeJSON(modelOut, m.Components, tidy)
		},
	}

	cmd.Flags().StringVarP(&modelOut, "model-output", "o", "-", "the model JSON file (- for stdout)")
	cmd.Flags().StringVarP(&levelOut, "accesslevel-output", "l", "-", "the access level JSON file (- for stdout)")
	cmd.Flags().BoolVarP(&tidy, "tidy", "t", false, "pretty-print JSON output (default when stdout is a terminal)")

	return cmd
}

func (a *app) writeJSON(path string, v any, tidy bool) error {
	var (
		out []byte
		err error
	)

	if tidy {
		out, err = json.MarshalIndent(v, "", "    ")
	} else {
		out, err = json.Marshal(v)
	}

	if err != nil {
		return fmt.Errorf("%w: %w", cns.ErrWriteOutput, err)
	}

	return a.writeOutput(path, append(out, '\n'))
}

func (a *app) newYAMLCmd() *cobra.Command {
	var (
		output  string
		compact bool
	)

	cmd := &cobra.Command{
		Use:   "yaml [INPUT]",
		Short: "Convert a CNS file to a YAML form model",
		Long: `yaml parses INPUT (stdin by default) and writes two YAML documents: the
access levels, then the component tree.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			m, err := a.parse(optionalArg(args))
			if err != nil {
				return err
			}

			var opts []yaml.EncodeOption
			if compact {
				opts = append(opts, yaml.Flow(true))
			}

			var out []byte

			for _, doc := range []any{m.AccessLevels, m.Components} {
				b, marshalErr := yaml.MarshalWithOptions(doc, opts...)
				if marshalErr != nil {
					return fmt.Errorf("%w: %w", cns.ErrWriteOutput, marshalErr)
				}

				out = append(out, "---\n"...)
				out = append(out, b...)
			}

			return a.writeOutput(output, out)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "-", "the output YAML file (- for stdout)")
	cmd.Flags().BoolVarP(&compact, "compact", "c", false, "use flow style instead of block style")

	return cmd
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)

	return ok && term.IsTerminal(int(f.Fd()))
}
