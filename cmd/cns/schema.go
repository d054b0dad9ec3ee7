package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"go.jacobcolvin.com/cnsform/cns"
	"go.jacobcolvin.com/cnsform/cns/schema"
)

func (a *app) newSchemaCmd() *cobra.Command {
	cfg := schema.NewConfig()

	cmd := &cobra.Command{
		Use:   "schema [INPUT]",
		Short: "Generate JSON Schema for the form data of a CNS file",
		Long: `schema parses INPUT (stdin by default) and writes a JSON Schema (Draft 7)
describing the form data accepted by render.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			m, err := a.parse(optionalArg(args))
			if err != nil {
				return err
			}

			s, err := cfg.NewGenerator().Generate(m)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(s, "", cfg.IndentString())
			if err != nil {
				return fmt.Errorf("%w: %w", cns.ErrWriteOutput, err)
			}

			return a.writeOutput(cfg.Output, append(out, '\n'))
		},
	}

	cfg.RegisterFlags(cmd.Flags())

	err := cfg.RegisterCompletions(cmd)
	if err != nil {
		fmt.Fprintf(a.errOut, "register completions: %v\n", err)
	}

	return cmd
}
