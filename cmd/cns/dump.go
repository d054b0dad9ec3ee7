package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"go.jacobcolvin.com/cnsform/cns"
	"go.jacobcolvin.com/cnsform/cns/dump"
)

var errInvalidModel = errors.New("invalid model")

func (a *app) newDumpCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "dump [MODEL]",
		Short: "Print the component tree of a model",
		Long: `dump prints the component tree of MODEL (stdin by default), which is either
a CNS file or model JSON written by the json command.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			data, err := a.readInput(optionalArg(args))
			if err != nil {
				return err
			}

			components, err := a.components(data)
			if err != nil {
				return err
			}

			var buf bytes.Buffer

			err = dump.Write(&buf, components, dump.WithLevels(verbose))
			if err != nil {
				return err
			}

			return a.writeOutput("-", buf.Bytes())
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show access levels for each component")

	return cmd
}

// components returns the component tree of data, which holds model JSON in
// any of the shapes the json command writes, or CNS text.
func (a *app) components(data []byte) ([]*cns.Component, error) {
	if !json.Valid(data) {
		m, err := a.cnsCfg.NewParser(a.logger).Parse(data)
		if err != nil {
			return nil, err
		}

		a.report(m.Warnings)

		return m.Components, nil
	}

	trimmed := bytes.TrimSpace(data)

	if len(trimmed) > 0 && trimmed[0] == '{' {
		var m cns.Model

		err := json.Unmarshal(trimmed, &m)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errInvalidModel, err)
		}

		return m.Components, nil
	}

	var raw []json.RawMessage

	err := json.Unmarshal(trimmed, &raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidModel, err)
	}

	// [accesslevels, components]
	if len(raw) == 2 && bytes.HasPrefix(bytes.TrimSpace(raw[0]), []byte("[")) {
		trimmed = raw[1]
	}

	var components []*cns.Component

	err = json.Unmarshal(trimmed, &components)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidModel, err)
	}

	return components, nil
}
