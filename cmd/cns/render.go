package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"go.jacobcolvin.com/cnsform/cns"
)

func (a *app) newRenderCmd() *cobra.Command {
	var (
		template string
		formData string
		output   string
	)

	cmd := &cobra.Command{
		Use:   "render [JOB_DIR]",
		Short: "Write form data back into a CNS template",
		Long: `render fills the parameters of a CNS template with form data and writes the
result. Repeatable sections and parameters are expanded once per supplied
index. JOB_DIR defaults to the current directory; the template defaults to
JOB_DIR/template.cns and the form data to JOB_DIR/formdata.json.

Form data may be JSON, YAML or TOML. With --values-format=auto the format is
picked from the file extension, falling back to content detection.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			jobDir := optionalArg(args)
			if jobDir == "" {
				jobDir = "."
			}

			if template == "" {
				template = filepath.Join(jobDir, "template.cns")
			}

			if formData == "" {
				formData = filepath.Join(jobDir, "formdata.json")
			}

			return a.render(template, formData, output)
		},
	}

	cmd.Flags().StringVarP(&template, "template", "t", "", "the CNS template file (default JOB_DIR/template.cns)")
	cmd.Flags().StringVarP(&formData, "form-data", "i", "", "the form data file (default JOB_DIR/formdata.json)")
	cmd.Flags().StringVarP(&output, "output", "o", "-", "the output CNS file (- for stdout)")

	return cmd
}

func (a *app) render(templatePath, formDataPath, outputPath string) error {
	format, err := a.cnsCfg.Format()
	if err != nil {
		return err
	}

	if format == cns.FormatAuto {
		format = cns.FormatFromPath(formDataPath)
	}

	tmpl, err := a.readInput(templatePath)
	if err != nil {
		return err
	}

	data, err := a.readInput(formDataPath)
	if err != nil {
		return err
	}

	values, err := cns.DecodeValues(data, format)
	if err != nil {
		return err
	}

	out, warnings, err := a.cnsCfg.NewWriter(a.logger).Render(tmpl, values)
	if err != nil {
		return err
	}

	a.report(warnings)

	return a.writeOutput(outputPath, out)
}
