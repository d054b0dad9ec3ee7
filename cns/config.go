package cns

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Flags holds CLI flag names for parser and writer configuration.
type Flags struct {
	Warnings      string
	FatalWarnings string
	ValuesFormat  string
}

// Config holds CLI flag values for parser and writer configuration.
//
// Create instances with [NewConfig] and register CLI flags with
// [Config.RegisterFlags]. Use [Config.NewParser] and [Config.NewWriter] to
// create a configured [Parser] or [Writer].
type Config struct {
	Flags Flags
	// ValuesFormat is the encoding of value trees passed to the writer.
	ValuesFormat string
	// Warnings enables reporting of recoverable issues.
	Warnings bool
	// FatalWarnings makes recoverable issues fatal. It implies Warnings.
	FatalWarnings bool
}

// NewConfig returns a [Config] with default flag names.
func NewConfig() *Config {
	return &Config{
		Flags: Flags{
			Warnings:      "warnings",
			FatalWarnings: "fatal-warnings",
			ValuesFormat:  "values-format",
		},
		ValuesFormat: string(FormatAuto),
	}
}

// RegisterFlags adds parser flags to the given [*pflag.FlagSet].
func (c *Config) RegisterFlags(flags *pflag.FlagSet) {
	flags.BoolVarP(&c.Warnings, c.Flags.Warnings, "w", false,
		"show warnings for unrecognized input")
	flags.BoolVarP(&c.FatalWarnings, c.Flags.FatalWarnings, "W", false,
		"make unrecognized input a fatal error, implies --"+c.Flags.Warnings)
	flags.StringVar(&c.ValuesFormat, c.Flags.ValuesFormat, string(FormatAuto),
		fmt.Sprintf("value tree format, one of: %s", ValuesFormats()))
}

// RegisterCompletions registers shell completions for parser flags on cmd.
func (c *Config) RegisterCompletions(cmd *cobra.Command) error {
	err := cmd.RegisterFlagCompletionFunc(c.Flags.ValuesFormat,
		cobra.FixedCompletions(ValuesFormats(), cobra.ShellCompDirectiveNoFileComp))
	if err != nil {
		return fmt.Errorf("registering %s completion: %w", c.Flags.ValuesFormat, err)
	}

	return nil
}

// ShowWarnings reports whether warnings should be displayed.
func (c *Config) ShowWarnings() bool {
	return c.Warnings || c.FatalWarnings
}

// Format returns the configured value tree format.
func (c *Config) Format() (ValuesFormat, error) {
	return ParseValuesFormat(c.ValuesFormat)
}

// NewParser creates a [Parser] using this [Config].
func (c *Config) NewParser(logger *slog.Logger) *Parser {
	return NewParser(c.options(logger)...)
}

// NewWriter creates a [Writer] using this [Config].
func (c *Config) NewWriter(logger *slog.Logger) *Writer {
	return NewWriter(c.options(logger)...)
}

func (c *Config) options(logger *slog.Logger) []Option {
	opts := []Option{WithFatalWarnings(c.FatalWarnings)}

	if logger != nil {
		opts = append(opts, WithLogger(logger))
	}

	return opts
}
