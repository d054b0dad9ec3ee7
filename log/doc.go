// Package log builds [log/slog] handlers from CLI flags.
//
// Three output formats are supported: [FormatJSON] and [FormatLogfmt] use
// the standard library handlers, and [FormatText] uses a colored
// [charm.land/log/v2] logger for terminals. Levels are [LevelError],
// [LevelWarn], [LevelInfo] and [LevelDebug].
//
// Typical usage registers a [Config] on the root command and installs the
// handler before running:
//
//	cfg := log.NewConfig()
//	cfg.RegisterFlags(rootCmd.PersistentFlags())
//	cfg.RegisterCompletions(rootCmd)
//
//	handler, err := cfg.NewHandler(os.Stderr)
//	slog.SetDefault(slog.New(handler))
package log
