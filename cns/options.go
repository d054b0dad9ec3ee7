package cns

import (
	"log/slog"
)

// settings are shared by [Parser] and [Writer].
type settings struct {
	logger        *slog.Logger
	fatalWarnings bool
}

// Option configures a [Parser] or [Writer].
type Option func(*settings)

// WithLogger sets the logger used for tracing. Parsing steps are logged at
// debug level. Defaults to [slog.Default].
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// WithFatalWarnings turns the first [Warning] into an error wrapping
// [ErrFatalWarning].
func WithFatalWarnings(fatal bool) Option {
	return func(s *settings) {
		s.fatalWarnings = fatal
	}
}

func newSettings(opts []Option) settings {
	s := settings{}

	for _, opt := range opts {
		opt(&s)
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s
}
