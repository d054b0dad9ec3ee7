package cns

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sahilm/fuzzy"
)

// Sentinel errors. Fatal parse and render failures wrap one of these; use
// [errors.Is] to test for them.
var (
	ErrMisplacedDeclaration = errors.New("misplaced declaration")
	ErrInvalidIdentifier    = errors.New("invalid identifier")
	ErrPlaceholderMissing   = errors.New("placeholder missing")
	ErrPlaceholderCollision = errors.New("placeholder collision")
	ErrRepetitionOutOfRange = errors.New("repetition out of range")
	ErrUnknownAccessLevel   = errors.New("unknown access level")
	ErrDuplicateAccessLevel = errors.New("duplicate access level")
	ErrLevelBounds          = errors.New("conflicting level bounds")
	ErrTooManyLevels        = errors.New("too many access levels")
	ErrFatalWarning         = errors.New("fatal warning")
	ErrInvalidValues        = errors.New("invalid values")
	ErrInvalidOption        = errors.New("invalid option")
	ErrReadInput            = errors.New("read input")
	ErrWriteOutput          = errors.New("write output")
)

// Error is a fatal error tied to a position in the input.
type Error struct {
	Err  error
	Path string
	Line int
}

// Error implements the error interface.
func (e *Error) Error() string {
	var sb strings.Builder

	if e.Line > 0 {
		fmt.Fprintf(&sb, "line %d: ", e.Line)
	}

	if e.Path != "" {
		fmt.Fprintf(&sb, "%s: ", e.Path)
	}

	sb.WriteString(e.Err.Error())

	return sb.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error { return e.Err }

// WarningKind classifies recoverable issues.
type WarningKind string

// Warning kinds.
const (
	WarnUnsupportedAttribute WarningKind = "unsupported-attribute"
	WarnMalformedAttribute   WarningKind = "malformed-attribute"
	WarnDanglingAttribute    WarningKind = "dangling-attribute"
	WarnUnrecognizedLine     WarningKind = "unrecognized-line"
	WarnUnlabeledParameter   WarningKind = "unlabeled-parameter"
	WarnIneffectiveInclude   WarningKind = "ineffective-include"
	WarnValueMismatch        WarningKind = "value-mismatch"
)

// Warning is a recoverable issue found while parsing or rendering. Warnings
// never stop processing unless fatal warnings are enabled.
type Warning struct {
	Kind    WarningKind
	Path    string
	Message string
	Line    int
}

// String formats the warning for display.
func (w Warning) String() string {
	var sb strings.Builder

	if w.Line > 0 {
		fmt.Fprintf(&sb, "line %d: ", w.Line)
	}

	if w.Path != "" {
		fmt.Fprintf(&sb, "%s: ", w.Path)
	}

	fmt.Fprintf(&sb, "%s (%s)", w.Message, w.Kind)

	return sb.String()
}

// LogValue implements [slog.LogValuer].
func (w Warning) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("kind", string(w.Kind)),
		slog.String("message", w.Message),
	}

	if w.Line > 0 {
		attrs = append(attrs, slog.Int("line", w.Line))
	}

	if w.Path != "" {
		attrs = append(attrs, slog.String("path", w.Path))
	}

	return slog.GroupValue(attrs...)
}

// suggest returns a " (did you mean ...?)" hint for name among candidates,
// or an empty string when nothing is close.
func suggest(name string, candidates []string) string {
	if name == "" || len(candidates) == 0 {
		return ""
	}

	matches := fuzzy.Find(name, candidates)
	if len(matches) == 0 {
		// Fuzzy matching needs every pattern character in order; try the
		// reverse direction for names that are longer than the candidate.
		for _, c := range candidates {
			if len(fuzzy.Find(c, []string{name})) > 0 {
				return fmt.Sprintf(" (did you mean %q?)", c)
			}
		}

		return ""
	}

	return fmt.Sprintf(" (did you mean %q?)", matches[0].Str)
}
