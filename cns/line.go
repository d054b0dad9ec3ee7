package cns

import (
	"regexp"
	"strings"
)

// LineKind identifies the shape of a single line of CNS input.
type LineKind int

// Line kinds, in the order the pattern table tries them.
const (
	LineUnknown LineKind = iota
	LineAccessLevel
	LineAttributes
	LinePlus
	LineSection
	LineParameter
	LineStatic
	LineParagraph
	LineComment
	LineBlockComment
	LineBlank
)

// String returns the name of the line kind.
func (k LineKind) String() string {
	switch k {
	case LineAccessLevel:
		return "accesslevel"
	case LineAttributes:
		return "attributes"
	case LinePlus:
		return "plus-attributes"
	case LineSection:
		return "section"
	case LineParameter:
		return "parameter"
	case LineStatic:
		return "static-parameter"
	case LineParagraph:
		return "paragraph"
	case LineComment:
		return "comment"
	case LineBlockComment:
		return "block-comment"
	case LineBlank:
		return "blank"
	case LineUnknown:
		return "unknown"
	}

	return "unknown"
}

// Line is one classified line of input. Which fields are set depends on
// Kind:
//
//   - [LineAccessLevel]: Name, Text (the label).
//   - [LineAttributes]: Text (everything from the first '#').
//   - [LinePlus]: Name (the key, e.g. "choice"), Text (the value).
//   - [LineSection]: Name, Depth.
//   - [LineParameter]: Name, Value, ValueStart, ValueEnd, Quote.
//   - [LineParagraph], [LineComment], [LineBlockComment]: Text.
type Line struct {
	Raw        string
	Name       string
	Text       string
	Value      string
	Kind       LineKind
	Depth      int
	ValueStart int
	ValueEnd   int
	Quote      byte
}

// A quoted-or-bare token is matched by three alternative groups: double
// quoted, single quoted, and bare. [pickToken] selects whichever matched.
const (
	tokenQuoted = `(?:"([^"]*)"|'([^']*)'|`
	tokenBare   = `([^\s"'}]+))`
)

var (
	// AccessLevelRegex matches '{!accesslevel easy "Easy"}'.
	accessLevelRegex = regexp.MustCompile(
		`\{!accesslevel\s+` + tokenQuoted + tokenBare + `\s+` + tokenQuoted + tokenBare + `\s*\}`,
	)

	// AttributesRegex matches '! optional comment #key=value #flag'.
	attributesRegex = regexp.MustCompile(`^\s*![^#]*(#.*?)\s*$`)

	// PlusRegex matches '{+ choice: a "b c" d +}'.
	plusRegex = regexp.MustCompile(`\{\+\s*([^:]+?)\s*:\s*(.+?)\s*\+\}`)

	// SectionRegex matches '{== Section Name ==}'. The length of the
	// leading run of '=' is the depth.
	sectionRegex = regexp.MustCompile(`\{(={2,})\s*([^=].*?)\s*={2,}\}`)

	// ParameterRegex matches '{===>} name="value";'. Groups 2-4 are the
	// double quoted, single quoted and bare value alternatives.
	parameterRegex = regexp.MustCompile(
		`\{===>\}\s*([A-Za-z0-9_]+)\s*=\s*(?:"([^"]*)"|'([^']*)'|([^;"']*?))\s*;`,
	)

	// StaticRegex matches plain CNS assignments like 'numhis=5;'.
	staticRegex = regexp.MustCompile(`^\s*[A-Za-z0-9_.\-]+\s*=\s*(?:"[^"]*"|'[^']*'|[^;]*?)\s*;`)

	// ParagraphRegex matches '{* Molecular Type *}'.
	paragraphRegex = regexp.MustCompile(`\{\*\s*(.*?)\s*\*\}`)

	// LineCommentRegex matches '! any comment'.
	lineCommentRegex = regexp.MustCompile(`^\s*!\s*(.*?)\s*$`)

	// BlockCommentRegex matches single-line '{ comment }'.
	blockCommentRegex = regexp.MustCompile(`\{\s*([^}]*?)\s*\}`)

	// IdentifierRegex validates access level names.
	identifierRegex = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
)

// rule binds one line shape to its matcher.
type rule struct {
	match func(raw string) (Line, bool)
	kind  LineKind
}

// rules is the pattern table. Order is precedence: the first rule that
// matches a line classifies it.
var rules = []rule{
	{kind: LineAccessLevel, match: matchAccessLevel},
	{kind: LineAttributes, match: matchAttributes},
	{kind: LinePlus, match: matchPlus},
	{kind: LineSection, match: matchSection},
	{kind: LineParameter, match: matchParameter},
	{kind: LineStatic, match: matchStatic},
	{kind: LineParagraph, match: matchParagraph},
	{kind: LineComment, match: matchLineComment},
	{kind: LineBlockComment, match: matchBlockComment},
	{kind: LineBlank, match: matchBlank},
}

// Classify applies the pattern table to a single raw line (without its
// line terminator) and returns the first match. Lines that match no rule
// are returned with [LineUnknown].
func Classify(raw string) Line {
	for _, r := range rules {
		l, ok := r.match(raw)
		if ok {
			l.Kind = r.kind
			l.Raw = raw

			return l
		}
	}

	return Line{Kind: LineUnknown, Raw: raw}
}

func matchAccessLevel(raw string) (Line, bool) {
	m := accessLevelRegex.FindStringSubmatchIndex(raw)
	if m == nil {
		return Line{}, false
	}

	name, _, _, _ := pickToken(raw, m, 1)
	label, _, _, _ := pickToken(raw, m, 4)

	return Line{Name: name, Text: label}, true
}

func matchAttributes(raw string) (Line, bool) {
	m := attributesRegex.FindStringSubmatch(raw)
	if m == nil {
		return Line{}, false
	}

	return Line{Text: m[1]}, true
}

func matchPlus(raw string) (Line, bool) {
	m := plusRegex.FindStringSubmatch(raw)
	if m == nil {
		return Line{}, false
	}

	return Line{Name: m[1], Text: m[2]}, true
}

func matchSection(raw string) (Line, bool) {
	m := sectionRegex.FindStringSubmatch(raw)
	if m == nil {
		return Line{}, false
	}

	name := strings.TrimSpace(strings.ReplaceAll(m[2], "=", ""))

	return Line{Name: name, Depth: len(m[1])}, true
}

func matchParameter(raw string) (Line, bool) {
	m := parameterRegex.FindStringSubmatchIndex(raw)
	if m == nil {
		return Line{}, false
	}

	value, start, end, quote := pickToken(raw, m, 2)

	return Line{
		Name:       raw[m[2]:m[3]],
		Value:      value,
		ValueStart: start,
		ValueEnd:   end,
		Quote:      quote,
	}, true
}

func matchStatic(raw string) (Line, bool) {
	return Line{}, staticRegex.MatchString(raw)
}

func matchParagraph(raw string) (Line, bool) {
	m := paragraphRegex.FindStringSubmatch(raw)
	if m == nil {
		return Line{}, false
	}

	return Line{Text: m[1]}, true
}

func matchLineComment(raw string) (Line, bool) {
	m := lineCommentRegex.FindStringSubmatch(raw)
	if m == nil {
		return Line{}, false
	}

	return Line{Text: m[1]}, true
}

func matchBlockComment(raw string) (Line, bool) {
	m := blockCommentRegex.FindStringSubmatch(raw)
	if m == nil {
		return Line{}, false
	}

	return Line{Text: m[1]}, true
}

func matchBlank(raw string) (Line, bool) {
	return Line{}, strings.TrimSpace(raw) == ""
}

// pickToken returns the text, byte span and quote character of a
// quoted-or-bare token whose three alternative groups start at group
// index first in the submatch index slice m.
func pickToken(raw string, m []int, first int) (string, int, int, byte) {
	quotes := [3]byte{'"', '\'', 0}

	for i := range 3 {
		g := (first + i) * 2
		if m[g] < 0 {
			continue
		}

		return raw[m[g]:m[g+1]], m[g], m[g+1], quotes[i]
	}

	return "", -1, -1, 0
}

// splitLines splits text on "\n". Carriage returns are kept; callers
// classify [chomp]ed lines and write raw ones.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}

	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	return lines
}

// chomp removes a trailing carriage return.
func chomp(s string) string {
	return strings.TrimSuffix(s, "\r")
}
