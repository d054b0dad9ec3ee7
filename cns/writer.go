package cns

import (
	"bytes"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// Writer regenerates CNS text from a template and a value tree.
//
// A Writer keeps no state between calls and is safe for concurrent use.
type Writer struct {
	parser *Parser
	settings
}

// NewWriter creates a [Writer] with the given options. The options also
// apply to parsing the template.
func NewWriter(opts ...Option) *Writer {
	s := newSettings(opts)

	return &Writer{settings: s, parser: &Parser{settings: s}}
}

// Render parses template and rewrites it with values. See [Writer.RenderModel].
func (w *Writer) Render(template []byte, values Values) ([]byte, []Warning, error) {
	m, err := w.parser.Parse(template)
	if err != nil {
		return nil, nil, err
	}

	return w.RenderModel(m, values)
}

// RenderModel replays the lines of a parsed template. Parameter values found
// in values replace the template values in place; every other character is
// kept. Repeatable sections and parameters are emitted once per requested
// index with their placeholders replaced by the index.
//
// With nil values a template without repeatable components is reproduced
// exactly. Parameters without a supplied value and supplied values that
// match no parameter are reported as [WarnValueMismatch] warnings. The
// returned warnings include those of the template's [Model].
func (w *Writer) RenderModel(m *Model, values Values) ([]byte, []Warning, error) {
	r := &renderState{
		settings: w.settings,
		model:    m,
		strict:   values != nil,
		scopes:   map[string]*scope{},
	}

	root := r.scope("", nil, normalize(values).(map[string]any))

	err := r.emitRange(0, len(m.lines), m.Components, nil, root)
	if err != nil {
		return nil, nil, err
	}

	err = r.reportUnused()
	if err != nil {
		return nil, nil, err
	}

	out := r.out.Bytes()
	if !m.trailingNewline {
		out = bytes.TrimSuffix(out, []byte("\n"))
	}

	warnings := append(slices.Clone(m.Warnings), r.warnings...)

	return out, warnings, nil
}

// renderState is the state of one [Writer.RenderModel] call.
type renderState struct {
	settings

	model    *Model
	scopes   map[string]*scope
	warnings []Warning
	out      bytes.Buffer
	strict   bool
}

// scope is one object of the value tree. Lookups that miss fall back to the
// parent scope.
type scope struct {
	parent *scope
	vals   map[string]any
	used   map[string]bool
	path   string
}

// scope returns the scope for path, creating it on first use so that
// reopened sections share consumption tracking.
func (r *renderState) scope(path string, parent *scope, vals map[string]any) *scope {
	if sc, ok := r.scopes[path]; ok {
		return sc
	}

	sc := &scope{parent: parent, vals: vals, used: map[string]bool{}, path: path}
	r.scopes[path] = sc

	return sc
}

// lookup finds key in sc or its ancestors and marks it consumed.
func (sc *scope) lookup(key string) (any, *scope, bool) {
	for s := sc; s != nil; s = s.parent {
		if v, ok := s.vals[key]; ok {
			s.used[key] = true

			return v, s, true
		}
	}

	return nil, nil, false
}

// has reports whether key is present in sc or its ancestors without
// consuming it.
func (sc *scope) has(key string) bool {
	for s := sc; s != nil; s = s.parent {
		if _, ok := s.vals[key]; ok {
			return true
		}
	}

	return false
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}

	return prefix + "." + key
}

// emitRange writes lines [from, to), delegating the blocks of sections and
// parameters in children.
func (r *renderState) emitRange(from, to int, children []*Component, bound []binding, sc *scope) error {
	cursor := from

	for _, c := range children {
		if c.Kind == KindParagraph || c.lead < cursor || c.lead >= to {
			continue
		}

		r.emitLines(cursor, c.lead, bound)

		err := r.emitComponent(c, bound, sc)
		if err != nil {
			return err
		}

		cursor = min(c.end, to)
	}

	r.emitLines(cursor, to, bound)

	return nil
}

// instance is one repetition of a component.
type instance struct {
	value any
	index int
	has   bool
}

func (r *renderState) emitComponent(c *Component, bound []binding, sc *scope) error {
	key := substitute(c.Name, bound)

	if c.Repeat == nil {
		v, owner, ok := sc.lookup(key)
		if c.Kind == KindSection {
			return r.emitSection(c, bound, r.childScope(c, owner, key, v, ok, sc))
		}

		return r.emitParameter(c, bound, key, v, ok)
	}

	instances, owner, err := r.instances(c, key, bound, sc)
	if err != nil {
		return err
	}

	r.logger.Debug("expanding repeatable component",
		slog.Int("line", c.Line()),
		slog.String("name", key),
		slog.Int("count", len(instances)),
	)

	for _, inst := range instances {
		b := bindIndex(bound, c.Repeat.Index, inst.index)

		if c.Kind == KindParameter {
			name := substitute(c.Name, b)
			if !inst.has {
				inst.value, _, inst.has = sc.lookup(name)
			}

			err = r.emitParameter(c, b, name, inst.value, inst.has)
		} else {
			itemPath := fmt.Sprintf("%s[%d]", joinPath(owner, key), inst.index)
			err = r.emitSection(c, b, r.itemScope(c, itemPath, inst, sc))
		}

		if err != nil {
			return err
		}
	}

	return nil
}

// childScope returns the scope for the contents of a non-repeatable
// section.
func (r *renderState) childScope(c *Component, owner *scope, key string, v any, ok bool, sc *scope) *scope {
	if !ok {
		return sc
	}

	obj, isObject := asObject(v)
	if !isObject {
		r.warnValue(c, joinPath(owner.path, key), "section value must be an object")

		return sc
	}

	return r.scope(joinPath(owner.path, key), sc, obj)
}

func (r *renderState) itemScope(c *Component, path string, inst instance, sc *scope) *scope {
	if !inst.has {
		return sc
	}

	obj, isObject := asObject(inst.value)
	if !isObject {
		r.warnValue(c, path, "repeated section value must be an object")

		return sc
	}

	return r.scope(path, sc, obj)
}

// instances resolves the repetitions of c. The owner path of the supplied
// value is returned for naming nested scopes.
func (r *renderState) instances(c *Component, key string, bound []binding, sc *scope) ([]instance, string, error) {
	var out []instance

	owner := sc.path

	v, s, ok := sc.lookup(key)
	if ok {
		owner = s.path

		switch v := v.(type) {
		case []any:
			for i, e := range v {
				out = append(out, instance{index: i + 1, value: e, has: true})
			}

		case map[string]any:
			keys := make(map[int]string, len(v))

			for k := range v {
				i, err := strconv.Atoi(k)
				if err != nil || i < 1 {
					return nil, "", &Error{
						Line: c.Line(),
						Path: joinPath(owner, key),
						Err:  fmt.Errorf("%w: repetition key %q is not a positive index", ErrInvalidValues, k),
					}
				}

				if c.Repeat.Max >= 0 && i > c.Repeat.Max {
					return nil, "", &Error{
						Line: c.Line(),
						Path: joinPath(owner, key),
						Err: fmt.Errorf("%w: repetition index %d exceeds the maximum %d",
							ErrRepetitionOutOfRange, i, c.Repeat.Max),
					}
				}

				keys[i] = k
			}

			for _, i := range slices.Sorted(maps.Keys(keys)) {
				out = append(out, instance{index: i, value: v[keys[i]], has: true})
			}

		default:
			r.warnValue(c, joinPath(owner, key), "repeatable component value must be a list or an object of indices")

			ok = false
		}
	}

	if !ok {
		n := 0
		for r.probe(c, bindIndex(bound, c.Repeat.Index, n+1), sc) {
			n++
		}

		if n == 0 {
			n = c.Repeat.DefaultCount()
		}

		for i := 1; i <= n; i++ {
			out = append(out, instance{index: i})
		}
	}

	if !c.Repeat.Allows(len(out)) {
		return nil, "", &Error{
			Line: c.Line(),
			Path: key,
			Err: fmt.Errorf("%w: %d repetitions requested, allowed %s",
				ErrRepetitionOutOfRange, len(out), c.Repeat.Range()),
		}
	}

	return out, owner, nil
}

// probe reports whether the value tree holds any value for c with the given
// bindings. It lets flat value trees drive repetition counts.
func (r *renderState) probe(c *Component, bound []binding, sc *scope) bool {
	if sc.has(substitute(c.Name, bound)) {
		return true
	}

	if c.Kind != KindSection {
		return false
	}

	for _, child := range c.Children {
		if child.Kind != KindParagraph && r.probe(child, bound, sc) {
			return true
		}
	}

	return false
}

func (r *renderState) emitSection(c *Component, bound []binding, inner *scope) error {
	return r.emitRange(c.lead, c.end, c.Children, bound, inner)
}

func (r *renderState) emitParameter(c *Component, bound []binding, key string, v any, ok bool) error {
	r.emitLines(c.lead, c.line, bound)

	raw := r.model.lines[c.line]
	line := substitute(raw, bound)

	switch {
	case ok:
		s, isScalar := scalarString(v)
		if !isScalar {
			r.warnValue(c, key, "parameter value must be a scalar")

			break
		}

		q, quotable := quoteFor(c.quote, s)
		if !quotable {
			r.warnValue(c, key, "value contains both quote characters, keeping the template value")

			break
		}

		// The replaced span includes the template's quotes, if any.
		from, to := c.valFrom, c.valTo
		if c.quote != 0 {
			from, to = from-1, to+1
		}

		line = substitute(raw[:from], bound) + q + s + q + substitute(raw[to:], bound)

	case r.strict:
		err := r.warn(Warning{
			Kind:    WarnValueMismatch,
			Line:    c.Line(),
			Path:    key,
			Message: "no value supplied, keeping the template value",
		})
		if err != nil {
			return err
		}
	}

	r.out.WriteString(line)
	r.out.WriteByte('\n')
	r.emitLines(c.line+1, c.end, bound)

	return nil
}

// quoteFor returns the quote to wrap s in so that it reads back unchanged.
// The template's quote is kept unless s contains it, and a bare template
// value stays bare unless s would not survive as one. It reports false when
// s contains both quote characters.
func quoteFor(template byte, s string) (string, bool) {
	double := strings.ContainsRune(s, '"')
	single := strings.ContainsRune(s, '\'')

	switch {
	case double && single:
		return "", false
	case double:
		return "'", true
	case single:
		return `"`, true
	case template == '\'':
		return "'", true
	case template == 0 && !strings.Contains(s, ";") && s == strings.TrimSpace(s):
		return "", true
	}

	return `"`, true
}

// emitLines writes lines [from, to). Placeholders are replaced on section,
// parameter and paragraph lines.
func (r *renderState) emitLines(from, to int, bound []binding) {
	for i := from; i < to; i++ {
		line := r.model.lines[i]

		if len(bound) > 0 {
			switch Classify(chomp(line)).Kind {
			case LineSection, LineParameter, LineParagraph:
				line = substitute(line, bound)
			default:
			}
		}

		r.out.WriteString(line)
		r.out.WriteByte('\n')
	}
}

func (r *renderState) reportUnused() error {
	if !r.strict {
		return nil
	}

	var names []string

	r.model.Walk(func(c *Component, _ []*Component) bool {
		if c.Kind != KindParagraph {
			names = append(names, c.Name)
		}

		return true
	})

	for _, path := range slices.Sorted(maps.Keys(r.scopes)) {
		sc := r.scopes[path]

		for _, key := range slices.Sorted(maps.Keys(sc.vals)) {
			if sc.used[key] {
				continue
			}

			err := r.warn(Warning{
				Kind:    WarnValueMismatch,
				Path:    joinPath(sc.path, key),
				Message: "value does not match any template component" + suggest(key, names),
			})
			if err != nil {
				return err
			}
		}
	}

	return nil
}

func (r *renderState) warnValue(c *Component, path, msg string) {
	// Shape mismatches are never fatal: the template value is kept.
	r.warnings = append(r.warnings, Warning{Kind: WarnValueMismatch, Line: c.Line(), Path: path, Message: msg})
}

func (r *renderState) warn(w Warning) error {
	if r.fatalWarnings {
		return &Error{Line: w.Line, Path: w.Path, Err: fmt.Errorf("%w: %s", ErrFatalWarning, w.Message)}
	}

	r.warnings = append(r.warnings, w)
	r.logger.Debug("render warning", slog.Any("warning", w))

	return nil
}
