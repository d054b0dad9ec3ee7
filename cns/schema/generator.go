package schema

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"

	"go.jacobcolvin.com/cnsform/cns"
)

// Draft7 is the $schema URI of generated schemas.
const Draft7 = "http://json-schema.org/draft-07/schema#"

const (
	typeObject  = "object"
	typeArray   = "array"
	typeString  = "string"
	typeInteger = "integer"
	typeNumber  = "number"
)

// ErrNilModel is returned when [Generator.Generate] is given no model.
var ErrNilModel = errors.New("nil model")

// Generator produces the JSON Schema of the value tree a [cns.Writer]
// expects for a model.
type Generator struct {
	title       string
	description string
	id          string
	level       string
	strict      bool
}

// Option configures a Generator.
type Option func(*Generator)

// NewGenerator creates a Generator with the given options.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// WithTitle sets the schema title.
func WithTitle(title string) Option {
	return func(g *Generator) {
		g.title = title
	}
}

// WithDescription sets the schema description.
func WithDescription(desc string) Option {
	return func(g *Generator) {
		g.description = desc
	}
}

// WithID sets the schema $id.
func WithID(id string) Option {
	return func(g *Generator) {
		g.id = id
	}
}

// WithStrict sets additionalProperties to false on objects.
func WithStrict(strict bool) Option {
	return func(g *Generator) {
		g.strict = strict
	}
}

// WithLevel restricts the schema to the components visible at the named
// access level. An empty name keeps every component.
func WithLevel(name string) Option {
	return func(g *Generator) {
		g.level = name
	}
}

// Generate produces a Draft 7 schema for m. Sections become objects,
// parameters become scalars and repeatable components become arrays.
// Properties whose names contain the placeholder of an enclosing
// repeatable section are emitted as patternProperties.
func (g *Generator) Generate(m *cns.Model) (*jsonschema.Schema, error) {
	if m == nil {
		return nil, ErrNilModel
	}

	visible := m.AccessLevels.All()

	if g.level != "" {
		idx := m.AccessLevels.Index(g.level)
		if idx < 0 {
			return nil, fmt.Errorf("%w: %q", cns.ErrUnknownAccessLevel, g.level)
		}

		visible = cns.LevelSet(0).With(idx)
	}

	w := &walker{gen: g, visible: visible, filter: g.level != ""}

	root := w.object(m.Components, nil)
	root.Schema = Draft7

	if g.title != "" {
		root.Title = g.title
	}

	if g.description != "" {
		root.Description = g.description
	}

	if g.id != "" {
		root.ID = g.id
	}

	if len(m.AccessLevels) > 0 {
		root.Extra = map[string]any{"x-levels": m.AccessLevels}
	}

	return root, nil
}

// walker carries per-call state of [Generator.Generate].
type walker struct {
	gen     *Generator
	visible cns.LevelSet
	filter  bool
}

// object builds the object schema holding components. tokens are the
// placeholders bound by enclosing repeatable sections.
func (w *walker) object(components []*cns.Component, tokens []string) *jsonschema.Schema {
	s := &jsonschema.Schema{
		Type:                 typeObject,
		AdditionalProperties: w.additional(),
	}

	for _, c := range components {
		if c.Kind == cns.KindParagraph {
			continue
		}

		if w.filter && c.Levels()&w.visible == 0 {
			continue
		}

		child := w.component(c, tokens)

		if pattern, ok := keyPattern(c.Name, tokens); ok {
			if s.PatternProperties == nil {
				s.PatternProperties = map[string]*jsonschema.Schema{}
			}

			s.PatternProperties[pattern] = merge(s.PatternProperties[pattern], child)

			continue
		}

		if s.Properties == nil {
			s.Properties = map[string]*jsonschema.Schema{}
		}

		if _, ok := s.Properties[c.Name]; !ok {
			s.PropertyOrder = append(s.PropertyOrder, c.Name)
		}

		s.Properties[c.Name] = merge(s.Properties[c.Name], child)
	}

	return s
}

func (w *walker) component(c *cns.Component, tokens []string) *jsonschema.Schema {
	var s *jsonschema.Schema

	switch c.Kind {
	case cns.KindSection:
		inner := tokens
		if c.Repeat != nil {
			inner = append(slices.Clone(tokens), c.Repeat.Index)
		}

		s = w.object(c.Children, inner)
		s.Title = c.Name

	default:
		s = parameter(c)
	}

	if c.Repeat != nil {
		items := s
		s = &jsonschema.Schema{
			Type:     typeArray,
			Title:    items.Title,
			Items:    items,
			MinItems: jsonschema.Ptr(c.Repeat.Min),
		}

		if c.Repeat.Max >= 0 {
			s.MaxItems = jsonschema.Ptr(c.Repeat.Max)
		}

		s.Description, items.Description = items.Description, ""
		items.Title = ""

		setExtra(s, "x-multi-index", c.Repeat.Index)
	}

	setExtra(s, "x-accesslevels", c.AllowedLevels)

	if c.Hidden {
		setExtra(s, "x-hidden", true)
	}

	return s
}

// parameter returns the scalar schema of a parameter.
func parameter(c *cns.Component) *jsonschema.Schema {
	s := &jsonschema.Schema{
		Type:        typeString,
		Description: c.Label,
		Default:     DefaultValue(c.Value),
	}

	switch c.Type {
	case cns.TypeInteger:
		s.Type = typeInteger

		if n, err := strconv.ParseInt(c.Value, 10, 64); err == nil {
			s.Default = DefaultValue(n)
		}

	case cns.TypeFloat:
		s.Type = typeNumber

		if f, err := strconv.ParseFloat(c.Value, 64); err == nil {
			s.Default = DefaultValue(f)
		}

	case cns.TypeFile:
		s.Format = "file"

	case cns.TypeChoice:
		s.Enum = make([]any, 0, len(c.Choices))
		for _, choice := range c.Choices {
			s.Enum = append(s.Enum, choice)
		}

	case cns.TypeString:
	}

	return s
}

func (w *walker) additional() *jsonschema.Schema {
	if w.gen.strict {
		return FalseSchema()
	}

	return TrueSchema()
}

// keyPattern returns an anchored pattern matching name with each of tokens
// replaced by a decimal index. It reports false when name contains none
// of tokens.
func keyPattern(name string, tokens []string) (string, bool) {
	var pairs []string

	sorted := slices.Clone(tokens)
	slices.SortStableFunc(sorted, func(a, b string) int { return len(b) - len(a) })

	for _, t := range sorted {
		if strings.Contains(name, t) {
			pairs = append(pairs, regexp.QuoteMeta(t), "[0-9]+")
		}
	}

	if len(pairs) == 0 {
		return "", false
	}

	return "^" + strings.NewReplacer(pairs...).Replace(regexp.QuoteMeta(name)) + "$", true
}

// merge combines the schemas of two components with the same key, which
// happens when a section header is repeated.
func merge(a, b *jsonschema.Schema) *jsonschema.Schema {
	if a == nil {
		return b
	}

	if a.Type != typeObject || b.Type != typeObject {
		return b
	}

	for _, k := range b.PropertyOrder {
		if _, ok := a.Properties[k]; !ok {
			a.PropertyOrder = append(a.PropertyOrder, k)
		}

		if a.Properties == nil {
			a.Properties = map[string]*jsonschema.Schema{}
		}

		a.Properties[k] = merge(a.Properties[k], b.Properties[k])
	}

	for k, v := range b.PatternProperties {
		if a.PatternProperties == nil {
			a.PatternProperties = map[string]*jsonschema.Schema{}
		}

		a.PatternProperties[k] = merge(a.PatternProperties[k], v)
	}

	return a
}

func setExtra(s *jsonschema.Schema, key string, v any) {
	if s.Extra == nil {
		s.Extra = map[string]any{}
	}

	s.Extra[key] = v
}
