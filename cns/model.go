package cns

import (
	"strconv"
)

// Kind is the variant tag of a [Component].
type Kind string

// Component kinds.
const (
	KindSection   Kind = "section"
	KindParameter Kind = "parameter"
	KindParagraph Kind = "paragraph"
)

// DataType is the declared or inferred type of a parameter value.
type DataType string

// Parameter data types.
const (
	TypeInteger DataType = "integer"
	TypeFloat   DataType = "float"
	TypeString  DataType = "string"
	TypeFile    DataType = "file"
	TypeChoice  DataType = "choice"
)

// ParseDataType converts a #type attribute value to a [DataType]. "text" is
// accepted as an alias of [TypeString].
func ParseDataType(s string) (DataType, bool) {
	switch DataType(s) {
	case TypeInteger, TypeFloat, TypeString, TypeFile, TypeChoice:
		return DataType(s), true
	}

	if s == "text" {
		return TypeString, true
	}

	return "", false
}

// Repeat describes a repeatable component.
type Repeat struct {
	// Index is the placeholder token replaced by the repetition index.
	Index string `json:"index" yaml:"index"`
	// Min is the smallest allowed repetition count. Defaults to 1.
	Min int `json:"min" yaml:"min"`
	// Max is the largest allowed repetition count, or -1 when unbounded.
	Max int `json:"max" yaml:"max"`
}

// Allows reports whether n repetitions are within bounds.
func (r *Repeat) Allows(n int) bool {
	return n >= r.Min && (r.Max < 0 || n <= r.Max)
}

// DefaultCount is the repetition count used when none is supplied.
func (r *Repeat) DefaultCount() int {
	n := max(r.Min, 1)
	if r.Max >= 0 && n > r.Max {
		n = r.Max
	}

	return n
}

// Range formats the bounds as "2", "0+" or "1-3".
func (r *Repeat) Range() string {
	switch {
	case r.Max < 0:
		return strconv.Itoa(r.Min) + "+"
	case r.Min == r.Max:
		return strconv.Itoa(r.Min)
	default:
		return strconv.Itoa(r.Min) + "-" + strconv.Itoa(r.Max)
	}
}

// Component is one node of the parameter tree: a [KindSection], a
// [KindParameter] or a [KindParagraph].
type Component struct {
	// Attributes holds the raw #key=value attributes that applied to the
	// component, as written.
	Attributes map[string]string `json:"attributes,omitempty" yaml:"attributes,omitempty"`
	// Repeat is set for repeatable sections and parameters.
	Repeat *Repeat `json:"multi,omitempty" yaml:"multi,omitempty"`

	Kind  Kind   `json:"kind"            yaml:"kind"`
	Name  string `json:"name,omitempty"  yaml:"name,omitempty"`
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
	// Text is the body of a paragraph.
	Text string `json:"text,omitempty" yaml:"text,omitempty"`
	// Value is the raw default value of a parameter.
	Value string   `json:"value,omitempty" yaml:"value,omitempty"`
	Type  DataType `json:"type,omitempty"  yaml:"type,omitempty"`

	Choices []string `json:"choices,omitempty" yaml:"choices,omitempty"`
	// AllowedLevels are the names of the access levels the component is
	// visible to, in declaration order.
	AllowedLevels []string     `json:"allowed_levels"     yaml:"allowed_levels"`
	Children      []*Component `json:"children,omitempty" yaml:"children,omitempty"`

	// Depth is the length of a section header's '=' run.
	Depth  int  `json:"depth,omitempty" yaml:"depth,omitempty"`
	Hidden bool `json:"hidden"          yaml:"hidden"`

	// Source positions, as 0-based line indices.
	lead int // First attribute or label line belonging to the component.
	line int // The header or assignment line.
	end  int // One past the last line belonging to the component.

	// Byte span of the value on the assignment line.
	valFrom int
	valTo   int

	levels       LevelSet
	quote        byte
	typeExplicit bool
}

// Line returns the 1-based line number the component was declared on.
func (c *Component) Line() int { return c.line + 1 }

// Levels returns the resolved access levels as a [LevelSet].
func (c *Component) Levels() LevelSet { return c.levels }

// IsRepeatable reports whether the component may be repeated.
func (c *Component) IsRepeatable() bool { return c.Repeat != nil }

// Model is the result of parsing a CNS file.
type Model struct {
	AccessLevels AccessLevels `json:"accesslevels" yaml:"accesslevels"`
	Components   []*Component `json:"components"   yaml:"components"`
	// Warnings are the recoverable issues found while parsing.
	Warnings []Warning `json:"-" yaml:"-"`

	lines           []string
	trailingNewline bool
}

// Walk calls fn for every component in depth-first source order. fn receives
// the chain of enclosing sections, outermost first. If fn returns false the
// component's children are skipped.
func (m *Model) Walk(fn func(c *Component, ancestors []*Component) bool) {
	walk(m.Components, nil, fn)
}

func walk(components, ancestors []*Component, fn func(*Component, []*Component) bool) {
	for _, c := range components {
		if !fn(c, ancestors) {
			continue
		}

		if len(c.Children) > 0 {
			walk(c.Children, append(ancestors[:len(ancestors):len(ancestors)], c), fn)
		}
	}
}

// Defaults returns the value tree holding every parameter's template value.
// Repeatable components appear with their default repetition count, and
// placeholders in names and values are bound to concrete indices.
func (m *Model) Defaults() Values {
	root := Values{}
	defaultsInto(root, m.Components, nil)

	return root
}

func defaultsInto(dst Values, components []*Component, bound []binding) {
	for _, c := range components {
		switch c.Kind {
		case KindParagraph:
			continue

		case KindParameter:
			if c.Repeat == nil {
				dst[substitute(c.Name, bound)] = substitute(c.Value, bound)

				continue
			}

			n := c.Repeat.DefaultCount()
			items := make([]any, 0, n)

			for i := 1; i <= n; i++ {
				b := bindIndex(bound, c.Repeat.Index, i)
				items = append(items, substitute(c.Value, b))
			}

			dst[substitute(c.Name, bound)] = items

		case KindSection:
			if c.Repeat == nil {
				obj := Values{}
				defaultsInto(obj, c.Children, bound)
				mergeValues(dst, substitute(c.Name, bound), obj)

				continue
			}

			n := c.Repeat.DefaultCount()
			items := make([]any, 0, n)

			for i := 1; i <= n; i++ {
				obj := Values{}
				defaultsInto(obj, c.Children, bindIndex(bound, c.Repeat.Index, i))
				items = append(items, map[string]any(obj))
			}

			dst[substitute(c.Name, bound)] = items
		}
	}
}

// mergeValues stores obj under key, merging into an existing object so that
// reopened sections of the same name share one entry.
func mergeValues(dst Values, key string, obj Values) {
	if existing, ok := dst[key].(map[string]any); ok {
		for k, v := range obj {
			existing[k] = v
		}

		return
	}

	dst[key] = map[string]any(obj)
}
