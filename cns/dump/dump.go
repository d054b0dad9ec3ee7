// Package dump prints a [cns.Model] component tree in a compact, human
// readable form.
//
// Sections are printed as underlined headers, parameters on one line with
// their type and default value, and paragraphs as indented text. Every
// component gets a running index in source order:
//
//	#2 Molecules
//	============
//	|  #3 (integer) nmol = "2"
//	|
//	|  #4 Molecule N
//	|  ------------- x 1-3
//	|  |  #5 (file) prot_coor_N = "mol_N.pdb"
package dump

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"go.jacobcolvin.com/cnsform/cns"
)

// Option configures [Write].
type Option func(*dumper)

// WithLevels appends each component's allowed access levels.
func WithLevels(show bool) Option {
	return func(d *dumper) {
		d.levels = show
	}
}

// Write prints components and their descendants to w.
func Write(w io.Writer, components []*cns.Component, opts ...Option) error {
	d := &dumper{w: w}

	for _, opt := range opts {
		opt(d)
	}

	for _, c := range components {
		d.component(c, 0)
	}

	if d.err != nil {
		return fmt.Errorf("%w: %w", cns.ErrWriteOutput, d.err)
	}

	return nil
}

type dumper struct {
	w      io.Writer
	err    error
	index  int
	levels bool
}

func (d *dumper) component(c *cns.Component, depth int) {
	d.index++

	switch c.Kind {
	case cns.KindParagraph:
		d.line(depth, "")

		for l := range strings.SplitSeq(c.Text, "\n") {
			d.line(depth, l)
		}

		d.line(depth, "")

		return

	case cns.KindSection:
		header := fmt.Sprintf("#%d %s", d.index, sectionTitle(c))
		rule := "-"

		if depth == 0 {
			rule = "="
		}

		d.line(depth, "")
		d.line(depth, header)
		d.line(depth, strings.Repeat(rule, utf8.RuneCountInString(header))+d.suffix(c))

		for _, child := range c.Children {
			d.component(child, depth+1)
		}

	case cns.KindParameter:
		d.line(depth, fmt.Sprintf("#%d (%s) %s = %q%s", d.index, typeName(c), c.Name, c.Value, d.suffix(c)))
	}
}

// suffix formats the repetition range, access levels and hidden flag.
func (d *dumper) suffix(c *cns.Component) string {
	var sb strings.Builder

	if r := c.Repeat; r != nil {
		if r.Min == r.Max {
			fmt.Fprintf(&sb, " x%d", r.Min)
		} else {
			sb.WriteString(" x " + r.Range())
		}
	}

	if d.levels && len(c.AllowedLevels) > 0 {
		sb.WriteString(" [" + strings.Join(c.AllowedLevels, ", ") + "]")
	}

	if c.Hidden {
		sb.WriteString(" (hidden)")
	}

	return sb.String()
}

func (d *dumper) line(depth int, text string) {
	if d.err != nil {
		return
	}

	line := strings.TrimRight(strings.Repeat("|  ", depth)+text, " ")
	_, d.err = io.WriteString(d.w, line+"\n")
}

func sectionTitle(c *cns.Component) string {
	if c.Label != "" {
		return c.Label
	}

	return c.Name
}

func typeName(c *cns.Component) string {
	if c.Type == cns.TypeChoice {
		return string(c.Type) + "<" + strings.Join(c.Choices, ",") + ">"
	}

	return string(c.Type)
}
