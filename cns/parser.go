package cns

import (
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
)

var (
	// AttributeTokenRegex matches one '#key', '#key=value' or '#key: value'
	// at the start of an attribute list.
	attributeTokenRegex = regexp.MustCompile(
		`^#([A-Za-z0-9_-]+)(?:\s*[=:]\s*(?:"([^"]*)"|'([^']*)'|([A-Za-z0-9_.\-]*)))?\s*`,
	)

	// ChoiceTokenRegex matches one bare or quoted option of a choice list.
	choiceTokenRegex = regexp.MustCompile(`"([^"]*)"|'([^']*)'|(\S+)`)

	integerRegex = regexp.MustCompile(`^[+-]?\d+$`)
	floatRegex   = regexp.MustCompile(`^[+-]?(?:\d+\.\d*|\.\d+|\d+)(?:[eE][+-]?\d+)?$`)
)

// Parser builds a [Model] from CNS text.
//
// A Parser keeps no state between calls and is safe for concurrent use.
type Parser struct {
	settings
}

// NewParser creates a [Parser] with the given options.
func NewParser(opts ...Option) *Parser {
	return &Parser{settings: newSettings(opts)}
}

// ParseReader reads all of r and parses it.
func (p *Parser) ParseReader(r io.Reader) (*Model, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadInput, err)
	}

	return p.Parse(data)
}

// Parse builds a [Model] from CNS text. Structural authoring errors are
// returned as [*Error]; recoverable issues are collected in
// [Model.Warnings].
func (p *Parser) Parse(data []byte) (*Model, error) {
	s := &parseState{
		settings: p.settings,
		model:    &Model{AccessLevels: AccessLevels{}, Components: []*Component{}},
		lines:    splitLines(string(data)),
		depths:   map[*Component]int{},
	}

	s.model.lines = s.lines
	s.model.trailingNewline = len(data) > 0 && data[len(data)-1] == '\n'

	for i, raw := range s.lines {
		s.at = i

		err := s.handle(Classify(chomp(raw)))
		if err != nil {
			return nil, err
		}
	}

	err := s.finish()
	if err != nil {
		return nil, err
	}

	return s.model, nil
}

// parseState is the state of one [Parser.Parse] call.
type parseState struct {
	settings

	model *Model
	// Attributes waiting for the next section or parameter.
	attrs *pendingAttributes
	// The parameter declared on the previous line, if any.
	last *Component
	// Sibling section depth per parent; the nil key holds root sections.
	depths map[*Component]int

	lines []string
	// Open sections, outermost first.
	stack []*Component
	// Paragraph lines waiting to become a label or a paragraph.
	label []string

	labelAt  int
	at       int
	building bool
}

// pendingAttributes accumulates consecutive attribute lines.
type pendingAttributes struct {
	raw        map[string]string
	typ        DataType
	index      string
	directives LevelDirectives
	at         int
	min        int
	max        int
	hidden     bool
	hasIndex   bool
	hasMin     bool
	hasMax     bool
}

func (s *parseState) handle(l Line) error {
	last := s.last
	s.last = nil

	switch l.Kind {
	case LineAccessLevel:
		return s.accessLevel(l)

	case LineAttributes:
		return s.attributes(l)

	case LinePlus:
		return s.plus(l, last)

	case LineSection:
		return s.section(l)

	case LineParameter:
		return s.parameter(l)

	case LineParagraph:
		s.paragraph(l)

	case LineBlank:
		s.flushParagraph(s.at)

	case LineUnknown:
		// The paragraph above most likely describes this line.
		s.label = nil

		return s.warn(WarnUnrecognizedLine, "",
			fmt.Sprintf("could not parse line %q", strings.TrimSpace(l.Raw)))

	case LineStatic, LineComment, LineBlockComment:
	}

	return nil
}

func (s *parseState) accessLevel(l Line) error {
	levels := s.model.AccessLevels

	switch {
	case s.building:
		return s.fail(fmt.Errorf("%w: access level %q must be declared before any component",
			ErrMisplacedDeclaration, l.Name), "")

	case !identifierRegex.MatchString(l.Name):
		return s.fail(fmt.Errorf("%w: access level name %q", ErrInvalidIdentifier, l.Name), "")

	case levels.Index(l.Name) >= 0:
		return s.fail(fmt.Errorf("%w: %q", ErrDuplicateAccessLevel, l.Name), "")

	case len(levels) >= MaxAccessLevels:
		return s.fail(fmt.Errorf("%w: at most %d are supported", ErrTooManyLevels, MaxAccessLevels), "")
	}

	s.model.AccessLevels = append(levels, AccessLevel{Name: l.Name, Label: l.Text, Order: len(levels)})

	s.logger.Debug("added access level",
		slog.Int("line", s.at+1),
		slog.String("name", l.Name),
		slog.String("label", l.Text),
	)

	return nil
}

type attribute struct {
	key      string
	value    string
	hasValue bool
}

// splitAttributes tokenizes an attribute list. It returns false when any
// part of text is not a well-formed attribute.
func splitAttributes(text string) ([]attribute, bool) {
	var attrs []attribute

	for text != "" {
		m := attributeTokenRegex.FindStringSubmatchIndex(text)
		if m == nil {
			return nil, false
		}

		value, start, _, _ := pickToken(text, m, 2)
		attrs = append(attrs, attribute{key: text[m[2]:m[3]], value: value, hasValue: start >= 0})
		text = text[m[1]:]
	}

	return attrs, true
}

func (s *parseState) attributes(l Line) error {
	attrs, ok := splitAttributes(l.Text)
	if !ok {
		return s.warn(WarnMalformedAttribute, "", fmt.Sprintf("malformed attribute line %q", l.Text))
	}

	if s.attrs == nil {
		s.attrs = &pendingAttributes{at: s.at}
	}

	for _, a := range attrs {
		err := s.applyAttribute(a)
		if err != nil {
			return err
		}
	}

	return nil
}

func (s *parseState) applyAttribute(a attribute) error {
	p := s.attrs

	switch a.key {
	case "level-min", "level-max", "level-include", "level-exclude":
		err := s.applyLevel(a)
		if err != nil {
			return err
		}

	case "hidden":
		p.hidden = !a.hasValue || a.value != "false"

	case "multi-index":
		if a.value == "" {
			return s.warn(WarnMalformedAttribute, "", "multi-index needs a placeholder token")
		}

		p.index, p.hasIndex = a.value, true

	case "multi-min", "multi-max":
		n, err := strconv.Atoi(a.value)
		if err != nil || n < -1 || (n < 0 && a.key == "multi-min") {
			return s.warn(WarnMalformedAttribute, "", fmt.Sprintf("%s must be a count, got %q", a.key, a.value))
		}

		if a.key == "multi-min" {
			p.min, p.hasMin = n, true
		} else {
			p.max, p.hasMax = n, true
		}

	case "type":
		t, ok := ParseDataType(a.value)
		if !ok {
			return s.warn(WarnMalformedAttribute, "", fmt.Sprintf("unknown type %q", a.value))
		}

		p.typ = t

	default:
		return s.warn(WarnUnsupportedAttribute, "", fmt.Sprintf("unsupported attribute %q", a.key))
	}

	if p.raw == nil {
		p.raw = map[string]string{}
	}

	if prev, ok := p.raw[a.key]; ok && prev != "" {
		p.raw[a.key] = prev + " " + a.value
	} else {
		p.raw[a.key] = a.value
	}

	return nil
}

func (s *parseState) applyLevel(a attribute) error {
	levels := s.model.AccessLevels

	idx := levels.Index(a.value)
	if idx < 0 {
		return s.fail(fmt.Errorf("%w: %q%s", ErrUnknownAccessLevel, a.value,
			suggest(a.value, levels.Names())), "")
	}

	d := &s.attrs.directives

	switch a.key {
	case "level-min":
		if d.HasMax && idx > d.Max {
			return s.fail(fmt.Errorf("%w: level-min %q is above level-max %q",
				ErrLevelBounds, a.value, levels[d.Max].Name), "")
		}

		d.Min, d.HasMin = idx, true

	case "level-max":
		if d.HasMin && idx < d.Min {
			return s.fail(fmt.Errorf("%w: level-max %q is below level-min %q",
				ErrLevelBounds, a.value, levels[d.Min].Name), "")
		}

		d.Max, d.HasMax = idx, true

	case "level-include":
		d.Exclude = d.Exclude.Without(idx)
		d.Include = d.Include.With(idx)

	case "level-exclude":
		d.Include = d.Include.Without(idx)
		d.Exclude = d.Exclude.With(idx)
	}

	return nil
}

func (s *parseState) plus(l Line, last *Component) error {
	switch l.Name {
	case "choice":
		if last == nil {
			return s.warn(WarnDanglingAttribute, "", "choice list does not directly follow a parameter")
		}

		last.Choices = splitChoices(l.Text)
		last.end = s.at + 1

		if !last.typeExplicit {
			last.Type = TypeChoice
		}

		s.logger.Debug("attached choices",
			slog.Int("line", s.at+1),
			slog.String("parameter", last.Name),
			slog.Any("choices", last.Choices),
		)

		return nil

	case "table":
		return s.warn(WarnUnsupportedAttribute, "", "table attributes are not supported")
	}

	return s.warn(WarnUnsupportedAttribute, "", fmt.Sprintf("unsupported attribute %q", l.Name))
}

// splitChoices splits a choice list into bare words and quoted strings.
func splitChoices(text string) []string {
	matches := choiceTokenRegex.FindAllStringSubmatchIndex(text, -1)
	choices := make([]string, 0, len(matches))

	for _, m := range matches {
		choice, _, _, _ := pickToken(text, m, 1)
		choices = append(choices, choice)
	}

	return choices
}

func (s *parseState) section(l Line) error {
	s.building = true
	lead := s.lead()

	for len(s.stack) > 0 && s.stack[len(s.stack)-1].Depth >= l.Depth {
		s.stack[len(s.stack)-1].end = lead
		s.stack = s.stack[:len(s.stack)-1]
	}

	parent := s.top()

	if d, ok := s.depths[parent]; ok && d != l.Depth {
		return s.fail(fmt.Errorf("%w: section header has depth %d but its siblings have depth %d",
			ErrMisplacedDeclaration, l.Depth, d), l.Name)
	}

	s.depths[parent] = l.Depth

	c := &Component{
		Kind:     KindSection,
		Name:     l.Name,
		Depth:    l.Depth,
		Children: []*Component{},
		lead:     lead,
		line:     s.at,
	}

	err := s.install(c)
	if err != nil {
		return err
	}

	s.attach(c)
	s.stack = append(s.stack, c)

	s.logger.Debug("opened section",
		slog.Int("line", s.at+1),
		slog.String("name", c.Name),
		slog.Int("depth", c.Depth),
		slog.Any("levels", c.AllowedLevels),
	)

	return nil
}

func (s *parseState) parameter(l Line) error {
	s.building = true

	c := &Component{
		Kind:    KindParameter,
		Name:    l.Name,
		Value:   l.Value,
		lead:    s.lead(),
		line:    s.at,
		end:     s.at + 1,
		valFrom: l.ValueStart,
		valTo:   l.ValueEnd,
		quote:   l.Quote,
	}

	err := s.install(c)
	if err != nil {
		return err
	}

	if !c.typeExplicit {
		c.Type = inferType(c.Value)
	}

	s.attach(c)
	s.last = c

	s.logger.Debug("added parameter",
		slog.Int("line", s.at+1),
		slog.String("name", c.Name),
		slog.String("type", string(c.Type)),
		slog.String("value", c.Value),
	)

	if c.Label == "" {
		return s.warn(WarnUnlabeledParameter, c.Name, "parameter is not labeled")
	}

	return nil
}

func inferType(value string) DataType {
	switch {
	case integerRegex.MatchString(value):
		return TypeInteger
	case floatRegex.MatchString(value):
		return TypeFloat
	}

	return TypeString
}

func (s *parseState) paragraph(l Line) {
	s.building = true

	if len(s.label) == 0 {
		s.labelAt = s.at
	}

	s.label = append(s.label, l.Text)
}

// flushParagraph turns the pending label into a standalone paragraph at the
// tree cursor.
func (s *parseState) flushParagraph(end int) {
	if len(s.label) == 0 {
		return
	}

	c := &Component{
		Kind:   KindParagraph,
		Text:   strings.Join(s.label, "\n"),
		levels: s.parentLevels(),
		lead:   s.labelAt,
		line:   s.labelAt,
		end:    end,
	}
	c.AllowedLevels = s.model.AccessLevels.NamesOf(c.levels)

	s.label = nil
	s.attach(c)

	s.logger.Debug("added paragraph", slog.Int("line", c.line+1), slog.String("text", c.Text))
}

// install applies the pending label and attributes to c and validates its
// placeholders against the open sections.
func (s *parseState) install(c *Component) error {
	if len(s.label) > 0 {
		c.Label = strings.Join(s.label, "\n")
		s.label = nil
	}

	a := s.attrs
	s.attrs = nil

	if a == nil {
		a = &pendingAttributes{}
	}

	parent := s.parentLevels()
	c.levels = Squash(parent, a.directives)
	c.AllowedLevels = s.model.AccessLevels.NamesOf(c.levels)
	c.Hidden = a.hidden
	c.Attributes = a.raw

	if ineffective := a.directives.Include &^ parent; ineffective != 0 {
		for _, name := range s.model.AccessLevels.NamesOf(ineffective) {
			err := s.warn(WarnIneffectiveInclude, c.Name,
				fmt.Sprintf("level-include %q has no effect: the enclosing section does not allow it", name))
			if err != nil {
				return err
			}
		}
	}

	if c.Kind == KindParameter && a.typ != "" {
		c.Type, c.typeExplicit = a.typ, true
	}

	switch {
	case a.hasIndex:
		r := &Repeat{Index: a.index, Min: 1, Max: -1}
		if a.hasMin {
			r.Min = a.min
		}

		if a.hasMax {
			r.Max = a.max
		}

		if r.Max >= 0 && r.Min > r.Max {
			return s.fail(fmt.Errorf("%w: multi-min %d exceeds multi-max %d",
				ErrRepetitionOutOfRange, r.Min, r.Max), c.Name)
		}

		c.Repeat = r

	case a.hasMin || a.hasMax:
		return s.fail(fmt.Errorf("%w: multi-min or multi-max given without multi-index",
			ErrPlaceholderMissing), c.Name)
	}

	return s.checkPlaceholders(c)
}

// checkPlaceholders verifies that c's name contains its own placeholder and
// the placeholder of every repeatable enclosing section, and that its own
// placeholder is not already bound by an enclosing section.
func (s *parseState) checkPlaceholders(c *Component) error {
	if c.Repeat != nil && !strings.Contains(c.Name, c.Repeat.Index) {
		return s.fail(fmt.Errorf("%w: name does not contain its placeholder %q",
			ErrPlaceholderMissing, c.Repeat.Index), c.Name)
	}

	for _, anc := range s.stack {
		if anc.Repeat == nil {
			continue
		}

		if c.Repeat != nil && c.Repeat.Index == anc.Repeat.Index {
			return s.fail(fmt.Errorf("%w: placeholder %q is already used by section %q",
				ErrPlaceholderCollision, c.Repeat.Index, anc.Name), c.Name)
		}

		if !strings.Contains(c.Name, anc.Repeat.Index) {
			return s.fail(fmt.Errorf("%w: name does not contain placeholder %q of section %q",
				ErrPlaceholderMissing, anc.Repeat.Index, anc.Name), c.Name)
		}
	}

	return nil
}

func (s *parseState) finish() error {
	s.at = len(s.lines)
	s.flushParagraph(len(s.lines))

	for _, c := range s.stack {
		c.end = len(s.lines)
	}

	s.stack = nil

	if s.attrs != nil {
		s.at = s.attrs.at

		err := s.warn(WarnDanglingAttribute, "", "attributes are not followed by a section or parameter")
		if err != nil {
			return err
		}
	}

	hideEmptySections(s.model.Components)

	return nil
}

// hideEmptySections hides every section without a visible section or
// parameter below it.
func hideEmptySections(components []*Component) {
	for _, c := range components {
		if c.Kind != KindSection {
			continue
		}

		hideEmptySections(c.Children)

		visible := false

		for _, child := range c.Children {
			if child.Kind != KindParagraph && !child.Hidden {
				visible = true

				break
			}
		}

		c.Hidden = c.Hidden || !visible
	}
}

func (s *parseState) top() *Component {
	if len(s.stack) == 0 {
		return nil
	}

	return s.stack[len(s.stack)-1]
}

func (s *parseState) attach(c *Component) {
	if parent := s.top(); parent != nil {
		parent.Children = append(parent.Children, c)

		return
	}

	s.model.Components = append(s.model.Components, c)
}

func (s *parseState) parentLevels() LevelSet {
	if parent := s.top(); parent != nil {
		return parent.levels
	}

	return s.model.AccessLevels.All()
}

// lead returns the first line of the component declared on the current
// line, including its pending attribute and label lines.
func (s *parseState) lead() int {
	lead := s.at

	if s.attrs != nil && s.attrs.at < lead {
		lead = s.attrs.at
	}

	if len(s.label) > 0 && s.labelAt < lead {
		lead = s.labelAt
	}

	return lead
}

func (s *parseState) warn(kind WarningKind, path, msg string) error {
	w := Warning{Kind: kind, Line: s.at + 1, Path: path, Message: msg}

	if s.fatalWarnings {
		return &Error{Line: w.Line, Path: path, Err: fmt.Errorf("%w: %s", ErrFatalWarning, msg)}
	}

	s.model.Warnings = append(s.model.Warnings, w)
	s.logger.Debug("parse warning", slog.Any("warning", w))

	return nil
}

func (s *parseState) fail(err error, path string) error {
	return &Error{Line: s.at + 1, Path: path, Err: err}
}
