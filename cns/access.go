package cns

import (
	"math/bits"
)

// MaxAccessLevels is the largest number of access levels a file may declare.
const MaxAccessLevels = 64

// AccessLevel is a named visibility tier. Levels are ordered from simplest
// to most complex by declaration order.
type AccessLevel struct {
	Name  string `json:"name"  yaml:"name"`
	Label string `json:"label" yaml:"label"`
	Order int    `json:"-"     yaml:"-"`
}

// AccessLevels is the ordered list of declared access levels.
type AccessLevels []AccessLevel

// Index returns the declaration order of the named level, or -1.
func (a AccessLevels) Index(name string) int {
	for i, l := range a {
		if l.Name == name {
			return i
		}
	}

	return -1
}

// Names returns all level names in declaration order.
func (a AccessLevels) Names() []string {
	names := make([]string, len(a))
	for i, l := range a {
		names[i] = l.Name
	}

	return names
}

// All returns the set containing every declared level.
func (a AccessLevels) All() LevelSet {
	return AllLevels(len(a))
}

// NamesOf returns the names of the levels in s, in declaration order. The
// result is never nil.
func (a AccessLevels) NamesOf(s LevelSet) []string {
	names := make([]string, 0, s.Len())

	for _, i := range s.Indices() {
		if i < len(a) {
			names = append(names, a[i].Name)
		}
	}

	return names
}

// LevelSet is a set of access levels, stored as a bit-set indexed by
// declaration order.
type LevelSet uint64

// AllLevels returns the set of the first n levels.
func AllLevels(n int) LevelSet {
	if n >= MaxAccessLevels {
		return ^LevelSet(0)
	}

	return LevelSet(1)<<n - 1
}

// Has reports whether level i is in s.
func (s LevelSet) Has(i int) bool {
	return i >= 0 && i < MaxAccessLevels && s&(1<<i) != 0
}

// With returns s with level i added.
func (s LevelSet) With(i int) LevelSet {
	return s | 1<<i
}

// Without returns s with level i removed.
func (s LevelSet) Without(i int) LevelSet {
	return s &^ (1 << i)
}

// Len returns the number of levels in s.
func (s LevelSet) Len() int {
	return bits.OnesCount64(uint64(s))
}

// SubsetOf reports whether every level in s is also in o.
func (s LevelSet) SubsetOf(o LevelSet) bool {
	return s&^o == 0
}

// Indices returns the level indices in s in ascending order.
func (s LevelSet) Indices() []int {
	out := make([]int, 0, s.Len())

	for v := uint64(s); v != 0; v &= v - 1 {
		out = append(out, bits.TrailingZeros64(v))
	}

	return out
}

// LevelDirectives are a component's own level attributes: #level-min,
// #level-max, #level-include and #level-exclude.
type LevelDirectives struct {
	Include LevelSet
	Exclude LevelSet
	Min     int
	Max     int
	HasMin  bool
	HasMax  bool
}

// IsZero reports whether no directive is set.
func (d LevelDirectives) IsZero() bool {
	return !d.HasMin && !d.HasMax && d.Include == 0 && d.Exclude == 0
}

// Squash computes a component's allowed levels from its parent's allowed
// levels and its own directives. Root components pass the set of all
// declared levels as parent.
//
// The steps run in a fixed order, each as a batch:
//
//  1. start from parent;
//  2. drop levels ordered below Min;
//  3. drop levels ordered above Max;
//  4. add back Include, restricted to parent;
//  5. drop Exclude.
//
// The result is always a subset of parent.
func Squash(parent LevelSet, d LevelDirectives) LevelSet {
	levels := parent

	if d.HasMin && d.Min > 0 {
		levels &^= AllLevels(d.Min)
	}

	if d.HasMax {
		levels &= AllLevels(d.Max + 1)
	}

	levels |= d.Include & parent
	levels &^= d.Exclude

	return levels
}
