package cns_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"go.jacobcolvin.com/cnsform/cns"
)

// Levels: easy=0, normal=1, expert=2.
const (
	easy   = cns.LevelSet(1 << 0)
	normal = cns.LevelSet(1 << 1)
	expert = cns.LevelSet(1 << 2)
	all    = easy | normal | expert
)

func TestSquash(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		parent cns.LevelSet
		d      cns.LevelDirectives
		want   cns.LevelSet
	}{
		"no directives inherits parent": {
			parent: all,
			want:   all,
		},
		"min drops lower levels": {
			parent: all,
			d:      cns.LevelDirectives{Min: 1, HasMin: true},
			want:   normal | expert,
		},
		"max drops higher levels": {
			parent: all,
			d:      cns.LevelDirectives{Max: 1, HasMax: true},
			want:   easy | normal,
		},
		"min and max": {
			parent: all,
			d:      cns.LevelDirectives{Min: 1, HasMin: true, Max: 1, HasMax: true},
			want:   normal,
		},
		"include restores a level cut by min": {
			parent: all,
			d:      cns.LevelDirectives{Min: 2, HasMin: true, Include: easy},
			want:   easy | expert,
		},
		"include never widens beyond parent": {
			parent: expert,
			d:      cns.LevelDirectives{Include: easy},
			want:   expert,
		},
		"exclude": {
			parent: all,
			d:      cns.LevelDirectives{Exclude: normal},
			want:   easy | expert,
		},
		"exclude applies after include": {
			parent: all,
			d:      cns.LevelDirectives{Min: 2, HasMin: true, Include: easy | normal, Exclude: normal},
			want:   easy | expert,
		},
		"min on the first level is a no-op": {
			parent: normal,
			d:      cns.LevelDirectives{Min: 0, HasMin: true},
			want:   normal,
		},
		"empty parent stays empty": {
			parent: 0,
			d:      cns.LevelDirectives{Include: all},
			want:   0,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got := cns.Squash(tc.parent, tc.d)
			assert.Equal(t, tc.want, got)
			assert.True(t, got.SubsetOf(tc.parent))
		})
	}
}

func TestSquashNeverWidens(t *testing.T) {
	t.Parallel()

	for parent := range cns.LevelSet(8) {
		for include := range cns.LevelSet(8) {
			for exclude := range cns.LevelSet(8) {
				for bound := range 4 {
					d := cns.LevelDirectives{Include: include, Exclude: exclude}
					if bound < 3 {
						d.Min, d.HasMin = bound, true
						d.Max, d.HasMax = 2, true
					}

					got := cns.Squash(parent, d)
					assert.True(t, got.SubsetOf(parent), "parent %03b include %03b exclude %03b", parent, include, exclude)

					// An include of a level outside the parent changes nothing.
					outside := include &^ parent
					assert.Equal(t, got, cns.Squash(parent, cns.LevelDirectives{
						Include: include &^ outside,
						Exclude: exclude,
						Min:     d.Min,
						HasMin:  d.HasMin,
						Max:     d.Max,
						HasMax:  d.HasMax,
					}))
				}
			}
		}
	}
}

func TestLevelSet(t *testing.T) {
	t.Parallel()

	s := cns.LevelSet(0).With(0).With(2).With(5)

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []int{0, 2, 5}, s.Indices())
	assert.True(t, s.Has(2))
	assert.False(t, s.Has(1))
	assert.False(t, s.Has(-1))
	assert.False(t, s.Has(64))
	assert.Equal(t, []int{0, 5}, s.Without(2).Indices())
	assert.Equal(t, []int{}, cns.LevelSet(0).Indices())

	assert.Equal(t, cns.LevelSet(0), cns.AllLevels(0))
	assert.Equal(t, cns.LevelSet(0b111), cns.AllLevels(3))
	assert.Equal(t, 64, cns.AllLevels(cns.MaxAccessLevels).Len())
}

func TestAccessLevels(t *testing.T) {
	t.Parallel()

	levels := cns.AccessLevels{
		{Name: "easy", Label: "Easy", Order: 0},
		{Name: "normal", Label: "Normal", Order: 1},
		{Name: "expert", Label: "Expert", Order: 2},
	}

	assert.Equal(t, 1, levels.Index("normal"))
	assert.Equal(t, -1, levels.Index("guru"))
	assert.Equal(t, []string{"easy", "normal", "expert"}, levels.Names())
	assert.Equal(t, all, levels.All())
	assert.Equal(t, []string{"easy", "expert"}, levels.NamesOf(easy|expert))
	assert.Equal(t, []string{}, levels.NamesOf(0))
}
