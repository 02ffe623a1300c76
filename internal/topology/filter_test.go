package topology

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/softsim/internal/xpbd"
)

func link(a, b int, rest float64) xpbd.Constraint {
	return xpbd.Constraint{A: a, B: b, RestLength: rest, Kind: xpbd.KindLongRange}
}

func TestFilterLongRangeDerivedCutoff(t *testing.T) {
	cons := []xpbd.Constraint{
		link(0, 1, 1), link(1, 2, 1), link(2, 3, 1), link(0, 3, 5),
	}

	// Mean rest length is 2, so the derived cutoff is 3: the length-5
	// link is the only long-range candidate and survives unfiltered.
	out := FilterLongRange(cons, 4, FilterOptions{MaxPerParticle: 4})
	require.Len(t, out, 4)
	assert.Equal(t, cons[0], out[0])
	assert.Equal(t, cons[1], out[1])
	assert.Equal(t, cons[2], out[2])
	assert.Equal(t, cons[3], out[3])
}

func TestFilterLongRangeMaxLength(t *testing.T) {
	cons := []xpbd.Constraint{
		link(0, 1, 1), link(1, 2, 1), link(2, 3, 1),
		link(0, 3, 5), link(1, 3, 4),
	}

	out := FilterLongRange(cons, 4, FilterOptions{MaxLength: 4.5})
	require.Len(t, out, 4)
	assert.Equal(t, 4.0, out[3].RestLength, "long links re-enter shortest first")
	for _, c := range out {
		assert.LessOrEqual(t, c.RestLength, 4.5)
	}
}

func TestFilterLongRangeDegreeCap(t *testing.T) {
	cons := []xpbd.Constraint{
		link(1, 2, 1), link(2, 3, 1), link(3, 4, 1), link(4, 5, 1),
		link(0, 1, 10), link(0, 2, 10), link(0, 3, 10), link(0, 4, 10),
	}

	out := FilterLongRange(cons, 6, FilterOptions{MaxPerParticle: 2})
	require.Len(t, out, 6)

	// Equal lengths tie-break on (A, B), so particle 0 keeps its links to
	// 1 and 2.
	assert.Equal(t, link(0, 1, 10), out[4])
	assert.Equal(t, link(0, 2, 10), out[5])
}

func TestFilterLongRangeExplicitCutoff(t *testing.T) {
	cons := []xpbd.Constraint{link(0, 1, 9), link(1, 2, 2)}

	out := FilterLongRange(cons, 3, FilterOptions{StructuralCutoff: 100})
	assert.Equal(t, cons, out, "everything under the cutoff keeps input order")
}

func TestFilterLongRangeEmpty(t *testing.T) {
	assert.Nil(t, FilterLongRange(nil, 0, DefaultFilterOptions()))
}
