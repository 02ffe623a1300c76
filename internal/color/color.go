package color

import (
	"errors"
	"fmt"

	"github.com/san-kum/softsim/internal/xpbd"
)

var (
	// ErrUnknownStrategy indicates an unrecognized strategy name.
	ErrUnknownStrategy = errors.New("color: unknown strategy")

	// ErrParticleRange indicates a constraint referencing a particle
	// outside [0, particleCount).
	ErrParticleRange = errors.New("color: constraint particle index out of range")

	// ErrAssignment indicates a color slice that does not cover the
	// constraint set.
	ErrAssignment = errors.New("color: assignment does not cover constraint set")

	// ErrConflict indicates two constraints sharing a particle and a color.
	ErrConflict = errors.New("color: constraints sharing a particle share a color")
)

// Strategy selects how constraints are partitioned into groups that can
// be solved in parallel.
type Strategy uint8

const (
	// None gives every constraint its own color, which serializes the
	// solve in input order.
	None Strategy = iota

	// Greedy assigns each constraint the smallest color unused by its
	// particle neighbors.
	Greedy

	// Cluster merges constraints into conflict-free clusters, preferring
	// recently built clusters so nearby constraints stay together.
	Cluster

	// IndependentSet repeatedly extracts a maximal independent set from
	// the remaining pool; each set becomes one color.
	IndependentSet
)

func (s Strategy) String() string {
	switch s {
	case None:
		return "none"
	case Greedy:
		return "greedy"
	case Cluster:
		return "cluster"
	case IndependentSet:
		return "indepset"
	}
	return "unknown"
}

func ParseStrategy(name string) (Strategy, error) {
	switch name {
	case "none":
		return None, nil
	case "greedy", "":
		return Greedy, nil
	case "cluster":
		return Cluster, nil
	case "indepset":
		return IndependentSet, nil
	}
	return None, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
}

// Apply colors the constraint set so that no two constraints sharing a
// particle share a color. It is a pure function of its inputs: the same
// constraints and strategy always yield the same assignment. The returned
// colors are dense in [0, colorCount).
func Apply(constraints []xpbd.Constraint, particleCount int, s Strategy) ([]int, int, error) {
	for i := range constraints {
		c := &constraints[i]
		if c.A < 0 || c.A >= particleCount || c.B < 0 || c.B >= particleCount {
			return nil, 0, fmt.Errorf("%w: constraint %d", ErrParticleRange, i)
		}
	}
	if len(constraints) == 0 {
		return []int{}, 0, nil
	}

	switch s {
	case None:
		return noneColors(constraints)
	case Greedy:
		return greedyColors(constraints, particleCount)
	case Cluster:
		return clusterColors(constraints, particleCount)
	case IndependentSet:
		return indepSetColors(constraints, particleCount)
	}
	return nil, 0, fmt.Errorf("%w: %d", ErrUnknownStrategy, s)
}

// Verify checks the coloring invariant: constraints sharing a particle
// must not share a color.
func Verify(constraints []xpbd.Constraint, colors []int) error {
	if len(colors) != len(constraints) {
		return ErrAssignment
	}
	type slot struct{ particle, color int }
	seen := make(map[slot]int, 2*len(constraints))
	for i := range constraints {
		c := &constraints[i]
		for _, p := range [2]int{c.A, c.B} {
			k := slot{p, colors[i]}
			if j, ok := seen[k]; ok {
				return fmt.Errorf("%w: constraints %d and %d at particle %d", ErrConflict, j, i, p)
			}
			seen[k] = i
		}
	}
	return nil
}
