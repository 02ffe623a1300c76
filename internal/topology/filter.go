package topology

import (
	"sort"

	"github.com/san-kum/softsim/internal/xpbd"
)

// FilterOptions bounds the long-range constraint set. Constraints at or
// below the structural cutoff always survive; longer ones are admitted
// shortest-first under the degree and length caps.
type FilterOptions struct {
	StructuralCutoff float64 // 0 derives 1.5x the mean rest length
	MaxPerParticle   int     // long-range degree cap, 0 means no cap
	MaxLength        float64 // absolute rest length cap, 0 means no cap
}

func DefaultFilterOptions() FilterOptions {
	return FilterOptions{MaxPerParticle: 4}
}

// FilterLongRange returns a new constraint slice with the long-range tail
// pruned. The input order of surviving structural constraints is kept;
// admitted long-range constraints follow, shortest first.
func FilterLongRange(cons []xpbd.Constraint, particleCount int, opts FilterOptions) []xpbd.Constraint {
	if len(cons) == 0 {
		return nil
	}

	cutoff := opts.StructuralCutoff
	if cutoff <= 0 {
		mean := 0.0
		for i := range cons {
			mean += cons[i].RestLength
		}
		mean /= float64(len(cons))
		cutoff = 1.5 * mean
	}

	out := make([]xpbd.Constraint, 0, len(cons))
	long := make([]int, 0)
	for i := range cons {
		if cons[i].RestLength <= cutoff {
			out = append(out, cons[i])
		} else {
			long = append(long, i)
		}
	}

	sort.Slice(long, func(x, y int) bool {
		a, b := &cons[long[x]], &cons[long[y]]
		if a.RestLength != b.RestLength {
			return a.RestLength < b.RestLength
		}
		if a.A != b.A {
			return a.A < b.A
		}
		return a.B < b.B
	})

	degree := make([]int, particleCount)
	for _, i := range long {
		c := cons[i]
		if opts.MaxLength > 0 && c.RestLength > opts.MaxLength {
			break
		}
		if opts.MaxPerParticle > 0 &&
			(degree[c.A] >= opts.MaxPerParticle || degree[c.B] >= opts.MaxPerParticle) {
			continue
		}
		degree[c.A]++
		degree[c.B]++
		out = append(out, c)
	}
	return out
}
