package color

import (
	"sort"

	"github.com/san-kum/softsim/internal/xpbd"
)

func noneColors(constraints []xpbd.Constraint) ([]int, int, error) {
	colors := make([]int, len(constraints))
	for i := range colors {
		colors[i] = i
	}
	return colors, len(constraints), nil
}

func greedyColors(constraints []xpbd.Constraint, particleCount int) ([]int, int, error) {
	incident := make([][]int32, particleCount)
	for i := range constraints {
		c := &constraints[i]
		incident[c.A] = append(incident[c.A], int32(i))
		incident[c.B] = append(incident[c.B], int32(i))
	}

	colors := make([]int, len(constraints))
	for i := range colors {
		colors[i] = -1
	}
	// mark[color] holds the index of the constraint that last saw the
	// color taken, which avoids clearing between iterations.
	mark := make([]int, len(constraints))
	for i := range mark {
		mark[i] = -1
	}

	count := 0
	for i := range constraints {
		c := &constraints[i]
		for _, j := range incident[c.A] {
			if cj := colors[j]; cj >= 0 {
				mark[cj] = i
			}
		}
		for _, j := range incident[c.B] {
			if cj := colors[j]; cj >= 0 {
				mark[cj] = i
			}
		}
		col := 0
		for mark[col] == i {
			col++
		}
		colors[i] = col
		if col+1 > count {
			count = col + 1
		}
	}
	return colors, count, nil
}

type constraintCluster struct {
	members   []int
	particles map[int]struct{}
}

func (cl *constraintCluster) accepts(a, b int) bool {
	if _, ok := cl.particles[a]; ok {
		return false
	}
	_, ok := cl.particles[b]
	return !ok
}

func (cl *constraintCluster) add(idx, a, b int) {
	cl.members = append(cl.members, idx)
	cl.particles[a] = struct{}{}
	cl.particles[b] = struct{}{}
}

// clusterColors sorts constraints by their particle span and folds each
// into the most recently built compatible cluster, so spatially adjacent
// constraints end up grouped. Every cluster becomes one color.
func clusterColors(constraints []xpbd.Constraint, particleCount int) ([]int, int, error) {
	order := make([]int, len(constraints))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(x, y int) bool {
		a, b := &constraints[order[x]], &constraints[order[y]]
		aMin, aMax := minMax(a.A, a.B)
		bMin, bMax := minMax(b.A, b.B)
		if aMin != bMin {
			return aMin < bMin
		}
		if aMax != bMax {
			return aMax < bMax
		}
		return order[x] < order[y]
	})

	var clusters []*constraintCluster
	colors := make([]int, len(constraints))
	for _, idx := range order {
		c := &constraints[idx]
		placed := false
		for k := len(clusters) - 1; k >= 0; k-- {
			if clusters[k].accepts(c.A, c.B) {
				clusters[k].add(idx, c.A, c.B)
				colors[idx] = k
				placed = true
				break
			}
		}
		if !placed {
			cl := &constraintCluster{particles: make(map[int]struct{}, 8)}
			cl.add(idx, c.A, c.B)
			clusters = append(clusters, cl)
			colors[idx] = len(clusters) - 1
		}
	}
	return colors, len(clusters), nil
}

func minMax(a, b int) (int, int) {
	if a < b {
		return a, b
	}
	return b, a
}

// indepSetColors caps the number of extraction passes; anything still
// uncolored afterwards folds into the first compatible color group.
const maxIndepPasses = 256

func indepSetColors(constraints []xpbd.Constraint, particleCount int) ([]int, int, error) {
	colors := make([]int, len(constraints))
	for i := range colors {
		colors[i] = -1
	}

	remaining := make([]int, len(constraints))
	for i := range remaining {
		remaining[i] = i
	}

	var groups []map[int]struct{}
	used := make([]int, particleCount)
	for i := range used {
		used[i] = -1
	}

	pass := 0
	for len(remaining) > 0 && pass < maxIndepPasses {
		group := make(map[int]struct{}, 2*len(remaining))
		leftover := remaining[:0]
		for _, idx := range remaining {
			c := &constraints[idx]
			if used[c.A] == pass || used[c.B] == pass {
				leftover = append(leftover, idx)
				continue
			}
			used[c.A], used[c.B] = pass, pass
			group[c.A] = struct{}{}
			group[c.B] = struct{}{}
			colors[idx] = pass
		}
		groups = append(groups, group)
		remaining = leftover
		pass++
	}

	for _, idx := range remaining {
		c := &constraints[idx]
		placed := false
		for k, g := range groups {
			if _, ok := g[c.A]; ok {
				continue
			}
			if _, ok := g[c.B]; ok {
				continue
			}
			g[c.A] = struct{}{}
			g[c.B] = struct{}{}
			colors[idx] = k
			placed = true
			break
		}
		if !placed {
			groups = append(groups, map[int]struct{}{c.A: {}, c.B: {}})
			colors[idx] = len(groups) - 1
		}
	}
	return colors, len(groups), nil
}
