package topology

import (
	"fmt"
	"math"

	"github.com/san-kum/softsim/internal/geom"
	"github.com/san-kum/softsim/internal/xpbd"
)

type RepairMode uint8

const (
	RepairOff RepairMode = iota
	RepairBridge
	RepairProximity
	RepairHybrid
)

func (m RepairMode) String() string {
	switch m {
	case RepairOff:
		return "off"
	case RepairBridge:
		return "bridge"
	case RepairProximity:
		return "proximity"
	case RepairHybrid:
		return "hybrid"
	}
	return "unknown"
}

func ParseRepairMode(name string) (RepairMode, error) {
	switch name {
	case "off", "":
		return RepairOff, nil
	case "bridge":
		return RepairBridge, nil
	case "proximity":
		return RepairProximity, nil
	case "hybrid":
		return RepairHybrid, nil
	}
	return RepairOff, fmt.Errorf("%w: unknown repair mode %q", ErrBadOptions, name)
}

// RepairOptions configures connectivity repair. Bridges are soft by
// default so they stabilize without fighting the structural set.
type RepairOptions struct {
	Mode        RepairMode
	Compliance  float64
	RadiusScale float64 // proximity radius as a multiple of the mean rest length
}

func DefaultRepairOptions() RepairOptions {
	return RepairOptions{
		Mode:        RepairBridge,
		Compliance:  1e-3,
		RadiusScale: 1.5,
	}
}

// RepairReport summarizes what a repair pass did. ComponentsAfter above 1
// means the graph is still split; callers treat that as a warning, not an
// error.
type RepairReport struct {
	ComponentsBefore int
	ComponentsAfter  int
	Added            int
}

// Components returns the connected components of the particle graph
// induced by the constraint set, in breadth-first discovery order,
// components ordered by their smallest particle index.
func Components(particleCount int, cons []xpbd.Constraint) [][]int {
	adj := make([][]int32, particleCount)
	for i := range cons {
		c := &cons[i]
		adj[c.A] = append(adj[c.A], int32(c.B))
		adj[c.B] = append(adj[c.B], int32(c.A))
	}

	visited := make([]bool, particleCount)
	var components [][]int
	queue := make([]int32, 0, particleCount)
	for start := 0; start < particleCount; start++ {
		if visited[start] {
			continue
		}
		visited[start] = true
		queue = append(queue[:0], int32(start))
		comp := []int{start}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			for _, next := range adj[cur] {
				if !visited[next] {
					visited[next] = true
					queue = append(queue, next)
					comp = append(comp, int(next))
				}
			}
		}
		components = append(components, comp)
	}
	return components
}

// Repair reconnects a split constraint graph in place. Bridge mode adds
// the minimum number of constraints (componentCount-1), each between the
// globally closest pair across the remaining components; proximity mode
// links every unconstrained pair inside the adaptive radius; hybrid runs
// both.
func Repair(topo *xpbd.Topology, opts RepairOptions) (RepairReport, error) {
	if opts.Compliance < 0 || opts.RadiusScale < 0 {
		return RepairReport{}, ErrBadOptions
	}
	if opts.RadiusScale == 0 {
		opts.RadiusScale = 1.5
	}

	before := Components(len(topo.Particles), topo.Constraints)
	report := RepairReport{ComponentsBefore: len(before), ComponentsAfter: len(before)}
	if opts.Mode == RepairOff {
		return report, nil
	}

	if opts.Mode == RepairBridge || opts.Mode == RepairHybrid {
		report.Added += bridgeComponents(topo, before, opts.Compliance)
	}
	if opts.Mode == RepairProximity || opts.Mode == RepairHybrid {
		report.Added += linkProximity(topo, opts)
	}

	report.ComponentsAfter = len(Components(len(topo.Particles), topo.Constraints))
	return report, nil
}

func bridgeComponents(topo *xpbd.Topology, components [][]int, compliance float64) int {
	if len(components) < 2 {
		return 0
	}

	compOf := make([]int, len(topo.Particles))
	for id, members := range components {
		for _, p := range members {
			compOf[p] = id
		}
	}
	parent := make([]int, len(components))
	for i := range parent {
		parent[i] = i
	}
	find := func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}

	added := 0
	for remaining := len(components); remaining > 1; remaining-- {
		bestA, bestB := -1, -1
		bestSq := math.Inf(1)
		for a := 0; a < len(topo.Particles); a++ {
			pa := topo.Particles[a].Position
			ca := find(compOf[a])
			for b := a + 1; b < len(topo.Particles); b++ {
				if ca == find(compOf[b]) {
					continue
				}
				if d := topo.Particles[b].Position.Sub(pa).LenSqr(); d < bestSq {
					bestSq = d
					bestA, bestB = a, b
				}
			}
		}
		if bestA < 0 {
			break
		}
		rest := math.Sqrt(bestSq)
		if rest < xpbd.MinRestLength {
			rest = xpbd.MinRestLength
		}
		topo.Constraints = append(topo.Constraints, xpbd.Constraint{
			A: bestA, B: bestB,
			RestLength: rest,
			Compliance: compliance,
			Kind:       xpbd.KindRepair,
		})
		parent[find(compOf[bestB])] = find(compOf[bestA])
		added++
	}
	return added
}

func linkProximity(topo *xpbd.Topology, opts RepairOptions) int {
	if len(topo.Constraints) == 0 {
		return 0
	}
	mean := 0.0
	for i := range topo.Constraints {
		mean += topo.Constraints[i].RestLength
	}
	mean /= float64(len(topo.Constraints))
	radius := opts.RadiusScale * mean
	radiusSq := radius * radius

	existing := make(map[geom.Edge]struct{}, len(topo.Constraints))
	for i := range topo.Constraints {
		existing[geom.OrderedEdge(topo.Constraints[i].A, topo.Constraints[i].B)] = struct{}{}
	}

	added := 0
	for a := 0; a < len(topo.Particles); a++ {
		pa := topo.Particles[a].Position
		for b := a + 1; b < len(topo.Particles); b++ {
			if _, ok := existing[geom.Edge{A: a, B: b}]; ok {
				continue
			}
			dSq := topo.Particles[b].Position.Sub(pa).LenSqr()
			if dSq > radiusSq {
				continue
			}
			rest := math.Sqrt(dSq)
			if rest < xpbd.MinRestLength {
				continue
			}
			topo.Constraints = append(topo.Constraints, xpbd.Constraint{
				A: a, B: b,
				RestLength: rest,
				Compliance: opts.Compliance,
				Kind:       xpbd.KindRepair,
			})
			existing[geom.Edge{A: a, B: b}] = struct{}{}
			added++
		}
	}
	return added
}
