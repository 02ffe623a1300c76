package topology

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/softsim/internal/xpbd"
)

// threeIslands lays out three two-particle clusters along the x axis with
// intra-cluster constraints only, so the graph has three components.
func threeIslands() *xpbd.Topology {
	at := func(x float64) xpbd.Particle {
		return xpbd.Particle{Position: mgl64.Vec3{x, 0, 0}, InvMass: 1}
	}
	return &xpbd.Topology{
		Particles: []xpbd.Particle{
			at(0), at(0.2),
			at(1.0), at(1.2),
			at(3.0), at(3.2),
		},
		Constraints: []xpbd.Constraint{
			{A: 0, B: 1, RestLength: 0.2},
			{A: 2, B: 3, RestLength: 0.2},
			{A: 4, B: 5, RestLength: 0.2},
		},
	}
}

func TestComponents(t *testing.T) {
	cons := []xpbd.Constraint{
		{A: 0, B: 1, RestLength: 1},
		{A: 1, B: 2, RestLength: 1},
		{A: 3, B: 4, RestLength: 1},
	}
	comps := Components(6, cons)
	assert.Equal(t, [][]int{{0, 1, 2}, {3, 4}, {5}}, comps)

	lonely := Components(3, nil)
	assert.Equal(t, [][]int{{0}, {1}, {2}}, lonely)
}

func TestRepairBridge(t *testing.T) {
	topo := threeIslands()
	opts := DefaultRepairOptions()

	report, err := Repair(topo, opts)
	require.NoError(t, err)

	assert.Equal(t, 3, report.ComponentsBefore)
	assert.Equal(t, 1, report.ComponentsAfter)
	assert.Equal(t, 2, report.Added, "k components need exactly k-1 bridges")
	require.Len(t, topo.Constraints, 5)

	first, second := topo.Constraints[3], topo.Constraints[4]
	assert.Equal(t, xpbd.KindRepair, first.Kind)
	assert.Equal(t, xpbd.KindRepair, second.Kind)
	assert.Equal(t, opts.Compliance, first.Compliance)

	// The globally closest cross-component pairs, in merge order.
	assert.Equal(t, 1, first.A)
	assert.Equal(t, 2, first.B)
	assert.InDelta(t, 0.8, first.RestLength, 1e-12)
	assert.Equal(t, 3, second.A)
	assert.Equal(t, 4, second.B)
	assert.InDelta(t, 1.8, second.RestLength, 1e-12)
}

func TestRepairBridgeClampsRest(t *testing.T) {
	topo := &xpbd.Topology{
		Particles: []xpbd.Particle{
			{Position: mgl64.Vec3{0, 0, 0}, InvMass: 1},
			{Position: mgl64.Vec3{0, 0, 0}, InvMass: 1},
			{Position: mgl64.Vec3{1, 0, 0}, InvMass: 1},
		},
		Constraints: []xpbd.Constraint{{A: 1, B: 2, RestLength: 1}},
	}

	report, err := Repair(topo, RepairOptions{Mode: RepairBridge, Compliance: 1e-3})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Added)

	bridge := topo.Constraints[len(topo.Constraints)-1]
	assert.Equal(t, xpbd.MinRestLength, bridge.RestLength,
		"coincident endpoints clamp to the stability floor")
	require.NoError(t, topo.Validate())
}

func TestRepairProximity(t *testing.T) {
	topo := &xpbd.Topology{
		Particles: []xpbd.Particle{
			{Position: mgl64.Vec3{0, 0, 0}, InvMass: 1},
			{Position: mgl64.Vec3{0.5, 0, 0}, InvMass: 1},
			{Position: mgl64.Vec3{0.5, 0.6, 0}, InvMass: 1},
		},
		Constraints: []xpbd.Constraint{{A: 0, B: 1, RestLength: 0.5}},
	}

	// Mean rest length 0.5 gives radius 0.75: pair (1,2) at 0.6 is inside,
	// pair (0,2) at ~0.78 is not.
	report, err := Repair(topo, RepairOptions{Mode: RepairProximity, Compliance: 1e-4, RadiusScale: 1.5})
	require.NoError(t, err)

	assert.Equal(t, 2, report.ComponentsBefore)
	assert.Equal(t, 1, report.ComponentsAfter)
	require.Equal(t, 1, report.Added)

	added := topo.Constraints[1]
	assert.Equal(t, 1, added.A)
	assert.Equal(t, 2, added.B)
	assert.InDelta(t, 0.6, added.RestLength, 1e-12)
	assert.Equal(t, xpbd.KindRepair, added.Kind)
}

func TestRepairHybrid(t *testing.T) {
	topo := threeIslands()
	opts := RepairOptions{Mode: RepairHybrid, Compliance: 1e-3, RadiusScale: 2.0}

	report, err := Repair(topo, opts)
	require.NoError(t, err)

	// Two bridges first, then proximity links (0,2), (0,3) and (1,3)
	// inside the widened radius.
	assert.Equal(t, 3, report.ComponentsBefore)
	assert.Equal(t, 1, report.ComponentsAfter)
	assert.Equal(t, 5, report.Added)

	repairs := 0
	for i := range topo.Constraints {
		if topo.Constraints[i].Kind == xpbd.KindRepair {
			repairs++
		}
	}
	assert.Equal(t, 5, repairs)
}

func TestRepairOff(t *testing.T) {
	topo := threeIslands()
	report, err := Repair(topo, RepairOptions{Mode: RepairOff})
	require.NoError(t, err)
	assert.Equal(t, 0, report.Added)
	assert.Equal(t, report.ComponentsBefore, report.ComponentsAfter)
	assert.Len(t, topo.Constraints, 3)
}

func TestRepairBadOptions(t *testing.T) {
	topo := threeIslands()
	_, err := Repair(topo, RepairOptions{Mode: RepairBridge, Compliance: -1})
	assert.True(t, errors.Is(err, ErrBadOptions))
	_, err = Repair(topo, RepairOptions{Mode: RepairBridge, RadiusScale: -1})
	assert.True(t, errors.Is(err, ErrBadOptions))
}

func TestParseRepairMode(t *testing.T) {
	for _, mode := range []RepairMode{RepairOff, RepairBridge, RepairProximity, RepairHybrid} {
		parsed, err := ParseRepairMode(mode.String())
		require.NoError(t, err)
		assert.Equal(t, mode, parsed)
	}

	parsed, err := ParseRepairMode("")
	require.NoError(t, err)
	assert.Equal(t, RepairOff, parsed)

	_, err = ParseRepairMode("quantum")
	assert.True(t, errors.Is(err, ErrBadOptions))
}
