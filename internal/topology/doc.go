// Package topology builds constraint networks for deformable bodies.
//
// Two construction paths produce an [xpbd.Topology]:
//
//   - [BuildLattice]: regular particle grid with structural, shear and
//     bend links plus a five-tetrahedron volume decomposition per cell
//   - [BuildFromMesh]: welds a triangle mesh and derives constraints
//     from its edges, with optional interior sampling for volume support
//
// Post-processing passes tune the raw network:
//
//   - [FilterLongRange]: prunes interior support links by length and
//     per-particle degree
//   - [Repair]: reconnects split constraint graphs so one solve step
//     moves the whole body coherently
//
// # Connectivity
//
// Welding and filtering can leave the constraint graph disconnected.
// [Components] reports the split, and [Repair] bridges it:
//
//	report, err := topology.Repair(topo, topology.DefaultRepairOptions())
//	if report.ComponentsAfter > 1 {
//	    // body still split, likely degenerate input geometry
//	}
package topology
