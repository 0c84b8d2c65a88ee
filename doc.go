// Package pcbroute is a PCB autorouter and signal-integrity toolkit: a
// routing grid and pathfinder for single connections, a net router for
// multi-pad nets, negotiated-congestion rip-up/reroute for contested
// boards, Monte Carlo multi-start and adaptive layer escalation on top of
// it, and a set of analyses (connectivity, congestion, signal integrity,
// thermal, trace length, pre-routing routability) that read a board
// without mutating it.
//
// The public surface is organized by concern:
//
//	geom/        — points, rects, polygons, distance and containment math
//	model/       — board-side types consumed from a loader: pads, nets, zones, rules
//	stackup/     — layer stacks, dielectric materials, reference-plane geometry
//	tline/       — microstrip/stripline impedance and inverse width lookups
//	coupledline/ — coupled-line coupling coefficient and differential impedance
//	timing/      — propagation delay, length matching, differential pair skew
//	grid/        — the routing grid: cell occupancy, usage, history cost
//	pathfinder/  — single-connection A* search and failure diagnosis
//	netrouter/   — multi-pad net routing (Manhattan minimum-spanning-tree pad ordering over pathfinder)
//	negotiated/  — PathFinder-style negotiated-congestion routing
//	montecarlo/  — multi-start routing over randomized net orderings
//	adaptive/    — layer-count escalation when a board fails to route on fewer layers
//	zonefill/    — copper pour flood-fill and thermal relief spokes
//	bus/         — bus detection from net names and coordinated bus routing
//	netclass/    — net-name to net-class matching and per-class routing priority
//	diffpair/    — differential pair detection from net name conventions and paired routing
//	analysis/    — connectivity, congestion, signal-integrity, thermal, trace-length, routability reports
//	autorouter/  — the top-level assembly wiring all of the above over one board
//	config/      — a functional-options aggregator over every package's documented defaults
//	errs/        — shared validation-error and invariant-violation types
//	serialize/   — the JSON boundary every report type crosses
package pcbroute
