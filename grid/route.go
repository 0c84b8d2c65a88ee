package grid

import (
	"math"

	"github.com/katalvlaran/pcbroute/errs"
	"github.com/katalvlaran/pcbroute/geom"
	"github.com/katalvlaran/pcbroute/model"
)

// Route is a net's committed or trial path: a sequence of segments and the
// vias connecting them across layers.
type Route struct {
	NetID    model.NetID
	Segments []model.Segment
	Vias     []model.Via
}

// viaCostMultiplier expresses a via's cost as roughly this many cells of
// planar travel, on top of the via's own clearance footprint cost.
const viaCostMultiplier = 3.0

// ViaCost returns the A* transition cost of a via hop, given the planar
// per-cell cost R.
func ViaCost(resolution float64) float64 {
	return viaCostMultiplier * resolution
}

// segmentCells walks s at sub-cell steps and returns the ordered, deduped
// set of (col, row) cells it passes through.
func (g *RoutingGrid) segmentCells(s model.Segment) [][2]int {
	dist := s.Start.Dist(s.End)
	steps := int(math.Ceil(dist/(g.cfg.Resolution/2))) + 1
	if steps < 1 {
		steps = 1
	}

	seen := make(map[[2]int]bool)
	out := make([][2]int, 0, steps)
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		p := model.Point{
			X: s.Start.X + (s.End.X-s.Start.X)*t,
			Y: s.Start.Y + (s.End.Y-s.Start.Y)*t,
		}
		col, row := g.ToCell(p)
		key := [2]int{col, row}
		if !seen[key] {
			seen[key] = true
			out = append(out, key)
		}
	}

	return out
}

// viaCells returns the cells covered by a via's outer-diameter annulus
// centered at v.Position.
func (g *RoutingGrid) viaCells(v model.Via) [][2]int {
	d := v.OuterDiameter
	box := geom.RectFromCenter(v.Position, d, d)

	return g.rectCells(box)
}

// MarkRoute commits route: every cell its segments pass through, and every
// cell of its via annuli at the layers the via spans, is marked blocked
// and carries route.NetID. A cell already owned by the same net is left
// blocked (a same-net short is permitted, not an error); a cell owned by a
// different net is overwritten — callers are expected to have validated
// route legality before committing.
func (g *RoutingGrid) MarkRoute(route Route) {
	for _, s := range route.Segments {
		li, ok := g.LayerIndex(s.Layer)
		if !ok {
			continue
		}
		for _, cr := range g.segmentCells(s) {
			col, row := cr[0], cr[1]
			if col < 0 || col >= g.cols || row < 0 || row >= g.rows {
				continue
			}
			c := &g.cells[li][row][col]
			c.Blocked = true
			c.NetID = route.NetID
		}
	}

	for _, v := range route.Vias {
		cells := g.viaCells(v)
		for _, ln := range v.LayersSpanned {
			li, ok := g.LayerIndex(ln)
			if !ok {
				continue
			}
			for _, cr := range cells {
				col, row := cr[0], cr[1]
				if col < 0 || col >= g.cols || row < 0 || row >= g.rows {
					continue
				}
				c := &g.cells[li][row][col]
				c.Blocked = true
				c.NetID = route.NetID
			}
		}
	}
}

// MarkRouteUsage increments usage_count (but does not block) on every cell
// route touches, for negotiated-congestion routing where routes may
// provisionally share cells before the winner is committed.
func (g *RoutingGrid) MarkRouteUsage(route Route) {
	g.walkRouteCells(route, func(li, row, col int) {
		g.cells[li][row][col].UsageCount++
	})
}

// RipUpUsage decrements usage_count on every cell route touches, undoing a
// prior MarkRouteUsage during negotiated rip-up/reroute. A cell route
// touches with usage_count already at zero means a MarkRouteUsage/RipUpUsage
// pair is mismatched somewhere upstream — that is a bug, not a recoverable
// condition, so it aborts via errs.Invariant rather than going negative.
func (g *RoutingGrid) RipUpUsage(route Route) {
	g.walkRouteCells(route, func(li, row, col int) {
		c := &g.cells[li][row][col]
		if c.UsageCount <= 0 {
			errs.Invariant("grid", "rip-up of a cell with usage_count already at zero")
		}
		c.UsageCount--
	})
}

func (g *RoutingGrid) walkRouteCells(route Route, fn func(layer, row, col int)) {
	for _, s := range route.Segments {
		li, ok := g.LayerIndex(s.Layer)
		if !ok {
			continue
		}
		for _, cr := range g.segmentCells(s) {
			col, row := cr[0], cr[1]
			if col < 0 || col >= g.cols || row < 0 || row >= g.rows {
				continue
			}
			fn(li, row, col)
		}
	}
	for _, v := range route.Vias {
		cells := g.viaCells(v)
		for _, ln := range v.LayersSpanned {
			li, ok := g.LayerIndex(ln)
			if !ok {
				continue
			}
			for _, cr := range cells {
				col, row := cr[0], cr[1]
				if col < 0 || col >= g.cols || row < 0 || row >= g.rows {
					continue
				}
				fn(li, row, col)
			}
		}
	}
}

// TouchesOverusedCell reports whether any cell route passes through
// currently has usage_count above capacity, the negotiated router's signal
// that a route is a rip-up/reroute candidate.
func (g *RoutingGrid) TouchesOverusedCell(route Route) bool {
	touches := false
	g.walkRouteCells(route, func(li, row, col int) {
		if g.cells[li][row][col].UsageCount > routeCapacity {
			touches = true
		}
	})

	return touches
}

// UpdateHistoryCosts adds increment to history_cost on every cell currently
// over capacity (usage_count > routeCapacity).
func (g *RoutingGrid) UpdateHistoryCosts(increment float64) {
	for l := range g.cells {
		for r := range g.cells[l] {
			for c := range g.cells[l][r] {
				if g.cells[l][r][c].UsageCount > routeCapacity {
					g.cells[l][r][c].HistoryCost += increment
				}
			}
		}
	}
}
