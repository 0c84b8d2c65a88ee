// Package zonefill rasterizes a copper pour polygon into grid cells, carves
// clearance around other nets' copper, and cuts thermal-relief spokes
// around same-net pads before committing the result to a grid.RoutingGrid.
//
// Grounded on gridgraph's ConnectedComponents flood-fill traversal: the
// same "walk a grid, grow a region, mark visited" shape, here driving a
// polygon rasterization and clearance carve-out instead of a same-value
// connectivity search.
package zonefill

import (
	"math"
	"sort"

	"github.com/katalvlaran/pcbroute/geom"
	"github.com/katalvlaran/pcbroute/grid"
	"github.com/katalvlaran/pcbroute/model"
)

// spokeAngles are the four thermal-relief spoke directions, 45 degrees off
// the cardinal axes.
var spokeAngles = [4]float64{math.Pi / 4, 3 * math.Pi / 4, 5 * math.Pi / 4, 7 * math.Pi / 4}

// Rasterize returns every grid cell whose center falls inside zone's
// polygon, on zone's layer.
func Rasterize(g *grid.RoutingGrid, zone model.Zone) [][2]int {
	poly := geom.Polygon{Points: zone.Polygon}

	return g.ZoneCellsForPolygon(poly)
}

// differentNetOccupied reports whether cell c is occupied by a net other
// than netID: a real obstacle/trace, or another zone's already-committed
// fill — both count as something a later zone must clear.
func differentNetOccupied(c grid.Cell, netID model.NetID) bool {
	if c.NetID == netID {
		return false
	}

	return c.Blocked || c.IsZone
}

// ClearanceFilter drops every candidate cell that lies within
// zone.Clearance (Euclidean, mm) of a different-net occupied cell on
// zone's layer, per spec: zones never encroach on another net's copper.
func ClearanceFilter(g *grid.RoutingGrid, zone model.Zone, layerIdx int, candidates [][2]int) [][2]int {
	if zone.Clearance <= 0 {
		return candidates
	}

	radiusCells := int(math.Ceil(zone.Clearance/g.Resolution())) + 1

	occupied := make([][2]int, 0)
	for c := 0; c < g.Cols(); c++ {
		for r := 0; r < g.Rows(); r++ {
			cell, err := g.CellAt(c, r, layerIdx)
			if err == nil && differentNetOccupied(cell, zone.NetID) {
				occupied = append(occupied, [2]int{c, r})
			}
		}
	}

	out := make([][2]int, 0, len(candidates))
	for _, cand := range candidates {
		p := g.ToPoint(cand[0], cand[1])
		clear := true
		for _, o := range occupied {
			if abs(o[0]-cand[0]) > radiusCells || abs(o[1]-cand[1]) > radiusCells {
				continue
			}
			if p.Dist(g.ToPoint(o[0], o[1])) < zone.Clearance {
				clear = false

				break
			}
		}
		if clear {
			out = append(out, cand)
		}
	}

	return out
}

func abs(x int) int {
	if x < 0 {
		return -x
	}

	return x
}

// ApplyThermalRelief carves antipad rings and (for thermal policy) spokes
// around every same-net pad whose center falls inside the filled cell set,
// returning the updated cell set. PTH pads are always treated as thermal
// regardless of zone.ConnectPadsPolicy; other pads follow the zone policy.
func ApplyThermalRelief(g *grid.RoutingGrid, zone model.Zone, pads []model.Pad, filled map[[2]int]bool) map[[2]int]bool {
	for _, pad := range pads {
		if pad.NetID != zone.NetID {
			continue
		}
		if !filled[cellKey(g, pad.Center)] && !padCenterNearFilled(g, pad.Center, filled) {
			continue
		}

		policy := zone.ConnectPadsPolicy
		if pad.IsThroughHole {
			policy = model.ConnectThermal
		}

		switch policy {
		case model.ConnectSolid:
			// No carve: solid copper straight to the pad.
		case model.ConnectNone:
			padRadius := math.Max(pad.Width, pad.Height) / 2
			carveDisc(g, filled, pad.Center, padRadius+zone.Clearance)
		case model.ConnectThermal:
			padRadius := math.Max(pad.Width, pad.Height) / 2
			antipadRadius := padRadius + zone.ThermalGap
			carveDisc(g, filled, pad.Center, antipadRadius)
			addSpokes(g, filled, pad.Center, antipadRadius, zone.ThermalBridgeWidth)
		}
	}

	return filled
}

func cellKey(g *grid.RoutingGrid, p geom.Point) [2]int {
	col, row := g.ToCell(p)

	return [2]int{col, row}
}

// padCenterNearFilled reports whether a cell adjacent to p's cell is in
// filled, guarding against a pad center that rounds to a cell just outside
// the rasterized zone due to grid quantization.
func padCenterNearFilled(g *grid.RoutingGrid, p geom.Point, filled map[[2]int]bool) bool {
	col, row := g.ToCell(p)
	for dc := -1; dc <= 1; dc++ {
		for dr := -1; dr <= 1; dr++ {
			if filled[[2]int{col + dc, row + dr}] {
				return true
			}
		}
	}

	return false
}

// carveDisc removes every cell in filled whose center lies within radiusMM
// of center.
func carveDisc(g *grid.RoutingGrid, filled map[[2]int]bool, center geom.Point, radiusMM float64) {
	if radiusMM <= 0 {
		return
	}
	radiusCells := int(math.Ceil(radiusMM/g.Resolution())) + 1
	c0, r0 := g.ToCell(center)
	for dc := -radiusCells; dc <= radiusCells; dc++ {
		for dr := -radiusCells; dr <= radiusCells; dr++ {
			key := [2]int{c0 + dc, r0 + dr}
			if !filled[key] {
				continue
			}
			if g.ToPoint(key[0], key[1]).Dist(center) <= radiusMM {
				delete(filled, key)
			}
		}
	}
}

// addSpokes adds cells back into filled along 4 narrow rays from
// innerRadiusMM out to roughly 2x innerRadiusMM, at 45-degree offsets from
// the cardinal axes, each spokeWidthMM wide — reconnecting the pad to the
// surrounding pour through the antipad ring carveDisc just cut.
func addSpokes(g *grid.RoutingGrid, filled map[[2]int]bool, center geom.Point, innerRadiusMM, spokeWidthMM float64) {
	if spokeWidthMM <= 0 {
		return
	}
	outerRadiusMM := innerRadiusMM * 2
	halfWidth := spokeWidthMM / 2
	steps := int(math.Ceil((outerRadiusMM-innerRadiusMM)/(g.Resolution()/2))) + 1

	for _, angle := range spokeAngles {
		dx, dy := math.Cos(angle), math.Sin(angle)
		// Perpendicular unit vector, for the spoke's width.
		px, py := -dy, dx

		for i := 0; i <= steps; i++ {
			t := innerRadiusMM + (outerRadiusMM-innerRadiusMM)*float64(i)/float64(steps)
			for _, w := range []float64{-halfWidth, 0, halfWidth} {
				p := geom.Point{
					X: center.X + dx*t + px*w,
					Y: center.Y + dy*t + py*w,
				}
				filled[cellKey(g, p)] = true
			}
		}
	}
}

// Fill rasterizes, clearance-filters, and applies thermal relief for zone,
// then commits the result to g via AddZoneCells. Zones must be processed
// in ascending zone.Priority order by the caller (see FillAll) so that
// earlier-filled zones are visible as obstacles to ClearanceFilter.
func Fill(g *grid.RoutingGrid, zone model.Zone, pads []model.Pad) ([][2]int, error) {
	layerIdx, ok := g.LayerIndex(zone.Layer)
	if !ok {
		return nil, grid.ErrOutOfBounds
	}

	candidates := Rasterize(g, zone)
	candidates = ClearanceFilter(g, zone, layerIdx, candidates)

	filled := make(map[[2]int]bool, len(candidates))
	for _, c := range candidates {
		filled[c] = true
	}

	filled = ApplyThermalRelief(g, zone, pads, filled)

	out := make([][2]int, 0, len(filled))
	for c := range filled {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i][1] != out[j][1] {
			return out[i][1] < out[j][1]
		}

		return out[i][0] < out[j][0]
	})

	if err := g.AddZoneCells(zone, out, zone.Layer); err != nil {
		return nil, err
	}

	return out, nil
}

// FillAll fills every zone in ascending Priority order (lower fills
// first), so later zones see earlier ones as committed obstacles.
func FillAll(g *grid.RoutingGrid, zones []model.Zone, padsByNet map[model.NetID][]model.Pad) error {
	ordered := make([]model.Zone, len(zones))
	copy(ordered, zones)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Priority < ordered[j].Priority })

	for _, z := range ordered {
		if _, err := Fill(g, z, padsByNet[z.NetID]); err != nil {
			return err
		}
	}

	return nil
}
