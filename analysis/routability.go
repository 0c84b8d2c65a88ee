package analysis

import (
	"math"
	"sort"

	"github.com/katalvlaran/pcbroute/geom"
	"github.com/katalvlaran/pcbroute/model"
	"github.com/katalvlaran/pcbroute/pathfinder"
)

// RoutabilityConfig parameterizes a pre-routing routability scan: how
// finely the board is rasterized and the thresholds that turn raw
// obstacle/congestion counts into a severity verdict.
type RoutabilityConfig struct {
	CellSizeMM          float64 // grid resolution, defaults to 0.5mm
	CongestionRegionMM  float64 // radius used to count competing nets, defaults to 5.0mm
	CongestionThreshold float64 // density above which a region counts as congested, defaults to 0.7
	MSTRouteFactor      float64 // actual-route-length multiplier over MST length, defaults to 1.2
}

func (cfg *RoutabilityConfig) setDefaults() {
	if cfg.CellSizeMM <= 0 {
		cfg.CellSizeMM = 0.5
	}
	if cfg.CongestionRegionMM <= 0 {
		cfg.CongestionRegionMM = 5.0
	}
	if cfg.CongestionThreshold <= 0 {
		cfg.CongestionThreshold = 0.7
	}
	if cfg.MSTRouteFactor <= 0 {
		cfg.MSTRouteFactor = 1.2
	}
}

// CongestionZone is a region where multiple nets compete for routing
// channels.
type CongestionZone struct {
	Center            geom.Point
	RadiusMM          float64
	Density           float64
	CompetingNets     []string
	AvailableChannels int
	IsBottleneck      bool
}

// NetRoutabilityReport is the pre-routing routability estimate for one net,
// derived from the minimum spanning tree over its pads and a straight-line
// obstacle scan along each MST edge.
type NetRoutabilityReport struct {
	NetName           string
	PadCount          int
	EstimatedLengthMM float64
	Obstacles         []pathfinder.BlockingObstacle
	CongestionZones   []CongestionZone
	Severity          Severity
	DifficultyScore   float64
	Unroutable        bool
	Suggestions       []string
}

// RoutabilityReport aggregates per-net routability with board-wide
// congestion and layer-utilization findings.
type RoutabilityReport struct {
	Nets                 []NetRoutabilityReport
	GlobalCongestion     []CongestionZone
	LayerUtilization     map[string]float64
	EstimatedSuccessRate float64
	Recommendations      []string
}

type routabilityCell struct {
	nets       map[model.NetID]bool
	layers     map[string]bool
	usageCount int
	isZone     bool
	isPad      bool
}

// routabilityGrid is a sparse occupancy grid built once from a BoardSample
// and shared read-only across every net's obstacle/congestion scan.
type routabilityGrid struct {
	cellSize float64
	cells    map[[2]int]*routabilityCell
	minCol   int
	minRow   int
	maxCol   int
	maxRow   int
	netNames map[model.NetID]string
}

func (g *routabilityGrid) toCell(p geom.Point) (int, int) {
	return int(math.Floor(p.X / g.cellSize)), int(math.Floor(p.Y / g.cellSize))
}

func (g *routabilityGrid) toPoint(col, row int) geom.Point {
	return geom.Point{X: (float64(col) + 0.5) * g.cellSize, Y: (float64(row) + 0.5) * g.cellSize}
}

func (g *routabilityGrid) at(col, row int) *routabilityCell {
	key := [2]int{col, row}
	c, ok := g.cells[key]
	if !ok {
		c = &routabilityCell{nets: make(map[model.NetID]bool), layers: make(map[string]bool)}
		g.cells[key] = c
		if col < g.minCol {
			g.minCol = col
		}
		if col > g.maxCol {
			g.maxCol = col
		}
		if row < g.minRow {
			g.minRow = row
		}
		if row > g.maxRow {
			g.maxRow = row
		}
	}

	return c
}

func buildRoutabilityGrid(board BoardSample, cellSize float64) *routabilityGrid {
	g := &routabilityGrid{cellSize: cellSize, cells: make(map[[2]int]*routabilityCell), netNames: board.NetNames}

	for _, fp := range board.Footprints {
		for _, p := range fp.Pads {
			col, row := g.toCell(p.Center)
			cell := g.at(col, row)
			cell.isPad = true
			if p.NetID != model.UnconnectedNet {
				cell.nets[p.NetID] = true
			}
		}
	}

	for _, seg := range board.Segments {
		length := seg.Length()
		steps := int(length/cellSize) + 1
		if steps < 1 {
			steps = 1
		}
		for i := 0; i <= steps; i++ {
			t := float64(i) / float64(steps)
			pt := geom.Point{X: seg.Start.X + t*(seg.End.X-seg.Start.X), Y: seg.Start.Y + t*(seg.End.Y-seg.Start.Y)}
			col, row := g.toCell(pt)
			cell := g.at(col, row)
			cell.usageCount++
			cell.layers[seg.Layer] = true
			if seg.NetID != model.UnconnectedNet {
				cell.nets[seg.NetID] = true
			}
		}
	}

	for _, v := range board.Vias {
		col, row := g.toCell(v.Position)
		cell := g.at(col, row)
		cell.usageCount++
		if v.NetID != model.UnconnectedNet {
			cell.nets[v.NetID] = true
		}
	}

	for _, z := range board.Zones {
		if len(z.Polygon) < 3 {
			continue
		}
		poly := geom.Polygon{Points: z.Polygon}
		box := poly.BoundingBox()
		c0, r0 := g.toCell(box.Min)
		c1, r1 := g.toCell(box.Max)
		for row := r0; row <= r1; row++ {
			for col := c0; col <= c1; col++ {
				if !poly.Contains(g.toPoint(col, row)) {
					continue
				}
				cell := g.at(col, row)
				cell.isZone = true
				if z.NetID != model.UnconnectedNet {
					cell.nets[z.NetID] = true
				}
			}
		}
	}

	return g
}

// countNetsInRegion returns the set of distinct nets (other than self)
// touching any cell within radiusMM of center.
func (g *routabilityGrid) countNetsInRegion(center geom.Point, radiusMM float64, self model.NetID) map[model.NetID]bool {
	c0, r0 := g.toCell(geom.Point{X: center.X - radiusMM, Y: center.Y - radiusMM})
	c1, r1 := g.toCell(geom.Point{X: center.X + radiusMM, Y: center.Y + radiusMM})

	nets := make(map[model.NetID]bool)
	for row := r0; row <= r1; row++ {
		for col := c0; col <= c1; col++ {
			cell, ok := g.cells[[2]int{col, row}]
			if !ok {
				continue
			}
			for id := range cell.nets {
				if id != self {
					nets[id] = true
				}
			}
		}
	}

	return nets
}

// regionDensity estimates local routing-channel pressure as the fraction
// of cells within radiusMM of center that carry traffic from any net.
func (g *routabilityGrid) regionDensity(center geom.Point, radiusMM float64) float64 {
	c0, r0 := g.toCell(geom.Point{X: center.X - radiusMM, Y: center.Y - radiusMM})
	c1, r1 := g.toCell(geom.Point{X: center.X + radiusMM, Y: center.Y + radiusMM})

	total, occupied := 0, 0
	for row := r0; row <= r1; row++ {
		for col := c0; col <= c1; col++ {
			total++
			cell, ok := g.cells[[2]int{col, row}]
			if ok && (cell.usageCount > 0 || cell.isPad || cell.isZone) {
				occupied++
			}
		}
	}
	if total == 0 {
		return 0
	}

	return float64(occupied) / float64(total)
}

// AnalyzeRoutability estimates, before routing, how hard each net will be
// to route: an MST-based length estimate, obstacles found along the
// straight-line path between MST-connected pad pairs, and local congestion.
// It also reports board-wide congestion zones and per-layer utilization.
func AnalyzeRoutability(board BoardSample, cfg RoutabilityConfig) RoutabilityReport {
	cfg.setDefaults()

	g := buildRoutabilityGrid(board, cfg.CellSizeMM)
	netPads := padsByNet(board)

	netIDs := make([]model.NetID, 0, len(netPads))
	for id := range netPads {
		netIDs = append(netIDs, id)
	}
	sort.Slice(netIDs, func(i, j int) bool { return netNameOr(board.NetNames, netIDs[i]) < netNameOr(board.NetNames, netIDs[j]) })

	report := RoutabilityReport{LayerUtilization: layerUtilization(g, board)}

	var weightedSuccess, totalPads float64
	for _, id := range netIDs {
		pads := netPads[id]
		netReport := analyzeNetRoutability(g, id, board.NetNames[id], pads, cfg)
		report.Nets = append(report.Nets, netReport)

		weight := float64(len(pads))
		weightedSuccess += weight * successRateFor(netReport.Severity)
		totalPads += weight
	}
	if totalPads > 0 {
		report.EstimatedSuccessRate = geom.Round(weightedSuccess/totalPads, 3)
	} else {
		report.EstimatedSuccessRate = 1.0
	}

	report.GlobalCongestion = findGlobalCongestionZones(g, cfg)
	report.Recommendations = buildRoutabilityRecommendations(report, len(g.cells) > 0 && len(board.NetNames) > 0)

	return report
}

func padsByNet(board BoardSample) map[model.NetID][]model.Pad {
	out := make(map[model.NetID][]model.Pad)
	for _, fp := range board.Footprints {
		for _, p := range fp.Pads {
			if p.NetID == model.UnconnectedNet {
				continue
			}
			out[p.NetID] = append(out[p.NetID], p)
		}
	}

	return out
}

var successRateBySeverity = map[Severity]float64{
	SeverityLow:      0.98,
	SeverityMedium:   0.90,
	SeverityHigh:     0.70,
	SeverityCritical: 0.40,
}

func successRateFor(s Severity) float64 {
	if r, ok := successRateBySeverity[s]; ok {
		return r
	}

	return 0.98
}

func analyzeNetRoutability(g *routabilityGrid, netID model.NetID, netName string, pads []model.Pad, cfg RoutabilityConfig) NetRoutabilityReport {
	report := NetRoutabilityReport{NetName: netName, PadCount: len(pads)}
	if len(pads) < 2 {
		report.Severity = SeverityLow

		return report
	}

	edges, mstLength := minimumSpanningTree(pads)
	report.EstimatedLengthMM = geom.Round(mstLength*cfg.MSTRouteFactor, 3)

	obstacleSeen := make(map[geom.Point]bool)
	var obstacles []pathfinder.BlockingObstacle
	var zones []CongestionZone
	bottleneckCount := 0
	var densitySum float64

	for _, e := range edges {
		a, b := pads[e[0]].Center, pads[e[1]].Center
		for _, obs := range pathObstacles(g, netID, a, b) {
			if obstacleSeen[obs.Position] {
				continue
			}
			obstacleSeen[obs.Position] = true
			obstacles = append(obstacles, obs)
		}

		mid := geom.Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
		density := g.regionDensity(mid, cfg.CongestionRegionMM)
		densitySum += density
		if density < cfg.CongestionThreshold {
			continue
		}

		competing := g.countNetsInRegion(mid, cfg.CongestionRegionMM, netID)
		channels := int((1 - density) * 3)
		if channels < 1 {
			channels = 1
		}
		zone := CongestionZone{
			Center:            mid,
			RadiusMM:          cfg.CongestionRegionMM,
			Density:           geom.Round(density, 3),
			CompetingNets:     netNamesFromSet(g, competing),
			AvailableChannels: channels,
			IsBottleneck:      len(competing) > channels,
		}
		if zone.IsBottleneck {
			bottleneckCount++
		}
		zones = append(zones, zone)
	}

	report.Obstacles = obstacles
	report.CongestionZones = zones
	report.Severity = severityForObstacles(len(obstacles), bottleneckCount)
	report.Unroutable = report.Severity == SeverityCritical
	report.DifficultyScore = math.Min(100, 15*float64(len(obstacles))+20*densitySum+25*float64(bottleneckCount))
	report.Suggestions = suggestRoutabilityFixes(report)

	return report
}

func severityForObstacles(obstacleCount, bottleneckCount int) Severity {
	var sev Severity
	switch {
	case obstacleCount > 5:
		sev = SeverityCritical
	case obstacleCount > 2:
		sev = SeverityHigh
	case obstacleCount > 0:
		sev = SeverityMedium
	default:
		sev = SeverityLow
	}

	if bottleneckCount > 0 {
		sev = escalateSeverity(sev)
	}

	return sev
}

func escalateSeverity(s Severity) Severity {
	switch s {
	case SeverityLow:
		return SeverityMedium
	case SeverityMedium:
		return SeverityHigh
	default:
		return SeverityCritical
	}
}

// pathObstacles samples the straight line between a and b at grid
// resolution and reports every occupied cell belonging to a net other
// than netID.
func pathObstacles(g *routabilityGrid, netID model.NetID, a, b geom.Point) []pathfinder.BlockingObstacle {
	c0, r0 := g.toCell(a)
	c1, r1 := g.toCell(b)
	dCol, dRow := c1-c0, r1-r0
	steps := maxAbs(dCol, dRow)
	if steps < 1 {
		steps = 1
	}

	var obstacles []pathfinder.BlockingObstacle
	seen := make(map[[2]int]bool)
	for step := 0; step <= steps; step++ {
		t := float64(step) / float64(steps)
		col := c0 + int(t*float64(dCol))
		row := r0 + int(t*float64(dRow))
		if seen[[2]int{col, row}] {
			continue
		}
		seen[[2]int{col, row}] = true

		cell, ok := g.cells[[2]int{col, row}]
		if !ok || cell.nets[netID] || len(cell.nets) == 0 {
			continue
		}
		if !cell.isPad && !cell.isZone && cell.usageCount == 0 {
			continue
		}

		var blockingNet model.NetID
		for id := range cell.nets {
			blockingNet = id

			break
		}

		kind := pathfinder.ObstacleComponent
		switch {
		case cell.isZone:
			kind = pathfinder.ObstacleZone
		case cell.usageCount > 0:
			kind = pathfinder.ObstacleTrace
		case cell.isPad:
			kind = pathfinder.ObstaclePad
		}

		obstacles = append(obstacles, pathfinder.BlockingObstacle{
			Kind:     kind,
			Position: g.toPoint(col, row),
			NetID:    blockingNet,
		})
	}

	return obstacles
}

func maxAbs(a, b int) int {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	if a > b {
		return a
	}

	return b
}

// minimumSpanningTree runs Prim's algorithm over pads using Manhattan
// distance, returning the MST edges (as pad index pairs) and total length.
func minimumSpanningTree(pads []model.Pad) ([][2]int, float64) {
	n := len(pads)
	dist := make([]float64, n)
	parent := make([]int, n)
	for i := range dist {
		dist[i] = math.Inf(1)
		parent[i] = -1
	}

	for i := 1; i < n; i++ {
		dist[i] = pads[0].Center.ManhattanDist(pads[i].Center)
		parent[i] = 0
	}

	visited := make([]bool, n)
	visited[0] = true
	var edges [][2]int
	var total float64

	for count := 1; count < n; count++ {
		best, bestDist := -1, math.Inf(1)
		for i := 0; i < n; i++ {
			if !visited[i] && dist[i] < bestDist {
				best, bestDist = i, dist[i]
			}
		}
		if best == -1 {
			break
		}
		visited[best] = true
		total += dist[best]
		edges = append(edges, [2]int{parent[best], best})

		for i := 0; i < n; i++ {
			if visited[i] {
				continue
			}
			d := pads[best].Center.ManhattanDist(pads[i].Center)
			if d < dist[i] {
				dist[i] = d
				parent[i] = best
			}
		}
	}

	return edges, total
}

func netNamesFromSet(g *routabilityGrid, nets map[model.NetID]bool) []string {
	var names []string
	for id := range nets {
		names = append(names, netNameOr(g.netNames, id))
	}
	sort.Strings(names)

	return names
}

func layerUtilization(g *routabilityGrid, board BoardSample) map[string]float64 {
	layers := make(map[string]bool)
	for _, seg := range board.Segments {
		layers[seg.Layer] = true
	}

	total := 0
	if g.maxCol >= g.minCol && g.maxRow >= g.minRow {
		total = (g.maxCol - g.minCol + 1) * (g.maxRow - g.minRow + 1)
	}

	util := make(map[string]float64, len(layers))
	for layer := range layers {
		if total == 0 {
			util[layer] = 0

			continue
		}
		occupied := 0
		for _, cell := range g.cells {
			if cell.layers[layer] {
				occupied++
			}
		}
		util[layer] = geom.Round(float64(occupied)/float64(total), 3)
	}

	return util
}

// findGlobalCongestionZones scans the whole occupancy grid independent of
// any single net, merging nearby congested cells, matching the per-net
// scan's density/channel logic.
func findGlobalCongestionZones(g *routabilityGrid, cfg RoutabilityConfig) []CongestionZone {
	type candidate struct {
		center  geom.Point
		density float64
	}

	var candidates []candidate
	step := cfg.CongestionRegionMM
	if step <= 0 {
		step = cfg.CellSizeMM
	}

	seen := make(map[[2]int]bool)
	for key := range g.cells {
		bucket := [2]int{
			int(math.Floor(float64(key[0]) * g.cellSize / step)),
			int(math.Floor(float64(key[1]) * g.cellSize / step)),
		}
		if seen[bucket] {
			continue
		}
		seen[bucket] = true

		center := geom.Point{X: (float64(bucket[0]) + 0.5) * step, Y: (float64(bucket[1]) + 0.5) * step}
		density := g.regionDensity(center, cfg.CongestionRegionMM)
		if density >= cfg.CongestionThreshold {
			candidates = append(candidates, candidate{center: center, density: density})
		}
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].density > candidates[j].density })

	var zones []CongestionZone
	for _, c := range candidates {
		merged := false
		for i := range zones {
			if zones[i].Center.Dist(c.center) < cfg.CongestionRegionMM {
				merged = true

				break
			}
		}
		if merged {
			continue
		}

		competing := g.countNetsInRegion(c.center, cfg.CongestionRegionMM, model.UnconnectedNet)
		channels := int((1 - c.density) * 3)
		if channels < 1 {
			channels = 1
		}
		zones = append(zones, CongestionZone{
			Center:            c.center,
			RadiusMM:          cfg.CongestionRegionMM,
			Density:           geom.Round(c.density, 3),
			CompetingNets:     netNamesFromSet(g, competing),
			AvailableChannels: channels,
			IsBottleneck:      len(competing) > channels,
		})
		if len(zones) >= 10 {
			break
		}
	}

	return zones
}

func suggestRoutabilityFixes(r NetRoutabilityReport) []string {
	var suggestions []string
	if len(r.Obstacles) > 0 {
		suggestions = append(suggestions, "route on an alternate layer to avoid blocking traces")
	}
	for _, z := range r.CongestionZones {
		if z.IsBottleneck {
			suggestions = append(suggestions, "widen routing channel or reroute competing nets away from the congested region")

			break
		}
	}
	if r.Unroutable {
		suggestions = append(suggestions, "net is unlikely to route automatically; plan a manual route")
	}

	return suggestions
}

func buildRoutabilityRecommendations(r RoutabilityReport, hasNets bool) []string {
	var recs []string
	if !hasNets {
		return recs
	}

	if r.EstimatedSuccessRate < 0.9 {
		recs = append(recs, "review flagged nets before routing; estimated auto-route success is below 90%")
	}

	maxUtil, twoLayer := 0.0, len(r.LayerUtilization) <= 2
	for _, u := range r.LayerUtilization {
		if u > maxUtil {
			maxUtil = u
		}
	}
	if maxUtil > 0.6 {
		recs = append(recs, "at least one layer is over 60% utilized; consider redistributing traces")
	}

	criticalNets := 0
	for _, n := range r.Nets {
		if n.Severity == SeverityCritical {
			criticalNets++
		}
	}
	if criticalNets > 0 {
		recs = append(recs, "prioritize routing critical nets manually before running the autorouter")
	}

	if twoLayer && r.EstimatedSuccessRate < 0.7 {
		recs = append(recs, "consider a 4-layer stackup to improve routability")
	}

	return recs
}
