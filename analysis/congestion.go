package analysis

import (
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/katalvlaran/pcbroute/geom"
	"github.com/katalvlaran/pcbroute/model"
)

// Severity is a congestion/risk severity band.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Density thresholds for severity classification, mm of track per mm²
// of cell area.
const (
	densityLow      = 0.5
	densityMedium   = 1.0
	densityHigh     = 1.5
	densityCritical = 2.0
)

// Via-count thresholds per grid cell.
const (
	viaLow      = 2
	viaMedium   = 5
	viaHigh     = 8
	viaCritical = 12
)

const (
	congestionParallelThreshold = 100 // minimum cell count before spawning a worker pool
	maxCongestionHotspots       = 10
)

// CongestionConfig parameterizes a congestion scan.
type CongestionConfig struct {
	GridSizeMM    float64 // defaults to 2.0
	MergeRadiusMM float64 // defaults to 5.0
	MaxWorkers    int     // defaults to runtime.NumCPU(); 1 disables parallelism
}

func (cfg *CongestionConfig) setDefaults() {
	if cfg.GridSizeMM <= 0 {
		cfg.GridSizeMM = 2.0
	}
	if cfg.MergeRadiusMM <= 0 {
		cfg.MergeRadiusMM = 5.0
	}
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = runtime.NumCPU()
	}
}

// BoardSample is the read-only geometry a congestion scan overlays its
// grid on: every net's committed segments and vias, plus placed
// footprints and a net-name lookup for report labeling.
type BoardSample struct {
	Segments   []model.Segment
	Vias       []model.Via
	Footprints []model.Footprint
	Zones      []model.Zone
	NetNames   map[model.NetID]string
}

// CongestionHotspot is one merged congested region of the board.
type CongestionHotspot struct {
	CenterX, CenterY    float64
	RadiusMM            float64
	TrackDensity        float64 // mm track per mm²
	ViaCount            int
	UnroutedConnections int
	Components          []string
	Nets                []string
	Severity            Severity
	Suggestions         []string
}

type densityCell struct {
	gx, gy           int
	centerX, centerY float64
	trackLength      float64
	viaCount         int
	padCount         int
	connectedPads    int
	components       map[string]bool
	nets             map[model.NetID]bool
}

// AnalyzeCongestion overlays a grid_size-mm cell grid on board, finds
// cells whose track density, via count, or unrouted-pad count exceeds a
// threshold, merges hotspots within merge_radius of each other, and
// returns up to 10 reports sorted most-severe first.
//
// The cell scan runs sequentially below congestionParallelThreshold
// cells; above it, cells are split into independently-scored chunks and
// classified across cfg.MaxWorkers goroutines with no shared mutable
// state, matching the reference implementation's worker-pool threshold.
func AnalyzeCongestion(board BoardSample, cfg CongestionConfig) []CongestionHotspot {
	cfg.setDefaults()

	grid := buildDensityGrid(board, cfg.GridSizeMM)
	cells := sortedCells(grid)

	hotspotCells := findHotspots(cells, cfg)
	merged := mergeHotspots(hotspotCells, cfg)

	reports := make([]CongestionHotspot, 0, len(merged))
	for _, cell := range merged {
		report := reportFor(cell, cfg, board.NetNames)
		report.Suggestions = suggestFixes(report)
		reports = append(reports, report)
	}

	severityOrder := map[Severity]int{SeverityCritical: 0, SeverityHigh: 1, SeverityMedium: 2, SeverityLow: 3}
	sort.SliceStable(reports, func(i, j int) bool {
		return severityOrder[reports[i].Severity] < severityOrder[reports[j].Severity]
	})

	return reports
}

func buildDensityGrid(board BoardSample, gridSize float64) map[[2]int]*densityCell {
	grid := make(map[[2]int]*densityCell)

	getCell := func(x, y float64) *densityCell {
		gx, gy := int(x/gridSize), int(y/gridSize)
		if x < 0 {
			gx--
		}
		if y < 0 {
			gy--
		}
		key := [2]int{gx, gy}
		c, ok := grid[key]
		if !ok {
			c = &densityCell{
				gx: gx, gy: gy,
				centerX:    (float64(gx) + 0.5) * gridSize,
				centerY:    (float64(gy) + 0.5) * gridSize,
				components: make(map[string]bool),
				nets:       make(map[model.NetID]bool),
			}
			grid[key] = c
		}

		return c
	}

	for _, seg := range board.Segments {
		dx := seg.End.X - seg.Start.X
		dy := seg.End.Y - seg.Start.Y
		length := seg.Length()
		if length < 0.01 {
			continue
		}

		numSamples := int(length/(gridSize/2)) + 1
		if numSamples < 2 {
			numSamples = 2
		}
		lengthPerSample := length / float64(numSamples)

		for i := 0; i < numSamples; i++ {
			t := 0.5
			if numSamples > 1 {
				t = float64(i) / float64(numSamples-1)
			}
			cell := getCell(seg.Start.X+t*dx, seg.Start.Y+t*dy)
			cell.trackLength += lengthPerSample
			cell.nets[seg.NetID] = true
		}
	}

	for _, v := range board.Vias {
		cell := getCell(v.Position.X, v.Position.Y)
		cell.viaCount++
		cell.nets[v.NetID] = true
	}

	for _, fp := range board.Footprints {
		cell := getCell(fp.Position.X, fp.Position.Y)
		cell.components[fp.Ref] = true

		for _, p := range fp.Pads {
			padCell := getCell(p.Center.X, p.Center.Y)
			padCell.padCount++
			if p.NetID != model.UnconnectedNet {
				padCell.connectedPads++
				padCell.nets[p.NetID] = true
			}
		}
	}

	return grid
}

// sortedCells returns every cell in grid ordered by (gx, gy), giving the
// scan a deterministic cell order before any parallel chunking or tie
// breaking downstream.
func sortedCells(grid map[[2]int]*densityCell) []*densityCell {
	keys := make([][2]int, 0, len(grid))
	for k := range grid {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i][0] != keys[j][0] {
			return keys[i][0] < keys[j][0]
		}

		return keys[i][1] < keys[j][1]
	})

	cells := make([]*densityCell, len(keys))
	for i, k := range keys {
		cells[i] = grid[k]
	}

	return cells
}

func isHotspot(cell *densityCell, cfg CongestionConfig) bool {
	cellArea := cfg.GridSizeMM * cfg.GridSizeMM
	density := cell.trackLength / cellArea

	return density >= densityLow || cell.viaCount >= viaLow ||
		(cell.padCount > 0 && cell.connectedPads < cell.padCount)
}

func findHotspots(cells []*densityCell, cfg CongestionConfig) []*densityCell {
	if cfg.MaxWorkers <= 1 || len(cells) < congestionParallelThreshold {
		return findHotspotsInRange(cells, cfg)
	}

	return findHotspotsParallel(cells, cfg)
}

func findHotspotsInRange(cells []*densityCell, cfg CongestionConfig) []*densityCell {
	out := make([]*densityCell, 0, len(cells))
	for _, c := range cells {
		if isHotspot(c, cfg) {
			out = append(out, c)
		}
	}

	return out
}

// findHotspotsParallel splits cells into roughly 4*MaxWorkers chunks and
// classifies each chunk on its own goroutine. Every goroutine only reads
// shared cell data and writes to its own slot of results, so there is no
// shared mutable state during the parallel region.
func findHotspotsParallel(cells []*densityCell, cfg CongestionConfig) []*densityCell {
	numChunks := cfg.MaxWorkers * 4
	chunkSize := len(cells) / numChunks
	if chunkSize < 1 {
		chunkSize = 1
	}

	var chunks [][]*densityCell
	for i := 0; i < len(cells); i += chunkSize {
		end := i + chunkSize
		if end > len(cells) {
			end = len(cells)
		}
		chunks = append(chunks, cells[i:end])
	}

	results := make([][]*densityCell, len(chunks))
	sem := make(chan struct{}, cfg.MaxWorkers)
	var wg sync.WaitGroup
	for i, chunk := range chunks {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, chunk []*densityCell) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = findHotspotsInRange(chunk, cfg)
		}(i, chunk)
	}
	wg.Wait()

	var out []*densityCell
	for _, r := range results {
		out = append(out, r...)
	}

	return out
}

// mergeHotspots sorts hotspots by density+via score (highest first) and
// folds any cell within cfg.MergeRadiusMM of an already-kept cell into
// it, stopping once maxCongestionHotspots regions are kept.
func mergeHotspots(cells []*densityCell, cfg CongestionConfig) []*densityCell {
	cellArea := cfg.GridSizeMM * cfg.GridSizeMM
	score := func(c *densityCell) float64 {
		return c.trackLength/cellArea + float64(c.viaCount)*0.1
	}

	sorted := make([]*densityCell, len(cells))
	copy(sorted, cells)
	sort.SliceStable(sorted, func(i, j int) bool { return score(sorted[i]) > score(sorted[j]) })

	var result []*densityCell
	for _, cell := range sorted {
		merged := false
		for _, existing := range result {
			dx, dy := cell.centerX-existing.centerX, cell.centerY-existing.centerY
			if dx*dx+dy*dy < cfg.MergeRadiusMM*cfg.MergeRadiusMM {
				existing.trackLength += cell.trackLength
				existing.viaCount += cell.viaCount
				for k := range cell.components {
					existing.components[k] = true
				}
				for k := range cell.nets {
					existing.nets[k] = true
				}
				merged = true

				break
			}
		}
		if !merged {
			result = append(result, cell)
		}
		if len(result) >= maxCongestionHotspots {
			break
		}
	}

	return result
}

func reportFor(cell *densityCell, cfg CongestionConfig, netNames map[model.NetID]string) CongestionHotspot {
	cellArea := cfg.GridSizeMM * cfg.GridSizeMM
	density := cell.trackLength / cellArea

	var severity Severity
	switch {
	case density >= densityCritical || cell.viaCount >= viaCritical:
		severity = SeverityCritical
	case density >= densityHigh || cell.viaCount >= viaHigh:
		severity = SeverityHigh
	case density >= densityMedium || cell.viaCount >= viaMedium:
		severity = SeverityMedium
	default:
		severity = SeverityLow
	}

	netIDs := make([]model.NetID, 0, len(cell.nets))
	for id := range cell.nets {
		if id != model.UnconnectedNet {
			netIDs = append(netIDs, id)
		}
	}
	sort.Slice(netIDs, func(i, j int) bool { return netIDs[i] < netIDs[j] })

	nets := make([]string, 0, len(netIDs))
	for _, id := range netIDs {
		name := netNames[id]
		if name == "" {
			name = fmt.Sprintf("net_%d", id)
		}
		nets = append(nets, name)
	}
	if len(nets) > 10 {
		nets = nets[:10]
	}

	components := make([]string, 0, len(cell.components))
	for c := range cell.components {
		components = append(components, c)
	}
	sort.Strings(components)

	unrouted := cell.padCount - cell.connectedPads
	if unrouted < 0 {
		unrouted = 0
	}

	return CongestionHotspot{
		CenterX:             geom.Round(cell.centerX, 2),
		CenterY:             geom.Round(cell.centerY, 2),
		RadiusMM:            cfg.GridSizeMM,
		TrackDensity:        geom.Round(density, 3),
		ViaCount:            cell.viaCount,
		UnroutedConnections: unrouted,
		Components:          components,
		Nets:                nets,
		Severity:            severity,
	}
}

func suggestFixes(report CongestionHotspot) []string {
	var suggestions []string

	if len(report.Components) >= 2 {
		list := strings.Join(firstN(report.Components, 3), ", ")
		if len(report.Components) > 3 {
			list += fmt.Sprintf(" (and %d more)", len(report.Components)-3)
		}
		suggestions = append(suggestions, fmt.Sprintf("consider moving %s to reduce component density", list))
	}

	if report.Severity == SeverityHigh || report.Severity == SeverityCritical {
		suggestions = append(suggestions, "route some nets on inner layers to reduce top/bottom congestion")
	}

	switch {
	case report.ViaCount >= 10:
		suggestions = append(suggestions, fmt.Sprintf("area has %d vias; consider optimizing routing to reduce layer changes", report.ViaCount))
	case report.ViaCount >= 5:
		suggestions = append(suggestions, fmt.Sprintf("consider reducing vias (%d) by routing on fewer layers", report.ViaCount))
	}

	if report.UnroutedConnections > 0 {
		suggestions = append(suggestions, fmt.Sprintf("%d unrouted connection(s) in this area; may need manual routing or component repositioning", report.UnroutedConnections))
	}

	if len(report.Nets) >= 5 {
		if powerNets := filterPowerNets(report.Nets); len(powerNets) > 0 {
			suggestions = append(suggestions, fmt.Sprintf("power nets (%s) could use wider traces or dedicated planes", strings.Join(firstN(powerNets, 3), ", ")))
		}
	}

	if bypassRefs := filterPrefix(report.Components, "C"); len(bypassRefs) > 0 &&
		(report.Severity == SeverityHigh || report.Severity == SeverityCritical) {
		suggestions = append(suggestions, fmt.Sprintf("consider via-in-pad for bypass capacitors (%s)", strings.Join(firstN(bypassRefs, 3), ", ")))
	}

	if report.Severity == SeverityCritical && len(suggestions) == 0 {
		suggestions = append(suggestions, "critical congestion: consider redesigning component placement or adding board layers")
	}

	return suggestions
}

func firstN(s []string, n int) []string {
	if len(s) <= n {
		return s
	}

	return s[:n]
}

var congestionPowerKeywords = []string{"VCC", "VDD", "GND", "VSS", "PWR"}

func filterPowerNets(nets []string) []string {
	var out []string
	for _, n := range nets {
		upper := strings.ToUpper(n)
		for _, kw := range congestionPowerKeywords {
			if strings.Contains(upper, kw) {
				out = append(out, n)

				break
			}
		}
	}

	return out
}

func filterPrefix(items []string, prefix string) []string {
	var out []string
	for _, it := range items {
		if strings.HasPrefix(it, prefix) {
			out = append(out, it)
		}
	}

	return out
}
