// Package analysis computes read-only reports over a routed (or
// partially routed) board: net connectivity, congestion, signal-integrity
// risk, thermal hotspots, trace length, and pre-routing routability.
// Nothing in this package mutates the grid, routes, or PCB inputs it is
// given.
package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/katalvlaran/pcbroute/geom"
	"github.com/katalvlaran/pcbroute/grid"
	"github.com/katalvlaran/pcbroute/internal/netgraph"
	"github.com/katalvlaran/pcbroute/model"
)

const defaultPositionToleranceMM = 0.01

// Config parameterizes connectivity analysis.
type Config struct {
	PositionToleranceMM float64 // defaults to 0.01mm
}

func (cfg *Config) setDefaults() {
	if cfg.PositionToleranceMM <= 0 {
		cfg.PositionToleranceMM = defaultPositionToleranceMM
	}
}

// PadStatus is one pad's connectivity outcome within its net.
type PadStatus struct {
	Key       string
	Ref       string
	PinNumber string
	Position  geom.Point
	Layers    []string
}

// NetStatus is one net's connectivity verdict: which pads landed in the
// largest connected component ("connected") versus which did not.
type NetStatus struct {
	NetID           model.NetID
	NetName         string
	TotalPads       int
	ConnectedPads   []PadStatus
	UnconnectedPads []PadStatus
	IsPlaneNet      bool
	PlaneLayer      string
	HasRouting      bool
	HasVias         bool
}

// ConnectedCount returns the number of pads in the largest component.
func (s NetStatus) ConnectedCount() int { return len(s.ConnectedPads) }

// UnconnectedCount returns the number of pads outside the largest component.
func (s NetStatus) UnconnectedCount() int { return len(s.UnconnectedPads) }

// ConnectionPercentage is the fraction of pads connected, 0-100.
func (s NetStatus) ConnectionPercentage() float64 {
	if s.TotalPads == 0 {
		return 100.0
	}

	return float64(s.ConnectedCount()) / float64(s.TotalPads) * 100
}

// Status classifies the net as "complete" (every pad connected, or <=1
// pad total), "unrouted" (no pad connected), or "incomplete" (some but
// not all).
func (s NetStatus) Status() string {
	if s.TotalPads <= 1 || s.UnconnectedCount() == 0 {
		return "complete"
	}
	if s.ConnectedCount() == 0 {
		return "unrouted"
	}

	return "incomplete"
}

var namedPowerNets = map[string]bool{
	"GND": true, "AGND": true, "DGND": true, "PGND": true,
	"VCC": true, "VDD": true, "VSS": true,
}

// NetType classifies the net as "plane", "power", or "signal" by a name
// heuristic (zone membership wins; otherwise common power-rail prefixes
// and names).
func (s NetStatus) NetType() string {
	if s.IsPlaneNet {
		return "plane"
	}
	if strings.HasPrefix(s.NetName, "+") || strings.HasPrefix(s.NetName, "-") ||
		strings.HasPrefix(s.NetName, "V") || namedPowerNets[s.NetName] {
		return "power"
	}

	return "signal"
}

// SuggestedFix offers a one-line remediation hint for an incomplete or
// unrouted net; empty for a complete one.
func (s NetStatus) SuggestedFix() string {
	switch {
	case s.Status() == "complete":
		return ""
	case s.IsPlaneNet:
		return fmt.Sprintf("stitch the %s plane with additional vias", s.NetName)
	default:
		return fmt.Sprintf("route traces to connect %d unconnected pad(s)", s.UnconnectedCount())
	}
}

// NetInput is everything AnalyzeConnectivity needs about one net. Routes
// and Zones are treated as read-only; AnalyzeConnectivity never mutates
// them.
type NetInput struct {
	Net    model.Net
	Pads   []model.Pad
	Routes []grid.Route
	Zones  []model.Zone
}

// ConnectivityReport aggregates NetStatus across every analyzed net.
type ConnectivityReport struct {
	Nets []NetStatus
}

// Complete returns every fully-connected net.
func (r ConnectivityReport) Complete() []NetStatus { return r.filter("complete") }

// Incomplete returns every partially-connected net.
func (r ConnectivityReport) Incomplete() []NetStatus { return r.filter("incomplete") }

// Unrouted returns every net with zero connected pads.
func (r ConnectivityReport) Unrouted() []NetStatus { return r.filter("unrouted") }

func (r ConnectivityReport) filter(status string) []NetStatus {
	var out []NetStatus
	for _, n := range r.Nets {
		if n.Status() == status {
			out = append(out, n)
		}
	}

	return out
}

// TotalUnconnectedPads sums UnconnectedCount across every net.
func (r ConnectivityReport) TotalUnconnectedPads() int {
	total := 0
	for _, n := range r.Nets {
		total += n.UnconnectedCount()
	}

	return total
}

// Summary renders a short human-readable rollup.
func (r ConnectivityReport) Summary() string {
	return fmt.Sprintf("%d nets: %d complete, %d incomplete, %d unrouted, %d unconnected pads",
		len(r.Nets), len(r.Complete()), len(r.Incomplete()), len(r.Unrouted()), r.TotalUnconnectedPads())
}

// AnalyzeConnectivity builds a pad-adjacency graph per net — segment
// chains, vias, and same-net zone coverage (with "*.Cu" wildcard layer
// matching) — and reports the largest connected component as routed when
// it links at least two pads; every other pad on the net is unconnected
// (so a multi-pad net with no pad linked to another is unrouted). Nets with NetID ==
// model.UnconnectedNet are skipped. Results are sorted incomplete first,
// then unrouted, then complete, each group alphabetical by net name.
func AnalyzeConnectivity(nets []NetInput, cfg Config) ConnectivityReport {
	cfg.setDefaults()

	report := ConnectivityReport{Nets: make([]NetStatus, 0, len(nets))}
	for _, n := range nets {
		if n.Net.ID == model.UnconnectedNet {
			continue
		}
		report.Nets = append(report.Nets, analyzeNet(n, cfg))
	}

	statusOrder := map[string]int{"incomplete": 0, "unrouted": 1, "complete": 2}
	sort.SliceStable(report.Nets, func(i, j int) bool {
		oi, oj := statusOrder[report.Nets[i].Status()], statusOrder[report.Nets[j].Status()]
		if oi != oj {
			return oi < oj
		}

		return report.Nets[i].NetName < report.Nets[j].NetName
	})

	return report
}

func analyzeNet(n NetInput, cfg Config) NetStatus {
	status := NetStatus{NetID: n.Net.ID, NetName: n.Net.Name, TotalPads: len(n.Pads)}

	for _, z := range n.Zones {
		if z.NetID == n.Net.ID {
			status.IsPlaneNet = true
			status.PlaneLayer = z.Layer
			break
		}
	}
	for _, rt := range n.Routes {
		if len(rt.Segments) > 0 {
			status.HasRouting = true
		}
		if len(rt.Vias) > 0 {
			status.HasVias = true
		}
	}

	if len(n.Pads) < 2 {
		for _, p := range n.Pads {
			status.ConnectedPads = append(status.ConnectedPads, padStatusOf(p))
		}

		return status
	}

	g := netgraph.New()
	for _, p := range n.Pads {
		g.AddVertex(p.Key())
	}
	linkSegmentChains(g, n, cfg)
	linkVias(g, n, cfg)
	linkZoneConnectivity(g, n, cfg)

	components := g.ConnectedComponents()
	sort.Slice(components, func(i, j int) bool { return len(components[i]) > len(components[j]) })

	connected := make(map[string]bool)
	if len(components) > 0 && len(components[0]) > 1 {
		for _, key := range components[0] {
			connected[key] = true
		}
	}

	for _, p := range n.Pads {
		ps := padStatusOf(p)
		if connected[p.Key()] {
			status.ConnectedPads = append(status.ConnectedPads, ps)
		} else {
			status.UnconnectedPads = append(status.UnconnectedPads, ps)
		}
	}
	sort.Slice(status.UnconnectedPads, func(i, j int) bool {
		a, b := status.UnconnectedPads[i], status.UnconnectedPads[j]
		if a.Ref != b.Ref {
			return a.Ref < b.Ref
		}

		return a.PinNumber < b.PinNumber
	})

	return status
}

func padStatusOf(p model.Pad) PadStatus {
	return PadStatus{Key: p.Key(), Ref: p.Ref, PinNumber: p.PinNumber, Position: p.Center, Layers: p.Layers}
}

func padsAtPoint(pads []model.Pad, pt geom.Point, tol float64) []string {
	var keys []string
	for _, p := range pads {
		if p.Center.Near(pt, tol) {
			keys = append(keys, p.Key())
		}
	}

	return keys
}

func linkSegmentChains(g *netgraph.Graph, n NetInput, cfg Config) {
	segments := allSegments(n)
	if len(segments) == 0 {
		return
	}

	for _, comp := range segmentComponents(segments, cfg.PositionToleranceMM) {
		var keys []string
		for _, idx := range comp {
			keys = append(keys, padsAtPoint(n.Pads, segments[idx].Start, cfg.PositionToleranceMM)...)
			keys = append(keys, padsAtPoint(n.Pads, segments[idx].End, cfg.PositionToleranceMM)...)
		}
		connectAll(g, keys)
	}
}

func allSegments(n NetInput) []model.Segment {
	var segments []model.Segment
	for _, rt := range n.Routes {
		segments = append(segments, rt.Segments...)
	}

	return segments
}

func allVias(n NetInput) []model.Via {
	var vias []model.Via
	for _, rt := range n.Routes {
		vias = append(vias, rt.Vias...)
	}

	return vias
}

// segmentComponents groups segments into connected chains by shared
// (within tolerance) endpoints.
func segmentComponents(segments []model.Segment, tol float64) [][]int {
	adj := make([]map[int]bool, len(segments))
	for i := range adj {
		adj[i] = make(map[int]bool)
	}
	for i := 0; i < len(segments); i++ {
		for j := i + 1; j < len(segments); j++ {
			if segmentsTouch(segments[i], segments[j], tol) {
				adj[i][j] = true
				adj[j][i] = true
			}
		}
	}

	visited := make([]bool, len(segments))
	var components [][]int
	for i := range segments {
		if visited[i] {
			continue
		}

		var comp []int
		queue := []int{i}
		visited[i] = true
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			comp = append(comp, cur)
			for j := range adj[cur] {
				if !visited[j] {
					visited[j] = true
					queue = append(queue, j)
				}
			}
		}
		components = append(components, comp)
	}

	return components
}

func segmentsTouch(a, b model.Segment, tol float64) bool {
	return a.Start.Near(b.Start, tol) || a.Start.Near(b.End, tol) ||
		a.End.Near(b.Start, tol) || a.End.Near(b.End, tol)
}

func linkVias(g *netgraph.Graph, n NetInput, cfg Config) {
	for _, v := range allVias(n) {
		connectAll(g, padsAtPoint(n.Pads, v.Position, cfg.PositionToleranceMM))
	}
}

// linkZoneConnectivity connects every pad that touches a same-net zone
// (directly, or via a via/segment chain landing inside the zone's filled
// polygon) to every other such pad.
func linkZoneConnectivity(g *netgraph.Graph, n NetInput, cfg Config) {
	segments := allSegments(n)
	vias := allVias(n)
	zoneConnected := make(map[string]bool)

	for _, z := range n.Zones {
		if z.NetID != n.Net.ID {
			continue
		}

		polys := z.FilledPolygons
		if len(polys) == 0 && len(z.Polygon) >= 3 {
			polys = [][]geom.Point{z.Polygon}
		}

		for _, p := range n.Pads {
			if !padLayerMatchesZone(p.Layers, z.Layer) {
				continue
			}
			if pointInAnyPolygon(p.Center, polys) {
				zoneConnected[p.Key()] = true
			}
		}

		var zoneViaPositions []geom.Point
		for _, v := range vias {
			if !padLayerMatchesZone(v.LayersSpanned, z.Layer) {
				continue
			}
			if pointInAnyPolygon(v.Position, polys) {
				zoneViaPositions = append(zoneViaPositions, v.Position)
			}
		}
		for _, pt := range zoneViaPositions {
			for _, key := range padsAtPoint(n.Pads, pt, cfg.PositionToleranceMM) {
				zoneConnected[key] = true
			}
		}

		for _, comp := range segmentComponents(segments, cfg.PositionToleranceMM) {
			if !chainTouchesAnyPoint(comp, segments, zoneViaPositions, cfg.PositionToleranceMM) {
				continue
			}
			for _, idx := range comp {
				for _, key := range padsAtPoint(n.Pads, segments[idx].Start, cfg.PositionToleranceMM) {
					zoneConnected[key] = true
				}
				for _, key := range padsAtPoint(n.Pads, segments[idx].End, cfg.PositionToleranceMM) {
					zoneConnected[key] = true
				}
			}
		}
	}

	var keys []string
	for k := range zoneConnected {
		keys = append(keys, k)
	}
	connectAll(g, keys)
}

func chainTouchesAnyPoint(comp []int, segments []model.Segment, points []geom.Point, tol float64) bool {
	for _, idx := range comp {
		for _, pt := range points {
			if segments[idx].Start.Near(pt, tol) || segments[idx].End.Near(pt, tol) {
				return true
			}
		}
	}

	return false
}

func pointInAnyPolygon(p geom.Point, polys [][]geom.Point) bool {
	for _, poly := range polys {
		if (geom.Polygon{Points: poly}).Contains(p) {
			return true
		}
	}

	return false
}

func connectAll(g *netgraph.Graph, keys []string) {
	for i := 0; i < len(keys); i++ {
		for j := i + 1; j < len(keys); j++ {
			g.AddEdge(keys[i], keys[j])
		}
	}
}

// padLayerMatchesZone reports whether any of layers shares zoneLayer,
// honoring "*.Cu"-style wildcards on the layer side.
func padLayerMatchesZone(layers []string, zoneLayer string) bool {
	for _, l := range layers {
		if l == zoneLayer {
			return true
		}
		if l == "*.Cu" && strings.HasSuffix(zoneLayer, ".Cu") {
			return true
		}
		if strings.HasPrefix(l, "*.") && strings.HasSuffix(zoneLayer, l[1:]) {
			return true
		}
	}

	return false
}
