// Package netrouter connects all the pads of a multi-pad net: it collapses
// same-component pads that sit close enough to short directly, builds a
// minimum spanning tree over what remains (by Manhattan distance), and
// drives pathfinder.Pathfinder edge by edge, falling back to a star
// topology when an MST edge fails to route.
//
// Grounded on prim_kruskal's Kruskal implementation: the same
// union-find-with-path-compression-and-union-by-rank disjoint-set, generalized
// from core.Graph edges to the complete graph of Manhattan distances between
// a net's pads.
package netrouter

import (
	"errors"
	"sort"

	"github.com/katalvlaran/pcbroute/grid"
	"github.com/katalvlaran/pcbroute/model"
	"github.com/katalvlaran/pcbroute/pathfinder"
)

var (
	ErrTooFewPads = errors.New("netrouter: net must have at least 2 pads to route")
)

// Config parameterizes a single net's routing pass.
type Config struct {
	Grid               *grid.RoutingGrid
	Rules              model.DesignRules
	IntraICThresholdMM float64 // same-ref pads closer than this are pre-connected directly
	ZoneDiscount       float64
	TurnPenalty        float64
	PresentFactor      float64
	UsageOnly          bool // negotiated mode: MarkRouteUsage instead of MarkRoute, routes may share cells
}

// Result is the outcome of routing one net.
type Result struct {
	Routes       []grid.Route
	UnroutedPads []model.Pad
	FullyRouted  bool
}

// padNode is a pad carried alongside its resolved grid cell.
type padNode struct {
	pad  model.Pad
	cell pathfinder.Cell3
}

func padCell(g *grid.RoutingGrid, p model.Pad) pathfinder.Cell3 {
	col, row := g.ToCell(p.Center)
	layer := 0
	if !p.IsThroughHole && len(p.Layers) > 0 {
		if idx, ok := g.LayerIndex(p.Layers[0]); ok {
			layer = idx
		}
	}

	return pathfinder.Cell3{Col: col, Row: row, Layer: layer}
}

func layerName(g *grid.RoutingGrid, layer int) string {
	ls := g.Layers()
	if layer < 0 || layer >= len(ls) {
		return ""
	}

	return ls[layer]
}

// RouteNet routes every pad of net onto the grid, returning the committed
// routes and any pads that could not be connected.
func RouteNet(cfg Config, net model.Net, pads []model.Pad) (Result, error) {
	if len(pads) < 2 {
		return Result{}, ErrTooFewPads
	}

	preconnected, segments := intraICPreconnect(cfg, net, pads)

	nodes := make([]padNode, len(preconnected))
	for i, p := range preconnected {
		nodes[i] = padNode{pad: p, cell: padCell(cfg.Grid, p)}
	}

	var routes []grid.Route
	if len(segments) > 0 {
		routes = append(routes, grid.Route{NetID: net.ID, Segments: segments})
	}

	if len(nodes) == 1 {
		return Result{Routes: routes, FullyRouted: true}, nil
	}

	pf := pathfinder.New(pathfinder.Config{
		Grid:             cfg.Grid,
		NetID:            net.ID,
		TraceWidthFactor: cfg.Rules.TraceWidth,
		PresentFactor:    cfg.PresentFactor,
		TurnPenalty:      cfg.TurnPenalty,
		ZoneDiscount:     cfg.ZoneDiscount,
	})

	mstEdges := manhattanMST(nodes)

	var unrouted []model.Pad
	fullyRouted := true

	route := func(a, b padNode) bool {
		goalCells := [][2]int{{b.cell.Col, b.cell.Row}}
		path, found, err := pf.Find(a.cell, goalCells, b.cell.Layer)
		if err != nil || !found {
			return false
		}

		r := pathToRoute(cfg.Grid, net.ID, path)
		if cfg.UsageOnly {
			cfg.Grid.MarkRouteUsage(r)
		} else {
			cfg.Grid.MarkRoute(r)
		}
		routes = append(routes, r)

		return true
	}

	for _, e := range mstEdges {
		a, b := nodes[e.u], nodes[e.v]
		if route(a, b) {
			continue
		}
		// Star-topology fallback: try connecting b directly to the MST
		// root (nodes[0]) instead of its MST-assigned neighbor.
		if e.u != 0 && e.v != 0 && route(nodes[0], b) {
			continue
		}
		fullyRouted = false
		unrouted = append(unrouted, b.pad)
	}

	return Result{Routes: routes, UnroutedPads: unrouted, FullyRouted: fullyRouted}, nil
}

// pathToRoute converts a found pathfinder.Path into a grid.Route of
// segments (one per maximal same-layer run) and vias (one per layer hop).
func pathToRoute(g *grid.RoutingGrid, netID model.NetID, path pathfinder.Path) grid.Route {
	r := grid.Route{NetID: netID}
	if len(path.Steps) == 0 {
		return r
	}

	runStart := path.Steps[0].From
	runLayer := runStart.Layer

	flushRun := func(end pathfinder.Cell3) {
		if runStart == end {
			return
		}
		r.Segments = append(r.Segments, model.Segment{
			Start: g.ToPoint(runStart.Col, runStart.Row),
			End:   g.ToPoint(end.Col, end.Row),
			Layer: layerName(g, runLayer),
			NetID: netID,
		})
	}

	for _, s := range path.Steps {
		if s.IsVia {
			flushRun(s.From)
			r.Vias = append(r.Vias, model.Via{
				Position:      g.ToPoint(s.From.Col, s.From.Row),
				LayersSpanned: []string{layerName(g, s.From.Layer), layerName(g, s.To.Layer)},
				NetID:         netID,
			})
			runStart = s.To
			runLayer = s.To.Layer
		}
	}
	flushRun(path.Steps[len(path.Steps)-1].To)

	return r
}

// intraICPreconnect clusters pads that share a component reference and lie
// within cfg.IntraICThresholdMM of each other, replacing each cluster with
// its first member and a direct segment from every other cluster member to
// it. Pads that are not part of a multi-member cluster pass through
// unchanged.
func intraICPreconnect(cfg Config, net model.Net, pads []model.Pad) ([]model.Pad, []model.Segment) {
	byRef := make(map[string][]model.Pad)
	order := make([]string, 0)
	for _, p := range pads {
		if _, ok := byRef[p.Ref]; !ok {
			order = append(order, p.Ref)
		}
		byRef[p.Ref] = append(byRef[p.Ref], p)
	}

	var out []model.Pad
	var segments []model.Segment
	threshold := cfg.IntraICThresholdMM

	for _, ref := range order {
		group := byRef[ref]
		if len(group) == 1 || threshold <= 0 {
			out = append(out, group...)

			continue
		}

		rep := group[0]
		out = append(out, rep)
		for _, p := range group[1:] {
			if p.Center.Dist(rep.Center) <= threshold && sameLayer(p, rep) {
				segments = append(segments, model.Segment{
					Start: p.Center,
					End:   rep.Center,
					Width: cfg.Rules.TraceWidth,
					Layer: firstLayer(rep),
					NetID: net.ID,
				})
			} else {
				out = append(out, p)
			}
		}
	}

	return out, segments
}

func sameLayer(a, b model.Pad) bool {
	if a.IsThroughHole || b.IsThroughHole {
		return true
	}
	for _, la := range a.Layers {
		for _, lb := range b.Layers {
			if la == lb {
				return true
			}
		}
	}

	return false
}

func firstLayer(p model.Pad) string {
	if len(p.Layers) > 0 {
		return p.Layers[0]
	}

	return ""
}

type mstEdge struct {
	u, v int
	cost float64
}

// manhattanMST computes a minimum spanning tree over the complete graph of
// nodes weighted by Manhattan distance, via Kruskal's algorithm with a
// path-compressed, union-by-rank disjoint-set — the same construction as
// prim_kruskal.Kruskal, specialized to an implicit complete graph instead
// of an explicit edge list.
func manhattanMST(nodes []padNode) []mstEdge {
	n := len(nodes)
	if n < 2 {
		return nil
	}

	edges := make([]mstEdge, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			edges = append(edges, mstEdge{
				u:    i,
				v:    j,
				cost: nodes[i].pad.Center.ManhattanDist(nodes[j].pad.Center),
			})
		}
	}
	sort.SliceStable(edges, func(i, j int) bool { return edges[i].cost < edges[j].cost })

	parent := make([]int, n)
	rank := make([]int, n)
	for i := range parent {
		parent[i] = i
	}

	var find func(int) int
	find = func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}

		return x
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra == rb {
			return
		}
		if rank[ra] < rank[rb] {
			parent[ra] = rb
		} else {
			parent[rb] = ra
			if rank[ra] == rank[rb] {
				rank[ra]++
			}
		}
	}

	mst := make([]mstEdge, 0, n-1)
	for _, e := range edges {
		if find(e.u) != find(e.v) {
			union(e.u, e.v)
			mst = append(mst, e)
			if len(mst) == n-1 {
				break
			}
		}
	}

	return mst
}
