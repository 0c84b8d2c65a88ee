// Package autorouter is the top-level assembly: it owns the board's grid,
// pads, nets, and committed routes, and exposes every routing strategy
// (direct, negotiated-congestion, Monte Carlo multi-start, adaptive layer
// escalation, bus-aware, differential-pair-aware) as a method over that
// shared state.
//
// Grounded on core.Graph's "owns everything, single struct, RWMutex
// guarded" ownership model, adapted to own a grid.RoutingGrid, a pad/net
// registry, and the managers (netclass table, zone filler) a board needs
// instead of a vertex/edge adjacency map.
package autorouter

import (
	"errors"
	"sort"
	"sync"

	"github.com/katalvlaran/pcbroute/geom"
	"github.com/katalvlaran/pcbroute/grid"
	"github.com/katalvlaran/pcbroute/model"
	"github.com/katalvlaran/pcbroute/netclass"
	"github.com/katalvlaran/pcbroute/netrouter"
	"github.com/katalvlaran/pcbroute/pathfinder"
	"github.com/katalvlaran/pcbroute/serialize"
	"github.com/katalvlaran/pcbroute/stackup"
	"github.com/katalvlaran/pcbroute/zonefill"
)

var ErrNoLayerStack = errors.New("autorouter: layer stack is required")

// ProgressFunc reports fractional progress (0..1) and a status message.
// Returning false requests cancellation; the in-flight pass stops after
// the current net.
type ProgressFunc func(progress float64, message string, cancelable bool) bool

// Config parameterizes a new Router.
type Config struct {
	BoardWidthMM  float64
	BoardHeightMM float64
	Origin        geom.Point
	Resolution    float64 // mm/cell, defaults to 0.2 if zero
	Rules         model.DesignRules
	Stack         *stackup.LayerStack
	ClassTable    *netclass.Table // defaults to netclass.DefaultTable() if nil

	IntraICThresholdMM float64 // defaults to 2x Resolution if zero
	ZoneDiscount       float64
	TurnPenalty        float64
}

func (cfg *Config) setDefaults() {
	if cfg.Resolution <= 0 {
		cfg.Resolution = 0.2
	}
	if cfg.IntraICThresholdMM <= 0 {
		cfg.IntraICThresholdMM = 2 * cfg.Resolution
	}
	if cfg.ClassTable == nil {
		cfg.ClassTable = netclass.DefaultTable()
	}
}

// Router is a complete board under route: pads, nets, grid, and the routes
// committed so far.
type Router struct {
	mu sync.RWMutex

	cfg  Config
	grid *grid.RoutingGrid

	pads     map[string]model.Pad // keyed by Pad.Key()
	nets     map[model.NetID][]string
	netNames map[model.NetID]string

	routes []grid.Route
}

// New builds an empty Router over a fresh grid sized per cfg.
func New(cfg Config) (*Router, error) {
	cfg.setDefaults()
	if cfg.Stack == nil {
		return nil, ErrNoLayerStack
	}

	g, err := grid.New(grid.Config{
		BoardWidthMM:  cfg.BoardWidthMM,
		BoardHeightMM: cfg.BoardHeightMM,
		Resolution:    cfg.Resolution,
		Origin:        cfg.Origin,
		Rules:         cfg.Rules,
		Stack:         cfg.Stack,
	})
	if err != nil {
		return nil, err
	}

	return &Router{
		cfg:      cfg,
		grid:     g,
		pads:     make(map[string]model.Pad),
		nets:     make(map[model.NetID][]string),
		netNames: make(map[model.NetID]string),
	}, nil
}

// AddFootprint registers every pad of fp, adding each to the grid and to
// its net's pad list (pads with NetID == model.UnconnectedNet are kept in
// the registry but excluded from net routing).
func (r *Router) AddFootprint(fp model.Footprint) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range fp.Pads {
		key := p.Key()
		r.pads[key] = p
		r.grid.AddPad(p)

		if p.NetID != model.UnconnectedNet {
			r.nets[p.NetID] = append(r.nets[p.NetID], key)
		}
	}
}

// SetNetName records the human-readable name of a net, used for
// net-class lookups and progress reporting.
func (r *Router) SetNetName(netID model.NetID, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.netNames[netID] = name
}

// AddObstacle marks rect as blocked on layerName (keepouts, mounting
// holes, board-edge clearance).
func (r *Router) AddObstacle(rect geom.Rect, layerName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.grid.AddObstacle(rect, layerName)
}

// AddZones fills zones in ascending Priority order, each seeing earlier
// zones as obstacles, and commits the fills to the grid.
func (r *Router) AddZones(zones []model.Zone) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	padsByNet := make(map[model.NetID][]model.Pad)
	for _, p := range r.pads {
		if p.NetID != model.UnconnectedNet {
			padsByNet[p.NetID] = append(padsByNet[p.NetID], p)
		}
	}

	return zonefill.FillAll(r.grid, zones, padsByNet)
}

func (r *Router) padsFor(netID model.NetID) []model.Pad {
	keys := r.nets[netID]
	pads := make([]model.Pad, 0, len(keys))
	for _, k := range keys {
		pads = append(pads, r.pads[k])
	}

	return pads
}

func (r *Router) netConfig() netrouter.Config {
	return netrouter.Config{
		Grid:               r.grid,
		Rules:              r.cfg.Rules,
		IntraICThresholdMM: r.cfg.IntraICThresholdMM,
		ZoneDiscount:       r.cfg.ZoneDiscount,
		TurnPenalty:        r.cfg.TurnPenalty,
	}
}

// RouteNet routes every connection of one net, committing successful
// routes to the grid.
func (r *Router) RouteNet(netID model.NetID) (netrouter.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.routeNetLocked(netID)
}

func (r *Router) routeNetLocked(netID model.NetID) (netrouter.Result, error) {
	pads := r.padsFor(netID)
	if len(pads) < 2 {
		return netrouter.Result{}, nil
	}

	res, err := netrouter.RouteNet(r.netConfig(), model.Net{ID: netID, Name: r.netNames[netID]}, pads)
	if err != nil {
		return res, err
	}
	r.routes = append(r.routes, res.Routes...)

	return res, nil
}

// priorityOrderLocked returns every net with >=2 pads, sorted per
// netrouter.PriorityOrder using the Router's netclass table. Callers must
// hold r.mu.
func (r *Router) priorityOrderLocked() []netrouter.NetToRoute {
	ids := make([]model.NetID, 0, len(r.nets))
	for id := range r.nets {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	nets := make([]netrouter.NetToRoute, 0, len(ids))
	for _, id := range ids {
		pads := r.padsFor(id)
		if len(pads) < 2 {
			continue
		}
		nets = append(nets, netrouter.NetToRoute{Net: model.Net{ID: id, Name: r.netNames[id]}, Pads: pads})
	}

	return netrouter.PriorityOrder(nets, func(name string) string { return r.cfg.ClassTable.ClassOf(name) }, r.cfg.ClassTable.Priorities())
}

// PriorityOrder returns every net with >=2 pads, sorted per
// netrouter.PriorityOrder using the Router's netclass table.
func (r *Router) PriorityOrder() []netrouter.NetToRoute {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.priorityOrderLocked()
}

// RouteAll routes every net in order (defaulting to priority order),
// reporting progress via progressFn if non-nil.
func (r *Router) RouteAll(order []model.NetID, progressFn ProgressFunc) ([]grid.Route, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if order == nil {
		for _, n := range r.priorityOrderLocked() {
			order = append(order, n.Net.ID)
		}
	}

	var all []grid.Route
	total := len(order)
	cancelled := false
	for i, netID := range order {
		if progressFn != nil {
			progress := 0.0
			if total > 0 {
				progress = float64(i) / float64(total)
			}
			if !progressFn(progress, "routing "+r.netNames[netID], true) {
				cancelled = true

				break
			}
		}

		res, err := r.routeNetLocked(netID)
		if err != nil {
			return all, err
		}
		all = append(all, res.Routes...)
	}

	if progressFn != nil && !cancelled {
		progressFn(1.0, "routing complete", false)
	}

	return all, nil
}

// Routes returns every route committed so far.
func (r *Router) Routes() []grid.Route {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]grid.Route, len(r.routes))
	copy(out, r.routes)

	return out
}

// Grid exposes the underlying grid for callers that need lower-level
// access (e.g. analysis packages walking cell state directly).
func (r *Router) Grid() *grid.RoutingGrid {
	return r.grid
}

// Diagnose explains why net failed to connect sourcePad to targetPad, by
// sampling the straight line between them for occupying obstacles.
func (r *Router) Diagnose(netID model.NetID, sourcePad, targetPad model.Pad) pathfinder.Diagnostic {
	r.mu.RLock()
	defer r.mu.RUnlock()

	layerIdx, _ := r.grid.LayerIndex(firstLayerOf(sourcePad))
	pf := pathfinder.New(pathfinder.Config{Grid: r.grid, NetID: netID})

	return pf.Diagnose(netID, sourcePad.Center, targetPad.Center, layerIdx)
}

func firstLayerOf(p model.Pad) string {
	if len(p.Layers) == 0 {
		return ""
	}

	return p.Layers[0]
}

// Statistics summarizes the board's routing state.
type Statistics struct {
	Routes           int
	Segments         int
	Vias             int
	TotalLengthMM    float64
	NetsRouted       int
	MaxCongestion    float64
	AvgCongestion    float64
	CongestedRegions int
}

const congestionSampleStride = 8

// Statistics computes route/segment/via counts, total trace length, and a
// coarse congestion summary sampled across the grid.
func (r *Router) Statistics() Statistics {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := Statistics{Routes: len(r.routes)}
	routedNets := make(map[model.NetID]bool)
	for _, rt := range r.routes {
		stats.Segments += len(rt.Segments)
		stats.Vias += len(rt.Vias)
		routedNets[rt.NetID] = true
		for _, seg := range rt.Segments {
			stats.TotalLengthMM += seg.Length()
		}
	}
	stats.NetsRouted = len(routedNets)

	var sum float64
	var samples, congested int
	for l := range r.grid.Layers() {
		for row := 0; row < r.grid.Rows(); row += congestionSampleStride {
			for col := 0; col < r.grid.Cols(); col += congestionSampleStride {
				c, err := r.grid.GetCongestion(col, row, l)
				if err != nil {
					continue
				}
				samples++
				sum += c
				if c > stats.MaxCongestion {
					stats.MaxCongestion = c
				}
				if c > 0 {
					congested++
				}
			}
		}
	}
	if samples > 0 {
		stats.AvgCongestion = sum / float64(samples)
	}
	stats.CongestedRegions = congested

	return stats
}

// StatisticsJSON is Statistics, marshaled the way every report in this
// module crosses a process boundary: stable field names, two-space
// indentation.
func (r *Router) StatisticsJSON() ([]byte, error) {
	return serialize.ToJSON(r.Statistics())
}
