package bus

import (
	"errors"

	"github.com/katalvlaran/pcbroute/grid"
	"github.com/katalvlaran/pcbroute/model"
)

// Mode selects how a bus's signals are sequenced relative to each other.
type Mode string

const (
	// ModeParallel interleaves bit positions across every bus, one batch
	// per bit index, so identically-indexed signals of different buses
	// route together (promoting aligned, side-by-side traces).
	ModeParallel Mode = "parallel"
	// ModeStacked routes one bus at a time, in bit order.
	ModeStacked Mode = "stacked"
	// ModeBundled also routes one bus at a time; distinguished from
	// ModeStacked only by the spacing/layer policy the caller applies.
	ModeBundled Mode = "bundled"
)

// ErrNoRouter is returned when the NetRouter passed to RouteAll is nil.
var ErrNoRouter = errors.New("bus: RouteNet function is required")

// NetRouter routes a single net and reports what it produced.
type NetRouter func(netID model.NetID) ([]grid.Route, error)

// Config parameterizes bus-aware routing.
type Config struct {
	Enabled       bool
	Mode          Mode
	Spacing       float64 // 0 = auto (trace width + clearance)
	MinBusWidth   int
	MaintainOrder bool
}

// EffectiveSpacing resolves cfg.Spacing, falling back to trace width plus
// clearance when unset.
func (cfg Config) EffectiveSpacing(traceWidth, clearance float64) float64 {
	if cfg.Spacing > 0 {
		return cfg.Spacing
	}

	return traceWidth + clearance
}

// RoutingOrder returns the routing batches for groups under mode: in
// ModeParallel, batch i contains the i-th signal of every group that has
// one; otherwise each group is its own sequence of batches, one net per
// batch, in bit order.
func RoutingOrder(groups []Group, mode Mode) [][]model.NetID {
	if mode == ModeParallel {
		maxWidth := 0
		for _, g := range groups {
			if g.Width() > maxWidth {
				maxWidth = g.Width()
			}
		}

		batches := make([][]model.NetID, 0, maxWidth)
		for i := 0; i < maxWidth; i++ {
			var batch []model.NetID
			for _, g := range groups {
				if i < len(g.Signals) {
					batch = append(batch, g.Signals[i].NetID)
				}
			}
			if len(batch) > 0 {
				batches = append(batches, batch)
			}
		}

		return batches
	}

	batches := make([][]model.NetID, 0, len(groups))
	for _, g := range groups {
		batches = append(batches, g.NetIDs())
	}

	return batches
}

// RouteGroup routes every signal in group via route, in the order
// RoutingOrder would visit a single-group input (bit order), returning
// every route produced.
func RouteGroup(group Group, route NetRouter) ([]grid.Route, error) {
	var all []grid.Route
	for _, netID := range group.NetIDs() {
		routes, err := route(netID)
		if err != nil {
			return all, err
		}
		all = append(all, routes...)
	}

	return all, nil
}

// Result is the outcome of a bus-aware routing pass.
type Result struct {
	Routes     []grid.Route
	BusNetIDs  map[model.NetID]bool
	NonBusNets []model.NetID
}

// RouteAll detects buses in netNames and routes each bus group (batched per
// cfg.Mode), then routes every remaining net via route in fallbackOrder.
// If cfg.Enabled is false, every net in fallbackOrder is routed as-is with
// no bus coordination.
func RouteAll(netNames map[model.NetID]string, cfg Config, route NetRouter, fallbackOrder []model.NetID) (Result, error) {
	if route == nil {
		return Result{}, ErrNoRouter
	}
	if !cfg.Enabled {
		routes, err := routeInOrder(fallbackOrder, route)

		return Result{Routes: routes}, err
	}

	summary := Analyze(netNames, minWidthOrDefault(cfg.MinBusWidth))
	if len(summary.Groups) == 0 {
		routes, err := routeInOrder(fallbackOrder, route)

		return Result{Routes: routes, NonBusNets: fallbackOrder}, err
	}

	busNetIDs := make(map[model.NetID]bool)
	for _, g := range summary.Groups {
		for _, id := range g.NetIDs() {
			busNetIDs[id] = true
		}
	}

	var all []grid.Route
	for _, batch := range RoutingOrder(summary.Groups, cfg.Mode) {
		r, err := routeInOrder(batch, route)
		all = append(all, r...)
		if err != nil {
			return Result{Routes: all, BusNetIDs: busNetIDs}, err
		}
	}

	var nonBus []model.NetID
	for _, id := range fallbackOrder {
		if !busNetIDs[id] {
			nonBus = append(nonBus, id)
		}
	}
	r, err := routeInOrder(nonBus, route)
	all = append(all, r...)

	return Result{Routes: all, BusNetIDs: busNetIDs, NonBusNets: nonBus}, err
}

func routeInOrder(netIDs []model.NetID, route NetRouter) ([]grid.Route, error) {
	var all []grid.Route
	for _, id := range netIDs {
		routes, err := route(id)
		if err != nil {
			return all, err
		}
		all = append(all, routes...)
	}

	return all, nil
}

func minWidthOrDefault(w int) int {
	if w < 2 {
		return 2
	}

	return w
}
