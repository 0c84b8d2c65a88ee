// Package negotiated implements PathFinder-style negotiated-congestion
// routing: every net is first routed independently, allowed to overlap
// (MarkRouteUsage, not MarkRoute, so cells may be shared provisionally),
// then the nets touching over-used cells are ripped up and re-routed under
// a present-cost that grows each iteration, until no cell is over capacity
// or an iteration cap is reached.
//
// Grounded on flow's residual-capacity bookkeeping idiom (a capacity model
// that tracks usage against a fixed limit and exposes the excess), adapted
// from a single max-flow computation to an iterative rip-up/reroute loop
// over grid.RoutingGrid's present/history cost fields.
package negotiated

import (
	"errors"

	"github.com/katalvlaran/pcbroute/grid"
	"github.com/katalvlaran/pcbroute/model"
	"github.com/katalvlaran/pcbroute/netrouter"
)

var ErrNoNets = errors.New("negotiated: at least one net is required")

// Config parameterizes a negotiated-congestion routing run. Zero-valued
// iteration/factor fields fall back to the defaults documented below.
type Config struct {
	Grid               *grid.RoutingGrid
	Rules              model.DesignRules
	IntraICThresholdMM float64
	ZoneDiscount       float64
	TurnPenalty        float64

	// InitialPresentFactor seeds the present-cost multiplier (default 0.5).
	InitialPresentFactor float64
	// PresentFactorIncrement is added to the present-cost multiplier after
	// every iteration that fails to reach zero overflow (default 0.5).
	PresentFactorIncrement float64
	// HistoryCostIncrement is added to every over-used cell's history cost
	// after each such iteration (default 1.0).
	HistoryCostIncrement float64
	// MaxIterations caps the rip-up/reroute loop (default 50).
	MaxIterations int
}

func (c *Config) setDefaults() {
	if c.InitialPresentFactor <= 0 {
		c.InitialPresentFactor = 0.5
	}
	if c.PresentFactorIncrement <= 0 {
		c.PresentFactorIncrement = 0.5
	}
	if c.HistoryCostIncrement <= 0 {
		c.HistoryCostIncrement = 1.0
	}
	if c.MaxIterations <= 0 {
		c.MaxIterations = 50
	}
}

// Solution is the outcome of a negotiated routing run: the best (lowest
// overflow) net-routing assignment found, and whether it fully converged
// to zero overflow.
type Solution struct {
	Routes     map[model.NetID]netrouter.Result
	Overflow   int
	Iterations int
	Converged  bool
}

// Run routes every net in nets, iteratively resolving cell-sharing
// conflicts by rip-up/reroute under a growing present-cost, and returns the
// best assignment found. It returns an error only when nets is empty or
// netrouter.RouteNet rejects a net (one with fewer than two pads);
// individual nets that cannot be fully routed are reflected in each
// netrouter.Result's UnroutedPads, not a returned error.
func Run(cfg Config, nets []netrouter.NetToRoute) (Solution, error) {
	if len(nets) == 0 {
		return Solution{}, ErrNoNets
	}
	cfg.setDefaults()

	presentFactor := cfg.InitialPresentFactor
	results := make(map[model.NetID]netrouter.Result, len(nets))

	netCfg := func() netrouter.Config {
		return netrouter.Config{
			Grid:               cfg.Grid,
			Rules:              cfg.Rules,
			IntraICThresholdMM: cfg.IntraICThresholdMM,
			ZoneDiscount:       cfg.ZoneDiscount,
			TurnPenalty:        cfg.TurnPenalty,
			PresentFactor:      presentFactor,
			UsageOnly:          true,
		}
	}

	for _, n := range nets {
		res, err := netrouter.RouteNet(netCfg(), n.Net, n.Pads)
		if err != nil {
			return Solution{}, err
		}
		results[n.Net.ID] = res
	}

	best := cloneResults(results)
	bestOverflow := cfg.Grid.Overflow()
	converged := bestOverflow == 0
	iterationsRun := 0

	for iter := 0; !converged && iter < cfg.MaxIterations; iter++ {
		iterationsRun = iter + 1

		for _, n := range nets {
			res := results[n.Net.ID]
			if !touchesOverused(cfg.Grid, res) {
				continue
			}
			ripUp(cfg.Grid, res)

			newRes, err := netrouter.RouteNet(netCfg(), n.Net, n.Pads)
			if err != nil {
				return Solution{}, err
			}
			results[n.Net.ID] = newRes
		}

		cfg.Grid.UpdateHistoryCosts(cfg.HistoryCostIncrement)

		overflow := cfg.Grid.Overflow()
		if overflow < bestOverflow {
			bestOverflow = overflow
			best = cloneResults(results)
		}
		if overflow == 0 {
			converged = true
		} else {
			presentFactor += cfg.PresentFactorIncrement
		}
	}

	if cfg.Grid.Overflow() != bestOverflow {
		rollBackTo(cfg.Grid, results, best)
	}

	return Solution{
		Routes:     best,
		Overflow:   bestOverflow,
		Iterations: iterationsRun,
		Converged:  converged,
	}, nil
}

func touchesOverused(g *grid.RoutingGrid, res netrouter.Result) bool {
	for _, r := range res.Routes {
		if g.TouchesOverusedCell(r) {
			return true
		}
	}

	return false
}

func ripUp(g *grid.RoutingGrid, res netrouter.Result) {
	for _, r := range res.Routes {
		g.RipUpUsage(r)
	}
}

func markUsage(g *grid.RoutingGrid, res netrouter.Result) {
	for _, r := range res.Routes {
		g.MarkRouteUsage(r)
	}
}

// rollBackTo restores the grid's usage accounting to match best, undoing
// whatever current diverged to after best was captured. History costs are
// left as accumulated; they only influence future routing cost, not the
// overflow count this function restores.
func rollBackTo(g *grid.RoutingGrid, current, best map[model.NetID]netrouter.Result) {
	for _, res := range current {
		ripUp(g, res)
	}
	for _, res := range best {
		markUsage(g, res)
	}
}

func cloneResults(in map[model.NetID]netrouter.Result) map[model.NetID]netrouter.Result {
	out := make(map[model.NetID]netrouter.Result, len(in))
	for k, v := range in {
		routes := make([]grid.Route, len(v.Routes))
		copy(routes, v.Routes)
		pads := make([]model.Pad, len(v.UnroutedPads))
		copy(pads, v.UnroutedPads)
		out[k] = netrouter.Result{Routes: routes, UnroutedPads: pads, FullyRouted: v.FullyRouted}
	}

	return out
}
