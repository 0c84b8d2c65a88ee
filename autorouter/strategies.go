package autorouter

import (
	"github.com/katalvlaran/pcbroute/adaptive"
	"github.com/katalvlaran/pcbroute/bus"
	"github.com/katalvlaran/pcbroute/diffpair"
	"github.com/katalvlaran/pcbroute/grid"
	"github.com/katalvlaran/pcbroute/model"
	"github.com/katalvlaran/pcbroute/montecarlo"
	"github.com/katalvlaran/pcbroute/negotiated"
	"github.com/katalvlaran/pcbroute/netrouter"
	"github.com/katalvlaran/pcbroute/stackup"
)

// NegotiatedConfig overrides negotiated.Config's tunables; zero fields fall
// back to negotiated.Run's own defaults.
type NegotiatedConfig struct {
	InitialPresentFactor   float64
	PresentFactorIncrement float64
	HistoryCostIncrement   float64
	MaxIterations          int
}

// RouteAllNegotiated routes every net using PathFinder-style negotiated
// congestion (see package negotiated), committing the winning snapshot to
// the Router's grid and route list.
func (r *Router) RouteAllNegotiated(cfg NegotiatedConfig) (negotiated.Solution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	nets := r.priorityOrderLocked()

	sol, err := negotiated.Run(negotiated.Config{
		Grid:                   r.grid,
		Rules:                  r.cfg.Rules,
		IntraICThresholdMM:     r.cfg.IntraICThresholdMM,
		ZoneDiscount:           r.cfg.ZoneDiscount,
		TurnPenalty:            r.cfg.TurnPenalty,
		InitialPresentFactor:   cfg.InitialPresentFactor,
		PresentFactorIncrement: cfg.PresentFactorIncrement,
		HistoryCostIncrement:   cfg.HistoryCostIncrement,
		MaxIterations:          cfg.MaxIterations,
	}, nets)
	if err != nil {
		return sol, err
	}

	r.routes = r.routes[:0]
	for _, res := range sol.Routes {
		r.routes = append(r.routes, res.Routes...)
	}

	return sol, nil
}

// rebuildGrid constructs a fresh grid over the same board and re-adds every
// known pad, used by Monte Carlo trials and adaptive layer escalation to
// start each attempt from a clean slate.
func (r *Router) rebuildGrid(stack *stackup.LayerStack) (*grid.RoutingGrid, error) {
	if stack == nil {
		stack = r.cfg.Stack
	}

	g, err := grid.New(grid.Config{
		BoardWidthMM:  r.cfg.BoardWidthMM,
		BoardHeightMM: r.cfg.BoardHeightMM,
		Resolution:    r.cfg.Resolution,
		Origin:        r.cfg.Origin,
		Rules:         r.cfg.Rules,
		Stack:         stack,
	})
	if err != nil {
		return nil, err
	}
	for _, p := range r.pads {
		g.AddPad(p)
	}

	return g, nil
}

// trialRouter routes every net onto g in order, via the simple (non
// negotiated) or negotiated strategy depending on useNegotiated.
func (r *Router) trialRouter(useNegotiated bool) montecarlo.TrialRouter {
	return func(g *grid.RoutingGrid, nets []netrouter.NetToRoute) (map[model.NetID]netrouter.Result, error) {
		out := make(map[model.NetID]netrouter.Result, len(nets))

		if useNegotiated {
			sol, err := negotiated.Run(negotiated.Config{
				Grid:               g,
				Rules:              r.cfg.Rules,
				IntraICThresholdMM: r.cfg.IntraICThresholdMM,
				ZoneDiscount:       r.cfg.ZoneDiscount,
				TurnPenalty:        r.cfg.TurnPenalty,
			}, nets)
			if err != nil {
				return nil, err
			}
			for id, res := range sol.Routes {
				out[id] = res
			}

			return out, nil
		}

		cfg := netrouter.Config{
			Grid:               g,
			Rules:              r.cfg.Rules,
			IntraICThresholdMM: r.cfg.IntraICThresholdMM,
			ZoneDiscount:       r.cfg.ZoneDiscount,
			TurnPenalty:        r.cfg.TurnPenalty,
		}
		for _, n := range nets {
			res, err := netrouter.RouteNet(cfg, n.Net, n.Pads)
			if err != nil {
				return nil, err
			}
			out[n.Net.ID] = res
		}

		return out, nil
	}
}

// RouteAllMonteCarlo runs trials independent routing attempts, each on a
// fresh grid with a shuffled-within-tiers net order (the first trial uses
// priority order unshuffled), and keeps the highest-scoring one.
func (r *Router) RouteAllMonteCarlo(trials int, useNegotiated bool, seed int64) (montecarlo.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	nets := r.priorityOrderLocked()

	result, err := montecarlo.Run(montecarlo.Config{
		GridFactory:   func() *grid.RoutingGrid { g, _ := r.rebuildGrid(nil); return g },
		Router:        r.trialRouter(useNegotiated),
		Nets:          nets,
		ClassOf:       func(name string) string { return r.cfg.ClassTable.ClassOf(name) },
		ClassPriority: r.cfg.ClassTable.Priorities(),
		Trials:        trials,
		Seed:          seed,
	})
	if err != nil {
		return result, err
	}

	r.routes = r.routes[:0]
	for _, res := range result.Routes {
		r.routes = append(r.routes, res.Routes...)
	}

	return result, nil
}

// RouteAllAdvanced is the unified entry point mirroring the original
// router's dispatch: Monte Carlo trials take priority if requested, else
// negotiated congestion, else the simple priority-ordered pass.
func (r *Router) RouteAllAdvanced(monteCarloTrials int, useNegotiated bool) ([]grid.Route, error) {
	switch {
	case monteCarloTrials > 0:
		_, err := r.RouteAllMonteCarlo(monteCarloTrials, useNegotiated, 0)

		return r.Routes(), err
	case useNegotiated:
		_, err := r.RouteAllNegotiated(NegotiatedConfig{})

		return r.Routes(), err
	default:
		return r.RouteAll(nil, nil)
	}
}

// RouteAllAdaptive escalates through ladder's layer-stack presets (ordered
// fewest to most layers, subject to maxLayers) running negotiated
// congestion on each, stopping at the first that converges.
func (r *Router) RouteAllAdaptive(ladder []*stackup.LayerStack, maxLayers int) (adaptive.Result, error) {
	r.mu.RLock()
	nets := r.priorityOrderLocked()
	rules := r.cfg.Rules
	intraIC := r.cfg.IntraICThresholdMM
	zoneDiscount := r.cfg.ZoneDiscount
	turnPenalty := r.cfg.TurnPenalty
	r.mu.RUnlock()

	result, err := adaptive.Run(adaptive.Config{
		Presets:   ladder,
		MaxLayers: maxLayers,
		Build: func(stack *stackup.LayerStack) (negotiated.Config, []netrouter.NetToRoute, error) {
			g, buildErr := r.rebuildGrid(stack)
			if buildErr != nil {
				return negotiated.Config{}, nil, buildErr
			}

			return negotiated.Config{
				Grid:               g,
				Rules:              rules,
				IntraICThresholdMM: intraIC,
				ZoneDiscount:       zoneDiscount,
				TurnPenalty:        turnPenalty,
			}, nets, nil
		},
	})
	if err != nil {
		return result, err
	}

	r.mu.Lock()
	r.routes = r.routes[:0]
	for _, res := range result.Chosen.Solution.Routes {
		r.routes = append(r.routes, res.Routes...)
	}
	r.mu.Unlock()

	return result, nil
}

func (r *Router) netRouterFunc() bus.NetRouter {
	return func(netID model.NetID) ([]grid.Route, error) {
		res, err := r.routeNetLocked(netID)

		return res.Routes, err
	}
}

func (r *Router) diffpairNetRouterFunc() diffpair.NetRouter {
	return func(netID model.NetID) ([]grid.Route, error) {
		res, err := r.routeNetLocked(netID)

		return res.Routes, err
	}
}

// RouteAllWithBuses routes bus-grouped nets together (batched per cfg.Mode)
// before any remaining nets, in fallback (priority) order.
func (r *Router) RouteAllWithBuses(cfg bus.Config, fallbackOrder []model.NetID) (bus.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if fallbackOrder == nil {
		for _, n := range r.priorityOrderLocked() {
			fallbackOrder = append(fallbackOrder, n.Net.ID)
		}
	}

	return bus.RouteAll(r.netNames, cfg, r.netRouterFunc(), fallbackOrder)
}

// RouteAllWithDiffPairs routes detected differential pairs (P then N, with
// a length-mismatch check) before any remaining nets, in fallback order.
func (r *Router) RouteAllWithDiffPairs(cfg diffpair.Config, fallbackOrder []model.NetID) (diffpair.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if fallbackOrder == nil {
		for _, n := range r.priorityOrderLocked() {
			fallbackOrder = append(fallbackOrder, n.Net.ID)
		}
	}

	return diffpair.RouteAll(r.netNames, cfg, r.diffpairNetRouterFunc(), fallbackOrder)
}
