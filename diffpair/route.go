package diffpair

import (
	"errors"

	"github.com/katalvlaran/pcbroute/grid"
	"github.com/katalvlaran/pcbroute/model"
)

// ErrNoRouter is returned when the NetRouter passed to RouteAll is nil.
var ErrNoRouter = errors.New("diffpair: RouteNet function is required")

// NetRouter routes a single net and reports what it produced.
type NetRouter func(netID model.NetID) ([]grid.Route, error)

// Config parameterizes differential-pair-aware routing.
type Config struct {
	Enabled bool
}

// LengthMismatchWarning flags a pair whose routed P/N lengths differ by more
// than its rules allow.
type LengthMismatchWarning struct {
	PairName   string
	DeltaMM    float64
	MaxAllowed float64
	NetIDPlus  model.NetID
	NetIDMinus model.NetID
}

func routeLength(routes []grid.Route) float64 {
	var total float64
	for _, r := range routes {
		for _, seg := range r.Segments {
			total += seg.Length()
		}
	}

	return total
}

// RoutePair routes a pair's positive net then its negative net, measuring
// both lengths, and returns a LengthMismatchWarning (nil if within spec).
func RoutePair(pair Pair, route NetRouter) (Pair, []grid.Route, *LengthMismatchWarning, error) {
	var all []grid.Route

	pRoutes, err := route(pair.Positive.NetID)
	if err != nil {
		return pair, all, nil, err
	}
	all = append(all, pRoutes...)
	pair.RoutedLengthP = routeLength(pRoutes)

	nRoutes, err := route(pair.Negative.NetID)
	if err != nil {
		return pair, all, nil, err
	}
	all = append(all, nRoutes...)
	pair.RoutedLengthN = routeLength(nRoutes)

	if pair.IsLengthMatched() {
		return pair, all, nil, nil
	}

	return pair, all, &LengthMismatchWarning{
		PairName:   pair.Name,
		DeltaMM:    pair.LengthDelta(),
		MaxAllowed: pair.Rules.MaxLengthDeltaMM,
		NetIDPlus:  pair.Positive.NetID,
		NetIDMinus: pair.Negative.NetID,
	}, nil
}

// Result is the outcome of a differential-pair-aware routing pass.
type Result struct {
	Routes      []grid.Route
	Pairs       []Pair
	Warnings    []LengthMismatchWarning
	PairNetIDs  map[model.NetID]bool
	NonPairNets []model.NetID
}

// RouteAll detects differential pairs in netNames and routes each pair
// (P then N) before routing every remaining net in fallbackOrder. If
// cfg.Enabled is false, fallbackOrder is routed as-is with no pair
// coordination.
func RouteAll(netNames map[model.NetID]string, cfg Config, route NetRouter, fallbackOrder []model.NetID) (Result, error) {
	if route == nil {
		return Result{}, ErrNoRouter
	}
	if !cfg.Enabled {
		routes, err := routeInOrder(fallbackOrder, route)

		return Result{Routes: routes}, err
	}

	pairs := DetectPairs(netNames)
	if len(pairs) == 0 {
		routes, err := routeInOrder(fallbackOrder, route)

		return Result{Routes: routes, NonPairNets: fallbackOrder}, err
	}

	pairNetIDs := make(map[model.NetID]bool, len(pairs)*2)
	for _, p := range pairs {
		plus, minus := p.NetIDs()
		pairNetIDs[plus] = true
		pairNetIDs[minus] = true
	}

	var all []grid.Route
	var warnings []LengthMismatchWarning
	routedPairs := make([]Pair, 0, len(pairs))
	for _, p := range pairs {
		routed, routes, warn, err := RoutePair(p, route)
		routedPairs = append(routedPairs, routed)
		all = append(all, routes...)
		if warn != nil {
			warnings = append(warnings, *warn)
		}
		if err != nil {
			return Result{Routes: all, Pairs: routedPairs, Warnings: warnings, PairNetIDs: pairNetIDs}, err
		}
	}

	var nonPair []model.NetID
	for _, id := range fallbackOrder {
		if !pairNetIDs[id] {
			nonPair = append(nonPair, id)
		}
	}
	r, err := routeInOrder(nonPair, route)
	all = append(all, r...)

	return Result{
		Routes:      all,
		Pairs:       routedPairs,
		Warnings:    warnings,
		PairNetIDs:  pairNetIDs,
		NonPairNets: nonPair,
	}, err
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
