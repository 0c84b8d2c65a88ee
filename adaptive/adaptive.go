// Package adaptive escalates through layer-stack presets (2-layer, 4-layer,
// 6-layer, subject to a max-layer cap) until a negotiated-congestion
// routing attempt converges — every net routed, zero overflow — and stops
// there; if none converge, it reports the attempt over the largest
// (highest layer-count) stack tried.
//
// Grounded on stackup's preset catalog (PresetByName / Default2Layer /
// Default6Layer) for the escalation ladder and negotiated.Solution's
// Converged signal as the stopping criterion.
package adaptive

import (
	"errors"

	"github.com/katalvlaran/pcbroute/negotiated"
	"github.com/katalvlaran/pcbroute/netrouter"
	"github.com/katalvlaran/pcbroute/stackup"
)

var (
	ErrNoPresets   = errors.New("adaptive: at least one layer-stack preset is required")
	ErrBuildFailed = errors.New("adaptive: attempt builder returned no nets")
)

// AttemptBuilder constructs a fresh routing attempt for one layer stack:
// the negotiated.Config (already carrying a freshly built *grid.RoutingGrid
// for this stack) and the nets to route onto it.
type AttemptBuilder func(stack *stackup.LayerStack) (negotiated.Config, []netrouter.NetToRoute, error)

// Config parameterizes an escalation run. Presets must be ordered from
// fewest to most layers; every entry whose layer count exceeds MaxLayers
// (if set) is skipped.
type Config struct {
	Presets   []*stackup.LayerStack
	MaxLayers int
	Build     AttemptBuilder
}

// Attempt records one layer stack's negotiated-routing outcome.
type Attempt struct {
	Stack      *stackup.LayerStack
	LayerCount int
	Solution   negotiated.Solution
}

// Result is the outcome of an escalation run.
type Result struct {
	Chosen    Attempt
	Converged bool
	Attempts  []Attempt
}

// Run tries each preset in order (skipping any whose layer count exceeds
// MaxLayers when MaxLayers > 0), stopping at the first converged attempt.
// If none converge, Result.Chosen is the attempt over the largest stack
// actually tried.
func Run(cfg Config) (Result, error) {
	if len(cfg.Presets) == 0 {
		return Result{}, ErrNoPresets
	}

	var attempts []Attempt
	var last Attempt
	haveLast := false

	for _, stack := range cfg.Presets {
		layerCount := len(stack.RoutableCopperLayers())
		if cfg.MaxLayers > 0 && layerCount > cfg.MaxLayers {
			continue
		}

		negCfg, nets, err := cfg.Build(stack)
		if err != nil {
			return Result{}, err
		}
		if len(nets) == 0 {
			return Result{}, ErrBuildFailed
		}

		sol, err := negotiated.Run(negCfg, nets)
		if err != nil {
			return Result{}, err
		}

		attempt := Attempt{Stack: stack, LayerCount: layerCount, Solution: sol}
		attempts = append(attempts, attempt)
		last = attempt
		haveLast = true

		if sol.Converged {
			return Result{Chosen: attempt, Converged: true, Attempts: attempts}, nil
		}
	}

	if !haveLast {
		return Result{}, ErrNoPresets
	}

	return Result{Chosen: last, Converged: false, Attempts: attempts}, nil
}

// StandardLadder returns the canonical [2L, 4L, 6L] escalation order.
func StandardLadder() []*stackup.LayerStack {
	return []*stackup.LayerStack{
		stackup.Default2Layer(),
		stackup.JLCPCB4Layer(),
		stackup.Default6Layer(),
	}
}
