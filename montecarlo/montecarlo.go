// Package montecarlo wraps a net router with seeded multi-start trials:
// the first trial routes nets in priority order, later trials shuffle nets
// within their priority tier (class priority is never violated), each on a
// fresh grid, and the highest-scoring trial's routes are kept.
//
// Grounded on tsp/rng.go's deterministic RNG conventions (seed==0 falls
// back to a fixed default seed, per-trial streams derived by mixing the
// base seed with a stream id, Fisher-Yates in-place shuffles) adapted from
// tour permutations to within-tier net-order permutations.
package montecarlo

import (
	"errors"
	"math/rand"

	"github.com/katalvlaran/pcbroute/grid"
	"github.com/katalvlaran/pcbroute/model"
	"github.com/katalvlaran/pcbroute/netrouter"
)

var (
	ErrNoTrials = errors.New("montecarlo: trial count must be at least 1")
	ErrNoNets   = errors.New("montecarlo: net list must not be empty")
)

// defaultSeed is used when Config.Seed == 0, mirroring tsp's "seed==0 means
// deterministic default" policy rather than treating it as unseeded.
const defaultSeed int64 = 1

// TrialRouter routes nets (in the order given) onto a freshly built grid and
// reports, per net, the routes produced.
type TrialRouter func(g *grid.RoutingGrid, nets []netrouter.NetToRoute) (map[model.NetID]netrouter.Result, error)

// Config parameterizes a multi-start run. Nets must already be in priority
// order (e.g. the output of netrouter.PriorityOrder); ClassOf/ClassPriority
// must match whatever produced that order so trials can identify tier
// boundaries to shuffle within.
type Config struct {
	GridFactory    func() *grid.RoutingGrid
	Router         TrialRouter
	Nets           []netrouter.NetToRoute
	ClassOf        func(netName string) string
	ClassPriority  map[string]int
	Trials         int
	Seed           int64
}

// Result is the best trial found.
type Result struct {
	Routes        map[model.NetID]netrouter.Result
	TrialIndex    int
	Score         float64
	RoutedNets    int
	ViaCount      int
	TotalLengthMM float64
}

// Run executes cfg.Trials independent routing attempts and returns the
// highest-scoring one. Score = routed_nets*1000 - via_count -
// total_length_mm/10.
func Run(cfg Config) (Result, error) {
	if cfg.Trials < 1 {
		return Result{}, ErrNoTrials
	}
	if len(cfg.Nets) == 0 {
		return Result{}, ErrNoNets
	}

	rng := rngFromSeed(cfg.Seed)

	var best Result
	haveBest := false

	for trial := 0; trial < cfg.Trials; trial++ {
		order := cfg.Nets
		if trial > 0 {
			order = shuffleWithinTiers(cfg.Nets, cfg.ClassOf, cfg.ClassPriority, deriveRNG(rng, uint64(trial)))
		}

		g := cfg.GridFactory()
		routes, err := cfg.Router(g, order)
		if err != nil {
			return Result{}, err
		}

		score, routed, vias, length := score(routes)
		if !haveBest || score > best.Score {
			best = Result{
				Routes:        routes,
				TrialIndex:    trial,
				Score:         score,
				RoutedNets:    routed,
				ViaCount:      vias,
				TotalLengthMM: length,
			}
			haveBest = true
		}
	}

	return best, nil
}

func score(routes map[model.NetID]netrouter.Result) (score float64, routedNets, viaCount int, totalLengthMM float64) {
	for _, res := range routes {
		if res.FullyRouted {
			routedNets++
		}
		for _, r := range res.Routes {
			viaCount += len(r.Vias)
			for _, s := range r.Segments {
				totalLengthMM += s.Start.Dist(s.End)
			}
		}
	}

	score = float64(routedNets)*1000 - float64(viaCount) - totalLengthMM/10

	return score, routedNets, viaCount, totalLengthMM
}

// tierOf resolves a net's priority tier, mirroring netrouter.PriorityOrder's
// "unclassified sorts last" rule.
func tierOf(n netrouter.NetToRoute, classOf func(string) string, classPriority map[string]int) int {
	if classOf == nil || classPriority == nil {
		return 0
	}
	if p, ok := classPriority[classOf(n.Net.Name)]; ok {
		return p
	}

	return int(^uint(0) >> 1)
}

// shuffleWithinTiers groups nets into contiguous same-tier runs (nets is
// assumed already tier-ordered) and independently Fisher-Yates shuffles the
// order within each run, preserving tier order and never moving a net out
// of its tier.
func shuffleWithinTiers(nets []netrouter.NetToRoute, classOf func(string) string, classPriority map[string]int, rng *rand.Rand) []netrouter.NetToRoute {
	out := make([]netrouter.NetToRoute, len(nets))
	copy(out, nets)

	start := 0
	for start < len(out) {
		tier := tierOf(out[start], classOf, classPriority)
		end := start + 1
		for end < len(out) && tierOf(out[end], classOf, classPriority) == tier {
			end++
		}
		shuffleSlice(out[start:end], rng)
		start = end
	}

	return out
}

func shuffleSlice(s []netrouter.NetToRoute, rng *rand.Rand) {
	for i := len(s) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		s[i], s[j] = s[j], s[i]
	}
}

func rngFromSeed(seed int64) *rand.Rand {
	s := seed
	if s == 0 {
		s = defaultSeed
	}

	return rand.New(rand.NewSource(s))
}

// deriveRNG mixes base's next draw with stream to produce an independent
// per-trial RNG, avoiding correlated shuffles across trials.
func deriveRNG(base *rand.Rand, stream uint64) *rand.Rand {
	parent := base.Int63()

	var x uint64
	x = uint64(parent) ^ (stream + 0x9e3779b97f4a7c15)
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	x ^= x >> 31

	return rand.New(rand.NewSource(int64(x)))
}
