// Package config centralizes the documented default for every
// configurable knob a routing run exposes in one functional-options
// profile, and derives the congestion, signal-integrity and thermal
// analysis Config values from it (wire.go). The routing knobs (grid
// resolution, layers, negotiated iteration and cost factors, Monte Carlo
// trials, seed, verbosity) are plain Profile fields; no autorouter,
// negotiated or Monte Carlo Config value is built here.
//
// Every other package in this module keeps its own plain Config struct
// with a setDefaults method — that convention stays unchanged and is
// still how each package validates and defaults its own fields. This
// package exists one level up: it is the single place a caller states
// board-level policy ("2-layer board, 50 Monte Carlo trials, seed 7,
// verbose") once and reads every knob from one value, rather than
// repeating the same knobs across five call sites.
//
// Grounded on builder.BuilderOption's functional-options shape
// (WithXxx(v) Option, applied in order over a defaulted struct).
package config

// Option customizes a Profile before it is read.
type Option func(*Profile)

// Profile aggregates every default named for a routing run.
type Profile struct {
	GridResolutionMM       float64 // 0.1-0.2mm, defaults to 0.2
	MaxLayers              int     // 2|4|6, defaults to 2
	MaxIterations          int     // negotiated routing iteration cap, defaults to 10
	InitialPresentFactor   float64 // defaults to 0.5
	PresentFactorIncrement float64 // defaults to 0.5
	HistoryIncrement       float64 // defaults to 1.0
	MonteCarloTrials       int     // defaults to 0 (disabled)
	Seed                   int64   // used only when SeedSet is true
	SeedSet                bool
	Verbose                bool

	Congestion      CongestionDefaults
	SignalIntegrity SignalIntegrityDefaults
	Thermal         ThermalDefaults
}

// CongestionDefaults are the congestion-analysis knobs.
type CongestionDefaults struct {
	GridSizeMM    float64 // defaults to 2.0
	MergeRadiusMM float64 // defaults to 5.0
	MaxWorkers    int     // defaults to 0 (package picks runtime.NumCPU())
}

// SignalIntegrityDefaults are the signal-integrity knobs.
type SignalIntegrityDefaults struct {
	MinParallelLengthMM   float64 // defaults to 3.0
	MaxCouplingDistanceMM float64 // defaults to 0.5
	AdditionalPatterns    []string
}

// ThermalDefaults are the thermal-analysis knobs.
type ThermalDefaults struct {
	ClusterRadiusMM float64 // defaults to 10.0
	MinPowerW       float64 // defaults to 0.05
}

// Default returns a Profile with every documented default applied, then
// applies opts in order.
func Default(opts ...Option) Profile {
	p := Profile{
		GridResolutionMM:       0.2,
		MaxLayers:              2,
		MaxIterations:          10,
		InitialPresentFactor:   0.5,
		PresentFactorIncrement: 0.5,
		HistoryIncrement:       1.0,
		Congestion: CongestionDefaults{
			GridSizeMM:    2.0,
			MergeRadiusMM: 5.0,
		},
		SignalIntegrity: SignalIntegrityDefaults{
			MinParallelLengthMM:   3.0,
			MaxCouplingDistanceMM: 0.5,
		},
		Thermal: ThermalDefaults{
			ClusterRadiusMM: 10.0,
			MinPowerW:       0.05,
		},
	}

	for _, opt := range opts {
		opt(&p)
	}

	return p
}

// WithGridResolutionMM overrides the routing grid cell size.
func WithGridResolutionMM(mm float64) Option {
	return func(p *Profile) { p.GridResolutionMM = mm }
}

// WithMaxLayers overrides the board layer count (2, 4, or 6).
func WithMaxLayers(n int) Option {
	return func(p *Profile) { p.MaxLayers = n }
}

// WithMaxIterations overrides the negotiated-routing rip-up/reroute cap.
func WithMaxIterations(n int) Option {
	return func(p *Profile) { p.MaxIterations = n }
}

// WithNegotiatedFactors overrides the negotiated-routing present/history
// cost schedule.
func WithNegotiatedFactors(initialPresent, presentIncrement, historyIncrement float64) Option {
	return func(p *Profile) {
		p.InitialPresentFactor = initialPresent
		p.PresentFactorIncrement = presentIncrement
		p.HistoryIncrement = historyIncrement
	}
}

// WithMonteCarloTrials enables Monte Carlo multi-start with n trials (0
// disables it).
func WithMonteCarloTrials(n int) Option {
	return func(p *Profile) { p.MonteCarloTrials = n }
}

// WithSeed fixes the Monte Carlo / multi-start RNG seed for reproducible
// runs.
func WithSeed(seed int64) Option {
	return func(p *Profile) { p.Seed, p.SeedSet = seed, true }
}

// WithVerbose enables the board-level logger.
func WithVerbose(v bool) Option {
	return func(p *Profile) { p.Verbose = v }
}

// WithCongestionDefaults overrides the congestion-analysis knobs.
func WithCongestionDefaults(gridSizeMM, mergeRadiusMM float64, maxWorkers int) Option {
	return func(p *Profile) {
		p.Congestion = CongestionDefaults{GridSizeMM: gridSizeMM, MergeRadiusMM: mergeRadiusMM, MaxWorkers: maxWorkers}
	}
}

// WithSignalIntegrityDefaults overrides the signal-integrity knobs.
func WithSignalIntegrityDefaults(minParallelLengthMM, maxCouplingDistanceMM float64, additionalPatterns []string) Option {
	return func(p *Profile) {
		p.SignalIntegrity = SignalIntegrityDefaults{
			MinParallelLengthMM:   minParallelLengthMM,
			MaxCouplingDistanceMM: maxCouplingDistanceMM,
			AdditionalPatterns:    additionalPatterns,
		}
	}
}

// WithThermalDefaults overrides the thermal-analysis knobs.
func WithThermalDefaults(clusterRadiusMM, minPowerW float64) Option {
	return func(p *Profile) { p.Thermal = ThermalDefaults{ClusterRadiusMM: clusterRadiusMM, MinPowerW: minPowerW} }
}
