// Package timing turns the single-ended transmission-line solvers in tline
// into length/delay budgeting queries: propagation delay for a given trace,
// inverse length-for-delay lookups, length-matching across a net group,
// differential-pair skew, and serpentine (meander) sizing to burn off extra
// delay.
package timing

import (
	"errors"
	"math"

	"github.com/katalvlaran/pcbroute/stackup"
	"github.com/katalvlaran/pcbroute/tline"
)

var (
	ErrNonPositiveLength = errors.New("timing: length must be positive")
	ErrNonPositiveDelay  = errors.New("timing: target delay must be positive")
	ErrCPWGGapNotSet     = errors.New("timing: CPWGGapMM must be configured to analyze CPWG traces")
	ErrEmptyNetGroup     = errors.New("timing: net group must not be empty")
)

// Config parameterizes a TimingAnalyzer over a fixed stackup and trace
// thickness; CPWGGapMM is only consulted when a query's mode is
// tline.ModeCPWG.
type Config struct {
	Stack            *stackup.LayerStack
	TraceThicknessMM float64
	CPWGGapMM        float64
}

// TimingAnalyzer answers delay and length-matching queries for traces on a
// fixed stackup.
type TimingAnalyzer struct {
	cfg Config
}

// New constructs a TimingAnalyzer over cfg.
func New(cfg Config) *TimingAnalyzer {
	return &TimingAnalyzer{cfg: cfg}
}

// PropagationDelay reports the per-unit-length delay and phase velocity of a
// trace of width wMM on layerName, modeled per mode.
type PropagationDelay struct {
	DelayPsPerMM       float64
	DelayNsPerInch     float64
	PhaseVelocityMPerS float64
	PercentOfC         float64
}

func (a *TimingAnalyzer) resolve(wMM float64, layerName string, mode tline.Mode) (tline.ImpedanceResult, error) {
	epsR, err := a.cfg.Stack.GetDielectricConstant(layerName)
	if err != nil {
		return tline.ImpedanceResult{}, err
	}

	switch mode {
	case tline.ModeStripline:
		hAbove, hBelow, err := a.cfg.Stack.GetStriplineGeometry(layerName)
		if err != nil {
			return tline.ImpedanceResult{}, err
		}

		return tline.Stripline(wMM, hAbove, hBelow, epsR, a.cfg.TraceThicknessMM, 0)
	case tline.ModeCPWG:
		if a.cfg.CPWGGapMM <= 0 {
			return tline.ImpedanceResult{}, ErrCPWGGapNotSet
		}
		h, err := a.cfg.Stack.GetReferencePlaneDistance(layerName)
		if err != nil {
			return tline.ImpedanceResult{}, err
		}

		return tline.CPWG(wMM, a.cfg.CPWGGapMM, h, epsR, a.cfg.TraceThicknessMM, 0)
	default:
		h, err := a.cfg.Stack.GetReferencePlaneDistance(layerName)
		if err != nil {
			return tline.ImpedanceResult{}, err
		}

		return tline.Microstrip(wMM, h, epsR, a.cfg.TraceThicknessMM, 0)
	}
}

// PropagationDelayOf computes the per-unit delay of a trace of width wMM on
// layerName under mode.
func (a *TimingAnalyzer) PropagationDelayOf(wMM float64, layerName string, mode tline.Mode) (PropagationDelay, error) {
	r, err := a.resolve(wMM, layerName, mode)
	if err != nil {
		return PropagationDelay{}, err
	}

	return PropagationDelay{
		DelayPsPerMM:       r.DelayPsPerMM(),
		DelayNsPerInch:     r.DelayNsPerInch(),
		PhaseVelocityMPerS: r.PhaseVelocityMPerS,
		PercentOfC:         100 * r.PhaseVelocityMPerS / (tline.SpeedOfLight * 1e6),
	}, nil
}

// TraceAnalysis extends PropagationDelay with the total delay of a specific
// trace length.
type TraceAnalysis struct {
	PropagationDelay
	TotalDelayNs float64
}

// AnalyzeTrace computes the delay of a trace of lengthMM and width wMM on
// layerName under mode.
func (a *TimingAnalyzer) AnalyzeTrace(lengthMM, wMM float64, layerName string, mode tline.Mode) (TraceAnalysis, error) {
	if lengthMM <= 0 {
		return TraceAnalysis{}, ErrNonPositiveLength
	}

	pd, err := a.PropagationDelayOf(wMM, layerName, mode)
	if err != nil {
		return TraceAnalysis{}, err
	}

	return TraceAnalysis{
		PropagationDelay: pd,
		TotalDelayNs:     pd.DelayPsPerMM * lengthMM / 1000,
	}, nil
}

// LengthForDelay returns the trace length in mm that yields targetNs of
// delay at width wMM on layerName under mode. Delay is linear in length for
// a fixed cross-section, so this is closed-form rather than iterative.
func (a *TimingAnalyzer) LengthForDelay(targetNs, wMM float64, layerName string, mode tline.Mode) (float64, error) {
	if targetNs <= 0 {
		return 0, ErrNonPositiveDelay
	}

	pd, err := a.PropagationDelayOf(wMM, layerName, mode)
	if err != nil {
		return 0, err
	}
	if pd.DelayPsPerMM <= 0 {
		return 0, ErrNonPositiveDelay
	}

	return targetNs * 1000 / pd.DelayPsPerMM, nil
}

// NetLength names one net's routed length for a length-matching query.
type NetLength struct {
	Name     string
	LengthMM float64
}

// TimingBudget is the per-net outcome of a length-matching analysis: delay
// relative to the group's mean delay (TargetDelayNs), and whether the skew
// from that mean is within maxSkewNs.
type TimingBudget struct {
	Name          string
	DelayNs       float64
	TargetDelayNs float64
	SkewNs        float64
	WithinBudget  bool
}

// AnalyzeLengthMatching computes per-net delay, the group's mean delay, and
// skew from that mean for a set of nets sharing width wMM, layerName, and
// mode.
func (a *TimingAnalyzer) AnalyzeLengthMatching(nets []NetLength, wMM float64, layerName string, mode tline.Mode, maxSkewNs float64) ([]TimingBudget, error) {
	if len(nets) == 0 {
		return nil, ErrEmptyNetGroup
	}

	pd, err := a.PropagationDelayOf(wMM, layerName, mode)
	if err != nil {
		return nil, err
	}

	delays := make([]float64, len(nets))
	var sum float64
	for i, n := range nets {
		delays[i] = pd.DelayPsPerMM * n.LengthMM / 1000
		sum += delays[i]
	}
	mean := sum / float64(len(nets))

	out := make([]TimingBudget, len(nets))
	for i, n := range nets {
		skew := math.Abs(delays[i] - mean)
		out[i] = TimingBudget{
			Name:          n.Name,
			DelayNs:       delays[i],
			TargetDelayNs: mean,
			SkewNs:        skew,
			WithinBudget:  skew <= maxSkewNs,
		}
	}

	return out, nil
}

// DifferentialPairSkew is the outcome of comparing the P and N leg delays of
// a differential pair.
type DifferentialPairSkew struct {
	DelayPNs       float64
	DelayNNs       float64
	SkewPs         float64
	WithinSpec     bool
	Recommendation string
}

// AnalyzeDifferentialPairSkew compares the delays of the P (lpMM) and N
// (lnMM) legs of a differential pair sharing width wMM, layerName, and mode.
func (a *TimingAnalyzer) AnalyzeDifferentialPairSkew(lpMM, lnMM, wMM float64, layerName string, mode tline.Mode, maxSkewPs float64) (DifferentialPairSkew, error) {
	if lpMM <= 0 || lnMM <= 0 {
		return DifferentialPairSkew{}, ErrNonPositiveLength
	}

	pd, err := a.PropagationDelayOf(wMM, layerName, mode)
	if err != nil {
		return DifferentialPairSkew{}, err
	}

	dp := pd.DelayPsPerMM * lpMM / 1000
	dn := pd.DelayPsPerMM * lnMM / 1000
	skewPs := math.Abs(dp-dn) * 1000
	within := skewPs <= maxSkewPs

	rec := ""
	if !within {
		longer, shorter := "P", "N"
		if lnMM > lpMM {
			longer, shorter = "N", "P"
		}
		rec = "add serpentine to the " + shorter + " leg to match the " + longer + " leg"
	}

	return DifferentialPairSkew{
		DelayPNs:       dp,
		DelayNNs:       dn,
		SkewPs:         skewPs,
		WithinSpec:     within,
		Recommendation: rec,
	}, nil
}

// LengthDifferenceForSkew returns the length difference in mm between two
// traces of width wMM that produces maxSkewPs of skew.
func (a *TimingAnalyzer) LengthDifferenceForSkew(maxSkewPs, wMM float64, layerName string, mode tline.Mode) (float64, error) {
	if maxSkewPs <= 0 {
		return 0, ErrNonPositiveDelay
	}

	pd, err := a.PropagationDelayOf(wMM, layerName, mode)
	if err != nil {
		return 0, err
	}
	if pd.DelayPsPerMM <= 0 {
		return 0, ErrNonPositiveDelay
	}

	return maxSkewPs / pd.DelayPsPerMM, nil
}

// SerpentineParameters sizes a meander that adds extraDelayNs of delay to a
// trace of width wMM and minimum spacing spacingMM between meander arms.
type SerpentineParameters struct {
	AmplitudeMM   float64
	PitchMM       float64
	Count         int
	AddedLengthMM float64
}

// serpentineAmplitudeFactor is applied to the floor amplitude
// max(3*w, spacing+w) to leave clearance margin around each meander arm.
const serpentineAmplitudeFactor = 1.5

// SerpentineParameters computes the meander geometry needed to add
// extraDelayNs of delay to a trace of width wMM, with spacingMM minimum
// clearance between meander arms.
func (a *TimingAnalyzer) SerpentineParameters(extraDelayNs, wMM, spacingMM float64, layerName string, mode tline.Mode) (SerpentineParameters, error) {
	if extraDelayNs <= 0 {
		return SerpentineParameters{}, ErrNonPositiveDelay
	}

	pd, err := a.PropagationDelayOf(wMM, layerName, mode)
	if err != nil {
		return SerpentineParameters{}, err
	}

	extraLengthMM := extraDelayNs * 1000 / pd.DelayPsPerMM

	floor := 3 * wMM
	if alt := spacingMM + wMM; alt > floor {
		floor = alt
	}
	amplitude := floor * serpentineAmplitudeFactor
	pitch := 2 * (spacingMM + wMM)

	// Each meander half-loop (a "U" of height 2*amplitude) replaces a
	// straight run of length pitch, so it nets (2*amplitude - pitch) of
	// extra path length; clamp the per-loop gain to a small positive floor
	// so a degenerate pitch/amplitude combination can't divide by ~0.
	perLoop := 2*amplitude - pitch
	if perLoop < wMM {
		perLoop = wMM
	}

	count := int(math.Ceil(extraLengthMM / perLoop))
	if count < 1 {
		count = 1
	}

	return SerpentineParameters{
		AmplitudeMM:   amplitude,
		PitchMM:       pitch,
		Count:         count,
		AddedLengthMM: float64(count) * perLoop,
	}, nil
}
