package analysis

import (
	"fmt"
	"math"
	"regexp"
	"sort"

	"github.com/katalvlaran/pcbroute/geom"
	"github.com/katalvlaran/pcbroute/model"
)

// RiskLevel is a crosstalk-coupling risk classification.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Coupling-coefficient thresholds for RiskLevel classification.
const (
	couplingLow    = 0.1
	couplingMedium = 0.3
	couplingHigh   = 0.5
)

// Impedance mismatch thresholds, percent.
const (
	mismatchWarn  = 10.0
	mismatchError = 25.0
)

var highSpeedNetPatterns = []string{
	`(?i)^CLK`, `(?i)CLK$`, `(?i)CLOCK`, `(?i)_CLK_`,
	`(?i)USB.*D[PM]$`, `(?i)USB.*[DP][+\-]?$`, `(?i)USB.*DATA`, `(?i)^D[+\-]$`,
	`(?i)LVDS`, `(?i)MIPI`, `(?i)HDMI`, `(?i)DP_`, `(?i)PCIE`, `(?i)SATA`,
	`(?i)DDR`, `(?i)^DQ\d`, `(?i)^DQS`, `(?i)^DM\d`,
	`(?i)ETH.*[TP][+\-]?`, `(?i)RGMII`, `(?i)RMII`,
	`(?i)MOSI`, `(?i)MISO`, `(?i)SCK`, `(?i)SPI.*CLK`,
}

// CrosstalkRisk is a coupling concern between a high-speed net (the
// aggressor) and an adjacent parallel run from another net (the victim).
type CrosstalkRisk struct {
	AggressorNet        string
	VictimNet           string
	ParallelLengthMM    float64
	SpacingMM           float64
	Layer               string
	CouplingCoefficient float64 // 0-1
	RiskLevel           RiskLevel
	Suggestion          string
}

// ImpedanceDiscontinuity is a point on a high-speed net where trace
// geometry changes enough to shift characteristic impedance.
type ImpedanceDiscontinuity struct {
	Net             string
	Position        geom.Point
	ImpedanceBefore float64 // ohms
	ImpedanceAfter  float64 // ohms
	MismatchPercent float64
	Cause           string // "width_change" or "via"
	Suggestion      string
}

// SignalIntegrityConfig parameterizes crosstalk and impedance screening.
type SignalIntegrityConfig struct {
	MinParallelLengthMM   float64  // defaults to 3.0
	MaxCouplingDistanceMM float64  // defaults to 0.5
	HighSpeedPatterns     []string // extra regexes, appended to the defaults
}

func (cfg *SignalIntegrityConfig) setDefaults() {
	if cfg.MinParallelLengthMM <= 0 {
		cfg.MinParallelLengthMM = 3.0
	}
	if cfg.MaxCouplingDistanceMM <= 0 {
		cfg.MaxCouplingDistanceMM = 0.5
	}
}

func (cfg SignalIntegrityConfig) compiledPatterns() []*regexp.Regexp {
	all := append(append([]string{}, highSpeedNetPatterns...), cfg.HighSpeedPatterns...)
	out := make([]*regexp.Regexp, 0, len(all))
	for _, p := range all {
		out = append(out, regexp.MustCompile(p))
	}

	return out
}

type trackRun struct {
	segment model.Segment
	netID   model.NetID
	netName string
	layer   string
	length  float64
}

// AnalyzeCrosstalk identifies high-speed nets by name, builds a track run
// per segment on each of their layers, and scores parallel runs from other
// nets for coupling risk. Only MEDIUM+ risk pairs are returned, sorted
// highest risk first then by descending coupling coefficient; each
// aggressor/victim net pair is reported at most once.
func AnalyzeCrosstalk(board BoardSample, cfg SignalIntegrityConfig) []CrosstalkRisk {
	cfg.setDefaults()
	patterns := cfg.compiledPatterns()

	highSpeed := identifyHighSpeedNets(board.NetNames, patterns)
	if len(highSpeed) == 0 {
		return nil
	}

	segsByLayer := make(map[string][]model.Segment)
	for _, s := range board.Segments {
		segsByLayer[s.Layer] = append(segsByLayer[s.Layer], s)
	}

	var risks []CrosstalkRisk
	analyzedPairs := make(map[[2]model.NetID]bool)

	for _, netID := range sortedNetIDs(highSpeed) {
		netName := netNameOr(board.NetNames, netID)

		for _, seg := range board.Segments {
			if seg.NetID != netID {
				continue
			}
			run := trackRun{segment: seg, netID: netID, netName: netName, layer: seg.Layer, length: seg.Length()}

			for _, other := range segsByLayer[seg.Layer] {
				if other.NetID == netID {
					continue
				}
				parallelLength, spacing := couplingGeometry(seg, other)
				if parallelLength < cfg.MinParallelLengthMM || spacing > cfg.MaxCouplingDistanceMM {
					continue
				}

				pairKey := sortedPair(netID, other.NetID)
				if analyzedPairs[pairKey] {
					continue
				}
				analyzedPairs[pairKey] = true

				adjName := netNameOr(board.NetNames, other.NetID)
				risk := crosstalkRisk(run, other, adjName, parallelLength, spacing)
				if risk.RiskLevel != RiskLow {
					risks = append(risks, risk)
				}
			}
		}
	}

	riskOrder := map[RiskLevel]int{RiskHigh: 0, RiskMedium: 1, RiskLow: 2}
	sort.SliceStable(risks, func(i, j int) bool {
		if riskOrder[risks[i].RiskLevel] != riskOrder[risks[j].RiskLevel] {
			return riskOrder[risks[i].RiskLevel] < riskOrder[risks[j].RiskLevel]
		}

		return risks[i].CouplingCoefficient > risks[j].CouplingCoefficient
	})

	return risks
}

func identifyHighSpeedNets(netNames map[model.NetID]string, patterns []*regexp.Regexp) map[model.NetID]bool {
	out := make(map[model.NetID]bool)
	for id, name := range netNames {
		if name == "" {
			continue
		}
		for _, p := range patterns {
			if p.MatchString(name) {
				out[id] = true
				break
			}
		}
	}

	return out
}

func sortedNetIDs(set map[model.NetID]bool) []model.NetID {
	out := make([]model.NetID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out
}

func sortedPair(a, b model.NetID) [2]model.NetID {
	if a > b {
		a, b = b, a
	}

	return [2]model.NetID{a, b}
}

func netNameOr(netNames map[model.NetID]string, id model.NetID) string {
	if name, ok := netNames[id]; ok && name != "" {
		return name
	}

	return fmt.Sprintf("net_%d", id)
}

// couplingGeometry reports the parallel-overlap length and edge-to-edge
// spacing between two segments, or (0, +Inf) if they are not parallel
// enough (dot product of their unit directions below 0.9).
func couplingGeometry(a, b model.Segment) (parallelLength, spacing float64) {
	d1 := a.End.Sub(a.Start)
	d2 := b.End.Sub(b.Start)
	len1, len2 := math.Hypot(d1.X, d1.Y), math.Hypot(d2.X, d2.Y)
	if len1 < 0.01 || len2 < 0.01 {
		return 0, math.Inf(1)
	}

	nx1, ny1 := d1.X/len1, d1.Y/len1
	nx2, ny2 := d2.X/len2, d2.Y/len2

	dot := math.Abs(nx1*nx2 + ny1*ny2)
	if dot < 0.9 {
		return 0, math.Inf(1)
	}

	px, py := b.Start.X-a.Start.X, b.Start.Y-a.Start.Y
	projAlong := px*nx1 + py*ny1
	perpDist := math.Abs(px*(-ny1) + py*nx1)

	spacing = perpDist - (a.Width+b.Width)/2
	if spacing < 0 {
		spacing = 0
	}

	overlapStart := math.Max(0, projAlong)
	overlapEnd := math.Min(len1, projAlong+len2)
	parallelLength = math.Max(0, overlapEnd-overlapStart)

	return parallelLength, spacing
}

func crosstalkRisk(run trackRun, adj model.Segment, adjName string, parallelLength, spacing float64) CrosstalkRisk {
	if spacing < 0.05 {
		spacing = 0.05
	}

	coupling := (parallelLength / 10.0) * (0.1 / spacing)
	if coupling > 1.0 {
		coupling = 1.0
	}

	var level RiskLevel
	switch {
	case coupling >= couplingHigh:
		level = RiskHigh
	case coupling >= couplingMedium:
		level = RiskMedium
	default:
		level = RiskLow
	}

	var suggestion string
	if level != RiskLow {
		targetSpacing := spacing * 2
		if targetSpacing < 0.5 {
			targetSpacing = 0.5
		}
		suggestion = fmt.Sprintf("increase spacing to %.2fmm or add ground guard trace", targetSpacing)
	}

	return CrosstalkRisk{
		AggressorNet:        run.netName,
		VictimNet:           adjName,
		ParallelLengthMM:    geom.Round(parallelLength, 2),
		SpacingMM:           geom.Round(spacing, 3),
		Layer:               run.layer,
		CouplingCoefficient: geom.Round(coupling, 3),
		RiskLevel:           level,
		Suggestion:          suggestion,
	}
}

// AnalyzeImpedance screens high-speed nets for width-change discontinuities
// between connected same-layer segments (shared-endpoint adjacency, the
// same segmentsTouch test the connectivity analysis uses, rather than a
// position-sort heuristic) and via discontinuities,
// sorted by descending mismatch percentage.
func AnalyzeImpedance(board BoardSample, cfg SignalIntegrityConfig) []ImpedanceDiscontinuity {
	cfg.setDefaults()
	patterns := cfg.compiledPatterns()
	highSpeed := identifyHighSpeedNets(board.NetNames, patterns)

	segsByNet := make(map[model.NetID][]model.Segment)
	for _, s := range board.Segments {
		segsByNet[s.NetID] = append(segsByNet[s.NetID], s)
	}
	viasByNet := make(map[model.NetID][]model.Via)
	for _, v := range board.Vias {
		viasByNet[v.NetID] = append(viasByNet[v.NetID], v)
	}

	var discontinuities []ImpedanceDiscontinuity
	for _, netID := range sortedNetIDs(highSpeed) {
		netName := netNameOr(board.NetNames, netID)
		segments := segsByNet[netID]

		for _, pair := range connectedSameLayerPairs(segments) {
			a, b := pair[0], pair[1]
			if math.Abs(a.Width-b.Width) <= 0.01 {
				continue
			}
			if disc, ok := widthDiscontinuity(a, b, netName); ok && disc.MismatchPercent >= mismatchWarn {
				discontinuities = append(discontinuities, disc)
			}
		}

		for _, via := range viasByNet[netID] {
			if disc, ok := viaDiscontinuity(via, segments, netName); ok {
				discontinuities = append(discontinuities, disc)
			}
		}
	}

	sort.SliceStable(discontinuities, func(i, j int) bool {
		return discontinuities[i].MismatchPercent > discontinuities[j].MismatchPercent
	})

	return discontinuities
}

// connectedSameLayerPairs returns every pair of same-layer segments that
// share an endpoint within tolerance, using the same segment-chain
// adjacency the connectivity analysis builds rather than a position sort.
func connectedSameLayerPairs(segments []model.Segment) [][2]model.Segment {
	var pairs [][2]model.Segment
	for i := 0; i < len(segments); i++ {
		for j := i + 1; j < len(segments); j++ {
			a, b := segments[i], segments[j]
			if a.Layer != b.Layer {
				continue
			}
			if segmentsTouch(a, b, defaultPositionToleranceMM) {
				pairs = append(pairs, [2]model.Segment{a, b})
			}
		}
	}

	return pairs
}

const (
	nominalTraceWidthMM = 0.2
	nominalZ0Ohms       = 50.0
	viaZ0Ohms           = 30.0
)

func widthDiscontinuity(a, b model.Segment, netName string) (ImpedanceDiscontinuity, bool) {
	pos, ok := connectionPoint(a, b)
	if !ok {
		return ImpedanceDiscontinuity{}, false
	}

	z1 := impedanceForWidth(a.Width)
	z2 := impedanceForWidth(b.Width)
	if z1 <= 0 {
		return ImpedanceDiscontinuity{}, false
	}
	mismatch := math.Abs(z2-z1) / z1 * 100

	avgWidth := (a.Width + b.Width) / 2
	suggestion := fmt.Sprintf("use consistent %.3fmm width to maintain %.0fOhm impedance", avgWidth, nominalZ0Ohms)

	return ImpedanceDiscontinuity{
		Net:             netName,
		Position:        pos,
		ImpedanceBefore: geom.Round(z1, 1),
		ImpedanceAfter:  geom.Round(z2, 1),
		MismatchPercent: geom.Round(mismatch, 1),
		Cause:           "width_change",
		Suggestion:      suggestion,
	}, true
}

func impedanceForWidth(width float64) float64 {
	if width <= 0 {
		return nominalZ0Ohms
	}

	return nominalZ0Ohms * (nominalTraceWidthMM / width)
}

func connectionPoint(a, b model.Segment) (geom.Point, bool) {
	switch {
	case a.Start.Near(b.Start, defaultPositionToleranceMM), a.Start.Near(b.End, defaultPositionToleranceMM):
		return a.Start, true
	case a.End.Near(b.Start, defaultPositionToleranceMM), a.End.Near(b.End, defaultPositionToleranceMM):
		return a.End, true
	default:
		return geom.Point{}, false
	}
}

// viaDiscontinuity estimates the nominal trace impedance from segments
// landing within 1mm of the via and compares it against a fixed via
// estimate; vias are expected to carry some mismatch, so only
// discontinuities of 20%+ are reported.
func viaDiscontinuity(via model.Via, segments []model.Segment, netName string) (ImpedanceDiscontinuity, bool) {
	traceZ0 := nominalZ0Ohms

	var widths []float64
	for _, seg := range segments {
		for _, pt := range []geom.Point{seg.Start, seg.End} {
			if pt.Dist(via.Position) < 1.0 {
				widths = append(widths, seg.Width)
			}
		}
	}
	if len(widths) > 0 {
		sum := 0.0
		for _, w := range widths {
			sum += w
		}
		traceZ0 = impedanceForWidth(sum / float64(len(widths)))
	}

	mismatch := math.Abs(viaZ0Ohms-traceZ0) / traceZ0 * 100
	if mismatch < 20 {
		return ImpedanceDiscontinuity{}, false
	}

	return ImpedanceDiscontinuity{
		Net:             netName,
		Position:        via.Position,
		ImpedanceBefore: geom.Round(traceZ0, 1),
		ImpedanceAfter:  geom.Round(viaZ0Ohms, 1),
		MismatchPercent: geom.Round(mismatch, 1),
		Cause:           "via",
		Suggestion:      "consider via-in-pad or back-drill for high-speed signals",
	}, true
}
