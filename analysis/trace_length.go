package analysis

import (
	"fmt"
	"math"
	"regexp"
	"sort"

	"github.com/katalvlaran/pcbroute/diffpair"
	"github.com/katalvlaran/pcbroute/geom"
	"github.com/katalvlaran/pcbroute/model"
)

var criticalNetPatterns = []string{
	`(?i)^CLK`, `(?i)CLK$`, `(?i)CLOCK`, `(?i)_CLK_`,
	`(?i)USB.*[DP][+\-]?$`, `(?i)USB.*DATA`, `(?i)^D[+\-]$`,
	`(?i)LVDS`, `(?i)MIPI`, `(?i)HDMI`, `(?i)DP_`, `(?i)PCIE`, `(?i)SATA`,
	`(?i)DDR`, `(?i)^DQ\d`, `(?i)^DQS`, `(?i)^DM\d`, `(?i)^A\d+$`,
	`(?i)ETH.*[TP][+\-]?`, `(?i)RGMII`, `(?i)RMII`,
	`(?i)CAN.*[HL]$`,
}

// TraceLengthReport is the trace-length measurement for one net.
type TraceLengthReport struct {
	NetName        string
	TotalLengthMM  float64
	SegmentCount   int
	SegmentLengths []float64
	ViaCount       int
	LayerChanges   []string
	LayersUsed     []string

	// Populated when the net is one side of a detected differential pair.
	PairNet      string
	PairLengthMM float64
	SkewMM       float64
}

// TraceLengthConfig parameterizes timing-critical net identification.
type TraceLengthConfig struct {
	CriticalPatterns []string // extra regexes, appended to the defaults
}

func (cfg TraceLengthConfig) compiledPatterns() []*regexp.Regexp {
	all := append(append([]string{}, criticalNetPatterns...), cfg.CriticalPatterns...)
	out := make([]*regexp.Regexp, 0, len(all))
	for _, p := range all {
		out = append(out, regexp.MustCompile(p))
	}

	return out
}

// AnalyzeNetLength walks every segment and via belonging to netID and
// reports total length, via count, and layer-transition order (in segment
// insertion order — this does not attempt to reconstruct a true trace walk
// order).
func AnalyzeNetLength(board BoardSample, netID model.NetID) TraceLengthReport {
	var segmentLengths []float64
	layersUsed := make(map[string]bool)
	var orderedLayers []string

	for _, seg := range board.Segments {
		if seg.NetID != netID {
			continue
		}
		segmentLengths = append(segmentLengths, seg.Length())
		layersUsed[seg.Layer] = true
		if len(orderedLayers) == 0 || orderedLayers[len(orderedLayers)-1] != seg.Layer {
			orderedLayers = append(orderedLayers, seg.Layer)
		}
	}

	viaCount := 0
	for _, v := range board.Vias {
		if v.NetID == netID {
			viaCount++
		}
	}

	var layerChanges []string
	for i := 0; i < len(orderedLayers)-1; i++ {
		layerChanges = append(layerChanges, fmt.Sprintf("%s -> %s", orderedLayers[i], orderedLayers[i+1]))
	}

	total := 0.0
	for _, l := range segmentLengths {
		total += l
	}

	layers := make([]string, 0, len(layersUsed))
	for l := range layersUsed {
		layers = append(layers, l)
	}
	sort.Strings(layers)

	return TraceLengthReport{
		NetName:        board.NetNames[netID],
		TotalLengthMM:  geom.Round(total, 3),
		SegmentCount:   len(segmentLengths),
		SegmentLengths: segmentLengths,
		ViaCount:       viaCount,
		LayerChanges:   layerChanges,
		LayersUsed:     layers,
	}
}

// AnalyzeCriticalNetLengths identifies timing-critical nets by name (clock,
// USB, DDR, LVDS, Ethernet, CAN, ...), reports their trace length, and
// annotates differential-pair partners (detected the same way diffpair
// routing detects them) with their skew. Results are sorted by net name.
func AnalyzeCriticalNetLengths(board BoardSample, cfg TraceLengthConfig) []TraceLengthReport {
	patterns := cfg.compiledPatterns()
	critical := identifyCriticalNets(board.NetNames, patterns)
	if len(critical) == 0 {
		return nil
	}

	partnerOf := make(map[model.NetID]model.NetID)
	for _, p := range diffpair.DetectPairs(board.NetNames) {
		pid, nid := p.NetIDs()
		partnerOf[pid] = nid
		partnerOf[nid] = pid
	}

	analyzed := make(map[model.NetID]bool)
	var reports []TraceLengthReport

	for _, netID := range critical {
		if analyzed[netID] {
			continue
		}
		report := AnalyzeNetLength(board, netID)
		analyzed[netID] = true

		if partner, ok := partnerOf[netID]; ok && !analyzed[partner] {
			partnerReport := AnalyzeNetLength(board, partner)
			analyzed[partner] = true

			skew := math.Abs(report.TotalLengthMM - partnerReport.TotalLengthMM)
			report.PairNet, report.PairLengthMM, report.SkewMM = partnerReport.NetName, partnerReport.TotalLengthMM, skew
			partnerReport.PairNet, partnerReport.PairLengthMM, partnerReport.SkewMM = report.NetName, report.TotalLengthMM, skew

			reports = append(reports, partnerReport)
		}

		reports = append(reports, report)
	}

	sort.Slice(reports, func(i, j int) bool { return reports[i].NetName < reports[j].NetName })

	return reports
}

func identifyCriticalNets(netNames map[model.NetID]string, patterns []*regexp.Regexp) []model.NetID {
	var ids []model.NetID
	for id, name := range netNames {
		if name == "" {
			continue
		}
		for _, p := range patterns {
			if p.MatchString(name) {
				ids = append(ids, id)
				break
			}
		}
	}
	sort.Slice(ids, func(i, j int) bool { return netNames[ids[i]] < netNames[ids[j]] })

	return ids
}
