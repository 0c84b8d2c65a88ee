package analysis

import (
	"testing"

	"github.com/katalvlaran/pcbroute/geom"
	"github.com/katalvlaran/pcbroute/model"
)

func TestAnalyzeCrosstalkFindsParallelAdjacentNet(t *testing.T) {
	board := BoardSample{
		Segments: []model.Segment{
			{Start: geom.Point{X: 0, Y: 0}, End: geom.Point{X: 10, Y: 0}, Width: 0.2, Layer: "F.Cu", NetID: 1},
			{Start: geom.Point{X: 0, Y: 0.1}, End: geom.Point{X: 10, Y: 0.1}, Width: 0.2, Layer: "F.Cu", NetID: 2},
		},
		NetNames: map[model.NetID]string{1: "USB_DP", 2: "SIGNAL_A"},
	}

	risks := AnalyzeCrosstalk(board, SignalIntegrityConfig{})
	if len(risks) == 0 {
		t.Fatalf("expected at least one crosstalk risk")
	}
	if risks[0].AggressorNet != "USB_DP" || risks[0].VictimNet != "SIGNAL_A" {
		t.Fatalf("unexpected net pairing: %+v", risks[0])
	}
}

func TestAnalyzeCrosstalkIgnoresNonHighSpeedNets(t *testing.T) {
	board := BoardSample{
		Segments: []model.Segment{
			{Start: geom.Point{X: 0, Y: 0}, End: geom.Point{X: 10, Y: 0}, Width: 0.2, Layer: "F.Cu", NetID: 1},
			{Start: geom.Point{X: 0, Y: 0.1}, End: geom.Point{X: 10, Y: 0.1}, Width: 0.2, Layer: "F.Cu", NetID: 2},
		},
		NetNames: map[model.NetID]string{1: "SIGNAL_A", 2: "SIGNAL_B"},
	}

	risks := AnalyzeCrosstalk(board, SignalIntegrityConfig{})
	if len(risks) != 0 {
		t.Fatalf("expected no risks without a high-speed net, got %d", len(risks))
	}
}

func TestAnalyzeCrosstalkIgnoresFarApartTraces(t *testing.T) {
	board := BoardSample{
		Segments: []model.Segment{
			{Start: geom.Point{X: 0, Y: 0}, End: geom.Point{X: 10, Y: 0}, Width: 0.2, Layer: "F.Cu", NetID: 1},
			{Start: geom.Point{X: 0, Y: 5}, End: geom.Point{X: 10, Y: 5}, Width: 0.2, Layer: "F.Cu", NetID: 2},
		},
		NetNames: map[model.NetID]string{1: "CLK", 2: "SIGNAL_B"},
	}

	risks := AnalyzeCrosstalk(board, SignalIntegrityConfig{})
	if len(risks) != 0 {
		t.Fatalf("expected no risks for widely spaced traces, got %d", len(risks))
	}
}

func TestAnalyzeImpedanceFlagsWidthChange(t *testing.T) {
	board := BoardSample{
		Segments: []model.Segment{
			{Start: geom.Point{X: 0, Y: 0}, End: geom.Point{X: 5, Y: 0}, Width: 0.2, Layer: "F.Cu", NetID: 1},
			{Start: geom.Point{X: 5, Y: 0}, End: geom.Point{X: 10, Y: 0}, Width: 0.5, Layer: "F.Cu", NetID: 1},
		},
		NetNames: map[model.NetID]string{1: "DDR_DQ0"},
	}

	discs := AnalyzeImpedance(board, SignalIntegrityConfig{})
	if len(discs) == 0 {
		t.Fatalf("expected at least one width-change discontinuity")
	}
	if discs[0].Cause != "width_change" {
		t.Fatalf("expected width_change cause, got %s", discs[0].Cause)
	}
}

func TestAnalyzeImpedanceFlagsVia(t *testing.T) {
	board := BoardSample{
		Segments: []model.Segment{
			{Start: geom.Point{X: 0, Y: 0}, End: geom.Point{X: 5, Y: 0}, Width: 0.2, Layer: "F.Cu", NetID: 1},
		},
		Vias:     []model.Via{{Position: geom.Point{X: 5, Y: 0}, NetID: 1}},
		NetNames: map[model.NetID]string{1: "PCIE_TX0"},
	}

	discs := AnalyzeImpedance(board, SignalIntegrityConfig{})
	found := false
	for _, d := range discs {
		if d.Cause == "via" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a via discontinuity, got %+v", discs)
	}
}

func TestAnalyzeImpedanceIgnoresUnconnectedSegments(t *testing.T) {
	board := BoardSample{
		Segments: []model.Segment{
			{Start: geom.Point{X: 0, Y: 0}, End: geom.Point{X: 5, Y: 0}, Width: 0.2, Layer: "F.Cu", NetID: 1},
			{Start: geom.Point{X: 50, Y: 50}, End: geom.Point{X: 55, Y: 50}, Width: 0.6, Layer: "F.Cu", NetID: 1},
		},
		NetNames: map[model.NetID]string{1: "CLK_OUT"},
	}

	discs := AnalyzeImpedance(board, SignalIntegrityConfig{})
	if len(discs) != 0 {
		t.Fatalf("expected no discontinuities between disconnected segments, got %d", len(discs))
	}
}
