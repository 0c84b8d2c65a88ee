package analysis

import (
	"testing"

	"github.com/katalvlaran/pcbroute/geom"
	"github.com/katalvlaran/pcbroute/model"
)

func TestAnalyzeNetLengthSumsSegments(t *testing.T) {
	board := BoardSample{
		Segments: []model.Segment{
			{Start: geom.Point{X: 0, Y: 0}, End: geom.Point{X: 3, Y: 0}, Layer: "F.Cu", NetID: 1},
			{Start: geom.Point{X: 3, Y: 0}, End: geom.Point{X: 3, Y: 4}, Layer: "F.Cu", NetID: 1},
		},
		NetNames: map[model.NetID]string{1: "CLK_OUT"},
	}

	report := AnalyzeNetLength(board, 1)
	if report.TotalLengthMM != 7 {
		t.Fatalf("expected length 7, got %v", report.TotalLengthMM)
	}
	if report.SegmentCount != 2 {
		t.Fatalf("expected 2 segments, got %d", report.SegmentCount)
	}
}

func TestAnalyzeNetLengthTracksLayerChanges(t *testing.T) {
	board := BoardSample{
		Segments: []model.Segment{
			{Start: geom.Point{X: 0, Y: 0}, End: geom.Point{X: 1, Y: 0}, Layer: "F.Cu", NetID: 1},
			{Start: geom.Point{X: 1, Y: 0}, End: geom.Point{X: 2, Y: 0}, Layer: "In1.Cu", NetID: 1},
		},
		NetNames: map[model.NetID]string{1: "DDR_DQ0"},
	}

	report := AnalyzeNetLength(board, 1)
	if len(report.LayerChanges) != 1 || report.LayerChanges[0] != "F.Cu -> In1.Cu" {
		t.Fatalf("expected one layer change, got %v", report.LayerChanges)
	}
}

func TestAnalyzeCriticalNetLengthsFindsClockNet(t *testing.T) {
	board := BoardSample{
		Segments: []model.Segment{
			{Start: geom.Point{X: 0, Y: 0}, End: geom.Point{X: 5, Y: 0}, Layer: "F.Cu", NetID: 1},
			{Start: geom.Point{X: 0, Y: 0}, End: geom.Point{X: 5, Y: 0}, Layer: "F.Cu", NetID: 2},
		},
		NetNames: map[model.NetID]string{1: "CLK_25MHZ", 2: "SIGNAL_A"},
	}

	reports := AnalyzeCriticalNetLengths(board, TraceLengthConfig{})
	if len(reports) != 1 || reports[0].NetName != "CLK_25MHZ" {
		t.Fatalf("expected only CLK_25MHZ to be critical, got %+v", reports)
	}
}

func TestAnalyzeCriticalNetLengthsComputesDiffPairSkew(t *testing.T) {
	board := BoardSample{
		Segments: []model.Segment{
			{Start: geom.Point{X: 0, Y: 0}, End: geom.Point{X: 10, Y: 0}, Layer: "F.Cu", NetID: 1},
			{Start: geom.Point{X: 0, Y: 0}, End: geom.Point{X: 12, Y: 0}, Layer: "F.Cu", NetID: 2},
		},
		NetNames: map[model.NetID]string{1: "USB_D+", 2: "USB_D-"},
	}

	reports := AnalyzeCriticalNetLengths(board, TraceLengthConfig{})
	if len(reports) != 2 {
		t.Fatalf("expected both pair members reported, got %d", len(reports))
	}
	for _, r := range reports {
		if r.SkewMM != 2 {
			t.Fatalf("expected skew 2mm, got %v for %s", r.SkewMM, r.NetName)
		}
	}
}

func TestAnalyzeCriticalNetLengthsNoCriticalNetsReturnsNil(t *testing.T) {
	board := BoardSample{NetNames: map[model.NetID]string{1: "SIGNAL_A"}}
	reports := AnalyzeCriticalNetLengths(board, TraceLengthConfig{})
	if reports != nil {
		t.Fatalf("expected nil, got %+v", reports)
	}
}
