package analysis

import (
	"testing"

	"github.com/katalvlaran/pcbroute/geom"
	"github.com/katalvlaran/pcbroute/model"
)

func TestAnalyzeCongestionFindsDenseHotspot(t *testing.T) {
	var segments []model.Segment
	for i := 0; i < 20; i++ {
		segments = append(segments, model.Segment{
			Start: geom.Point{X: 1, Y: 1}, End: geom.Point{X: 1.9, Y: 1.9}, NetID: model.NetID(i + 1),
		})
	}

	board := BoardSample{Segments: segments, NetNames: map[model.NetID]string{1: "NET1"}}
	reports := AnalyzeCongestion(board, CongestionConfig{GridSizeMM: 2.0, MergeRadiusMM: 5.0, MaxWorkers: 1})

	if len(reports) == 0 {
		t.Fatalf("expected at least one hotspot")
	}
	if reports[0].TrackDensity <= 0 {
		t.Fatalf("expected positive track density, got %v", reports[0].TrackDensity)
	}
}

func TestAnalyzeCongestionEmptyBoardHasNoHotspots(t *testing.T) {
	reports := AnalyzeCongestion(BoardSample{}, CongestionConfig{})
	if len(reports) != 0 {
		t.Fatalf("expected no hotspots on an empty board, got %d", len(reports))
	}
}

func TestAnalyzeCongestionViaCountTriggersHotspot(t *testing.T) {
	var vias []model.Via
	for i := 0; i < 3; i++ {
		vias = append(vias, model.Via{Position: geom.Point{X: 5, Y: 5}, NetID: model.NetID(i + 1)})
	}
	board := BoardSample{Vias: vias}

	reports := AnalyzeCongestion(board, CongestionConfig{GridSizeMM: 2.0, MaxWorkers: 1})
	if len(reports) != 1 {
		t.Fatalf("expected 1 hotspot, got %d", len(reports))
	}
	if reports[0].ViaCount != 3 {
		t.Fatalf("expected via count 3, got %d", reports[0].ViaCount)
	}
}

func TestAnalyzeCongestionUnconnectedPadTriggersHotspot(t *testing.T) {
	board := BoardSample{
		Footprints: []model.Footprint{{
			Ref:      "U1",
			Position: geom.Point{X: 3, Y: 3},
			Pads: []model.Pad{
				{Ref: "U1", PinNumber: "1", Center: geom.Point{X: 3, Y: 3}, NetID: model.UnconnectedNet},
			},
		}},
	}

	reports := AnalyzeCongestion(board, CongestionConfig{GridSizeMM: 2.0, MaxWorkers: 1})
	if len(reports) != 1 {
		t.Fatalf("expected 1 hotspot for an unrouted pad, got %d", len(reports))
	}
	if reports[0].UnroutedConnections != 1 {
		t.Fatalf("expected 1 unrouted connection, got %d", reports[0].UnroutedConnections)
	}
}

func TestAnalyzeCongestionParallelMatchesSequential(t *testing.T) {
	var segments []model.Segment
	for gx := 0; gx < 20; gx++ {
		for gy := 0; gy < 20; gy++ {
			x := float64(gx) * 2.0
			y := float64(gy) * 2.0
			segments = append(segments, model.Segment{
				Start: geom.Point{X: x + 0.1, Y: y + 0.1}, End: geom.Point{X: x + 1.9, Y: y + 1.9}, NetID: 1,
			})
		}
	}
	board := BoardSample{Segments: segments}

	seq := AnalyzeCongestion(board, CongestionConfig{GridSizeMM: 2.0, MaxWorkers: 1})
	par := AnalyzeCongestion(board, CongestionConfig{GridSizeMM: 2.0, MaxWorkers: 4})

	if len(seq) != len(par) {
		t.Fatalf("sequential vs parallel hotspot count mismatch: %d vs %d", len(seq), len(par))
	}
	for i := range seq {
		if seq[i].CenterX != par[i].CenterX || seq[i].CenterY != par[i].CenterY {
			t.Fatalf("hotspot %d center mismatch: %+v vs %+v", i, seq[i], par[i])
		}
	}
}

func TestSuggestFixesRecommendsMovingComponents(t *testing.T) {
	report := CongestionHotspot{Components: []string{"R1", "R2", "C1"}, Severity: SeverityLow}
	suggestions := suggestFixes(report)
	if len(suggestions) == 0 {
		t.Fatalf("expected at least one suggestion for 3 components")
	}
}

func TestSuggestFixesCriticalWithNoOtherTriggersGenericSuggestion(t *testing.T) {
	report := CongestionHotspot{Severity: SeverityCritical}
	suggestions := suggestFixes(report)
	if len(suggestions) != 1 {
		t.Fatalf("expected exactly 1 generic suggestion, got %d: %v", len(suggestions), suggestions)
	}
}
